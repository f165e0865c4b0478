package methods

import "pkt.systems/jmap/models"

// EmailSubmissionGet fetches submissions.
type EmailSubmissionGet struct{ Get }

func (EmailSubmissionGet) MethodName() string     { return "EmailSubmission/get" }
func (EmailSubmissionGet) Capabilities() []string { return submissionCapabilities }

// EmailSubmissionGetResponse lists the submissions.
type EmailSubmissionGetResponse struct {
	GetResponse
	List []models.EmailSubmission `jmap:"list"`
}

func (EmailSubmissionGetResponse) MethodName() string { return "EmailSubmission/get" }

// EmailSubmissionChanges lists submission changes since a state.
type EmailSubmissionChanges struct{ Changes }

func (EmailSubmissionChanges) MethodName() string     { return "EmailSubmission/changes" }
func (EmailSubmissionChanges) Capabilities() []string { return submissionCapabilities }

// EmailSubmissionChangesResponse reports submission changes.
type EmailSubmissionChangesResponse struct{ ChangesResponse }

func (EmailSubmissionChangesResponse) MethodName() string { return "EmailSubmission/changes" }

// EmailSubmissionQuery searches submissions.
type EmailSubmissionQuery struct {
	Query
	Filter models.Filter `jmap:"filter"`
}

func (EmailSubmissionQuery) MethodName() string     { return "EmailSubmission/query" }
func (EmailSubmissionQuery) Capabilities() []string { return submissionCapabilities }

// EmailSubmissionQueryResponse lists matching submission ids.
type EmailSubmissionQueryResponse struct{ QueryResponse }

func (EmailSubmissionQueryResponse) MethodName() string { return "EmailSubmission/query" }

// EmailSubmissionSet sends, updates or cancels submissions. The OnSuccess
// maps act on the submitted emails once the submission succeeds.
type EmailSubmissionSet struct {
	Set
	Create                map[string]models.EmailSubmission `jmap:"create"`
	OnSuccessUpdateEmail  map[string]map[string]any         `jmap:"onSuccessUpdateEmail"`
	OnSuccessDestroyEmail []string                          `jmap:"onSuccessDestroyEmail"`
}

func (EmailSubmissionSet) MethodName() string     { return "EmailSubmission/set" }
func (EmailSubmissionSet) Capabilities() []string { return submissionCapabilities }

// EmailSubmissionSetResponse reports the outcome of EmailSubmissionSet.
type EmailSubmissionSetResponse struct {
	SetResponse
	Created map[string]*models.EmailSubmission `jmap:"created"`
}

func (EmailSubmissionSetResponse) MethodName() string { return "EmailSubmission/set" }
