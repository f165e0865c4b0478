package methods

import "pkt.systems/jmap/models"

// IdentityGet fetches sending identities.
type IdentityGet struct{ Get }

func (IdentityGet) MethodName() string     { return "Identity/get" }
func (IdentityGet) Capabilities() []string { return submissionCapabilities }

// IdentityGetResponse lists the identities.
type IdentityGetResponse struct {
	GetResponse
	List []models.Identity `jmap:"list"`
}

func (IdentityGetResponse) MethodName() string { return "Identity/get" }

// IdentityChanges lists identity changes since a state.
type IdentityChanges struct{ Changes }

func (IdentityChanges) MethodName() string     { return "Identity/changes" }
func (IdentityChanges) Capabilities() []string { return submissionCapabilities }

// IdentityChangesResponse reports identity changes.
type IdentityChangesResponse struct{ ChangesResponse }

func (IdentityChangesResponse) MethodName() string { return "Identity/changes" }

// IdentitySet creates, updates or destroys identities.
type IdentitySet struct {
	Set
	Create map[string]models.Identity `jmap:"create"`
}

func (IdentitySet) MethodName() string     { return "Identity/set" }
func (IdentitySet) Capabilities() []string { return submissionCapabilities }

// IdentitySetResponse reports the outcome of IdentitySet.
type IdentitySetResponse struct {
	SetResponse
	Created map[string]*models.Identity `jmap:"created"`
}

func (IdentitySetResponse) MethodName() string { return "Identity/set" }
