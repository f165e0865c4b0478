package methods

import (
	"pkt.systems/jmap/models"
)

// MailboxGet fetches mailboxes.
type MailboxGet struct{ Get }

func (MailboxGet) MethodName() string     { return "Mailbox/get" }
func (MailboxGet) Capabilities() []string { return mailCapabilities }

// MailboxGetResponse lists the fetched mailboxes.
type MailboxGetResponse struct {
	GetResponse
	List []models.Mailbox `jmap:"list"`
}

func (MailboxGetResponse) MethodName() string { return "Mailbox/get" }

// MailboxChanges lists mailbox changes since a state.
type MailboxChanges struct{ Changes }

func (MailboxChanges) MethodName() string     { return "Mailbox/changes" }
func (MailboxChanges) Capabilities() []string { return mailCapabilities }

// MailboxChangesResponse reports mailbox changes.
type MailboxChangesResponse struct {
	ChangesResponse
	UpdatedProperties []string `jmap:"updatedProperties"`
}

func (MailboxChangesResponse) MethodName() string { return "Mailbox/changes" }

// MailboxQuery searches mailboxes.
type MailboxQuery struct {
	Query
	Filter       models.Filter `jmap:"filter"`
	SortAsTree   *bool         `jmap:"sortAsTree"`
	FilterAsTree *bool         `jmap:"filterAsTree"`
}

func (MailboxQuery) MethodName() string     { return "Mailbox/query" }
func (MailboxQuery) Capabilities() []string { return mailCapabilities }

// MailboxQueryResponse lists matching mailbox ids.
type MailboxQueryResponse struct{ QueryResponse }

func (MailboxQueryResponse) MethodName() string { return "Mailbox/query" }

// MailboxQueryChanges lists changes to a mailbox query.
type MailboxQueryChanges struct {
	QueryChanges
	Filter models.Filter `jmap:"filter"`
}

func (MailboxQueryChanges) MethodName() string     { return "Mailbox/queryChanges" }
func (MailboxQueryChanges) Capabilities() []string { return mailCapabilities }

// MailboxQueryChangesResponse reports mailbox query changes.
type MailboxQueryChangesResponse struct{ QueryChangesResponse }

func (MailboxQueryChangesResponse) MethodName() string { return "Mailbox/queryChanges" }

// MailboxSet creates, updates or destroys mailboxes.
type MailboxSet struct {
	Set
	Create                map[string]models.Mailbox `jmap:"create"`
	OnDestroyRemoveEmails *bool                     `jmap:"onDestroyRemoveEmails"`
}

func (MailboxSet) MethodName() string     { return "Mailbox/set" }
func (MailboxSet) Capabilities() []string { return mailCapabilities }

// MailboxSetResponse reports the outcome of MailboxSet.
type MailboxSetResponse struct {
	SetResponse
	Created map[string]*models.Mailbox `jmap:"created"`
}

func (MailboxSetResponse) MethodName() string { return "Mailbox/set" }
