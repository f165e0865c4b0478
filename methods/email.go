package methods

import (
	"pkt.systems/jmap/api"
	"pkt.systems/jmap/models"
)

// EmailGet fetches emails.
type EmailGet struct {
	Get
	BodyProperties      []string `jmap:"bodyProperties"`
	FetchTextBodyValues *bool    `jmap:"fetchTextBodyValues"`
	FetchHTMLBodyValues *bool    `jmap:"fetchHTMLBodyValues"`
	FetchAllBodyValues  *bool    `jmap:"fetchAllBodyValues"`
	MaxBodyValueBytes   *int64   `jmap:"maxBodyValueBytes"`
}

func (EmailGet) MethodName() string     { return "Email/get" }
func (EmailGet) Capabilities() []string { return mailCapabilities }

// EmailGetResponse lists the fetched emails.
type EmailGetResponse struct {
	GetResponse
	List []models.Email `jmap:"list"`
}

func (EmailGetResponse) MethodName() string { return "Email/get" }

// EmailChanges lists email changes since a state.
type EmailChanges struct{ Changes }

func (EmailChanges) MethodName() string     { return "Email/changes" }
func (EmailChanges) Capabilities() []string { return mailCapabilities }

// EmailChangesResponse reports email changes.
type EmailChangesResponse struct{ ChangesResponse }

func (EmailChangesResponse) MethodName() string { return "Email/changes" }

// EmailQuery searches emails.
type EmailQuery struct {
	Query
	Filter          models.Filter `jmap:"filter"`
	CollapseThreads *bool         `jmap:"collapseThreads"`
}

func (EmailQuery) MethodName() string     { return "Email/query" }
func (EmailQuery) Capabilities() []string { return mailCapabilities }

// EmailQueryResponse lists matching email ids.
type EmailQueryResponse struct{ QueryResponse }

func (EmailQueryResponse) MethodName() string { return "Email/query" }

// EmailQueryChanges lists changes to an email query.
type EmailQueryChanges struct {
	QueryChanges
	Filter          models.Filter `jmap:"filter"`
	CollapseThreads *bool         `jmap:"collapseThreads"`
}

func (EmailQueryChanges) MethodName() string     { return "Email/queryChanges" }
func (EmailQueryChanges) Capabilities() []string { return mailCapabilities }

// EmailQueryChangesResponse reports email query changes.
type EmailQueryChangesResponse struct{ QueryChangesResponse }

func (EmailQueryChangesResponse) MethodName() string { return "Email/queryChanges" }

// EmailSet creates, updates or destroys emails.
type EmailSet struct {
	Set
	Create map[string]models.Email `jmap:"create"`
}

func (EmailSet) MethodName() string     { return "Email/set" }
func (EmailSet) Capabilities() []string { return mailCapabilities }

// EmailSetResponse reports the outcome of EmailSet.
type EmailSetResponse struct {
	SetResponse
	Created map[string]*models.Email `jmap:"created"`
}

func (EmailSetResponse) MethodName() string { return "Email/set" }

// SearchSnippetGet highlights matches of filter in the given emails.
type SearchSnippetGet struct {
	Account
	EmailIDs api.Arg[[]string] `jmap:"emailIds"`
	Filter   models.Filter     `jmap:"filter"`
}

func (SearchSnippetGet) MethodName() string     { return "SearchSnippet/get" }
func (SearchSnippetGet) Capabilities() []string { return mailCapabilities }

// SearchSnippetGetResponse lists the snippets. It carries no state.
type SearchSnippetGetResponse struct {
	AccountID string                 `jmap:"accountId"`
	List      []models.SearchSnippet `jmap:"list"`
	NotFound  []string               `jmap:"notFound"`
}

func (SearchSnippetGetResponse) MethodName() string { return "SearchSnippet/get" }
