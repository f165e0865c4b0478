// Package methods defines JMAP method argument and response records.
//
// Argument records implement request.Method; response records implement
// dispatch.Response and are registered into dispatch.Default on import.
package methods

import (
	"pkt.systems/jmap/api"
	"pkt.systems/jmap/models"
)

// Account carries the accountId of account-scoped methods. Left empty, the
// client fills in the session's primary account.
type Account struct {
	AccountID string `jmap:"accountId,omitempty"`
}

// AccountScoped implements request.AccountScoped.
func (Account) AccountScoped() bool { return true }

// Get holds the standard /get arguments.
type Get struct {
	Account
	IDs        api.Arg[[]string] `jmap:"ids"`
	Properties []string          `jmap:"properties"`
}

// GetResponse holds the standard /get response fields.
type GetResponse struct {
	AccountID string   `jmap:"accountId"`
	State     string   `jmap:"state"`
	NotFound  []string `jmap:"notFound"`
}

// Changes holds the standard /changes arguments.
type Changes struct {
	Account
	SinceState string `jmap:"sinceState,required"`
	MaxChanges *int64 `jmap:"maxChanges"`
}

// ChangesResponse holds the standard /changes response fields.
type ChangesResponse struct {
	AccountID      string   `jmap:"accountId"`
	OldState       string   `jmap:"oldState"`
	NewState       string   `jmap:"newState"`
	HasMoreChanges bool     `jmap:"hasMoreChanges"`
	Created        []string `jmap:"created"`
	Updated        []string `jmap:"updated"`
	Destroyed      []string `jmap:"destroyed"`
}

// Set holds the standard /set arguments. Create maps are typed per method.
type Set struct {
	Account
	IfInState api.Arg[string]           `jmap:"ifInState"`
	Update    map[string]map[string]any `jmap:"update"`
	Destroy   api.Arg[[]string]         `jmap:"destroy"`
}

// SetResponse holds the standard /set response fields.
type SetResponse struct {
	AccountID    string                     `jmap:"accountId"`
	OldState     *string                    `jmap:"oldState"`
	NewState     string                     `jmap:"newState"`
	Updated      map[string]map[string]any  `jmap:"updated"`
	Destroyed    []string                   `jmap:"destroyed"`
	NotCreated   map[string]models.SetError `jmap:"notCreated"`
	NotUpdated   map[string]models.SetError `jmap:"notUpdated"`
	NotDestroyed map[string]models.SetError `jmap:"notDestroyed"`
}

// Query holds the standard /query arguments. Filters are typed per method.
type Query struct {
	Account
	Sort           []models.Comparator `jmap:"sort"`
	Position       *int64              `jmap:"position"`
	Anchor         *string             `jmap:"anchor"`
	AnchorOffset   *int64              `jmap:"anchorOffset"`
	Limit          *int64              `jmap:"limit"`
	CalculateTotal *bool               `jmap:"calculateTotal"`
}

// QueryResponse holds the standard /query response fields.
type QueryResponse struct {
	AccountID           string   `jmap:"accountId"`
	QueryState          string   `jmap:"queryState"`
	CanCalculateChanges bool     `jmap:"canCalculateChanges"`
	Position            int64    `jmap:"position"`
	IDs                 []string `jmap:"ids"`
	Total               *int64   `jmap:"total"`
	Limit               *int64   `jmap:"limit"`
}

// QueryChanges holds the standard /queryChanges arguments.
type QueryChanges struct {
	Account
	Sort            []models.Comparator `jmap:"sort"`
	SinceQueryState string              `jmap:"sinceQueryState,required"`
	MaxChanges      *int64              `jmap:"maxChanges"`
	UpToID          *string             `jmap:"upToId"`
	CalculateTotal  *bool               `jmap:"calculateTotal"`
}

// QueryChangesResponse holds the standard /queryChanges response fields.
type QueryChangesResponse struct {
	AccountID     string             `jmap:"accountId"`
	OldQueryState string             `jmap:"oldQueryState"`
	NewQueryState string             `jmap:"newQueryState"`
	Total         *int64             `jmap:"total"`
	Removed       []string           `jmap:"removed"`
	Added         []models.AddedItem `jmap:"added"`
}

var (
	mailCapabilities       = []string{api.URNMail}
	submissionCapabilities = []string{api.URNSubmission}
	vacationCapabilities   = []string{api.URNVacationResponse}
	maskedCapabilities     = []string{api.URNMaskedEmail}
)
