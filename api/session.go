package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// ErrNoPrimaryAccount is returned when the session names no primary account
// for any of the requested capabilities.
var ErrNoPrimaryAccount = errors.New("jmap: no primary account id found")

// Session is the descriptor served at the session URL. A loaded Session is
// never mutated; a refresh produces a new value.
type Session struct {
	// Capabilities maps capability URNs to their server-specific settings.
	Capabilities map[string]json.RawMessage `json:"capabilities"`
	// Accounts describes every account the user can access, keyed by id.
	Accounts map[string]Account `json:"accounts,omitempty"`
	// PrimaryAccounts maps capability URNs to the default account id.
	PrimaryAccounts map[string]string `json:"primaryAccounts"`
	// Username is the authenticated user.
	Username string `json:"username"`
	// APIURL receives JMAP requests.
	APIURL string `json:"apiUrl"`
	// DownloadURL is a template with {accountId}, {blobId}, {type} and {name}.
	DownloadURL string `json:"downloadUrl"`
	// UploadURL is a template with {accountId}.
	UploadURL string `json:"uploadUrl"`
	// EventSourceURL is a template with {types}, {closeafter} and {ping}.
	EventSourceURL string `json:"eventSourceUrl"`
	// State identifies this version of the descriptor.
	State string `json:"state"`
}

// Account describes one account listed in the session.
type Account struct {
	Name                string                     `json:"name"`
	IsPersonal          bool                       `json:"isPersonal"`
	IsReadOnly          bool                       `json:"isReadOnly"`
	AccountCapabilities map[string]json.RawMessage `json:"accountCapabilities,omitempty"`
}

// CoreCapability holds the limits advertised under URNCore.
type CoreCapability struct {
	MaxSizeUpload         int64    `json:"maxSizeUpload"`
	MaxConcurrentUpload   int64    `json:"maxConcurrentUpload"`
	MaxSizeRequest        int64    `json:"maxSizeRequest"`
	MaxConcurrentRequests int64    `json:"maxConcurrentRequests"`
	MaxCallsInRequest     int64    `json:"maxCallsInRequest"`
	MaxObjectsInGet       int64    `json:"maxObjectsInGet"`
	MaxObjectsInSet       int64    `json:"maxObjectsInSet"`
	CollationAlgorithms   []string `json:"collationAlgorithms"`
}

// DecodeSession parses a session descriptor body.
func DecodeSession(body []byte) (*Session, error) {
	var sess Session
	if err := json.Unmarshal(body, &sess); err != nil {
		return nil, fmt.Errorf("jmap: decode session: %w", err)
	}
	if strings.TrimSpace(sess.APIURL) == "" {
		return nil, errors.New("jmap: decode session: apiUrl missing")
	}
	return &sess, nil
}

// CapabilityURNs returns the advertised capability URNs, sorted.
func (s *Session) CapabilityURNs() []string {
	out := make([]string, 0, len(s.Capabilities))
	for urn := range s.Capabilities {
		out = append(out, urn)
	}
	slices.Sort(out)
	return out
}

// HasCapability reports whether urn is advertised.
func (s *Session) HasCapability(urn string) bool {
	_, ok := s.Capabilities[urn]
	return ok
}

// Core decodes the core capability limits.
func (s *Session) Core() (CoreCapability, error) {
	var core CoreCapability
	raw, ok := s.Capabilities[URNCore]
	if !ok {
		return core, fmt.Errorf("jmap: session lacks %s", URNCore)
	}
	if err := json.Unmarshal(raw, &core); err != nil {
		return core, fmt.Errorf("jmap: decode core capability: %w", err)
	}
	return core, nil
}

// PrimaryAccount returns the first primary account id found for urns, tried
// in order. With no urns it tries core, mail and submission.
func (s *Session) PrimaryAccount(urns ...string) (string, error) {
	if len(urns) == 0 {
		urns = []string{URNCore, URNMail, URNSubmission}
	}
	for _, urn := range urns {
		if id := s.PrimaryAccounts[urn]; id != "" {
			return id, nil
		}
	}
	return "", ErrNoPrimaryAccount
}

// UploadURLFor expands the upload template for accountID.
func (s *Session) UploadURLFor(accountID string) string {
	return expandTemplate(s.UploadURL, map[string]string{"accountId": url.PathEscape(accountID)})
}

// DownloadURLFor expands the download template.
func (s *Session) DownloadURLFor(accountID, blobID, mimeType, name string) string {
	return expandTemplate(s.DownloadURL, map[string]string{
		"accountId": url.PathEscape(accountID),
		"blobId":    url.PathEscape(blobID),
		"type":      url.QueryEscape(mimeType),
		"name":      url.PathEscape(name),
	})
}

// EventSourceURLFor expands the event source template. An empty types list
// subscribes to every type.
func (s *Session) EventSourceURLFor(types []string, closeAfter string, ping int) string {
	typeList := "*"
	if len(types) > 0 {
		typeList = strings.Join(types, ",")
	}
	if closeAfter == "" {
		closeAfter = "no"
	}
	return expandTemplate(s.EventSourceURL, map[string]string{
		"types":      typeList,
		"closeafter": closeAfter,
		"ping":       fmt.Sprint(ping),
	})
}

func expandTemplate(tmpl string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for key, value := range vars {
		pairs = append(pairs, "{"+key+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
