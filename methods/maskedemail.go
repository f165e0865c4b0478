package methods

import "pkt.systems/jmap/models"

// MaskedEmailGet fetches Fastmail masked addresses.
type MaskedEmailGet struct{ Get }

func (MaskedEmailGet) MethodName() string     { return "MaskedEmail/get" }
func (MaskedEmailGet) Capabilities() []string { return maskedCapabilities }

// MaskedEmailGetResponse lists the masked addresses.
type MaskedEmailGetResponse struct {
	GetResponse
	List []models.MaskedEmail `jmap:"list"`
}

func (MaskedEmailGetResponse) MethodName() string { return "MaskedEmail/get" }

// MaskedEmailSet creates, updates or destroys masked addresses.
type MaskedEmailSet struct {
	Set
	Create map[string]models.MaskedEmail `jmap:"create"`
}

func (MaskedEmailSet) MethodName() string     { return "MaskedEmail/set" }
func (MaskedEmailSet) Capabilities() []string { return maskedCapabilities }

// MaskedEmailSetResponse reports the outcome of MaskedEmailSet.
type MaskedEmailSetResponse struct {
	SetResponse
	Created map[string]*models.MaskedEmail `jmap:"created"`
}

func (MaskedEmailSetResponse) MethodName() string { return "MaskedEmail/set" }
