package methods

import "pkt.systems/jmap/models"

// VacationResponseGet fetches the vacation response singleton.
type VacationResponseGet struct{ Get }

func (VacationResponseGet) MethodName() string     { return "VacationResponse/get" }
func (VacationResponseGet) Capabilities() []string { return vacationCapabilities }

// VacationResponseGetResponse holds the singleton.
type VacationResponseGetResponse struct {
	GetResponse
	List []models.VacationResponse `jmap:"list"`
}

func (VacationResponseGetResponse) MethodName() string { return "VacationResponse/get" }

// VacationResponseSet updates the singleton.
type VacationResponseSet struct {
	Set
	Create map[string]models.VacationResponse `jmap:"create"`
}

func (VacationResponseSet) MethodName() string     { return "VacationResponse/set" }
func (VacationResponseSet) Capabilities() []string { return vacationCapabilities }

// VacationResponseSetResponse reports the outcome of VacationResponseSet.
type VacationResponseSetResponse struct {
	SetResponse
	Created map[string]*models.VacationResponse `jmap:"created"`
}

func (VacationResponseSetResponse) MethodName() string { return "VacationResponse/set" }
