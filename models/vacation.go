package models

import "time"

// VacationResponseID is the id of the VacationResponse singleton.
const VacationResponseID = "singleton"

// VacationResponse is the automatic reply configuration.
type VacationResponse struct {
	ID        string     `jmap:"id,required"`
	IsEnabled bool       `jmap:"isEnabled,required"`
	FromDate  *time.Time `jmap:"fromDate"`
	ToDate    *time.Time `jmap:"toDate"`
	Subject   *string    `jmap:"subject"`
	TextBody  *string    `jmap:"textBody"`
	HTMLBody  *string    `jmap:"htmlBody"`
}
