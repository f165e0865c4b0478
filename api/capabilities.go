package api

// Capability URNs understood by this module.
const (
	// URNCore is the JMAP core capability, included in every request.
	URNCore = "urn:ietf:params:jmap:core"
	// URNMail covers Mailbox, Thread, Email and SearchSnippet.
	URNMail = "urn:ietf:params:jmap:mail"
	// URNSubmission covers Identity and EmailSubmission.
	URNSubmission = "urn:ietf:params:jmap:submission"
	// URNVacationResponse covers the VacationResponse singleton.
	URNVacationResponse = "urn:ietf:params:jmap:vacationresponse"
	// URNMaskedEmail is Fastmail's masked email extension.
	URNMaskedEmail = "https://www.fastmail.com/dev/maskedemail"
)
