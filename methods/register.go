package methods

import "pkt.systems/jmap/dispatch"

func init() {
	Register(dispatch.Default)
}

// Register adds every response record of this package to r.
func Register(r *dispatch.Registry) {
	dispatch.RegisterShape[CoreEchoResponse](r)

	dispatch.RegisterShape[MailboxGetResponse](r)
	dispatch.RegisterShape[MailboxChangesResponse](r)
	dispatch.RegisterShape[MailboxQueryResponse](r)
	dispatch.RegisterShape[MailboxQueryChangesResponse](r)
	dispatch.RegisterShape[MailboxSetResponse](r)

	dispatch.RegisterShape[ThreadGetResponse](r)
	dispatch.RegisterShape[ThreadChangesResponse](r)

	dispatch.RegisterShape[EmailGetResponse](r)
	dispatch.RegisterShape[EmailChangesResponse](r)
	dispatch.RegisterShape[EmailQueryResponse](r)
	dispatch.RegisterShape[EmailQueryChangesResponse](r)
	dispatch.RegisterShape[EmailSetResponse](r)
	dispatch.RegisterShape[SearchSnippetGetResponse](r)

	dispatch.RegisterShape[IdentityGetResponse](r)
	dispatch.RegisterShape[IdentityChangesResponse](r)
	dispatch.RegisterShape[IdentitySetResponse](r)

	dispatch.RegisterShape[EmailSubmissionGetResponse](r)
	dispatch.RegisterShape[EmailSubmissionChangesResponse](r)
	dispatch.RegisterShape[EmailSubmissionQueryResponse](r)
	dispatch.RegisterShape[EmailSubmissionSetResponse](r)

	dispatch.RegisterShape[VacationResponseGetResponse](r)
	dispatch.RegisterShape[VacationResponseSetResponse](r)

	dispatch.RegisterShape[MaskedEmailGetResponse](r)
	dispatch.RegisterShape[MaskedEmailSetResponse](r)
}
