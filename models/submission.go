package models

import "time"

// UndoStatus tracks whether a submission can still be cancelled.
type UndoStatus string

const (
	UndoPending  UndoStatus = "pending"
	UndoFinal    UndoStatus = "final"
	UndoCanceled UndoStatus = "canceled"
)

// Delivered is the delivery state for one recipient.
type Delivered string

const (
	DeliveredQueued  Delivered = "queued"
	DeliveredYes     Delivered = "yes"
	DeliveredNo      Delivered = "no"
	DeliveredUnknown Delivered = "unknown"
)

// Displayed reports a read receipt for one recipient.
type Displayed string

const (
	DisplayedUnknown Displayed = "unknown"
	DisplayedYes     Displayed = "yes"
)

// EmailSubmission sends an email (RFC 8621 section 7).
type EmailSubmission struct {
	ID             *string                   `jmap:"id"`
	IdentityID     *string                   `jmap:"identityId"`
	EmailID        *string                   `jmap:"emailId"`
	ThreadID       *string                   `jmap:"threadId"`
	Envelope       *Envelope                 `jmap:"envelope"`
	SendAt         *time.Time                `jmap:"sendAt"`
	UndoStatus     *UndoStatus               `jmap:"undoStatus"`
	DeliveryStatus map[string]DeliveryStatus `jmap:"deliveryStatus"`
	DSNBlobIDs     []string                  `jmap:"dsnBlobIds"`
	MDNBlobIDs     []string                  `jmap:"mdnBlobIds"`
}

// Envelope is the SMTP envelope of a submission.
type Envelope struct {
	MailFrom *SMTPAddress  `jmap:"mailFrom"`
	RcptTo   []SMTPAddress `jmap:"rcptTo"`
}

// SMTPAddress is an envelope address with optional SMTP parameters.
type SMTPAddress struct {
	Email      string            `jmap:"email,required"`
	Parameters map[string]string `jmap:"parameters"`
}

// DeliveryStatus is the per-recipient delivery report.
type DeliveryStatus struct {
	SMTPReply string    `jmap:"smtpReply,required"`
	Delivered Delivered `jmap:"delivered,required"`
	Displayed Displayed `jmap:"displayed,required"`
}

// EmailSubmissionFilterCondition selects submissions in EmailSubmission/query.
type EmailSubmissionFilterCondition struct {
	IdentityIDs []string    `jmap:"identityIds"`
	EmailIDs    []string    `jmap:"emailIds"`
	ThreadIDs   []string    `jmap:"threadIds"`
	UndoStatus  *UndoStatus `jmap:"undoStatus"`
	Before      *time.Time  `jmap:"before"`
	After       *time.Time  `jmap:"after"`
}

func (EmailSubmissionFilterCondition) isFilter() {}
