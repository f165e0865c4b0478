package models

import (
	"time"

	"pkt.systems/jmap/api"
)

// Email is a message stored in one or more mailboxes (RFC 8621 section 4).
type Email struct {
	ID            *string                   `jmap:"id"`
	BlobID        *string                   `jmap:"blobId"`
	ThreadID      *string                   `jmap:"threadId"`
	MailboxIDs    map[string]bool           `jmap:"mailboxIds"`
	Keywords      map[string]bool           `jmap:"keywords"`
	Size          *int64                    `jmap:"size"`
	ReceivedAt    *time.Time                `jmap:"receivedAt"`
	MessageID     []string                  `jmap:"messageId"`
	InReplyTo     []string                  `jmap:"inReplyTo"`
	References    []string                  `jmap:"references"`
	Headers       []EmailHeader             `jmap:"headers"`
	From          []EmailAddress            `jmap:"from"`
	To            []EmailAddress            `jmap:"to"`
	Cc            []EmailAddress            `jmap:"cc"`
	Bcc           []EmailAddress            `jmap:"bcc"`
	ReplyTo       []EmailAddress            `jmap:"replyTo"`
	Subject       *string                   `jmap:"subject"`
	SentAt        *time.Time                `jmap:"sentAt"`
	BodyStructure *EmailBodyPart            `jmap:"bodyStructure"`
	BodyValues    map[string]EmailBodyValue `jmap:"bodyValues"`
	TextBody      []EmailBodyPart           `jmap:"textBody"`
	HTMLBody      []EmailBodyPart           `jmap:"htmlBody"`
	Attachments   []EmailBodyPart           `jmap:"attachments"`
	HasAttachment *bool                     `jmap:"hasAttachment"`
	Preview       *string                   `jmap:"preview"`
}

// EmailHeader is one raw header field. Lists of headers are sent as
// "header:<name>" properties.
type EmailHeader struct {
	Name  *string `jmap:"name"`
	Value *string `jmap:"value"`
}

// Header builds an EmailHeader.
func Header(name, value string) EmailHeader {
	return EmailHeader{Name: &name, Value: &value}
}

// EmailBodyPart is a node of the MIME structure.
type EmailBodyPart struct {
	PartID      *string         `jmap:"partId"`
	BlobID      *string         `jmap:"blobId"`
	Size        *int64          `jmap:"size"`
	Headers     []EmailHeader   `jmap:"headers"`
	Name        *string         `jmap:"name"`
	Type        *string         `jmap:"type"`
	Charset     *string         `jmap:"charset"`
	Disposition *string         `jmap:"disposition"`
	CID         *string         `jmap:"cid"`
	Language    []string        `jmap:"language"`
	Location    *string         `jmap:"location"`
	SubParts    []EmailBodyPart `jmap:"subParts"`
}

// EmailBodyValue is decoded text content of a body part.
type EmailBodyValue struct {
	Value             *string `jmap:"value"`
	IsEncodingProblem *bool   `jmap:"isEncodingProblem"`
	IsTruncated       *bool   `jmap:"isTruncated"`
}

// EmailFilterCondition selects emails in Email/query and SearchSnippet/get.
type EmailFilterCondition struct {
	InMailbox               api.Arg[string]   `jmap:"inMailbox"`
	InMailboxOtherThan      api.Arg[[]string] `jmap:"inMailboxOtherThan"`
	Before                  *time.Time        `jmap:"before"`
	After                   *time.Time        `jmap:"after"`
	MinSize                 *int64            `jmap:"minSize"`
	MaxSize                 *int64            `jmap:"maxSize"`
	AllInThreadHaveKeyword  api.Arg[string]   `jmap:"allInThreadHaveKeyword"`
	SomeInThreadHaveKeyword api.Arg[string]   `jmap:"someInThreadHaveKeyword"`
	NoneInThreadHaveKeyword api.Arg[string]   `jmap:"noneInThreadHaveKeyword"`
	HasKeyword              api.Arg[string]   `jmap:"hasKeyword"`
	NotKeyword              api.Arg[string]   `jmap:"notKeyword"`
	HasAttachment           *bool             `jmap:"hasAttachment"`
	Text                    api.Arg[string]   `jmap:"text"`
	From                    api.Arg[string]   `jmap:"from"`
	To                      api.Arg[string]   `jmap:"to"`
	Cc                      api.Arg[string]   `jmap:"cc"`
	Bcc                     api.Arg[string]   `jmap:"bcc"`
	Subject                 api.Arg[string]   `jmap:"subject"`
	Body                    api.Arg[string]   `jmap:"body"`
	Header                  api.Arg[[]string] `jmap:"header"`
}

func (EmailFilterCondition) isFilter() {}
