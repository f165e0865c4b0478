package models

import "pkt.systems/jmap/api"

// Mailbox is a named set of emails (RFC 8621 section 2).
type Mailbox struct {
	ID            *string        `jmap:"id"`
	Name          *string        `jmap:"name"`
	ParentID      *string        `jmap:"parentId"`
	Role          *string        `jmap:"role"`
	SortOrder     *int64         `jmap:"sortOrder"`
	TotalEmails   *int64         `jmap:"totalEmails"`
	UnreadEmails  *int64         `jmap:"unreadEmails"`
	TotalThreads  *int64         `jmap:"totalThreads"`
	UnreadThreads *int64         `jmap:"unreadThreads"`
	MyRights      *MailboxRights `jmap:"myRights"`
	IsSubscribed  *bool          `jmap:"isSubscribed"`
}

// MailboxRights lists what the user may do with a mailbox.
type MailboxRights struct {
	MayReadItems   bool `jmap:"mayReadItems"`
	MayAddItems    bool `jmap:"mayAddItems"`
	MayRemoveItems bool `jmap:"mayRemoveItems"`
	MaySetSeen     bool `jmap:"maySetSeen"`
	MaySetKeywords bool `jmap:"maySetKeywords"`
	MayCreateChild bool `jmap:"mayCreateChild"`
	MayRename      bool `jmap:"mayRename"`
	MayDelete      bool `jmap:"mayDelete"`
	MaySubmit      bool `jmap:"maySubmit"`
}

// MailboxFilterCondition selects mailboxes in Mailbox/query.
type MailboxFilterCondition struct {
	ParentID     api.Arg[string] `jmap:"parentId"`
	Name         api.Arg[string] `jmap:"name"`
	Role         api.Arg[string] `jmap:"role"`
	HasAnyRole   *bool           `jmap:"hasAnyRole"`
	IsSubscribed *bool           `jmap:"isSubscribed"`
}

func (MailboxFilterCondition) isFilter() {}
