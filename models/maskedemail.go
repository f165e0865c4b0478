package models

import "time"

// MaskedEmailState is the lifecycle state of a masked address.
type MaskedEmailState string

const (
	MaskedEmailPending  MaskedEmailState = "pending"
	MaskedEmailEnabled  MaskedEmailState = "enabled"
	MaskedEmailDisabled MaskedEmailState = "disabled"
	MaskedEmailDeleted  MaskedEmailState = "deleted"
)

// MaskedEmail is a Fastmail forwarding alias.
type MaskedEmail struct {
	ID            *string           `jmap:"id"`
	Email         *string           `jmap:"email"`
	State         *MaskedEmailState `jmap:"state"`
	ForDomain     *string           `jmap:"forDomain"`
	Description   *string           `jmap:"description"`
	LastMessageAt *time.Time        `jmap:"lastMessageAt"`
	CreatedAt     *time.Time        `jmap:"createdAt"`
	CreatedBy     *string           `jmap:"createdBy"`
	URL           *string           `jmap:"url"`
	EmailPrefix   *string           `jmap:"emailPrefix"`
}
