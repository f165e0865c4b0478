package models

// Identity is a From address the user may send with.
type Identity struct {
	ID            string         `jmap:"id,required"`
	Name          string         `jmap:"name,required"`
	Email         string         `jmap:"email,required"`
	ReplyTo       []EmailAddress `jmap:"replyTo"`
	Bcc           []EmailAddress `jmap:"bcc"`
	TextSignature *string        `jmap:"textSignature"`
	HTMLSignature *string        `jmap:"htmlSignature"`
	MayDelete     bool           `jmap:"mayDelete"`
}
