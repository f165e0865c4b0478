package models

// Thread groups related emails.
type Thread struct {
	ID       string   `jmap:"id,required"`
	EmailIDs []string `jmap:"emailIds,required"`
}

// Len is the number of emails in the thread.
func (t Thread) Len() int { return len(t.EmailIDs) }
