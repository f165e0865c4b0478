package api

// StateEventName is the SSE event name carrying StateChange payloads.
const StateEventName = "state"

// TypeState maps data type names (Email, Mailbox, ...) to their new state.
type TypeState map[string]string

// StateChange is the push payload announcing new states per account.
type StateChange struct {
	// Type is always "StateChange".
	Type string `json:"@type"`
	// Changed maps account ids to the types whose state moved.
	Changed map[string]TypeState `json:"changed"`
}

// Event is one decoded server-sent event from the event source.
type Event struct {
	// ID is the SSE event id, used as Last-Event-ID on reconnect.
	ID string
	// Name is the SSE event name.
	Name string
	// Data is the decoded state change.
	Data StateChange
}
