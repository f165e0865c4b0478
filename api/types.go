package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Request models the JSON payload POSTed to the session's API URL.
type Request struct {
	// Using lists the capability URNs the request relies on, sorted.
	Using []string `json:"using"`
	// MethodCalls holds the invocations in submission order.
	MethodCalls []MethodCall `json:"methodCalls"`
	// CreatedIDs seeds creation id lookups across requests.
	CreatedIDs map[string]string `json:"createdIds,omitempty"`
}

// Response models the JSON body returned by the API URL.
type Response struct {
	// MethodResponses holds the response triples in server order.
	MethodResponses []MethodResponse `json:"methodResponses"`
	// CreatedIDs maps creation ids to server ids for every object created.
	CreatedIDs map[string]string `json:"createdIds,omitempty"`
	// SessionState is the server's current session state token.
	SessionState string `json:"sessionState"`
}

// MethodCall is one invocation on the wire, encoded as [name, arguments, callId].
type MethodCall struct {
	Name      string
	Arguments map[string]any
	CallID    string
}

// MarshalJSON renders the call as a 3-tuple.
func (c MethodCall) MarshalJSON() ([]byte, error) {
	args := c.Arguments
	if args == nil {
		args = map[string]any{}
	}
	return json.Marshal([]any{c.Name, args, c.CallID})
}

// UnmarshalJSON parses a [name, arguments, callId] tuple.
func (c *MethodCall) UnmarshalJSON(data []byte) error {
	var name, id string
	var raw json.RawMessage
	if err := decodeTriple(data, &name, &raw, &id); err != nil {
		return err
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return &ResponseFormatError{Reason: fmt.Sprintf("arguments of %q are not an object", name), Err: err}
	}
	*c = MethodCall{Name: name, Arguments: args, CallID: id}
	return nil
}

// MethodResponse is one response triple. Arguments stays raw so the
// dispatcher can pick a decoder by name.
type MethodResponse struct {
	Name      string
	Arguments json.RawMessage
	CallID    string
}

// MarshalJSON renders the response as a 3-tuple.
func (r MethodResponse) MarshalJSON() ([]byte, error) {
	args := r.Arguments
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	return json.Marshal([]any{r.Name, args, r.CallID})
}

// UnmarshalJSON parses a [name, payload, callId] tuple. Anything that is not
// a 3-element list with string name and id is a ResponseFormatError.
func (r *MethodResponse) UnmarshalJSON(data []byte) error {
	var name, id string
	var raw json.RawMessage
	if err := decodeTriple(data, &name, &raw, &id); err != nil {
		return err
	}
	*r = MethodResponse{Name: name, Arguments: raw, CallID: id}
	return nil
}

func decodeTriple(data []byte, name *string, args *json.RawMessage, id *string) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return &ResponseFormatError{Reason: "method triple is not a list", Err: err}
	}
	if len(tuple) != 3 {
		return &ResponseFormatError{Reason: fmt.Sprintf("method triple has %d elements", len(tuple))}
	}
	if err := json.Unmarshal(tuple[0], name); err != nil {
		return &ResponseFormatError{Reason: "method name is not a string", Err: err}
	}
	if err := json.Unmarshal(tuple[2], id); err != nil {
		return &ResponseFormatError{Reason: "call id is not a string", Err: err}
	}
	*args = json.RawMessage(bytes.TrimSpace(tuple[1]))
	return nil
}

// ResponseFormatError reports a response body whose top-level structure is not
// a valid JMAP response.
type ResponseFormatError struct {
	Reason string
	Err    error
}

func (e *ResponseFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("jmap: malformed response: %s: %v", e.Reason, e.Err)
	}
	return "jmap: malformed response: " + e.Reason
}

func (e *ResponseFormatError) Unwrap() error { return e.Err }

// DecodeResponse parses a full API response body.
func DecodeResponse(body []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		var formatErr *ResponseFormatError
		if errors.As(err, &formatErr) {
			return nil, err
		}
		return nil, &ResponseFormatError{Reason: "response is not a JMAP envelope", Err: err}
	}
	if resp.MethodResponses == nil {
		return nil, &ResponseFormatError{Reason: "methodResponses missing"}
	}
	return &resp, nil
}
