package api

import (
	"fmt"
	"sort"
	"strings"
)

// MethodErrorName is the response name the server uses for method-level errors.
const MethodErrorName = "error"

// Method-level error types defined by RFC 8620 and RFC 8621.
const (
	ErrorAccountNotFound             = "accountNotFound"
	ErrorAccountNotSupportedByMethod = "accountNotSupportedByMethod"
	ErrorAccountReadOnly             = "accountReadOnly"
	ErrorAnchorNotFound              = "anchorNotFound"
	ErrorCannotCalculateChanges      = "cannotCalculateChanges"
	ErrorForbidden                   = "forbidden"
	ErrorInvalidArguments            = "invalidArguments"
	ErrorInvalidResultReference      = "invalidResultReference"
	ErrorRequestTooLarge             = "requestTooLarge"
	ErrorServerFail                  = "serverFail"
	ErrorServerPartialFail           = "serverPartialFail"
	ErrorServerUnavailable           = "serverUnavailable"
	ErrorStateMismatch               = "stateMismatch"
	ErrorTooManyChanges              = "tooManyChanges"
	ErrorUnknownMethod               = "unknownMethod"
	ErrorUnsupportedFilter           = "unsupportedFilter"
	ErrorUnsupportedSort             = "unsupportedSort"
)

// MethodError is a typed method-level error returned in place of a response.
// It is a value in the result list, not a Go failure of the call.
type MethodError interface {
	error
	MethodName() string
	ErrorType() string
}

// ErrorInfo is the common shape of every method error.
type ErrorInfo struct {
	Type        string `jmap:"type,required"`
	Description string `jmap:"description,omitempty"`
}

func (e *ErrorInfo) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("jmap: method error %s: %s", e.Type, e.Description)
	}
	return "jmap: method error " + e.Type
}

// MethodName implements MethodError.
func (e *ErrorInfo) MethodName() string { return MethodErrorName }

// ErrorType implements MethodError.
func (e *ErrorInfo) ErrorType() string { return e.Type }

// Error is the generic record for error types without a refined shape.
// Properties keeps every field other than type and description.
type Error struct {
	ErrorInfo
	Properties map[string]any `jmap:"-"`
}

func (e *Error) Error() string {
	if e.Description != "" || len(e.Properties) == 0 {
		return e.ErrorInfo.Error()
	}
	keys := make([]string, 0, len(e.Properties))
	for key := range e.Properties {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return fmt.Sprintf("jmap: method error %s (%s)", e.Type, strings.Join(keys, ", "))
}

// AccountNotFound means the accountId does not correspond to a valid account.
type AccountNotFound struct{ ErrorInfo }

// AccountNotSupportedByMethod means the account does not support the method.
type AccountNotSupportedByMethod struct{ ErrorInfo }

// AccountReadOnly means the method would modify a read-only account.
type AccountReadOnly struct{ ErrorInfo }

// AnchorNotFound means a query anchor id was not in the results.
type AnchorNotFound struct{ ErrorInfo }

// CannotCalculateChanges means the server cannot compute changes since a state.
type CannotCalculateChanges struct{ ErrorInfo }

// Forbidden means the action would violate an ACL or other permission policy.
type Forbidden struct{ ErrorInfo }

// InvalidArguments names the offending arguments when the server provides them.
type InvalidArguments struct {
	ErrorInfo
	Arguments []string `jmap:"arguments"`
}

// InvalidResultReference means a back-reference failed to resolve server side.
type InvalidResultReference struct{ ErrorInfo }

// RequestTooLarge means too many ids or objects were supplied.
type RequestTooLarge struct{ ErrorInfo }

// ServerFail is an unexpected server error.
type ServerFail struct{ ErrorInfo }

// ServerPartialFail means some, but not all, changes were committed.
type ServerPartialFail struct{ ErrorInfo }

// ServerUnavailable is a temporary server error.
type ServerUnavailable struct{ ErrorInfo }

// StateMismatch means ifInState did not match the current state.
type StateMismatch struct{ ErrorInfo }

// TooManyChanges means there are more changes than maxChanges allows.
type TooManyChanges struct{ ErrorInfo }

// UnknownMethod means the server does not recognise the method name.
type UnknownMethod struct{ ErrorInfo }

// UnsupportedFilter means the query filter is not supported.
type UnsupportedFilter struct{ ErrorInfo }

// UnsupportedSort means the query sort is not supported.
type UnsupportedSort struct{ ErrorInfo }
