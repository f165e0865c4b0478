// Package dispatch maps JMAP response triples back to typed results.
//
// Every registered shape decodes from its method name. Method errors decode
// through the error registry keyed by their type. Names nobody registered
// fall through to Passthrough so an unknown extension never breaks a batch.
package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/tidwall/gjson"
	"pkt.systems/pslog"

	"pkt.systems/jmap/api"
	"pkt.systems/jmap/codec"
	"pkt.systems/jmap/internal/loggingutil"
)

// Response is implemented by every decoded result, success or error.
type Response interface {
	MethodName() string
}

// InvocationResponse is one decoded response triple.
type InvocationResponse struct {
	// ID is the call id the server echoed.
	ID string
	// Response is a registered shape, a *Passthrough or an api.MethodError.
	Response Response
}

// Err returns the method error carried by r, or nil for a success.
func (r InvocationResponse) Err() api.MethodError {
	if err, ok := r.Response.(api.MethodError); ok {
		return err
	}
	return nil
}

// DecodeFunc decodes a raw payload into a result.
type DecodeFunc func(payload []byte) (Response, error)

// Passthrough keeps the payload of a method without a registered shape.
type Passthrough struct {
	Name      string
	AccountID string
	Data      map[string]any
}

// MethodName implements Response.
func (p *Passthrough) MethodName() string { return p.Name }

// DecodeError reports a response that could not be decoded.
type DecodeError struct {
	Name   string
	CallID string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("jmap: decode %s response %q: %v", e.Name, e.CallID, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ErrMissingErrorType is returned for an error payload without a type.
var ErrMissingErrorType = errors.New("jmap: error response has no type")

// Registry maps method names to decoders. The zero value is not usable; call
// NewRegistry.
type Registry struct {
	mu       sync.RWMutex
	methods  map[string]DecodeFunc
	errors   map[string]func() api.MethodError
	logger   pslog.Logger
	fallback bool
}

// RegistryOption customises a Registry.
type RegistryOption func(*Registry)

// WithLogger attaches a logger used to report passthrough fallbacks.
func WithLogger(logger pslog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = loggingutil.WithSubsystem(logger, "dispatch")
	}
}

// WithStrictDecoding disables the fallbacks for payloads that fail to decode
// into their registered shape: the passthrough for methods and the generic
// *api.Error for refined error types.
func WithStrictDecoding() RegistryOption {
	return func(r *Registry) {
		r.fallback = false
	}
}

// NewRegistry returns a registry holding the standard method errors and no
// method shapes.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		methods:  make(map[string]DecodeFunc),
		errors:   standardErrors(),
		logger:   loggingutil.NoopLogger(),
		fallback: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Default is the registry the methods package registers into.
var Default = NewRegistry()

// Register binds name to fn, replacing any previous decoder.
func (r *Registry) Register(name string, fn DecodeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.methods[name] = fn
}

// RegisterError binds an error type to a constructor for its refined shape.
func (r *Registry) RegisterError(errorType string, ctor func() api.MethodError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors[errorType] = ctor
}

// Names lists the registered method names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.methods))
	for name := range r.methods {
		out = append(out, name)
	}
	return out
}

// Clone copies the registry so callers can extend it without touching the
// original.
func (r *Registry) Clone(opts ...RegistryOption) *Registry {
	r.mu.RLock()
	clone := &Registry{
		methods:  maps.Clone(r.methods),
		errors:   maps.Clone(r.errors),
		logger:   r.logger,
		fallback: r.fallback,
	}
	r.mu.RUnlock()
	for _, opt := range opts {
		if opt != nil {
			opt(clone)
		}
	}
	return clone
}

// Shape is the pointer form of a registered response record.
type Shape[T any] interface {
	*T
	Response
}

// RegisterShape registers T under the name its MethodName reports.
func RegisterShape[T any, PT Shape[T]](r *Registry) {
	name := PT(new(T)).MethodName()
	r.Register(name, func(payload []byte) (Response, error) {
		out := PT(new(T))
		if err := codec.DecodeJSON(payload, out); err != nil {
			return nil, err
		}
		return out, nil
	})
}

func (r *Registry) lookup(name string) (DecodeFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.methods[name]
	return fn, ok
}

func (r *Registry) errorShape(errorType string) (func() api.MethodError, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctor, ok := r.errors[errorType]
	return ctor, ok
}

// Decode maps every triple to its typed result. Responses are returned in
// server order; there may be more of them than calls in the request.
func (r *Registry) Decode(responses []api.MethodResponse) ([]InvocationResponse, error) {
	out := make([]InvocationResponse, 0, len(responses))
	for _, triple := range responses {
		res, err := r.DecodeOne(triple)
		if err != nil {
			return nil, err
		}
		out = append(out, InvocationResponse{ID: triple.CallID, Response: res})
	}
	return out, nil
}

// DecodeOne decodes a single triple.
func (r *Registry) DecodeOne(triple api.MethodResponse) (Response, error) {
	if triple.Name == api.MethodErrorName {
		res, err := r.decodeError(triple)
		if err != nil {
			return nil, &DecodeError{Name: triple.Name, CallID: triple.CallID, Err: err}
		}
		return res, nil
	}
	if fn, ok := r.lookup(triple.Name); ok {
		res, err := fn(triple.Arguments)
		if err == nil {
			return res, nil
		}
		if !r.fallback {
			return nil, &DecodeError{Name: triple.Name, CallID: triple.CallID, Err: err}
		}
		r.logger.Warn("dispatch.decode.fallback", "method", triple.Name, "call_id", triple.CallID, "error", err)
	}
	res, err := decodePassthrough(triple.Name, triple.Arguments)
	if err != nil {
		return nil, &DecodeError{Name: triple.Name, CallID: triple.CallID, Err: err}
	}
	return res, nil
}

func (r *Registry) decodeError(triple api.MethodResponse) (api.MethodError, error) {
	payload := triple.Arguments
	if !gjson.ValidBytes(payload) {
		return nil, errors.New("jmap: error payload is not valid JSON")
	}
	kind := gjson.GetBytes(payload, "type")
	if kind.Type != gjson.String {
		return nil, ErrMissingErrorType
	}
	if ctor, ok := r.errorShape(kind.Str); ok {
		out := ctor()
		err := codec.DecodeJSON(payload, out)
		if err == nil {
			return out, nil
		}
		if !r.fallback {
			return nil, err
		}
		r.logger.Warn("dispatch.decode.fallback", "method", triple.Name, "call_id", triple.CallID, "type", kind.Str, "error", err)
	}
	return genericError(kind.Str, payload)
}

// genericError keeps every member other than type and description in
// Properties. A description that is not a string is kept there too.
func genericError(errorType string, payload []byte) (*api.Error, error) {
	var fields map[string]any
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, err
	}
	out := &api.Error{ErrorInfo: api.ErrorInfo{Type: errorType}}
	delete(fields, "type")
	if desc, ok := fields["description"].(string); ok {
		out.Description = desc
		delete(fields, "description")
	}
	if len(fields) > 0 {
		out.Properties = fields
	}
	return out, nil
}

func decodePassthrough(name string, payload []byte) (*Passthrough, error) {
	var data map[string]any
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("jmap: payload is not an object: %w", err)
	}
	out := &Passthrough{Name: name}
	if account, ok := data["accountId"].(string); ok {
		out.AccountID = account
		delete(data, "accountId")
	}
	out.Data = data
	return out, nil
}

func standardErrors() map[string]func() api.MethodError {
	return map[string]func() api.MethodError{
		api.ErrorAccountNotFound:             func() api.MethodError { return &api.AccountNotFound{} },
		api.ErrorAccountNotSupportedByMethod: func() api.MethodError { return &api.AccountNotSupportedByMethod{} },
		api.ErrorAccountReadOnly:             func() api.MethodError { return &api.AccountReadOnly{} },
		api.ErrorAnchorNotFound:              func() api.MethodError { return &api.AnchorNotFound{} },
		api.ErrorCannotCalculateChanges:      func() api.MethodError { return &api.CannotCalculateChanges{} },
		api.ErrorForbidden:                   func() api.MethodError { return &api.Forbidden{} },
		api.ErrorInvalidArguments:            func() api.MethodError { return &api.InvalidArguments{} },
		api.ErrorInvalidResultReference:      func() api.MethodError { return &api.InvalidResultReference{} },
		api.ErrorRequestTooLarge:             func() api.MethodError { return &api.RequestTooLarge{} },
		api.ErrorServerFail:                  func() api.MethodError { return &api.ServerFail{} },
		api.ErrorServerPartialFail:           func() api.MethodError { return &api.ServerPartialFail{} },
		api.ErrorServerUnavailable:           func() api.MethodError { return &api.ServerUnavailable{} },
		api.ErrorStateMismatch:               func() api.MethodError { return &api.StateMismatch{} },
		api.ErrorTooManyChanges:              func() api.MethodError { return &api.TooManyChanges{} },
		api.ErrorUnknownMethod:               func() api.MethodError { return &api.UnknownMethod{} },
		api.ErrorUnsupportedFilter:           func() api.MethodError { return &api.UnsupportedFilter{} },
		api.ErrorUnsupportedSort:             func() api.MethodError { return &api.UnsupportedSort{} },
	}
}
