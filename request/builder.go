package request

import (
	"fmt"
	"maps"
	"slices"

	"pkt.systems/jmap/api"
	"pkt.systems/jmap/codec"
)

// AccountIDKey is the argument injected into account-scoped methods.
const AccountIDKey = "accountId"

// Builder assembles requests. A Builder is immutable and safe for concurrent
// use.
type Builder struct {
	idPolicy  IDPolicy
	accountID string
}

// Option customises a Builder.
type Option func(*Builder)

// WithIDPolicy overrides DefaultIDPolicy.
func WithIDPolicy(policy IDPolicy) Option {
	return func(b *Builder) {
		if policy != nil {
			b.idPolicy = policy
		}
	}
}

// WithAccountID sets the account injected when Encode is given none.
func WithAccountID(accountID string) Option {
	return func(b *Builder) {
		b.accountID = accountID
	}
}

// NewBuilder returns a Builder using DefaultIDPolicy.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{idPolicy: DefaultIDPolicy}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// ID returns the call id the builder assigns to the call at index in a
// request of total calls.
func (b *Builder) ID(index, total int, name string) string {
	return b.idPolicy(index, total, name)
}

// Batch is a prepared request: every call has its id, its arguments are
// encoded with references in wire form, and the capability set is known. Only
// the account id is left for Encode.
type Batch struct {
	// Invocations holds the calls in submission order.
	Invocations []Invocation
	// Using is the sorted capability set, always including core.
	Using []string

	args      []map[string]any
	accountID string
}

// Prepare assigns call ids, collects capabilities and encodes every call.
// Duplicate ids are rejected before any argument is encoded. References are
// finalized against the calls before each one, so a reference that cannot
// resolve fails here without any network traffic.
func (b *Builder) Prepare(calls []Method) (*Batch, error) {
	if len(calls) == 0 {
		return nil, &BuildError{Err: ErrNoCalls}
	}
	invocations := make([]Invocation, len(calls))
	seen := make(map[string]struct{}, len(calls))
	using := map[string]struct{}{api.URNCore: {}}
	for i, call := range calls {
		var inv Invocation
		switch c := call.(type) {
		case nil:
			return nil, &BuildError{Err: fmt.Errorf("jmap: method call %d is nil", i)}
		case Invocation:
			inv = c
		case *Invocation:
			inv = *c
		default:
			inv = Invocation{ID: b.idPolicy(i, len(calls), c.MethodName()), Method: c}
		}
		if inv.Method == nil {
			return nil, &BuildError{CallID: inv.ID, Err: fmt.Errorf("jmap: invocation %d has no method", i)}
		}
		if _, dup := seen[inv.ID]; dup {
			return nil, &BuildError{CallID: inv.ID, Err: ErrDuplicateCallID}
		}
		seen[inv.ID] = struct{}{}
		for _, urn := range inv.Capabilities() {
			using[urn] = struct{}{}
		}
		invocations[i] = inv
	}
	args := make([]map[string]any, len(invocations))
	for i, inv := range invocations {
		encoded, err := codec.Encode(inv.Method)
		if err != nil {
			return nil, &BuildError{CallID: inv.ID, Err: err}
		}
		if args[i], err = Finalize(encoded, inv.ID, invocations[:i]); err != nil {
			return nil, err
		}
	}
	urns := make([]string, 0, len(using))
	for urn := range using {
		urns = append(urns, urn)
	}
	slices.Sort(urns)
	return &Batch{Invocations: invocations, Using: urns, args: args, accountID: b.accountID}, nil
}

// Build prepares and encodes calls in one step.
func (b *Builder) Build(calls []Method, accountID string) (api.Request, error) {
	batch, err := b.Prepare(calls)
	if err != nil {
		return api.Request{}, err
	}
	return batch.Encode(accountID), nil
}

// AccountScoped reports whether any call in the batch needs an account id.
func (b *Batch) AccountScoped() bool {
	for _, inv := range b.Invocations {
		if isAccountScoped(inv.Method) {
			return true
		}
	}
	return false
}

// Encode produces the wire request. accountId is injected into account scoped
// calls that name neither an accountId nor a #accountId reference. The batch
// is not modified and may be encoded again.
func (b *Batch) Encode(accountID string) api.Request {
	if accountID == "" {
		accountID = b.accountID
	}
	calls := make([]api.MethodCall, len(b.Invocations))
	for i, inv := range b.Invocations {
		args := maps.Clone(b.args[i])
		if isAccountScoped(inv.Method) && accountID != "" {
			_, plain := args[AccountIDKey]
			_, ref := args["#"+AccountIDKey]
			if !plain && !ref {
				args[AccountIDKey] = accountID
			}
		}
		calls[i] = api.MethodCall{Name: inv.MethodName(), Arguments: args, CallID: inv.ID}
	}
	return api.Request{Using: slices.Clone(b.Using), MethodCalls: calls}
}

// Describe lists the calls for logging.
func (b *Batch) Describe() []string {
	out := make([]string, len(b.Invocations))
	for i, inv := range b.Invocations {
		out[i] = describe(inv)
	}
	return out
}
