// Package request turns method records into a JMAP request: it assigns call
// ids, collects capability URNs, injects the account id and rewrites
// result references into their wire form.
package request

import (
	"fmt"
	"strconv"
)

// Method is implemented by every method argument record.
type Method interface {
	// MethodName is the wire name, e.g. "Mailbox/get".
	MethodName() string
	// Capabilities lists the URNs the method needs beyond core.
	Capabilities() []string
}

// AccountScoped is implemented by methods that carry an accountId.
type AccountScoped interface {
	AccountScoped() bool
}

// Invocation binds a method to its call id. It implements Method so callers
// can mix pre-built invocations with bare methods.
type Invocation struct {
	ID     string
	Method Method
}

// MethodName implements Method.
func (i Invocation) MethodName() string { return i.Method.MethodName() }

// Capabilities implements Method.
func (i Invocation) Capabilities() []string { return i.Method.Capabilities() }

// IDPolicy derives the call id of the method at index in a batch of total
// calls.
type IDPolicy func(index, total int, name string) string

// DefaultIDPolicy names calls "<index>.<name>", or "single.<name>" when the
// request carries exactly one call.
func DefaultIDPolicy(index, total int, name string) string {
	if total == 1 {
		return "single." + name
	}
	return strconv.Itoa(index) + "." + name
}

func isAccountScoped(m Method) bool {
	if inv, ok := m.(Invocation); ok {
		m = inv.Method
	}
	if inv, ok := m.(*Invocation); ok && inv != nil {
		m = inv.Method
	}
	scoped, ok := m.(AccountScoped)
	return ok && scoped.AccountScoped()
}

func describe(inv Invocation) string {
	return fmt.Sprintf("%s (%s)", inv.ID, inv.MethodName())
}
