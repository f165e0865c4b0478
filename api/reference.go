package api

import "fmt"

// Reference is a back-reference to the result of an earlier invocation in the
// same request. It is implemented by ResultReference and Ref only.
type Reference interface {
	// ReferencePath is the JSON pointer into the referenced result.
	ReferencePath() string
	isReference()
}

// ResultReference is the explicit wire form {name, path, resultOf}.
type ResultReference struct {
	// Name is the method name of the referenced invocation.
	Name string `json:"name" jmap:"name,required"`
	// Path points into the referenced result.
	Path string `json:"path" jmap:"path,required"`
	// ResultOf is the call id of the referenced invocation.
	ResultOf string `json:"resultOf" jmap:"resultOf,required"`
}

func (r ResultReference) ReferencePath() string { return r.Path }
func (ResultReference) isReference() {}

// Ref is the shorthand form resolved when the request is built. When Call is
// set the reference targets the earlier invocation with that id. Otherwise
// Offset indexes the earlier invocations: non-negative values count from the
// start of the request and negative values from the end. The zero Ref
// therefore targets the first call of the request, not the one before it;
// use Prev for that.
type Ref struct {
	Path   string
	Call   string
	Offset int
}

// Prev references the invocation immediately before the one carrying it.
func Prev(path string) Ref {
	return Ref{Path: path, Offset: -1}
}

// RefCall references the earlier invocation identified by callID.
func RefCall(callID, path string) Ref {
	return Ref{Path: path, Call: callID}
}

func (r Ref) ReferencePath() string { return r.Path }
func (Ref) isReference() {}

// Target describes what the reference points at, for error messages.
func (r Ref) Target() string {
	if r.Call != "" {
		return fmt.Sprintf("call %q", r.Call)
	}
	return fmt.Sprintf("offset %d", r.Offset)
}

// Arg is a method argument that holds either a literal value or a reference
// to an earlier result. The zero Arg is absent and is not sent.
type Arg[T any] struct {
	value T
	ref   Reference
	set   bool
}

// Value wraps a literal argument.
func Value[T any](v T) Arg[T] {
	return Arg[T]{value: v, set: true}
}

// ArgRef wraps a reference argument.
func ArgRef[T any](ref Reference) Arg[T] {
	return Arg[T]{ref: ref, set: ref != nil}
}

// Get returns the literal value. ok is false for absent or reference args.
func (a Arg[T]) Get() (value T, ok bool) {
	return a.value, a.set && a.ref == nil
}

// Reference returns the reference, or nil when the arg holds a value.
func (a Arg[T]) Reference() Reference { return a.ref }

// IsSet reports whether the arg carries a value or a reference.
func (a Arg[T]) IsSet() bool { return a.set }

// ArgumentValue exposes the arg to the codec.
func (a Arg[T]) ArgumentValue() (value any, ref Reference, set bool) {
	if !a.set {
		return nil, nil, false
	}
	if a.ref != nil {
		return nil, a.ref, true
	}
	return a.value, nil, true
}

// ArgumentTarget marks the arg as holding a value and returns a pointer for
// the codec to decode into.
func (a *Arg[T]) ArgumentTarget() any {
	a.ref = nil
	a.set = true
	return &a.value
}

// SetReference stores an explicit reference decoded from a "#field" key.
func (a *Arg[T]) SetReference(ref ResultReference) {
	var zero T
	a.value = zero
	a.ref = ref
	a.set = true
}

// Argument is implemented by Arg for every T.
type Argument interface {
	ArgumentValue() (value any, ref Reference, set bool)
}

// ArgumentDecoder is implemented by *Arg for every T.
type ArgumentDecoder interface {
	ArgumentTarget() any
	SetReference(ResultReference)
}
