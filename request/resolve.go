package request

import (
	"fmt"
	"strings"

	"pkt.systems/jmap/api"
	"pkt.systems/jmap/internal/jsonpointer"
)

// HeaderPrefix prefixes flattened header fields.
const HeaderPrefix = "header:"

// Finalize prepares encoded arguments for the wire. References become
// "#key" entries in the explicit {name, path, resultOf} form, shorthand
// references are resolved against prior, and lists of {name, value} pairs
// become "header:<name>" keys. Nested maps are walked. A reference anywhere
// inside a list is rejected with a *ReferenceError since the wire format only
// allows references as whole argument values. The input map is not modified.
func Finalize(args map[string]any, callID string, prior []Invocation) (map[string]any, error) {
	out := make(map[string]any, len(args))
	for key, value := range args {
		if strings.HasPrefix(key, "#") {
			out[key] = value
			continue
		}
		switch v := value.(type) {
		case api.ResultReference:
			out["#"+key] = wireReference(v)
		case *api.ResultReference:
			if v == nil {
				continue
			}
			out["#"+key] = wireReference(*v)
		case api.Ref:
			resolved, err := resolve(v, key, callID, prior)
			if err != nil {
				return nil, err
			}
			out["#"+key] = wireReference(resolved)
		case *api.Ref:
			if v == nil {
				continue
			}
			resolved, err := resolve(*v, key, callID, prior)
			if err != nil {
				return nil, err
			}
			out["#"+key] = wireReference(resolved)
		case map[string]any:
			nested, err := Finalize(v, callID, prior)
			if err != nil {
				return nil, err
			}
			out[key] = nested
		case []any:
			if headers, ok := headerPairs(v); ok {
				for _, h := range headers {
					out[HeaderPrefix+h.name] = h.value
				}
				continue
			}
			if target, ok := listReference(v); ok {
				return nil, &ReferenceError{CallID: callID, Key: key, Target: target, Reason: "references inside lists are not supported"}
			}
			out[key] = v
		default:
			out[key] = value
		}
	}
	return out, nil
}

// Resolve turns a shorthand reference into its explicit form using the
// invocations placed before the one carrying it.
func Resolve(ref api.Ref, prior []Invocation) (api.ResultReference, error) {
	return resolve(ref, "", "", prior)
}

func resolve(ref api.Ref, key, callID string, prior []Invocation) (api.ResultReference, error) {
	fail := func(reason string) error {
		return &ReferenceError{CallID: callID, Key: key, Target: ref.Target(), Reason: reason}
	}
	if err := jsonpointer.Validate(ref.Path); err != nil {
		return api.ResultReference{}, fail(err.Error())
	}
	if len(prior) == 0 {
		return api.ResultReference{}, fail("no earlier method calls")
	}
	var target Invocation
	if ref.Call != "" {
		found := false
		for _, inv := range prior {
			if inv.ID == ref.Call {
				target, found = inv, true
				break
			}
		}
		if !found {
			return api.ResultReference{}, fail("no earlier call with that id")
		}
	} else {
		index := ref.Offset
		if index < 0 {
			index += len(prior)
		}
		if index < 0 || index >= len(prior) {
			return api.ResultReference{}, fail(fmt.Sprintf("offset out of range for %d earlier calls", len(prior)))
		}
		target = prior[index]
	}
	return api.ResultReference{Name: target.MethodName(), Path: ref.Path, ResultOf: target.ID}, nil
}

// listReference finds the first reference held anywhere below list.
func listReference(list []any) (string, bool) {
	for _, item := range list {
		if target, ok := findReference(item); ok {
			return target, true
		}
	}
	return "", false
}

func findReference(value any) (string, bool) {
	switch v := value.(type) {
	case api.Ref:
		return v.Target(), true
	case *api.Ref:
		if v != nil {
			return v.Target(), true
		}
	case api.ResultReference:
		return fmt.Sprintf("call %q", v.ResultOf), true
	case *api.ResultReference:
		if v != nil {
			return fmt.Sprintf("call %q", v.ResultOf), true
		}
	case []any:
		return listReference(v)
	case map[string]any:
		for _, item := range v {
			if target, ok := findReference(item); ok {
				return target, true
			}
		}
	}
	return "", false
}

func wireReference(ref api.ResultReference) map[string]any {
	return map[string]any{"name": ref.Name, "path": ref.Path, "resultOf": ref.ResultOf}
}

type header struct {
	name  string
	value string
}

// headerPairs reports whether list consists solely of {name, value} maps with
// string members.
func headerPairs(list []any) ([]header, bool) {
	if len(list) == 0 {
		return nil, false
	}
	out := make([]header, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok || len(m) != 2 {
			return nil, false
		}
		name, ok := m["name"].(string)
		if !ok {
			return nil, false
		}
		value, ok := m["value"].(string)
		if !ok {
			return nil, false
		}
		out = append(out, header{name: name, value: value})
	}
	return out, true
}
