// Package codec converts Go records to and from the generic JSON maps sent on
// the wire.
//
// Field names come from the `jmap` struct tag, falling back to the Go field
// name in lowerCamelCase. Nil pointers, slices, maps and interfaces, unset
// api.Arg values and zero time.Time values are absent and never emitted.
// Timestamps are written in UTC. A field tagged `required` must be present
// when decoding.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"time"

	"pkt.systems/jmap/api"
)

// Marshaler lets a type produce its own wire value.
type Marshaler interface {
	MarshalJMAP() (any, error)
}

// Unmarshaler lets a type decode itself from a wire value.
type Unmarshaler interface {
	UnmarshalJMAP(value any) error
}

// ErrMissingField is matched by every MissingFieldError.
var ErrMissingField = errors.New("jmap: missing required field")

// MissingFieldError names a required field absent from a decoded map.
type MissingFieldError struct {
	Field string
	Shape string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("jmap: missing required field %q for %s", e.Field, e.Shape)
}

func (e *MissingFieldError) Is(target error) bool { return target == ErrMissingField }

// TypeError reports a wire value of the wrong JSON kind.
type TypeError struct {
	Path string
	Want string
	Got  any
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("jmap: decode %s: expected %s, got %T", e.Path, e.Want, e.Got)
}

var (
	timeType      = reflect.TypeOf(time.Time{})
	marshalerType = reflect.TypeOf((*Marshaler)(nil)).Elem()
	unmarshalType = reflect.TypeOf((*Unmarshaler)(nil)).Elem()
	argumentType  = reflect.TypeOf((*api.Argument)(nil)).Elem()
	argDecodeType = reflect.TypeOf((*api.ArgumentDecoder)(nil)).Elem()
)

// Encode converts a record into its wire map.
func Encode(v any) (map[string]any, error) {
	out, present, err := encodeValue(reflect.ValueOf(v))
	if err != nil {
		return nil, err
	}
	if !present {
		return map[string]any{}, nil
	}
	m, ok := out.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("jmap: encode %T: record did not encode to an object", v)
	}
	return m, nil
}

// EncodeValue converts any supported value into its wire form. present is
// false when the value is absent.
func EncodeValue(v any) (out any, present bool, err error) {
	return encodeValue(reflect.ValueOf(v))
}

// Decode fills target, which must be a non-nil pointer, from a wire map.
func Decode(m map[string]any, target any) error {
	return DecodeValue(m, target)
}

// DecodeValue fills target from any wire value.
func DecodeValue(src any, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("jmap: decode target must be a non-nil pointer, got %T", target)
	}
	return decodeValue(shapeName(rv.Elem().Type()), src, rv.Elem())
}

// DecodeJSON parses raw JSON and decodes it into target.
func DecodeJSON(data []byte, target any) error {
	var src any
	if err := json.Unmarshal(data, &src); err != nil {
		return fmt.Errorf("jmap: decode json: %w", err)
	}
	return DecodeValue(src, target)
}

func shapeName(t reflect.Type) string {
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

func encodeValue(v reflect.Value) (any, bool, error) {
	if !v.IsValid() {
		return nil, false, nil
	}
	t := v.Type()
	if t.Implements(argumentType) {
		if (t.Kind() == reflect.Pointer || t.Kind() == reflect.Interface) && v.IsNil() {
			return nil, false, nil
		}
		value, ref, set := v.Interface().(api.Argument).ArgumentValue()
		switch {
		case !set:
			return nil, false, nil
		case ref != nil:
			return ref, true, nil
		default:
			return encodeValue(reflect.ValueOf(value))
		}
	}
	if t.Implements(marshalerType) {
		if (t.Kind() == reflect.Pointer || t.Kind() == reflect.Interface) && v.IsNil() {
			return nil, false, nil
		}
		out, err := v.Interface().(Marshaler).MarshalJMAP()
		return out, out != nil, err
	}
	if t == timeType {
		ts := v.Interface().(time.Time)
		if ts.IsZero() {
			return nil, false, nil
		}
		return ts.UTC().Format(time.RFC3339Nano), true, nil
	}
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil, false, nil
		}
		return encodeValue(v.Elem())
	case reflect.Struct:
		return encodeStruct(v)
	case reflect.Map:
		if v.IsNil() {
			return nil, false, nil
		}
		if t.Key().Kind() != reflect.String {
			return nil, false, fmt.Errorf("jmap: encode %s: map keys must be strings", t)
		}
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			value, present, err := encodeValue(iter.Value())
			if err != nil {
				return nil, false, err
			}
			if !present {
				value = nil
			}
			out[iter.Key().String()] = value
		}
		return out, true, nil
	case reflect.Slice:
		if v.IsNil() {
			return nil, false, nil
		}
		fallthrough
	case reflect.Array:
		out := make([]any, v.Len())
		for i := range out {
			value, _, err := encodeValue(v.Index(i))
			if err != nil {
				return nil, false, err
			}
			out[i] = value
		}
		return out, true, nil
	case reflect.String:
		return v.String(), true, nil
	case reflect.Bool:
		return v.Bool(), true, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return v.Interface(), true, nil
	default:
		return nil, false, fmt.Errorf("jmap: encode %s: unsupported kind %s", t, t.Kind())
	}
}

func encodeStruct(v reflect.Value) (any, bool, error) {
	info := cachedStructInfo(v.Type())
	out := make(map[string]any, len(info.fields))
	for _, f := range info.fields {
		fv := v.FieldByIndex(f.index)
		if f.omitEmpty && fv.IsZero() {
			continue
		}
		value, present, err := encodeValue(fv)
		if err != nil {
			return nil, false, fmt.Errorf("jmap: encode %s.%s: %w", info.name, f.name, err)
		}
		if !present {
			continue
		}
		out[f.name] = value
	}
	return out, true, nil
}

func decodeValue(path string, src any, dst reflect.Value) error {
	if dst.CanAddr() {
		addr := dst.Addr()
		if addr.Type().Implements(argDecodeType) {
			target := addr.Interface().(api.ArgumentDecoder).ArgumentTarget()
			return decodeValue(path, src, reflect.ValueOf(target).Elem())
		}
		if addr.Type().Implements(unmarshalType) {
			return addr.Interface().(Unmarshaler).UnmarshalJMAP(src)
		}
	}
	if src == nil {
		dst.SetZero()
		return nil
	}
	t := dst.Type()
	if t == timeType {
		s, ok := src.(string)
		if !ok {
			return &TypeError{Path: path, Want: "timestamp string", Got: src}
		}
		ts, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("jmap: decode %s: %w", path, err)
		}
		dst.Set(reflect.ValueOf(ts))
		return nil
	}
	switch t.Kind() {
	case reflect.Pointer:
		elem := reflect.New(t.Elem())
		if err := decodeValue(path, src, elem.Elem()); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	case reflect.Interface:
		value := reflect.ValueOf(src)
		if !value.Type().AssignableTo(t) {
			return &TypeError{Path: path, Want: t.String(), Got: src}
		}
		dst.Set(value)
		return nil
	case reflect.Struct:
		m, ok := src.(map[string]any)
		if !ok {
			return &TypeError{Path: path, Want: "object", Got: src}
		}
		return decodeStruct(path, m, dst)
	case reflect.Map:
		m, ok := src.(map[string]any)
		if !ok {
			return &TypeError{Path: path, Want: "object", Got: src}
		}
		if t.Key().Kind() != reflect.String {
			return fmt.Errorf("jmap: decode %s: map keys must be strings", path)
		}
		out := reflect.MakeMapWithSize(t, len(m))
		for key, raw := range m {
			elem := reflect.New(t.Elem()).Elem()
			if err := decodeValue(path+"."+key, raw, elem); err != nil {
				return err
			}
			out.SetMapIndex(reflect.ValueOf(key).Convert(t.Key()), elem)
		}
		dst.Set(out)
		return nil
	case reflect.Slice:
		list, ok := src.([]any)
		if !ok {
			return &TypeError{Path: path, Want: "list", Got: src}
		}
		out := reflect.MakeSlice(t, len(list), len(list))
		for i, raw := range list {
			if err := decodeValue(fmt.Sprintf("%s[%d]", path, i), raw, out.Index(i)); err != nil {
				return err
			}
		}
		dst.Set(out)
		return nil
	case reflect.String:
		s, ok := src.(string)
		if !ok {
			return &TypeError{Path: path, Want: "string", Got: src}
		}
		dst.SetString(s)
		return nil
	case reflect.Bool:
		b, ok := src.(bool)
		if !ok {
			return &TypeError{Path: path, Want: "boolean", Got: src}
		}
		dst.SetBool(b)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := number(path, src)
		if err != nil {
			return err
		}
		if n != math.Trunc(n) || dst.OverflowInt(int64(n)) {
			return &TypeError{Path: path, Want: t.String(), Got: src}
		}
		dst.SetInt(int64(n))
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := number(path, src)
		if err != nil {
			return err
		}
		if n < 0 || n != math.Trunc(n) || dst.OverflowUint(uint64(n)) {
			return &TypeError{Path: path, Want: t.String(), Got: src}
		}
		dst.SetUint(uint64(n))
		return nil
	case reflect.Float32, reflect.Float64:
		n, err := number(path, src)
		if err != nil {
			return err
		}
		dst.SetFloat(n)
		return nil
	default:
		return fmt.Errorf("jmap: decode %s: unsupported kind %s", path, t.Kind())
	}
}

func number(path string, src any) (float64, error) {
	switch n := src.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("jmap: decode %s: %w", path, err)
		}
		return f, nil
	default:
		return 0, &TypeError{Path: path, Want: "number", Got: src}
	}
}

func decodeStruct(path string, m map[string]any, dst reflect.Value) error {
	info := cachedStructInfo(dst.Type())
	for _, f := range info.fields {
		fv := dst.FieldByIndex(f.index)
		raw, ok := m[f.name]
		if !ok {
			if refRaw, isRef := m["#"+f.name]; isRef && fv.CanAddr() && fv.Addr().Type().Implements(argDecodeType) {
				var ref api.ResultReference
				if err := decodeValue(path+".#"+f.name, refRaw, reflect.ValueOf(&ref).Elem()); err != nil {
					return err
				}
				fv.Addr().Interface().(api.ArgumentDecoder).SetReference(ref)
				continue
			}
			if f.required {
				return &MissingFieldError{Field: f.name, Shape: info.name}
			}
			continue
		}
		if err := decodeValue(path+"."+f.name, raw, fv); err != nil {
			return err
		}
	}
	return nil
}
