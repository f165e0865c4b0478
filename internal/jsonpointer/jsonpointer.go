// Package jsonpointer validates and manipulates the JSON pointer paths used by
// JMAP result references (RFC 6901 plus the "*" array wildcard of RFC 8620).
package jsonpointer

import (
	"fmt"
	"strings"
)

// Wildcard maps over every element of an array when used as a segment.
const Wildcard = "*"

var (
	encoder = strings.NewReplacer("~", "~0", "/", "~1")
	decoder = strings.NewReplacer("~1", "/", "~0", "~")
)

// EncodeSegment escapes a single pointer segment.
func EncodeSegment(segment string) string {
	if segment == "" {
		return segment
	}
	return encoder.Replace(segment)
}

// DecodeSegment unescapes a single pointer segment.
func DecodeSegment(segment string) string {
	if segment == "" {
		return segment
	}
	return decoder.Replace(segment)
}

// Validate reports whether path is usable as a result reference path. The
// empty pointer addresses the whole result; anything else must be absolute and
// every "~" must start a valid escape.
func Validate(path string) error {
	if path == "" {
		return nil
	}
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("json pointer %q must start with '/'", path)
	}
	for i := 0; i < len(path); i++ {
		if path[i] != '~' {
			continue
		}
		if i+1 >= len(path) || (path[i+1] != '0' && path[i+1] != '1') {
			return fmt.Errorf("json pointer %q has invalid escape at offset %d", path, i)
		}
	}
	return nil
}

// Join appends segments to parent using pointer semantics. The wildcard is
// never escaped.
func Join(parent string, segments ...string) string {
	var b strings.Builder
	b.WriteString(parent)
	for _, segment := range segments {
		b.WriteByte('/')
		if segment == Wildcard {
			b.WriteString(segment)
			continue
		}
		b.WriteString(EncodeSegment(segment))
	}
	return b.String()
}

// Split decomposes a pointer into decoded segments. The empty pointer yields
// no segments.
func Split(path string) ([]string, error) {
	if err := Validate(path); err != nil {
		return nil, err
	}
	if path == "" {
		return nil, nil
	}
	parts := strings.Split(path[1:], "/")
	for i, part := range parts {
		parts[i] = DecodeSegment(part)
	}
	return parts, nil
}
