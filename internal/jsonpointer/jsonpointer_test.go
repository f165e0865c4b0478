package jsonpointer

import (
	"reflect"
	"testing"
)

func TestValidate(t *testing.T) {
	valid := []string{"", "/", "/ids", "/list/*/id", "/a~1b", "/m~0n"}
	for _, path := range valid {
		if err := Validate(path); err != nil {
			t.Fatalf("Validate(%q): %v", path, err)
		}
	}
	invalid := []string{"ids", "/a~", "/a~2b", " /ids"}
	for _, path := range invalid {
		if err := Validate(path); err == nil {
			t.Fatalf("Validate(%q) expected error", path)
		}
	}
}

func TestJoinSplit(t *testing.T) {
	path := Join("", "list", Wildcard, "a/b")
	if path != "/list/*/a~1b" {
		t.Fatalf("unexpected join result %q", path)
	}
	parts, err := Split(path)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if want := []string{"list", "*", "a/b"}; !reflect.DeepEqual(parts, want) {
		t.Fatalf("split = %q, want %q", parts, want)
	}
	parts, err = Split("")
	if err != nil || parts != nil {
		t.Fatalf("split empty = %v, %v", parts, err)
	}
}
