package version

import "testing"

func TestPseudoVersion(t *testing.T) {
	info := Info{Revision: "0123456789abcdef", Time: "2026-01-02T03:04:05Z", Dirty: true}
	if got, want := info.pseudo(), "v0.0.0-20260102030405-0123456789ab+dirty"; got != want {
		t.Fatalf("pseudo = %q, want %q", got, want)
	}
	if got := (Info{Revision: "abc"}).pseudo(); got != "" {
		t.Fatalf("expected empty pseudo version, got %q", got)
	}
}

func TestBuildVersionOverride(t *testing.T) {
	prev := buildVersion
	buildVersion = "v1.2.3"
	defer func() { buildVersion = prev }()
	if got := Current(); got != "v1.2.3" {
		t.Fatalf("Current = %q", got)
	}
	if Module() == "" {
		t.Fatalf("expected module path")
	}
}
