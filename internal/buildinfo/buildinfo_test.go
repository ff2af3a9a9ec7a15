package buildinfo

import "testing"

func TestString(t *testing.T) {
	oldV, oldC, oldB := Version, Commit, BuiltAt
	defer func() { Version, Commit, BuiltAt = oldV, oldC, oldB }()

	Version, Commit, BuiltAt = "v1.0.0", "", ""
	if got := String(); got != "v1.0.0" {
		t.Fatalf("got %q", got)
	}
	Commit, BuiltAt = "abc123", "2026-01-01"
	if got := String(); got != "v1.0.0 (abc123) built 2026-01-01" {
		t.Fatalf("got %q", got)
	}
	if Info()["commit"] != "abc123" {
		t.Fatalf("info: %v", Info())
	}
}
