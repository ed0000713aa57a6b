package version

import "testing"

func TestString(t *testing.T) {
	Version, GitSHA, BuildTime = "v1.2.0", "abc123", "2026-01-02"
	t.Cleanup(func() { Version, GitSHA, BuildTime = "dev", "unknown", "unknown" })

	want := "cieplot v1.2.0 (git abc123, built 2026-01-02)"
	if got := String("cieplot"); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
