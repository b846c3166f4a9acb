package version

import (
	"strings"
	"testing"
)

func TestStringContainsParts(t *testing.T) {
	s := String()
	for _, want := range []string{"mistri", Version, Commit, Date, "go="} {
		if !strings.Contains(s, want) {
			t.Fatalf("version string %q missing %q", s, want)
		}
	}
}
