package testing

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// EqualText fails t with a line diff when got differs from want.
func EqualText(t testing.TB, want, got string) {
	t.Helper()
	if want == got {
		return
	}
	diff := cmp.Diff(strings.SplitAfter(want, "\n"), strings.SplitAfter(got, "\n"))
	t.Errorf("text mismatch (-want +got):\n%s", diff)
}

// ContainsLines fails t unless every line of block appears in got as a
// consecutive run of lines.
func ContainsLines(t testing.TB, got, block string) {
	t.Helper()
	if !strings.Contains("\n"+got, "\n"+block) {
		t.Errorf("output does not contain block:\n%s\n--- output ---\n%s", block, got)
	}
}

// NoBlankRuns fails t when got contains two or more consecutive empty lines,
// the usual symptom of a missing trim marker.
func NoBlankRuns(t testing.TB, name, got string) {
	t.Helper()
	if strings.Contains(got, "\n\n\n") {
		t.Errorf("%s: output contains consecutive blank lines:\n%s", name, got)
	}
}
