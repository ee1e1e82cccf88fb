package exdep

import (
	"strings"
	"testing"
)

func TestCheck(t *testing.T) {
	deps := []Dep{
		{Name: "sh"},
		{Name: "surely-not-installed-daia-tool", Docs: "see manual", Links: []string{"https://example.org"}},
	}
	errs := Check(deps)
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1", len(errs))
	}
	msg := errs[0].Error()
	if !strings.Contains(msg, "see manual") || !strings.Contains(msg, "https://example.org") {
		t.Errorf("error does not explain installation: %s", msg)
	}
}
