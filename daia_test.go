package daia

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseService(t *testing.T) {
	var cases = []struct {
		name    string
		want    Service
		wantErr bool
	}{
		{"presentation", Presentation, false},
		{"loan", Loan, false},
		{"Interloan", Interloan, false},
		{"openaccess", OpenAccess, false},
		{"remote", 0, true},
	}
	for _, c := range cases {
		got, err := ParseService(c.name)
		if (err != nil) != c.wantErr {
			t.Fatalf("%s: got err %v, want err %v", c.name, err, c.wantErr)
		}
		if err == nil && got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, got, c.want)
		}
	}
}

func TestServiceString(t *testing.T) {
	for _, s := range Services {
		p, err := ParseService(s.String())
		if err != nil {
			t.Fatal(err)
		}
		if p != s {
			t.Errorf("got %v, want %v", p, s)
		}
	}
	if got := Service(9).String(); got != "service(9)" {
		t.Errorf("got %s", got)
	}
}

func TestMarkKeepsSameVariant(t *testing.T) {
	var m ServiceMap
	m.MarkAvailable(Loan).Limitations = []Element{{Content: "nur Kopie"}}
	a := m.MarkAvailable(Loan)
	if len(a.Limitations) != 1 {
		t.Fatalf("limitation dropped on same variant: %v", a)
	}
	u := m.MarkUnavailable(Loan)
	if len(u.Limitations) != 0 {
		t.Fatalf("variant switch should start fresh, got %v", u)
	}
	u.Expected = ExpectedUnknown
	if got := m.MarkUnavailable(Loan).Expected; got != ExpectedUnknown {
		t.Fatalf("got %q, want %q", got, ExpectedUnknown)
	}
}

func TestItemStates(t *testing.T) {
	it := &Item{}
	if it.HasAvailabilities() {
		t.Fatal("fresh item should have no availabilities")
	}
	it.SetAvailability(OpenAccess, Unknown{})
	if !it.HasAvailabilities() {
		t.Fatal("unknown counts as assigned")
	}
	if it.Services.Resolved(OpenAccess) {
		t.Fatal("unknown is not resolved")
	}
	it.Services.MarkAvailable(Presentation)
	it.Services.MarkUnavailable(Loan)
	var cases = []struct {
		s    Service
		want State
	}{
		{Presentation, StateAvailable},
		{Loan, StateUnavailable},
		{Interloan, StateUnknown},
		{OpenAccess, StateUnknown},
	}
	for _, c := range cases {
		if got := it.IsAvailable(c.s); got != c.want {
			t.Errorf("%v: got %v, want %v", c.s, got, c.want)
		}
	}
}

func TestItemCloneIsDeep(t *testing.T) {
	q := 2
	it := &Item{
		ID:      "epn:1",
		Label:   "TIR-219",
		Storage: &Element{Content: "Magazin"},
	}
	it.Services.MarkUnavailable(Loan).Queue = &q
	it.Services.AddLimitation(Loan, Element{Content: "nur Kopie"})
	c := it.Clone()
	if diff := cmp.Diff(it, c); diff != "" {
		t.Fatalf("clone differs: %s", diff)
	}
	c.Storage.ID = "830$26431297"
	*c.Services[Loan].(*Unavailable).Queue = 5
	c.Services.AddLimitation(Loan, Element{Content: "x"})
	if it.Storage.ID != "" {
		t.Errorf("storage shared between clone and original")
	}
	if *it.Services[Loan].(*Unavailable).Queue != 2 {
		t.Errorf("queue shared between clone and original")
	}
	if n := len(it.Services[Loan].(*Unavailable).Limitations); n != 1 {
		t.Errorf("got %d limitations, want 1", n)
	}
}

func TestDocumentNotFound(t *testing.T) {
	doc := NewDocument("ppn:66666", "")
	if doc.NotFound() {
		t.Fatal("empty document is not a not found document")
	}
	doc.AddMessage(Message{Content: "PPN not found!", Lang: "en", Errno: ErrnoNotFound})
	if !doc.NotFound() {
		t.Fatal("expected not found")
	}
}
