package location

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const table = `LS1;Lesesaal 1 (Hauptbibliothek);;https://www.example.org/ls1
LB;Lehrbuchsammlung &amp; Semesterapparate;x
O\'S;O\'Sullivan Raum;;
broken
LS1;Lesesaal 1;;https://www.example.org/ls1-neu
`

func TestRead(t *testing.T) {
	tab, err := Read(strings.NewReader(table))
	if err != nil {
		t.Fatalf("got %v, want nil", err)
	}
	if tab.Len() != 3 {
		t.Fatalf("got %d entries, want 3", tab.Len())
	}
	var cases = []struct {
		code string
		name string
		href string
		ok   bool
	}{
		{"LS1", "Lesesaal 1", "https://www.example.org/ls1-neu", true},
		{"LB", "Lehrbuchsammlung & Semesterapparate", "", true},
		{"O'S", "O'Sullivan Raum", "", true},
		{"broken", "", "", false},
		{"XX", "", "", false},
	}
	for _, c := range cases {
		name, href, ok := tab.Lookup(c.code)
		if name != c.name || href != c.href || ok != c.ok {
			t.Errorf("%s: got (%q, %q, %v), want (%q, %q, %v)",
				c.code, name, href, ok, c.name, c.href, c.ok)
		}
	}
}

func TestLoad(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "locations.txt")
	if err := os.WriteFile(filename, []byte(table), 0644); err != nil {
		t.Fatal(err)
	}
	tab, err := Load(filename)
	if err != nil {
		t.Fatalf("got %v, want nil", err)
	}
	if _, _, ok := tab.Lookup("LB"); !ok {
		t.Errorf("expected LB entry")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Errorf("expected error for missing file")
	}
}

func TestName(t *testing.T) {
	tab, _ := Read(strings.NewReader(table))
	var cases = []struct {
		r    Resolver
		code string
		name string
		href string
	}{
		{nil, "3", Stacks, ""},
		{nil, "12.5", Stacks, ""},
		{nil, "Ei", None, ""},
		{nil, "LS1", "Lesesaal LS1", ""},
		{tab, "LS1", "Lesesaal 1", "https://www.example.org/ls1-neu"},
		{tab, "3", Stacks, ""},
		{(*Table)(nil), "LB", "Lesesaal LB", ""},
	}
	for _, c := range cases {
		name, href := Name(c.r, c.code)
		if name != c.name || href != c.href {
			t.Errorf("%s: got (%q, %q), want (%q, %q)", c.code, name, href, c.name, c.href)
		}
	}
}

func TestStripSlashes(t *testing.T) {
	var cases = []struct {
		in, out string
	}{
		{"", ""},
		{`a\'b`, "a'b"},
		{`a\\b`, `a\b`},
		{`\`, ""},
	}
	for _, c := range cases {
		if got := stripSlashes(c.in); got != c.out {
			t.Errorf("got %q, want %q", got, c.out)
		}
	}
}
