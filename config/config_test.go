package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gbv/daia"
	"github.com/google/go-cmp/cmp"
)

const sample = `; TUHH
name = Universitätsbibliothek
sigel = 830
infoUrl = https://www.example.org/
basicUrl = https://opac.example.org/DB=1/PPNSET?PPN=
picaPlusUrl = https://opac.example.org/DB=1/XMLPRS=Y/PPN?PPN=
catalogPostfix = &LNG=DU
documentIdPrefix = http://uri.gbv.de/document/opac-de-830:ppn:
itemIdPrefix = http://uri.gbv.de/document/opac-de-830:epn:
locationsFile = locations.txt
`

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "daia.ini")
	if err := os.WriteFile(filename, []byte(sample), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(filename)
	if err != nil {
		t.Fatalf("got %v, want nil", err)
	}
	want := &Config{
		Name:             "Universitätsbibliothek",
		Sigel:            "830",
		InfoURL:          "https://www.example.org/",
		BasicURL:         "https://opac.example.org/DB=1/PPNSET?PPN=",
		PicaPlusURL:      "https://opac.example.org/DB=1/XMLPRS=Y/PPN?PPN=",
		CatalogPostfix:   "&LNG=DU",
		DocumentIDPrefix: "http://uri.gbv.de/document/opac-de-830:ppn:",
		ItemIDPrefix:     "http://uri.gbv.de/document/opac-de-830:epn:",
		LocationsFile:    filepath.Join(dir, "locations.txt"),
		Filename:         filename,
	}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
	if got := c.DocumentID("123"); got != "http://uri.gbv.de/document/opac-de-830:ppn:123" {
		t.Errorf("got %v", got)
	}
	if got := c.DocumentHref("123"); got != "https://opac.example.org/DB=1/PPNSET?PPN=123" {
		t.Errorf("got %v", got)
	}
	institution := &daia.Element{Content: "Universitätsbibliothek", ID: "830", Href: "https://www.example.org/"}
	if diff := cmp.Diff(institution, c.Institution()); diff != "" {
		t.Errorf("institution mismatch (-want +got):\n%s", diff)
	}
	if _, err := Load(filepath.Join(dir, "missing.ini")); err == nil {
		t.Errorf("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	var cases = []struct {
		c      Config
		method string
		err    error
	}{
		{Config{Name: "X", PicaPlusURL: "u"}, "http", nil},
		{Config{Name: "X"}, "http", ErrMissingKey},
		{Config{PicaPlusURL: "u"}, "http", ErrMissingKey},
		{Config{Name: "X"}, "z3950", ErrMissingKey},
		{Config{Name: "X", Z3950Host: "z3950.example.org:210/opac-de-830"}, "z3950", nil},
		{Config{Name: "X", RecordDir: "."}, "file", nil},
	}
	for _, c := range cases {
		err := c.c.Validate(c.method)
		if !errors.Is(err, c.err) {
			t.Errorf("%s %+v: got %v, want %v", c.method, c.c, err, c.err)
		}
	}
}

func TestDocumentHrefWithoutCatalog(t *testing.T) {
	c := &Config{}
	if got := c.DocumentHref("1"); got != "" {
		t.Errorf("got %q, want empty", got)
	}
	if got := c.Institution(); got.Content != "" || got.Href != "" {
		t.Errorf("got %+v", got)
	}
}
