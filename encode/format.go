package encode

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/gbv/daia"
)

// ErrUnknownFormat is returned for an unsupported output format name.
var ErrUnknownFormat = errors.New("unknown format")

// DefaultFormat is plain DAIA XML.
const DefaultFormat = "xml"

type format struct {
	contentType string
	write       func(io.Writer, *daia.Response) error
}

var formats = map[string]format{
	"xml": {"application/xml; charset=utf-8", func(w io.Writer, r *daia.Response) error {
		return XML(w, r, XMLOptions{Indent: 2})
	}},
	"ns": {"application/xml; charset=utf-8", func(w io.Writer, r *daia.Response) error {
		return XML(w, r, XMLOptions{Namespaced: true, Indent: 2})
	}},
	"json": {"application/json; charset=utf-8", JSON},
	"nt": {"application/n-triples; charset=utf-8", func(w io.Writer, r *daia.Response) error {
		return RDF(w, r, NTriples)
	}},
	"ttl": {"text/turtle; charset=utf-8", func(w io.Writer, r *daia.Response) error {
		return RDF(w, r, Turtle)
	}},
}

// Formats returns the names of all output formats.
func Formats() []string {
	var names []string
	for k := range formats {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// ContentType returns the media type of a format.
func ContentType(name string) (string, error) {
	f, ok := formats[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, name)
	}
	return f.contentType, nil
}

// Write renders a response in the named format: xml, ns (namespaced xml),
// json, nt or ttl.
func Write(w io.Writer, r *daia.Response, name string) error {
	f, ok := formats[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFormat, name)
	}
	return f.write(w, r)
}
