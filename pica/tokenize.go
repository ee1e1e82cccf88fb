// Package pica decodes PICA+ records, as delivered by a PICA catalog over
// HTTP or Z39.50, and interprets the holding fields into DAIA items.
//
// A record is a sequence of lines, each starting with a four character tag,
// optionally followed by an occurrence, followed by subfields:
//
//	201@ $e1100539905$lhttps://katalog.example.org/DB=1/...$uAusleihbestand$vverfügbar
//	209A/01 $aTIR-219$dd$f3
//
// The subfield delimiter depends on the transport, "$" over HTTP and the
// byte 0x9F over Z39.50, where records are also Latin-1 encoded.
package pica

import (
	"bufio"
	"bytes"
	"html"
	"io"
	"iter"
	"strings"
	"unicode/utf8"

	"github.com/gbv/daia/normal"
	"golang.org/x/text/encoding/charmap"
)

const maxLineSize = 1 << 20

// Variant selects the subfield delimiter and charset of a record.
type Variant int

const (
	// HTTP records are UTF-8, subfields are delimited by "$".
	HTTP Variant = iota
	// Z3950 records are Latin-1, subfields are delimited by 0x9F.
	Z3950
)

func (v Variant) String() string {
	switch v {
	case HTTP:
		return "http"
	case Z3950:
		return "z3950"
	default:
		return "unknown"
	}
}

// Delimiter returns the subfield delimiter after charset decoding.
func (v Variant) Delimiter() string {
	if v == Z3950 {
		return "\u009f"
	}
	return "$"
}

// Subfield is a single coded value.
type Subfield struct {
	Code  byte
	Value string
}

// Field is a tagged line of a record.
type Field struct {
	Tag string
	// Text is the entity decoded line, including the tag.
	Text      string
	Subfields []Subfield
}

// First returns the value of the first subfield with the given code.
func (f Field) First(code byte) (string, bool) {
	for _, sf := range f.Subfields {
		if sf.Code == code {
			return sf.Value, true
		}
	}
	return "", false
}

// All returns all values for a code, in order.
func (f Field) All(code byte) (result []string) {
	for _, sf := range f.Subfields {
		if sf.Code == code {
			result = append(result, sf.Value)
		}
	}
	return
}

// Scanner reads fields from a record, one line at a time. Malformed lines are
// skipped and counted. A scanner cannot be restarted.
type Scanner struct {
	Normalizer normal.Normalizer

	variant Variant
	lines   *bufio.Scanner
	field   Field
	skipped int
}

// NewScanner returns a scanner over a raw record.
func NewScanner(r io.Reader, v Variant) *Scanner {
	lines := bufio.NewScanner(r)
	lines.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Scanner{
		Normalizer: normal.Default,
		variant:    v,
		lines:      lines,
	}
}

// Scan advances to the next well formed field.
func (s *Scanner) Scan() bool {
	for s.lines.Scan() {
		f, ok := s.decode(s.lines.Bytes())
		if !ok {
			if len(bytes.TrimSpace(s.lines.Bytes())) > 0 {
				s.skipped++
			}
			continue
		}
		s.field = f
		return true
	}
	return false
}

// Field returns the most recent field.
func (s *Scanner) Field() Field { return s.field }

// Err returns the first read error, e.g. a line exceeding the maximum size.
func (s *Scanner) Err() error { return s.lines.Err() }

// Skipped returns the number of non-blank lines that could not be decoded.
func (s *Scanner) Skipped() int { return s.skipped }

// Fields returns a single pass sequence over the fields of a record.
func (s *Scanner) Fields() iter.Seq[Field] {
	return func(yield func(Field) bool) {
		for s.Scan() {
			if !yield(s.Field()) {
				return
			}
		}
	}
}

func (s *Scanner) decode(b []byte) (Field, bool) {
	var line string
	switch s.variant {
	case Z3950:
		v, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
		if err != nil {
			return Field{}, false
		}
		line = string(v)
	default:
		if !utf8.Valid(b) {
			return Field{}, false
		}
		line = string(b)
	}
	line = strings.TrimRight(line, "\r")
	if len(line) < 4 || !isTag(line[:4]) {
		return Field{}, false
	}
	line = html.UnescapeString(line)
	f := Field{Tag: line[:4], Text: line}
	segments := strings.Split(line[4:], s.variant.Delimiter())
	// The first segment holds occurrence and whitespace only. Subfield codes
	// are ASCII, segments starting with another character are dropped.
	for _, seg := range segments[1:] {
		if seg == "" || seg[0] >= utf8.RuneSelf {
			continue
		}
		v := seg[1:]
		if s.Normalizer != nil {
			v = s.Normalizer.Normalize(v)
		}
		f.Subfields = append(f.Subfields, Subfield{Code: seg[0], Value: v})
	}
	return f, true
}

// isTag matches three digits followed by an uppercase letter or "@".
func isTag(s string) bool {
	for i := 0; i < 3; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	c := s[3]
	return c == '@' || (c >= 'A' && c <= 'Z')
}

// Decode reads all fields of a record string at once.
func Decode(record string, v Variant) []Field {
	var (
		s      = NewScanner(strings.NewReader(record), v)
		fields []Field
	)
	for f := range s.Fields() {
		fields = append(fields, f)
	}
	return fields
}
