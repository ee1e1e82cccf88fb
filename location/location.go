// Package location translates storage codes of 209A $f into display names.
//
// A location table is a text file with one entry per line, fields separated
// by semicolon:
//
//	code;name;comment;href
//
// Values may be HTML entity encoded and backslash escaped.
package location

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"os"
	"strings"
	"unicode"
)

const (
	// Stacks is the name for numeric storage codes.
	Stacks = "Magazin"
	// None is the name for the sentinel code.
	None = "-"
	// ReadingRoomPrefix is prepended to all other codes.
	ReadingRoomPrefix = "Lesesaal "
	// Sentinel is the storage code for items without a location.
	Sentinel = "Ei"
)

// Resolver returns a display name and an optional link for a storage code.
type Resolver interface {
	Lookup(code string) (name, href string, ok bool)
}

// Entry is a single location.
type Entry struct {
	Code string
	Name string
	Href string
}

// Table is a location table. If a code appears more than once, the last
// entry wins.
type Table struct {
	entries map[string]Entry
}

// Load reads a table from a file.
func Load(filename string) (*Table, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("location table %s: %w", filename, err)
	}
	return t, nil
}

// Read parses a table. Lines with fewer than two fields are ignored.
func Read(r io.Reader) (*Table, error) {
	var (
		t  = &Table{entries: make(map[string]Entry)}
		br = bufio.NewScanner(r)
	)
	for br.Scan() {
		line := strings.TrimRight(br.Text(), "\r")
		fields := strings.Split(html.UnescapeString(stripSlashes(line)), ";")
		if len(fields) < 2 {
			continue
		}
		e := Entry{Code: fields[0], Name: fields[1]}
		if len(fields) > 3 {
			e.Href = strings.TrimSpace(fields[3])
		}
		t.entries[e.Code] = e
	}
	if err := br.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

// Lookup implements Resolver.
func (t *Table) Lookup(code string) (name, href string, ok bool) {
	if t == nil {
		return "", "", false
	}
	e, ok := t.entries[code]
	return e.Name, e.Href, ok
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.entries) }

// DefaultName derives a name from the code itself.
func DefaultName(code string) string {
	switch {
	case isNumeric(code):
		return Stacks
	case code == Sentinel:
		return None
	default:
		return ReadingRoomPrefix + code
	}
}

// Name resolves a code through r, falling back to DefaultName. The resolver
// may be nil.
func Name(r Resolver, code string) (name, href string) {
	if r != nil {
		if name, href, ok := r.Lookup(code); ok {
			return name, href
		}
	}
	return DefaultName(code), ""
}

// isNumeric accepts optionally signed decimal numbers, like "3", "-1" or
// "2.5".
func isNumeric(s string) bool {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	if s == "" {
		return false
	}
	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}
	var digits, dots int
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}

// stripSlashes removes one level of backslash escaping.
func stripSlashes(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var (
		sb      strings.Builder
		escaped bool
	)
	for _, c := range s {
		if c == '\\' && !escaped {
			escaped = true
			continue
		}
		escaped = false
		sb.WriteRune(c)
	}
	return sb.String()
}
