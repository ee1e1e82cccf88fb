// Package normal provides small string normalizers applied to subfield
// values before they are interpreted.
package normal

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Default composes values to NFC and replaces stray tabs and newlines.
var Default = &Pipeline{
	Normalizer: []Normalizer{
		&NFCNormalizer{},
		&WhitespaceNormalizer{},
	},
}

type Pipeline struct {
	Normalizer []Normalizer
}

func (p *Pipeline) Normalize(s string) string {
	for _, n := range p.Normalizer {
		s = n.Normalize(s)
	}
	return s
}

type Normalizer interface {
	Normalize(string) string
}

// NFCNormalizer composes decomposed umlauts (u plus combining diaeresis), so
// literal comparisons like "verfügbar" work on records from either source.
type NFCNormalizer struct{}

func (s *NFCNormalizer) Normalize(v string) string {
	if norm.NFC.IsNormalString(v) {
		return v
	}
	return norm.NFC.String(v)
}

// WhitespaceNormalizer replaces newline and tab with a space.
type WhitespaceNormalizer struct{}

func (s *WhitespaceNormalizer) Normalize(v string) string {
	if !strings.ContainsAny(v, "\n\t") {
		return v
	}
	var sb strings.Builder
	for _, c := range v {
		if c == '\n' || c == '\t' {
			sb.WriteString(" ")
		} else {
			sb.WriteRune(c)
		}
	}
	return sb.String()
}
