// Package dateutil normalizes dates shown on catalog screens.
package dateutil

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Layout is the DAIA date format.
const Layout = "2006-01-02"

// catalogLayout is used by the catalog for due dates, e.g. "05-03-2024".
const catalogLayout = "02-01-2006"

// dueDatePattern finds a due date in screen text.
var dueDatePattern = regexp.MustCompile(`Lent till\s*(\d{2}-\d{2}-\d{4})`)

// Parse parses a due date, trying the catalog layout first.
func Parse(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(catalogLayout, value); err == nil {
		return t, nil
	}
	return dateparse.ParseAny(value)
}

// Normalize returns value in DAIA date format.
func Normalize(value string) (string, error) {
	t, err := Parse(value)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", value, err)
	}
	return t.Format(Layout), nil
}

// FindDueDate extracts and normalizes the first "Lent till" date from text.
// Runs of whitespace, including no-break spaces, count as a single space.
func FindDueDate(text string) (string, bool) {
	m := dueDatePattern.FindStringSubmatch(strings.Join(strings.Fields(text), " "))
	if m == nil {
		return "", false
	}
	v, err := Normalize(m[1])
	if err != nil {
		return "", false
	}
	return v, true
}
