// Package catalog fetches raw PICA+ records and scrapes item pages of a PICA
// OPAC. Sources are selected by method name, "http", "z3950" or "file".
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gbv/daia/pica"
	"github.com/sethgrid/pester"
)

// ErrNotFound is returned by a source if a record does not exist, as opposed
// to a failure to fetch it.
var ErrNotFound = errors.New("record not found")

// Doer abstracts https://pkg.go.dev/net/http#Client.Do.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Source returns the raw records for a document identifier (PPN). Zero
// records and ErrNotFound are equivalent.
type Source interface {
	Records(ctx context.Context, id string) ([]string, error)
	// Variant is the encoding of the records returned.
	Variant() pica.Variant
}

// Method names.
const (
	MethodHTTP  = "http"
	MethodZ3950 = "z3950"
	MethodFile  = "file"
)

// NewClient returns a retrying HTTP client.
func NewClient(maxRetries int) *pester.Client {
	client := pester.New()
	client.Backoff = pester.ExponentialBackoff
	if maxRetries > 0 {
		client.MaxRetries = maxRetries
	}
	client.KeepLog = false
	return client
}

// fetch retrieves the body of a page. A status other than 200 is an error,
// except 404, which is ErrNotFound.
func fetch(ctx context.Context, client Doer, link string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch %s: status code %d", link, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// tableMarkup is removed from the PICA+ screen of the OPAC.
var tableMarkup = strings.NewReplacer("<TD>", "", "<TR>", "", "</TR>", "", "</TD>", "")

// stripTable removes table cell and row markup from a PICA+ screen.
func stripTable(s string) string {
	return tableMarkup.Replace(s)
}
