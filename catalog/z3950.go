package catalog

import (
	"context"
	"fmt"

	"github.com/gbv/daia/pica"
)

// Searcher runs a query in prefix query format, e.g. a *z3950.Session.
type Searcher interface {
	Search(ctx context.Context, query string) ([]string, error)
}

// Z3950Source looks up records by PPN on a shared Z39.50 session.
type Z3950Source struct {
	Session Searcher
}

// Variant implements Source.
func (s *Z3950Source) Variant() pica.Variant { return pica.Z3950 }

// Query returns the PQF query for a PPN.
func Query(id string) string {
	return fmt.Sprintf("@attr 1=12 %s", id)
}

// Records implements Source.
func (s *Z3950Source) Records(ctx context.Context, id string) ([]string, error) {
	return s.Session.Search(ctx, Query(id))
}
