package catalog

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gbv/daia/pica"
	log "github.com/sirupsen/logrus"
)

// HTTPSource fetches records from the PICA+ screen of an OPAC, e.g.
// "https://opac.example.org/DB=1/XML=1.0/PLAIN=ON/PRS=PP/PPN?PPN=".
type HTTPSource struct {
	// URL is the prefix, the identifier is appended.
	URL    string
	Client Doer
}

// NewHTTPSource returns a source with the default client.
func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{URL: url, Client: http.DefaultClient}
}

// Variant implements Source.
func (s *HTTPSource) Variant() pica.Variant { return pica.HTTP }

// Records returns a single record, or none if the page is empty.
func (s *HTTPSource) Records(ctx context.Context, id string) ([]string, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	b, err := fetch(ctx, client, s.URL+id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	record := stripTable(string(b))
	if strings.TrimSpace(record) == "" {
		return nil, nil
	}
	log.WithField("id", id).Debugf("fetched %d bytes", len(b))
	return []string{record}, nil
}
