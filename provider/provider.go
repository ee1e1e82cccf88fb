// Package provider answers availability requests: it fetches the records of
// a document from a catalog source, interprets them and wraps the items into
// documents and responses.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sort"

	"github.com/gbv/daia"
	"github.com/gbv/daia/catalog"
	"github.com/gbv/daia/config"
	"github.com/gbv/daia/location"
	"github.com/gbv/daia/pica"
	"github.com/gbv/daia/resolve"
	"github.com/gbv/daia/z3950"
	log "github.com/sirupsen/logrus"
)

// NotFoundMessage is attached to documents without records.
const NotFoundMessage = "PPN not found!"

// ErrUnknownMethod is returned for a retrieval method without a source.
var ErrUnknownMethod = errors.New("unknown retrieval method")

// Provider turns document identifiers into DAIA documents.
type Provider struct {
	Config *config.Config
	// Sources by method name, see catalog.MethodHTTP and friends.
	Sources map[string]catalog.Source
	// Method is used if a request does not name one.
	Method string
	// Client fetches item pages for due dates and copies.
	Client catalog.Doer
	// Interpreter options; Resolve.Holdings is set per request.
	Options pica.Options
}

// New sets up a provider from a config. The location table is loaded if one
// is configured. Sources are added for all methods the config has settings
// for; session may be nil, if Z39.50 is not used.
func New(c *config.Config, client catalog.Doer, session *z3950.Session) (*Provider, error) {
	if client == nil {
		client = http.DefaultClient
	}
	p := &Provider{
		Config:  c,
		Sources: make(map[string]catalog.Source),
		Method:  catalog.MethodHTTP,
		Client:  client,
		Options: pica.Options{
			ItemIDPrefix:   c.ItemIDPrefix,
			CatalogPostfix: c.CatalogPostfix,
			Resolve:        resolve.Options{ReservationURL: c.ReservationURL},
		},
	}
	if c.LocationsFile != "" {
		t, err := location.Load(c.LocationsFile)
		if err != nil {
			return nil, err
		}
		log.WithField("file", c.LocationsFile).Debugf("loaded %d locations", t.Len())
		p.Options.Locations = t
	}
	if c.PicaPlusURL != "" {
		p.Sources[catalog.MethodHTTP] = &catalog.HTTPSource{URL: c.PicaPlusURL, Client: client}
	}
	if session != nil {
		p.Sources[catalog.MethodZ3950] = &catalog.Z3950Source{Session: session}
	}
	if c.RecordDir != "" {
		p.Sources[catalog.MethodFile] = &catalog.FileSource{Dir: c.RecordDir, Encoding: pica.HTTP}
	}
	return p, nil
}

// Methods returns the names of the configured sources.
func (p *Provider) Methods() []string {
	var names []string
	for k := range p.Sources {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (p *Provider) source(method string) (catalog.Source, error) {
	if method == "" {
		method = p.Method
	}
	src, ok := p.Sources[method]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	return src, nil
}

// Document returns the document for a PPN. A document that cannot be found or
// fetched carries a not found message and no items; the error is reserved for
// an unknown method.
func (p *Provider) Document(ctx context.Context, id, method string) (*daia.Document, error) {
	src, err := p.source(method)
	if err != nil {
		return nil, err
	}
	return p.document(ctx, id, src, catalog.NewScraper(p.Client)), nil
}

func (p *Provider) document(ctx context.Context, id string, src catalog.Source, holdings resolve.Holdings) *daia.Document {
	doc := daia.NewDocument(p.Config.DocumentID(id), p.Config.DocumentHref(id))
	records, err := src.Records(ctx, id)
	if err != nil {
		log.WithFields(log.Fields{"id": id}).Warnf("records: %v", err)
		records = nil
	}
	if len(records) == 0 {
		doc.AddMessage(daia.Message{Content: NotFoundMessage, Lang: "en", Errno: daia.ErrnoNotFound})
		return doc
	}
	opts := p.Options
	opts.Resolve.Holdings = holdings
	ip := pica.NewInterpreter(opts)
	for _, record := range records {
		doc.AddItems(ip.Record(ctx, record, src.Variant())...)
	}
	return doc
}

// Response returns a response with one document per PPN, in request order.
// Item pages are fetched at most once per response.
func (p *Provider) Response(ctx context.Context, ids []string, method string) (*daia.Response, error) {
	src, err := p.source(method)
	if err != nil {
		return nil, err
	}
	var (
		resp     = daia.NewResponse(p.Config.Institution())
		holdings = catalog.NewScraper(p.Client)
	)
	for _, id := range ids {
		resp.AddDocument(p.document(ctx, id, src, holdings))
	}
	return resp, nil
}

// Convert interprets a raw record without fetching it, e.g. from a dump. The
// document id is taken from the record. Item pages are not consulted.
func (p *Provider) Convert(ctx context.Context, record string, v pica.Variant) *daia.Document {
	var (
		fields = pica.Decode(record, v)
		id     string
	)
	for _, f := range fields {
		if f.Tag == pica.TagPPN {
			id, _ = f.First('0')
			break
		}
	}
	doc := daia.NewDocument(p.Config.DocumentID(id), p.Config.DocumentHref(id))
	doc.AddItems(pica.NewInterpreter(p.Options).Items(ctx, slices.Values(fields), v)...)
	return doc
}
