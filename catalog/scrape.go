package catalog

import (
	"bytes"
	"context"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/gbv/daia"
	"github.com/gbv/daia/dateutil"
	"github.com/gbv/daia/resolve"
	log "github.com/sirupsen/logrus"
)

// barcodeMarker prefixes the barcode of a copy in form values and links of
// the item page.
const barcodeMarker = "VBAR="

// Scraper reads due dates and the state of single copies from the item pages
// of the OPAC. Each page is fetched at most once; use a new Scraper for each
// resolution pass.
type Scraper struct {
	Client Doer

	mu      sync.Mutex
	pages   map[string]*page
	fetches int
}

// page is loaded at most once. A fetch aborted by its caller's context is
// not recorded, so the next caller tries again.
type page struct {
	mu   sync.Mutex
	done bool
	raw  []byte
	doc  *goquery.Document
}

// NewScraper returns a scraper using client.
func NewScraper(client Doer) *Scraper {
	return &Scraper{Client: client, pages: make(map[string]*page)}
}

// Fetches returns the number of pages requested so far.
func (s *Scraper) Fetches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

// load returns the parsed page, or nil if it could not be fetched.
func (s *Scraper) load(ctx context.Context, href string) *page {
	s.mu.Lock()
	if s.pages == nil {
		s.pages = make(map[string]*page)
	}
	p, ok := s.pages[href]
	if !ok {
		p = &page{}
		s.pages[href] = p
	}
	s.mu.Unlock()
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.done {
		s.mu.Lock()
		s.fetches++
		s.mu.Unlock()
		b, err := fetch(ctx, s.Client, href)
		if err != nil && ctx.Err() != nil {
			return nil
		}
		p.done = true
		if err != nil {
			log.WithField("href", href).Warnf("scrape: %v", err)
			return nil
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(b))
		if err != nil {
			log.WithField("href", href).Warnf("scrape: %v", err)
			return nil
		}
		p.raw, p.doc = b, doc
	}
	if p.doc == nil {
		return nil
	}
	return p
}

// DueDate implements resolve.Holdings.
func (s *Scraper) DueDate(ctx context.Context, href string) string {
	p := s.load(ctx, href)
	if p == nil {
		return daia.ExpectedUnknown
	}
	if due, ok := findDueDate(p.doc.Find("td")); ok {
		return due
	}
	return daia.ExpectedUnknown
}

// SubHolding implements resolve.Holdings. A copy is on loan if its barcode is
// listed on the page; a due date is taken from its row or the rows
// following it.
func (s *Scraper) SubHolding(ctx context.Context, href, barcode string) resolve.LoanStatus {
	p := s.load(ctx, href)
	if p == nil || barcode == "" {
		return resolve.LoanStatus{}
	}
	marker := barcodeMarker + barcode
	var last *goquery.Selection
	p.doc.Find("[value], [href]").Each(func(_ int, sel *goquery.Selection) {
		for _, attr := range []string{"value", "href"} {
			if v, ok := sel.Attr(attr); ok && strings.Contains(v, marker) {
				last = sel
			}
		}
	})
	if last == nil {
		if bytes.Contains(p.raw, []byte(marker)) {
			return resolve.LoanStatus{OnLoan: true}
		}
		return resolve.LoanStatus{}
	}
	st := resolve.LoanStatus{OnLoan: true}
	row := last.Closest("tr")
	if row.Length() == 0 {
		return st
	}
	if due, ok := findDueDate(row.AddSelection(row.NextAll())); ok {
		st.Expected = due
	}
	return st
}

// findDueDate returns the first due date in the text of a selection.
func findDueDate(sel *goquery.Selection) (due string, ok bool) {
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.Join(strings.Fields(s.Text()), " ")
		due, ok = dateutil.FindDueDate(text)
		return !ok
	})
	return due, ok
}
