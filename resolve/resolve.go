// Package resolve derives per service availability for a single item from the
// signals collected while reading its holding fields: the general
// availability code (209A $d), the usage status and current availability
// strings (201@ $u, $v), the document type (002@ $0) and a loan limitation
// (237A $a).
//
// The rules reproduce the behaviour of the PICA catalog in use, including
// its quirks. The literal strings matched here are the ones the catalog
// emits; they are German.
package resolve

import (
	"context"
	"strings"

	"github.com/gbv/daia"
)

// Usage status strings, 201@ $u.
const (
	// UsageOrdered means on order from the trade.
	UsageOrdered = "Beim Buchhandel bestellt"
	// UsageReadingRoom means reading room use only.
	UsageReadingRoom = "nur Lesesaalnutzung"
	// UsageLending means lending stock; the current state is in 201@ $v.
	UsageLending = "Ausleihbestand"
	// UsageSpecialLocation means not lendable, special location.
	UsageSpecialLocation = "Nicht ausleihbar (Sonderstandort)"
)

// Current availability strings for lending stock, 201@ $v.
const (
	availablePrefix = "verf" // verfügbar
	onLoan          = "entliehen"
	takeSuffix      = "entnehmen" // e.g. "bitte am Standort entnehmen"
	borrowSuffix    = "ausleihen"
)

// Limitation texts attached by the general availability code.
const (
	LimitationShortLoan = "verkürzte Ausleihfrist"
	LimitationConsent   = "Besondere Zustimmung erforderlich"
	LimitationCopyOnly  = "nur Kopie"
)

// DocumentTypeOnline is the 002@ $0 document type of online resources.
const DocumentTypeOnline = "O"

// LoanStatus is the state of a single copy, looked up by barcode.
type LoanStatus struct {
	// OnLoan is true, if the barcode is listed as lent.
	OnLoan bool
	// Expected is the due date, empty if not shown.
	Expected string
}

// Holdings looks up information that is not contained in the record itself,
// usually by scraping the catalog's item page.
type Holdings interface {
	// DueDate returns the due date (YYYY-MM-DD) of the item behind href, or
	// daia.ExpectedUnknown.
	DueDate(ctx context.Context, href string) string
	// SubHolding returns the state of the copy with a given barcode.
	SubHolding(ctx context.Context, href, barcode string) LoanStatus
}

// Input collects the signals for one item.
type Input struct {
	GeneralAvailability string
	Usage               string
	Availability        string
	DocumentType        string
	Limitation          string
	Href                string
	ItemID              string
}

// Options configure collaborators and ambiguous rules.
type Options struct {
	// Holdings is consulted for items on loan. If nil, the expected date is
	// unknown.
	Holdings Holdings
	// ReservationURL, if set, is prefixed to the item id to link ordered items.
	ReservationURL string
	// UnmatchedUsageUnavailable marks presentation and loan unavailable for
	// usage strings not covered by a rule. By default the baseline from the
	// general availability code is kept.
	UnmatchedUsageUnavailable bool
}

// Result is the outcome for one item.
type Result struct {
	Services daia.ServiceMap
	// Href is the item link, possibly rewritten to a reservation link.
	Href string
}

type mark int

const (
	unset mark = iota
	available
	unavailable
)

type limit struct {
	service daia.Service
	content string
}

// rule is a baseline for a general availability code. Marks are indexed by
// service; unset services become unknown.
type rule struct {
	marks           [4]mark
	expectedUnknown []daia.Service
	limits          []limit
}

var baselines = map[string]rule{
	"u": {marks: [4]mark{available, available, available}},
	"b": {
		marks: [4]mark{available, available, available},
		limits: []limit{
			{daia.Loan, LimitationShortLoan},
			{daia.Interloan, LimitationShortLoan},
		},
	},
	"c": {marks: [4]mark{available, available, unavailable}},
	"s": {
		marks: [4]mark{available, available, available},
		limits: []limit{
			{daia.Loan, LimitationConsent},
			{daia.Interloan, LimitationCopyOnly},
		},
	},
	"d": {marks: [4]mark{available, available, available}},
	"i": {
		marks:           [4]mark{available, unavailable, unavailable, unavailable},
		expectedUnknown: []daia.Service{daia.Loan, daia.Interloan, daia.OpenAccess},
	},
	"f": {
		marks:  [4]mark{available, unavailable, available, unavailable},
		limits: []limit{{daia.Interloan, LimitationCopyOnly}},
	},
	"a": {
		marks:           [4]mark{unavailable, unavailable, unavailable, unavailable},
		expectedUnknown: []daia.Service{daia.Presentation, daia.Loan, daia.Interloan},
	},
	"o": {marks: [4]mark{unavailable, unavailable, unavailable, unavailable}},
	"g": {marks: [4]mark{unavailable, unavailable, unavailable, unavailable}},
	"z": {marks: [4]mark{unavailable, unavailable, unavailable, unavailable}},
}

// Resolve maps the signals of an item to its availabilities. Apart from the
// due date lookup it has no side effects.
func Resolve(ctx context.Context, in Input, opts Options) Result {
	res := Result{Href: in.Href}
	m := &res.Services
	if r, ok := baselines[in.GeneralAvailability]; ok {
		r.apply(m)
	}
	switch in.Usage {
	case UsageOrdered:
		m.MarkUnavailable(daia.Presentation).Expected = daia.ExpectedUnknown
		m.MarkUnavailable(daia.Loan).Expected = daia.ExpectedUnknown
		if m.Resolved(daia.Interloan) {
			m.MarkUnavailable(daia.Interloan).Expected = daia.ExpectedUnknown
		}
		if opts.ReservationURL != "" {
			res.Href = opts.ReservationURL + in.ItemID
		}
	case UsageReadingRoom:
		m.MarkAvailable(daia.Presentation)
		m.MarkUnavailable(daia.Loan)
	case UsageLending:
		lending(ctx, m, in, opts)
	case UsageSpecialLocation:
		m.MarkUnavailable(daia.Loan)
		if in.DocumentType == DocumentTypeOnline {
			m.MarkAvailable(daia.Presentation)
		} else {
			m.MarkUnavailable(daia.Presentation)
		}
	default:
		if opts.UnmatchedUsageUnavailable {
			m.MarkUnavailable(daia.Presentation)
			m.MarkUnavailable(daia.Loan)
		}
	}
	for _, s := range []daia.Service{daia.Presentation, daia.Loan, daia.Interloan} {
		m.SetHref(s, res.Href)
	}
	if in.Limitation != "" {
		m.AddLimitation(daia.Loan, daia.Element{Content: in.Limitation})
	}
	return res
}

func (r rule) apply(m *daia.ServiceMap) {
	for i, mk := range r.marks {
		s := daia.Service(i)
		switch mk {
		case available:
			m.MarkAvailable(s)
		case unavailable:
			m.MarkUnavailable(s)
		default:
			m[s] = daia.Unknown{}
		}
	}
	for _, s := range r.expectedUnknown {
		if u, ok := m[s].(*daia.Unavailable); ok {
			u.Expected = daia.ExpectedUnknown
		}
	}
	for _, l := range r.limits {
		m.AddLimitation(l.service, daia.Element{Content: l.content})
	}
}

// lending refines lending stock by the current availability string.
func lending(ctx context.Context, m *daia.ServiceMap, in Input, opts Options) {
	switch v := in.Availability; {
	case strings.HasPrefix(v, availablePrefix):
		m.MarkAvailable(daia.Loan)
		m.MarkAvailable(daia.Presentation)
	case strings.EqualFold(v, onLoan):
		expected := daia.ExpectedUnknown
		if opts.Holdings != nil && in.Href != "" {
			expected = opts.Holdings.DueDate(ctx, in.Href)
		}
		m.MarkUnavailable(daia.Loan).Expected = expected
		m.MarkUnavailable(daia.Presentation).Expected = expected
		if m.Resolved(daia.Interloan) {
			m.MarkUnavailable(daia.Interloan).Expected = expected
		}
	case strings.HasSuffix(v, takeSuffix), strings.HasSuffix(v, borrowSuffix):
		m.MarkAvailable(daia.Loan)
		m.MarkAvailable(daia.Presentation)
	case in.DocumentType == DocumentTypeOnline:
		m.MarkAvailable(daia.Loan)
		m.MarkAvailable(daia.Presentation)
	}
}

// ApplySubHolding sets presentation and loan from the state of a single copy.
// A copy on loan links to href and carries the due date, if shown.
func ApplySubHolding(m *daia.ServiceMap, href string, st LoanStatus) {
	if !st.OnLoan {
		m.MarkAvailable(daia.Loan)
		m.MarkAvailable(daia.Presentation)
		return
	}
	loan := m.MarkUnavailable(daia.Loan)
	presentation := m.MarkUnavailable(daia.Presentation)
	if st.Expected != "" {
		loan.Expected, loan.Href = st.Expected, href
		presentation.Expected, presentation.Href = st.Expected, href
	}
}
