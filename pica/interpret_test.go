package pica

import (
	"context"
	"strings"
	"testing"

	"github.com/gbv/daia"
	"github.com/gbv/daia/location"
	"github.com/gbv/daia/resolve"
	"github.com/google/go-cmp/cmp"
)

// fakeHoldings reports the barcodes in lent as on loan.
type fakeHoldings struct {
	due  string
	lent map[string]string
	seen []string
}

func (h *fakeHoldings) DueDate(ctx context.Context, href string) string {
	return h.due
}

func (h *fakeHoldings) SubHolding(ctx context.Context, href, barcode string) resolve.LoanStatus {
	h.seen = append(h.seen, barcode)
	expected, ok := h.lent[barcode]
	return resolve.LoanStatus{OnLoan: ok, Expected: expected}
}

func record(lines ...string) string {
	return strings.Join(lines, "\n")
}

func TestSingleItem(t *testing.T) {
	ip := NewInterpreter(Options{
		ItemIDPrefix:   "epn:",
		CatalogPostfix: "&LNG=DU",
	})
	items := ip.Record(context.Background(), record(
		"002@ $0Aau",
		"201@/01 $e1100539905$lhttps://opac.example.org/DB=1/PPN?EPN=1100539905$uAusleihbestand$vverfügbar",
		"209A/01 $aTIR-219$aBC-0001$du$f3",
	), HTTP)
	href := "https://opac.example.org/DB=1/PPN?EPN=1100539905&LNG=DU"
	want := []*daia.Item{{
		ID:      "epn:1100539905",
		Href:    href,
		Label:   "TIR-219",
		Storage: &daia.Element{Content: location.Stacks},
		Services: daia.ServiceMap{
			&daia.Available{Href: href},
			&daia.Available{Href: href},
			&daia.Available{Href: href},
			daia.Unknown{},
		},
	}}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Fatalf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestTwoItemsAndSentinel(t *testing.T) {
	ip := NewInterpreter(Options{})
	items := ip.Record(context.Background(), record(
		"201@/01 $e1$uAusleihbestand$ventliehen",
		"209A/01 $aA 1$du$fLS1",
		"237A/01 $aWochenendausleihe",
		"201@/02 $e2$uAusleihbestand$vverfügbar",
		"209A/02 $aA 2$du$fEi",
	), HTTP)
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	first := items[0]
	if first.Storage.Content != "Lesesaal LS1" {
		t.Errorf("got storage %q", first.Storage.Content)
	}
	loan, ok := first.Availability(daia.Loan).(*daia.Unavailable)
	if !ok {
		t.Fatalf("got %T, want unavailable loan", first.Availability(daia.Loan))
	}
	if loan.Expected != daia.ExpectedUnknown {
		t.Errorf("got expected %q, want %q", loan.Expected, daia.ExpectedUnknown)
	}
	if diff := cmp.Diff([]daia.Element{{Content: "Wochenendausleihe"}}, loan.Limitations); diff != "" {
		t.Errorf("limitations mismatch (-want +got):\n%s", diff)
	}
	// The limitation of the first item does not leak into the second.
	second := items[1]
	if second.Storage.Content != location.None {
		t.Errorf("got storage %q, want %q", second.Storage.Content, location.None)
	}
	if second.HasAvailabilities() {
		t.Errorf("sentinel storage at end of record must not be resolved")
	}
}

func TestSentinelOnlyAtEnd(t *testing.T) {
	items := NewInterpreter(Options{}).Record(context.Background(), record(
		"201@/01 $e1",
		"209A/01 $du$fEi",
		"201@/02 $e2",
		"209A/02 $du$f1",
	), HTTP)
	for i, it := range items {
		if it.IsAvailable(daia.Loan) != daia.StateAvailable {
			t.Errorf("item %d: got %v, want available", i, it.IsAvailable(daia.Loan))
		}
	}
}

func TestCopies(t *testing.T) {
	h := &fakeHoldings{lent: map[string]string{"8302": "2024-06-30"}}
	ip := NewInterpreter(Options{Resolve: resolve.Options{Holdings: h}})
	items := ip.Record(context.Background(), record(
		"201@/01 $e1$lhttps://opac.example.org/e1$uAusleihbestand$vverfügbar",
		"209A/01 $aZS 12$du$f3",
		"209G/01 $a8301$a8302$a8303$x00",
	), HTTP)
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
	var barcodes []string
	for _, it := range items {
		barcodes = append(barcodes, it.Storage.ID)
		if it.Label != "ZS 12" || it.Href != "https://opac.example.org/e1" {
			t.Errorf("copy did not inherit label and href: %+v", it)
		}
		if it.Storage.Content != location.Stacks {
			t.Errorf("got storage %q, want %q", it.Storage.Content, location.Stacks)
		}
	}
	// The last barcode ends at the next subfield.
	if diff := cmp.Diff([]string{"8301", "8302", "8303"}, barcodes); diff != "" {
		t.Errorf("barcodes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(barcodes, h.seen); diff != "" {
		t.Errorf("lookups mismatch (-want +got):\n%s", diff)
	}
	if items[1].IsAvailable(daia.Loan) != daia.StateUnavailable {
		t.Errorf("copy on loan: got %v", items[1].IsAvailable(daia.Loan))
	}
	if items[2].IsAvailable(daia.Loan) != daia.StateAvailable {
		t.Errorf("copy on shelf: got %v", items[2].IsAvailable(daia.Loan))
	}
	if items[0].ID != "1" || items[1].ID != "" {
		t.Errorf("only the first copy keeps the item id")
	}
}

func TestCopiesWithoutHref(t *testing.T) {
	h := &fakeHoldings{}
	items := NewInterpreter(Options{Resolve: resolve.Options{Holdings: h}}).Record(context.Background(), record(
		"201@/01 $e1",
		"209A/01 $du",
		"209G/01 $aB1$aB2$aB3$aB4",
	), HTTP)
	if len(items) != 4 {
		t.Fatalf("got %d items, want 4", len(items))
	}
	if len(h.seen) != 0 {
		t.Errorf("got %d lookups, want none", len(h.seen))
	}
	if items[0].Storage.ID != "B1" || items[3].Storage.ID != "B4" {
		t.Errorf("got barcodes %q, %q", items[0].Storage.ID, items[3].Storage.ID)
	}
	if !items[0].HasAvailabilities() {
		t.Errorf("first item must be resolved")
	}
	for _, it := range items[1:] {
		if it.HasAvailabilities() {
			t.Errorf("copies without lookup stay unresolved: %v", it.Storage.ID)
		}
	}
}

func TestCopiesSingleBarcode(t *testing.T) {
	items := NewInterpreter(Options{}).Record(context.Background(), record(
		"201@/01 $e1",
		"209G/01 $aB1",
	), HTTP)
	if len(items) != 1 || items[0].Storage != nil {
		t.Errorf("a single barcode is not expanded: %+v", items)
	}
}

func TestCopiesZ3950(t *testing.T) {
	// Barcodes are listed with a literal "$a" on both transports.
	record := "201@ \x9fe1\n209G \x9fa$aB1$aB2$aB3\x9fx00\n"
	items := NewInterpreter(Options{}).Record(context.Background(), record, Z3950)
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
	for i, want := range []string{"B1", "B2", "B3"} {
		if items[i].Storage.ID != want {
			t.Errorf("got barcode %q, want %q", items[i].Storage.ID, want)
		}
	}
	// Subfield delimiters alone do not separate copies.
	items = NewInterpreter(Options{}).Record(context.Background(), "201@ \x9fe1\n209G \x9faB1\x9faB2\x9faB3\n", Z3950)
	if len(items) != 1 || items[0].Storage != nil {
		t.Errorf("got %d items, want 1 without storage", len(items))
	}
}

func TestGuard(t *testing.T) {
	lines := record(
		"201@/01 $e1$lhttps://opac.example.org/e1$uAusleihbestand$vverfügbar",
		"209A/01 $du$f3",
		"209G/01 $aB1$aB2$aB3",
	)
	var cases = []struct {
		unguarded bool
		want      daia.State
	}{
		// The sub-holding lookup has set availabilities, resolution is skipped.
		{false, daia.StateUnavailable},
		// Resolution overrides the lookup.
		{true, daia.StateAvailable},
	}
	for _, c := range cases {
		h := &fakeHoldings{lent: map[string]string{"B1": ""}}
		ip := NewInterpreter(Options{
			Unguarded: c.unguarded,
			Resolve:   resolve.Options{Holdings: h},
		})
		items := ip.Record(context.Background(), lines, HTTP)
		if got := items[0].IsAvailable(daia.Loan); got != c.want {
			t.Errorf("unguarded=%v: got %v, want %v", c.unguarded, got, c.want)
		}
	}
}

func TestOnline(t *testing.T) {
	items := NewInterpreter(Options{}).Record(context.Background(), record(
		"002@ $0Oax",
		"201@ $e1$uAusleihbestand$vsiehe Link",
		"209R $ahttps://ebooks.example.org/1",
	), HTTP)
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	want := &daia.Element{
		Content: "Internet",
		ID:      "https://ebooks.example.org/1",
		Href:    "https://ebooks.example.org/1",
	}
	if diff := cmp.Diff(want, items[0].Storage); diff != "" {
		t.Errorf("storage mismatch (-want +got):\n%s", diff)
	}
	if items[0].IsAvailable(daia.Presentation) != daia.StateAvailable {
		t.Errorf("online lending stock is available")
	}
}

func TestLocationTable(t *testing.T) {
	tab, err := location.Read(strings.NewReader("LS1;Lesesaal 1;;https://www.example.org/ls1\n"))
	if err != nil {
		t.Fatal(err)
	}
	items := NewInterpreter(Options{Locations: tab}).Record(context.Background(), record(
		"201@ $e1",
		"209A $du$fLS1",
	), HTTP)
	want := &daia.Element{Content: "Lesesaal 1", Href: "https://www.example.org/ls1"}
	if diff := cmp.Diff(want, items[0].Storage); diff != "" {
		t.Errorf("storage mismatch (-want +got):\n%s", diff)
	}
}

func TestRawMessages(t *testing.T) {
	items := NewInterpreter(Options{RawMessages: true}).Record(context.Background(), record(
		"201@ $e1$uAusleihbestand",
	), HTTP)
	want := []daia.Message{
		{Content: "e1", Lang: "pica"},
		{Content: "uAusleihbestand", Lang: "pica"},
	}
	if diff := cmp.Diff(want, items[0].Messages); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldsBeforeItem(t *testing.T) {
	items := NewInterpreter(Options{}).Record(context.Background(), record(
		"209A $aX$du",
		"237A $anur Kopie",
		"209G $aB1$aB2$aB3",
	), HTTP)
	if len(items) != 0 {
		t.Errorf("got %d items, want 0", len(items))
	}
}

func TestDueDate(t *testing.T) {
	h := &fakeHoldings{due: "2024-03-01"}
	items := NewInterpreter(Options{Resolve: resolve.Options{Holdings: h}}).Record(context.Background(), record(
		"201@ $e1$lhttps://opac.example.org/e1$uAusleihbestand$ventliehen",
	), HTTP)
	u, ok := items[0].Availability(daia.Presentation).(*daia.Unavailable)
	if !ok || u.Expected != "2024-03-01" {
		t.Errorf("got %#v, want unavailable until 2024-03-01", items[0].Availability(daia.Presentation))
	}
}
