package pica

import (
	"context"
	"iter"
	"strings"

	"github.com/gbv/daia"
	"github.com/gbv/daia/location"
	"github.com/gbv/daia/resolve"
)

// Tags handled by the interpreter, all other fields are ignored.
const (
	TagPPN          = "003@"
	TagDocumentType = "002@"
	TagItem         = "201@"
	TagItemDetail   = "209A"
	TagCopies       = "209G"
	TagLink         = "209R"
	TagLimitation   = "237A"
)

// Options for the interpreter.
type Options struct {
	// ItemIDPrefix is prepended to the item number (201@ $e), e.g.
	// "http://uri.gbv.de/document/opac-de-830:epn:".
	ItemIDPrefix string
	// CatalogPostfix is appended to the item link (201@ $l).
	CatalogPostfix string
	// RawMessages attaches every subfield of 201@ to the item as a message
	// in language "pica".
	RawMessages bool
	// Unguarded resolves items even if availabilities have already been set,
	// e.g. from a sub-holding lookup. Resolved services replace existing
	// ones.
	Unguarded bool
	// Locations overrides storage names derived from the storage code.
	Locations location.Resolver
	// Resolve is passed to the availability resolver; its Holdings are also
	// used for sub-holding lookups of 209G copies.
	Resolve resolve.Options
}

// Interpreter turns the fields of a record into items.
type Interpreter struct {
	Options Options
}

// NewInterpreter returns an interpreter with the given options.
func NewInterpreter(opts Options) *Interpreter {
	return &Interpreter{Options: opts}
}

// builder accumulates a single item and the inputs for its resolution.
type builder struct {
	item        *daia.Item
	in          resolve.Input
	storageCode string
}

// run is the state of a single pass over a record.
type run struct {
	ctx          context.Context
	opts         *Options
	documentType string
	variant      Variant
	current      *builder
	items        []*daia.Item
}

// Record decodes and interprets a raw record.
func (ip *Interpreter) Record(ctx context.Context, record string, v Variant) []*daia.Item {
	s := NewScanner(strings.NewReader(record), v)
	return ip.Items(ctx, s.Fields(), v)
}

// Items interprets a sequence of fields. Items are returned in the order
// they are started; copies expanded from 209G follow their original.
func (ip *Interpreter) Items(ctx context.Context, fields iter.Seq[Field], v Variant) []*daia.Item {
	r := &run{ctx: ctx, opts: &ip.Options, variant: v}
	for f := range fields {
		r.field(f)
	}
	if b := r.current; b != nil && b.storageCode != location.Sentinel {
		r.finalize(b)
	}
	return r.items
}

func (r *run) field(f Field) {
	switch f.Tag {
	case TagDocumentType:
		if v, ok := f.First('0'); ok && v != "" {
			r.documentType = v[:1]
		}
	case TagItem:
		r.startItem(f)
	case TagItemDetail:
		if r.current != nil {
			r.itemDetail(f)
		}
	case TagCopies:
		if r.current != nil {
			r.copies(f)
		}
	case TagLink:
		if r.current != nil {
			r.link(f)
		}
	case TagLimitation:
		if r.current != nil {
			if v, ok := f.First('a'); ok {
				r.current.in.Limitation = v
			}
		}
	}
}

func (r *run) startItem(f Field) {
	if r.current != nil {
		r.finalize(r.current)
	}
	b := &builder{item: &daia.Item{}}
	r.current = b
	r.items = append(r.items, b.item)
	for _, sf := range f.Subfields {
		switch sf.Code {
		case 'l':
			b.item.Href = sf.Value + r.opts.CatalogPostfix
		case 'e':
			b.item.ID = r.opts.ItemIDPrefix + sf.Value
		case 'u':
			b.in.Usage = sf.Value
		case 'v':
			b.in.Availability = sf.Value
		}
		if r.opts.RawMessages {
			b.item.AddMessage(daia.Message{Content: string(sf.Code) + sf.Value, Lang: "pica"})
		}
	}
	if r.documentType == resolve.DocumentTypeOnline {
		b.item.Storage = daia.NewElement("Internet")
	}
}

func (r *run) itemDetail(f Field) {
	b := r.current
	for _, sf := range f.Subfields {
		switch sf.Code {
		case 'a':
			if b.item.Label == "" {
				b.item.Label = sf.Value
			}
		case 'd':
			b.in.GeneralAvailability = sf.Value
		case 'f':
			b.storageCode = sf.Value
			name, href := location.Name(r.opts.Locations, sf.Value)
			b.item.Storage = &daia.Element{Content: name, Href: href}
		}
	}
}

// copiesMarker separates the barcodes of 209G. The catalog writes it
// literally, independent of the subfield delimiter of the transport.
const copiesMarker = "$a"

// copies expands a field listing the barcodes of several copies into one
// item per barcode. The first barcode belongs to the current item.
func (r *run) copies(f Field) {
	segments := strings.Split(f.Text, copiesMarker)
	if len(segments) <= 2 {
		return
	}
	var (
		item    = r.current.item
		storage daia.Element
	)
	if item.Storage != nil {
		storage = *item.Storage
	}
	for i, seg := range segments[1:] {
		barcode := r.barcode(seg)
		target := item
		if i > 0 {
			target = &daia.Item{Href: item.Href, Label: item.Label}
			r.items = append(r.items, target)
		}
		target.Storage = &daia.Element{Content: storage.Content, ID: barcode, Href: storage.Href}
		if item.Href != "" && r.opts.Resolve.Holdings != nil {
			st := r.opts.Resolve.Holdings.SubHolding(r.ctx, item.Href, barcode)
			resolve.ApplySubHolding(&target.Services, item.Href, st)
		}
	}
}

// barcode cuts a segment at the next subfield, marked by "$" or the
// delimiter of the transport.
func (r *run) barcode(seg string) string {
	if i := strings.IndexAny(seg, "$"+r.variant.Delimiter()); i >= 0 {
		seg = seg[:i]
	}
	return strings.TrimSpace(seg)
}

func (r *run) link(f Field) {
	b := r.current
	for _, url := range f.All('a') {
		var content string
		if b.item.Storage != nil {
			content = b.item.Storage.Content
		}
		b.item.Storage = &daia.Element{Content: content, ID: url, Href: url}
	}
}

// finalize resolves the availabilities of an item, unless they are already
// set and the interpreter is guarded.
func (r *run) finalize(b *builder) {
	if b.item.HasAvailabilities() && !r.opts.Unguarded {
		return
	}
	in := b.in
	in.DocumentType = r.documentType
	in.Href = b.item.Href
	in.ItemID = b.item.ID
	res := resolve.Resolve(r.ctx, in, r.opts.Resolve)
	b.item.Href = res.Href
	for i, a := range res.Services {
		if a != nil {
			b.item.Services[i] = a
		}
	}
}
