package encode

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gbv/daia"
	"github.com/knakk/rdf"
)

// Vocabularies of the RDF projection.
const (
	nsDAIA = "http://purl.org/ontology/daia/"
	nsDSO  = "http://purl.org/ontology/dso#"
	nsRDF  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	nsRDFS = "http://www.w3.org/2000/01/rdf-schema#"
	nsFOAF = "http://xmlns.com/foaf/0.1/"
	nsFRBR = "http://purl.org/vocab/frbr/core#"
	nsXSD  = "http://www.w3.org/2001/XMLSchema#"
	nsDCT  = "http://purl.org/dc/terms/"
)

// Format of the RDF projection.
type Format = rdf.Format

// RDF formats.
const (
	NTriples = rdf.NTriples
	Turtle   = rdf.Turtle
)

// serviceClasses are indexed by daia.Service.
var serviceClasses = [...]string{
	daia.Presentation: nsDSO + "Presentation",
	daia.Loan:         nsDSO + "Loan",
	daia.Interloan:    nsDSO + "Interloan",
	daia.OpenAccess:   nsDSO + "Openaccess",
}

// RDF writes the triples of a response. It is meant for validation and
// debugging; blank node labels are numbered in document order.
func RDF(w io.Writer, r *daia.Response, f Format) error {
	g := &graph{}
	g.response(r)
	if g.err != nil {
		return g.err
	}
	enc := rdf.NewTripleEncoder(w, f)
	enc.Namespaces = map[string]string{
		nsDAIA: "daia",
		nsDSO:  "dso",
		nsRDF:  "rdf",
		nsRDFS: "rdfs",
		nsFOAF: "foaf",
		nsFRBR: "frbr",
		nsXSD:  "xsd",
		nsDCT:  "dct",
	}
	if err := enc.EncodeAll(g.triples); err != nil {
		return fmt.Errorf("write rdf: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("write rdf: %w", err)
	}
	return nil
}

// Triples returns the triples of a response.
func Triples(r *daia.Response) ([]rdf.Triple, error) {
	g := &graph{}
	g.response(r)
	return g.triples, g.err
}

type graph struct {
	triples []rdf.Triple
	blanks  int
	err     error
}

func (g *graph) fail(err error) {
	if g.err == nil {
		g.err = err
	}
}

func (g *graph) iri(s string) rdf.IRI {
	iri, err := rdf.NewIRI(s)
	if err != nil {
		g.fail(err)
	}
	return iri
}

func (g *graph) blank() rdf.Blank {
	g.blanks++
	b, err := rdf.NewBlank("b" + strconv.Itoa(g.blanks))
	if err != nil {
		g.fail(err)
	}
	return b
}

// node returns an IRI for id if it is one, a new blank node otherwise.
func (g *graph) node(id string) rdf.Subject {
	if strings.Contains(id, ":") {
		if iri, err := rdf.NewIRI(id); err == nil {
			return iri
		}
	}
	return g.blank()
}

func (g *graph) add(s rdf.Subject, p string, o rdf.Object) {
	g.triples = append(g.triples, rdf.Triple{Subj: s, Pred: g.iri(p), Obj: o})
}

func (g *graph) literal(s rdf.Subject, p, v string) {
	if v == "" {
		return
	}
	lit, err := rdf.NewLiteral(v)
	if err != nil {
		g.fail(err)
		return
	}
	g.add(s, p, lit)
}

func (g *graph) link(s rdf.Subject, p, href string) {
	if href == "" {
		return
	}
	iri, err := rdf.NewIRI(href)
	if err != nil {
		// Not a valid IRI, keep it as text.
		g.literal(s, p, href)
		return
	}
	g.add(s, p, iri)
}

func (g *graph) typed(s rdf.Subject, class string) {
	g.add(s, nsRDF+"type", g.iri(class))
}

func (g *graph) messages(s rdf.Subject, ms []daia.Message) {
	for _, m := range ms {
		var (
			lit rdf.Literal
			err error
		)
		if m.Lang != "" && m.Lang != "pica" {
			lit, err = rdf.NewLangLiteral(m.Content, m.Lang)
		} else {
			lit, err = rdf.NewLiteral(m.Content)
		}
		if err != nil {
			g.fail(err)
			continue
		}
		g.add(s, nsRDFS+"comment", lit)
	}
}

func (g *graph) element(s rdf.Subject, p, class string, e *daia.Element) {
	if e == nil {
		return
	}
	n := g.node(e.ID)
	g.add(s, p, n.(rdf.Object))
	g.typed(n, class)
	g.literal(n, nsRDFS+"label", e.Content)
	g.link(n, nsFOAF+"page", e.Href)
}

func (g *graph) response(r *daia.Response) {
	var institution rdf.Subject
	if r.Institution != nil {
		institution = g.node(r.Institution.ID)
		g.typed(institution, nsFOAF+"Organization")
		g.literal(institution, nsFOAF+"name", r.Institution.Content)
		g.link(institution, nsFOAF+"homepage", r.Institution.Href)
	}
	for _, d := range r.Documents {
		doc := g.node(d.ID)
		g.typed(doc, nsDAIA+"Document")
		g.link(doc, nsFOAF+"page", d.HoldingHref)
		g.messages(doc, d.Messages)
		for _, it := range d.Items {
			item := g.node(it.ID)
			g.add(doc, nsDAIA+"exemplar", item.(rdf.Object))
			g.item(item, it, institution)
		}
	}
}

func (g *graph) item(s rdf.Subject, it *daia.Item, institution rdf.Subject) {
	g.typed(s, nsFRBR+"Item")
	g.link(s, nsFOAF+"page", it.Href)
	g.literal(s, nsDAIA+"label", it.Label)
	g.messages(s, it.Messages)
	if institution != nil {
		g.add(s, nsDAIA+"heldBy", institution.(rdf.Object))
	}
	g.element(s, nsDCT+"isPartOf", nsDAIA+"Department", it.Department)
	g.element(s, nsDAIA+"storage", nsDAIA+"Storage", it.Storage)
	for _, svc := range daia.Services {
		switch v := it.Services[svc].(type) {
		case *daia.Available:
			n := g.blank()
			g.add(s, nsDAIA+"availableFor", n)
			g.typed(n, serviceClasses[svc])
			g.link(n, nsFOAF+"page", v.Href)
			g.literal(n, nsDAIA+"delay", v.Delay)
			g.service(n, v.Messages, v.Limitations)
		case *daia.Unavailable:
			n := g.blank()
			g.add(s, nsDAIA+"unavailableFor", n)
			g.typed(n, serviceClasses[svc])
			g.link(n, nsFOAF+"page", v.Href)
			switch v.Expected {
			case "":
			case daia.ExpectedUnknown:
				g.literal(n, nsDAIA+"expected", v.Expected)
			default:
				g.add(n, nsDAIA+"expected", rdf.NewTypedLiteral(v.Expected, g.iri(nsXSD+"date")))
			}
			if v.Queue != nil {
				g.add(n, nsDAIA+"queue", rdf.NewTypedLiteral(strconv.Itoa(*v.Queue), g.iri(nsXSD+"nonNegativeInteger")))
			}
			g.service(n, v.Messages, v.Limitations)
		}
	}
}

func (g *graph) service(s rdf.Blank, ms []daia.Message, ls []daia.Element) {
	g.messages(s, ms)
	for i := range ls {
		g.element(s, nsDAIA+"limitedBy", nsDAIA+"Limitation", &ls[i])
	}
}
