// Package encode renders DAIA responses as XML, JSON and RDF.
package encode

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/beevik/etree"
	"github.com/gbv/daia"
)

const (
	// Namespace of DAIA XML.
	Namespace = "http://ws.gbv.de/daia/"
	// SchemaLocation of the DAIA XML schema.
	SchemaLocation = "http://ws.gbv.de/daia/ http://ws.gbv.de/daia/daia.xsd"

	xsiNamespace = "http://www.w3.org/2001/XMLSchema-instance"
)

// XMLOptions control XML output.
type XMLOptions struct {
	// Namespaced adds the DAIA namespace and schema location.
	Namespaced bool
	// Indent is the number of spaces per level, no indentation if zero.
	Indent int
}

// XML writes a response as DAIA XML.
func XML(w io.Writer, r *daia.Response, opts XMLOptions) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("daia")
	if opts.Namespaced {
		root.CreateAttr("xmlns", Namespace)
		root.CreateAttr("xmlns:xsi", xsiNamespace)
		root.CreateAttr("xsi:schemaLocation", SchemaLocation)
	}
	attr(root, "version", r.Version)
	if !r.Timestamp.IsZero() {
		root.CreateAttr("timestamp", r.Timestamp.Format(time.RFC3339))
	}
	for _, m := range r.Messages {
		message(root, m)
	}
	if r.Institution != nil {
		element(root, "institution", r.Institution)
	}
	for _, d := range r.Documents {
		document(root, d)
	}
	if opts.Indent > 0 {
		doc.Indent(opts.Indent)
	}
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write xml: %w", err)
	}
	return nil
}

// attr sets an attribute only if the value is not empty.
func attr(el *etree.Element, key, value string) {
	if value != "" {
		el.CreateAttr(key, value)
	}
}

func element(parent *etree.Element, tag string, e *daia.Element) {
	el := parent.CreateElement(tag)
	attr(el, "id", e.ID)
	attr(el, "href", e.Href)
	if e.Content != "" {
		el.SetText(e.Content)
	}
}

func message(parent *etree.Element, m daia.Message) {
	el := parent.CreateElement("message")
	attr(el, "lang", m.Lang)
	if m.Errno != 0 {
		el.CreateAttr("errno", strconv.Itoa(m.Errno))
	}
	if m.Content != "" {
		el.SetText(m.Content)
	}
}

func document(parent *etree.Element, d *daia.Document) {
	el := parent.CreateElement("document")
	attr(el, "id", d.ID)
	attr(el, "href", d.HoldingHref)
	for _, m := range d.Messages {
		message(el, m)
	}
	for _, it := range d.Items {
		item(el, it)
	}
}

func item(parent *etree.Element, it *daia.Item) {
	el := parent.CreateElement("item")
	attr(el, "id", it.ID)
	attr(el, "href", it.Href)
	attr(el, "fragment", it.Fragment)
	for _, m := range it.Messages {
		message(el, m)
	}
	if it.Label != "" {
		el.CreateElement("label").SetText(it.Label)
	}
	if it.Department != nil {
		element(el, "department", it.Department)
	}
	if it.Storage != nil {
		element(el, "storage", it.Storage)
	}
	for _, s := range daia.Services {
		availability(el, s, it.Services[s])
	}
}

// availability renders a service. Unknown and not applicable services are
// omitted.
func availability(parent *etree.Element, s daia.Service, a daia.Availability) {
	var (
		el          *etree.Element
		messages    []daia.Message
		limitations []daia.Element
	)
	switch v := a.(type) {
	case *daia.Available:
		el = parent.CreateElement("available")
		el.CreateAttr("service", s.String())
		attr(el, "href", v.Href)
		attr(el, "delay", v.Delay)
		messages, limitations = v.Messages, v.Limitations
	case *daia.Unavailable:
		el = parent.CreateElement("unavailable")
		el.CreateAttr("service", s.String())
		attr(el, "href", v.Href)
		attr(el, "expected", v.Expected)
		if v.Queue != nil {
			el.CreateAttr("queue", strconv.Itoa(*v.Queue))
		}
		messages, limitations = v.Messages, v.Limitations
	default:
		return
	}
	for _, m := range messages {
		message(el, m)
	}
	for i := range limitations {
		element(el, "limitation", &limitations[i])
	}
}
