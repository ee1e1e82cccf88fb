// Package daia contains the document availability information (DAIA) data
// model: a response holds documents, documents hold items and items carry one
// availability per service.
package daia

import "time"

const (
	// AppName is used for config and cache locations.
	AppName = "daia"
	// Version of this module.
	Version = "0.3.1"
	// SchemaVersion is the DAIA version written to documents.
	SchemaVersion = "0.5"
)

// ErrnoNotFound is the message error code for a document that could not be
// found in the catalog.
const ErrnoNotFound = 100

// Element is a generic labeled value, used for institution, department,
// storage and limitation values.
type Element struct {
	Content string
	ID      string
	Href    string
}

// NewElement returns a pointer to an element with content only.
func NewElement(content string) *Element {
	return &Element{Content: content}
}

// Message is a diagnostic or informational string. A non-zero Errno marks a
// structured error condition.
type Message struct {
	Content string
	Lang    string
	Errno   int
}

// Response is the DAIA root, one per request.
type Response struct {
	Version     string
	Timestamp   time.Time
	Institution *Element
	Messages    []Message
	Documents   []*Document
}

// NewResponse creates an empty response for an institution, timestamped now.
func NewResponse(institution *Element) *Response {
	return &Response{
		Version:     SchemaVersion,
		Timestamp:   time.Now(),
		Institution: institution,
	}
}

// AddDocument appends a document.
func (r *Response) AddDocument(doc *Document) {
	r.Documents = append(r.Documents, doc)
}

// Document describes the holdings for a single catalog identifier.
type Document struct {
	ID          string
	HoldingHref string
	Messages    []Message
	Items       []*Item
}

// NewDocument returns a document with an optional link to the catalog.
func NewDocument(id, href string) *Document {
	return &Document{ID: id, HoldingHref: href}
}

// AddMessage attaches a message to the document.
func (d *Document) AddMessage(m Message) {
	d.Messages = append(d.Messages, m)
}

// AddItems appends items in order.
func (d *Document) AddItems(items ...*Item) {
	d.Items = append(d.Items, items...)
}

// NotFound reports whether the document carries a not found message.
func (d *Document) NotFound() bool {
	for _, m := range d.Messages {
		if m.Errno == ErrnoNotFound {
			return true
		}
	}
	return false
}
