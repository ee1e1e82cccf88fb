package encode

import (
	"fmt"
	"io"
	"time"

	"github.com/gbv/daia"
	"github.com/segmentio/encoding/json"
)

// DAIA JSON structures; field names follow the XML vocabulary.
type (
	jsonResponse struct {
		Version     string          `json:"version,omitempty"`
		Schema      string          `json:"schema"`
		Timestamp   string          `json:"timestamp,omitempty"`
		Institution *jsonElement    `json:"institution,omitempty"`
		Message     []jsonMessage   `json:"message,omitempty"`
		Document    []*jsonDocument `json:"document"`
	}
	jsonElement struct {
		ID      string `json:"id,omitempty"`
		Href    string `json:"href,omitempty"`
		Content string `json:"content,omitempty"`
	}
	jsonMessage struct {
		Lang    string `json:"lang,omitempty"`
		Errno   int    `json:"errno,omitempty"`
		Content string `json:"content,omitempty"`
	}
	jsonDocument struct {
		ID      string        `json:"id"`
		Href    string        `json:"href,omitempty"`
		Message []jsonMessage `json:"message,omitempty"`
		Item    []*jsonItem   `json:"item,omitempty"`
	}
	jsonItem struct {
		ID          string             `json:"id,omitempty"`
		Href        string             `json:"href,omitempty"`
		Fragment    string             `json:"fragment,omitempty"`
		Message     []jsonMessage      `json:"message,omitempty"`
		Label       string             `json:"label,omitempty"`
		Department  *jsonElement       `json:"department,omitempty"`
		Storage     *jsonElement       `json:"storage,omitempty"`
		Available   []jsonAvailability `json:"available,omitempty"`
		Unavailable []jsonAvailability `json:"unavailable,omitempty"`
	}
	jsonAvailability struct {
		Service    string        `json:"service"`
		Href       string        `json:"href,omitempty"`
		Delay      string        `json:"delay,omitempty"`
		Expected   string        `json:"expected,omitempty"`
		Queue      *int          `json:"queue,omitempty"`
		Message    []jsonMessage `json:"message,omitempty"`
		Limitation []jsonElement `json:"limitation,omitempty"`
	}
)

// JSON writes a response as DAIA JSON, followed by a newline.
func JSON(w io.Writer, r *daia.Response) error {
	if err := json.NewEncoder(w).Encode(toJSON(r)); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

// MarshalJSON returns the DAIA JSON of a response.
func MarshalJSON(r *daia.Response) ([]byte, error) {
	return json.Marshal(toJSON(r))
}

func toJSON(r *daia.Response) *jsonResponse {
	jr := &jsonResponse{
		Version:     r.Version,
		Schema:      Namespace,
		Institution: jsonElem(r.Institution),
		Message:     jsonMessages(r.Messages),
		Document:    []*jsonDocument{},
	}
	if !r.Timestamp.IsZero() {
		jr.Timestamp = r.Timestamp.Format(time.RFC3339)
	}
	for _, d := range r.Documents {
		jd := &jsonDocument{ID: d.ID, Href: d.HoldingHref, Message: jsonMessages(d.Messages)}
		for _, it := range d.Items {
			jd.Item = append(jd.Item, jsonItemOf(it))
		}
		jr.Document = append(jr.Document, jd)
	}
	return jr
}

func jsonElem(e *daia.Element) *jsonElement {
	if e == nil {
		return nil
	}
	return &jsonElement{ID: e.ID, Href: e.Href, Content: e.Content}
}

func jsonMessages(ms []daia.Message) (result []jsonMessage) {
	for _, m := range ms {
		result = append(result, jsonMessage{Lang: m.Lang, Errno: m.Errno, Content: m.Content})
	}
	return
}

func jsonItemOf(it *daia.Item) *jsonItem {
	ji := &jsonItem{
		ID:         it.ID,
		Href:       it.Href,
		Fragment:   it.Fragment,
		Message:    jsonMessages(it.Messages),
		Label:      it.Label,
		Department: jsonElem(it.Department),
		Storage:    jsonElem(it.Storage),
	}
	for _, s := range daia.Services {
		switch v := it.Services[s].(type) {
		case *daia.Available:
			ji.Available = append(ji.Available, jsonAvailability{
				Service:    s.String(),
				Href:       v.Href,
				Delay:      v.Delay,
				Message:    jsonMessages(v.Messages),
				Limitation: jsonLimitations(v.Limitations),
			})
		case *daia.Unavailable:
			ji.Unavailable = append(ji.Unavailable, jsonAvailability{
				Service:    s.String(),
				Href:       v.Href,
				Expected:   v.Expected,
				Queue:      v.Queue,
				Message:    jsonMessages(v.Messages),
				Limitation: jsonLimitations(v.Limitations),
			})
		}
	}
	return ji
}

func jsonLimitations(es []daia.Element) (result []jsonElement) {
	for _, e := range es {
		result = append(result, jsonElement{ID: e.ID, Href: e.Href, Content: e.Content})
	}
	return
}
