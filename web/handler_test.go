package web

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gbv/daia"
	"github.com/gbv/daia/encode"
	"github.com/gbv/daia/provider"
	"github.com/google/go-cmp/cmp"
)

// fakeResponder returns one document per id, "66666" is not found.
type fakeResponder struct {
	ids []string
}

func (f *fakeResponder) Response(ctx context.Context, ids []string, method string) (*daia.Response, error) {
	if method != "" && method != "http" {
		return nil, provider.ErrUnknownMethod
	}
	f.ids = ids
	r := daia.NewResponse(daia.NewElement("Bibliothek"))
	for _, id := range ids {
		d := daia.NewDocument("ppn:"+id, "")
		if id == "66666" {
			d.AddMessage(daia.Message{Content: provider.NotFoundMessage, Lang: "en", Errno: daia.ErrnoNotFound})
		} else {
			d.AddItems(&daia.Item{
				ID:       "epn:" + id,
				Services: daia.ServiceMap{daia.Loan: &daia.Available{}},
			})
		}
		r.AddDocument(d)
	}
	return r, nil
}

func get(t *testing.T, h http.Handler, target string) *http.Response {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec.Result()
}

func TestFormats(t *testing.T) {
	var cases = []struct {
		target      string
		contentType string
		contains    string
	}{
		{"/?id=1", "application/xml; charset=utf-8", `<daia version="0.5"`},
		{"/?ppn=1&output=ns", "application/xml; charset=utf-8", `xmlns="http://ws.gbv.de/daia/"`},
		{"/?id=1&format=json", "application/json; charset=utf-8", `"schema":"http://ws.gbv.de/daia/"`},
		{"/?id=1&format=nt", "application/n-triples; charset=utf-8", "<http://purl.org/ontology/dso#Loan>"},
		{"/?id=1&format=TTL", "text/turtle; charset=utf-8", "daia"},
	}
	h := NewHandler(&fakeResponder{})
	for _, c := range cases {
		resp := get(t, h, c.target)
		b, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: got status %d, want 200", c.target, resp.StatusCode)
		}
		if got := resp.Header.Get("Content-Type"); got != c.contentType {
			t.Errorf("%s: got %s, want %s", c.target, got, c.contentType)
		}
		if !strings.Contains(string(b), c.contains) {
			t.Errorf("%s: body does not contain %s", c.target, c.contains)
		}
	}
}

func TestErrors(t *testing.T) {
	var cases = []struct {
		target string
		status int
	}{
		{"/", http.StatusBadRequest},
		{"/?id=|", http.StatusBadRequest},
		{"/?id=1&format=html", http.StatusBadRequest},
		{"/?id=1&method=gopher", http.StatusBadRequest},
		{"/other?id=1", http.StatusNotFound},
	}
	h := NewHandler(&fakeResponder{})
	for _, c := range cases {
		if resp := get(t, h, c.target); resp.StatusCode != c.status {
			t.Errorf("%s: got %d, want %d", c.target, resp.StatusCode, c.status)
		}
	}
}

func TestNotFoundDocument(t *testing.T) {
	f := &fakeResponder{}
	h := NewHandler(f)
	resp := get(t, h, "/?id=66666|1&id=2")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got %d, want 200", resp.StatusCode)
	}
	if diff := cmp.Diff([]string{"66666", "1", "2"}, f.ids); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
	r, err := encode.ParseXML(resp.Body)
	if err != nil {
		t.Fatalf("invalid xml: %v", err)
	}
	if !r.Documents[0].NotFound() || len(r.Documents[0].Items) != 0 {
		t.Errorf("got %+v", r.Documents[0])
	}
	metrics := get(t, h, "/metrics")
	b, _ := io.ReadAll(metrics.Body)
	for _, s := range []string{
		`daia_documents_total{found="false"} 1`,
		`daia_documents_total{found="true"} 2`,
		`daia_requests_total{code="200",format="xml"} 1`,
	} {
		if !strings.Contains(string(b), s) {
			t.Errorf("metrics do not contain %s", s)
		}
	}
}
