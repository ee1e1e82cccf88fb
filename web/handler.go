// Package web serves availability information over HTTP.
//
//	GET /?id=<ppn>[&format=xml|ns|json|nt|ttl][&method=http|z3950|file]
//
// The parameters ppn and output are accepted as aliases for id and format.
// Several identifiers are separated by "|". Metrics are served at /metrics.
package web

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gbv/daia"
	"github.com/gbv/daia/encode"
	"github.com/gbv/daia/provider"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// Responder creates a response for a list of identifiers, e.g. a
// *provider.Provider.
type Responder interface {
	Response(ctx context.Context, ids []string, method string) (*daia.Response, error)
}

// Handler answers availability requests.
type Handler struct {
	Responder Responder
	Registry  *prometheus.Registry

	requests  *prometheus.CounterVec
	documents *prometheus.CounterVec
	duration  prometheus.Histogram
	mux       *http.ServeMux
}

// NewHandler constructs a handler with its own metrics registry.
func NewHandler(r Responder) *Handler {
	h := &Handler{
		Responder: r,
		Registry:  prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: daia.AppName,
			Name:      "requests_total",
			Help:      "Availability requests by format and status code.",
		}, []string{"format", "code"}),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: daia.AppName,
			Name:      "documents_total",
			Help:      "Documents returned, by whether they were found.",
		}, []string{"found"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: daia.AppName,
			Name:      "request_duration_seconds",
			Help:      "Time to answer an availability request.",
			Buckets:   prometheus.DefBuckets,
		}),
		mux: http.NewServeMux(),
	}
	h.Registry.MustRegister(h.requests, h.documents, h.duration)
	h.mux.Handle("/metrics", promhttp.HandlerFor(h.Registry, promhttp.HandlerOpts{}))
	h.mux.HandleFunc("/", h.handleAvailability)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// Identifiers returns the requested ids in order, without empty values.
func Identifiers(r *http.Request) []string {
	var (
		q   = r.URL.Query()
		ids []string
	)
	for _, key := range []string{"id", "ppn"} {
		for _, v := range q[key] {
			for _, id := range strings.Split(v, "|") {
				if id = strings.TrimSpace(id); id != "" {
					ids = append(ids, id)
				}
			}
		}
	}
	return ids
}

func formatName(r *http.Request) string {
	q := r.URL.Query()
	for _, key := range []string{"format", "output"} {
		if v := q.Get(key); v != "" {
			return strings.ToLower(v)
		}
	}
	return encode.DefaultFormat
}

func (h *Handler) handleAvailability(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	name := formatName(r)
	code := h.serve(w, r, name)
	h.requests.WithLabelValues(name, strconv.Itoa(code)).Inc()
	h.duration.Observe(time.Since(started).Seconds())
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, name string) int {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return http.StatusNotFound
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
	contentType, err := encode.ContentType(name)
	if err != nil {
		return writeError(w, http.StatusBadRequest, err.Error())
	}
	ids := Identifiers(r)
	if len(ids) == 0 {
		return writeError(w, http.StatusBadRequest, "missing id parameter")
	}
	resp, err := h.Responder.Response(r.Context(), ids, r.URL.Query().Get("method"))
	switch {
	case errors.Is(err, provider.ErrUnknownMethod):
		return writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		log.Errorf("response: %v", err)
		return writeError(w, http.StatusInternalServerError, "internal error")
	}
	for _, d := range resp.Documents {
		h.documents.WithLabelValues(strconv.FormatBool(!d.NotFound())).Inc()
	}
	var buf bytes.Buffer
	if err := encode.Write(&buf, resp, name); err != nil {
		log.Errorf("encode %s: %v", name, err)
		return writeError(w, http.StatusInternalServerError, "internal error")
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		w.Write(buf.Bytes())
	}
	return http.StatusOK
}

func writeError(w http.ResponseWriter, code int, msg string) int {
	http.Error(w, msg, code)
	return code
}
