// Package testutil provides a fixture OPTIMADE server for tests.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

// Entry is a resource served by the fixture server.
type Entry struct {
	ID   string
	Type string
}

// Server is an in-process OPTIMADE implementation. By default it advertises
// "structures" and serves one structure with id "abc"; every response is
// schema conformant.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	entryTypes  []string
	baseInfo    []byte
	entries     map[string][]Entry
	statuses    map[string]int
	bodies      map[string][]byte
	rateLimits  map[string]int
	hits        map[string]int
	lastHeaders http.Header
}

// Option configures a Server.
type Option func(*Server)

// WithEntryTypes sets the JSON entry types advertised by the base info
// document.
func WithEntryTypes(entryTypes ...string) Option {
	return func(s *Server) {
		s.entryTypes = entryTypes
	}
}

// WithBaseInfoBody replaces the base info document verbatim.
func WithBaseInfoBody(body string) Option {
	return func(s *Server) {
		s.baseInfo = []byte(body)
	}
}

// WithEntries sets the entries listed under entryType. Entries without a
// type get entryType.
func WithEntries(entryType string, entries ...Entry) Option {
	return func(s *Server) {
		for i := range entries {
			if entries[i].Type == "" {
				entries[i].Type = entryType
			}
		}

		s.entries[entryType] = entries
	}
}

// WithStatus answers path with status, keeping the normal body.
func WithStatus(path string, status int) Option {
	return func(s *Server) {
		s.statuses[path] = status
	}
}

// WithBody answers path with body verbatim.
func WithBody(path, body string) Option {
	return func(s *Server) {
		s.bodies[path] = []byte(body)
	}
}

// WithRateLimit answers path with 429 for the first n requests.
func WithRateLimit(path string, n int) Option {
	return func(s *Server) {
		s.rateLimits[path] = n
	}
}

// NewServer starts a fixture server that is closed when t finishes.
func NewServer(t testing.TB, opts ...Option) *Server {
	t.Helper()

	s := &Server{
		entryTypes: []string{"structures"},
		entries: map[string][]Entry{
			"structures": {{ID: "abc", Type: "structures"}},
		},
		statuses:   make(map[string]int),
		bodies:     make(map[string][]byte),
		rateLimits: make(map[string]int),
		hits:       make(map[string]int),
	}

	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(s.intercept)
	r.Get("/info", s.handleBaseInfo)
	r.Get("/info/{type}", s.handleEntryInfo)
	r.Get("/{type}", s.handleListing)
	r.Get("/{type}/{id}", s.handleSingle)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)

	return s
}

// Hits returns how many requests were made for path, e.g. "structures".
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.hits[path]
}

// TotalHits returns the number of requests served.
func (s *Server) TotalHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, n := range s.hits {
		total += n
	}

	return total
}

// LastHeaders returns the headers of the most recent request.
func (s *Server) LastHeaders() http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastHeaders.Clone()
}

func (s *Server) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/")

		s.mu.Lock()
		s.hits[path]++
		s.lastHeaders = r.Header.Clone()
		limited := s.hits[path] <= s.rateLimits[path]
		status, hasStatus := s.statuses[path]
		body, hasBody := s.bodies[path]
		s.mu.Unlock()

		if limited {
			w.WriteHeader(http.StatusTooManyRequests)

			return
		}

		if hasBody {
			if !hasStatus {
				status = http.StatusOK
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write(body)

			return
		}

		if hasStatus {
			next.ServeHTTP(&statusWriter{ResponseWriter: w, status: status}, r)

			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusWriter forces the status code of the wrapped handler.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(int) {
	w.ResponseWriter.WriteHeader(w.status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	return w.ResponseWriter.Write(b) //nolint:wrapcheck // passthrough
}

func (s *Server) handleBaseInfo(w http.ResponseWriter, r *http.Request) {
	if s.baseInfo != nil {
		writeRaw(w, http.StatusOK, s.baseInfo)

		return
	}

	endpoints := append([]string{"info"}, s.entryTypes...)

	writeJSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"id":   "/",
			"type": "info",
			"attributes": map[string]any{
				"api_version": "1.0.0",
				"available_api_versions": []map[string]any{
					{"url": s.URL + "/v1", "version": "1.0.0"},
				},
				"formats":               []string{"json"},
				"available_endpoints":   endpoints,
				"entry_types_by_format": map[string][]string{"json": s.entryTypes},
			},
		},
		"meta": meta("/info", 1),
	})
}

func (s *Server) handleEntryInfo(w http.ResponseWriter, r *http.Request) {
	entryType := chi.URLParam(r, "type")

	writeJSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"formats":     []string{"json"},
			"description": entryType + " entries",
			"properties": map[string]any{
				"id":   map[string]any{"description": "entry id", "sortable": true},
				"type": map[string]any{"description": "entry type"},
			},
			"output_fields_by_format": map[string][]string{"json": {"id", "type"}},
		},
		"meta": meta("/info/"+entryType, 1),
	})
}

func (s *Server) handleListing(w http.ResponseWriter, r *http.Request) {
	entryType := chi.URLParam(r, "type")
	entries := s.entries[entryType]

	data := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		data = append(data, resource(entry))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data": data,
		"meta": meta("/"+entryType, len(data)),
	})
}

func (s *Server) handleSingle(w http.ResponseWriter, r *http.Request) {
	entryType := chi.URLParam(r, "type")
	id := chi.URLParam(r, "id")

	for _, entry := range s.entries[entryType] {
		if entry.ID == id {
			writeJSON(w, http.StatusOK, map[string]any{
				"data": resource(entry),
				"meta": meta("/"+entryType+"/"+id, 1),
			})

			return
		}
	}

	writeJSON(w, http.StatusNotFound, map[string]any{
		"data": nil,
		"meta": meta("/"+entryType+"/"+id, 0),
	})
}

func resource(entry Entry) map[string]any {
	return map[string]any{
		"id":         entry.ID,
		"type":       entry.Type,
		"attributes": map[string]any{"last_modified": "2020-01-01T00:00:00Z"},
	}
}

func meta(representation string, returned int) map[string]any {
	return map[string]any{
		"query":               map[string]any{"representation": representation},
		"api_version":         "1.0.0",
		"more_data_available": false,
		"data_returned":       returned,
	}
}

func writeJSON(w http.ResponseWriter, status int, document any) {
	body, err := json.Marshal(document)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	writeRaw(w, status, body)
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
