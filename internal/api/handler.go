package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/arpel/helpdesk/internal/recordlog"
	"github.com/arpel/helpdesk/internal/retrieval"
)

const maxIngestBodySize = 10 << 20 // 10MB

// Searcher abstracts knowledge base search for the API layer.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]retrieval.Passage, error)
}

// RecordReader abstracts the session record logs.
type RecordReader interface {
	Read(collection string) []json.RawMessage
	Count(collection string) int
}

// Ingester abstracts knowledge base ingestion.
type Ingester interface {
	IngestText(ctx context.Context, source, text string) (int, error)
	IngestURL(ctx context.Context, rawURL string) (int, error)
}

// Counter reports the knowledge base size.
type Counter interface {
	Count() (int, error)
}

// Deps holds dependencies for the HTTP handler.
type Deps struct {
	KB       Searcher
	Records  RecordReader
	Ingestor Ingester
	Vectors  Counter
	TopK     int
}

// NewHandler builds the management router: health, knowledge base search,
// record log inspection, and ingestion.
func NewHandler(deps Deps) http.Handler {
	if deps.TopK <= 0 {
		deps.TopK = 5
	}

	r := chi.NewRouter()
	r.Get("/health", handleHealth(deps))
	r.Get("/search", handleSearch(deps))
	r.Get("/records/{collection}", handleListRecords(deps))
	r.Post("/ingest", handleIngest(deps))
	return r
}

func handleHealth(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chunks, err := deps.Vectors.Count()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "counting knowledge base: %v", err)
			return
		}

		counts := make(map[string]int, len(recordlog.Collections))
		for _, c := range recordlog.Collections {
			counts[c] = deps.Records.Count(c)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"kb_chunks": chunks,
			"records":   counts,
		})
	}
}

func handleSearch(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		if query == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "q is required")
			return
		}
		k := parseIntParam(r, "k", deps.TopK, 50)

		passages, err := deps.KB.Search(r.Context(), query, k)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "search failed: %v", err)
			return
		}

		type result struct {
			Text   string  `json:"text"`
			Source string  `json:"source"`
			Page   int     `json:"page"`
			Score  float32 `json:"score"`
		}
		results := make([]result, len(passages))
		for i, p := range passages {
			results[i] = result{Text: p.Text, Source: p.Source, Page: p.Page, Score: p.Score}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(results)
	}
}

func handleListRecords(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		collection := chi.URLParam(r, "collection")
		if !validCollection(collection) {
			httpError(w, http.StatusNotFound, "not_found", "unknown collection %q", collection)
			return
		}

		records := deps.Records.Read(collection)
		if records == nil {
			records = []json.RawMessage{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(records)
	}
}

// IngestRequest is the body of POST /ingest. Exactly one of content or url
// must be set; source names the content when it is inline.
type IngestRequest struct {
	Source  string `json:"source"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

func handleIngest(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxIngestBodySize)
		defer r.Body.Close()

		var req IngestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		var (
			n   int
			err error
		)
		switch {
		case req.URL != "":
			n, err = deps.Ingestor.IngestURL(r.Context(), req.URL)
		case req.Content != "":
			if req.Source == "" {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "source is required with inline content")
				return
			}
			n, err = deps.Ingestor.IngestText(r.Context(), req.Source, req.Content)
		default:
			httpError(w, http.StatusBadRequest, "invalid_request_error", "one of content or url is required")
			return
		}
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "ingest failed: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"status": "indexed", "chunks": n})
	}
}

func validCollection(name string) bool {
	for _, c := range recordlog.Collections {
		if c == name {
			return true
		}
	}
	return false
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
