package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/arpel/helpdesk/internal/retrieval"
)

// --- mocks ---

type mockSearcher struct {
	passages []retrieval.Passage
	gotK     int
	err      error
}

func (m *mockSearcher) Search(_ context.Context, _ string, k int) ([]retrieval.Passage, error) {
	m.gotK = k
	return m.passages, m.err
}

type mockRecords struct {
	data map[string][]json.RawMessage
}

func (m *mockRecords) Read(collection string) []json.RawMessage {
	return m.data[collection]
}

func (m *mockRecords) Count(collection string) int {
	return len(m.data[collection])
}

type mockIngester struct {
	source  string
	content string
	url     string
	n       int
	err     error
}

func (m *mockIngester) IngestText(_ context.Context, source, text string) (int, error) {
	m.source, m.content = source, text
	return m.n, m.err
}

func (m *mockIngester) IngestURL(_ context.Context, rawURL string) (int, error) {
	m.url = rawURL
	return m.n, m.err
}

type mockCounter struct{ n int }

func (m *mockCounter) Count() (int, error) { return m.n, nil }

func testHandlerDeps() Deps {
	return Deps{
		KB:       &mockSearcher{},
		Records:  &mockRecords{data: map[string][]json.RawMessage{}},
		Ingestor: &mockIngester{n: 1},
		Vectors:  &mockCounter{n: 42},
		TopK:     5,
	}
}

// --- tests ---

func TestHealth(t *testing.T) {
	deps := testHandlerDeps()
	deps.Records.(*mockRecords).data["faq_sessions"] = []json.RawMessage{[]byte("{}")}

	rec := httptest.NewRecorder()
	NewHandler(deps).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Status   string         `json:"status"`
		KBChunks int            `json:"kb_chunks"`
		Records  map[string]int `json:"records"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Status != "ok" || body.KBChunks != 42 {
		t.Errorf("unexpected body: %+v", body)
	}
	if body.Records["faq_sessions"] != 1 || body.Records["ticket_ai"] != 0 {
		t.Errorf("record counts: %v", body.Records)
	}
}

func TestSearch(t *testing.T) {
	deps := testHandlerDeps()
	searcher := &mockSearcher{passages: []retrieval.Passage{
		{Text: "reset via portal", Source: "it-guide.pdf", Page: 2, Score: 0.9},
	}}
	deps.KB = searcher

	rec := httptest.NewRecorder()
	NewHandler(deps).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search?q=password&k=3", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	if searcher.gotK != 3 {
		t.Errorf("k = %d, want 3", searcher.gotK)
	}
	if !strings.Contains(rec.Body.String(), "it-guide.pdf") {
		t.Errorf("provenance missing: %s", rec.Body.String())
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHandler(testHandlerDeps()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestListRecords(t *testing.T) {
	deps := testHandlerDeps()
	deps.Records.(*mockRecords).data["ticket_ai"] = []json.RawMessage{
		[]byte(`{"ticket_id":"T1a2b"}`),
	}

	rec := httptest.NewRecorder()
	NewHandler(deps).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/records/ticket_ai", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var records []json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected 1 record, got %d", len(records))
	}
}

func TestListRecordsUnknownCollection(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHandler(testHandlerDeps()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/records/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestListRecordsEmptyIsArray(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHandler(testHandlerDeps()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/records/faq_sessions", nil))
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("body = %q, want []", got)
	}
}

func TestIngestInlineContent(t *testing.T) {
	deps := testHandlerDeps()
	ing := deps.Ingestor.(*mockIngester)
	ing.n = 3

	body := strings.NewReader(`{"source":"wiki","content":"some support text"}`)
	rec := httptest.NewRecorder()
	NewHandler(deps).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ingest", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	if ing.source != "wiki" || ing.content != "some support text" {
		t.Errorf("ingester got %q/%q", ing.source, ing.content)
	}
	if !strings.Contains(rec.Body.String(), `"chunks":3`) {
		t.Errorf("chunk count missing: %s", rec.Body.String())
	}
}

func TestIngestRequiresContentOrURL(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHandler(testHandlerDeps()).ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost, "/ingest", strings.NewReader(`{}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
