package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/arpel/helpdesk/internal/document"
	"github.com/arpel/helpdesk/internal/retrieval"
)

const maxURLFetchSize = 5 << 20 // 5MB

// ContentEmbedder generates embeddings for a batch of texts.
type ContentEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorInserter inserts records into the knowledge base vector store.
type VectorInserter interface {
	Insert(records []retrieval.Record) error
}

// Ingestor loads support content into the knowledge base. Files and PDFs keep
// their page provenance; raw text and URLs index as single-page sources.
type Ingestor struct {
	embedder ContentEmbedder
	vectors  VectorInserter
	client   *http.Client
	logger   *slog.Logger
}

// New creates an Ingestor. A nil client gets a 15s-timeout default.
func New(embedder ContentEmbedder, vectors VectorInserter, client *http.Client) *Ingestor {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Ingestor{
		embedder: embedder,
		vectors:  vectors,
		client:   client,
		logger:   slog.Default(),
	}
}

// IngestFile loads a text or PDF file and indexes its chunks. Returns the
// number of chunks indexed.
func (in *Ingestor) IngestFile(ctx context.Context, path string) (int, error) {
	chunks, err := document.Load(path)
	if err != nil {
		return 0, fmt.Errorf("loading %s: %w", path, err)
	}
	return in.index(ctx, filepath.Base(path), chunks)
}

// IngestText indexes raw text under the given source name.
func (in *Ingestor) IngestText(ctx context.Context, source, text string) (int, error) {
	pieces := document.SplitText(text, 0)
	chunks := make([]document.Chunk, len(pieces))
	for i, p := range pieces {
		chunks[i] = document.Chunk{Text: p, Page: 1}
	}
	return in.index(ctx, source, chunks)
}

// IngestURL fetches a page, strips its markup, and indexes the text under
// the URL as source.
func (in *Ingestor) IngestURL(ctx context.Context, rawURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("invalid url: %w", err)
	}
	resp, err := in.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("fetching %s: status %d", rawURL, resp.StatusCode)
	}

	text, err := ExtractText(io.LimitReader(resp.Body, maxURLFetchSize))
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", rawURL, err)
	}
	if text == "" {
		return 0, fmt.Errorf("no text content at %s", rawURL)
	}

	return in.IngestText(ctx, rawURL, text)
}

func (in *Ingestor) index(ctx context.Context, source string, chunks []document.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, fmt.Errorf("%s: no indexable text", source)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := in.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding %s: %w", source, err)
	}

	now := time.Now().UTC()
	records := make([]retrieval.Record, len(chunks))
	for i, c := range chunks {
		records[i] = retrieval.Record{
			ID:        uuid.New().String(),
			Source:    source,
			Page:      c.Page,
			Text:      c.Text,
			Embedding: vectors[i],
			CreatedAt: now,
		}
	}
	if err := in.vectors.Insert(records); err != nil {
		return 0, fmt.Errorf("storing %s: %w", source, err)
	}

	in.logger.Info("ingested source", "source", source, "chunks", len(records))
	return len(records), nil
}
