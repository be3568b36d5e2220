package retrieval

import (
	"context"
	"fmt"
	"time"
)

// Passage is a retrieved text fragment with its provenance.
type Passage struct {
	Text   string
	Source string
	Page   int
	Score  float32
}

// Provenance renders the passage origin as "source (pN)". Missing source
// metadata defaults to "unknown" so downstream records always carry a
// non-empty provenance string.
func (p Passage) Provenance() string {
	source := p.Source
	if source == "" {
		source = "unknown"
	}
	return fmt.Sprintf("%s (p%d)", source, p.Page)
}

// Index is a searchable store of passages returning the top-k matches for a
// query. The knowledge base and ad-hoc document indexes both implement it.
type Index interface {
	Search(ctx context.Context, query string, k int) ([]Passage, error)
}

// Record represents a stored chunk with its embedding.
type Record struct {
	ID        string
	Source    string
	Page      int
	Text      string
	Embedding []float32
	CreatedAt time.Time
}

// ScoredRecord is a Record with a similarity score attached.
type ScoredRecord struct {
	Record
	Score float32
}

// VectorStore is the interface for vector storage and similarity search
// backends. The knowledge base uses SQLite with brute-force cosine
// similarity; ephemeral document indexes use an in-memory implementation.
type VectorStore interface {
	// Insert adds records to the store.
	Insert(records []Record) error

	// Search performs vector similarity search, returning the top-K most
	// similar records ordered by score descending.
	Search(vector []float32, topK int) ([]ScoredRecord, error)

	// Count returns the number of stored records.
	Count() (int, error)
}
