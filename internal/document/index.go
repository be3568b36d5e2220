package document

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/arpel/helpdesk/internal/retrieval"
)

// BuildIndex loads the document at path, embeds its chunks, and returns an
// in-memory retrieval index over them. The index lives only as long as the
// calling workflow; nothing is persisted.
func BuildIndex(ctx context.Context, embedder *retrieval.Embedder, path string) (retrieval.Index, error) {
	chunks, err := Load(path)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding document chunks: %w", err)
	}

	source := filepath.Base(path)
	records := make([]retrieval.Record, len(chunks))
	for i, c := range chunks {
		records[i] = retrieval.Record{
			ID:        uuid.New().String(),
			Source:    source,
			Page:      c.Page,
			Text:      c.Text,
			Embedding: vectors[i],
			CreatedAt: time.Now().UTC(),
		}
	}

	store := retrieval.NewMemoryStore()
	if err := store.Insert(records); err != nil {
		return nil, fmt.Errorf("building document index: %w", err)
	}

	return retrieval.NewRetriever(embedder, store), nil
}
