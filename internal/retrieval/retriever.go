package retrieval

import "context"

// Compile-time check that Retriever implements Index.
var _ Index = (*Retriever)(nil)

// Retriever combines embedding and vector search into an Index. It is the
// concrete Retrieval Index handed to the session workflows.
type Retriever struct {
	embedder *Embedder
	store    VectorStore
}

// NewRetriever creates a Retriever backed by the given Embedder and VectorStore.
func NewRetriever(embedder *Embedder, store VectorStore) *Retriever {
	return &Retriever{embedder: embedder, store: store}
}

// Search embeds the query and returns the top-k most similar passages.
func (r *Retriever) Search(ctx context.Context, query string, k int) ([]Passage, error) {
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	scored, err := r.store.Search(vec, k)
	if err != nil {
		return nil, err
	}

	passages := make([]Passage, len(scored))
	for i, s := range scored {
		passages[i] = Passage{
			Text:   s.Text,
			Source: s.Source,
			Page:   s.Page,
			Score:  s.Score,
		}
	}
	return passages, nil
}
