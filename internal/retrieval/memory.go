package retrieval

import "container/heap"

// Compile-time check that MemoryStore implements VectorStore.
var _ VectorStore = (*MemoryStore)(nil)

// MemoryStore is an in-process VectorStore used for ephemeral document
// indexes built from a user-supplied file. It lives only for the duration of
// one session workflow and is never persisted.
type MemoryStore struct {
	records []Record
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Insert appends records to the store.
func (m *MemoryStore) Insert(records []Record) error {
	m.records = append(m.records, records...)
	return nil
}

// Search performs brute-force cosine similarity search over all records.
func (m *MemoryStore) Search(vector []float32, topK int) ([]ScoredRecord, error) {
	queryNorm := norm(vector)
	if queryNorm == 0 || len(m.records) == 0 {
		return nil, nil
	}

	h := &idScoreHeap{}
	heap.Init(h)
	byID := make(map[string]Record, len(m.records))

	for _, r := range m.records {
		byID[r.ID] = r
		score := dotProduct(vector, r.Embedding, queryNorm)
		if h.Len() < topK {
			heap.Push(h, idScore{ID: r.ID, Score: score})
		} else if score > (*h)[0].Score {
			(*h)[0] = idScore{ID: r.ID, Score: score}
			heap.Fix(h, 0)
		}
	}

	results := make([]ScoredRecord, h.Len())
	for i := len(results) - 1; i >= 0; i-- {
		item := heap.Pop(h).(idScore)
		results[i] = ScoredRecord{Record: byID[item.ID], Score: item.Score}
	}
	return results, nil
}

// Count returns the number of stored records.
func (m *MemoryStore) Count() (int, error) {
	return len(m.records), nil
}
