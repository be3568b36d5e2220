// Package recordlog persists session records as append-only JSON
// collections, one file per record kind.
package recordlog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Collection keys. Each maps to an independent file; a failure reading one
// never affects another.
const (
	CollectionFAQ         = "faq_sessions"
	CollectionTicketAI    = "ticket_ai"
	CollectionEscalations = "ticket_escalations"
)

// Collections lists all known collection keys.
var Collections = []string{CollectionFAQ, CollectionTicketAI, CollectionEscalations}

// Store persists records as JSON arrays, rewriting the whole collection on
// every append. A missing or unreadable collection is treated as empty so an
// append always succeeds; the rewrite goes through a temp file and rename so
// an interrupted write never loses records already present.
type Store struct {
	dir    string
	logger *slog.Logger
}

// Open creates a Store rooted at dir, creating the directory if needed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating record directory: %w", err)
	}
	return &Store{dir: dir, logger: slog.Default()}, nil
}

func (s *Store) path(collection string) string {
	return filepath.Join(s.dir, collection+".json")
}

// Read returns all records in the collection. Absent or corrupt content
// yields an empty collection, never an error: availability is preferred over
// recovering unreadable history.
func (s *Store) Read(collection string) []json.RawMessage {
	data, err := os.ReadFile(s.path(collection))
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("could not read record collection, treating as empty",
				"collection", collection, "error", err)
		}
		return nil
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err == nil {
		return records
	}

	// A previous writer may have stored a single value instead of an array;
	// any valid non-array JSON is preserved as a one-element collection.
	var single json.RawMessage
	if err := json.Unmarshal(data, &single); err == nil {
		return []json.RawMessage{single}
	}

	s.logger.Warn("record collection is corrupt, treating as empty", "collection", collection)
	return nil
}

// Append adds one record to the collection and rewrites the whole file.
func (s *Store) Append(collection string, record any) error {
	entry, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshalling record: %w", err)
	}

	records := append(s.Read(collection), json.RawMessage(entry))

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling collection %s: %w", collection, err)
	}

	return s.writeAtomic(collection, data)
}

// writeAtomic writes data to the collection file via a temp file and rename,
// so readers never observe a truncated collection.
func (s *Store) writeAtomic(collection string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, collection+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing collection %s: %w", collection, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path(collection)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing collection %s: %w", collection, err)
	}
	return nil
}

// Count returns the number of records in the collection.
func (s *Store) Count(collection string) int {
	return len(s.Read(collection))
}
