package recordlog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

type testRecord struct {
	ID   string `json:"id"`
	Note string `json:"note"`
}

func TestAppend_CreatesCollection(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := s.Append(CollectionFAQ, testRecord{ID: "F1", Note: "first"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	records := s.Read(CollectionFAQ)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	var r testRecord
	if err := json.Unmarshal(records[0], &r); err != nil {
		t.Fatalf("unmarshalling record: %v", err)
	}
	if r.ID != "F1" {
		t.Errorf("ID = %q, want F1", r.ID)
	}
}

func TestAppend_PreservesExistingRecords(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	for _, id := range []string{"T1", "T2", "T3"} {
		if err := s.Append(CollectionTicketAI, testRecord{ID: id}); err != nil {
			t.Fatalf("Append(%s): %v", id, err)
		}
	}

	records := s.Read(CollectionTicketAI)
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}

	// Append order must be preserved.
	for i, want := range []string{"T1", "T2", "T3"} {
		var r testRecord
		if err := json.Unmarshal(records[i], &r); err != nil {
			t.Fatal(err)
		}
		if r.ID != want {
			t.Errorf("records[%d].ID = %q, want %q", i, r.ID, want)
		}
	}
}

func TestRead_MissingCollectionIsEmpty(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if records := s.Read(CollectionEscalations); len(records) != 0 {
		t.Errorf("got %d records from missing collection, want 0", len(records))
	}
}

func TestRead_CorruptCollectionIsEmpty(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	path := filepath.Join(dir, CollectionFAQ+".json")
	if err := os.WriteFile(path, []byte("{{{ not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if records := s.Read(CollectionFAQ); len(records) != 0 {
		t.Errorf("got %d records from corrupt collection, want 0", len(records))
	}
}

func TestAppend_AfterCorruptionKeepsOnlyNewRecord(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	path := filepath.Join(dir, CollectionTicketAI+".json")
	if err := os.WriteFile(path, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := s.Append(CollectionTicketAI, testRecord{ID: "T9"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	records := s.Read(CollectionTicketAI)
	if len(records) != 1 {
		t.Fatalf("got %d records, want exactly 1 (the new one)", len(records))
	}
	var r testRecord
	if err := json.Unmarshal(records[0], &r); err != nil {
		t.Fatal(err)
	}
	if r.ID != "T9" {
		t.Errorf("ID = %q, want T9", r.ID)
	}
}

func TestRead_SingleObjectWrappedAsArray(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	path := filepath.Join(dir, CollectionFAQ+".json")
	if err := os.WriteFile(path, []byte(`{"id":"F7"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	records := s.Read(CollectionFAQ)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	if err := s.Append(CollectionFAQ, testRecord{ID: "F8"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if got := s.Count(CollectionFAQ); got != 2 {
		t.Errorf("Count = %d, want 2", got)
	}
}

func TestRead_SingleScalarWrappedAsArray(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	path := filepath.Join(dir, CollectionTicketAI+".json")
	if err := os.WriteFile(path, []byte(`"migration note"`), 0o644); err != nil {
		t.Fatal(err)
	}

	records := s.Read(CollectionTicketAI)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	var note string
	if err := json.Unmarshal(records[0], &note); err != nil {
		t.Fatal(err)
	}
	if note != "migration note" {
		t.Errorf("record = %q, want the original value preserved", note)
	}

	// The value survives a subsequent append instead of being discarded.
	if err := s.Append(CollectionTicketAI, testRecord{ID: "T4"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if got := s.Count(CollectionTicketAI); got != 2 {
		t.Errorf("Count = %d, want 2", got)
	}
}

func TestCollections_AreIndependent(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	// Corrupt one collection; the others must be unaffected.
	if err := os.WriteFile(filepath.Join(dir, CollectionFAQ+".json"), []byte("bad"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Append(CollectionEscalations, testRecord{ID: "E1"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if got := s.Count(CollectionEscalations); got != 1 {
		t.Errorf("escalations count = %d, want 1", got)
	}
	if got := s.Count(CollectionFAQ); got != 0 {
		t.Errorf("faq count = %d, want 0", got)
	}
}
