// Package document extracts text from user-supplied files and builds
// ephemeral in-memory retrieval indexes over them.
package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Chunk is one extracted piece of document text with its page number.
// Plain-text files carry page 1 for every chunk.
type Chunk struct {
	Text string
	Page int
}

// Load extracts text chunks from the file at path. PDF files are split per
// page and then by paragraph; any other file is treated as plain text.
func Load(path string) ([]Chunk, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("opening document: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory, not a document", path)
	}

	var chunks []Chunk
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		chunks, err = loadPDF(path)
	} else {
		chunks, err = loadText(path)
	}
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("document %s contains no extractable text", path)
	}
	return chunks, nil
}

func loadPDF(path string) ([]Chunk, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("parsing PDF: %w", err)
	}
	defer f.Close()

	var chunks []Chunk
	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extracting text from page %d: %w", pageNum, err)
		}
		for _, piece := range SplitText(text, defaultChunkSize) {
			chunks = append(chunks, Chunk{Text: piece, Page: pageNum})
		}
	}
	return chunks, nil
}

func loadText(path string) ([]Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}

	var chunks []Chunk
	for _, piece := range SplitText(string(data), defaultChunkSize) {
		chunks = append(chunks, Chunk{Text: piece, Page: 1})
	}
	return chunks, nil
}
