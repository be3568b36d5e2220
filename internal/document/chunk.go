package document

import "strings"

const defaultChunkSize = 1200

// SplitText splits text into chunks of at most maxChars characters,
// preferring paragraph boundaries. Paragraphs longer than maxChars are cut
// at the limit. Empty paragraphs are dropped.
func SplitText(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = defaultChunkSize
	}

	paragraphs := strings.Split(text, "\n\n")

	var chunks []string
	var current strings.Builder

	flush := func() {
		s := strings.TrimSpace(current.String())
		if s != "" {
			chunks = append(chunks, s)
		}
		current.Reset()
	}

	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		// Hard-cut paragraphs that alone exceed the limit.
		for len(p) > maxChars {
			flush()
			chunks = append(chunks, strings.TrimSpace(p[:maxChars]))
			p = strings.TrimSpace(p[maxChars:])
		}
		if p == "" {
			continue
		}

		if current.Len() > 0 && current.Len()+len(p)+2 > maxChars {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(p)
	}
	flush()

	return chunks
}
