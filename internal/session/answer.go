package session

import "strings"

// NormalizeAnswer splits a generated answer into lines, trims each line,
// drops empty lines, and removes any line whose trimmed form already
// appeared earlier, preserving first-occurrence order. Generation models
// occasionally repeat bullets verbatim; this keeps answers tight.
func NormalizeAnswer(raw string) string {
	seen := make(map[string]struct{})
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// DedupeSources removes exact-duplicate provenance entries while preserving
// first-occurrence order. Applied per turn over the union of all retrieval
// calls for that turn.
func DedupeSources(sources []string) []string {
	seen := make(map[string]struct{}, len(sources))
	var out []string
	for _, s := range sources {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
