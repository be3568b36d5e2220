package ingest

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// blockTags start a new paragraph in the extracted text.
var blockTags = map[string]bool{
	"p": true, "div": true, "section": true, "article": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "tr": true, "br": true, "blockquote": true, "pre": true,
}

// ExtractText parses HTML and returns its visible text with block elements
// separated by blank lines. Script, style, and head content is dropped.
func ExtractText(r io.Reader) (string, error) {
	root, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "head", "noscript", "template":
				return
			}
			if blockTags[n.Data] {
				sb.WriteString("\n\n")
			}
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
					sb.WriteString(" ")
				}
				sb.WriteString(t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	// Collapse runs of blank lines left by nested block elements.
	lines := strings.Split(sb.String(), "\n")
	var out []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if len(out) > 0 && out[len(out)-1] == "" {
				continue
			}
			out = append(out, "")
			continue
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n")), nil
}
