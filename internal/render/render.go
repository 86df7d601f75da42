package render

import (
	"strings"
)

// Markdown renders markdown content for terminal display using a pooled renderer.
func Markdown(content string, opts Options) (string, error) {
	renderer, err := renderers.take(opts)
	if err != nil {
		return "", err
	}
	defer renderers.give(opts, renderer)

	return renderer.Render(content)
}

// Document renders a generated document, falling back to the raw text when
// rendering fails so the result is never lost.
func Document(text string, opts Options) string {
	out, err := Markdown(text, opts)
	if err != nil || strings.TrimSpace(out) == "" {
		return text
	}
	return out
}

// Sources renders grounding URIs as a markdown list appended to a document
func Sources(uris []string) string {
	if len(uris) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\n\n---\n\n**Sources**\n\n")
	for _, u := range uris {
		sb.WriteString("- ")
		sb.WriteString(u)
		sb.WriteString("\n")
	}
	return sb.String()
}
