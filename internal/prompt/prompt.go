package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var complianceTemplate = template.Must(template.ParseFS(templateFS, "templates/compliance.tmpl"))

// Build validates p and renders the compliance prompt
func Build(p Product) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	p = p.Normalize()
	if p.Material == "" {
		p.Material = "未注明"
	}

	var buf bytes.Buffer
	if err := complianceTemplate.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return strings.TrimSpace(buf.String()) + "\n", nil
}
