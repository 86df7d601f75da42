package history

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ExportFormat represents the format for exporting records
type ExportFormat string

const (
	ExportFormatMarkdown ExportFormat = "markdown"
	ExportFormatJSON     ExportFormat = "json"
)

// ParseExportFormat accepts "markdown", "md" or "json"
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "md", "markdown":
		return ExportFormatMarkdown, nil
	case "json":
		return ExportFormatJSON, nil
	}
	return "", fmt.Errorf("unknown export format %q (valid: markdown, json)", s)
}

// ExportOptions configures how records are exported
type ExportOptions struct {
	Format          ExportFormat
	IncludeAttempts bool // List failed candidates before the one that answered
	IncludeSources  bool // List grounding sources when retrieval was used
}

// DefaultExportOptions returns the defaults for export
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		Format:          ExportFormatMarkdown,
		IncludeAttempts: false,
		IncludeSources:  true,
	}
}

// ExportToMarkdown exports a record to Markdown format
func (s *Store) ExportToMarkdown(id string) (string, error) {
	return s.ExportToMarkdownWithOptions(id, DefaultExportOptions())
}

// ExportToMarkdownWithOptions exports a record to Markdown with options
func (s *Store) ExportToMarkdownWithOptions(id string, opts ExportOptions) (string, error) {
	rec, err := s.Get(id)
	if err != nil {
		return "", err
	}
	return RecordMarkdown(rec, opts), nil
}

// RecordMarkdown renders a record as a standalone Markdown document
func RecordMarkdown(rec *Record, opts ExportOptions) string {
	var sb strings.Builder

	sb.WriteString("# ")
	sb.WriteString(rec.Title())
	sb.WriteString("\n\n")

	p := rec.Product
	fmt.Fprintf(&sb, "**HS Code:** %s\n", p.HSCode)
	if p.Material != "" {
		fmt.Fprintf(&sb, "**Material:** %s\n", p.Material)
	}
	fmt.Fprintf(&sb, "**Power:** %s\n", p.Power.Label())
	fmt.Fprintf(&sb, "**Target:** %s\n", p.Target.Label())
	model := rec.Model
	if rec.Retrieval {
		model += " (search grounded)"
	}
	fmt.Fprintf(&sb, "**Model:** %s\n", model)
	fmt.Fprintf(&sb, "**Created:** %s\n", rec.CreatedAt.Format("2006-01-02 15:04:05"))
	sb.WriteString("\n---\n\n")

	sb.WriteString(strings.TrimSpace(rec.Text))
	sb.WriteString("\n")

	if opts.IncludeSources && len(rec.GroundingSources) > 0 {
		sb.WriteString("\n## Sources\n\n")
		for _, src := range rec.GroundingSources {
			fmt.Fprintf(&sb, "- %s\n", src)
		}
	}

	if opts.IncludeAttempts && len(rec.Attempts) > 0 {
		sb.WriteString("\n## Failed candidates\n\n")
		for _, a := range rec.Attempts {
			label := a.Identifier
			if a.Retrieval {
				label += "+retrieval"
			}
			fmt.Fprintf(&sb, "- `%s` (%s): %s\n", label, a.Stage, a.Error)
		}
	}

	return sb.String()
}

// ExportToJSON exports a record to JSON format
func (s *Store) ExportToJSON(id string) ([]byte, error) {
	rec, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(rec, "", "  ")
}

// Export exports a record with the format in opts
func (s *Store) Export(id string, opts ExportOptions) ([]byte, error) {
	if opts.Format == ExportFormatJSON {
		return s.ExportToJSON(id)
	}
	md, err := s.ExportToMarkdownWithOptions(id, opts)
	if err != nil {
		return nil, err
	}
	return []byte(md), nil
}

// Search returns records whose product name, HS code or text contains query
func (s *Store) Search(query string, searchContent bool) ([]*Record, error) {
	records, err := s.List()
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	var out []*Record
	for _, rec := range records {
		if strings.Contains(strings.ToLower(rec.Product.Name), q) || strings.Contains(rec.Product.HSCode, q) {
			out = append(out, rec)
			continue
		}
		if searchContent && strings.Contains(strings.ToLower(rec.Text), q) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// FormatRelativeTime formats a time as a relative string like "2h ago" or "yesterday"
func FormatRelativeTime(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%d min ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 48*time.Hour:
		return "yesterday"
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%d days ago", int(diff.Hours()/24))
	case diff < 30*24*time.Hour:
		weeks := int(diff.Hours() / 24 / 7)
		if weeks == 1 {
			return "1 week ago"
		}
		return fmt.Sprintf("%d weeks ago", weeks)
	default:
		return t.Format("2006-01-02")
	}
}
