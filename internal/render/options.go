// Package render converts generated Markdown documents for terminal output.
package render

import (
	"os"

	"github.com/diogo/compliancegen/internal/config"
)

// Styles accepted by glamour without a JSON theme file
var builtinStyles = []string{"dark", "light", "dracula", "tokyo-night", "pink", "notty", "ascii"}

// Options configures the markdown renderer behavior.
type Options struct {
	// Width defines the maximum output width (default: 100)
	Width int

	// Style is a glamour style name or a path to a JSON style file
	Style string

	EnableEmoji      bool
	PreserveNewLines bool

	// TableWrap wraps table cells; the packaging copy tables are wide
	TableWrap        bool
	InlineTableLinks bool
}

// DefaultOptions returns the default configuration.
func DefaultOptions() Options {
	return Options{
		Width:            100,
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
	}
}

// WithWidth returns Options with the specified width.
func (o Options) WithWidth(width int) Options {
	if width > 0 {
		o.Width = width
	}
	return o
}

// WithStyle returns Options with the specified style.
func (o Options) WithStyle(style string) Options {
	if style != "" {
		o.Style = style
	}
	return o
}

// FromConfig builds options from the markdown section of the config.
// GLAMOUR_STYLE overrides the configured style.
func FromConfig(md config.MarkdownConfig, width int) Options {
	opts := DefaultOptions().WithStyle(md.Style).WithWidth(width)
	opts.EnableEmoji = md.EnableEmoji
	opts.PreserveNewLines = md.PreserveNewLines
	opts.TableWrap = md.TableWrap
	opts.InlineTableLinks = md.InlineTableLinks

	if style := os.Getenv("GLAMOUR_STYLE"); style != "" {
		opts.Style = style
	}
	return opts
}

// IsBuiltinStyle reports whether style names a glamour built-in style
func IsBuiltinStyle(style string) bool {
	for _, s := range builtinStyles {
		if s == style {
			return true
		}
	}
	return false
}

// StyleNames returns the built-in style names
func StyleNames() []string {
	return append([]string(nil), builtinStyles...)
}
