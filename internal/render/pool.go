package render

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

// maxIdle bounds the idle renderers kept for one option set
const maxIdle = 4

// pool hands out glamour renderers keyed by Options.
// A TermRenderer is not safe for concurrent Render calls, so each caller
// takes one for the duration of a render and gives it back afterwards.
type pool struct {
	mu   sync.Mutex
	idle map[Options][]*glamour.TermRenderer
}

var renderers = &pool{idle: make(map[Options][]*glamour.TermRenderer)}

func (p *pool) take(opts Options) (*glamour.TermRenderer, error) {
	p.mu.Lock()
	list := p.idle[opts]
	if n := len(list); n > 0 {
		r := list[n-1]
		p.idle[opts] = list[:n-1]
		p.mu.Unlock()
		return r, nil
	}
	p.mu.Unlock()

	return newRenderer(opts)
}

func (p *pool) give(opts Options, r *glamour.TermRenderer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.idle[opts]) < maxIdle {
		p.idle[opts] = append(p.idle[opts], r)
	}
}

func newRenderer(opts Options) (*glamour.TermRenderer, error) {
	rendererOpts := []glamour.TermRendererOption{
		glamour.WithStylePath(opts.Style),
		glamour.WithWordWrap(opts.Width),
		glamour.WithTableWrap(opts.TableWrap),
		glamour.WithInlineTableLinks(opts.InlineTableLinks),
	}
	if opts.EnableEmoji {
		rendererOpts = append(rendererOpts, glamour.WithEmoji())
	}
	if opts.PreserveNewLines {
		rendererOpts = append(rendererOpts, glamour.WithPreservedNewLines())
	}

	return glamour.NewTermRenderer(rendererOpts...)
}

// ResetPool drops all idle renderers
func ResetPool() {
	renderers.mu.Lock()
	renderers.idle = make(map[Options][]*glamour.TermRenderer)
	renderers.mu.Unlock()
}

// PooledConfigs returns how many option sets have idle renderers
func PooledConfigs() int {
	renderers.mu.Lock()
	defer renderers.mu.Unlock()
	return len(renderers.idle)
}
