package commands

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/compliancegen/internal/models"
)

var frameColors = []lipgloss.Color{
	lipgloss.Color("#48dbfb"),
	lipgloss.Color("#54a0ff"),
	lipgloss.Color("#5f27cd"),
	lipgloss.Color("#ff9ff3"),
	lipgloss.Color("#1dd1a1"),
}

var (
	colorText    = lipgloss.Color("#c0caf5")
	colorTextDim = lipgloss.Color("#565f89")
	colorSuccess = lipgloss.Color("#9ece6a")
	colorWarning = lipgloss.Color("#f7768e")
	colorPrimary = lipgloss.Color("#7aa2f7")
)

var (
	labelStyle   = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	textStyle    = lipgloss.NewStyle().Foreground(colorText)
	dimStyle     = lipgloss.NewStyle().Foreground(colorTextDim)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	warnStyle    = lipgloss.NewStyle().Foreground(colorWarning)
)

// progress is a single status line on stderr. It animates while the resolver
// runs and names the candidate currently being tried.
type progress struct {
	out   io.Writer
	label string
	anim  spinner.Spinner

	mu     sync.Mutex
	frame  int
	detail string

	quit chan struct{}
	done chan struct{}
	once sync.Once
}

func newProgress(out io.Writer, label string) *progress {
	return &progress{
		out:   out,
		label: label,
		anim:  spinner.Dot,
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// start hides the cursor and begins animating
func (p *progress) start() {
	p.mu.Lock()
	fmt.Fprint(p.out, "\033[?25l")
	p.draw()
	p.mu.Unlock()

	go func() {
		defer close(p.done)
		ticker := time.NewTicker(p.anim.FPS)
		defer ticker.Stop()

		for {
			select {
			case <-p.quit:
				p.mu.Lock()
				fmt.Fprint(p.out, "\r\033[K\033[?25h")
				p.mu.Unlock()
				return
			case <-ticker.C:
				p.mu.Lock()
				p.frame++
				p.draw()
				p.mu.Unlock()
			}
		}
	}()
}

// attempt matches resolver.AttemptFunc
func (p *progress) attempt(cand models.CandidateEndpoint, retrieval bool, n, total int) {
	id := cand.Identifier
	if retrieval {
		id += "+retrieval"
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.detail = fmt.Sprintf("trying %s (%d/%d)", id, n, total)
	p.draw()
}

// draw renders the current frame. Callers hold mu.
func (p *progress) draw() {
	frames := p.anim.Frames
	glyph := lipgloss.NewStyle().
		Foreground(frameColors[p.frame%len(frameColors)]).
		Bold(true).
		Render(frames[p.frame%len(frames)])

	line := glyph + " " + textStyle.Render(p.label)
	if p.detail != "" {
		line += dimStyle.Render(" · " + p.detail)
	}
	fmt.Fprint(p.out, "\r\033[K"+line)
}

// stop clears the line and restores the cursor. Safe to call twice.
func (p *progress) stop() {
	p.once.Do(func() { close(p.quit) })
	<-p.done
}

// succeed stops and prints a check mark line
func (p *progress) succeed(message string) {
	p.stop()
	mark := lipgloss.NewStyle().Foreground(colorSuccess).Bold(true).Render("✓")
	fmt.Fprintf(p.out, "%s %s\n", mark, successStyle.Render(message))
}
