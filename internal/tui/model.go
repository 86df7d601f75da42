package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	apierrors "github.com/diogo/compliancegen/internal/errors"
	"github.com/diogo/compliancegen/internal/models"
	"github.com/diogo/compliancegen/internal/prompt"
	"github.com/diogo/compliancegen/internal/render"
)

// GenerateFunc runs one resolution for a validated product
type GenerateFunc func(ctx context.Context, p prompt.Product) (*models.GenerationResult, error)

// Options configures the form model
type Options struct {
	Generate GenerateFunc
	Render   render.Options
	// Clipboard writes text to the system clipboard; defaults to clipboard.WriteAll
	Clipboard func(string) error
	// AutoCopy copies every successful result
	AutoCopy bool
	// Subtitle is shown next to the title, typically the first candidate
	Subtitle string
}

type state int

const (
	stateForm state = iota
	stateLoading
	stateResult
)

// form fields in focus order
const (
	fieldName = iota
	fieldHSCode
	fieldMaterial
	fieldPower
	fieldTarget
	fieldSubmit
	fieldCount
)

type generatedMsg struct {
	seq    int
	result *models.GenerationResult
	err    error
}

// Model is the bubbletea model of the product form
type Model struct {
	opts Options

	inputs  []textinput.Model
	power   int
	target  int
	focus   int
	spinner spinner.Model
	vp      viewport.Model

	state      state
	seq        int
	cancel     context.CancelFunc
	result     *models.GenerationResult
	err        error
	validation string
	notice     string

	ready  bool
	width  int
	height int
}

// NewModel creates the form model
func NewModel(opts Options) Model {
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}
	if opts.Render.Width == 0 {
		opts.Render = render.DefaultOptions()
	}

	placeholders := []string{"如：Tritan运动水杯", "392410", "如：Tritan杯身, PP盖子, 硅胶圈"}
	inputs := make([]textinput.Model, len(placeholders))
	for i, ph := range placeholders {
		ti := textinput.New()
		ti.Placeholder = ph
		ti.CharLimit = 200
		ti.Width = 48
		ti.PromptStyle = lipgloss.NewStyle().Foreground(colorAccent)
		ti.TextStyle = lipgloss.NewStyle().Foreground(colorText)
		ti.PlaceholderStyle = lipgloss.NewStyle().Foreground(colorTextMute)
		inputs[i] = ti
	}
	inputs[fieldName].Focus()

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	return Model{
		opts:    opts,
		inputs:  inputs,
		spinner: s,
		vp:      viewport.New(80, 20),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Product returns the product described by the current form values
func (m Model) Product() prompt.Product {
	return prompt.Product{
		Name:     m.inputs[fieldName].Value(),
		HSCode:   m.inputs[fieldHSCode].Value(),
		Material: m.inputs[fieldMaterial].Value(),
		Power:    prompt.Powers()[m.power],
		Target:   prompt.Targets()[m.target],
	}.Normalize()
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case generatedMsg:
		if msg.seq != m.seq || m.state != stateLoading {
			return m, nil // stale result of a cancelled run
		}
		m.cancel = nil
		if msg.err != nil {
			m.state = stateForm
			m.err = msg.err
			return m, nil
		}
		m.state = stateResult
		m.result = msg.result
		m.err = nil
		m.notice = ""
		if m.opts.AutoCopy {
			m.copyResult()
		}
		m.refreshResult()
		return m, nil

	case spinner.TickMsg:
		if m.state != stateLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.state {
		case stateLoading:
			return m.updateLoading(msg)
		case stateResult:
			return m.updateResult(msg)
		default:
			return m.updateForm(msg)
		}
	}

	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "enter":
		return m.submit()
	case "tab", "down":
		m.setFocus((m.focus + 1) % fieldCount)
		return m, nil
	case "shift+tab", "up":
		m.setFocus((m.focus + fieldCount - 1) % fieldCount)
		return m, nil
	}

	switch m.focus {
	case fieldPower:
		m.power = cycle(m.power, len(prompt.Powers()), msg.String())
		return m, nil
	case fieldTarget:
		m.target = cycle(m.target, len(prompt.Targets()), msg.String())
		return m, nil
	case fieldSubmit:
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	m.validation = ""
	return m, cmd
}

func (m Model) updateLoading(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.stop()
		return m, tea.Quit
	case "esc":
		m.stop()
		m.state = stateForm
		m.notice = "Generation cancelled"
	}
	// Further submits are ignored while a run is in flight
	return m, nil
}

func (m Model) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "c":
		m.copyResult()
		m.refreshResult()
		return m, nil
	case "n":
		m.reset()
		return m, textinput.Blink
	case "esc":
		m.state = stateForm
		m.notice = ""
		return m, nil
	}

	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	p := m.Product()
	if err := p.Validate(); err != nil {
		m.validation = FormatValidation(err)
		return m, nil
	}
	if m.opts.Generate == nil {
		m.validation = "no generator configured"
		return m, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.seq++
	m.cancel = cancel
	m.state = stateLoading
	m.err = nil
	m.validation = ""
	m.notice = ""

	seq := m.seq
	generate := m.opts.Generate
	run := func() tea.Msg {
		defer cancel()
		res, err := generate(ctx, p)
		return generatedMsg{seq: seq, result: res, err: err}
	}
	return m, tea.Batch(run, m.spinner.Tick)
}

func (m *Model) stop() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

func (m *Model) reset() {
	for i := range m.inputs {
		m.inputs[i].Reset()
	}
	m.power, m.target = 0, 0
	m.setFocus(fieldName)
	m.state = stateForm
	m.result = nil
	m.err = nil
	m.validation = ""
	m.notice = ""
}

func (m *Model) setFocus(i int) {
	m.focus = i
	for j := range m.inputs {
		if j == i {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
}

func (m *Model) copyResult() {
	if m.result == nil {
		return
	}
	if err := m.opts.Clipboard(m.result.Text); err != nil {
		m.notice = fmt.Sprintf("Copy failed: %v", err)
		return
	}
	m.notice = "Copied to clipboard"
}

func (m *Model) resize() {
	contentWidth := m.width - 4
	if contentWidth < 20 {
		contentWidth = 20
	}
	vpHeight := m.height - 8
	if vpHeight < 5 {
		vpHeight = 5
	}
	m.vp.Width = contentWidth
	m.vp.Height = vpHeight
	for i := range m.inputs {
		m.inputs[i].Width = min(contentWidth-20, 60)
	}
	m.ready = true
	if m.state == stateResult {
		m.refreshResult()
	}
}

func (m *Model) refreshResult() {
	if m.result == nil {
		return
	}
	doc := m.result.Text + render.Sources(m.result.GroundingSources)
	m.vp.SetContent(render.Document(doc, m.opts.Render.WithWidth(m.vp.Width-2)))
}

// cycle moves a selector index with left/right or space
func cycle(i, n int, key string) int {
	switch key {
	case "right", "l", " ":
		return (i + 1) % n
	case "left", "h":
		return (i + n - 1) % n
	}
	return i
}

// View renders the TUI
func (m Model) View() string {
	var sections []string

	header := lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render("Italy Compliance"),
		subtitleStyle.Render("  •  "+m.subtitle()),
	)
	sections = append(sections, headerStyle.Render(header))

	switch m.state {
	case stateResult:
		sections = append(sections, m.vp.View())
		sections = append(sections, m.renderStatusBar([][2]string{
			{"c", "Copy"}, {"n", "New"}, {"Esc", "Edit"}, {"↑↓", "Scroll"}, {"q", "Quit"},
		}))
	case stateLoading:
		sections = append(sections, panelStyle.Render(m.renderForm()))
		sections = append(sections, loadingStyle.Render(m.spinner.View()+" Preparing delivery documents..."))
		sections = append(sections, m.renderStatusBar([][2]string{{"Esc", "Cancel"}, {"Ctrl+C", "Quit"}}))
	default:
		sections = append(sections, panelStyle.Render(m.renderForm()))
		if m.validation != "" {
			sections = append(sections, validationStyle.Render("⚠ "+m.validation))
		}
		if m.err != nil {
			sections = append(sections, FormatError(m.err))
		}
		sections = append(sections, m.renderStatusBar([][2]string{
			{"Enter", "Generate"}, {"Tab", "Next"}, {"←→", "Choose"}, {"Esc", "Quit"},
		}))
	}

	if m.notice != "" {
		sections = append(sections, noticeStyle.Render(m.notice))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) subtitle() string {
	if m.state == stateResult && m.result != nil {
		s := m.result.Model
		if m.result.Retrieval {
			s += " (search grounded)"
		}
		if n := len(m.result.Attempts); n > 0 {
			s += fmt.Sprintf(" after %d failed attempt(s)", n)
		}
		return s
	}
	if m.opts.Subtitle != "" {
		return m.opts.Subtitle
	}
	return "packaging & GPSR documents"
}

func (m Model) renderForm() string {
	labels := []string{"产品名称", "HS Code", "材质成分", "供电情况", "适用人群"}
	var rows []string

	for i, label := range labels {
		ls := labelStyle
		if m.focus == i {
			ls = focusedLabelStyle
		}
		l := ls.Render(label)
		if i == fieldName || i == fieldHSCode {
			l += requiredStyle.Render("*")
		} else {
			l += " "
		}

		var value string
		switch i {
		case fieldPower:
			value = renderOptions(powerLabels(), m.power)
		case fieldTarget:
			value = renderOptions(targetLabels(), m.target)
		default:
			value = m.inputs[i].View()
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, l, " ", value))
		if i == fieldHSCode {
			rows = append(rows, hintStyle.Render("  🔍 HS Code 查询: "+prompt.HSLookupURL))
		}
	}

	btn := buttonStyle
	if m.focus == fieldSubmit {
		btn = focusedButtonStyle
	}
	rows = append(rows, "", btn.Render("生成交付方案"))

	return strings.Join(rows, "\n")
}

func (m Model) renderStatusBar(shortcuts [][2]string) string {
	items := make([]string, 0, len(shortcuts))
	for _, s := range shortcuts {
		items = append(items, statusKeyStyle.Render(s[0])+statusDescStyle.Render(" "+s[1]))
	}
	return statusBarStyle.Render(strings.Join(items, "  │  "))
}

func renderOptions(labels []string, selected int) string {
	parts := make([]string, len(labels))
	for i, l := range labels {
		if i == selected {
			parts[i] = selectedOptionStyle.Render("‹ " + l + " ›")
		} else {
			parts[i] = selectorStyle.Render(l)
		}
	}
	return strings.Join(parts, "  ")
}

func powerLabels() []string {
	var out []string
	for _, p := range prompt.Powers() {
		out = append(out, p.Label())
	}
	return out
}

func targetLabels() []string {
	var out []string
	for _, t := range prompt.Targets() {
		out = append(out, t.Label())
	}
	return out
}

// FormatValidation renders a form validation error
func FormatValidation(err error) string {
	var fe *apierrors.FieldError
	if errors.As(err, &fe) {
		switch fe.Field {
		case "name":
			return "请输入产品名称 (product name is required)"
		case "hs_code":
			return "请输入 HS Code (HS code is required)"
		}
	}
	return err.Error()
}

// Run starts the form TUI
func Run(opts Options) error {
	p := tea.NewProgram(NewModel(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
