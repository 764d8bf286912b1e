package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Aman-CERP/sitesearch/internal/render"
)

// TUIView is a search-as-you-type terminal UI using bubbletea.
//
// The session calls the View methods from its own goroutines. They only
// record the new display state and wake the program, so they never block on
// the bubbletea event loop.
type TUIView struct {
	cfg     Config
	styles  Styles
	mu      sync.Mutex
	display display
	updates chan struct{}
}

// display is what the session last asked to be shown.
type display struct {
	status     render.Status
	records    []render.Record
	clearInput bool
}

// NewTUIView creates a TUI view.
// Returns an error if the output is not a terminal.
func NewTUIView(cfg Config) (*TUIView, error) {
	if !IsTTY(cfg.Output) {
		return nil, fmt.Errorf("output is not a TTY")
	}
	return newTUIView(cfg), nil
}

func newTUIView(cfg Config) *TUIView {
	styles := DefaultStyles()
	if cfg.NoColor || DetectNoColor() {
		styles = NoColorStyles()
	}
	return &TUIView{
		cfg:     cfg,
		styles:  styles,
		updates: make(chan struct{}, 1),
	}
}

// SetStatus implements session.View.
func (v *TUIView) SetStatus(s render.Status) {
	v.mu.Lock()
	v.display.status = s
	v.mu.Unlock()
	v.notify()
}

// SetResults implements session.View.
func (v *TUIView) SetResults(r render.Rendering) {
	v.mu.Lock()
	v.display.status = r.Status
	v.display.records = r.Records
	v.mu.Unlock()
	v.notify()
}

// Clear implements session.View.
func (v *TUIView) Clear() {
	v.mu.Lock()
	v.display.status = render.Status{}
	v.display.records = nil
	v.mu.Unlock()
	v.notify()
}

// ClearInput implements session.View.
func (v *TUIView) ClearInput() {
	v.mu.Lock()
	v.display.clearInput = true
	v.mu.Unlock()
	v.notify()
}

// Run implements SearchView.
func (v *TUIView) Run(ctx context.Context, c Controls) error {
	done := make(chan struct{})
	defer close(done)

	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}
	if v.cfg.Input != nil {
		opts = append(opts, tea.WithInput(v.cfg.Input))
	}
	if v.cfg.Output != nil {
		opts = append(opts, tea.WithOutput(v.cfg.Output))
	}

	program := tea.NewProgram(newSearchModel(v, c, done), opts...)
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// snapshot returns the display state and consumes the clear input request.
func (v *TUIView) snapshot() display {
	v.mu.Lock()
	defer v.mu.Unlock()

	d := v.display
	v.display.clearInput = false
	return d
}

// notify wakes the program. Pending wake-ups coalesce since every refresh
// reads the latest state.
func (v *TUIView) notify() {
	select {
	case v.updates <- struct{}{}:
	default:
	}
}

// refreshMsg tells the model to re-read the display state.
type refreshMsg struct{}

// searchModel is the bubbletea model for the search screen.
type searchModel struct {
	view     *TUIView
	controls Controls
	done     <-chan struct{}
	input    textinput.Model
	status   render.Status
	records  []render.Record
	width    int
	height   int
	quitting bool
}

func newSearchModel(v *TUIView, c Controls, done <-chan struct{}) *searchModel {
	ti := textinput.New()
	ti.Placeholder = "Search"
	ti.Prompt = "> "
	ti.PromptStyle = v.styles.Prompt
	ti.Focus()

	return &searchModel{
		view:     v,
		controls: c,
		done:     done,
		input:    ti,
		width:    80,
		height:   24,
	}
}

// Init implements tea.Model.
func (m *searchModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForUpdate())
}

// waitForUpdate blocks until the session changes the display.
func (m *searchModel) waitForUpdate() tea.Cmd {
	updates := m.view.updates
	done := m.done
	return func() tea.Msg {
		select {
		case <-updates:
			return refreshMsg{}
		case <-done:
			return nil
		}
	}
}

// Update implements tea.Model.
func (m *searchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEsc:
			m.input.Reset()
			m.controls.Escape()
			return m, nil
		case tea.KeyEnter:
			m.controls.Flush()
			return m, nil
		}

		before := m.input.Value()
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if after := m.input.Value(); after != before {
			m.controls.Input(after)
		}
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-4, 10)
		return m, nil

	case refreshMsg:
		d := m.view.snapshot()
		m.status = d.status
		m.records = d.records
		if d.clearInput {
			m.input.Reset()
		}
		return m, m.waitForUpdate()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *searchModel) View() string {
	if m.quitting {
		return ""
	}

	s := m.view.styles
	width := max(m.width-2, 20)

	var sections []string
	if m.view.cfg.Title != "" {
		sections = append(sections, s.Header.Render(m.view.cfg.Title))
	}
	sections = append(sections, m.input.View())
	sections = append(sections, s.Border.Render(strings.Repeat("─", width)))

	if line := m.renderStatus(); line != "" {
		sections = append(sections, line)
	}
	if len(m.records) > 0 {
		sections = append(sections, m.renderRecords(width))
	}

	sections = append(sections, s.Dim.Render("esc to clear • enter to search now • ctrl+c to quit"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *searchModel) renderStatus() string {
	s := m.view.styles
	switch {
	case m.status.Text == "":
		return ""
	case m.status.Error:
		return s.Error.Render(m.status.Text)
	case m.status.Kind == render.StatusLoading:
		return s.Loading.Render(m.status.Text)
	default:
		return s.Status.Render(m.status.Text)
	}
}

func (m *searchModel) renderRecords(width int) string {
	s := m.view.styles
	snippet := s.Snippet.Width(width - 3)

	// Leave room for the input, status and hint lines.
	room := max((m.height-6)/3, 1)

	var lines []string
	for i, rec := range m.records {
		if i >= room {
			lines = append(lines, s.Dim.Render(fmt.Sprintf("… %d more", len(m.records)-i)))
			break
		}
		lines = append(lines, s.Title.Render(rec.Title)+" "+s.Ref.Render(rec.Ref))
		if rec.Snippet != "" {
			lines = append(lines, lipgloss.NewStyle().PaddingLeft(2).Render(snippet.Render(rec.Snippet)))
		}
	}
	return strings.Join(lines, "\n")
}

var _ SearchView = (*TUIView)(nil)
