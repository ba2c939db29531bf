package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"cloupeer.io/supercar/internal/supercar/form"
	"cloupeer.io/supercar/internal/supercar/route"
	"cloupeer.io/supercar/internal/supercar/schema"
)

// Placeholder is shown by the motor form while no motor is selected.
const Placeholder = "Select a type"

// Controller is the form lifecycle driven by the model.
type Controller interface {
	Activate(ctx context.Context, target string) error
	OnTargetChanged(ctx context.Context, target string) error
	Deactivate()
	Edit(name, raw string) error
	Submit(ctx context.Context) error
	Snapshot() form.Snapshot
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			MarginBottom(1)

	groupStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Underline(true)

	labelStyle = lipgloss.NewStyle().
			Width(38)

	focusedLabelStyle = labelStyle.
				Bold(true).
				Foreground(lipgloss.Color("39"))

	dirtyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// loadedMsg reports the end of an activation.
type loadedMsg struct{ err error }

// submittedMsg reports the end of a submit.
type submittedMsg struct{ err error }

// FormModel is the Bubble Tea model of one form surface.
type FormModel struct {
	ctx    context.Context
	ctrl   Controller
	route  route.Route
	target string

	snap    form.Snapshot
	names   []string
	inputs  []textinput.Model
	cursor  int
	busy    bool
	message string
	failed  bool
}

// NewFormModel returns a model for r. For the motor route an empty target
// shows the placeholder until a motor is selected.
func NewFormModel(ctx context.Context, ctrl Controller, r route.Route, target string) *FormModel {
	return &FormModel{
		ctx:    ctx,
		ctrl:   ctrl,
		route:  r,
		target: target,
	}
}

// RunForm runs the model in the terminal until the user quits.
func RunForm(ctx context.Context, ctrl Controller, r route.Route, target string) error {
	m := NewFormModel(ctx, ctrl, r, target)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m *FormModel) Init() tea.Cmd {
	if m.needsTarget() {
		return nil
	}
	m.busy = true
	return m.activate(m.target)
}

func (m *FormModel) needsTarget() bool {
	return m.route == route.Motor && m.target == ""
}

func (m *FormModel) activate(target string) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return loadedMsg{err: ctrl.Activate(ctx, target)}
	}
}

func (m *FormModel) changeTarget(target string) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return loadedMsg{err: ctrl.OnTargetChanged(ctx, target)}
	}
}

func (m *FormModel) submit() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return submittedMsg{err: ctrl.Submit(ctx)}
	}
}

func (m *FormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		return m, m.handleLoaded(msg.err)
	case submittedMsg:
		m.handleSubmitted(msg.err)
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *FormModel) handleLoaded(err error) tea.Cmd {
	if errors.Is(err, form.ErrStale) {
		// The form moved to another resource.
		return nil
	}
	m.busy = false
	cmd := m.sync()
	if err != nil {
		m.setError("Failed to load configuration", err)
		return cmd
	}
	m.message, m.failed = "", false
	return cmd
}

func (m *FormModel) handleSubmitted(err error) {
	if errors.Is(err, form.ErrStale) {
		return
	}
	m.busy = false
	m.sync()

	var verr *form.ValidationError
	switch {
	case errors.As(err, &verr):
		m.message, m.failed = fmt.Sprintf("%d invalid field(s), nothing was sent", len(verr.Fields)), true
	case err != nil:
		m.setError("Failed to save configuration", err)
	default:
		m.message, m.failed = "Configuration saved", false
	}
}

func (m *FormModel) setError(prefix string, err error) {
	m.message = fmt.Sprintf("%s: %v", prefix, err)
	m.failed = true
}

func (m *FormModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.ctrl.Deactivate()
		return m, tea.Quit
	case tea.KeyCtrlT:
		return m, m.nextTarget()
	}

	if m.needsTarget() || m.busy {
		return m, nil
	}

	switch msg.Type {
	case tea.KeyCtrlR:
		m.busy = true
		m.message = ""
		return m, m.activate(m.target)
	case tea.KeyCtrlS:
		if !m.snap.Editable() {
			return m, nil
		}
		m.busy = true
		m.message = ""
		return m, m.submit()
	case tea.KeyDown, tea.KeyTab, tea.KeyEnter:
		return m, m.focus(m.cursor + 1)
	case tea.KeyUp, tea.KeyShiftTab:
		return m, m.focus(m.cursor - 1)
	}

	return m, m.edit(msg)
}

// nextTarget cycles the motor form through its targets.
func (m *FormModel) nextTarget() tea.Cmd {
	if m.route != route.Motor {
		return nil
	}
	targets := route.Targets()
	next := targets[0]
	if i := slices.Index(targets, m.target); i >= 0 {
		next = targets[(i+1)%len(targets)]
	}
	m.target = next
	m.busy = true
	m.message = ""
	return m.changeTarget(next)
}

// edit forwards msg to the focused input and reports a changed value to the
// controller.
func (m *FormModel) edit(msg tea.KeyMsg) tea.Cmd {
	if len(m.inputs) == 0 || !m.snap.Editable() {
		return nil
	}

	in := &m.inputs[m.cursor]
	before := in.Value()

	var cmd tea.Cmd
	*in, cmd = in.Update(msg)

	if in.Value() != before {
		if err := m.ctrl.Edit(m.names[m.cursor], in.Value()); err != nil {
			m.setError("Edit refused", err)
		}
		m.snap = m.ctrl.Snapshot()
	}
	return cmd
}

func (m *FormModel) focus(i int) tea.Cmd {
	if len(m.inputs) == 0 {
		return nil
	}
	i = (i + len(m.inputs)) % len(m.inputs)
	m.inputs[m.cursor].Blur()
	m.cursor = i
	return m.inputs[i].Focus()
}

// sync refreshes the snapshot and rebuilds the inputs from it.
func (m *FormModel) sync() tea.Cmd {
	m.snap = m.ctrl.Snapshot()
	m.target = m.snap.Target

	names := make([]string, 0, len(m.snap.Fields))
	for _, f := range m.snap.Fields {
		names = append(names, f.Spec.Name)
	}
	if !slices.Equal(names, m.names) {
		m.names = names
		m.inputs = make([]textinput.Model, len(names))
		for i := range m.inputs {
			in := textinput.New()
			in.CharLimit = 16
			in.Width = 16
			in.Prompt = ""
			m.inputs[i] = in
		}
		m.cursor = 0
	}

	for i, f := range m.snap.Fields {
		m.inputs[i].SetValue(f.Raw)
		m.inputs[i].Placeholder = fmt.Sprintf("%s-%s", schema.FormatNumber(f.Spec.Min), schema.FormatNumber(f.Spec.Max))
	}
	if len(m.inputs) == 0 {
		return nil
	}
	return m.inputs[m.cursor].Focus()
}

// Snapshot returns the controller state the view was last rendered from.
func (m *FormModel) Snapshot() form.Snapshot {
	return m.snap
}

// Message returns the status line.
func (m *FormModel) Message() string {
	return m.message
}

func (m *FormModel) title() string {
	if m.route == route.Main {
		return "Supercar configuration"
	}
	if m.target == "" {
		return "Motor configuration"
	}
	if s, err := schema.Lookup(schema.Kind(m.target)); err == nil {
		return s.Title + " configuration"
	}
	return "Motor configuration"
}

func (m *FormModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title()))
	b.WriteString("\n")

	if m.needsTarget() {
		b.WriteString(dimStyle.Render(Placeholder))
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render("ctrl+t: select motor • esc: quit"))
		b.WriteString("\n")
		return b.String()
	}

	group := ""
	for i, f := range m.snap.Fields {
		if f.Spec.Group != group {
			group = f.Spec.Group
			b.WriteString("\n")
			b.WriteString(groupStyle.Render(strings.ToUpper(group)))
			b.WriteString("\n")
		}

		label := labelStyle.Render(f.Spec.Label)
		if i == m.cursor {
			label = focusedLabelStyle.Render(f.Spec.Label)
		}
		b.WriteString(label)
		if i < len(m.inputs) {
			b.WriteString(m.inputs[i].View())
		}
		if f.Dirty {
			b.WriteString(dirtyStyle.Render(" *"))
		}
		if f.Err != nil {
			b.WriteString(" ")
			b.WriteString(errorStyle.Render(f.Err.Message()))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	state := m.snap.State
	if m.busy {
		state += "…"
	}
	b.WriteString(dimStyle.Render("[" + state + "] "))
	if m.message != "" {
		if m.failed {
			b.WriteString(errorStyle.Render(m.message))
		} else {
			b.WriteString(okStyle.Render(m.message))
		}
	}
	b.WriteString("\n\n")

	help := "↑/↓: move • ctrl+s: save • ctrl+r: reload • esc: quit"
	if m.route == route.Motor {
		help = "↑/↓: move • ctrl+s: save • ctrl+r: reload • ctrl+t: switch motor • esc: quit"
	}
	b.WriteString(dimStyle.Render(help))
	b.WriteString("\n")

	return b.String()
}
