package main

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/tagvm/asm"
	"github.com/wippyai/tagvm/bytecode"
	"github.com/wippyai/tagvm/config"
	"github.com/wippyai/tagvm/vm"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

// continueLimit bounds a single "continue" so a looping program cannot
// freeze the UI.
const continueLimit = 100_000

type keyMap struct {
	Step     key.Binding
	Continue key.Binding
	Reset    key.Binding
	Up       key.Binding
	Down     key.Binding
	Quit     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Step, k.Continue, k.Reset, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Step, k.Continue, k.Reset},
		{k.Up, k.Down, k.Quit},
	}
}

var keys = keyMap{
	Step:     key.NewBinding(key.WithKeys("s", " "), key.WithHelp("s/space", "step")),
	Continue: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "continue")),
	Reset:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "scroll up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "scroll down")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type interactiveModel struct {
	err      error
	engine   *vm.Engine
	device   *bytes.Buffer
	cfg      *config.Config
	filename string
	prog     bytecode.Stream
	lines    []asm.Line
	code     viewport.Model
	help     help.Model
	ready    bool
}

func newInteractiveModel(filename string, prog bytecode.Stream, cfg *config.Config) *interactiveModel {
	m := &interactiveModel{
		filename: filename,
		prog:     prog,
		cfg:      cfg,
		lines:    asm.Lines(prog),
		help:     help.New(),
	}
	m.reset()
	return m
}

func (m *interactiveModel) reset() {
	m.device = &bytes.Buffer{}
	opts := append(m.cfg.EngineOptions(), vm.WithOutput(m.device), vm.WithTrace(false))
	m.engine = vm.New(opts...)
	m.engine.Load(m.prog)
	m.err = nil
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		width := msg.Width / 2
		height := max(msg.Height-4, 3)
		if !m.ready {
			m.code = viewport.New(width, height)
			m.ready = true
		} else {
			m.code.Width = width
			m.code.Height = height
		}
		m.help.Width = msg.Width
		m.refresh()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, keys.Step):
			m.err = m.engine.Step()
			m.refresh()

		case key.Matches(msg, keys.Continue):
			for i := 0; i < continueLimit && m.engine.State() != vm.StateHalted && m.engine.State() != vm.StateFaulted; i++ {
				if m.err = m.engine.Step(); m.err != nil {
					break
				}
			}
			m.refresh()

		case key.Matches(msg, keys.Reset):
			m.reset()
			m.refresh()

		default:
			var cmd tea.Cmd
			m.code, cmd = m.code.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// refresh redraws the code listing and scrolls the current instruction
// into view.
func (m *interactiveModel) refresh() {
	if !m.ready {
		return
	}
	ip := m.engine.IP()
	var b strings.Builder
	current := 0
	for i, l := range m.lines {
		text := fmt.Sprintf("%5d  %s", l.Pos, l.Text)
		switch {
		case l.Pos == ip && m.engine.State() != vm.StateHalted:
			b.WriteString(selectedStyle.Render("> " + text))
			current = i
		case l.Func:
			b.WriteString("  " + funcStyle.Render(text))
		default:
			b.WriteString("  " + text)
		}
		b.WriteByte('\n')
	}
	m.code.SetContent(b.String())

	if current < m.code.YOffset || current >= m.code.YOffset+m.code.Height {
		m.code.SetYOffset(max(current-m.code.Height/2, 0))
	}
}

func (m *interactiveModel) View() string {
	if !m.ready {
		return "Loading program..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("tagvm debug"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(m.code.View()),
		panelStyle.Render(m.machineView()),
	))
	b.WriteString("\n")
	b.WriteString(m.help.View(keys))
	return b.String()
}

func (m *interactiveModel) machineView() string {
	e := m.engine
	var b strings.Builder

	state := e.State().String()
	switch e.State() {
	case vm.StateFaulted:
		state = errorStyle.Render(state)
	case vm.StateHalted:
		state = resultStyle.Render(state)
	}
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("state"), state)
	fmt.Fprintf(&b, "%s    %d\n", labelStyle.Render("ip"), e.IP())
	fmt.Fprintf(&b, "%s   %d (%#x)\n", labelStyle.Render("acc"), e.Accumulator(), e.Accumulator())
	fmt.Fprintf(&b, "%s %d\n", labelStyle.Render("steps"), e.Steps())
	fmt.Fprintf(&b, "%s %d\n", labelStyle.Render("calls"), e.CallDepth())
	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteByte('\n')
	}

	b.WriteString("\n" + labelStyle.Render("registers") + "\n")
	regs := e.Registers()
	shown := 0
	for i, v := range regs {
		if v == 0 {
			continue
		}
		fmt.Fprintf(&b, "  r%-2d %d\n", i, v)
		shown++
	}
	if shown == 0 {
		b.WriteString(helpStyle.Render("  all zero") + "\n")
	}

	stack := e.Stack().Bytes()
	fmt.Fprintf(&b, "\n%s %d/%d\n", labelStyle.Render("stack"), len(stack), e.Stack().Cap())
	if len(stack) > 16 {
		stack = stack[len(stack)-16:]
	}
	fmt.Fprintf(&b, "  % x\n", stack)

	b.WriteString("\n" + labelStyle.Render("heap") + "\n")
	for _, ext := range e.Heap().Extents() {
		fmt.Fprintf(&b, "  [%#04x, %#04x)\n", ext.Start, ext.End)
	}

	b.WriteString("\n" + labelStyle.Render("output") + "\n")
	fmt.Fprintf(&b, "  %q\n", m.device.String())
	if pending := e.IO().Out(); len(pending) > 0 {
		fmt.Fprintf(&b, "  %s %q\n", helpStyle.Render("unflushed"), pending)
	}
	return b.String()
}

func runInteractive(filename string, prog bytecode.Stream, cfg *config.Config) error {
	p := tea.NewProgram(newInteractiveModel(filename, prog, cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
