// Package viewer is a terminal UI that runs a layout engine live and redraws
// the embedding after every batch of iterations.
package viewer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/graphem/pkg/layout"
	"github.com/dd0wney/graphem/pkg/render"
	"github.com/dd0wney/graphem/pkg/seeds"
	"github.com/dd0wney/graphem/pkg/snapshot"
	"github.com/dd0wney/graphem/pkg/validation"
)

var (
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FFFF")).
			MarginLeft(1)

	pausedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFF00"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF0000"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginLeft(1)
)

type keyMap struct {
	Pause key.Binding
	More  key.Binding
	Fewer key.Binding
	Seeds key.Binding
	Reset key.Binding
	Help  key.Binding
	Quit  key.Binding
}

var keys = keyMap{
	Pause: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pause/resume")),
	More:  key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "more steps per frame")),
	Fewer: key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "fewer steps per frame")),
	Seeds: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "highlight seeds")),
	Reset: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "restart from initial positions")),
	Help:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
	Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.More, k.Fewer, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Pause, k.More, k.Fewer},
		{k.Seeds, k.Reset},
		{k.Help, k.Quit},
	}
}

// Options configures the viewer.
type Options struct {
	// Steps is the number of iterations per frame
	Steps int
	// Interval is the pause between frames
	Interval time.Duration
	// SeedCount is how many central vertices the seed overlay marks
	SeedCount int
	Title     string
}

const maxSteps = 1000

type tickMsg struct{}

type stepMsg struct {
	ran     int
	elapsed time.Duration
	err     error
}

// Model is the bubbletea model of the viewer.
type Model struct {
	engine  *layout.Engine
	initial snapshot.Snapshot
	opts    Options

	width, height int
	paused        bool
	running       bool
	showSeeds     bool
	lastStep      time.Duration
	err           error

	help help.Model
}

// New prepares a viewer for e. The positions at this point are kept so the
// run can be restarted.
func New(e *layout.Engine, opts Options) Model {
	if opts.Steps <= 0 {
		opts.Steps = 1
	}
	if opts.Interval <= 0 {
		opts.Interval = 100 * time.Millisecond
	}
	if opts.SeedCount <= 0 {
		opts.SeedCount = 5
	}
	return Model{
		engine:  e,
		initial: e.Snapshot(),
		opts:    opts,
		width:   80,
		height:  24,
		help:    help.New(),
	}
}

func (m Model) Init() tea.Cmd {
	return tick(m.opts.Interval)
}

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m Model) step() tea.Cmd {
	e, n := m.engine, m.opts.Steps
	return func() tea.Msg {
		start := time.Now()
		err := e.RunLayout(n)
		return stepMsg{ran: n, elapsed: time.Since(start), err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Pause):
			m.paused = !m.paused
		case key.Matches(msg, keys.More):
			m.opts.Steps = validation.ClampInt(m.opts.Steps*2, 1, maxSteps)
		case key.Matches(msg, keys.Fewer):
			m.opts.Steps = validation.ClampInt(m.opts.Steps/2, 1, maxSteps)
		case key.Matches(msg, keys.Seeds):
			m.showSeeds = !m.showSeeds
		case key.Matches(msg, keys.Reset):
			if !m.running {
				m.err = m.engine.Restore(m.initial)
			}
		case key.Matches(msg, keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
		return m, nil

	case tickMsg:
		if m.paused || m.running || m.err != nil {
			return m, tick(m.opts.Interval)
		}
		m.running = true
		return m, m.step()

	case stepMsg:
		m.running = false
		m.lastStep = msg.elapsed
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		return m, tick(m.opts.Interval)
	}
	return m, nil
}

// scene builds what is drawn; seeds are enlarged so they show as '@'.
func (m Model) scene(cols, rows int) render.Scene {
	positions := m.engine.Positions()
	opts := render.Options{
		Title:    m.opts.Title,
		Width:    float64(cols),
		Height:   float64(rows),
		NodeSize: 1,
	}
	if m.showSeeds {
		opts.NodeSizes = make([]float64, len(positions))
		for _, v := range seeds.Select(positions, m.opts.SeedCount) {
			opts.NodeSizes[v] = 2
		}
	}
	return render.Scene{Positions: positions, Edges: m.engine.Graph().Edges(), Options: opts}
}

func (m Model) View() string {
	cols := max(m.width-4, 10)
	rows := max(m.height-6, 5)

	var plot strings.Builder
	if err := (render.TerminalRenderer{}).Render(context.Background(), &plot, m.scene(cols, rows)); err != nil {
		plot.WriteString(errorStyle.Render(err.Error()))
	}

	status := fmt.Sprintf("iteration %d · %d steps/frame · %s/frame",
		m.engine.Iterations(), m.opts.Steps, m.lastStep.Round(time.Microsecond))
	if m.paused {
		status += " · " + pausedStyle.Render("paused")
	}
	lines := []string{plot.String(), statusStyle.Render(status)}
	if m.err != nil {
		lines = append(lines, errorStyle.Render("error: "+m.err.Error()))
	}
	lines = append(lines, helpStyle.Render(m.help.View(keys)))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// Run starts the full-screen viewer and blocks until the user quits.
func Run(e *layout.Engine, opts Options) error {
	_, err := tea.NewProgram(New(e, opts), tea.WithAltScreen()).Run()
	return err
}
