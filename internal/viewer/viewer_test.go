package viewer

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/graphem/pkg/graph"
	"github.com/dd0wney/graphem/pkg/layout"
)

func testModel(t *testing.T) Model {
	t.Helper()
	edges := []graph.Edge{{U: 0, V: 1}, {U: 1, V: 2}, {U: 2, V: 3}, {U: 3, V: 0}}
	p := layout.DefaultParams()
	p.LMin = 1
	p.Dimension = 2
	e, err := layout.New(graph.MustNew(4, edges), p, layout.WithSeed(1))
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return New(e, Options{Steps: 2, Title: "cycle"})
}

func press(m Model, k string) Model {
	var msg tea.KeyMsg
	if k == " " {
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	} else {
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestStepCycle(t *testing.T) {
	m := testModel(t)

	next, cmd := m.Update(tickMsg{})
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.running)

	msg := cmd()
	step, ok := msg.(stepMsg)
	require.True(t, ok)
	assert.NoError(t, step.err)

	next, cmd = m.Update(step)
	m = next.(Model)
	assert.False(t, m.running)
	assert.NotNil(t, cmd, "next tick is scheduled")
	assert.Equal(t, 2, m.engine.Iterations())
}

func TestKeys(t *testing.T) {
	m := testModel(t)

	m = press(m, " ")
	assert.True(t, m.paused)
	next, _ := m.Update(tickMsg{})
	assert.False(t, next.(Model).running, "paused viewer does not step")

	m = press(m, "+")
	assert.Equal(t, 4, m.opts.Steps)
	m = press(m, "-")
	m = press(m, "-")
	m = press(m, "-")
	assert.Equal(t, 1, m.opts.Steps)

	m = press(m, "s")
	assert.True(t, m.showSeeds)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestReset(t *testing.T) {
	m := testModel(t)
	start := m.engine.Positions()
	require.NoError(t, m.engine.RunLayout(5))

	m = press(m, "r")
	assert.NoError(t, m.err)
	assert.Equal(t, start, m.engine.Positions())
	assert.Equal(t, 0, m.engine.Iterations())
}

func TestView(t *testing.T) {
	m := testModel(t)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	m = next.(Model)
	m = press(m, "s")
	m = press(m, " ")

	out := m.View()
	assert.Contains(t, out, "cycle")
	assert.Contains(t, out, "iteration 0")
	assert.Contains(t, out, "paused")
	assert.True(t, strings.Contains(out, "@"), "seed overlay marks central vertices")
}
