package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-melodycards/game"
	"go-melodycards/library"
	"go-melodycards/staff"
	"go-melodycards/synth"
	"go-melodycards/theme"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	g, err := game.New(game.Options{
		Tempo:        120,
		Staff:        staff.DefaultOptions(),
		RefillBelow:  1,
		DealSize:     3,
		PreviewDelay: time.Hour,
		ChapterDelay: time.Hour,
		Seed:         7,
	}, synth.NewSilent(), nil, nil)
	require.NoError(t, err)
	t.Cleanup(g.Stop)
	return NewModel(g, theme.New(nil))
}

func press(t *testing.T, m Model, k tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(k)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// off the bar line so a single card never fills a measure
func placeAtOne(t *testing.T, m Model) Model {
	t.Helper()
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	return m
}

func TestPlaceAndReturn(t *testing.T) {
	m := placeAtOne(t, newTestModel(t))

	snap := m.Game.Snapshot()
	require.Len(t, snap.Placements, 1)
	assert.Equal(t, 1, snap.Placements[0].Start)
	assert.Equal(t, "placed", m.message)

	m, _ = press(t, m, runes("x"))
	assert.Empty(t, m.Game.Snapshot().Placements)
	assert.Equal(t, "removed, 1 back to pool", m.message)
}

func TestCursorStaysOnStaff(t *testing.T) {
	m := newTestModel(t)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, 0, m.cursor)

	m, _ = press(t, m, runes("]"))
	assert.Equal(t, 16, m.cursor)
	m, _ = press(t, m, runes("["))
	assert.Equal(t, 0, m.cursor)

	for i := 0; i < 40; i++ {
		m, _ = press(t, m, runes("]"))
	}
	assert.Equal(t, 16*16-1, m.cursor)
}

func TestGrabAndMove(t *testing.T) {
	m := placeAtOne(t, newTestModel(t))
	m, _ = press(t, m, runes("m"))
	require.True(t, m.holding)

	m, _ = press(t, m, runes("]"))
	m, _ = press(t, m, runes("m"))
	assert.False(t, m.holding)
	snap := m.Game.Snapshot()
	require.Len(t, snap.Placements, 1)
	assert.Equal(t, 16, snap.Placements[0].Start)
	assert.Equal(t, "moved", m.message)
}

func TestPlayWithNothingCompleted(t *testing.T) {
	m := newTestModel(t)
	m, _ = press(t, m, runes("p"))
	assert.Equal(t, "complete a measure to hear it", m.message)
	assert.Equal(t, "idle", m.Game.Snapshot().Playback)
}

func TestViewAndQuit(t *testing.T) {
	m := newTestModel(t)
	view := m.View()
	assert.Contains(t, view, "Chapter 1")
	assert.Contains(t, view, "Pool")
	assert.Contains(t, view, "tab:switch panel")

	m, _ = press(t, m, runes("?"))
	assert.Contains(t, m.View(), "Playback")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, focusStaff, m.focus)

	m, cmd := press(t, m, runes("q"))
	assert.NotNil(t, cmd)
	assert.Empty(t, m.View())
}

func TestSaveNeedsConfirmedMeasures(t *testing.T) {
	m := newTestModel(t)
	m, _ = press(t, m, runes("s"))
	assert.Equal(t, "saving is off", m.message)

	lib, err := library.Open(t.TempDir())
	require.NoError(t, err)
	m.Library = lib

	m = placeAtOne(t, m)
	m, _ = press(t, m, runes("s"))
	assert.Contains(t, m.message, "no melody to export")

	saves, err := lib.List()
	require.NoError(t, err)
	assert.Empty(t, saves)
}
