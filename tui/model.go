package tui

import (
	"fmt"
	"strings"

	"github.com/Southclaws/fault/fmsg"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-melodycards/config"
	"go-melodycards/game"
	"go-melodycards/library"
	"go-melodycards/staff"
	"go-melodycards/theme"
	"go-melodycards/widgets"
)

// focus is the panel receiving arrow keys
type focus int

const (
	focusPool focus = iota
	focusStaff
)

var keys = []widgets.KeySection{
	{Title: "Pool", Keys: []widgets.KeyBinding{
		{Key: "↑/↓", Desc: "pick card"},
		{Key: "enter", Desc: "place at cursor"},
	}},
	{Title: "Staff", Keys: []widgets.KeyBinding{
		{Key: "←/→", Desc: "cursor"},
		{Key: "[/]", Desc: "measure"},
		{Key: "m", Desc: "grab/drop placement"},
		{Key: "x", Desc: "return placement"},
		{Key: "X", Desc: "remove top card"},
		{Key: "c", Desc: "clear staff"},
	}},
	{Title: "Playback", Keys: []widgets.KeyBinding{
		{Key: "p", Desc: "play/stop"},
		{Key: "v", Desc: "preview staff"},
		{Key: "s", Desc: "save melody"},
	}},
	{Keys: []widgets.KeyBinding{
		{Key: "tab", Desc: "switch panel"},
		{Key: "?", Desc: "help"},
		{Key: "q", Desc: "quit"},
	}},
}

type Model struct {
	Game  *game.Game
	Theme *theme.Theme

	// Library receives saved melodies; nil disables saving
	Library *library.Library
	Meter   config.TimeSignature

	focus    focus
	selected int // pool index
	cursor   int // grid unit
	grabbed  staff.PlacementID
	holding  bool
	message  string
	help     bool
	quitting bool
}

type UpdateMsg struct{}

func NewModel(g *game.Game, th *theme.Theme) Model {
	return Model{Game: g, Theme: th}
}

func ListenForUpdates(g *game.Game) tea.Cmd {
	return func() tea.Msg {
		<-g.UpdateChan
		return UpdateMsg{}
	}
}

func (m Model) Init() tea.Cmd {
	return ListenForUpdates(m.Game)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg.String())

	case UpdateMsg:
		m.clamp(m.Game.Snapshot())
		return m, ListenForUpdates(m.Game)
	}
	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	snap := m.Game.Snapshot()
	n := snap.EighthNotesPerMeasure

	switch key {
	case "q", "ctrl+c":
		m.quitting = true
		m.Game.Stop()
		return m, tea.Quit

	case "tab":
		if m.focus == focusPool {
			m.focus = focusStaff
		} else {
			m.focus = focusPool
		}

	case "?":
		m.help = !m.help

	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
		m.hover(snap)
	case "down", "j":
		if m.selected < len(snap.Pool)-1 {
			m.selected++
		}
		m.hover(snap)

	case "left", "h":
		m.cursor--
	case "right", "l":
		m.cursor++
	case "[":
		m.cursor = (m.cursor/n - 1) * n
	case "]":
		m.cursor = (m.cursor/n + 1) * n

	case "enter", " ":
		if m.selected < len(snap.Pool) {
			res, err := m.Game.Place(snap.Pool[m.selected].ID, m.cursor)
			m.report(res, err)
		}

	case "m":
		if !m.holding {
			if p, ok := placementAt(snap, m.cursor); ok {
				m.grabbed, m.holding = p.ID, true
				m.message = fmt.Sprintf("holding placement at %d", p.Start)
			}
			break
		}
		m.holding = false
		res, err := m.Game.Move(m.grabbed, m.cursor)
		m.report(res, err)

	case "x":
		if p, ok := placementAt(snap, m.cursor); ok {
			res, err := m.Game.ReturnToPool(p.ID)
			m.report(res, err)
		}
	case "X":
		if p, ok := placementAt(snap, m.cursor); ok && len(p.Cards) > 0 {
			res, err := m.Game.Remove(p.Cards[len(p.Cards)-1].ID)
			m.report(res, err)
		}
	case "c":
		m.Game.ClearStaff()
		m.message = "staff cleared"

	case "p":
		if snap.Playback != "idle" {
			m.Game.Stop()
			m.message = ""
		} else if err := m.Game.Play(); err != nil {
			m.message = errMessage(err)
		} else if len(snap.Completed) == 0 {
			m.message = "complete a measure to hear it"
		}
	case "v":
		if err := m.Game.Preview(); err != nil {
			m.message = errMessage(err)
		}
	case "s":
		m.save(snap)
	}

	m.clamp(m.Game.Snapshot())
	return m, nil
}

func (m *Model) hover(snap game.Snapshot) {
	if m.selected < len(snap.Pool) {
		m.Game.HoverPreview(snap.Pool[m.selected].ID)
	}
}

func (m *Model) report(res staff.Result, err error) {
	switch {
	case err != nil:
		m.message = errMessage(err)
	case res.Outcome == staff.Rejected:
		m.message = "can't drop there: " + res.Reason
	default:
		m.message = res.Outcome.String()
		if len(res.Displaced) > 0 {
			m.message += fmt.Sprintf(", %d back to pool", len(res.Displaced))
		}
	}
}

// save stores the confirmed measures in the library
func (m *Model) save(snap game.Snapshot) {
	if m.Library == nil {
		m.message = "saving is off"
		return
	}
	events, err := m.Game.ExportEvents(false)
	if err != nil {
		m.message = errMessage(err)
		return
	}
	info, err := m.Library.Save(library.Melody{
		Chapter:       snap.Chapter,
		Title:         snap.Title,
		Score:         snap.Score,
		Tempo:         snap.Tempo,
		TimeSignature: m.Meter,
		Melody:        events,
	})
	if err != nil {
		m.message = errMessage(err)
		return
	}
	m.message = "saved " + info.Filename
}

func (m *Model) clamp(snap game.Snapshot) {
	total := snap.EighthNotesPerMeasure * snap.MaxMeasures
	if m.cursor >= total {
		m.cursor = total - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.selected >= len(snap.Pool) {
		m.selected = len(snap.Pool) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func placementAt(snap game.Snapshot, pos int) (game.PlacementView, bool) {
	for _, p := range snap.Placements {
		if p.Start <= pos && pos < p.Start+p.Length {
			return p, true
		}
	}
	return game.PlacementView{}, false
}

func errMessage(err error) string {
	if msg := fmsg.GetIssue(err); msg != "" {
		return msg
	}
	return err.Error()
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	snap := m.Game.Snapshot()

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent()).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	msgStyle := lipgloss.NewStyle().Foreground(m.Theme.FG())
	focusStyle := lipgloss.NewStyle().Foreground(m.Theme.Cursor())

	header := headerStyle.Render(fmt.Sprintf("Chapter %d: %s", snap.Chapter, snap.Title))
	status := fmt.Sprintf("score %d/%d  measures %d/%d  %s  %.0fbpm  %s",
		snap.Score, snap.TargetScore,
		(snap.Span+snap.EighthNotesPerMeasure-1)/max(snap.EighthNotesPerMeasure, 1), snap.TargetMeasures,
		snap.Phase, snap.Tempo, strings.ToUpper(snap.Playback))
	if snap.Skipped > 0 {
		status += fmt.Sprintf("  %d passes dropped", snap.Skipped)
	}

	staffTitle, poolTitle := "Staff", "Pool"
	if m.focus == focusStaff {
		staffTitle = focusStyle.Render(staffTitle)
	} else {
		poolTitle = focusStyle.Render(poolTitle)
	}

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n")
	out.WriteString(dimStyle.Render(status))
	out.WriteString("\n\n")
	out.WriteString(staffTitle)
	if m.holding {
		out.WriteString(dimStyle.Render("  (holding)"))
	}
	out.WriteString("\n")
	out.WriteString(widgets.RenderStaff(m.Theme, snap, m.cursor, 4))
	out.WriteString("\n\n")
	out.WriteString(poolTitle)
	out.WriteString("\n")
	out.WriteString(widgets.RenderPool(m.Theme, snap.Pool, m.selected))
	out.WriteString("\n\n")

	switch snap.Phase {
	case "cleared":
		out.WriteString(headerStyle.Render("Chapter cleared!"))
		out.WriteString("\n")
	case "finished":
		out.WriteString(headerStyle.Render("Every chapter is complete. Thanks for playing."))
		out.WriteString("\n")
	}
	if m.message != "" {
		out.WriteString(msgStyle.Render(m.message))
		out.WriteString("\n")
	}

	if m.help {
		out.WriteString(widgets.RenderKeyHelp(keys, m.Theme.Accent()))
	} else {
		out.WriteString(dimStyle.Render(widgets.RenderKeyLine(keys)))
	}
	return out.String()
}
