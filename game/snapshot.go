package game

import (
	"go-melodycards/card"
	"go-melodycards/melody"
	"go-melodycards/staff"
)

// CardView is a card as front-ends see it
type CardView struct {
	ID      card.ID  `json:"id"`
	Kind    string   `json:"kind"`
	Rhythm  []int    `json:"rhythm,omitempty"`
	Pitches []string `json:"pitches,omitempty"`
	Status  string   `json:"status"`
	Length  int      `json:"length"`
}

// PlacementView is a placement as front-ends see it
type PlacementView struct {
	ID     staff.PlacementID `json:"id"`
	Start  int               `json:"start"`
	Length int               `json:"length"`
	Fused  bool              `json:"fused"`
	Cards  []CardView        `json:"cards"`
}

// Snapshot is everything a front-end renders
type Snapshot struct {
	Chapter        int     `json:"chapter"` // 1-based
	Title          string  `json:"title"`
	TargetScore    int     `json:"targetScore"`
	TargetMeasures int     `json:"targetMeasures"`
	Phase          string  `json:"phase"`
	Score          int     `json:"score"`
	Completed      []int   `json:"completed"`
	Span           int     `json:"span"`
	Tempo          float64 `json:"tempo"`

	EighthNotesPerMeasure int `json:"eighthNotesPerMeasure"`
	MaxMeasures           int `json:"maxMeasures"`

	Pool       []CardView      `json:"pool"`
	Placements []PlacementView `json:"placements"`
	Melody     []melody.Event  `json:"melody"`

	Playback  string  `json:"playback"`
	Position  float64 `json:"position"`
	SessionID string  `json:"sessionId,omitempty"`
	Skipped   int     `json:"skipped,omitempty"` // loop passes lost to a late timer
}

// Snapshot captures the current state
func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	ch := g.currentChapter()
	snap := Snapshot{
		Chapter:               g.chapter + 1,
		Title:                 ch.Title,
		TargetScore:           ch.TargetScore,
		TargetMeasures:        ch.TargetMeasures,
		Phase:                 g.phase.String(),
		Score:                 g.tracker.Score(),
		Completed:             g.staff.Completed(),
		Span:                  g.span(),
		Tempo:                 g.opts.Tempo,
		EighthNotesPerMeasure: g.staff.EighthNotesPerMeasure(),
		MaxMeasures:           g.staff.MaxMeasures(),
		Melody:                melody.CompileStaff(g.staff),
		Playback:              g.player.State().String(),
	}
	if snap.Chapter > len(g.opts.Chapters) {
		snap.Chapter = len(g.opts.Chapters)
	}

	snap.Pool = make([]CardView, len(g.pool))
	for i, c := range g.pool {
		snap.Pool[i] = viewCard(c, g.staff.PitchUnits())
	}
	for _, p := range g.staff.Placements() {
		pv := PlacementView{ID: p.ID, Start: p.Start, Length: p.Length, Fused: p.IsFused()}
		for _, c := range p.Cards() {
			pv.Cards = append(pv.Cards, viewCard(c, g.staff.PitchUnits()))
		}
		snap.Placements = append(snap.Placements, pv)
	}

	if pos, ok := g.player.Position(); ok {
		snap.Position = pos
	} else {
		snap.Position = -1
	}
	if s, ok := g.player.Current(); ok {
		snap.SessionID = s.ID.String()
		snap.Skipped = s.Skipped()
	}
	return snap
}

// Pool lists the cards not on the staff
func (g *Game) Pool() []CardView {
	return g.Snapshot().Pool
}

func viewCard(c *card.Card, pitchUnits int) CardView {
	return CardView{
		ID:      c.ID,
		Kind:    c.Kind.String(),
		Rhythm:  c.Rhythm,
		Pitches: c.Pitches,
		Status:  c.Status().String(),
		Length:  c.LengthWith(pitchUnits),
	}
}
