package game

import (
	"fmt"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"

	"go-melodycards/card"
	"go-melodycards/debug"
	"go-melodycards/melody"
	"go-melodycards/playback"
	"go-melodycards/score"
	"go-melodycards/staff"
)

const chapterOver = "chapter is over"

// Place drops a card from the pool (or already on the staff) at an
// eighth-note position
func (g *Game) Place(id card.ID, pos int) (staff.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != Building {
		return staff.Result{Reason: chapterOver}, nil
	}
	c, ok := g.lookup(id)
	if !ok {
		return staff.Result{}, unknownCard(id)
	}
	res, err := g.staff.Place(c, pos)
	if err != nil {
		return res, fault.Wrap(err, fmsg.With(fmt.Sprintf("place card %d", id)))
	}
	if !res.Changed() {
		return res, nil
	}
	if _, i := g.fromPool(id); i >= 0 {
		g.takeFromPool(i)
	}
	g.returnToPool(res.Displaced)
	if f, ok := res.Placement.Shape.(staff.Fused); ok && res.Outcome == staff.Combined {
		g.tracker.CardsFused(f.Rhythm.ID, f.Pitch.ID)
	}
	g.afterChange()
	return res, nil
}

// Move shifts a placement without fusing
func (g *Game) Move(id staff.PlacementID, pos int) (staff.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != Building {
		return staff.Result{Reason: chapterOver}, nil
	}
	res, err := g.staff.Move(id, pos)
	if err != nil || !res.Changed() {
		return res, err
	}
	g.afterChange()
	return res, nil
}

// Remove takes one card off the staff back to the pool
func (g *Game) Remove(id card.ID) (staff.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != Building {
		return staff.Result{Reason: chapterOver}, nil
	}
	res, err := g.staff.Remove(id)
	if err != nil || !res.Changed() {
		return res, err
	}
	g.returnToPool(res.Displaced)
	g.afterChange()
	return res, nil
}

// ReturnToPool lifts a whole placement back to the pool
func (g *Game) ReturnToPool(id staff.PlacementID) (staff.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != Building {
		return staff.Result{Reason: chapterOver}, nil
	}
	res, err := g.staff.ReturnToPool(id)
	if err != nil || !res.Changed() {
		return res, err
	}
	g.returnToPool(res.Displaced)
	g.afterChange()
	return res, nil
}

// ClearStaff sends every unlocked card back to the pool. Locked measures
// stay on the staff and keep their score; a running loop follows the staff.
func (g *Game) ClearStaff() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != Building {
		return
	}
	g.returnToPool(g.staff.ClearUnlocked())
	debug.Log("game", "staff cleared, %d cards in pool", len(g.pool))
	g.afterChange()
}

// Play loops the confirmed measures
func (g *Game) Play() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.play(g.compile(loopCompleted), loopCompleted, playback.Options{})
}

// Preview loops everything on the staff, confirmed or not
func (g *Game) Preview() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.play(g.compile(loopStaff), loopStaff, playback.Options{})
}

// Stop halts playback
func (g *Game) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.player.Stop()
	g.mode = loopNone
}

// HoverPreview plays a lone card once after the hover delay. Repeated hovers
// within the delay collapse to the last one.
func (g *Game) HoverPreview(id card.ID) {
	g.previewDebounce(func() {
		if err := g.previewCard(id); err != nil {
			debug.Error("game", err, "preview card %d", id)
		}
	})
}

func (g *Game) previewCard(id card.ID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	// never cut off the confirmed loop or the fanfare
	if g.player.Playing() && g.mode != loopPreview {
		debug.Log("game", "preview of %d skipped, loop running", id)
		return nil
	}
	c, ok := g.lookup(id)
	if !ok {
		return unknownCard(id)
	}
	events := melody.Preview(c, g.staff.PitchUnits(), ClickPitch)
	return g.play(events, loopPreview, playback.Options{SingleLoop: true})
}

// ExportEvents returns the melody for file export: confirmed measures, or
// the whole staff when all is set
func (g *Game) ExportEvents(all bool) ([]melody.Event, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	mode := loopCompleted
	if all {
		mode = loopStaff
	}
	events := g.compile(mode)
	if len(events) == 0 {
		return nil, fault.New("no melody to export",
			ftag.With(ftag.NotFound),
			fmsg.WithDesc("no melody to export", "There is no melody to export yet. Complete a measure first."),
		)
	}
	return events, nil
}

// afterChange runs after every structural change: confirm measures, award
// points, refresh waiting marks, keep the loop current and check the chapter
func (g *Game) afterChange() {
	fresh := g.staff.ScanCompletions()
	for _, m := range fresh {
		g.tracker.MeasureCompleted(m)
	}
	g.staff.RefreshWaiting()
	g.refill()

	playing := g.player.Playing()
	switch {
	case playing && (g.mode == loopCompleted || g.mode == loopStaff):
		events := g.compile(g.mode)
		if len(events) == 0 {
			g.player.Stop()
			g.mode = loopNone
			break
		}
		if err := g.play(events, g.mode, playback.Options{}); err != nil {
			// the old loop no longer matches the staff
			debug.Error("game", err, "regenerate loop")
			g.player.Stop()
			g.mode = loopNone
		}
	case len(fresh) > 0 && (!playing || g.mode == loopPreview):
		if err := g.play(g.compile(loopCompleted), loopCompleted, playback.Options{}); err != nil {
			debug.Error("game", err, "start loop")
		}
	}

	g.checkChapter()
	g.notify()
}

func (g *Game) span() int {
	return score.PlayableSpan(melody.CompileStaff(g.staff), g.staff.EighthNotesPerMeasure())
}

func (g *Game) checkChapter() {
	ch := g.currentChapter()
	if g.phase != Building || !ch.Complete(g.tracker.Score(), g.span()) {
		return
	}
	g.phase = Cleared
	debug.Info("game", "chapter %d %q cleared with %d points", g.chapter+1, ch.Title, g.tracker.Score())

	events := melody.CompileStaff(g.staff)
	err := g.play(events, loopFanfare, playback.Options{
		SingleLoop: true,
		OnComplete: g.scheduleAdvance,
	})
	if err != nil || len(events) == 0 {
		// fanfare too long or nothing to play; move on without it
		if err != nil {
			debug.Error("game", err, "fanfare")
		}
		g.player.Stop()
		g.mode = loopNone
		g.scheduleAdvanceLocked()
	}
}

func (g *Game) scheduleAdvance() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scheduleAdvanceLocked()
}

func (g *Game) scheduleAdvanceLocked() {
	if g.advance != nil {
		return
	}
	g.advance = g.timers.AfterFunc(g.opts.ChapterDelay, g.nextChapter)
}

// nextChapter clears the staff and deals fresh cards, or finishes the game
func (g *Game) nextChapter() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.advance = nil
	g.player.Stop()
	g.mode = loopNone
	g.staff.Clear()
	g.pool = nil
	g.tracker.Reset()

	g.chapter++
	if g.chapter >= len(g.opts.Chapters) {
		g.phase = Finished
		debug.Info("game", "all chapters cleared")
		g.notify()
		return
	}
	g.phase = Building
	g.deal()
	ch := g.currentChapter()
	debug.Info("game", "chapter %d %q: target %d points over %d measures", g.chapter+1, ch.Title, ch.TargetScore, ch.TargetMeasures)
	g.notify()
}

func unknownCard(id card.ID) error {
	return fault.New(fmt.Sprintf("card %d not found", id),
		ftag.With(ftag.NotFound),
		fmsg.WithDesc(fmt.Sprintf("card %d not found", id), "That card is no longer available."),
	)
}
