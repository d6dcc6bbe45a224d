package melody

import (
	"sort"

	"go-melodycards/card"
	"go-melodycards/staff"
)

// Event is one note in eighth-note units
type Event struct {
	Pitch    string `json:"pitch"`
	Start    int    `json:"start"`
	Duration int    `json:"duration"`
}

// End is the first offset after the note
func (e Event) End() int { return e.Start + e.Duration }

// Compile flattens placements into events sorted by start. Ties keep
// placement order. Lone rhythm cards are silent.
func Compile(placements []staff.Placement, pitchUnits int) []Event {
	if pitchUnits <= 0 {
		pitchUnits = card.DefaultPitchUnits
	}

	var events []Event
	for _, p := range placements {
		switch sh := p.Shape.(type) {
		case staff.Fused:
			events = append(events, expandFused(p.Start, sh)...)
		case staff.Single:
			if sh.Card.Kind == card.Pitch {
				events = append(events, expandPitch(p.Start, sh.Card, pitchUnits)...)
			}
		}
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].Start < events[j].Start })
	return events
}

// CompileStaff compiles every placement on the staff
func CompileStaff(s *staff.Staff) []Event {
	return Compile(s.Placements(), s.PitchUnits())
}

// CompileCompleted compiles placements that touch a completed measure
func CompileCompleted(s *staff.Staff) []Event {
	return Compile(s.CompletedPlacements(), s.PitchUnits())
}

// expandFused walks the rhythm, taking one pitch per duration. Rhythm longer
// than pitch repeats the last pitch; surplus pitches are dropped.
func expandFused(start int, f staff.Fused) []Event {
	pitches := f.Pitch.Pitches
	if len(pitches) == 0 {
		return nil
	}
	out := make([]Event, 0, len(f.Rhythm.Rhythm))
	at := start
	for i, d := range f.Rhythm.Rhythm {
		pitch := pitches[len(pitches)-1]
		if i < len(pitches) {
			pitch = pitches[i]
		}
		out = append(out, Event{Pitch: pitch, Start: at, Duration: d})
		at += d
	}
	return out
}

func expandPitch(start int, c *card.Card, unit int) []Event {
	out := make([]Event, len(c.Pitches))
	for i, pitch := range c.Pitches {
		out[i] = Event{Pitch: pitch, Start: start + i*unit, Duration: unit}
	}
	return out
}

// Range returns the loop span [first, last) of the events
func Range(events []Event) (first, last int, ok bool) {
	if len(events) == 0 {
		return 0, 0, false
	}
	first, last = events[0].Start, events[0].End()
	for _, e := range events[1:] {
		if e.Start < first {
			first = e.Start
		}
		if e.End() > last {
			last = e.End()
		}
	}
	return first, last, true
}

// Preview builds the events for a card played on its own: pitch cards at the
// pitch unit, rhythm cards on clickPitch
func Preview(c *card.Card, pitchUnits int, clickPitch string) []Event {
	if c.Kind == card.Pitch {
		return expandPitch(0, c, pitchUnits)
	}
	out := make([]Event, 0, len(c.Rhythm))
	at := 0
	for _, d := range c.Rhythm {
		out = append(out, Event{Pitch: clickPitch, Start: at, Duration: d})
		at += d
	}
	return out
}
