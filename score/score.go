package score

import (
	"go-melodycards/card"
	"go-melodycards/debug"
	"go-melodycards/melody"
)

const (
	// MeasureBase is awarded for every completed measure
	MeasureBase = 100
	// MeasureStep grows the award with each measure completed
	MeasureStep = 10
	// FusionBonus is awarded once for each rhythm+pitch pair fused
	FusionBonus = 50
)

type pair struct{ rhythm, pitch card.ID }

// Tracker accumulates points for one chapter. Each measure index and each
// fused pair pays out at most once per chapter.
type Tracker struct {
	score   int
	awarded map[int]bool
	fused   map[pair]bool
}

func NewTracker() *Tracker {
	return &Tracker{awarded: make(map[int]bool), fused: make(map[pair]bool)}
}

// MeasureCompleted awards a newly completed measure and returns the points.
// The award counts this measure, so the first one is worth 110. Awarding the
// same index twice gives nothing.
func (t *Tracker) MeasureCompleted(index int) int {
	if t.awarded[index] {
		return 0
	}
	t.awarded[index] = true
	pts := MeasureBase + len(t.awarded)*MeasureStep
	t.score += pts
	debug.Log("score", "measure %d: +%d (total %d)", index, pts, t.score)
	return pts
}

// CardsFused awards the fusion bonus for a rhythm and pitch card joined for
// the first time this chapter. Splitting and rejoining the same pair gives
// nothing.
func (t *Tracker) CardsFused(rhythm, pitch card.ID) int {
	k := pair{rhythm, pitch}
	if t.fused[k] {
		debug.Log("score", "fusion %d+%d already paid", rhythm, pitch)
		return 0
	}
	t.fused[k] = true
	t.score += FusionBonus
	debug.Log("score", "fusion %d+%d: +%d (total %d)", rhythm, pitch, FusionBonus, t.score)
	return FusionBonus
}

func (t *Tracker) Score() int    { return t.score }
func (t *Tracker) Measures() int { return len(t.awarded) }
func (t *Tracker) Fusions() int  { return len(t.fused) }

// Reset zeroes everything for a new chapter
func (t *Tracker) Reset() {
	t.score = 0
	t.awarded = make(map[int]bool)
	t.fused = make(map[pair]bool)
}

// Chapter is one level's goal
type Chapter struct {
	Title          string `json:"title"`
	TargetScore    int    `json:"targetScore"`
	TargetMeasures int    `json:"targetMeasures"`
}

// Complete reports whether score and melody reach both targets
func (c Chapter) Complete(score, span int) bool {
	return span >= c.TargetMeasures && score >= c.TargetScore
}

// PlayableSpan counts measures from the first to the last one the melody
// touches, inclusive. Gaps count.
func PlayableSpan(events []melody.Event, eighthsPerMeasure int) int {
	first, last, ok := melody.Range(events)
	if !ok || eighthsPerMeasure <= 0 {
		return 0
	}
	return (last-1)/eighthsPerMeasure - first/eighthsPerMeasure + 1
}
