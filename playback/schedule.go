package playback

import (
	"fmt"
	"math"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"

	"go-melodycards/melody"
)

const (
	// Latency is added to the device clock before the first note
	Latency = 0.010
	// MaxLoopSeconds bounds a plausible loop when no staff limit is known
	MaxLoopSeconds = 60.0
	// DefaultAmplitude is the gain of a single voice
	DefaultAmplitude = 0.3
)

// EighthSeconds is the length of an eighth note at tempo
func EighthSeconds(tempo float64) float64 {
	return 60 / tempo / 2
}

// ValidateTempo rejects tempos that cannot produce timing
func ValidateTempo(tempo float64) error {
	if math.IsNaN(tempo) || math.IsInf(tempo, 0) || tempo <= 0 {
		return fault.New(
			fmt.Sprintf("invalid tempo %v", tempo),
			ftag.With(ftag.InvalidArgument),
			fmsg.WithDesc("invalid tempo", "Tempo must be a positive number."),
		)
	}
	return nil
}

// LoopLimit is the longest loop a staff of capacity eighth notes can produce
// at tempo, and never less than MaxLoopSeconds
func LoopLimit(capacity int, tempo float64) float64 {
	return max(MaxLoopSeconds, float64(capacity)*EighthSeconds(tempo))
}

// LoopSeconds is the length of one pass over the events' range, bounded by
// MaxLoopSeconds
func LoopSeconds(events []melody.Event, tempo float64) (float64, error) {
	return LoopSecondsWithin(events, tempo, MaxLoopSeconds)
}

// LoopSecondsWithin is LoopSeconds with an explicit upper bound. A limit of
// zero or less means MaxLoopSeconds.
func LoopSecondsWithin(events []melody.Event, tempo, limit float64) (float64, error) {
	if err := ValidateTempo(tempo); err != nil {
		return 0, err
	}
	if limit <= 0 {
		limit = MaxLoopSeconds
	}
	first, last, ok := melody.Range(events)
	if !ok {
		return 0, nil
	}
	loop := float64(last-first) * EighthSeconds(tempo)
	if loop <= 0 || loop > limit {
		return 0, fault.New(
			fmt.Sprintf("loop duration %.3fs out of range (0, %.3fs]", loop, limit),
			ftag.With(ftag.Internal),
		)
	}
	return loop, nil
}

// Schedule converts events to device triggers for one pass starting at
// anchor. The first event's offset lands on anchor; leading silence is not
// part of the loop.
func Schedule(events []melody.Event, tempo, anchor float64) []Trigger {
	first, _, ok := melody.Range(events)
	if !ok {
		return nil
	}
	eighth := EighthSeconds(tempo)
	out := make([]Trigger, len(events))
	for i, e := range events {
		out[i] = Trigger{
			Pitch:     e.Pitch,
			Key:       melody.MIDIKey(e.Pitch),
			Frequency: melody.Frequency(e.Pitch),
			At:        anchor + float64(e.Start-first)*eighth,
			Duration:  float64(e.Duration) * eighth,
			Amplitude: DefaultAmplitude,
		}
	}
	return out
}

// Render lays out loops passes back to back from time zero, with no device
// involved. Used for file export. limit bounds one pass as in
// LoopSecondsWithin.
func Render(events []melody.Event, tempo float64, loops int, limit float64) ([]Trigger, error) {
	loop, err := LoopSecondsWithin(events, tempo, limit)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	if loops < 1 {
		loops = 1
	}
	out := make([]Trigger, 0, len(events)*loops)
	for i := 0; i < loops; i++ {
		out = append(out, Schedule(events, tempo, float64(i)*loop)...)
	}
	return out, nil
}
