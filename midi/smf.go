package midi

import (
	"io"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"gitlab.com/gomidi/midi/v2/smf"

	"go-melodycards/config"
	"go-melodycards/melody"
)

// Resolution is ticks per quarter note in exported files
const Resolution = 960

// exportVelocity matches the loudness of a single synth voice
const exportVelocity = 100

// Export describes a melody file
type Export struct {
	Tempo         float64
	TimeSignature config.TimeSignature
	Loops         int // passes over the melody, at least 1
}

// WriteSMF writes events as a Standard MIDI File: a tempo track and one note
// track. Leading silence is dropped the same way playback drops it, and each
// grid unit lasts an eighth note.
func WriteSMF(w io.Writer, events []melody.Event, ex Export) error {
	first, last, ok := melody.Range(events)
	if !ok {
		return fault.New("no events to export",
			ftag.With(ftag.InvalidArgument),
			fmsg.WithDesc("no events to export", "There is no melody to export yet."),
		)
	}
	if ex.Tempo <= 0 {
		return fault.New("export tempo must be positive", ftag.With(ftag.InvalidArgument))
	}
	if !ex.TimeSignature.Valid() {
		ex.TimeSignature = config.TimeSignature{Numerator: 4, Denominator: 4}
	}
	if ex.Loops < 1 {
		ex.Loops = 1
	}

	ticks := smf.MetricTicks(Resolution)
	unit := ticks.Ticks8th()
	span := uint32(last - first)

	var notes []Event
	for loop := 0; loop < ex.Loops; loop++ {
		base := uint32(loop) * span
		for _, e := range events {
			key := melody.MIDIKey(e.Pitch)
			on := (base + uint32(e.Start-first)) * unit
			notes = append(notes,
				Event{Tick: on, Type: NoteOn, Note: key, Velocity: exportVelocity},
				Event{Tick: on + uint32(e.Duration)*unit, Type: NoteOff, Note: key},
			)
		}
	}
	sortEvents(notes)

	s := smf.New()
	s.TimeFormat = ticks

	var tempo smf.Track
	tempo.Add(0, smf.MetaMeter(uint8(ex.TimeSignature.Numerator), uint8(ex.TimeSignature.Denominator)))
	tempo.Add(0, smf.MetaTempo(ex.Tempo))
	tempo.Close(0)
	if err := s.Add(tempo); err != nil {
		return fault.Wrap(err, fmsg.With("add tempo track"))
	}

	var track smf.Track
	var prev uint32
	for _, n := range notes {
		track.Add(n.Tick-prev, n.Message())
		prev = n.Tick
	}
	track.Close(uint32(ex.Loops)*span*unit - prev)
	if err := s.Add(track); err != nil {
		return fault.Wrap(err, fmsg.With("add note track"))
	}

	if _, err := s.WriteTo(w); err != nil {
		return fault.Wrap(err, fmsg.With("write midi file"))
	}
	return nil
}
