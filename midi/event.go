package midi

import (
	"sort"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// MIDI message types
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
	CC      uint8 = 0xB0

	// AllNotesOff is the channel mode controller that releases every key
	AllNotesOff uint8 = 123
)

// Event is one channel message at an absolute tick
type Event struct {
	Tick     uint32
	Type     uint8 // NoteOn, NoteOff, CC
	Channel  uint8
	Note     uint8 // key, or controller number for CC
	Velocity uint8 // velocity, or controller value for CC
}

// Message encodes the event for a port or file
func (e Event) Message() gomidi.Message {
	switch e.Type {
	case NoteOn:
		return gomidi.NoteOn(e.Channel, e.Note, e.Velocity)
	case NoteOff:
		return gomidi.NoteOff(e.Channel, e.Note)
	default:
		return gomidi.ControlChange(e.Channel, e.Note, e.Velocity)
	}
}

// Velocity maps a 0-1 amplitude to 1-127
func Velocity(amp float64) uint8 {
	v := int(amp*127 + 0.5)
	if v < 1 {
		v = 1
	}
	if v > 127 {
		v = 127
	}
	return uint8(v)
}

// sortEvents orders by tick with note-offs first so a repeated key is
// released before it sounds again
func sortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Tick != events[j].Tick {
			return events[i].Tick < events[j].Tick
		}
		return events[i].Type == NoteOff && events[j].Type != NoteOff
	})
}
