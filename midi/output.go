package midi

import (
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"

	"go-melodycards/debug"
	"go-melodycards/melody"
	"go-melodycards/playback"
)

// Output sounds triggers on an external MIDI instrument. Notes are sent from
// timers against its clock, so it works as a playback device.
type Output struct {
	name    string
	channel uint8
	send    func(gomidi.Message) error
	close   func() error
	clock   playback.Clock
	timers  playback.Timers

	mu       sync.Mutex
	pending  map[uint64]playback.Timer
	seq      uint64
	sounding map[uint8]int
	closed   bool
}

// NewOutput wraps a send function. closeFn may be nil.
func NewOutput(name string, send func(gomidi.Message) error, closeFn func() error, clock playback.Clock, timers playback.Timers) *Output {
	return &Output{
		name:     name,
		send:     send,
		close:    closeFn,
		clock:    clock,
		timers:   timers,
		pending:  make(map[uint64]playback.Timer),
		sounding: make(map[uint8]int),
	}
}

func (o *Output) Name() string { return o.name }

func (o *Output) Now() float64 { return o.clock.Now() }

// Trigger schedules the key's note-on and note-off
func (o *Output) Trigger(t playback.Trigger) {
	key := t.Key
	if key == 0 && t.Pitch != "" {
		key = melody.MIDIKey(t.Pitch)
	}
	vel := Velocity(t.Amplitude)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	now := o.clock.Now()
	o.at(t.At-now, func() {
		if o.sounding[key] > 0 {
			// retrigger
			o.write(Event{Type: NoteOff, Channel: o.channel, Note: key})
		}
		o.sounding[key]++
		o.write(Event{Type: NoteOn, Channel: o.channel, Note: key, Velocity: vel})
	})
	o.at(t.End()-now, func() {
		if o.sounding[key] == 0 {
			return
		}
		o.sounding[key]--
		if o.sounding[key] == 0 {
			delete(o.sounding, key)
			o.write(Event{Type: NoteOff, Channel: o.channel, Note: key})
		}
	})
}

// Silence cancels queued notes and releases every sounding key
func (o *Output) Silence() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.silenceLocked()
}

func (o *Output) silenceLocked() {
	for id, t := range o.pending {
		t.Stop()
		delete(o.pending, id)
	}
	for key := range o.sounding {
		o.write(Event{Type: NoteOff, Channel: o.channel, Note: key})
	}
	o.sounding = make(map[uint8]int)
	o.write(Event{Type: CC, Channel: o.channel, Note: AllNotesOff})
}

// Close silences the instrument and closes the port
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}
	o.silenceLocked()
	o.closed = true
	if o.close != nil {
		return o.close()
	}
	return nil
}

// at runs fn under mu after delay seconds; caller holds mu
func (o *Output) at(delay float64, fn func()) {
	if delay < 0 {
		delay = 0
	}
	o.seq++
	id := o.seq
	o.pending[id] = o.timers.AfterFunc(time.Duration(delay*float64(time.Second)), func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if _, ok := o.pending[id]; !ok {
			return
		}
		delete(o.pending, id)
		fn()
	})
}

// write sends one message; caller holds mu
func (o *Output) write(e Event) {
	if err := o.send(e.Message()); err != nil {
		debug.LogEvery(16, "midi", "send to %s failed: %v", o.name, err)
	}
}
