package midi

import (
	"bytes"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/Southclaws/fault/ftag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"go-melodycards/config"
	"go-melodycards/melody"
	"go-melodycards/playback"
)

type fakeTimer struct {
	due     float64
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped && !t.fired
	t.stopped = true
	return was
}

// fakeClock is both the device clock and the timer source, in seconds
type fakeClock struct {
	now    float64
	timers []*fakeTimer
}

func (c *fakeClock) Now() float64 { return c.now }

func (c *fakeClock) AfterFunc(d time.Duration, f func()) playback.Timer {
	t := &fakeTimer{due: c.now + d.Seconds(), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) advance(s float64) {
	c.now += s
	for {
		var due []*fakeTimer
		for _, t := range c.timers {
			if !t.stopped && !t.fired && t.due <= c.now+1e-9 {
				due = append(due, t)
			}
		}
		if len(due) == 0 {
			return
		}
		sort.SliceStable(due, func(i, j int) bool { return due[i].due < due[j].due })
		due[0].fired = true
		due[0].f()
	}
}

type recorder struct {
	sent   []Event
	closed int
	fail   bool
}

func (r *recorder) send(m gomidi.Message) error {
	if r.fail {
		return errors.New("port gone")
	}
	r.sent = append(r.sent, decode(m))
	return nil
}

func (r *recorder) close() error {
	r.closed++
	return nil
}

func decode(m gomidi.Message) Event {
	var ch, key, val uint8
	switch {
	case m.GetNoteOn(&ch, &key, &val):
		return Event{Type: NoteOn, Channel: ch, Note: key, Velocity: val}
	case m.GetNoteOff(&ch, &key, &val):
		return Event{Type: NoteOff, Channel: ch, Note: key}
	case m.GetControlChange(&ch, &key, &val):
		return Event{Type: CC, Channel: ch, Note: key, Velocity: val}
	}
	return Event{}
}

func newTestOutput() (*Output, *recorder, *fakeClock) {
	r := &recorder{}
	clk := &fakeClock{now: 10}
	return NewOutput("test", r.send, r.close, clk, clk), r, clk
}

func trig(pitch string, at, dur float64) playback.Trigger {
	return playback.Trigger{Pitch: pitch, Key: melody.MIDIKey(pitch), At: at, Duration: dur, Amplitude: 0.5}
}

func TestVelocity(t *testing.T) {
	assert.Equal(t, uint8(1), Velocity(0))
	assert.Equal(t, uint8(64), Velocity(0.5))
	assert.Equal(t, uint8(127), Velocity(1))
	assert.Equal(t, uint8(127), Velocity(3))
}

func TestOutputSendsNoteOnAndOff(t *testing.T) {
	out, rec, clk := newTestOutput()
	out.Trigger(trig("C4", 10.5, 0.25))

	clk.advance(0.4)
	assert.Empty(t, rec.sent)

	clk.advance(0.1)
	require.Len(t, rec.sent, 1)
	assert.Equal(t, Event{Type: NoteOn, Note: 60, Velocity: 64}, rec.sent[0])

	clk.advance(0.25)
	require.Len(t, rec.sent, 2)
	assert.Equal(t, Event{Type: NoteOff, Note: 60}, rec.sent[1])
}

func TestOutputRepeatedKey(t *testing.T) {
	out, rec, clk := newTestOutput()
	out.Trigger(trig("E4", 10, 1))
	out.Trigger(trig("E4", 11, 1))

	clk.advance(2)
	var types []uint8
	for _, e := range rec.sent {
		types = append(types, e.Type)
	}
	assert.Equal(t, []uint8{NoteOn, NoteOff, NoteOn, NoteOff}, types)
}

func TestOutputOverlapRetriggers(t *testing.T) {
	out, rec, clk := newTestOutput()
	out.Trigger(trig("G4", 10, 2))
	out.Trigger(trig("G4", 11, 2))

	clk.advance(1)
	// second note-on releases the first
	require.Len(t, rec.sent, 3)
	assert.Equal(t, NoteOff, rec.sent[1].Type)
	assert.Equal(t, NoteOn, rec.sent[2].Type)

	clk.advance(1)
	assert.Len(t, rec.sent, 3, "first note end keeps the retriggered key")
	clk.advance(1)
	require.Len(t, rec.sent, 4)
	assert.Equal(t, NoteOff, rec.sent[3].Type)
}

func TestOutputSilence(t *testing.T) {
	out, rec, clk := newTestOutput()
	out.Trigger(trig("A4", 10, 1))
	out.Trigger(trig("B4", 12, 1))
	clk.advance(0.5)
	require.Len(t, rec.sent, 1)

	out.Silence()
	require.Len(t, rec.sent, 3)
	assert.Equal(t, Event{Type: NoteOff, Note: 69}, rec.sent[1])
	assert.Equal(t, Event{Type: CC, Note: AllNotesOff}, rec.sent[2])

	clk.advance(5)
	assert.Len(t, rec.sent, 3, "queued notes never sound")
}

func TestOutputClose(t *testing.T) {
	out, rec, clk := newTestOutput()
	require.NoError(t, out.Close())
	require.NoError(t, out.Close())
	assert.Equal(t, 1, rec.closed)

	before := len(rec.sent)
	out.Trigger(trig("C4", 10, 1))
	clk.advance(2)
	assert.Len(t, rec.sent, before)
}

func TestOutputSurvivesSendErrors(t *testing.T) {
	out, rec, clk := newTestOutput()
	rec.fail = true
	out.Trigger(trig("C4", 10, 0.5))
	clk.advance(1)
	assert.Empty(t, rec.sent)
}

type note struct {
	tick uint32
	typ  uint8
	key  uint8
}

func readNotes(t *testing.T, s *smf.SMF) []note {
	t.Helper()
	require.Len(t, s.Tracks, 2)
	var out []note
	var abs uint32
	for _, ev := range s.Tracks[1] {
		abs += ev.Delta
		var ch, key, vel uint8
		switch {
		case ev.Message.GetNoteOn(&ch, &key, &vel):
			out = append(out, note{abs, NoteOn, key})
		case ev.Message.GetNoteOff(&ch, &key, &vel):
			out = append(out, note{abs, NoteOff, key})
		}
	}
	return out
}

func TestWriteSMF(t *testing.T) {
	events := []melody.Event{
		{Pitch: "C4", Start: 16, Duration: 4},
		{Pitch: "E4", Start: 20, Duration: 2},
	}
	var buf bytes.Buffer
	err := WriteSMF(&buf, events, Export{
		Tempo:         120,
		TimeSignature: config.TimeSignature{Numerator: 3, Denominator: 4},
		Loops:         2,
	})
	require.NoError(t, err)

	s, err := smf.ReadFrom(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	ticks, ok := s.TimeFormat.(smf.MetricTicks)
	require.True(t, ok)
	assert.Equal(t, uint16(Resolution), uint16(ticks))

	tempos := s.TempoChanges()
	require.NotEmpty(t, tempos)
	assert.InDelta(t, 120, tempos[0].BPM, 0.01)

	// six eighths per pass, 480 ticks each
	assert.Equal(t, []note{
		{0, NoteOn, 60},
		{1920, NoteOff, 60},
		{1920, NoteOn, 64},
		{2880, NoteOff, 64},
		{2880, NoteOn, 60},
		{4800, NoteOff, 60},
		{4800, NoteOn, 64},
		{5760, NoteOff, 64},
	}, readNotes(t, s))
}

func TestWriteSMFRejectsEmptyMelody(t *testing.T) {
	var buf bytes.Buffer
	err := WriteSMF(&buf, nil, Export{Tempo: 120})
	require.Error(t, err)
	assert.Equal(t, ftag.InvalidArgument, ftag.Get(err))
	assert.Zero(t, buf.Len())

	err = WriteSMF(&buf, []melody.Event{{Pitch: "C4", Duration: 1}}, Export{})
	assert.Equal(t, ftag.InvalidArgument, ftag.Get(err))
}
