package playback

import (
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"go-melodycards/debug"
	"go-melodycards/melody"
)

// Position ticker rate
const positionFPS = 60

// maxLead is how early a continuation fires before the next pass starts
const maxLead = 100 * time.Millisecond

// State of the player
type State int

const (
	Idle State = iota
	Scheduled
	Looping
	PlayingOnce
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scheduled:
		return "scheduled"
	case Looping:
		return "looping"
	case PlayingOnce:
		return "playing-once"
	default:
		return "unknown"
	}
}

// Options for Play
type Options struct {
	SingleLoop bool    // play one pass then stop
	OnComplete func()  // called after a single pass finishes; never for loops
	Amplitude  float64 // 0 means DefaultAmplitude
}

// Session is one Play call. The player owns it; callers get copies via Current.
type Session struct {
	ID          uuid.UUID
	Events      []melody.Event
	Tempo       float64
	First, Last int       // eighth-note range of the loop
	Anchor      float64   // device time of pass 0
	StartWall   time.Time // wall time matching Anchor
	LoopSeconds float64
	Looping     bool

	active     bool
	amplitude  float64
	onComplete func()
	next       int // next pass to schedule
	triggers   int
	skipped    int
	timers     map[uint64]Timer
	timerSeq   uint64
}

// Triggers is how many triggers this session has sent
func (s Session) Triggers() int { return s.triggers }

// Skipped is how many passes were dropped because a continuation ran late
func (s Session) Skipped() int { return s.skipped }

// Player runs at most one playback session at a time
type Player struct {
	device Device
	timers Timers
	now    func() time.Time

	mu      sync.Mutex
	limit   float64 // longest accepted loop, 0 for MaxLoopSeconds
	session *Session
	cursor  float64 // eighth-note offset of the playhead, -1 when idle

	// Notify listeners of position and state changes
	UpdateChan chan struct{}
}

// NewPlayer creates a player. Nil timers and now use the real clock.
func NewPlayer(device Device, timers Timers, now func() time.Time) *Player {
	if timers == nil {
		timers = RealTimers{}
	}
	if now == nil {
		now = time.Now
	}
	return &Player{
		device:     device,
		timers:     timers,
		now:        now,
		cursor:     -1,
		UpdateChan: make(chan struct{}, 1),
	}
}

// SetLoopLimit sets the longest loop Play accepts. Games pass the length of a
// full staff so any melody that fits on it can loop.
func (p *Player) SetLoopLimit(seconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.limit = seconds
}

// Play replaces any running session with a new one over events. An empty
// event list does nothing and leaves the current session playing.
func (p *Player) Play(events []melody.Event, tempo float64, opts Options) error {
	p.mu.Lock()
	limit := p.limit
	p.mu.Unlock()

	loop, err := LoopSecondsWithin(events, tempo, limit)
	if err != nil {
		debug.Error("playback", err, "play aborted")
		return err
	}
	if len(events) == 0 {
		debug.Log("playback", "nothing to play")
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// the old session is fully torn down before anything new is scheduled
	p.stopLocked()

	first, last, _ := melody.Range(events)
	amp := opts.Amplitude
	if amp <= 0 {
		amp = DefaultAmplitude
	}
	s := &Session{
		ID:          uuid.New(),
		Events:      append([]melody.Event(nil), events...),
		Tempo:       tempo,
		First:       first,
		Last:        last,
		Anchor:      p.device.Now() + Latency,
		StartWall:   p.now().Add(seconds(Latency)),
		LoopSeconds: loop,
		Looping:     !opts.SingleLoop,
		active:      true,
		amplitude:   amp,
		onComplete:  opts.OnComplete,
		timers:      make(map[uint64]Timer),
	}
	p.session = s
	p.cursor = float64(first)

	p.schedulePass(s, 0)
	s.next = 1
	if s.Looping {
		p.armContinuation(s)
	} else {
		p.after(s, seconds(Latency+loop), func() func() {
			debug.Log("playback", "session %s finished", s.ID)
			done := s.onComplete
			p.stopLocked()
			p.notify()
			return done
		})
	}
	p.after(s, time.Second/positionFPS, func() func() {
		p.tick(s)
		return nil
	})

	debug.Log("playback", "session %s: %d events, %.3fs loop, looping=%v", s.ID, len(events), loop, s.Looping)
	p.notify()
	return nil
}

// Stop cancels the running session and silences the device
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopLocked() {
		p.notify()
	}
}

func (p *Player) stopLocked() bool {
	s := p.session
	if s == nil {
		return false
	}
	// in-flight callbacks check this before acting
	s.active = false
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	p.device.Silence()
	p.session = nil
	p.cursor = -1
	debug.Log("playback", "session %s stopped after %d triggers", s.ID, s.triggers)
	return true
}

// State reports where the player is in its lifecycle
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.session
	switch {
	case s == nil:
		return Idle
	case p.now().Before(s.StartWall):
		return Scheduled
	case s.Looping:
		return Looping
	default:
		return PlayingOnce
	}
}

// Playing reports whether a session is active
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session != nil
}

// Current returns a copy of the active session
func (p *Player) Current() (Session, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return Session{}, false
	}
	cp := *p.session
	cp.timers = nil
	return cp, true
}

// Position is the playhead in eighth notes as of the last tick
func (p *Player) Position() (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor, p.session != nil
}

func (p *Player) schedulePass(s *Session, pass int) {
	anchor := s.Anchor + float64(pass)*s.LoopSeconds
	for _, t := range Schedule(s.Events, s.Tempo, anchor) {
		t.Amplitude = s.amplitude
		p.device.Trigger(t)
		s.triggers++
	}
	debug.LogEvery(16, "playback", "session %s pass %d at %.3f", s.ID, pass, anchor)
}

// armContinuation sets a timer shortly before pass s.next is due. Due times
// come from the anchor, never from the previous timer, so drift does not add up.
func (p *Player) armContinuation(s *Session) {
	lead := seconds(s.LoopSeconds / 2)
	if lead > maxLead {
		lead = maxLead
	}
	due := s.StartWall.Add(seconds(float64(s.next)*s.LoopSeconds) - lead)
	delay := due.Sub(p.now())
	if delay < 0 {
		delay = 0
	}
	p.after(s, delay, func() func() {
		p.continueLoop(s)
		return nil
	})
}

func (p *Player) continueLoop(s *Session) {
	elapsed := p.now().Sub(s.StartWall).Seconds()
	pass := int(math.Floor(elapsed/s.LoopSeconds)) + 1
	if pass < s.next {
		pass = s.next
	}
	if pass > s.next {
		s.skipped += pass - s.next
		debug.Warn("playback", "session %s skipped %d late passes", s.ID, pass-s.next)
		p.notify()
	}
	p.schedulePass(s, pass)
	s.next = pass + 1
	p.armContinuation(s)
}

// tick recomputes the playhead from wall time. UI feedback only.
func (p *Player) tick(s *Session) {
	elapsed := p.now().Sub(s.StartWall).Seconds()
	switch {
	case elapsed < 0:
		elapsed = 0
	case s.Looping:
		elapsed = math.Mod(elapsed, s.LoopSeconds)
	case elapsed > s.LoopSeconds:
		elapsed = s.LoopSeconds
	}
	p.cursor = float64(s.First) + elapsed/EighthSeconds(s.Tempo)
	p.notify()
	p.after(s, time.Second/positionFPS, func() func() {
		p.tick(s)
		return nil
	})
}

// after registers a timer on the session. fn runs under the lock only while
// the session is still the active one; whatever it returns runs after unlock.
func (p *Player) after(s *Session, d time.Duration, fn func() func()) {
	id := s.timerSeq
	s.timerSeq++
	s.timers[id] = p.timers.AfterFunc(d, func() {
		p.mu.Lock()
		delete(s.timers, id)
		if !s.active || p.session != s {
			p.mu.Unlock()
			return
		}
		then := fn()
		p.mu.Unlock()
		if then != nil {
			then()
		}
	})
}

func (p *Player) notify() {
	select {
	case p.UpdateChan <- struct{}{}:
	default:
	}
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}
