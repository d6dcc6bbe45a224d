package game

import (
	"context"
	"sync"
	"time"

	"github.com/bep/debounce"

	"go-melodycards/card"
	"go-melodycards/config"
	"go-melodycards/debug"
	"go-melodycards/melody"
	"go-melodycards/playback"
	"go-melodycards/score"
	"go-melodycards/staff"
)

// ClickPitch is what a rhythm card sounds like on its own
const ClickPitch = "C5"

// Options configures a game
type Options struct {
	Tempo        float64
	Staff        staff.Options
	RefillBelow  int // deal another card when the pool has fewer of a kind
	DealSize     int // cards of each kind at chapter start
	PreviewDelay time.Duration
	ChapterDelay time.Duration
	Amplitude    float64
	Chapters     []score.Chapter
	Seed         int64
}

// OptionsFromConfig maps the config file onto game options
func OptionsFromConfig(cfg *config.Config) Options {
	policy := staff.RejectOnFused
	if cfg.FusedDrop == config.FusedDropReplace {
		policy = staff.ReplaceOnFused
	}
	chapters := make([]score.Chapter, len(cfg.Chapters))
	for i, c := range cfg.Chapters {
		chapters[i] = score.Chapter{Title: c.Title, TargetScore: c.TargetScore, TargetMeasures: c.TargetMeasures}
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return Options{
		Tempo: cfg.Tempo,
		Staff: staff.Options{
			EighthNotesPerMeasure: cfg.TimeSignature.EighthNotesPerMeasure(),
			MaxMeasures:           cfg.MaxMeasures,
			SnapTolerance:         cfg.SnapTolerance,
			PitchUnits:            cfg.PitchUnits,
			FusedDrop:             policy,
		},
		RefillBelow:  cfg.RefillBelow,
		DealSize:     cfg.DealSize,
		PreviewDelay: time.Duration(cfg.PreviewDelayMS) * time.Millisecond,
		ChapterDelay: time.Duration(cfg.ChapterDelayMS) * time.Millisecond,
		Amplitude:    cfg.Audio.Volume,
		Chapters:     chapters,
		Seed:         seed,
	}
}

// Phase of the current chapter
type Phase int

const (
	Building Phase = iota // placing cards
	Cleared               // fanfare and transition
	Finished              // no chapters left
)

func (p Phase) String() string {
	switch p {
	case Building:
		return "building"
	case Cleared:
		return "cleared"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// loopMode says what the running loop was compiled from
type loopMode int

const (
	loopNone loopMode = iota
	loopCompleted
	loopStaff
	loopFanfare
	loopPreview
)

// Game owns the staff, the pool, the score and the player. Every command
// goes through its lock.
type Game struct {
	opts   Options
	timers playback.Timers

	mu      sync.Mutex
	staff   *staff.Staff
	tracker *score.Tracker
	player  *playback.Player
	gen     *card.Generator
	pool    []*card.Card // cards not on the staff, in deal order
	chapter int
	phase   Phase
	mode    loopMode
	advance playback.Timer

	previewDebounce func(func())

	// Notify UIs of state changes
	UpdateChan chan struct{}
}

// New creates a game and deals the first chapter. Nil timers and now use
// the real clock.
func New(opts Options, device playback.Device, timers playback.Timers, now func() time.Time) (*Game, error) {
	s, err := staff.New(opts.Staff)
	if err != nil {
		return nil, err
	}
	if timers == nil {
		timers = playback.RealTimers{}
	}
	if err := playback.ValidateTempo(opts.Tempo); err != nil {
		return nil, err
	}
	if len(opts.Chapters) == 0 {
		opts.Chapters = defaultChapters()
	}
	if opts.DealSize <= 0 {
		opts.DealSize = 3
	}

	g := &Game{
		opts:            opts,
		timers:          timers,
		staff:           s,
		tracker:         score.NewTracker(),
		player:          playback.NewPlayer(device, timers, now),
		gen:             card.NewGenerator(opts.Seed),
		previewDebounce: debounce.New(opts.PreviewDelay),
		UpdateChan:      make(chan struct{}, 1),
	}
	// any melody that fits on the staff must be playable as one loop
	g.player.SetLoopLimit(playback.LoopLimit(s.Capacity(), opts.Tempo))
	g.deal()
	debug.Log("game", "chapter %d %q: target %d points over %d measures",
		g.chapter+1, g.currentChapter().Title, g.currentChapter().TargetScore, g.currentChapter().TargetMeasures)
	return g, nil
}

func defaultChapters() []score.Chapter {
	var out []score.Chapter
	for _, c := range config.DefaultChapters() {
		out = append(out, score.Chapter{Title: c.Title, TargetScore: c.TargetScore, TargetMeasures: c.TargetMeasures})
	}
	return out
}

// Run refills the pool on an interval and forwards player updates until ctx
// is done
func (g *Game) Run(ctx context.Context, refillEvery time.Duration) {
	ticker := time.NewTicker(refillEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			g.Stop()
			return
		case <-ticker.C:
			g.mu.Lock()
			dealt := g.refill()
			g.mu.Unlock()
			if dealt > 0 {
				g.notify()
			}
		case <-g.player.UpdateChan:
			g.notify()
		}
	}
}

// Staff returns the staff for read-only queries
func (g *Game) Staff() *staff.Staff { return g.staff }

// Tempo is the playback tempo
func (g *Game) Tempo() float64 { return g.opts.Tempo }

// Player exposes playback state
func (g *Game) Player() *playback.Player { return g.player }

func (g *Game) currentChapter() score.Chapter {
	if g.chapter >= len(g.opts.Chapters) {
		return g.opts.Chapters[len(g.opts.Chapters)-1]
	}
	return g.opts.Chapters[g.chapter]
}

// deal hands out a fresh chapter's cards
func (g *Game) deal() {
	for i := 0; i < g.opts.DealSize; i++ {
		g.pool = append(g.pool, g.gen.Deal(card.Rhythm))
	}
	for i := 0; i < g.opts.DealSize; i++ {
		g.pool = append(g.pool, g.gen.Deal(card.Pitch))
	}
}

// refill tops up any kind running low and returns how many were dealt
func (g *Game) refill() int {
	if g.phase != Building {
		return 0
	}
	dealt := 0
	for _, k := range []card.Kind{card.Rhythm, card.Pitch} {
		if g.poolCount(k) < g.opts.RefillBelow {
			c := g.gen.Deal(k)
			g.pool = append(g.pool, c)
			dealt++
			debug.Log("game", "refill dealt %v", c)
		}
	}
	return dealt
}

func (g *Game) poolCount(k card.Kind) int {
	n := 0
	for _, c := range g.pool {
		if c.Kind == k {
			n++
		}
	}
	return n
}

func (g *Game) fromPool(id card.ID) (*card.Card, int) {
	for i, c := range g.pool {
		if c.ID == id {
			return c, i
		}
	}
	return nil, -1
}

func (g *Game) takeFromPool(i int) {
	g.pool = append(g.pool[:i:i], g.pool[i+1:]...)
}

func (g *Game) returnToPool(cards []*card.Card) {
	g.pool = append(g.pool, cards...)
}

// lookup finds a card in the pool or on the staff
func (g *Game) lookup(id card.ID) (*card.Card, bool) {
	if c, _ := g.fromPool(id); c != nil {
		return c, true
	}
	p, ok := g.staff.Find(id)
	if !ok {
		return nil, false
	}
	for _, c := range p.Cards() {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

func (g *Game) notify() {
	select {
	case g.UpdateChan <- struct{}{}:
	default:
	}
}

func (g *Game) compile(mode loopMode) []melody.Event {
	if mode == loopCompleted {
		return melody.CompileCompleted(g.staff)
	}
	return melody.CompileStaff(g.staff)
}

func (g *Game) play(events []melody.Event, mode loopMode, opts playback.Options) error {
	opts.Amplitude = g.opts.Amplitude
	if err := g.player.Play(events, g.opts.Tempo, opts); err != nil {
		return err
	}
	if len(events) > 0 {
		g.mode = mode
	}
	return nil
}
