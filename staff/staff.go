package staff

import (
	"fmt"
	"sort"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"

	"go-melodycards/card"
	"go-melodycards/debug"
	"go-melodycards/util"
)

// DropPolicy decides what a drop onto a complete fused placement does
type DropPolicy int

const (
	// RejectOnFused ignores the drop
	RejectOnFused DropPolicy = iota
	// ReplaceOnFused swaps out the fused half of the same kind
	ReplaceOnFused
)

// Options configures a staff
type Options struct {
	EighthNotesPerMeasure int
	MaxMeasures           int
	SnapTolerance         int // eighth notes either side searched for a near-miss drop
	PitchUnits            int // span of one unfused pitch
	FusedDrop             DropPolicy
}

// DefaultOptions is 4/4 with 16 measures
func DefaultOptions() Options {
	return Options{
		EighthNotesPerMeasure: 16,
		MaxMeasures:           16,
		SnapTolerance:         4,
		PitchUnits:            card.DefaultPitchUnits,
		FusedDrop:             RejectOnFused,
	}
}

// Outcome says what a command did
type Outcome int

const (
	Rejected Outcome = iota
	Placed
	Combined
	Replaced
	Moved
	Removed
)

func (o Outcome) String() string {
	switch o {
	case Rejected:
		return "rejected"
	case Placed:
		return "placed"
	case Combined:
		return "combined"
	case Replaced:
		return "replaced"
	case Moved:
		return "moved"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// Result reports a command's effect. Displaced cards have been reset and
// belong to the caller's pool again.
type Result struct {
	Outcome   Outcome
	Placement Placement
	Displaced []*card.Card
	Reason    string
}

// Changed reports whether the staff structure changed
func (r Result) Changed() bool { return r.Outcome != Rejected }

func rejected(reason string) Result {
	debug.Log("staff", "rejected: %s", reason)
	return Result{Outcome: Rejected, Reason: reason}
}

// Staff owns every placement. It is not safe for concurrent use; the game
// serialises access.
type Staff struct {
	opts       Options
	placements []*Placement // insertion order
	completed  map[int]bool
	nextID     PlacementID
}

// New creates an empty staff
func New(opts Options) (*Staff, error) {
	if opts.EighthNotesPerMeasure <= 0 || opts.MaxMeasures <= 0 || opts.PitchUnits <= 0 {
		return nil, fault.New(
			fmt.Sprintf("invalid staff options %+v", opts),
			ftag.With(ftag.InvalidArgument),
		)
	}
	if opts.SnapTolerance < 0 {
		opts.SnapTolerance = 0
	}
	return &Staff{
		opts:      opts,
		completed: make(map[int]bool),
	}, nil
}

func (s *Staff) EighthNotesPerMeasure() int { return s.opts.EighthNotesPerMeasure }
func (s *Staff) MaxMeasures() int           { return s.opts.MaxMeasures }
func (s *Staff) PitchUnits() int            { return s.opts.PitchUnits }

// Capacity is the number of eighth-note units on the staff
func (s *Staff) Capacity() int { return s.opts.MaxMeasures * s.opts.EighthNotesPerMeasure }

// MeasureOf returns the measure index holding offset pos
func (s *Staff) MeasureOf(pos int) int { return pos / s.opts.EighthNotesPerMeasure }

// Placements returns a snapshot in insertion order
func (s *Staff) Placements() []Placement {
	out := make([]Placement, len(s.placements))
	for i, p := range s.placements {
		out[i] = *p
	}
	return out
}

// Len is the number of placements
func (s *Staff) Len() int { return len(s.placements) }

// PlacementAt returns the placement covering pos
func (s *Staff) PlacementAt(pos int) (Placement, bool) {
	if p := at(s.placements, pos); p != nil {
		return *p, true
	}
	return Placement{}, false
}

// Placement looks a placement up by ID
func (s *Staff) Placement(id PlacementID) (Placement, bool) {
	if p := byID(s.placements, id); p != nil {
		return *p, true
	}
	return Placement{}, false
}

// Find returns the placement holding a card
func (s *Staff) Find(id card.ID) (Placement, bool) {
	if p := holding(s.placements, id); p != nil {
		return *p, true
	}
	return Placement{}, false
}

// Cards lists every card on the staff
func (s *Staff) Cards() []*card.Card {
	var out []*card.Card
	for _, p := range s.placements {
		out = append(out, p.Cards()...)
	}
	return out
}

// Place drops a card at pos. A card already on the staff is lifted first, so
// a card is only ever in one place. Policy rejections leave everything as it
// was, including the card's previous placement.
func (s *Staff) Place(c *card.Card, pos int) (Result, error) {
	if c == nil {
		return Result{}, fault.New("nil card", ftag.With(ftag.InvalidArgument))
	}
	if c.IsLocked() {
		return rejected(fmt.Sprintf("%v is locked", c)), nil
	}
	pos = s.clampStart(pos)

	work := clone(s.placements)
	work = detach(work, c.ID, s.opts.PitchUnits)

	occ := at(work, pos)
	if occ == nil {
		// a near miss only snaps onto a placement the card can join, or to
		// free staff right after a placement; it never evicts a neighbour
		accept := func(p *Placement) bool { return s.joins(p, c) }
		if snapped, ok := nearest(work, pos, s.opts.SnapTolerance, accept); ok {
			if cand := at(work, snapped); cand == nil || accept(cand) {
				debug.Log("staff", "snap %d -> %d", pos, snapped)
				pos = snapped
				occ = cand
			}
		}
	}

	var res Result
	if occ != nil {
		res = s.combine(work, occ, c)
	} else {
		res = s.standalone(&work, c, pos)
	}
	if !res.Changed() {
		return res, nil
	}

	if err := s.check(work); err != nil {
		return Result{}, err
	}
	s.placements = work
	for _, d := range res.Displaced {
		d.Reset()
	}
	debug.Log("staff", "%s %v at %d", res.Outcome, c, res.Placement.Start)
	return res, nil
}

// combine resolves a drop onto an existing placement
func (s *Staff) combine(work []*Placement, occ *Placement, c *card.Card) Result {
	if occ.Locked() {
		return rejected(fmt.Sprintf("placement %d is locked", occ.ID))
	}

	switch sh := occ.Shape.(type) {
	case Single:
		if f, ok := fuse(sh.Card, c); ok {
			return s.reshape(work, occ, f, Combined, nil)
		}
		return s.reshape(work, occ, Single{Card: c}, Replaced, []*card.Card{sh.Card})

	case Fused:
		if s.opts.FusedDrop == RejectOnFused {
			return rejected(fmt.Sprintf("placement %d is already fused", occ.ID))
		}
		if c.Kind == card.Rhythm {
			return s.reshape(work, occ, Fused{Rhythm: c, Pitch: sh.Pitch}, Replaced, []*card.Card{sh.Rhythm})
		}
		return s.reshape(work, occ, Fused{Rhythm: sh.Rhythm, Pitch: c}, Replaced, []*card.Card{sh.Pitch})
	}
	return rejected("unknown shape")
}

// joins reports whether dropping c onto p would combine with it rather than
// evict it
func (s *Staff) joins(p *Placement, c *card.Card) bool {
	if p.Locked() {
		return false
	}
	switch sh := p.Shape.(type) {
	case Single:
		return sh.Card.Kind != c.Kind
	case Fused:
		return s.opts.FusedDrop == ReplaceOnFused
	}
	return false
}

// reshape swaps an occupant's shape in place, keeping its start
func (s *Staff) reshape(work []*Placement, occ *Placement, shape Shape, outcome Outcome, displaced []*card.Card) Result {
	length := shape.length(s.opts.PitchUnits)
	if reason := s.blocked(work, occ, occ.Start, length); reason != "" {
		return rejected(reason)
	}
	occ.Shape = shape
	occ.Length = length
	return Result{Outcome: outcome, Placement: *occ, Displaced: displaced}
}

// standalone places a card on empty staff
func (s *Staff) standalone(work *[]*Placement, c *card.Card, pos int) Result {
	length := c.LengthWith(s.opts.PitchUnits)
	if reason := s.blocked(*work, nil, pos, length); reason != "" {
		return rejected(reason)
	}
	p := &Placement{ID: s.nextID, Start: pos, Length: length, Shape: Single{Card: c}}
	s.nextID++
	*work = append(*work, p)
	return Result{Outcome: Placed, Placement: *p}
}

// blocked explains why [start, start+length) cannot hold a placement, ignoring self
func (s *Staff) blocked(work []*Placement, self *Placement, start, length int) string {
	end := start + length
	if start < 0 || end > s.Capacity() {
		return fmt.Sprintf("span [%d,%d) leaves the staff", start, end)
	}
	for _, p := range work {
		if p == self {
			continue
		}
		if p.overlaps(start, end) {
			return fmt.Sprintf("span [%d,%d) overlaps placement %d", start, end, p.ID)
		}
	}
	return ""
}

// Move shifts a placement to a new start without any fusion logic
func (s *Staff) Move(id PlacementID, pos int) (Result, error) {
	p := byID(s.placements, id)
	if p == nil {
		return Result{}, notFound(fmt.Sprintf("placement %d", id))
	}
	if p.Locked() {
		return rejected(fmt.Sprintf("placement %d is locked", id)), nil
	}
	pos = s.clampStart(pos)
	if reason := s.blocked(s.placements, p, pos, p.Length); reason != "" {
		return rejected(reason), nil
	}
	p.Start = pos
	debug.Log("staff", "moved placement %d to %d", id, pos)
	return Result{Outcome: Moved, Placement: *p}, nil
}

// Remove takes one card off the staff. Taking half of a fused pair leaves the
// other half as a single at the same start.
func (s *Staff) Remove(id card.ID) (Result, error) {
	p := holding(s.placements, id)
	if p == nil {
		return Result{}, notFound(fmt.Sprintf("card %d on staff", id))
	}
	var c *card.Card
	for _, held := range p.Cards() {
		if held.ID == id {
			c = held
		}
	}
	if c.IsLocked() {
		return rejected(fmt.Sprintf("%v is locked", c)), nil
	}

	s.placements = detach(s.placements, id, s.opts.PitchUnits)
	c.Reset()
	res := Result{Outcome: Removed, Displaced: []*card.Card{c}}
	if rest := byID(s.placements, p.ID); rest != nil {
		res.Placement = *rest
	}
	return res, nil
}

// ReturnToPool lifts a whole placement off the staff
func (s *Staff) ReturnToPool(id PlacementID) (Result, error) {
	p := byID(s.placements, id)
	if p == nil {
		return Result{}, notFound(fmt.Sprintf("placement %d", id))
	}
	if p.Locked() {
		return rejected(fmt.Sprintf("placement %d is locked", id)), nil
	}

	cards := p.Cards()
	s.placements = without(s.placements, p)
	for _, c := range cards {
		c.Reset()
	}
	return Result{Outcome: Removed, Placement: *p, Displaced: cards}, nil
}

// ClearUnlocked lifts every placement that holds no locked card and hands
// the reset cards back. Locked placements and the completed record stay.
func (s *Staff) ClearUnlocked() []*card.Card {
	var cards []*card.Card
	kept := s.placements[:0:0]
	for _, p := range s.placements {
		if p.Locked() {
			kept = append(kept, p)
			continue
		}
		cards = append(cards, p.Cards()...)
	}
	for _, c := range cards {
		c.Reset()
	}
	s.placements = kept
	return cards
}

// Clear empties the staff for a new chapter. Every card, locked or not, is
// reset and handed back.
func (s *Staff) Clear() []*card.Card {
	cards := s.Cards()
	for _, c := range cards {
		c.Reset()
	}
	s.placements = nil
	s.completed = make(map[int]bool)
	return cards
}

func (s *Staff) clampStart(pos int) int {
	clamped := util.Clamp(pos, 0, s.Capacity()-1)
	if clamped != pos {
		debug.Warn("staff", "position %d outside staff, clamped to %d", pos, clamped)
	}
	return clamped
}

// check verifies that no unit is doubly covered and no card is held twice
func (s *Staff) check(work []*Placement) error {
	seen := make(map[card.ID]bool)
	for i, p := range work {
		for _, c := range p.Cards() {
			if seen[c.ID] {
				return fault.New(
					fmt.Sprintf("card %d held by more than one placement", c.ID),
					ftag.With(ftag.Internal),
				)
			}
			seen[c.ID] = true
		}
		for _, q := range work[i+1:] {
			if p.overlaps(q.Start, q.End()) {
				return fault.New(
					fmt.Sprintf("placements %d and %d overlap", p.ID, q.ID),
					ftag.With(ftag.Internal),
				)
			}
		}
	}
	return nil
}

func notFound(what string) error {
	return fault.New(what+" not found",
		ftag.With(ftag.NotFound),
		fmsg.WithDesc(what+" not found", "That card is not on the staff."),
	)
}

func clone(ps []*Placement) []*Placement {
	out := make([]*Placement, len(ps))
	for i, p := range ps {
		cp := *p
		out[i] = &cp
	}
	return out
}

// detach lifts a card out of whichever placement holds it
func detach(ps []*Placement, id card.ID, pitchUnits int) []*Placement {
	p := holding(ps, id)
	if p == nil {
		return ps
	}
	f, ok := p.Shape.(Fused)
	if !ok {
		return without(ps, p)
	}
	rest := f.Rhythm
	if rest.ID == id {
		rest = f.Pitch
	}
	p.Shape = Single{Card: rest}
	p.Length = p.Shape.length(pitchUnits)
	return ps
}

func without(ps []*Placement, target *Placement) []*Placement {
	out := ps[:0:0]
	for _, p := range ps {
		if p != target {
			out = append(out, p)
		}
	}
	return out
}

func at(ps []*Placement, pos int) *Placement {
	for _, p := range ps {
		if p.Contains(pos) {
			return p
		}
	}
	return nil
}

func byID(ps []*Placement, id PlacementID) *Placement {
	for _, p := range ps {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func holding(ps []*Placement, id card.ID) *Placement {
	for _, p := range ps {
		if p.Holds(id) {
			return p
		}
	}
	return nil
}

// nearest finds the closest placement boundary within tolerance and returns
// the start or end it snaps to. Starts count only for placements accept
// allows.
func nearest(ps []*Placement, pos, tolerance int, accept func(*Placement) bool) (int, bool) {
	best, bestDist := 0, -1
	try := func(snap int) {
		d := abs(pos - snap)
		if d <= tolerance && (bestDist < 0 || d < bestDist) {
			best, bestDist = snap, d
		}
	}
	for _, p := range sortedByStart(ps) {
		if accept(p) {
			try(p.Start)
		}
		try(p.End())
	}
	return best, bestDist >= 0
}

func sortedByStart(ps []*Placement) []*Placement {
	out := append([]*Placement(nil), ps...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
