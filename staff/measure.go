package staff

import (
	"sort"

	"go-melodycards/debug"
)

// measureBounds returns [start, end) of measure m in eighth notes
func (s *Staff) measureBounds(m int) (int, int) {
	start := m * s.opts.EighthNotesPerMeasure
	return start, start + s.opts.EighthNotesPerMeasure
}

// contained lists placements lying entirely inside measure m. Placements that
// straddle a barline count for neither measure.
func (s *Staff) contained(m int) []*Placement {
	start, end := s.measureBounds(m)
	var out []*Placement
	for _, p := range s.placements {
		if p.Start >= start && p.End() <= end {
			out = append(out, p)
		}
	}
	return out
}

// IsMeasureComplete reports whether every eighth note of measure m is covered
// by placements contained in it
func (s *Staff) IsMeasureComplete(m int) bool {
	if m < 0 || m >= s.opts.MaxMeasures {
		return false
	}
	inside := s.contained(m)
	if len(inside) == 0 {
		return false
	}

	start, end := s.measureBounds(m)
	filled := make([]bool, end-start)
	for _, p := range inside {
		for i := p.Start; i < p.End(); i++ {
			filled[i-start] = true
		}
	}
	for _, f := range filled {
		if !f {
			return false
		}
	}
	return true
}

// ScanCompletions confirms measures that have become complete since the last
// scan: each is recorded and its contained cards lock. Returns the newly
// completed indices in order; a second scan on unchanged state returns none.
func (s *Staff) ScanCompletions() []int {
	var fresh []int
	for m := 0; m < s.opts.MaxMeasures; m++ {
		if s.completed[m] || !s.IsMeasureComplete(m) {
			continue
		}
		s.completed[m] = true
		for _, p := range s.contained(m) {
			for _, c := range p.Cards() {
				c.Lock()
			}
		}
		fresh = append(fresh, m)
		debug.Log("staff", "measure %d complete", m)
	}
	return fresh
}

// RefreshWaiting marks unlocked cards whose measure is incomplete as waiting
func (s *Staff) RefreshWaiting() {
	for _, p := range s.placements {
		complete := s.IsMeasureComplete(s.MeasureOf(p.Start))
		for _, c := range p.Cards() {
			if c.IsLocked() {
				continue
			}
			if complete {
				c.ClearWaiting()
			} else {
				c.SetWaiting()
			}
		}
	}
}

// IsCompleted reports whether measure m has been confirmed this chapter
func (s *Staff) IsCompleted(m int) bool { return s.completed[m] }

// Completed lists confirmed measures in ascending order
func (s *Staff) Completed() []int {
	out := make([]int, 0, len(s.completed))
	for m := range s.completed {
		out = append(out, m)
	}
	sort.Ints(out)
	return out
}

// CompletedPlacements returns placements whose span touches a confirmed measure
func (s *Staff) CompletedPlacements() []Placement {
	var out []Placement
	for _, p := range s.placements {
		first, last := s.MeasureOf(p.Start), s.MeasureOf(p.End()-1)
		for m := first; m <= last; m++ {
			if s.completed[m] {
				out = append(out, *p)
				break
			}
		}
	}
	return out
}
