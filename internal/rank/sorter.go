package rank

import "stackrank/internal/model"

// searchFrame is one suspended step of a binary search for a candidate's
// slot. Frames live on an explicit stack (not the call stack) so a sort
// can be paused indefinitely between two human decisions.
type searchFrame struct {
	low       int
	high      int
	mid       int
	candidate *model.Item
}

// Sorter places pending items into an already-ordered baseline one
// pairwise decision at a time. The baseline order is never disturbed:
// new arrivals are binary-inserted against it, which is what makes a
// ranking carried over from a previous session stable.
type Sorter struct {
	ordered []*model.Item
	pending []*model.Item
	frames  []searchFrame
}

// NewSorter builds a sorter from an ordered baseline (best first) and a
// queue of items still to place. Both slices are copied.
func NewSorter(ordered, pending []*model.Item) *Sorter {
	s := &Sorter{
		ordered: make([]*model.Item, len(ordered)),
		pending: make([]*model.Item, len(pending)),
	}
	copy(s.ordered, ordered)
	copy(s.pending, pending)
	return s
}

// HasWork reports whether any pending item or open search remains.
func (s *Sorter) HasWork() bool {
	return len(s.pending) > 0 || len(s.frames) > 0
}

// Ordered returns the current placement, best first. Callers must not
// mutate the returned slice.
func (s *Sorter) Ordered() []*model.Item { return s.ordered }

// PendingCount returns how many items have not been placed yet,
// including a candidate mid-search.
func (s *Sorter) PendingCount() int { return len(s.pending) }

// NextPair returns the comparison the caller should put to the user:
// the current candidate against the probe at the middle of the active
// search range. It returns nils when there is nothing left to compare.
// A candidate entering an empty baseline is placed immediately, with no
// comparison.
func (s *Sorter) NextPair() (candidate, probe *model.Item) {
	for len(s.frames) == 0 {
		if len(s.pending) == 0 {
			return nil, nil
		}
		cand := s.pending[0]
		if len(s.ordered) == 0 {
			s.pending = s.pending[1:]
			s.ordered = append(s.ordered, cand)
			continue
		}
		low, high := 0, len(s.ordered)
		s.frames = append(s.frames, searchFrame{low: low, high: high, mid: (low + high) / 2, candidate: cand})
	}
	top := s.frames[len(s.frames)-1]
	return top.candidate, s.ordered[top.mid]
}

// Decide consumes the answer to the pair last returned by NextPair.
// chooseCandidate means the candidate ranks above the probe. When the
// search range collapses the candidate is inserted and returned;
// otherwise nil is returned and the next NextPair continues the search.
func (s *Sorter) Decide(chooseCandidate bool) *model.Item {
	if len(s.frames) == 0 {
		return nil
	}
	top := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]

	// The first decision for a candidate commits it: off the queue.
	if len(s.pending) > 0 && sameItem(s.pending[0], top.candidate) {
		s.pending = s.pending[1:]
	}

	low, high := top.low, top.high
	if chooseCandidate {
		high = top.mid
	} else {
		low = top.mid + 1
	}
	if low >= high {
		s.ordered = append(s.ordered, nil)
		copy(s.ordered[low+1:], s.ordered[low:])
		s.ordered[low] = top.candidate
		return top.candidate
	}
	s.frames = append(s.frames, searchFrame{low: low, high: high, mid: (low + high) / 2, candidate: top.candidate})
	return nil
}

// sameItem matches by live-source id when both sides have one, falling
// back to pointer identity for ledger-only items.
func sameItem(a, b *model.Item) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.ID != "" && b.ID != "" {
		return a.ID == b.ID
	}
	return a == b
}
