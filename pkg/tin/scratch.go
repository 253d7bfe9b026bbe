package tin

import (
	"fmt"
)

// scratch threads transient chains through mesh points and maps points to
// another mesh. A scratch value lives for one operation only.
type scratch struct {
	chain  map[PointID]PointID
	first  PointID
	mapped map[PointID]PointID
}

// withScratch runs fn with fresh scratch space and clears it on every exit path.
func (m *Mesh) withScratch(fn func(s *scratch) error) error {
	if m.scratchBusy {
		return ErrScratchBusy
	}
	m.scratchBusy = true
	s := &scratch{
		chain:  make(map[PointID]PointID),
		first:  NoPoint,
		mapped: make(map[PointID]PointID),
	}
	defer func() {
		clear(s.chain)
		clear(s.mapped)
		s.first = NoPoint
		m.scratchBusy = false
	}()
	return fn(s)
}

// link appends a->b to the chain. Only the chain start may be entered twice,
// which closes the chain.
func (s *scratch) link(a, b PointID) error {
	if _, ok := s.chain[a]; ok {
		return fmt.Errorf("%w: point %d already linked", ErrChainLoop, a)
	}
	if _, ok := s.chain[b]; ok && b != s.first {
		return fmt.Errorf("%w: point %d already linked", ErrChainLoop, b)
	}
	if s.first == NoPoint {
		s.first = a
	}
	s.chain[a] = b
	return nil
}

// linked reports whether p already leads somewhere in the chain.
func (s *scratch) linked(p PointID) bool {
	_, ok := s.chain[p]
	return ok
}

// walk returns the chain from its start and whether it closes on itself.
func (s *scratch) walk() ([]PointID, bool) {
	if s.first == NoPoint {
		return nil, false
	}
	pts := []PointID{s.first}
	p := s.first
	for len(pts) <= len(s.chain)+1 {
		q, ok := s.chain[p]
		if !ok {
			return pts, false
		}
		if q == s.first {
			return pts, true
		}
		pts = append(pts, q)
		p = q
	}
	return pts, false
}

// reset discards the chain but keeps the point map.
func (s *scratch) reset() {
	clear(s.chain)
	s.first = NoPoint
}

// thread links pts in order, closing back to the first point if closed.
func (s *scratch) thread(pts []PointID, closed bool) error {
	for i := 0; i+1 < len(pts); i++ {
		if err := s.link(pts[i], pts[i+1]); err != nil {
			return err
		}
	}
	if closed && len(pts) > 2 {
		return s.link(pts[len(pts)-1], pts[0])
	}
	return nil
}

// verifyConnected checks that every chain link is a live mesh edge.
func (m *Mesh) verifyConnected(s *scratch) error {
	for a, b := range s.chain {
		if !m.Connected(a, b) {
			return fmt.Errorf("%w: no edge between %d and %d", ErrMalformedChain, a, b)
		}
	}
	return nil
}
