package dataflow

import (
	"slices"

	"github.com/l3aro/go-dataflow/pkg/cfg"
)

// Direction is the way facts propagate along edges.
type Direction int

const (
	Forward  Direction = iota // IN from predecessors, OUT from the block
	Backward                  // OUT from successors, IN from the block
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return "unknown"
	}
}

// Meet combines the facts flowing in from several neighbours.
type Meet int

const (
	Union        Meet = iota // may-analyses
	Intersection             // must-analyses
)

func (m Meet) String() string {
	switch m {
	case Union:
		return "union"
	case Intersection:
		return "intersection"
	default:
		return "unknown"
	}
}

// Transfer holds a block's local effect: out = Gen ∪ (in − Kill) for forward
// problems, in = Gen ∪ (out − Kill) for backward ones.
type Transfer[T comparable] struct {
	Gen  *Set[T]
	Kill *Set[T]
}

// Problem describes one dataflow analysis to the solver.
type Problem[T comparable] struct {
	Direction Direction
	Meet      Meet
	// Universe bounds the lattice and seeds the optimistic start of
	// intersection problems. It must be complete before solving.
	Universe *Universe[T]
	// Transfer is keyed by block number. Missing blocks have empty sets.
	Transfer map[int]Transfer[T]
}

// Facts are the sets the solver keeps per block.
type Facts[T comparable] struct {
	Gen  *Set[T]
	Kill *Set[T]
	In   *Set[T]
	Out  *Set[T]
}

// Result is a converged solution.
type Result[T comparable] struct {
	Facts  map[int]*Facts[T]
	Passes int // full passes over the blocks, including the final stable one
}

// In returns IN of block id, or nil for unknown blocks.
func (r *Result[T]) In(id int) *Set[T] {
	if f, ok := r.Facts[id]; ok {
		return f.In
	}
	return nil
}

// Out returns OUT of block id, or nil for unknown blocks.
func (r *Result[T]) Out(id int) *Set[T] {
	if f, ok := r.Facts[id]; ok {
		return f.Out
	}
	return nil
}

// Solver runs round-robin iteration to the fixed point.
// The zero value visits blocks ascending for forward problems and descending
// for backward ones.
type Solver[T comparable] struct {
	// Order, if set, returns the per-pass visitation order for the given
	// ascending block numbers. Union problems reach the same fixed point in
	// any order. Intersection problems can settle lower when a loop is
	// visited before the boundary block feeding it.
	Order func(ids []int) []int
	// Observe, if set, is called after every pass.
	Observe func(pass int, facts map[int]*Facts[T])
}

// Solve solves p on g with the default Solver.
func Solve[T comparable](g *cfg.Graph, p Problem[T]) *Result[T] {
	return Solver[T]{}.Solve(g, p)
}

// Solve iterates from the initial state of p until no block changes.
func (s Solver[T]) Solve(g *cfg.Graph, p Problem[T]) *Result[T] {
	return s.run(g, p, nil)
}

// Resume iterates starting from the IN/OUT sets of a previous result instead
// of the initial state. Resuming from a fixed point finishes in one pass with
// the same sets.
func (s Solver[T]) Resume(g *cfg.Graph, p Problem[T], from *Result[T]) *Result[T] {
	return s.run(g, p, from)
}

func (s Solver[T]) run(g *cfg.Graph, p Problem[T], from *Result[T]) *Result[T] {
	facts := make(map[int]*Facts[T], g.Len())
	for _, id := range g.IDs() {
		facts[id] = s.initial(g.Block(id), p, from)
	}

	order := s.order(g, p.Direction)
	res := &Result[T]{Facts: facts}

	for changed := true; changed; {
		changed = false
		res.Passes++

		for _, id := range order {
			b := g.Block(id)
			f := facts[id]

			if p.Direction == Forward {
				in := s.meet(p, b.Predecessors, func(n *Facts[T]) *Set[T] { return n.Out }, facts)
				out := f.Gen.Union(in.Difference(f.Kill))
				if !out.Equal(f.Out) {
					changed = true
				}
				f.In, f.Out = in, out
				continue
			}

			out := s.meet(p, b.Successors, func(n *Facts[T]) *Set[T] { return n.In }, facts)
			in := f.Gen.Union(out.Difference(f.Kill))
			if !in.Equal(f.In) || !out.Equal(f.Out) {
				changed = true
			}
			f.In, f.Out = in, out
		}

		if s.Observe != nil {
			s.Observe(res.Passes, facts)
		}
	}

	return res
}

func (s Solver[T]) initial(b *cfg.Block, p Problem[T], from *Result[T]) *Facts[T] {
	f := &Facts[T]{In: p.Universe.Empty(), Out: p.Universe.Empty()}

	t, ok := p.Transfer[b.ID]
	if ok && t.Gen != nil {
		f.Gen = t.Gen
	} else {
		f.Gen = p.Universe.Empty()
	}
	if ok && t.Kill != nil {
		f.Kill = t.Kill
	} else {
		f.Kill = p.Universe.Empty()
	}

	if from != nil {
		if prev, ok := from.Facts[b.ID]; ok {
			f.In, f.Out = prev.In.Clone(), prev.Out.Clone()
			return f
		}
	}

	// Intersection starts at the top of the lattice so sets only shrink.
	// Boundary blocks keep the empty start.
	if p.Meet == Intersection {
		switch {
		case p.Direction == Forward && !b.IsEntry():
			f.Out = p.Universe.Full()
		case p.Direction == Backward && !b.IsExit():
			f.In = p.Universe.Full()
		}
	}
	return f
}

func (s Solver[T]) order(g *cfg.Graph, dir Direction) []int {
	ids := slices.Clone(g.IDs())
	if s.Order != nil {
		return s.Order(ids)
	}
	if dir == Backward {
		slices.Reverse(ids)
	}
	return ids
}

// meet combines the neighbours' facts. Blocks without neighbours get the
// empty set for either meet.
func (s Solver[T]) meet(p Problem[T], neighbours []int, side func(*Facts[T]) *Set[T], facts map[int]*Facts[T]) *Set[T] {
	if len(neighbours) == 0 {
		return p.Universe.Empty()
	}

	acc := side(facts[neighbours[0]]).Clone()
	for _, n := range neighbours[1:] {
		if p.Meet == Union {
			acc = acc.Union(side(facts[n]))
		} else {
			acc = acc.Intersect(side(facts[n]))
		}
	}
	return acc
}
