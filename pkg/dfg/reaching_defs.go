package dfg

import (
	"github.com/l3aro/go-dataflow/pkg/cfg"
	"github.com/l3aro/go-dataflow/pkg/dataflow"
)

// ReachingDefsAnalyzer performs reaching definitions analysis on a control flow graph.
// It is a forward may-analysis: a definition reaches a point if some path
// from it to the point does not redefine its variable.
type ReachingDefsAnalyzer struct {
	graph    *cfg.Graph
	index    *DefIndex
	universe *dataflow.Universe[Definition]
}

// NewReachingDefsAnalyzer numbers the definitions of g.
func NewReachingDefsAnalyzer(g *cfg.Graph) *ReachingDefsAnalyzer {
	index := NewDefIndex(g)
	return &ReachingDefsAnalyzer{
		graph:    g,
		index:    index,
		universe: dataflow.NewUniverse(index.All()...),
	}
}

// Index returns the definition numbering.
func (r *ReachingDefsAnalyzer) Index() *DefIndex { return r.index }

// GenKill computes the block's local sets.
// Gen holds the last definition of each variable assigned in the block. Kill
// holds every other definition, anywhere in the program, of those variables.
func (r *ReachingDefsAnalyzer) GenKill(b *cfg.Block) dataflow.Transfer[Definition] {
	last := make(map[string]Definition)
	var order []string
	for i := range b.Instructions {
		d, ok := r.index.At(b.ID, i)
		if !ok {
			continue
		}
		if _, seen := last[d.Var]; !seen {
			order = append(order, d.Var)
		}
		last[d.Var] = d
	}

	gen := r.universe.Empty()
	kill := r.universe.Empty()
	for _, v := range order {
		survivor := last[v]
		gen.Add(survivor)
		for _, other := range r.index.Of(v) {
			if other != survivor {
				kill.Add(other)
			}
		}
	}
	return dataflow.Transfer[Definition]{Gen: gen, Kill: kill}
}

// Problem describes the analysis to the solver.
func (r *ReachingDefsAnalyzer) Problem() dataflow.Problem[Definition] {
	transfer := make(map[int]dataflow.Transfer[Definition], r.graph.Len())
	for _, id := range r.graph.IDs() {
		transfer[id] = r.GenKill(r.graph.Block(id))
	}
	return dataflow.Problem[Definition]{
		Direction: dataflow.Forward,
		Meet:      dataflow.Union,
		Universe:  r.universe,
		Transfer:  transfer,
	}
}

// Analyze solves the analysis with the given solver.
func (r *ReachingDefsAnalyzer) Analyze(s dataflow.Solver[Definition]) *dataflow.Result[Definition] {
	return s.Solve(r.graph, r.Problem())
}
