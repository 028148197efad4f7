package dfg

import (
	"github.com/l3aro/go-dataflow/pkg/cfg"
	"github.com/l3aro/go-dataflow/pkg/dataflow"
	"github.com/l3aro/go-dataflow/pkg/instr"
)

// LiveVarsAnalyzer computes the variables live on entry to and exit from
// each block. It is a backward may-analysis.
type LiveVarsAnalyzer struct {
	graph    *cfg.Graph
	universe *dataflow.Universe[string]
}

// NewLiveVarsAnalyzer collects every variable named in g.
func NewLiveVarsAnalyzer(g *cfg.Graph) *LiveVarsAnalyzer {
	u := dataflow.NewUniverse[string]()
	for _, id := range g.IDs() {
		for _, line := range g.Block(id).Instructions {
			def, uses := instr.UseDef(line)
			for _, v := range uses {
				u.Add(v)
			}
			if def != "" {
				u.Add(def)
			}
		}
	}
	return &LiveVarsAnalyzer{graph: g, universe: u}
}

// Variables returns every variable of the graph in order of appearance.
func (l *LiveVarsAnalyzer) Variables() []string { return l.universe.Elems() }

// UseDef computes the block's local sets. Use holds the upward-exposed reads,
// those not preceded by an assignment in the same block; Def holds every
// assigned variable. They travel as Gen and Kill respectively.
func (l *LiveVarsAnalyzer) UseDef(b *cfg.Block) dataflow.Transfer[string] {
	use := l.universe.Empty()
	def := l.universe.Empty()

	for _, line := range b.Instructions {
		target, reads := instr.UseDef(line)
		for _, v := range reads {
			if !def.Has(v) {
				use.Add(v)
			}
		}
		if target != "" {
			def.Add(target)
		}
	}
	return dataflow.Transfer[string]{Gen: use, Kill: def}
}

// Problem describes the analysis to the solver.
func (l *LiveVarsAnalyzer) Problem() dataflow.Problem[string] {
	transfer := make(map[int]dataflow.Transfer[string], l.graph.Len())
	for _, id := range l.graph.IDs() {
		transfer[id] = l.UseDef(l.graph.Block(id))
	}
	return dataflow.Problem[string]{
		Direction: dataflow.Backward,
		Meet:      dataflow.Union,
		Universe:  l.universe,
		Transfer:  transfer,
	}
}

// Analyze solves the analysis with the given solver.
func (l *LiveVarsAnalyzer) Analyze(s dataflow.Solver[string]) *dataflow.Result[string] {
	return s.Solve(l.graph, l.Problem())
}
