package dfg

import (
	"github.com/l3aro/go-dataflow/pkg/cfg"
	"github.com/l3aro/go-dataflow/pkg/dataflow"
	"github.com/l3aro/go-dataflow/pkg/instr"
)

// AvailableExprsAnalyzer computes the expressions already evaluated, with
// unchanged operands, on every path into and out of each block. It is a
// forward must-analysis.
type AvailableExprsAnalyzer struct {
	graph    *cfg.Graph
	universe *dataflow.Universe[string]
}

// NewAvailableExprsAnalyzer collects every distinct canonical expression of g.
// Copies like "a = b" contribute none.
func NewAvailableExprsAnalyzer(g *cfg.Graph) *AvailableExprsAnalyzer {
	u := dataflow.NewUniverse[string]()
	for _, id := range g.IDs() {
		for _, line := range g.Block(id).Instructions {
			if _, expr := instr.Expr(line); expr != "" {
				u.Add(expr)
			}
		}
	}
	return &AvailableExprsAnalyzer{graph: g, universe: u}
}

// Expressions returns the universal expression set in order of appearance.
func (a *AvailableExprsAnalyzer) Expressions() []string { return a.universe.Elems() }

// GenKill computes the block's local sets.
//
// Gen is what remains available at the end of the block: an assignment to x
// drops every expression reading x, then adds its own expression unless that
// expression reads x itself.
//
// Kill works at block granularity: an expression is killed if any of its
// operands is assigned anywhere in the block, before or after it is computed.
func (a *AvailableExprsAnalyzer) GenKill(b *cfg.Block) dataflow.Transfer[string] {
	gen := a.universe.Empty()
	assigned := make(map[string]struct{})

	for _, line := range b.Instructions {
		target, expr := instr.Expr(line)
		if target != "" {
			assigned[target] = struct{}{}
			for _, e := range gen.Elems() {
				if instr.References(e, target) {
					gen.Remove(e)
				}
			}
		}
		if expr != "" && !instr.SelfReferential(target, expr) {
			gen.Add(expr)
		}
	}

	kill := a.universe.Empty()
	for _, e := range a.universe.Elems() {
		for _, op := range instr.Operands(e) {
			if _, ok := assigned[op]; ok {
				kill.Add(e)
				break
			}
		}
	}
	return dataflow.Transfer[string]{Gen: gen, Kill: kill}
}

// Problem describes the analysis to the solver.
func (a *AvailableExprsAnalyzer) Problem() dataflow.Problem[string] {
	transfer := make(map[int]dataflow.Transfer[string], a.graph.Len())
	for _, id := range a.graph.IDs() {
		transfer[id] = a.GenKill(a.graph.Block(id))
	}
	return dataflow.Problem[string]{
		Direction: dataflow.Forward,
		Meet:      dataflow.Intersection,
		Universe:  a.universe,
		Transfer:  transfer,
	}
}

// Analyze solves the analysis with the given solver.
func (a *AvailableExprsAnalyzer) Analyze(s dataflow.Solver[string]) *dataflow.Result[string] {
	return s.Solve(a.graph, a.Problem())
}
