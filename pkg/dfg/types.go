// Package dfg defines the dataflow analyses run over a parsed CFG: reaching
// definitions, live variables and available expressions.
package dfg

import (
	"fmt"

	"github.com/l3aro/go-dataflow/pkg/cfg"
	"github.com/l3aro/go-dataflow/pkg/instr"
)

// Definition is one assignment in the program.
// IDs are d1, d2, ... in block-ascending, instruction order.
type Definition struct {
	ID    string `json:"id" msgpack:"id"`       // Synthetic identity, e.g. "d3"
	Var   string `json:"var" msgpack:"var"`     // Variable being assigned
	Block int    `json:"block" msgpack:"block"` // Owning block number
	Index int    `json:"index" msgpack:"index"` // Instruction position within the block
}

func (d Definition) String() string { return d.ID }

// site locates an instruction.
type site struct {
	block, index int
}

// DefIndex lists every definition of a graph. It is built once and is
// read-only afterwards, so analyses can share it.
type DefIndex struct {
	all   []Definition
	byVar map[string][]Definition
	at    map[site]Definition
}

// NewDefIndex numbers the definitions of g.
func NewDefIndex(g *cfg.Graph) *DefIndex {
	x := &DefIndex{
		byVar: make(map[string][]Definition),
		at:    make(map[site]Definition),
	}

	for _, id := range g.IDs() {
		for i, line := range g.Block(id).Instructions {
			v := instr.Def(line)
			if v == "" {
				continue
			}
			d := Definition{
				ID:    fmt.Sprintf("d%d", len(x.all)+1),
				Var:   v,
				Block: id,
				Index: i,
			}
			x.all = append(x.all, d)
			x.byVar[v] = append(x.byVar[v], d)
			x.at[site{id, i}] = d
		}
	}
	return x
}

// Len returns the number of definitions.
func (x *DefIndex) Len() int { return len(x.all) }

// All returns every definition in numbering order.
func (x *DefIndex) All() []Definition {
	out := make([]Definition, len(x.all))
	copy(out, x.all)
	return out
}

// Of returns the definitions of variable v in numbering order.
func (x *DefIndex) Of(v string) []Definition {
	defs := x.byVar[v]
	out := make([]Definition, len(defs))
	copy(out, defs)
	return out
}

// At returns the definition made by instruction index of block.
func (x *DefIndex) At(block, index int) (Definition, bool) {
	d, ok := x.at[site{block, index}]
	return d, ok
}

// Variables returns the defined variable names in order of first definition.
func (x *DefIndex) Variables() []string {
	seen := make(map[string]struct{}, len(x.byVar))
	var vars []string
	for _, d := range x.all {
		if _, ok := seen[d.Var]; ok {
			continue
		}
		seen[d.Var] = struct{}{}
		vars = append(vars, d.Var)
	}
	return vars
}
