// Package cfg defines data structures for representing Control Flow Graphs (CFGs).
// It provides types for basic blocks, edges, and the complete graph, along with
// a parser for the line-oriented block format.
package cfg

import (
	"slices"
)

// Block represents a basic block in the Control Flow Graph.
// A block is a sequence of instructions with a single entry and an explicit
// list of successors.
type Block struct {
	ID           int      `json:"id" msgpack:"id"`                     // Block number, unique within a graph
	Instructions []string `json:"instructions" msgpack:"instructions"` // Trimmed instructions in order
	Successors   []int    `json:"successors" msgpack:"successors"`     // Known successor block numbers, ascending
	Predecessors []int    `json:"predecessors" msgpack:"predecessors"` // Known predecessor block numbers, ascending
}

// IsEntry reports whether no block flows into b.
func (b *Block) IsEntry() bool { return len(b.Predecessors) == 0 }

// IsExit reports whether b flows into no known block.
func (b *Block) IsExit() bool { return len(b.Successors) == 0 }

// Edge is a directed edge between two block numbers.
type Edge struct {
	From int `json:"from" msgpack:"from"`
	To   int `json:"to" msgpack:"to"`
}

// Graph is a parsed control flow graph.
type Graph struct {
	blocks map[int]*Block
	ids    []int

	// Dangling lists successor references to undeclared blocks. They take
	// no part in the edge sets.
	Dangling []Edge
}

// NewGraph returns an empty graph. Blocks are added with Add and edges become
// visible after Link.
func NewGraph() *Graph {
	return &Graph{blocks: make(map[int]*Block)}
}

// Add inserts a block. It reports false if the block number is already taken.
func (g *Graph) Add(b *Block) bool {
	if _, exists := g.blocks[b.ID]; exists {
		return false
	}
	g.blocks[b.ID] = b
	i, _ := slices.BinarySearch(g.ids, b.ID)
	g.ids = slices.Insert(g.ids, i, b.ID)
	return true
}

// Link drops successors that name unknown blocks, deduplicates the rest and
// fills every block's predecessor set by inverting the successor edges.
func (g *Graph) Link() {
	g.Dangling = nil
	for _, b := range g.blocks {
		b.Predecessors = nil
	}

	for _, id := range g.ids {
		b := g.blocks[id]
		known := make([]int, 0, len(b.Successors))
		for _, s := range b.Successors {
			if _, ok := g.blocks[s]; !ok {
				g.Dangling = append(g.Dangling, Edge{From: id, To: s})
				continue
			}
			known = append(known, s)
		}
		slices.Sort(known)
		b.Successors = slices.Compact(known)
	}

	// ids is ascending, so predecessor lists come out sorted.
	for _, id := range g.ids {
		for _, s := range g.blocks[id].Successors {
			succ := g.blocks[s]
			succ.Predecessors = append(succ.Predecessors, id)
		}
	}
}

// Len returns the number of blocks.
func (g *Graph) Len() int { return len(g.ids) }

// IDs returns block numbers in ascending order. The slice must not be modified.
func (g *Graph) IDs() []int { return g.ids }

// Block returns the block with the given number, or nil.
func (g *Graph) Block(id int) *Block { return g.blocks[id] }

// Edges returns all known edges ordered by source then target.
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for _, id := range g.ids {
		for _, s := range g.blocks[id].Successors {
			edges = append(edges, Edge{From: id, To: s})
		}
	}
	return edges
}

// Entries returns the blocks without predecessors.
func (g *Graph) Entries() []int {
	var ids []int
	for _, id := range g.ids {
		if g.blocks[id].IsEntry() {
			ids = append(ids, id)
		}
	}
	return ids
}

// Exits returns the blocks without successors.
func (g *Graph) Exits() []int {
	var ids []int
	for _, id := range g.ids {
		if g.blocks[id].IsExit() {
			ids = append(ids, id)
		}
	}
	return ids
}
