package cfg

import (
	"cmp"
	"slices"

	"github.com/yourbasic/graph"
)

// dense maps block numbers onto the vertex range [0, Len()).
func (g *Graph) dense() *graph.Mutable {
	index := make(map[int]int, len(g.ids))
	for v, id := range g.ids {
		index[id] = v
	}

	m := graph.New(len(g.ids))
	for v, id := range g.ids {
		for _, s := range g.blocks[id].Successors {
			m.Add(v, index[s])
		}
	}
	return m
}

// Unreachable returns the blocks no entry block can reach, ascending.
// A graph whose every block sits on a cycle has no entry, so every block is
// reported.
func (g *Graph) Unreachable() []int {
	m := g.dense()
	seen := make([]bool, len(g.ids))

	for v, id := range g.ids {
		if !g.blocks[id].IsEntry() {
			continue
		}
		seen[v] = true
		graph.BFS(m, v, func(_, w int, _ int64) {
			seen[w] = true
		})
	}

	var ids []int
	for v, ok := range seen {
		if !ok {
			ids = append(ids, g.ids[v])
		}
	}
	return ids
}

// Acyclic reports whether the graph has no cycles.
func (g *Graph) Acyclic() bool {
	return graph.Acyclic(g.dense())
}

// Loops returns the strongly connected components that contain a cycle, each
// sorted ascending, ordered by their smallest block.
func (g *Graph) Loops() [][]int {
	var loops [][]int
	for _, comp := range graph.StrongComponents(g.dense()) {
		if len(comp) == 1 {
			id := g.ids[comp[0]]
			if !slices.Contains(g.blocks[id].Successors, id) {
				continue
			}
		}
		loop := make([]int, len(comp))
		for i, v := range comp {
			loop[i] = g.ids[v]
		}
		slices.Sort(loop)
		loops = append(loops, loop)
	}
	slices.SortFunc(loops, func(a, b []int) int { return cmp.Compare(a[0], b[0]) })
	return loops
}
