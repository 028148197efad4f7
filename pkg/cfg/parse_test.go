package cfg

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const diamond = `1 2
a = 1
b = 2
2 3 0

2 1
c = a + b
4 0

3 1
c = a - b
4 0

4 1
print c
0
`

func TestParse_Diamond(t *testing.T) {
	g, err := Parse(diamond)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3, 4}, g.IDs())
	assert.Equal(t, []string{"a = 1", "b = 2"}, g.Block(1).Instructions)
	assert.Equal(t, []int{2, 3}, g.Block(1).Successors)
	assert.Equal(t, []int{2, 3}, g.Block(4).Predecessors)
	assert.Equal(t, []int{1}, g.Entries())
	assert.Equal(t, []int{4}, g.Exits())
	assert.Empty(t, g.Dangling)
	assert.Equal(t, []Edge{{1, 2}, {1, 3}, {2, 4}, {3, 4}}, g.Edges())
}

func TestParse_TransposeInvariant(t *testing.T) {
	g, err := Parse(`1 0
2 3 0
2 0
3 1 0
3 0
1 0
`)
	require.NoError(t, err)

	for _, id := range g.IDs() {
		for _, s := range g.Block(id).Successors {
			assert.Contains(t, g.Block(s).Predecessors, id, "edge %d->%d", id, s)
		}
		for _, p := range g.Block(id).Predecessors {
			assert.Contains(t, g.Block(p).Successors, id, "edge %d->%d", p, id)
		}
	}
	assert.Empty(t, g.Entries(), "every block is on a cycle")
}

func TestParse_DanglingSuccessorIgnored(t *testing.T) {
	g, err := Parse("1 1\nx = 1\n2 9 0\n2 0\n0\n")
	require.NoError(t, err)

	assert.Equal(t, []int{2}, g.Block(1).Successors)
	assert.Equal(t, []Edge{{From: 1, To: 9}}, g.Dangling)
	assert.Equal(t, []int{1}, g.Block(2).Predecessors)
}

func TestParse_SentinelOnlyAndDuplicates(t *testing.T) {
	g, err := Parse("1 0\n2 2 0 0\n2 0\n0 0 0\n")
	require.NoError(t, err)

	assert.Equal(t, []int{2}, g.Block(1).Successors)
	assert.True(t, g.Block(2).IsExit())
}

func TestParse_CRLFAndIndentation(t *testing.T) {
	g, err := Parse("1 1\r\n   t = a + b  \r\n0\r\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"t = a + b"}, g.Block(1).Instructions)
}

func TestParse_Empty(t *testing.T) {
	g, err := Parse("  \n\n")
	require.NoError(t, err)
	assert.Equal(t, 0, g.Len())
}

func TestParse_FormatErrors(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		errContains string
	}{
		{"single field header", "1\nx = 1\n0\n", "want <block> <count>"},
		{"non integer block", "a 1\nx = 1\n0\n", "block number"},
		{"non integer count", "1 x\nx = 1\n0\n", "instruction count"},
		{"negative count", "1 -1\n0\n", "negative instruction count"},
		{"count exceeds input", "1 3\nx = 1\n0\n", "declares 3 instructions"},
		{"missing successor line", "1 1\nx = 1\n", "missing successor line"},
		{"bad successor", "1 1\nx = 1\n2 b 0\n", "successor"},
		{"duplicate block", "1 0\n0\n1 0\n0\n", "declared twice"},
		{"block zero", "0 0\n0\n", "reserved"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrFormat))

			var fe *FormatError
			require.True(t, errors.As(err, &fe))
			assert.Contains(t, fe.Reason, tt.errContains)
			assert.Positive(t, fe.Line)
		})
	}
}

func TestParse_FormatErrorLineCountsBlankLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{"leading blank lines", "\n\n1 x\n0\n", 3},
		{"leading whitespace line", "   \n1 1\nx = 1\n2 b 0\n", 4},
		{"blank line between records", "1 0\n0\n\n\n1 0\n0\n", 5},
		{"crlf input", "\r\n1 0\r\n0\r\n0 0\r\n0\r\n", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			var fe *FormatError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.line, fe.Line)
		})
	}
}

func TestGraph_LoopsOrderedByExtremeBlockNumbers(t *testing.T) {
	g, err := Parse("-9223372036854775807 0\n-9223372036854775807 0\n9223372036854775807 0\n9223372036854775807 0\n")
	require.NoError(t, err)
	assert.Equal(t, [][]int{{-9223372036854775807}, {9223372036854775807}}, g.Loops())
}

func TestParseReader(t *testing.T) {
	g, err := ParseReader(strings.NewReader(diamond))
	require.NoError(t, err)
	assert.Equal(t, 4, g.Len())
}

func TestGraph_Unreachable(t *testing.T) {
	g, err := Parse(`1 0
2 0
2 0
0
3 0
4 0
4 0
3 0
`)
	require.NoError(t, err)

	assert.Equal(t, []int{1}, g.Entries())
	assert.Equal(t, []int{3, 4}, g.Unreachable())
}

func TestGraph_LoopsAndAcyclic(t *testing.T) {
	g, err := Parse(diamond)
	require.NoError(t, err)
	assert.True(t, g.Acyclic())
	assert.Empty(t, g.Loops())

	g, err = Parse(`1 0
2 0
2 1
i = i + 1
3 2 0
3 0
0
`)
	require.NoError(t, err)
	assert.False(t, g.Acyclic())
	assert.Equal(t, [][]int{{2}}, g.Loops())
	assert.Empty(t, g.Unreachable())

	g, err = Parse("1 0\n2 0\n2 0\n3 0\n3 0\n2 0\n")
	require.NoError(t, err)
	assert.Equal(t, [][]int{{2, 3}}, g.Loops())
}
