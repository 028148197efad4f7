// Package report renders converged dataflow facts.
// The text format is line oriented and stable; JSON and msgpack carry the
// same structure for tooling.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/l3aro/go-dataflow/pkg/cfg"
	"github.com/l3aro/go-dataflow/pkg/dataflow"
)

// Separator closes every block section of the text format.
const Separator = "--------------------"

// BlockFacts are one block's sets, each sorted.
type BlockFacts struct {
	ID   int      `json:"id" msgpack:"id"`
	In   []string `json:"in" msgpack:"in"`
	Out  []string `json:"out" msgpack:"out"`
	Gen  []string `json:"gen,omitempty" msgpack:"gen,omitempty"`
	Kill []string `json:"kill,omitempty" msgpack:"kill,omitempty"`
}

// Report is the outcome of one analysis over one graph.
type Report struct {
	Analysis string       `json:"analysis" msgpack:"analysis"`
	Title    string       `json:"title" msgpack:"title"`
	Passes   int          `json:"passes" msgpack:"passes"`
	Blocks   []BlockFacts `json:"blocks" msgpack:"blocks"`
}

// Build converts a solver result into a report. name renders one domain
// element; blocks appear in ascending order.
func Build[T comparable](analysis, title string, g *cfg.Graph, res *dataflow.Result[T], name func(T) string) *Report {
	r := &Report{
		Analysis: analysis,
		Title:    title,
		Passes:   res.Passes,
		Blocks:   make([]BlockFacts, 0, g.Len()),
	}
	for _, id := range g.IDs() {
		f := res.Facts[id]
		r.Blocks = append(r.Blocks, BlockFacts{
			ID:   id,
			In:   names(f.In, name),
			Out:  names(f.Out, name),
			Gen:  names(f.Gen, name),
			Kill: names(f.Kill, name),
		})
	}
	return r
}

func names[T comparable](s *dataflow.Set[T], name func(T) string) []string {
	out := []string{}
	if s == nil {
		return out
	}
	for _, e := range s.Elems() {
		out = append(out, name(e))
	}
	slices.Sort(out)
	return out
}

// Block returns the facts of block id.
func (r *Report) Block(id int) (BlockFacts, bool) {
	for _, b := range r.Blocks {
		if b.ID == id {
			return b, true
		}
	}
	return BlockFacts{}, false
}

// Text renders the report:
//
//	<Title>:
//	IN[1] = ['a', 'b']
//	OUT[1] = []
//	--------------------
func (r *Report) Text() string {
	var sb strings.Builder
	sb.WriteString(r.Title)
	sb.WriteString(":\n")
	for _, b := range r.Blocks {
		fmt.Fprintf(&sb, "IN[%d] = %s\n", b.ID, List(b.In))
		fmt.Fprintf(&sb, "OUT[%d] = %s\n", b.ID, List(b.Out))
		sb.WriteString(Separator)
		sb.WriteString("\n")
	}
	return sb.String()
}

// List renders elems as a bracketed list of quoted literals.
func List(elems []string) string {
	quoted := make([]string, len(elems))
	for i, e := range elems {
		quoted[i] = Quote(e)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// Quote renders s as a string literal. Single quotes are used unless s holds
// a single quote and no double quote.
func Quote(s string) string {
	q := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		q = '"'
	}

	var sb strings.Builder
	sb.WriteByte(q)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\':
			sb.WriteString(`\\`)
		case c == q:
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case c == '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte(q)
	return sb.String()
}

// Format selects an encoding.
type Format string

const (
	FormatText    Format = "text"
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// Formats lists the supported encodings.
func Formats() []Format {
	return []Format{FormatText, FormatJSON, FormatMsgpack}
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(Formats(), f) {
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (must be text, json or msgpack)", s)
}

// Extension returns the file extension used for f, without the dot.
func (f Format) Extension() string {
	if f == FormatText {
		return "txt"
	}
	return string(f)
}

// Encode writes r to w in format f.
func Encode(w io.Writer, r *Report, f Format) error {
	switch f {
	case FormatText, "":
		_, err := io.WriteString(w, r.Text())
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatMsgpack:
		return msgpack.NewEncoder(w).Encode(r)
	default:
		return fmt.Errorf("unknown format %q", f)
	}
}

// Decode reads a report written by Encode in the JSON or msgpack format.
func Decode(rd io.Reader, f Format) (*Report, error) {
	var r Report
	switch f {
	case FormatJSON:
		if err := json.NewDecoder(rd).Decode(&r); err != nil {
			return nil, fmt.Errorf("decoding json report: %w", err)
		}
	case FormatMsgpack:
		if err := msgpack.NewDecoder(rd).Decode(&r); err != nil {
			return nil, fmt.Errorf("decoding msgpack report: %w", err)
		}
	default:
		return nil, fmt.Errorf("format %q cannot be decoded", f)
	}
	return &r, nil
}
