package cfg

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrFormat is matched by every FormatError.
var ErrFormat = errors.New("malformed cfg")

// noEdge terminates successor lists and is never a block number.
const noEdge = 0

// FormatError describes input that does not follow the block format.
// Line is 1-based and counts every line of the input.
type FormatError struct {
	Line   int
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// Unwrap makes errors.Is(err, ErrFormat) hold.
func (e *FormatError) Unwrap() error { return ErrFormat }

func formatErr(line int, format string, args ...interface{}) error {
	return &FormatError{Line: line, Reason: fmt.Sprintf(format, args...)}
}

// ParseReader reads the whole of r and parses it with Parse.
func ParseReader(r io.Reader) (*Graph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading cfg: %w", err)
	}
	return Parse(string(data))
}

// Parse builds a graph from records of the form
//
//	<block> <count>
//	<instruction 1>
//	...
//	<instruction count>
//	<successor> ... 0
//
// Blank lines between records are skipped. Successors that name undeclared
// blocks are recorded in Graph.Dangling and otherwise ignored.
func Parse(text string) (*Graph, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimRight(text, " \t\n")

	g := NewGraph()
	if strings.TrimSpace(text) == "" {
		return g, nil
	}

	lines := strings.Split(text, "\n")
	i := 0
	for i < len(lines) {
		header := strings.Fields(lines[i])
		if len(header) == 0 {
			i++
			continue
		}
		headerLine := i + 1

		id, count, err := parseHeader(header, headerLine)
		if err != nil {
			return nil, err
		}
		i++

		if count > len(lines)-i {
			return nil, formatErr(headerLine, "block %d declares %d instructions, only %d lines remain", id, count, len(lines)-i)
		}
		instructions := make([]string, count)
		for k := range count {
			instructions[k] = strings.TrimSpace(lines[i+k])
		}
		i += count

		if i >= len(lines) {
			return nil, formatErr(headerLine, "block %d: missing successor line", id)
		}
		succs, err := parseSuccessors(lines[i], i+1)
		if err != nil {
			return nil, err
		}
		i++

		if !g.Add(&Block{ID: id, Instructions: instructions, Successors: succs}) {
			return nil, formatErr(headerLine, "block %d declared twice", id)
		}
	}

	g.Link()
	return g, nil
}

func parseHeader(fields []string, line int) (id, count int, err error) {
	if len(fields) < 2 {
		return 0, 0, formatErr(line, "header %q: want <block> <count>", strings.Join(fields, " "))
	}
	id, err = strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, formatErr(line, "block number %q is not an integer", fields[0])
	}
	count, err = strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, formatErr(line, "instruction count %q is not an integer", fields[1])
	}
	if id == noEdge {
		return 0, 0, formatErr(line, "block number 0 is reserved as the successor terminator")
	}
	if count < 0 {
		return 0, 0, formatErr(line, "block %d: negative instruction count %d", id, count)
	}
	return id, count, nil
}

func parseSuccessors(text string, line int) ([]int, error) {
	var succs []int
	for _, tok := range strings.Fields(text) {
		n, err := strconv.Atoi(tok)
		if err != nil {
			return nil, formatErr(line, "successor %q is not an integer", tok)
		}
		if n == noEdge {
			continue
		}
		succs = append(succs, n)
	}
	return succs, nil
}
