// Package instr parses single three-address-code instructions.
// An instruction is either an assignment "target = rhs" or a bare statement
// whose identifiers are all reads.
package instr

import (
	"regexp"
	"strings"
)

// identPattern matches variable names.
var identPattern = regexp.MustCompile(`[a-zA-Z_][a-zA-Z0-9_]*`)

// arithOperators are the binary operators that make a right-hand side an expression.
const arithOperators = "+-*/"

// Split separates an instruction on its first '='.
// ok is false for bare statements.
func Split(line string) (target, rhs string, ok bool) {
	left, right, found := strings.Cut(line, "=")
	if !found {
		return "", "", false
	}
	return strings.TrimSpace(left), right, true
}

// Identifiers returns the distinct identifiers of s in first-occurrence order.
func Identifiers(s string) []string {
	matches := identPattern.FindAllString(s, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		ids = append(ids, m)
	}
	return ids
}

// UseDef returns the variable defined by line (empty if none) and the
// variables it reads.
func UseDef(line string) (def string, uses []string) {
	target, rhs, ok := Split(line)
	if !ok {
		return "", Identifiers(line)
	}
	return target, Identifiers(rhs)
}

// Def returns the variable defined by line, or "" for bare statements.
func Def(line string) string {
	target, _, _ := Split(line)
	return target
}

// Expr returns the variable defined by line and the canonical form of its
// right-hand side. expr is empty unless the right-hand side contains a binary
// arithmetic operator, so copies like "a = b" yield no expression.
func Expr(line string) (def, expr string) {
	target, rhs, ok := Split(line)
	if !ok {
		return "", ""
	}
	if !strings.ContainsAny(rhs, arithOperators) {
		return target, ""
	}
	return target, Canonical(rhs)
}

// Canonical removes all whitespace from an expression. Operand order is kept,
// so "a+b" and "b+a" stay distinct.
func Canonical(rhs string) string {
	return strings.Join(strings.Fields(rhs), "")
}

// Operands returns the variables read by a canonical expression.
func Operands(expr string) []string {
	return Identifiers(expr)
}

// SelfReferential reports whether def is one of expr's operands, as in
// "x = x + 1".
func SelfReferential(def, expr string) bool {
	if def == "" {
		return false
	}
	for _, op := range Operands(expr) {
		if op == def {
			return true
		}
	}
	return false
}

// References reports whether variable v occurs in expr on word boundaries,
// with word characters being ASCII letters, digits and '_'.
func References(expr, v string) bool {
	if v == "" {
		return false
	}
	for i := 0; i+len(v) <= len(expr); {
		k := strings.Index(expr[i:], v)
		if k < 0 {
			return false
		}
		start, end := i+k, i+k+len(v)
		if boundary(expr, start) && boundary(expr, end) {
			return true
		}
		i = start + 1
	}
	return false
}

// boundary reports whether position p of s sits between a word and a
// non-word character. Both ends of s count as non-word.
func boundary(s string, p int) bool {
	before := p > 0 && isWord(s[p-1])
	after := p < len(s) && isWord(s[p])
	return before != after
}

func isWord(c byte) bool {
	return c == '_' || '0' <= c && c <= '9' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}
