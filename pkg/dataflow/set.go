// Package dataflow implements the monotone-framework fixed-point solver.
// Facts are bit sets over an interned universe of domain elements, so one
// solver serves definitions, variable names and expressions alike.
package dataflow

import (
	"github.com/willf/bitset"
)

// Universe interns the domain elements of one analysis run. Each element is
// assigned a dense index in insertion order.
type Universe[T comparable] struct {
	elems []T
	index map[T]uint
}

// NewUniverse creates a universe holding elems in order.
func NewUniverse[T comparable](elems ...T) *Universe[T] {
	u := &Universe[T]{index: make(map[T]uint, len(elems))}
	for _, e := range elems {
		u.Add(e)
	}
	return u
}

// Add interns e and returns its index.
func (u *Universe[T]) Add(e T) uint {
	if i, ok := u.index[e]; ok {
		return i
	}
	i := uint(len(u.elems))
	u.elems = append(u.elems, e)
	u.index[e] = i
	return i
}

// Index returns the index of e.
func (u *Universe[T]) Index(e T) (uint, bool) {
	i, ok := u.index[e]
	return i, ok
}

// Len returns the number of interned elements.
func (u *Universe[T]) Len() int { return len(u.elems) }

// Elems returns the elements in index order.
func (u *Universe[T]) Elems() []T {
	out := make([]T, len(u.elems))
	copy(out, u.elems)
	return out
}

// Empty returns a new empty set over u.
func (u *Universe[T]) Empty() *Set[T] {
	return &Set[T]{u: u, bits: bitset.New(uint(len(u.elems)))}
}

// Full returns a new set holding every element currently in u.
func (u *Universe[T]) Full() *Set[T] {
	s := u.Empty()
	for i := range uint(len(u.elems)) {
		s.bits.Set(i)
	}
	return s
}

// SetOf returns a new set holding elems, interning any that are missing.
func (u *Universe[T]) SetOf(elems ...T) *Set[T] {
	s := u.Empty()
	for _, e := range elems {
		s.Add(e)
	}
	return s
}

// Set is a subset of a Universe. Binary operations require both operands to
// share the same universe.
type Set[T comparable] struct {
	u    *Universe[T]
	bits *bitset.BitSet
}

// Add inserts e, interning it in the universe first.
func (s *Set[T]) Add(e T) {
	s.bits.Set(s.u.Add(e))
}

// Remove deletes e if present.
func (s *Set[T]) Remove(e T) {
	if i, ok := s.u.index[e]; ok {
		s.bits.Clear(i)
	}
}

// Has reports whether e is in s.
func (s *Set[T]) Has(e T) bool {
	i, ok := s.u.index[e]
	return ok && s.bits.Test(i)
}

// Len returns the number of elements in s.
func (s *Set[T]) Len() int { return int(s.bits.Count()) }

// IsEmpty reports whether s has no elements.
func (s *Set[T]) IsEmpty() bool { return s.bits.None() }

// Elems returns the elements of s in universe order.
func (s *Set[T]) Elems() []T {
	out := make([]T, 0, s.bits.Count())
	for i, ok := s.bits.NextSet(0); ok; i, ok = s.bits.NextSet(i + 1) {
		out = append(out, s.u.elems[i])
	}
	return out
}

// Clone returns an independent copy of s.
func (s *Set[T]) Clone() *Set[T] {
	return &Set[T]{u: s.u, bits: s.bits.Clone()}
}

// Union returns s ∪ o.
func (s *Set[T]) Union(o *Set[T]) *Set[T] {
	return &Set[T]{u: s.u, bits: s.bits.Union(o.bits)}
}

// Intersect returns s ∩ o.
func (s *Set[T]) Intersect(o *Set[T]) *Set[T] {
	return &Set[T]{u: s.u, bits: s.bits.Intersection(o.bits)}
}

// Difference returns s − o.
func (s *Set[T]) Difference(o *Set[T]) *Set[T] {
	return &Set[T]{u: s.u, bits: s.bits.Difference(o.bits)}
}

// Equal reports whether s and o hold the same elements. Bit sets of different
// lengths compare by content.
func (s *Set[T]) Equal(o *Set[T]) bool {
	return s.bits.SymmetricDifference(o.bits).None()
}

// SubsetOf reports whether every element of s is in o.
func (s *Set[T]) SubsetOf(o *Set[T]) bool {
	return s.bits.Difference(o.bits).None()
}
