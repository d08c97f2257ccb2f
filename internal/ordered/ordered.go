// Package ordered provides set containers that remember the order in which
// their elements were first inserted. Iteration over a Set or FrozenSet always
// yields elements in insertion order, which keeps everything built on top of
// them deterministic from run to run.
package ordered

import (
	"fmt"
	"sort"
	"strings"
)

// Set is an insertion-ordered set. The zero value is not ready for use; create
// one with New.
type Set[E comparable] struct {
	byElem map[E]int
	elems  []E
}

// New creates a Set containing the given elements, in the order given.
// Duplicates are dropped, keeping the position of the first occurrence.
func New[E comparable](elems ...E) *Set[E] {
	s := &Set[E]{byElem: map[E]int{}}
	for _, e := range elems {
		s.Add(e)
	}
	return s
}

// Add adds the given element to the Set. If the element is already in the
// set, no effect occurs and the element keeps its original position.
func (s *Set[E]) Add(element E) {
	if s.byElem == nil {
		s.byElem = map[E]int{}
	}
	if _, ok := s.byElem[element]; ok {
		return
	}
	s.elems = append(s.elems, element)
	s.byElem[element] = len(s.elems) - 1
}

// AddAll adds all elements of s2 to the Set, in s2's iteration order.
func (s *Set[E]) AddAll(s2 *Set[E]) {
	if s2 == nil {
		return
	}
	for _, e := range s2.elems {
		s.Add(e)
	}
}

// Remove removes the given element from the Set. If the element is already
// not in the set, no effect occurs.
func (s *Set[E]) Remove(element E) {
	idx, ok := s.byElem[element]
	if !ok {
		return
	}

	delete(s.byElem, element)

	if idx+1 < len(s.elems) {
		s.elems = append(s.elems[:idx], s.elems[idx+1:]...)

		// positions after the removed element just shifted down by one
		for i := idx; i < len(s.elems); i++ {
			s.byElem[s.elems[i]] = i
		}
	} else {
		s.elems = s.elems[:idx]
	}
}

// Has returns whether the set has the specified element.
func (s *Set[E]) Has(element E) bool {
	if s == nil {
		return false
	}
	_, ok := s.byElem[element]
	return ok
}

// Len returns the number of elements in the set.
func (s *Set[E]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.elems)
}

// Empty returns whether the set is empty.
func (s *Set[E]) Empty() bool {
	return s.Len() == 0
}

// Elements returns the elements of the set in insertion order. The returned
// slice is a copy and may be modified freely.
func (s *Set[E]) Elements() []E {
	if s == nil {
		return nil
	}
	sl := make([]E, len(s.elems))
	copy(sl, s.elems)
	return sl
}

// Copy returns a copy of the Set with the same elements in the same order.
func (s *Set[E]) Copy() *Set[E] {
	return New(s.Elements()...)
}

// Union returns a new Set that is the union of s and o. Elements of s come
// first, then elements of o that were not already present.
func (s *Set[E]) Union(o *Set[E]) *Set[E] {
	newSet := s.Copy()
	newSet.AddAll(o)
	return newSet
}

// Intersection returns a new Set that contains the elements that are in both
// s and o, in s's order.
func (s *Set[E]) Intersection(o *Set[E]) *Set[E] {
	newSet := New[E]()
	if s == nil || o == nil {
		return newSet
	}
	for _, e := range s.elems {
		if o.Has(e) {
			newSet.Add(e)
		}
	}
	return newSet
}

// Difference returns a new Set that contains the elements that are in s but
// not in o, in s's order.
func (s *Set[E]) Difference(o *Set[E]) *Set[E] {
	newSet := New[E]()
	if s == nil {
		return newSet
	}
	for _, e := range s.elems {
		if !o.Has(e) {
			newSet.Add(e)
		}
	}
	return newSet
}

// DisjointWith returns whether the set contains no elements of o.
func (s *Set[E]) DisjointWith(o *Set[E]) bool {
	if s == nil {
		return true
	}
	for _, e := range s.elems {
		if o.Has(e) {
			return false
		}
	}
	return true
}

// Equal returns whether the set equals another value. The other value may be a
// *Set[E] or a *FrozenSet[E]. Only membership is compared, not ordering.
func (s *Set[E]) Equal(o any) bool {
	var other *Set[E]
	switch v := o.(type) {
	case *Set[E]:
		other = v
	case *FrozenSet[E]:
		if v == nil {
			return s.Len() == 0
		}
		other = &v.set
	default:
		return false
	}

	if other == nil {
		return s.Len() == 0
	}
	if s.Len() != other.Len() {
		return false
	}
	for _, e := range s.elems {
		if !other.Has(e) {
			return false
		}
	}
	return true
}

// String shows the contents of the set in insertion order.
func (s *Set[E]) String() string {
	var sb strings.Builder

	sb.WriteRune('{')
	for i, e := range s.Elements() {
		if i > 0 {
			sb.WriteRune(',')
			sb.WriteRune(' ')
		}
		sb.WriteString(fmt.Sprintf("%v", e))
	}
	sb.WriteRune('}')
	return sb.String()
}

// StringOrdered shows the contents of the set, sorted by their formatted
// representation rather than by insertion order.
func (s *Set[E]) StringOrdered() string {
	convs := make([]string, 0, s.Len())
	for _, e := range s.Elements() {
		convs = append(convs, fmt.Sprintf("%v", e))
	}
	sort.Strings(convs)

	var sb strings.Builder
	sb.WriteRune('{')
	for i := range convs {
		if i > 0 {
			sb.WriteRune(',')
			sb.WriteRune(' ')
		}
		sb.WriteString(convs[i])
	}
	sb.WriteRune('}')
	return sb.String()
}

// Freeze returns an immutable copy of the Set.
func (s *Set[E]) Freeze() *FrozenSet[E] {
	f := &FrozenSet[E]{}
	f.set.AddAll(s)
	return f
}

// FrozenSet is an immutable insertion-ordered set. It has no mutator methods;
// set-algebra operations return new FrozenSets.
type FrozenSet[E comparable] struct {
	set Set[E]
}

// Frozen creates a FrozenSet containing the given elements, in the order
// given.
func Frozen[E comparable](elems ...E) *FrozenSet[E] {
	return New(elems...).Freeze()
}

// Has returns whether the set has the specified element.
func (f *FrozenSet[E]) Has(element E) bool {
	if f == nil {
		return false
	}
	return f.set.Has(element)
}

// Len returns the number of elements in the set.
func (f *FrozenSet[E]) Len() int {
	if f == nil {
		return 0
	}
	return f.set.Len()
}

// Empty returns whether the set is empty.
func (f *FrozenSet[E]) Empty() bool {
	return f.Len() == 0
}

// Elements returns the elements of the set in insertion order.
func (f *FrozenSet[E]) Elements() []E {
	if f == nil {
		return nil
	}
	return f.set.Elements()
}

// Thaw returns a mutable copy of the FrozenSet.
func (f *FrozenSet[E]) Thaw() *Set[E] {
	s := New[E]()
	if f != nil {
		s.AddAll(&f.set)
	}
	return s
}

// Union returns a new FrozenSet that is the union of f and o.
func (f *FrozenSet[E]) Union(o *FrozenSet[E]) *FrozenSet[E] {
	return f.Thaw().Union(o.Thaw()).Freeze()
}

// Intersection returns a new FrozenSet of the elements in both f and o.
func (f *FrozenSet[E]) Intersection(o *FrozenSet[E]) *FrozenSet[E] {
	return f.Thaw().Intersection(o.Thaw()).Freeze()
}

// Difference returns a new FrozenSet of the elements in f but not in o.
func (f *FrozenSet[E]) Difference(o *FrozenSet[E]) *FrozenSet[E] {
	return f.Thaw().Difference(o.Thaw()).Freeze()
}

// DisjointWith returns whether the set contains no elements of o.
func (f *FrozenSet[E]) DisjointWith(o *FrozenSet[E]) bool {
	return f.Thaw().DisjointWith(o.Thaw())
}

// Equal returns whether the set equals another value. The other value may be a
// *Set[E] or a *FrozenSet[E]. Only membership is compared, not ordering.
func (f *FrozenSet[E]) Equal(o any) bool {
	if f == nil {
		t := New[E]()
		return t.Equal(o)
	}
	return f.set.Equal(o)
}

// String shows the contents of the set in insertion order.
func (f *FrozenSet[E]) String() string {
	if f == nil {
		return "{}"
	}
	return f.set.String()
}
