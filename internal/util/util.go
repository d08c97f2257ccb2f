// Package util has small generic helpers shared by the rest of the module.
package util

import "sort"

// OrderedKeys returns the keys of m, ordered a particular way. The order is
// guaranteed to be the same on every run.
//
// As of this writing, the order is alphabetical, but this function does not
// guarantee this will always be the case.
func OrderedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CustomComparable is an interface for items that may be checked against
// arbitrary other objects. In practice most will attempt to typecast to their
// own type and immediately return false if the argument is not the same, but in
// theory this allows for comparison to multiple types of things.
type CustomComparable interface {
	Equal(other any) bool
}

// EqualSlices checks that the two slices contain the same items in the same
// order. Equality of items is checked by calling Equal on elements of sl1 with
// the corresponding element of sl2 passed in as the argument.
func EqualSlices[T CustomComparable](sl1 []T, sl2 []T) bool {
	if len(sl1) != len(sl2) {
		return false
	}

	for i := range sl1 {
		if !sl1[i].Equal(sl2[i]) {
			return false
		}
	}

	return true
}

// InSlice returns whether s is present in the given slice.
func InSlice[T comparable](s T, slice []T) bool {
	for i := range slice {
		if slice[i] == s {
			return true
		}
	}
	return false
}

// EqualComparableSlices checks that the two slices contain the same items in
// the same order, for item types that support the built-in == operator.
func EqualComparableSlices[T comparable](sl1 []T, sl2 []T) bool {
	if len(sl1) != len(sl2) {
		return false
	}

	for i := range sl1 {
		if sl1[i] != sl2[i] {
			return false
		}
	}

	return true
}
