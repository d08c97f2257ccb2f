package ordered

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Set_Add(t *testing.T) {
	testCases := []struct {
		name   string
		add    []string
		expect []string
	}{
		{
			name:   "empty",
			add:    []string{},
			expect: []string{},
		},
		{
			name:   "one element",
			add:    []string{"a"},
			expect: []string{"a"},
		},
		{
			name:   "keeps insertion order",
			add:    []string{"c", "a", "b"},
			expect: []string{"c", "a", "b"},
		},
		{
			name:   "duplicate keeps first position",
			add:    []string{"c", "a", "c", "b", "a"},
			expect: []string{"c", "a", "b"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			s := New[string]()
			for _, e := range tc.add {
				s.Add(e)
			}

			assert.Len(s.Elements(), len(tc.expect))
			assert.Equal(tc.expect, append([]string{}, s.Elements()...))
			for _, e := range tc.expect {
				assert.True(s.Has(e), "set should have %q", e)
			}
		})
	}
}

func Test_Set_Remove(t *testing.T) {
	assert := assert.New(t)

	s := New("a", "b", "c", "d")
	s.Remove("b")

	assert.Equal([]string{"a", "c", "d"}, s.Elements())
	assert.False(s.Has("b"))

	// removal must not break positions of later elements
	s.Remove("c")
	assert.Equal([]string{"a", "d"}, s.Elements())

	// removing an absent element is a no-op
	s.Remove("zzz")
	assert.Equal([]string{"a", "d"}, s.Elements())
}

func Test_Set_setAlgebra(t *testing.T) {
	assert := assert.New(t)

	s1 := New("a", "b", "c")
	s2 := New("b", "c", "d")

	union := s1.Union(s2)
	assert.Equal([]string{"a", "b", "c", "d"}, union.Elements())

	inter := s1.Intersection(s2)
	assert.Equal([]string{"b", "c"}, inter.Elements())

	diff := s1.Difference(s2)
	assert.Equal([]string{"a"}, diff.Elements())

	assert.False(s1.DisjointWith(s2))
	assert.True(diff.DisjointWith(s2))
}

func Test_Set_Equal(t *testing.T) {
	testCases := []struct {
		name   string
		s1     *Set[string]
		other  any
		expect bool
	}{
		{
			name:   "equal same order",
			s1:     New("a", "b"),
			other:  New("a", "b"),
			expect: true,
		},
		{
			name:   "equal different order",
			s1:     New("a", "b"),
			other:  New("b", "a"),
			expect: true,
		},
		{
			name:   "not equal",
			s1:     New("a", "b"),
			other:  New("a", "c"),
			expect: false,
		},
		{
			name:   "different size",
			s1:     New("a", "b"),
			other:  New("a"),
			expect: false,
		},
		{
			name:   "frozen with same members",
			s1:     New("a", "b"),
			other:  Frozen("b", "a"),
			expect: true,
		},
		{
			name:   "not a set",
			s1:     New("a"),
			other:  "a",
			expect: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			assert.Equal(tc.expect, tc.s1.Equal(tc.other))
		})
	}
}

func Test_Set_Copy(t *testing.T) {
	assert := assert.New(t)

	s := New("a", "b")
	dupe := s.Copy()
	dupe.Add("c")

	assert.True(s.Has("a"))
	assert.False(s.Has("c"))
	assert.True(dupe.Has("c"))
}

func Test_FrozenSet(t *testing.T) {
	assert := assert.New(t)

	f := Frozen("x", "y", "z")

	assert.Equal(3, f.Len())
	assert.True(f.Has("y"))
	assert.False(f.Empty())
	assert.Equal([]string{"x", "y", "z"}, f.Elements())

	// mutations on a thawed copy must not affect the frozen set
	thawed := f.Thaw()
	thawed.Add("w")
	assert.False(f.Has("w"))

	f2 := Frozen("z", "x", "y")
	assert.True(f.Equal(f2))

	inter := f.Intersection(Frozen("y", "w"))
	assert.Equal([]string{"y"}, inter.Elements())
}

func Test_Set_String(t *testing.T) {
	assert := assert.New(t)

	s := New("b", "a")

	assert.Equal("{b, a}", s.String())
	assert.Equal("{a, b}", s.StringOrdered())
	assert.Equal("{}", New[string]().String())
}

func Test_Set_nilSafety(t *testing.T) {
	assert := assert.New(t)

	var s *Set[string]

	assert.Equal(0, s.Len())
	assert.True(s.Empty())
	assert.False(s.Has("a"))
	assert.Empty(s.Elements())
}
