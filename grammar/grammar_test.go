package grammar

import (
	"testing"

	"github.com/haquey/gecko-dev/internal/ordered"
	"github.com/stretchr/testify/assert"
)

// a small grammar shared by the accessor tests: one synthetic terminal, one
// variable terminal, one parameter-free chain of nonterminals
func makeTestGrammar(t *testing.T) *Grammar {
	t.Helper()

	g, err := New([]Decl{
		{Key: Symbol("name"), Def: NtDef{Rhs: []Production{
			{Body: []Element{Symbol("IdentifierName")}},
			{Body: []Element{Symbol("yield")}},
		}}},
	}, Options{
		Goals:             []NtKey{Symbol("name")},
		VariableTerminals: []string{"Identifier"},
		SyntheticTerminals: []SyntheticTerminal{
			{Name: "IdentifierName", Terminals: []string{"Identifier", "if", "else"}},
		},
	})
	if err != nil {
		t.Fatalf("building test grammar: %v", err)
	}
	return g
}

func Test_Grammar_ExpandTerminal(t *testing.T) {
	testCases := []struct {
		name   string
		t      string
		expect []string
	}{
		{
			name:   "synthetic terminal expands to its representations",
			t:      "IdentifierName",
			expect: []string{"Identifier", "if", "else"},
		},
		{
			name:   "plain terminal expands to itself",
			t:      "yield",
			expect: []string{"yield"},
		},
		{
			name:   "unknown name still expands to itself",
			t:      "never_mentioned",
			expect: []string{"never_mentioned"},
		},
	}

	g := makeTestGrammar(t)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			expanded := g.ExpandTerminal(tc.t)
			assert.True(expanded.Equal(ordered.Frozen(tc.expect...)),
				"got %s", expanded)
		})
	}
}

func Test_Grammar_ExpandSetOfTerminals(t *testing.T) {
	assert := assert.New(t)

	g := makeTestGrammar(t)

	in := ordered.New[Element]()
	in.Add(Symbol("IdentifierName"))
	in.Add(Symbol("yield"))
	in.Add(End{})

	out := g.ExpandSetOfTerminals(in)

	want := ordered.New[Element]()
	want.Add(Symbol("Identifier"))
	want.Add(Symbol("if"))
	want.Add(Symbol("else"))
	want.Add(Symbol("yield"))
	want.Add(End{})
	assert.True(out.Equal(want), "got %s", out)

	// the input set is untouched
	assert.True(in.Has(Symbol("IdentifierName")))
	assert.Equal(3, in.Len())

	// expanding an already-expanded set changes nothing
	assert.True(g.ExpandSetOfTerminals(out).Equal(out))
}

func Test_Grammar_CompatibleElements(t *testing.T) {
	testCases := []struct {
		name   string
		e1     Element
		e2     Element
		expect bool
	}{
		{
			name:   "equal terminals",
			e1:     Symbol("yield"),
			e2:     Symbol("yield"),
			expect: true,
		},
		{
			name:   "different plain terminals",
			e1:     Symbol("yield"),
			e2:     Symbol("await"),
			expect: false,
		},
		{
			name:   "synthetic terminal overlaps a covered terminal",
			e1:     Symbol("IdentifierName"),
			e2:     Symbol("if"),
			expect: true,
		},
		{
			name:   "synthetic terminal does not cover everything",
			e1:     Symbol("IdentifierName"),
			e2:     Symbol("yield"),
			expect: false,
		},
		{
			name:   "terminal never matches a nonterminal",
			e1:     Symbol("if"),
			e2:     &Nt{Name: "name"},
			expect: false,
		},
		{
			name:   "equal nonterminal invocations",
			e1:     &Nt{Name: "name"},
			e2:     &Nt{Name: "name"},
			expect: true,
		},
		{
			name:   "end of input matches itself",
			e1:     End{},
			e2:     End{},
			expect: true,
		},
	}

	g := makeTestGrammar(t)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			assert.Equal(tc.expect, g.CompatibleElements(tc.e1, tc.e2))

			// compatibility is symmetric
			assert.Equal(tc.expect, g.CompatibleElements(tc.e2, tc.e1))
		})
	}
}

func Test_Grammar_CompatibleSequences(t *testing.T) {
	testCases := []struct {
		name   string
		seq1   []Element
		seq2   []Element
		expect bool
	}{
		{
			name:   "identical sequences",
			seq1:   []Element{Symbol("if"), Symbol("yield")},
			seq2:   []Element{Symbol("if"), Symbol("yield")},
			expect: true,
		},
		{
			name:   "overlap through a synthetic terminal",
			seq1:   []Element{Symbol("IdentifierName"), Symbol("yield")},
			seq2:   []Element{Symbol("else"), Symbol("yield")},
			expect: true,
		},
		{
			name:   "one incompatible position ruins it",
			seq1:   []Element{Symbol("IdentifierName"), Symbol("yield")},
			seq2:   []Element{Symbol("else"), Symbol("await")},
			expect: false,
		},
		{
			name:   "different lengths are never compatible",
			seq1:   []Element{Symbol("if")},
			seq2:   []Element{Symbol("if"), Symbol("yield")},
			expect: false,
		},
		{
			name:   "empty sequences are compatible",
			seq1:   nil,
			seq2:   nil,
			expect: true,
		},
	}

	g := makeTestGrammar(t)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			assert.Equal(tc.expect, g.CompatibleSequences(tc.seq1, tc.seq2))
		})
	}
}

func Test_Grammar_DefReturnsCopy(t *testing.T) {
	assert := assert.New(t)

	g := makeTestGrammar(t)

	def1, ok := g.Def(Symbol("name"))
	if !assert.True(ok) {
		return
	}

	// mutating the returned def must not reach the grammar
	def1.Rhs[0] = Production{Body: []Element{Symbol("tampered")}}

	def2, _ := g.Def(Symbol("name"))
	assert.False(def2.Rhs[0].Equal(def1.Rhs[0]))

	_, ok = g.Def(Symbol("no_such_nt"))
	assert.False(ok)
}

func Test_Grammar_WithNonterminals(t *testing.T) {
	assert := assert.New(t)

	g := makeTestGrammar(t)

	// replace the single production set, same declaration convention
	g2, err := g.WithNonterminals([]Decl{
		{Key: Symbol("name"), Def: NtDef{Rhs: []Production{
			{Body: []Element{Symbol("Identifier")}, Reducer: Index(0)},
		}}},
	})
	if !assert.NoError(err) {
		return
	}

	// the goals and terminal declarations carried over
	if assert.Len(g2.Goals(), 1) {
		assert.Equal("name", g2.Goals()[0].Name)
	}
	assert.True(g2.VariableTerminals().Equal(g.VariableTerminals()))
	assert.Equal(g.SyntheticTerminals(), g2.SyntheticTerminals())

	// the receiver is untouched
	def, _ := g.Def(Symbol("name"))
	assert.Len(def.Rhs, 2)

	// the replacement definitions went through validation
	_, err = g.WithNonterminals([]Decl{
		{Key: Symbol("name"), Def: NtDef{Rhs: []Production{
			{Body: []Element{&Nt{Name: "missing"}}},
		}}},
	})
	assert.Error(err)
}

func Test_Grammar_terminalPredicates(t *testing.T) {
	assert := assert.New(t)

	g := makeTestGrammar(t)

	assert.True(g.IsTerminal(Symbol("yield")))
	assert.False(g.IsTerminal(&Nt{Name: "name"}))
	assert.False(g.IsTerminal(End{}))

	assert.True(g.IsVariableTerminal(Symbol("Identifier")))
	assert.False(g.IsVariableTerminal(Symbol("yield")))

	assert.True(g.IsNt("name"))
	assert.False(g.IsNt("Identifier"))
}
