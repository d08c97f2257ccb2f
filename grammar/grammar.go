package grammar

import (
	"github.com/haquey/gecko-dev/internal/ordered"
	"github.com/haquey/gecko-dev/types"
)

// Grammar is a validated, immutable collection of productions along with the
// terminal alphabet they are written over. A Grammar is only ever obtained
// from New or from the transformation methods of another Grammar, so holding
// one is proof that every production in it passed validation.
//
// A Grammar's nonterminal mapping preserves the declaration order of its
// input, and every element reachable from it has been interned, so elements
// obtained from the same Grammar may be compared with ==.
type Grammar struct {
	// defs holds the nonterminal definitions in declaration order, and
	// defsByKey indexes them by canonical key string.
	defs      []ntEntry
	defsByKey map[string]int

	// resolved is whether nonterminal keys use the resolved-invocation
	// convention rather than plain names.
	resolved bool

	terminals         *ordered.FrozenSet[Element]
	variableTerminals *ordered.FrozenSet[string]

	// synthNames holds synthetic terminal names in declaration order;
	// synthetic maps each to the terminals it abbreviates.
	synthNames []string
	synthetic  map[string]*ordered.FrozenSet[string]

	// methods is the builder method signature table. It is nil when no type
	// information has been assigned.
	methods map[string]types.MethodType

	// initNts holds the invocation of each synthesized init nonterminal, one
	// per goal, in goal order.
	initNts []*Nt

	// cache backs Intern for the lifetime of the Grammar.
	cache map[string]Element
}

type ntEntry struct {
	key NtKey
	def NtDef
}

// Intern returns the Grammar's shared copy of the given element. Consistent
// use allows code to compare elements with == instead of structural equality.
// Every element reachable from the Grammar's own productions is already
// interned.
func (g *Grammar) Intern(e Element) Element {
	k := elementKey(e)
	if cached, ok := g.cache[k]; ok {
		return cached
	}
	g.cache[k] = e
	return e
}

// Nonterminals returns the keys of every defined nonterminal, in declaration
// order with synthesized init nonterminals at the end.
func (g *Grammar) Nonterminals() []NtKey {
	keys := make([]NtKey, len(g.defs))
	for i := range g.defs {
		keys[i] = g.defs[i].key
	}
	return keys
}

// Def returns the definition of the nonterminal with the given key. The
// returned definition is a copy; modifying it does not affect the Grammar.
func (g *Grammar) Def(key NtKey) (NtDef, bool) {
	idx, ok := g.defsByKey[keyString(key)]
	if !ok {
		return NtDef{}, false
	}
	return g.defs[idx].def.Copy(), true
}

// IsNt returns whether the given name is a defined nonterminal.
func (g *Grammar) IsNt(name string) bool {
	if g.resolved {
		for i := range g.defs {
			if n, _ := keyName(g.defs[i].key); n == name {
				return true
			}
		}
		return false
	}
	_, ok := g.defsByKey[keyString(Symbol(name))]
	return ok
}

// IsTerminal returns whether the element is a terminal symbol. In a validated
// grammar every Symbol element is one.
func (g *Grammar) IsTerminal(e Element) bool {
	_, ok := e.(Symbol)
	return ok
}

// IsVariableTerminal returns whether the element is a terminal that carries
// data rather than being a fixed token spelling.
func (g *Grammar) IsVariableTerminal(e Element) bool {
	s, ok := e.(Symbol)
	return ok && g.variableTerminals.Has(string(s))
}

// Terminals returns the full terminal alphabet, including the end-of-input
// terminal and the expansions of every synthetic terminal. Synthetic terminal
// names themselves are not in the alphabet; they are shorthand, not tokens.
func (g *Grammar) Terminals() *ordered.FrozenSet[Element] {
	return g.terminals
}

// VariableTerminals returns the names of the terminals that carry data.
func (g *Grammar) VariableTerminals() *ordered.FrozenSet[string] {
	return g.variableTerminals
}

// SyntheticTerminals returns the names of the grammar's synthetic terminals,
// in declaration order.
func (g *Grammar) SyntheticTerminals() []string {
	names := make([]string, len(g.synthNames))
	copy(names, g.synthNames)
	return names
}

// SyntheticExpansion returns the set of terminals the named synthetic
// terminal abbreviates.
func (g *Grammar) SyntheticExpansion(name string) (*ordered.FrozenSet[string], bool) {
	set, ok := g.synthetic[name]
	return set, ok
}

// ExpandTerminal returns the set of real terminals the given terminal name
// stands for: the synthetic expansion if the name is synthetic, otherwise a
// set containing only the name itself.
func (g *Grammar) ExpandTerminal(t string) *ordered.FrozenSet[string] {
	if set, ok := g.synthetic[t]; ok {
		return set
	}
	return ordered.Frozen(t)
}

// ExpandSetOfTerminals copies a set of terminal elements, replacing any
// synthetic terminal with the terminals it abbreviates. Elements that are not
// synthetic terminals, including non-Symbol elements like End, pass through
// unchanged. Expanding a set with no synthetic members returns an equal set.
func (g *Grammar) ExpandSetOfTerminals(terminals *ordered.Set[Element]) *ordered.Set[Element] {
	result := ordered.New[Element]()
	for _, t := range terminals.Elements() {
		if s, ok := t.(Symbol); ok {
			if expansion, isSynth := g.synthetic[string(s)]; isSynth {
				inner := ordered.New[Element]()
				for _, rep := range expansion.Elements() {
					inner.Add(Symbol(rep))
				}
				result.AddAll(g.ExpandSetOfTerminals(inner))
				continue
			}
		}
		result.Add(t)
	}
	return result
}

// CompatibleElements returns whether two elements could match the same
// terminal: either they are structurally equal, or both are terminals whose
// synthetic expansions overlap.
func (g *Grammar) CompatibleElements(e1, e2 Element) bool {
	if elementsEqual(e1, e2) {
		return true
	}
	s1, ok1 := e1.(Symbol)
	s2, ok2 := e2.(Symbol)
	if !ok1 || !ok2 {
		return false
	}
	return !g.ExpandTerminal(string(s1)).DisjointWith(g.ExpandTerminal(string(s2)))
}

// CompatibleSequences returns whether two production bodies could match the
// same sequence of terminals.
func (g *Grammar) CompatibleSequences(seq1, seq2 []Element) bool {
	if len(seq1) != len(seq2) {
		return false
	}
	for i := range seq1 {
		if !g.CompatibleElements(seq1[i], seq2[i]) {
			return false
		}
	}
	return true
}

// InitNts returns the invocation of each synthesized init nonterminal, in
// goal order.
func (g *Grammar) InitNts() []*Nt {
	nts := make([]*Nt, len(g.initNts))
	copy(nts, g.initNts)
	return nts
}

// Goals returns the grammar's goal nonterminals, in goal order.
func (g *Grammar) Goals() []*Nt {
	goals := make([]*Nt, len(g.initNts))
	for i, initNt := range g.initNts {
		goals[i] = initNt.Init.Goal
	}
	return goals
}

// Methods returns the builder method signature table, or nil if no type
// information has been assigned. The returned map is a copy.
func (g *Grammar) Methods() map[string]types.MethodType {
	if g.methods == nil {
		return nil
	}
	methods := make(map[string]types.MethodType, len(g.methods))
	for name, mty := range g.methods {
		methods[name] = mty
	}
	return methods
}

// WithNonterminals returns a new Grammar with the given nonterminal
// definitions in place of the receiver's, carrying over its goals, terminal
// declarations, and method types unchanged. The replacement definitions go
// through full validation; this is how pipeline stages hand a transformed
// grammar to the next stage without losing the receiver's guarantees.
//
// If the receiver already carries method types, every replacement definition
// must carry its type, since inference is skipped.
func (g *Grammar) WithNonterminals(decls []Decl) (*Grammar, error) {
	goals := make([]NtKey, len(g.initNts))
	for i, initNt := range g.initNts {
		goals[i] = initNt.Init.Goal
	}

	synths := make([]SyntheticTerminal, len(g.synthNames))
	for i, name := range g.synthNames {
		synths[i] = SyntheticTerminal{
			Name:      name,
			Terminals: g.synthetic[name].Elements(),
		}
	}

	return New(decls, Options{
		Goals:              goals,
		VariableTerminals:  g.variableTerminals.Elements(),
		SyntheticTerminals: synths,
		MethodTypes:        g.methods,
	})
}
