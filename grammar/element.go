package grammar

import (
	"fmt"
	"sort"
	"strings"

	"github.com/haquey/gecko-dev/internal/ordered"
)

// Element is one symbol in a production body. It is a closed set of variants:
//
//   - Symbol, a bare symbol name. After validation a Symbol always denotes a
//     terminal (a fixed token spelling, a variable terminal, or a synthetic
//     terminal name); in raw input it may also name a nonterminal, which
//     validation resolves to an *Nt.
//   - *Nt, an invocation of a nonterminal.
//   - *Optional, matching either nothing or its inner element.
//   - Literal, an exact character sequence expected in the input.
//   - UnicodeCategory, any character in a Unicode general-category class.
//   - *Exclude, matching its inner element provided the match is not also any
//     element of the exclusion list.
//   - *LookaheadRule, a zero-width restriction on what terminal may follow.
//   - NoLineTerminatorHere, a zero-width marker ruling out a line break.
//   - ErrorSymbol, matching only an artificially injected error token.
//   - End, the end-of-input terminal.
//
// Nothing outside this set implements Element.
type Element interface {
	// writeKey appends the element's canonical structural key to sb. Two
	// elements are structurally equal exactly when their keys are equal.
	writeKey(sb *strings.Builder)
}

// IsConcreteElement returns whether parsing the element produces a value. A
// production's concrete elements are the ones reduce expressions can refer to;
// lookahead rules, error symbols, and the no-line-terminator marker do not
// count.
func IsConcreteElement(e Element) bool {
	switch e.(type) {
	case *LookaheadRule, ErrorSymbol, noLineTerminator:
		return false
	}
	return true
}

// elementKey returns the canonical structural key of e. Interning and
// structural equality are both defined in terms of this key.
func elementKey(e Element) string {
	var sb strings.Builder
	e.writeKey(&sb)
	return sb.String()
}

// elementsEqual returns whether two elements are structurally equal. Interned
// elements of the same Grammar may also be compared with ==.
func elementsEqual(e1, e2 Element) bool {
	if e1 == nil || e2 == nil {
		return e1 == e2
	}
	return elementKey(e1) == elementKey(e2)
}

// Symbol is a bare grammar symbol. In a validated grammar a Symbol element is
// always a terminal; Grammar.IsTerminal relies on this.
type Symbol string

func (s Symbol) writeKey(sb *strings.Builder) {
	sb.WriteString("t:")
	sb.WriteString(string(s))
}

func (s Symbol) isNtKey() {}

// Nt is an invocation of a nonterminal: a name (or init-nonterminal marker)
// plus an ordered sequence of parameter/argument pairs.
//
// Nonterminals are like lambdas. Each nonterminal in a grammar is defined by
// an NtDef which has 0 or more parameters; every invocation binds each
// parameter to an argument value. A parameterized nonterminal gets expanded by
// later pipeline stages into one plain nonterminal per distinct argument tuple
// ever passed to it.
type Nt struct {
	// Name is the nonterminal's name. It is empty when Init is set.
	Name string

	// Init marks this as the invocation of a synthesized init nonterminal.
	Init *InitNt

	// Args binds each of the invoked nonterminal's parameters, in declaration
	// order.
	Args []NtArg
}

func (n *Nt) writeKey(sb *strings.Builder) {
	sb.WriteString("nt:")
	if n.Init != nil {
		sb.WriteString("init(")
		n.Init.Goal.writeKey(sb)
		sb.WriteRune(')')
	} else {
		sb.WriteString(n.Name)
	}
	sb.WriteRune('[')
	for i, a := range n.Args {
		if i > 0 {
			sb.WriteRune(',')
		}
		sb.WriteString(a.Param)
		sb.WriteRune('=')
		a.Value.writeKey(sb)
	}
	sb.WriteRune(']')
}

func (n *Nt) isNtKey() {}

// String returns a human-readable unique rendering of the invocation:
// Start_<goal> for init nonterminals, the plain name for argument-free
// invocations, and Name[+P, ~Q, ?R] otherwise (+/~ for boolean true/false
// arguments, ? for a parameter forwarded under its own name).
func (n *Nt) String() string {
	if n.Init != nil {
		return "Start_" + n.Init.Goal.String()
	}
	if len(n.Args) == 0 {
		return n.Name
	}

	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s[%s]", n.Name, strings.Join(parts, ", "))
}

// Equal returns whether the invocation is structurally equal to another value.
// It will not be equal if the other value cannot be cast to *Nt.
func (n *Nt) Equal(o any) bool {
	other, ok := o.(*Nt)
	if !ok || other == nil {
		return false
	}
	return elementKey(n) == elementKey(other)
}

// InitNt marks the synthesized entry-point nonterminal for the given goal
// symbol. One init nonterminal is created internally for each goal in the
// grammar; users never write one in their own productions.
//
// The point of init nonterminals is to have an entry point the user has no
// control over, with a predictable production structure, so the run-time
// driver has a fixed way to get into and out of a parse. When an init
// nonterminal is matched, the driver takes the "accept" action rather than a
// "reduce" action.
type InitNt struct {
	Goal *Nt
}

func (i *InitNt) isNtKey() {}

// NtArg binds one parameter of an invoked nonterminal to an argument value.
type NtArg struct {
	Param string
	Value ArgValue
}

func (a NtArg) String() string {
	switch v := a.Value.(type) {
	case ArgBool:
		if bool(v) {
			return "+" + a.Param
		}
		return "~" + a.Param
	case Var:
		if v.Name == a.Param {
			return "?" + a.Param
		}
		return a.Param + "=" + v.Name
	default:
		return fmt.Sprintf("%s=%v", a.Param, a.Value)
	}
}

// ArgValue is the value bound to a nonterminal parameter at a call site: a
// boolean, an opaque literal, or a Var forwarding one of the enclosing
// nonterminal's own parameters. This is a closed set.
type ArgValue interface {
	writeKey(sb *strings.Builder)
}

// ArgBool is a boolean nonterminal argument.
type ArgBool bool

func (b ArgBool) writeKey(sb *strings.Builder) {
	if b {
		sb.WriteString("b:true")
	} else {
		sb.WriteString("b:false")
	}
}

// ArgLiteral is an opaque literal nonterminal argument.
type ArgLiteral string

func (l ArgLiteral) writeKey(sb *strings.Builder) {
	sb.WriteString("l:")
	sb.WriteString(string(l))
}

// Var is a deferred reference to a parameter of the enclosing nonterminal,
// used to forward that parameter's run-time value to a nested invocation.
type Var struct {
	Name string
}

func (v Var) writeKey(sb *strings.Builder) {
	sb.WriteString("v:")
	sb.WriteString(v.Name)
}

// Optional matches either nothing or its inner element. Optional elements are
// expanded out before parser states are calculated, so the core automaton
// algorithm never sees them.
type Optional struct {
	Inner Element
}

func (o *Optional) writeKey(sb *strings.Builder) {
	sb.WriteString("opt(")
	o.Inner.writeKey(sb)
	sb.WriteRune(')')
}

// Literal matches an exact sequence of characters.
type Literal struct {
	Text string
}

func (l Literal) writeKey(sb *strings.Builder) {
	sb.WriteString("lit:")
	sb.WriteString(l.Text)
}

// UnicodeCategory matches any single character whose Unicode general category
// starts with CatPrefix (for example "L" for any letter, "Lu" for uppercase
// letters only).
type UnicodeCategory struct {
	CatPrefix string
}

func (u UnicodeCategory) writeKey(sb *strings.Builder) {
	sb.WriteString("ucat:")
	sb.WriteString(u.CatPrefix)
}

// Exclude matches its inner element provided the matched input is not also any
// element of the exclusion list.
type Exclude struct {
	Inner      Element
	Exclusions []Element
}

func (x *Exclude) writeKey(sb *strings.Builder) {
	sb.WriteString("excl(")
	x.Inner.writeKey(sb)
	sb.WriteString(")-(")
	for i, e := range x.Exclusions {
		if i > 0 {
			sb.WriteRune(',')
		}
		e.writeKey(sb)
	}
	sb.WriteRune(')')
}

// LookaheadRule imposes a zero-width restriction on whatever follows. It never
// consumes any tokens itself: the body
//
//	[ &LookaheadRule{Set: ordered.Frozen("a", "b"), Positive: false}, Symbol("Thing") ]
//
// matches a Thing that does not start with the token "a" or "b". A positive
// rule instead lists exactly the tokens that are allowed to follow.
type LookaheadRule struct {
	Set      *ordered.FrozenSet[string]
	Positive bool
}

func (r *LookaheadRule) writeKey(sb *strings.Builder) {
	// member order is not significant for lookahead equality
	members := r.Set.Elements()
	sort.Strings(members)

	sb.WriteString("la:")
	if r.Positive {
		sb.WriteRune('+')
	} else {
		sb.WriteRune('-')
	}
	sb.WriteRune('{')
	sb.WriteString(strings.Join(members, ","))
	sb.WriteRune('}')
}

// End is the terminal produced forever by the lexer once input is exhausted.
type End struct{}

func (End) writeKey(sb *strings.Builder) {
	sb.WriteString("end")
}

// ErrorSymbol is a special grammar symbol that never matches anything the
// lexer produces. It matches an error token injected into the token stream at
// run time by the parser itself, just before a token that matches nothing
// else. The code is passed to an error-handling routine which decides whether
// the error is recoverable.
type ErrorSymbol struct {
	Code int
}

func (e ErrorSymbol) writeKey(sb *strings.Builder) {
	fmt.Fprintf(sb, "err:%d", e.Code)
}

type noLineTerminator struct{}

func (noLineTerminator) writeKey(sb *strings.Builder) {
	sb.WriteString("nolt")
}

// NoLineTerminatorHere can appear between two other symbols to rule out line
// breaks between them.
var NoLineTerminatorHere Element = noLineTerminator{}

// NtKey identifies one nonterminal definition in a Grammar's nonterminal
// mapping. Early in the pipeline keys are plain names (Symbol) and synthesized
// init markers (*InitNt); after parameter expansion they are fully-resolved
// invocations (*Nt). The two conventions are never mixed within one Grammar.
type NtKey interface {
	isNtKey()
}

// keyString returns the canonical map key for an NtKey.
func keyString(k NtKey) string {
	switch v := k.(type) {
	case Symbol:
		return "name:" + string(v)
	case *InitNt:
		var sb strings.Builder
		sb.WriteString("initkey:")
		v.Goal.writeKey(&sb)
		return sb.String()
	case *Nt:
		return elementKey(v)
	default:
		return fmt.Sprintf("badkey:%v", k)
	}
}

// keyIsResolved returns whether the key uses the resolved-invocation
// convention.
func keyIsResolved(k NtKey) bool {
	_, ok := k.(*Nt)
	return ok
}

// keyName returns the plain name of the nonterminal a key refers to, and its
// init marker if it is an init nonterminal.
func keyName(k NtKey) (string, *InitNt) {
	switch v := k.(type) {
	case Symbol:
		return string(v), nil
	case *InitNt:
		return "", v
	case *Nt:
		return v.Name, v.Init
	}
	return "", nil
}

// keyDisplay returns the human-readable form of a key for diagnostics.
func keyDisplay(k NtKey) string {
	switch v := k.(type) {
	case Symbol:
		return string(v)
	case *InitNt:
		return "Start_" + v.Goal.String()
	case *Nt:
		return v.String()
	default:
		return fmt.Sprintf("%v", k)
	}
}
