package grammar

import (
	"fmt"

	"github.com/haquey/gecko-dev/internal/ordered"
	"github.com/haquey/gecko-dev/internal/tracing"
	"github.com/haquey/gecko-dev/internal/util"
	"github.com/haquey/gecko-dev/types"
)

// Decl declares one nonterminal for New: its key and its definition. A
// production in the definition may leave its Reducer nil to get the default
// inferred during validation.
type Decl struct {
	Key NtKey
	Def NtDef
}

// SyntheticTerminal declares a terminal name that stands for a disjoint union
// of other terminals. Synthetic terminals are a grammar-authoring shorthand;
// they are expanded away before automaton construction and their names are
// never part of the terminal alphabet.
type SyntheticTerminal struct {
	Name      string
	Terminals []string
}

// TypeInferFunc assigns type information to a grammar under construction. It
// receives the grammar with all nonterminals validated but before init
// nonterminals are synthesized, and returns the type of value each
// nonterminal's reductions build along with the builder method signature
// table. An error from it fails construction and is returned to the caller
// unchanged.
type TypeInferFunc func(g *Grammar) (ntTypes map[NtKey]types.Type, methods map[string]types.MethodType, err error)

// Options is the set of optional arguments to New.
type Options struct {
	// Goals lists the nonterminals to treat as parse entry points, each a
	// plain name or a resolved invocation. When empty, the first declared
	// nonterminal is the goal.
	Goals []NtKey

	// VariableTerminals names the terminals that carry data, like identifiers
	// and numeric literals.
	VariableTerminals []string

	// SyntheticTerminals declares terminal names standing for groups of other
	// terminals.
	SyntheticTerminals []SyntheticTerminal

	// MethodTypes is precomputed type information. When set, type inference
	// is skipped and every declared nonterminal must already carry its type.
	// This lets a multi-pass pipeline avoid re-inferring types on every
	// incremental transformation.
	MethodTypes map[string]types.MethodType

	// TypeInfer assigns type information when MethodTypes is not set. When
	// both are nil the grammar is built without type information.
	TypeInfer TypeInferFunc
}

// New validates the declared nonterminals and builds a Grammar from them.
// Validation covers every element of every production body, every reduce
// expression, every condition, and every nonterminal invocation; the built
// Grammar additionally has every default reducer inferred, every element
// interned, the full terminal alphabet collected, and one init nonterminal
// synthesized per goal. Construction is atomic: on any validation failure New
// returns a *Error and no Grammar.
func New(decls []Decl, opts Options) (*Grammar, error) {
	if len(decls) == 0 {
		return nil, newError(ErrMalformedInput, nil, nil, nil, "no nonterminals declared")
	}
	tracing.T().Debugf("validating grammar with %d nonterminal declaration(s)", len(decls))

	b := &builder{
		g: &Grammar{
			defsByKey: map[string]int{},
			cache:     map[string]Element{},
			synthetic: map[string]*ordered.FrozenSet[string]{},
		},
		ntParams:  map[string][]string{},
		strToNt:   map[string]*Nt{},
		declNames: map[string]bool{},
		declKeys:  map[string]bool{},
	}

	if err := b.gatherKeys(decls); err != nil {
		return nil, err
	}
	if err := b.applyTerminalOptions(opts); err != nil {
		return nil, err
	}
	if err := b.resolveGoals(decls, opts.Goals); err != nil {
		return nil, err
	}

	for _, d := range decls {
		if err := b.checkKey(d.Key); err != nil {
			return nil, err
		}
		if _, isInit := keyName(d.Key); isInit != nil {
			if err := b.checkInitShape(d.Key, isInit, d.Def); err != nil {
				return nil, err
			}
		}
		def, err := b.validateDef(d.Key, d.Def)
		if err != nil {
			return nil, err
		}
		b.g.defsByKey[keyString(d.Key)] = len(b.g.defs)
		b.g.defs = append(b.g.defs, ntEntry{key: d.Key, def: def})
	}

	// The names of synthetic terminals are shorthand, not tokens; only their
	// expansions belong to the alphabet.
	for _, name := range b.g.synthNames {
		b.allTerminals.Remove(Symbol(name))
	}
	b.g.terminals = b.allTerminals.Freeze()

	if err := b.assignTypes(opts); err != nil {
		return nil, err
	}
	b.synthesizeInitNts()

	tracing.T().Debugf("grammar valid: %d nonterminal(s), %d terminal(s), %d goal(s)",
		len(b.g.defs), b.g.terminals.Len(), len(b.goals))
	return b.g, nil
}

// builder carries the intermediate state of one New call.
type builder struct {
	g *Grammar

	// ntParams maps each declared nonterminal name to its parameter names.
	ntParams map[string][]string

	// strToNt caches the interned invocation of each parameter-free named
	// nonterminal, so bare-name references in bodies resolve to one value.
	strToNt map[string]*Nt

	declNames map[string]bool
	declKeys  map[string]bool

	allTerminals *ordered.Set[Element]
	goals        []*Nt
}

// gatherKeys makes a first pass over the declarations without examining any
// production: it fixes the key convention, rejects duplicate declarations,
// and records each nonterminal's name and parameter list.
func (b *builder) gatherKeys(decls []Decl) error {
	for i, d := range decls {
		if d.Key == nil {
			return newError(ErrMalformedInput, nil, nil, nil,
				"nonterminal declaration %d has no key", i)
		}
		if i == 0 {
			b.g.resolved = keyIsResolved(d.Key)
		} else if keyIsResolved(d.Key) != b.g.resolved {
			return newError(ErrMalformedInput, d.Key, nil, nil,
				"conflicting key conventions in declarations; "+
					"keys must be all plain names or all resolved invocations")
		}

		ks := keyString(d.Key)
		if b.declKeys[ks] {
			return newError(ErrNameCollision, d.Key, nil, nil, "declared more than once")
		}
		b.declKeys[ks] = true

		name, _ := keyName(d.Key)
		if name == "" {
			continue
		}
		b.declNames[name] = true

		var params []string
		if nt, ok := d.Key.(*Nt); ok {
			params = make([]string, len(nt.Args))
			for j, a := range nt.Args {
				params[j] = a.Param
			}
		} else {
			params = d.Def.Params
		}
		if have, seen := b.ntParams[name]; seen {
			if !util.EqualComparableSlices(have, params) {
				return newError(ErrParamMismatch, d.Key, nil, nil,
					"conflicting parameter name lists for nonterminal %q: both %v and %v",
					name, have, params)
			}
		} else {
			b.ntParams[name] = params
		}
		if len(params) == 0 {
			if _, cached := b.strToNt[name]; !cached {
				b.strToNt[name] = b.g.Intern(&Nt{Name: name}).(*Nt)
			}
		}
	}
	return nil
}

// applyTerminalOptions records the variable and synthetic terminal
// declarations and seeds the terminal alphabet with them.
func (b *builder) applyTerminalOptions(opts Options) error {
	b.g.variableTerminals = ordered.Frozen(opts.VariableTerminals...)

	for _, synth := range opts.SyntheticTerminals {
		if _, dup := b.g.synthetic[synth.Name]; dup {
			return newError(ErrNameCollision, nil, nil, nil,
				"synthetic terminal %q declared more than once", synth.Name)
		}
		if b.declNames[synth.Name] {
			return newError(ErrNameCollision, nil, nil, nil,
				"%q is both a terminal and a nonterminal", synth.Name)
		}
		b.g.synthNames = append(b.g.synthNames, synth.Name)
		b.g.synthetic[synth.Name] = ordered.Frozen(synth.Terminals...)
	}
	for _, synth := range opts.SyntheticTerminals {
		for _, t := range synth.Terminals {
			if b.declNames[t] {
				return newError(ErrNameCollision, nil, nil, nil,
					"%q is both a representation of a synthetic terminal and a nonterminal", t)
			}
			if _, nested := b.g.synthetic[t]; nested {
				// expand_terminal has no cycle detection, so this stays
				// unsupported rather than risking unbounded recursion
				return newError(ErrUnsupported, nil, nil, nil,
					"synthetic terminals can't include other synthetic terminals; %q includes %q",
					synth.Name, t)
			}
		}
	}

	b.allTerminals = ordered.New[Element]()
	for _, vt := range opts.VariableTerminals {
		b.allTerminals.Add(Symbol(vt))
	}
	b.allTerminals.Add(b.g.Intern(End{}))
	return nil
}

// noteTerminal adds a terminal to the alphabet along with, if it is
// synthetic, every terminal it abbreviates.
func (b *builder) noteTerminal(name string) {
	if b.allTerminals.Has(Symbol(name)) {
		return
	}
	b.allTerminals.Add(Symbol(name))
	if expansion, ok := b.g.synthetic[name]; ok {
		for _, rep := range expansion.Elements() {
			b.noteTerminal(rep)
		}
	}
}

// resolveGoals converts each requested goal into the interned invocation of a
// defined nonterminal. With no goals requested, the first declared
// nonterminal is the goal.
func (b *builder) resolveGoals(decls []Decl, goals []NtKey) error {
	if len(goals) == 0 {
		goals = []NtKey{decls[0].Key}
	}
	for _, goal := range goals {
		switch v := goal.(type) {
		case Symbol:
			nt, ok := b.strToNt[string(v)]
			if !ok {
				return newError(ErrUnresolvedGoal, nil, nil, nil,
					"goal nonterminal %q is undefined", string(v))
			}
			b.goals = append(b.goals, nt)
		case *Nt:
			defined := false
			if b.g.resolved {
				defined = b.declKeys[keyString(v)]
			} else {
				defined = b.declNames[v.Name]
			}
			if !defined {
				return newError(ErrUnresolvedGoal, nil, nil, nil,
					"goal nonterminal %s is undefined", v.String())
			}
			b.goals = append(b.goals, b.g.Intern(v).(*Nt))
		default:
			return newError(ErrUnresolvedGoal, nil, nil, nil,
				"goal %s is not a nonterminal", keyDisplay(goal))
		}
	}
	return nil
}

// isGoal returns whether nt is one of the resolved goals.
func (b *builder) isGoal(nt *Nt) bool {
	for _, g := range b.goals {
		if g.Equal(nt) {
			return true
		}
	}
	return false
}

// checkKey validates the form of one nonterminal key.
func (b *builder) checkKey(key NtKey) error {
	switch v := key.(type) {
	case Symbol:
		name := string(v)
		if !isIdentifier(name) {
			return newError(ErrMalformedInput, nil, nil, nil,
				"nonterminal names must be identifiers, not %q", name)
		}
		if b.g.variableTerminals.Has(name) {
			return newError(ErrNameCollision, key, nil, nil,
				"%q is both a nonterminal and a variable terminal", name)
		}
		if _, synth := b.g.synthetic[name]; synth {
			return newError(ErrNameCollision, key, nil, nil,
				"%q is both a nonterminal and a synthetic terminal", name)
		}
	case *InitNt:
		return b.checkInitMarker(v)
	case *Nt:
		if v.Init != nil {
			return b.checkInitMarker(v.Init)
		}
		if err := b.checkKey(Symbol(v.Name)); err != nil {
			return err
		}
		for _, a := range v.Args {
			if _, ok := a.Value.(ArgBool); !ok {
				return newError(ErrMalformedInput, key, nil, nil,
					"resolved nonterminal keys must have boolean argument values, got %s=%v",
					a.Param, a.Value)
			}
		}
	default:
		return newError(ErrMalformedInput, nil, nil, nil,
			"expected a plain name or resolved invocation as nonterminal key, got %v", key)
	}
	return nil
}

// checkInitMarker validates an init-nonterminal key against the goal list.
// Users don't declare init nonterminals when initially creating a Grammar;
// they are synthesized. But a Grammar built by transforming a previous
// Grammar will carry them in its declarations.
func (b *builder) checkInitMarker(init *InitNt) error {
	if init.Goal == nil {
		return newError(ErrMalformedInput, init, nil, nil,
			"init nonterminal has no goal")
	}
	// the goal reference is a use, so it gets checked like one
	if _, err := b.validateElement(init, 0, 0, init.Goal, nil); err != nil {
		return err
	}
	if !b.isGoal(init.Goal) {
		return newError(ErrBadInit, init, nil, nil,
			"nonterminal %s is not in the list of goals", init.Goal.String())
	}
	return nil
}

// checkInitShape checks that an init nonterminal's declared productions have
// one of the recognized entry-point forms. Initially an init nonterminal is
// synthesized as goal-then-accept; pipeline stages may rewrite it to make the
// goal optional or to accept empty input explicitly, and nothing else.
func (b *builder) checkInitShape(key NtKey, init *InitNt, def NtDef) error {
	if len(def.Params) > 0 {
		return newError(ErrBadInit, key, nil, nil,
			"init nonterminals take no parameters, got %v", def.Params)
	}

	goal := Element(init.Goal)
	acceptProd := Production{Body: []Element{&Nt{Init: init}, End{}}, Reducer: Accept}
	shapes := [][]Production{
		{
			{Body: []Element{goal}, Reducer: Index(0)},
			acceptProd,
		},
		{
			{Body: []Element{&Optional{Inner: goal}}, Reducer: Index(0)},
			acceptProd,
		},
		{
			{Body: []Element{End{}}, Reducer: Accept},
			{Body: []Element{goal, End{}}, Reducer: Accept},
			acceptProd,
		},
	}

	for _, shape := range shapes {
		if len(def.Rhs) != len(shape) {
			continue
		}
		match := true
		for i := range shape {
			if !def.Rhs[i].Equal(shape[i]) {
				match = false
				break
			}
		}
		if match {
			return nil
		}
	}
	return newError(ErrBadInit, key, nil, nil,
		"productions are not one of the expected entry-point forms")
}

// validateDef validates and canonicalizes one nonterminal definition:
// default reducers are inferred, conditions and reduce expressions are
// checked, and every body element is validated and interned.
func (b *builder) validateDef(key NtKey, def NtDef) (NtDef, error) {
	out := NtDef{
		Params: make([]string, len(def.Params)),
		Rhs:    make([]Production, len(def.Rhs)),
	}
	copy(out.Params, def.Params)
	if def.Type != nil {
		ty := *def.Type
		out.Type = &ty
	}

	name, initMarker := keyName(key)
	soleProduction := len(def.Rhs) == 1

	for i := range def.Rhs {
		p := def.Rhs[i].Copy()

		if p.Reducer == nil {
			p.Reducer = b.inferReducer(name, i, soleProduction, p)
		}

		if p.Condition != nil {
			if !util.InSlice(p.Condition.Param, def.Params) {
				return NtDef{}, newError(ErrUndefinedRef, key, &p, nil,
					"undefined parameter %q in conditional for production %d",
					p.Condition.Param, i)
			}
		}

		if reduceKey(p.Reducer) == reduceKey(Accept) {
			if initMarker == nil {
				return NtDef{}, newError(ErrReducerArity, key, &p, nil,
					"the accept sentinel is only allowed on init nonterminal productions")
			}
		} else if err := b.checkReduceExpr(key, i, p, p.Reducer); err != nil {
			return NtDef{}, err
		}

		body := make([]Element, len(p.Body))
		for j, e := range p.Body {
			canonical, err := b.validateElement(key, i, j, e, def.Params)
			if err != nil {
				return NtDef{}, err
			}
			body[j] = canonical
		}
		p.Body = body
		out.Rhs[i] = p
	}
	return out, nil
}

// inferReducer builds the default reducer for a production declared without
// one: the lone concrete element's value when the body is exactly one
// concrete element, otherwise a call to a method named after the nonterminal
// (suffixed with the production index unless this is the sole production)
// passing every concrete element in order.
func (b *builder) inferReducer(name string, i int, soleProduction bool, p Production) ReduceExpr {
	nargs := p.ConcreteCount()
	if len(p.Body) == 1 && nargs == 1 {
		return Index(0)
	}
	method := name
	if !soleProduction {
		method = fmt.Sprintf("%s_%d", name, i)
	}
	args := make([]ReduceExpr, nargs)
	for k := range args {
		args[k] = Index(k)
	}
	return &CallMethod{Method: method, Args: args}
}

// checkReduceExpr validates one reduce expression against the production it
// reduces.
func (b *builder) checkReduceExpr(key NtKey, i int, p Production, expr ReduceExpr) error {
	switch v := expr.(type) {
	case Index:
		concreteLen := p.ConcreteCount()
		if int(v) < 0 || int(v) >= concreteLen {
			return newError(ErrReducerArity, key, &p, nil,
				"element number %d out of range in reducer of production %d "+
					"(%d concrete element(s))", int(v), i, concreteLen)
		}
	case *CallMethod:
		if !validMethodName(v.Method) {
			return newError(ErrReducerArity, key, &p, nil,
				"invalid method name %q (not an identifier) in reducer of production %d",
				v.Method, i)
		}
		for _, arg := range v.Args {
			if err := b.checkReduceExpr(key, i, p, arg); err != nil {
				return err
			}
		}
	case noneExpr:
	case *Some:
		return b.checkReduceExpr(key, i, p, v.Inner)
	case acceptExpr:
		return newError(ErrReducerArity, key, &p, nil,
			"the accept sentinel cannot be nested inside a reduce expression")
	default:
		return newError(ErrMalformedInput, key, &p, nil,
			"unrecognized reduce expression %v in production %d", expr, i)
	}
	return nil
}

// validateElement checks one element of a production body and returns its
// canonical interned form. Bare symbols naming a parameter-free nonterminal
// resolve to that nonterminal's invocation; bare symbols naming nothing
// declared become terminals and join the alphabet.
func (b *builder) validateElement(key NtKey, i, j int, e Element, contextParams []string) (Element, error) {
	switch v := e.(type) {
	case Symbol:
		if params, isNt := b.ntParams[string(v)]; isNt {
			if len(params) != 0 {
				return nil, newError(ErrParamMismatch, key, nil, e,
					"missing parameters for %q in production %d, element %d: expected %v",
					string(v), i, j, params)
			}
			return b.strToNt[string(v)], nil
		}
		b.noteTerminal(string(v))
		return v, nil
	case *Optional:
		if !isNameOrNt(v.Inner) {
			return nil, newError(ErrUnknownElement, key, nil, e,
				"unrecognized optional inner element in production %d, element %d: %v",
				i, j, v.Inner)
		}
		inner, err := b.validateElement(key, i, j, v.Inner, contextParams)
		if err != nil {
			return nil, err
		}
		return b.g.Intern(&Optional{Inner: inner}), nil
	case Literal:
		return b.g.Intern(v), nil
	case UnicodeCategory:
		return b.g.Intern(v), nil
	case *Exclude:
		if !isNameOrNt(v.Inner) {
			return nil, newError(ErrUnknownElement, key, nil, e,
				"unrecognized exclusion inner element in production %d, element %d: %v",
				i, j, v.Inner)
		}
		exclusions := make([]Element, len(v.Exclusions))
		for k, excl := range v.Exclusions {
			if !isNameOrNt(excl) {
				return nil, newError(ErrUnknownElement, key, nil, e,
					"unrecognized element in exclusion list of production %d, element %d: %v",
					i, j, excl)
			}
			canonical, err := b.validateElement(key, i, j, excl, contextParams)
			if err != nil {
				return nil, err
			}
			exclusions[k] = canonical
		}
		inner, err := b.validateElement(key, i, j, v.Inner, contextParams)
		if err != nil {
			return nil, err
		}
		return b.g.Intern(&Exclude{Inner: inner, Exclusions: exclusions}), nil
	case *Nt:
		if err := b.checkNtUse(key, i, j, v, contextParams); err != nil {
			return nil, err
		}
		return b.g.Intern(v), nil
	case *LookaheadRule:
		if v.Set == nil {
			return nil, newError(ErrMalformedInput, key, nil, e,
				"lookahead rule with no terminal set in production %d, element %d", i, j)
		}
		return b.g.Intern(v), nil
	case End, ErrorSymbol:
		return b.g.Intern(v), nil
	case noLineTerminator:
		return v, nil
	}
	return nil, newError(ErrUnknownElement, key, nil, e,
		"unrecognized element in production %d, element %d: %v", i, j, e)
}

// checkNtUse validates a nonterminal invocation appearing in a production
// body: the invoked nonterminal must be defined, the invocation's argument
// names must match the definition's parameter list exactly, and any forwarded
// variable must name a parameter of the enclosing nonterminal.
func (b *builder) checkNtUse(key NtKey, i, j int, nt *Nt, contextParams []string) error {
	defined := false
	switch {
	case nt.Init != nil && b.g.resolved:
		defined = b.declKeys[keyString(nt)]
	case nt.Init != nil:
		defined = b.declKeys[keyString(nt.Init)]
	case b.g.resolved:
		defined = b.declKeys[keyString(nt)]
	default:
		defined = b.declNames[nt.Name]
	}
	if !defined {
		return newError(ErrUndefinedRef, key, nil, nt,
			"unrecognized nonterminal %s in production %d, element %d",
			nt.String(), i, j)
	}

	if nt.Init == nil {
		argNames := make([]string, len(nt.Args))
		for k, a := range nt.Args {
			argNames[k] = a.Param
		}
		if params := b.ntParams[nt.Name]; !util.EqualComparableSlices(argNames, params) {
			return newError(ErrParamMismatch, key, nil, nt,
				"wrong arguments passed to %q in production %d, element %d: "+
					"passed %v, expected %v", nt.Name, i, j, argNames, params)
		}
	}

	for _, a := range nt.Args {
		switch val := a.Value.(type) {
		case ArgBool, ArgLiteral:
		case Var:
			if !util.InSlice(val.Name, contextParams) {
				return newError(ErrUndefinedRef, key, nil, nt,
					"undefined variable %q in production %d, element %d",
					val.Name, i, j)
			}
		default:
			return newError(ErrUnknownElement, key, nil, nt,
				"unrecognized argument value for %q in production %d, element %d: %v",
				a.Param, i, j, a.Value)
		}
	}
	return nil
}

func isNameOrNt(e Element) bool {
	switch e.(type) {
	case Symbol, *Nt:
		return true
	}
	return false
}

// assignTypes applies type information to the validated grammar: the
// precalculated info when the caller supplied it, otherwise whatever the
// inference hook produces. Inference failures propagate to the New caller
// unchanged.
func (b *builder) assignTypes(opts Options) error {
	if opts.MethodTypes != nil {
		for idx := range b.g.defs {
			if b.g.defs[idx].def.Type == nil {
				return newError(ErrMalformedInput, b.g.defs[idx].key, nil, nil,
					"method types were precalculated but this nonterminal carries no type")
			}
		}
		b.g.methods = make(map[string]types.MethodType, len(opts.MethodTypes))
		for name, mty := range opts.MethodTypes {
			b.g.methods[name] = mty
		}
		return nil
	}

	if opts.TypeInfer == nil {
		return nil
	}

	ntTypes, methods, err := opts.TypeInfer(b.g)
	if err != nil {
		return err
	}
	for idx := range b.g.defs {
		ty, ok := ntTypes[b.g.defs[idx].key]
		if !ok {
			return newError(ErrMalformedInput, b.g.defs[idx].key, nil, nil,
				"type inference did not assign a type to this nonterminal")
		}
		tyCopy := ty
		b.g.defs[idx].def.Type = &tyCopy
	}
	b.g.methods = methods
	return nil
}

// synthesizeInitNts appends one init nonterminal per goal. The init
// nonterminal's productions match the goal and then accept at end of input;
// its key is already present when the grammar was built by transforming a
// previous one, in which case the declared definition stands.
func (b *builder) synthesizeInitNts() {
	for _, goal := range b.goals {
		initMarker := &InitNt{Goal: goal}
		initInv := b.g.Intern(&Nt{Init: initMarker}).(*Nt)

		var key NtKey = initMarker
		if b.g.resolved {
			key = initInv
		}
		ks := keyString(key)
		if _, exists := b.g.defsByKey[ks]; !exists {
			ty := types.NoReturn
			def := NtDef{
				Rhs: []Production{
					{Body: []Element{goal}, Reducer: Index(0)},
					{Body: []Element{initInv, b.g.Intern(End{})}, Reducer: Accept},
				},
				Type: &ty,
			}
			b.g.defsByKey[ks] = len(b.g.defs)
			b.g.defs = append(b.g.defs, ntEntry{key: key, def: def})
		}
		b.g.initNts = append(b.g.initNts, initInv)
	}
}
