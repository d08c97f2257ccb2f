package grammar

import (
	"fmt"

	"github.com/dekarrin/rezi"
	"github.com/haquey/gecko-dev/internal/ordered"
	"github.com/haquey/gecko-dev/internal/util"
	"github.com/haquey/gecko-dev/types"
)

// This file contains the format for binary encoding of grammars, used to
// checkpoint a pipeline between runs. The encoded form carries the grammar's
// declarations, not its internal state: decoding replays them through New, so
// a decoded grammar is revalidated and re-interned and tampered bytes cannot
// produce a Grammar that validation would have rejected.

const grammarBinaryVersion = 1

// element variant tags in encoded form
const (
	binElemSymbol = iota
	binElemNt
	binElemOptional
	binElemLiteral
	binElemUnicodeCategory
	binElemExclude
	binElemLookahead
	binElemEnd
	binElemError
	binElemNoLineTerminator
)

// reduce expression variant tags in encoded form
const (
	binReduceIndex = iota
	binReduceCall
	binReduceNone
	binReduceSome
	binReduceAccept
)

// nonterminal key variant tags in encoded form
const (
	binKeyName = iota
	binKeyInit
	binKeyResolved
)

// argument value variant tags in encoded form
const (
	binArgBool = iota
	binArgLiteral
	binArgVar
)

// MarshalBinary converts g into a slice of bytes that can be decoded with
// UnmarshalBinary.
func (g *Grammar) MarshalBinary() ([]byte, error) {
	var data []byte

	data = append(data, rezi.EncInt(grammarBinaryVersion)...)
	data = append(data, rezi.EncSliceString(g.variableTerminals.Elements())...)

	data = append(data, rezi.EncInt(len(g.synthNames))...)
	for _, name := range g.synthNames {
		data = append(data, rezi.EncString(name)...)
		data = append(data, rezi.EncSliceString(g.synthetic[name].Elements())...)
	}

	data = append(data, rezi.EncInt(len(g.initNts))...)
	for _, initNt := range g.initNts {
		data = append(data, encElement(initNt.Init.Goal)...)
	}

	data = append(data, rezi.EncInt(len(g.defs))...)
	for _, entry := range g.defs {
		data = append(data, encKey(entry.key)...)
		data = append(data, encNtDef(entry.def)...)
	}

	data = append(data, rezi.EncBool(g.methods != nil)...)
	if g.methods != nil {
		data = append(data, rezi.EncInt(len(g.methods))...)
		for _, name := range util.OrderedKeys(g.methods) {
			data = append(data, rezi.EncString(name)...)
			data = append(data, rezi.EncBinary(g.methods[name])...)
		}
	}

	return data, nil
}

// UnmarshalBinary takes a slice of bytes created by MarshalBinary and decodes
// it into g. The decoded declarations go through full validation, so this
// fails not just on malformed bytes but on any bytes that do not describe a
// valid grammar.
func (g *Grammar) UnmarshalBinary(data []byte) error {
	var bytesRead int
	var err error

	var version int
	version, bytesRead, err = rezi.DecInt(data)
	if err != nil {
		return fmt.Errorf("version: %w", err)
	}
	data = data[bytesRead:]
	if version != grammarBinaryVersion {
		return fmt.Errorf("unsupported grammar encoding version: %d", version)
	}

	var opts Options
	opts.VariableTerminals, bytesRead, err = rezi.DecSliceString(data)
	if err != nil {
		return fmt.Errorf("variable terminals: %w", err)
	}
	data = data[bytesRead:]

	var numSynth int
	numSynth, bytesRead, err = rezi.DecInt(data)
	if err != nil {
		return fmt.Errorf("synthetic terminal count: %w", err)
	}
	data = data[bytesRead:]
	for i := 0; i < numSynth; i++ {
		var synth SyntheticTerminal
		synth.Name, bytesRead, err = rezi.DecString(data)
		if err != nil {
			return fmt.Errorf("synthetic terminal[%d] name: %w", i, err)
		}
		data = data[bytesRead:]
		synth.Terminals, bytesRead, err = rezi.DecSliceString(data)
		if err != nil {
			return fmt.Errorf("synthetic terminal[%d] members: %w", i, err)
		}
		data = data[bytesRead:]
		opts.SyntheticTerminals = append(opts.SyntheticTerminals, synth)
	}

	var numGoals int
	numGoals, bytesRead, err = rezi.DecInt(data)
	if err != nil {
		return fmt.Errorf("goal count: %w", err)
	}
	data = data[bytesRead:]
	for i := 0; i < numGoals; i++ {
		var goalElem Element
		goalElem, bytesRead, err = decElement(data)
		if err != nil {
			return fmt.Errorf("goal[%d]: %w", i, err)
		}
		data = data[bytesRead:]
		goal, ok := goalElem.(*Nt)
		if !ok {
			return fmt.Errorf("goal[%d]: not a nonterminal invocation", i)
		}
		opts.Goals = append(opts.Goals, goal)
	}

	var numDefs int
	numDefs, bytesRead, err = rezi.DecInt(data)
	if err != nil {
		return fmt.Errorf("nonterminal count: %w", err)
	}
	data = data[bytesRead:]
	var decls []Decl
	for i := 0; i < numDefs; i++ {
		var d Decl
		d.Key, bytesRead, err = decKey(data)
		if err != nil {
			return fmt.Errorf("nonterminal[%d] key: %w", i, err)
		}
		data = data[bytesRead:]
		d.Def, bytesRead, err = decNtDef(data)
		if err != nil {
			return fmt.Errorf("nonterminal[%d] definition: %w", i, err)
		}
		data = data[bytesRead:]
		decls = append(decls, d)
	}

	var hasMethods bool
	hasMethods, bytesRead, err = rezi.DecBool(data)
	if err != nil {
		return fmt.Errorf("method table flag: %w", err)
	}
	data = data[bytesRead:]
	if hasMethods {
		var numMethods int
		numMethods, bytesRead, err = rezi.DecInt(data)
		if err != nil {
			return fmt.Errorf("method count: %w", err)
		}
		data = data[bytesRead:]
		opts.MethodTypes = make(map[string]types.MethodType, numMethods)
		for i := 0; i < numMethods; i++ {
			var name string
			name, bytesRead, err = rezi.DecString(data)
			if err != nil {
				return fmt.Errorf("method[%d] name: %w", i, err)
			}
			data = data[bytesRead:]
			var mty types.MethodType
			bytesRead, err = rezi.DecBinary(data, &mty)
			if err != nil {
				return fmt.Errorf("method[%d] signature: %w", i, err)
			}
			data = data[bytesRead:]
			opts.MethodTypes[name] = mty
		}
	}

	decoded, err := New(decls, opts)
	if err != nil {
		return fmt.Errorf("decoded grammar: %w", err)
	}
	*g = *decoded
	return nil
}

func encElement(e Element) []byte {
	var data []byte

	switch v := e.(type) {
	case Symbol:
		data = append(data, rezi.EncInt(binElemSymbol)...)
		data = append(data, rezi.EncString(string(v))...)
	case *Nt:
		data = append(data, rezi.EncInt(binElemNt)...)
		data = append(data, rezi.EncBool(v.Init != nil)...)
		if v.Init != nil {
			data = append(data, encElement(v.Init.Goal)...)
		} else {
			data = append(data, rezi.EncString(v.Name)...)
		}
		data = append(data, rezi.EncInt(len(v.Args))...)
		for _, a := range v.Args {
			data = append(data, rezi.EncString(a.Param)...)
			data = append(data, encArgValue(a.Value)...)
		}
	case *Optional:
		data = append(data, rezi.EncInt(binElemOptional)...)
		data = append(data, encElement(v.Inner)...)
	case Literal:
		data = append(data, rezi.EncInt(binElemLiteral)...)
		data = append(data, rezi.EncString(v.Text)...)
	case UnicodeCategory:
		data = append(data, rezi.EncInt(binElemUnicodeCategory)...)
		data = append(data, rezi.EncString(v.CatPrefix)...)
	case *Exclude:
		data = append(data, rezi.EncInt(binElemExclude)...)
		data = append(data, encElement(v.Inner)...)
		data = append(data, rezi.EncInt(len(v.Exclusions))...)
		for _, excl := range v.Exclusions {
			data = append(data, encElement(excl)...)
		}
	case *LookaheadRule:
		data = append(data, rezi.EncInt(binElemLookahead)...)
		data = append(data, rezi.EncBool(v.Positive)...)
		data = append(data, rezi.EncSliceString(v.Set.Elements())...)
	case End:
		data = append(data, rezi.EncInt(binElemEnd)...)
	case ErrorSymbol:
		data = append(data, rezi.EncInt(binElemError)...)
		data = append(data, rezi.EncInt(v.Code)...)
	case noLineTerminator:
		data = append(data, rezi.EncInt(binElemNoLineTerminator)...)
	}

	return data
}

func decElement(data []byte) (Element, int, error) {
	var readBytes int

	tag, bytesRead, err := rezi.DecInt(data)
	if err != nil {
		return nil, 0, fmt.Errorf("element tag: %w", err)
	}
	data = data[bytesRead:]
	readBytes += bytesRead

	switch tag {
	case binElemSymbol:
		name, bytesRead, err := rezi.DecString(data)
		if err != nil {
			return nil, 0, err
		}
		return Symbol(name), readBytes + bytesRead, nil
	case binElemNt:
		nt := &Nt{}
		hasInit, bytesRead, err := rezi.DecBool(data)
		if err != nil {
			return nil, 0, err
		}
		data = data[bytesRead:]
		readBytes += bytesRead
		if hasInit {
			goalElem, bytesRead, err := decElement(data)
			if err != nil {
				return nil, 0, fmt.Errorf("init goal: %w", err)
			}
			data = data[bytesRead:]
			readBytes += bytesRead
			goal, ok := goalElem.(*Nt)
			if !ok {
				return nil, 0, fmt.Errorf("init goal: not a nonterminal invocation")
			}
			nt.Init = &InitNt{Goal: goal}
		} else {
			nt.Name, bytesRead, err = rezi.DecString(data)
			if err != nil {
				return nil, 0, err
			}
			data = data[bytesRead:]
			readBytes += bytesRead
		}
		numArgs, bytesRead, err := rezi.DecInt(data)
		if err != nil {
			return nil, 0, err
		}
		data = data[bytesRead:]
		readBytes += bytesRead
		for i := 0; i < numArgs; i++ {
			var a NtArg
			a.Param, bytesRead, err = rezi.DecString(data)
			if err != nil {
				return nil, 0, err
			}
			data = data[bytesRead:]
			readBytes += bytesRead
			a.Value, bytesRead, err = decArgValue(data)
			if err != nil {
				return nil, 0, err
			}
			data = data[bytesRead:]
			readBytes += bytesRead
			nt.Args = append(nt.Args, a)
		}
		return nt, readBytes, nil
	case binElemOptional:
		inner, bytesRead, err := decElement(data)
		if err != nil {
			return nil, 0, err
		}
		return &Optional{Inner: inner}, readBytes + bytesRead, nil
	case binElemLiteral:
		text, bytesRead, err := rezi.DecString(data)
		if err != nil {
			return nil, 0, err
		}
		return Literal{Text: text}, readBytes + bytesRead, nil
	case binElemUnicodeCategory:
		prefix, bytesRead, err := rezi.DecString(data)
		if err != nil {
			return nil, 0, err
		}
		return UnicodeCategory{CatPrefix: prefix}, readBytes + bytesRead, nil
	case binElemExclude:
		excl := &Exclude{}
		inner, bytesRead, err := decElement(data)
		if err != nil {
			return nil, 0, err
		}
		data = data[bytesRead:]
		readBytes += bytesRead
		excl.Inner = inner
		numExcl, bytesRead, err := rezi.DecInt(data)
		if err != nil {
			return nil, 0, err
		}
		data = data[bytesRead:]
		readBytes += bytesRead
		for i := 0; i < numExcl; i++ {
			e, bytesRead, err := decElement(data)
			if err != nil {
				return nil, 0, err
			}
			data = data[bytesRead:]
			readBytes += bytesRead
			excl.Exclusions = append(excl.Exclusions, e)
		}
		return excl, readBytes, nil
	case binElemLookahead:
		positive, bytesRead, err := rezi.DecBool(data)
		if err != nil {
			return nil, 0, err
		}
		data = data[bytesRead:]
		readBytes += bytesRead
		members, bytesRead, err := rezi.DecSliceString(data)
		if err != nil {
			return nil, 0, err
		}
		readBytes += bytesRead
		return &LookaheadRule{Set: ordered.Frozen(members...), Positive: positive}, readBytes, nil
	case binElemEnd:
		return End{}, readBytes, nil
	case binElemError:
		code, bytesRead, err := rezi.DecInt(data)
		if err != nil {
			return nil, 0, err
		}
		return ErrorSymbol{Code: code}, readBytes + bytesRead, nil
	case binElemNoLineTerminator:
		return NoLineTerminatorHere, readBytes, nil
	}
	return nil, 0, fmt.Errorf("unknown element tag: %d", tag)
}

func encArgValue(v ArgValue) []byte {
	var data []byte

	switch val := v.(type) {
	case ArgBool:
		data = append(data, rezi.EncInt(binArgBool)...)
		data = append(data, rezi.EncBool(bool(val))...)
	case ArgLiteral:
		data = append(data, rezi.EncInt(binArgLiteral)...)
		data = append(data, rezi.EncString(string(val))...)
	case Var:
		data = append(data, rezi.EncInt(binArgVar)...)
		data = append(data, rezi.EncString(val.Name)...)
	}

	return data
}

func decArgValue(data []byte) (ArgValue, int, error) {
	tag, readBytes, err := rezi.DecInt(data)
	if err != nil {
		return nil, 0, fmt.Errorf("argument value tag: %w", err)
	}
	data = data[readBytes:]

	switch tag {
	case binArgBool:
		b, bytesRead, err := rezi.DecBool(data)
		if err != nil {
			return nil, 0, err
		}
		return ArgBool(b), readBytes + bytesRead, nil
	case binArgLiteral:
		s, bytesRead, err := rezi.DecString(data)
		if err != nil {
			return nil, 0, err
		}
		return ArgLiteral(s), readBytes + bytesRead, nil
	case binArgVar:
		name, bytesRead, err := rezi.DecString(data)
		if err != nil {
			return nil, 0, err
		}
		return Var{Name: name}, readBytes + bytesRead, nil
	}
	return nil, 0, fmt.Errorf("unknown argument value tag: %d", tag)
}

func encReduceExpr(expr ReduceExpr) []byte {
	var data []byte

	switch v := expr.(type) {
	case Index:
		data = append(data, rezi.EncInt(binReduceIndex)...)
		data = append(data, rezi.EncInt(int(v))...)
	case *CallMethod:
		data = append(data, rezi.EncInt(binReduceCall)...)
		data = append(data, rezi.EncString(v.Method)...)
		data = append(data, rezi.EncInt(len(v.Args))...)
		for _, arg := range v.Args {
			data = append(data, encReduceExpr(arg)...)
		}
	case noneExpr:
		data = append(data, rezi.EncInt(binReduceNone)...)
	case *Some:
		data = append(data, rezi.EncInt(binReduceSome)...)
		data = append(data, encReduceExpr(v.Inner)...)
	case acceptExpr:
		data = append(data, rezi.EncInt(binReduceAccept)...)
	}

	return data
}

func decReduceExpr(data []byte) (ReduceExpr, int, error) {
	tag, readBytes, err := rezi.DecInt(data)
	if err != nil {
		return nil, 0, fmt.Errorf("reduce expression tag: %w", err)
	}
	data = data[readBytes:]

	switch tag {
	case binReduceIndex:
		idx, bytesRead, err := rezi.DecInt(data)
		if err != nil {
			return nil, 0, err
		}
		return Index(idx), readBytes + bytesRead, nil
	case binReduceCall:
		call := &CallMethod{}
		var bytesRead int
		call.Method, bytesRead, err = rezi.DecString(data)
		if err != nil {
			return nil, 0, err
		}
		data = data[bytesRead:]
		readBytes += bytesRead
		numArgs, bytesRead, err := rezi.DecInt(data)
		if err != nil {
			return nil, 0, err
		}
		data = data[bytesRead:]
		readBytes += bytesRead
		for i := 0; i < numArgs; i++ {
			arg, bytesRead, err := decReduceExpr(data)
			if err != nil {
				return nil, 0, err
			}
			data = data[bytesRead:]
			readBytes += bytesRead
			call.Args = append(call.Args, arg)
		}
		return call, readBytes, nil
	case binReduceNone:
		return None, readBytes, nil
	case binReduceSome:
		inner, bytesRead, err := decReduceExpr(data)
		if err != nil {
			return nil, 0, err
		}
		return &Some{Inner: inner}, readBytes + bytesRead, nil
	case binReduceAccept:
		return Accept, readBytes, nil
	}
	return nil, 0, fmt.Errorf("unknown reduce expression tag: %d", tag)
}

func encKey(key NtKey) []byte {
	var data []byte

	switch v := key.(type) {
	case Symbol:
		data = append(data, rezi.EncInt(binKeyName)...)
		data = append(data, rezi.EncString(string(v))...)
	case *InitNt:
		data = append(data, rezi.EncInt(binKeyInit)...)
		data = append(data, encElement(v.Goal)...)
	case *Nt:
		data = append(data, rezi.EncInt(binKeyResolved)...)
		data = append(data, encElement(v)...)
	}

	return data
}

func decKey(data []byte) (NtKey, int, error) {
	tag, readBytes, err := rezi.DecInt(data)
	if err != nil {
		return nil, 0, fmt.Errorf("key tag: %w", err)
	}
	data = data[readBytes:]

	switch tag {
	case binKeyName:
		name, bytesRead, err := rezi.DecString(data)
		if err != nil {
			return nil, 0, err
		}
		return Symbol(name), readBytes + bytesRead, nil
	case binKeyInit:
		goalElem, bytesRead, err := decElement(data)
		if err != nil {
			return nil, 0, err
		}
		goal, ok := goalElem.(*Nt)
		if !ok {
			return nil, 0, fmt.Errorf("init key goal: not a nonterminal invocation")
		}
		return &InitNt{Goal: goal}, readBytes + bytesRead, nil
	case binKeyResolved:
		elem, bytesRead, err := decElement(data)
		if err != nil {
			return nil, 0, err
		}
		nt, ok := elem.(*Nt)
		if !ok {
			return nil, 0, fmt.Errorf("resolved key: not a nonterminal invocation")
		}
		return nt, readBytes + bytesRead, nil
	}
	return nil, 0, fmt.Errorf("unknown key tag: %d", tag)
}

func encProduction(p Production) []byte {
	var data []byte

	data = append(data, rezi.EncInt(len(p.Body))...)
	for _, e := range p.Body {
		data = append(data, encElement(e)...)
	}
	data = append(data, encReduceExpr(p.Reducer)...)
	data = append(data, rezi.EncBool(p.Condition != nil)...)
	if p.Condition != nil {
		data = append(data, rezi.EncString(p.Condition.Param)...)
		data = append(data, rezi.EncBool(p.Condition.Value)...)
	}

	return data
}

func decProduction(data []byte) (Production, int, error) {
	var p Production
	var readBytes int

	numElems, bytesRead, err := rezi.DecInt(data)
	if err != nil {
		return p, 0, fmt.Errorf("body length: %w", err)
	}
	data = data[bytesRead:]
	readBytes += bytesRead
	for i := 0; i < numElems; i++ {
		e, bytesRead, err := decElement(data)
		if err != nil {
			return p, 0, fmt.Errorf("body[%d]: %w", i, err)
		}
		data = data[bytesRead:]
		readBytes += bytesRead
		p.Body = append(p.Body, e)
	}

	p.Reducer, bytesRead, err = decReduceExpr(data)
	if err != nil {
		return p, 0, fmt.Errorf("reducer: %w", err)
	}
	data = data[bytesRead:]
	readBytes += bytesRead

	hasCondition, bytesRead, err := rezi.DecBool(data)
	if err != nil {
		return p, 0, fmt.Errorf("condition flag: %w", err)
	}
	data = data[bytesRead:]
	readBytes += bytesRead
	if hasCondition {
		var cond Condition
		cond.Param, bytesRead, err = rezi.DecString(data)
		if err != nil {
			return p, 0, fmt.Errorf("condition parameter: %w", err)
		}
		data = data[bytesRead:]
		readBytes += bytesRead
		cond.Value, bytesRead, err = rezi.DecBool(data)
		if err != nil {
			return p, 0, fmt.Errorf("condition value: %w", err)
		}
		readBytes += bytesRead
		p.Condition = &cond
	}

	return p, readBytes, nil
}

func encNtDef(d NtDef) []byte {
	var data []byte

	data = append(data, rezi.EncSliceString(d.Params)...)
	data = append(data, rezi.EncInt(len(d.Rhs))...)
	for _, p := range d.Rhs {
		data = append(data, encProduction(p)...)
	}
	data = append(data, rezi.EncBool(d.Type != nil)...)
	if d.Type != nil {
		data = append(data, rezi.EncBinary(*d.Type)...)
	}

	return data
}

func decNtDef(data []byte) (NtDef, int, error) {
	var d NtDef
	var readBytes int

	params, bytesRead, err := rezi.DecSliceString(data)
	if err != nil {
		return d, 0, fmt.Errorf("params: %w", err)
	}
	data = data[bytesRead:]
	readBytes += bytesRead
	d.Params = params

	numProds, bytesRead, err := rezi.DecInt(data)
	if err != nil {
		return d, 0, fmt.Errorf("production count: %w", err)
	}
	data = data[bytesRead:]
	readBytes += bytesRead
	for i := 0; i < numProds; i++ {
		p, bytesRead, err := decProduction(data)
		if err != nil {
			return d, 0, fmt.Errorf("production[%d]: %w", i, err)
		}
		data = data[bytesRead:]
		readBytes += bytesRead
		d.Rhs = append(d.Rhs, p)
	}

	hasType, bytesRead, err := rezi.DecBool(data)
	if err != nil {
		return d, 0, fmt.Errorf("type flag: %w", err)
	}
	data = data[bytesRead:]
	readBytes += bytesRead
	if hasType {
		var ty types.Type
		bytesRead, err = rezi.DecBinary(data, &ty)
		if err != nil {
			return d, 0, fmt.Errorf("type: %w", err)
		}
		readBytes += bytesRead
		d.Type = &ty
	}

	return d, readBytes, nil
}
