package gdesc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/haquey/gecko-dev/grammar"
)

func parseDescription(top topLevel, meta toml.MetaData) (Description, error) {
	var desc Description

	desc.Opts.VariableTerminals = top.Grammar.VariableTerminals

	for _, name := range orderedSectionKeys(meta, "synthetic") {
		desc.Opts.SyntheticTerminals = append(desc.Opts.SyntheticTerminals, grammar.SyntheticTerminal{
			Name:      name,
			Terminals: top.Synthetic[name].Terminals,
		})
	}

	for _, goalStr := range top.Grammar.Goals {
		goal, err := parseGoal(goalStr)
		if err != nil {
			return desc, fmt.Errorf("grammar: goals[%q]: %w", goalStr, err)
		}
		desc.Opts.Goals = append(desc.Opts.Goals, goal)
	}

	for _, name := range orderedSectionKeys(meta, "nonterminals") {
		def, err := parseNonterminal(top.Nonterminals[name])
		if err != nil {
			return desc, fmt.Errorf("nonterminals[%q]: %w", name, err)
		}
		desc.Decls = append(desc.Decls, grammar.Decl{
			Key: grammar.Symbol(name),
			Def: def,
		})
	}

	if len(desc.Decls) == 0 {
		return desc, fmt.Errorf("no nonterminals defined")
	}

	return desc, nil
}

// orderedSectionKeys returns the sub-keys of the named top-level table in the
// order they appear in the file. TOML maps unmarshal to Go maps and lose file
// order, so this is recovered from the decode metadata.
func orderedSectionKeys(meta toml.MetaData, section string) []string {
	var names []string
	seen := map[string]bool{}

	for _, key := range meta.Keys() {
		if len(key) < 2 || key[0] != section {
			continue
		}
		if !seen[key[1]] {
			seen[key[1]] = true
			names = append(names, key[1])
		}
	}

	return names
}

func parseGoal(s string) (grammar.NtKey, error) {
	e, err := parseElement(s)
	if err != nil {
		return nil, err
	}
	switch v := e.(type) {
	case grammar.Symbol:
		return v, nil
	case *grammar.Nt:
		return v, nil
	}
	return nil, fmt.Errorf("not a nonterminal name or invocation")
}

func parseNonterminal(sec nonterminalSection) (grammar.NtDef, error) {
	def := grammar.NtDef{
		Params: sec.Params,
	}

	for i, prodSec := range sec.Productions {
		prod, err := parseProduction(prodSec)
		if err != nil {
			return def, fmt.Errorf("productions[%d]: %w", i, err)
		}
		def.Rhs = append(def.Rhs, prod)
	}

	return def, nil
}

func parseProduction(sec productionSection) (grammar.Production, error) {
	var prod grammar.Production

	for j, elemStr := range sec.Body {
		e, err := parseElement(elemStr)
		if err != nil {
			return prod, fmt.Errorf("body[%d]: %w", j, err)
		}
		prod.Body = append(prod.Body, e)
	}

	reducer, err := parseReducer(sec.Reducer)
	if err != nil {
		return prod, fmt.Errorf("reducer: %w", err)
	}
	prod.Reducer = reducer

	cond, err := parseCondition(sec.If)
	if err != nil {
		return prod, fmt.Errorf("if: %w", err)
	}
	prod.Condition = cond

	return prod, nil
}

// parseElement converts the textual form of a body element:
//
//	name          a terminal or parameter-free nonterminal
//	name?         an optional element
//	Name[+A, ~B]  a parameterized nonterminal invocation (?C forwards the
//	              enclosing nonterminal's own C parameter)
//	<END>         the end-of-input terminal
//
// Whether a bare name is a terminal or a nonterminal is not decided here;
// grammar validation resolves names against the declared nonterminals.
func parseElement(s string) (grammar.Element, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty element")
	}

	if s == "<END>" {
		return grammar.End{}, nil
	}

	if strings.HasSuffix(s, "?") {
		inner, err := parseElement(s[:len(s)-1])
		if err != nil {
			return nil, err
		}
		return &grammar.Optional{Inner: inner}, nil
	}

	if open := strings.IndexRune(s, '['); open >= 0 {
		if !strings.HasSuffix(s, "]") {
			return nil, fmt.Errorf("unterminated argument list in %q", s)
		}
		name := s[:open]
		var args []grammar.NtArg
		argList := strings.TrimSpace(s[open+1 : len(s)-1])
		if argList != "" {
			for _, argStr := range strings.Split(argList, ",") {
				arg, err := parseArg(strings.TrimSpace(argStr))
				if err != nil {
					return nil, fmt.Errorf("in %q: %w", s, err)
				}
				args = append(args, arg)
			}
		}
		return &grammar.Nt{Name: name, Args: args}, nil
	}

	return grammar.Symbol(s), nil
}

func parseArg(s string) (grammar.NtArg, error) {
	if s == "" {
		return grammar.NtArg{}, fmt.Errorf("empty argument")
	}

	switch s[0] {
	case '+':
		return grammar.NtArg{Param: s[1:], Value: grammar.ArgBool(true)}, nil
	case '~':
		return grammar.NtArg{Param: s[1:], Value: grammar.ArgBool(false)}, nil
	case '?':
		return grammar.NtArg{Param: s[1:], Value: grammar.Var{Name: s[1:]}}, nil
	}
	if eq := strings.IndexRune(s, '='); eq > 0 {
		return grammar.NtArg{Param: s[:eq], Value: grammar.ArgLiteral(s[eq+1:])}, nil
	}
	return grammar.NtArg{}, fmt.Errorf("unrecognized argument %q; expected +name, ~name, ?name, or name=value", s)
}

// parseReducer converts the textual form of a reduce expression: $0, None,
// Some(...), or a method call like add($0, $2). An empty string means no
// reducer was written, leaving the default to be inferred.
func parseReducer(s string) (grammar.ReduceExpr, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if s == "None" {
		return grammar.None, nil
	}
	if s == "accept" || s == "<accept>" {
		return grammar.Accept, nil
	}

	if strings.HasPrefix(s, "$") {
		idx, err := strconv.Atoi(s[1:])
		if err != nil {
			return nil, fmt.Errorf("bad element reference %q", s)
		}
		return grammar.Index(idx), nil
	}

	open := strings.IndexRune(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return nil, fmt.Errorf("unrecognized reduce expression %q", s)
	}
	name := s[:open]
	argList := strings.TrimSpace(s[open+1 : len(s)-1])

	var args []grammar.ReduceExpr
	if argList != "" {
		for _, argStr := range splitArgs(argList) {
			arg, err := parseReducer(argStr)
			if err != nil {
				return nil, err
			}
			if arg == nil {
				return nil, fmt.Errorf("empty argument in %q", s)
			}
			args = append(args, arg)
		}
	}

	if name == "Some" {
		if len(args) != 1 {
			return nil, fmt.Errorf("Some takes exactly one argument, got %d", len(args))
		}
		return &grammar.Some{Inner: args[0]}, nil
	}
	return &grammar.CallMethod{Method: name, Args: args}, nil
}

// splitArgs splits a comma-separated argument list without splitting inside
// nested parentheses.
func splitArgs(s string) []string {
	var args []string
	depth := 0
	start := 0

	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, s[start:i])
				start = i + 1
			}
		}
	}
	args = append(args, s[start:])

	return args
}

func parseCondition(s string) (*grammar.Condition, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if len(s) < 2 {
		return nil, fmt.Errorf("unrecognized condition %q; expected +param or ~param", s)
	}
	switch s[0] {
	case '+':
		return &grammar.Condition{Param: s[1:], Value: true}, nil
	case '~':
		return &grammar.Condition{Param: s[1:], Value: false}, nil
	}
	return nil, fmt.Errorf("unrecognized condition %q; expected +param or ~param", s)
}
