package grammar

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dekarrin/rosed"
	"github.com/haquey/gecko-dev/internal/util"
)

// ElementString returns the display form of an element within this grammar.
// Fixed-spelling terminals are quoted; variable and synthetic terminals
// appear bare, since their names are not spellings.
func (g *Grammar) ElementString(e Element) string {
	switch v := e.(type) {
	case *Nt:
		return v.String()
	case Symbol:
		name := string(v)
		if g.variableTerminals.Has(name) {
			return name
		}
		if _, synth := g.synthetic[name]; synth {
			return name
		}
		return strconv.Quote(name)
	case *Optional:
		return g.ElementString(v.Inner) + "?"
	case Literal:
		return strconv.Quote(v.Text)
	case UnicodeCategory:
		return fmt.Sprintf("[unicode category %q]", v.CatPrefix)
	case *Exclude:
		exclusions := make([]string, len(v.Exclusions))
		for i, excl := range v.Exclusions {
			exclusions[i] = g.ElementString(excl)
		}
		return fmt.Sprintf("(%s - {%s})", g.ElementString(v.Inner), strings.Join(exclusions, ", "))
	case *LookaheadRule:
		members := v.Set.Elements()
		if len(members) == 1 {
			op := "!="
			if v.Positive {
				op = "=="
			}
			return fmt.Sprintf("[lookahead %s %s]", op, strconv.Quote(members[0]))
		}
		op := "not in"
		if v.Positive {
			op = "in"
		}
		quoted := make([]string, len(members))
		for i, m := range members {
			quoted[i] = strconv.Quote(m)
		}
		return fmt.Sprintf("[lookahead %s {%s}]", op, strings.Join(quoted, ", "))
	case End:
		return "<END>"
	case ErrorSymbol:
		return fmt.Sprintf("<ERROR %d>", v.Code)
	case noLineTerminator:
		return "[no LineTerminator here]"
	}
	return fmt.Sprintf("%v", e)
}

// SymbolsString returns the display form of a sequence of elements, space
// separated.
func (g *Grammar) SymbolsString(body []Element) string {
	parts := make([]string, len(body))
	for i, e := range body {
		parts[i] = g.ElementString(e)
	}
	return strings.Join(parts, " ")
}

// RHSString returns the display form of one production's right-hand side,
// with its condition as a #[if ...] prefix when it has one. An empty body
// renders as [empty].
func (g *Grammar) RHSString(p Production) string {
	prefix := ""
	if p.Condition != nil {
		prefix = fmt.Sprintf("#[if %s] ", p.Condition.String())
	}
	if len(p.Body) == 0 {
		return prefix + "[empty]"
	}
	return prefix + g.SymbolsString(p.Body)
}

// ProductionString returns the display form of a full production, reducer
// included: `Name ::= body => reducer`.
func (g *Grammar) ProductionString(key NtKey, p Production) string {
	s := fmt.Sprintf("%s ::= %s", keyDisplay(key), g.RHSString(p))
	if p.Reducer != nil {
		s += " => " + ExprString(p.Reducer)
	}
	return s
}

// Dump returns a listing of every nonterminal definition in the grammar, in
// declaration order, one production per line.
func (g *Grammar) Dump() string {
	var sb strings.Builder
	for _, entry := range g.defs {
		leftSide := keyDisplay(entry.key)
		if len(entry.def.Params) > 0 {
			leftSide += "[" + strings.Join(entry.def.Params, ", ") + "]"
		}
		sb.WriteString(leftSide)
		sb.WriteString(" ::=\n")
		for _, p := range entry.def.Rhs {
			sb.WriteString("    ")
			sb.WriteString(g.RHSString(p))
			sb.WriteRune('\n')
		}
		sb.WriteRune('\n')
	}
	return sb.String()
}

// DumpTypeInfo returns a table of the assigned type of every nonterminal
// followed by a table of every builder method signature. It returns an empty
// string if the grammar carries no type information.
func (g *Grammar) DumpTypeInfo() string {
	if g.methods == nil {
		return ""
	}

	ntData := [][]string{{"Nonterminal", "Type"}}
	for _, entry := range g.defs {
		tyStr := "(none)"
		if entry.def.Type != nil {
			tyStr = entry.def.Type.String()
		}
		ntData = append(ntData, []string{keyDisplay(entry.key), tyStr})
	}

	methodData := [][]string{{"Method", "Signature"}}
	for _, name := range util.OrderedKeys(g.methods) {
		methodData = append(methodData, []string{name, g.methods[name].String()})
	}

	tableOpts := rosed.Options{
		TableBorders:             true,
		TableHeaders:             true,
		NoTrailingLineSeparators: true,
	}

	return rosed.Edit("").
		InsertTableOpts(0, ntData, 80, tableOpts).
		Insert(rosed.End, "\n").
		InsertTableOpts(rosed.End, methodData, 80, tableOpts).
		String()
}
