package grammar

import (
	"fmt"
	"strings"
	"unicode"
)

// ReduceExpr describes the value a production builds when it is matched. It is
// a closed set of variants:
//
//   - Index, the value of the i-th concrete element of the body.
//   - *CallMethod, a call to a named builder method with subexpression
//     arguments.
//   - None, no value at all.
//   - *Some, its subexpression's value wrapped to mark it present, for use
//     where an Optional element makes absence possible.
//   - Accept, the accept sentinel legal only on synthesized init productions.
//
// A Production with a nil Reducer asks for the default to be inferred during
// validation: the lone concrete element's value when there is exactly one,
// otherwise a method call passing every concrete element in order.
type ReduceExpr interface {
	writeReduceKey(sb *strings.Builder)
}

// Index refers to the value of one concrete element of the production body,
// counting from zero and skipping non-concrete elements.
type Index int

func (i Index) writeReduceKey(sb *strings.Builder) {
	fmt.Fprintf(sb, "i:%d", int(i))
}

// CallMethod is a call to a builder method. The method name either is an
// identifier or is an identifier followed by a space and a run of digits,
// which lets expansion derive fresh related names without colliding with any
// user-written identifier.
type CallMethod struct {
	Method string
	Args   []ReduceExpr
}

func (c *CallMethod) writeReduceKey(sb *strings.Builder) {
	sb.WriteString("call:")
	sb.WriteString(c.Method)
	sb.WriteRune('(')
	for i, a := range c.Args {
		if i > 0 {
			sb.WriteRune(',')
		}
		a.writeReduceKey(sb)
	}
	sb.WriteRune(')')
}

// Equal returns whether the call is structurally equal to another value. It
// will not be equal if the other value cannot be cast to *CallMethod.
func (c *CallMethod) Equal(o any) bool {
	other, ok := o.(*CallMethod)
	if !ok || other == nil {
		return false
	}
	return reduceKey(c) == reduceKey(other)
}

type noneExpr struct{}

func (noneExpr) writeReduceKey(sb *strings.Builder) {
	sb.WriteString("none")
}

// None is the reduce expression producing no value.
var None ReduceExpr = noneExpr{}

// Some wraps its subexpression's value to mark it as present. Where an
// Optional element may produce either nothing or a value, the two outcomes
// reduce through None and Some respectively so they stay distinguishable.
type Some struct {
	Inner ReduceExpr
}

func (s *Some) writeReduceKey(sb *strings.Builder) {
	sb.WriteString("some(")
	s.Inner.writeReduceKey(sb)
	sb.WriteRune(')')
}

type acceptExpr struct{}

func (acceptExpr) writeReduceKey(sb *strings.Builder) {
	sb.WriteString("accept")
}

// Accept is the sentinel reducer that tells the run-time driver a goal has
// been fully matched. It is only ever legal as the entire reducer of the
// second production of a synthesized init nonterminal.
var Accept ReduceExpr = acceptExpr{}

// reduceKey returns the canonical structural key of expr. A nil expr (the
// infer-default marker) keys distinctly from every explicit variant.
func reduceKey(expr ReduceExpr) string {
	if expr == nil {
		return "<infer>"
	}
	var sb strings.Builder
	expr.writeReduceKey(&sb)
	return sb.String()
}

// reduceExprsEqual returns whether two reduce expressions are structurally
// equal. nil equals only nil.
func reduceExprsEqual(e1, e2 ReduceExpr) bool {
	return reduceKey(e1) == reduceKey(e2)
}

// ExprString returns the human-readable rendering of a reduce expression:
// $i for element references, None, Some(...), method calls with their
// arguments, and <accept> for the accept sentinel.
func ExprString(expr ReduceExpr) string {
	switch v := expr.(type) {
	case Index:
		return fmt.Sprintf("$%d", int(v))
	case *CallMethod:
		args := make([]string, len(v.Args))
		for i, a := range v.Args {
			args[i] = ExprString(a)
		}
		return fmt.Sprintf("%s(%s)", v.Method, strings.Join(args, ", "))
	case noneExpr:
		return "None"
	case *Some:
		return fmt.Sprintf("Some(%s)", ExprString(v.Inner))
	case acceptExpr:
		return "<accept>"
	}
	return fmt.Sprintf("%v", expr)
}

// validMethodName reports whether name is usable as a builder method name: a
// plain identifier, or an identifier followed by a single space and one or
// more digits.
func validMethodName(name string) bool {
	ident := name
	if sp := strings.IndexRune(name, ' '); sp >= 0 {
		ident = name[:sp]
		digits := name[sp+1:]
		if len(digits) == 0 {
			return false
		}
		for _, r := range digits {
			if r < '0' || r > '9' {
				return false
			}
		}
	}

	return isIdentifier(ident)
}

// isIdentifier reports whether s is a plain identifier: a letter or underscore
// followed by letters, digits, and underscores.
func isIdentifier(s string) bool {
	if len(s) == 0 {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}
