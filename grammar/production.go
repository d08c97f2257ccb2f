package grammar

import (
	"strings"

	"github.com/haquey/gecko-dev/internal/util"
	"github.com/haquey/gecko-dev/types"
)

// Production is one right-hand side of a nonterminal: a body of elements, the
// reduce expression describing the value it builds, and optionally a condition
// restricting which expansions of the enclosing parameterized nonterminal the
// production applies to.
type Production struct {
	// Body is the sequence of elements the production matches.
	Body []Element

	// Reducer describes the value built when the body is matched. A nil
	// Reducer asks for the default to be inferred during validation.
	Reducer ReduceExpr

	// Condition, when non-nil, makes the production apply only to expansions
	// where the named boolean parameter has the given value.
	Condition *Condition
}

// Condition restricts a production to the expansions of its parameterized
// nonterminal in which the named boolean parameter has the given value.
type Condition struct {
	Param string
	Value bool
}

func (c Condition) String() string {
	if c.Value {
		return "+" + c.Param
	}
	return "~" + c.Param
}

// Copy returns a deeply-copied duplicate of the production. Elements and
// reduce expressions are immutable once built, so they are shared.
func (p Production) Copy() Production {
	pCopy := p
	pCopy.Body = make([]Element, len(p.Body))
	copy(pCopy.Body, p.Body)
	if p.Condition != nil {
		cond := *p.Condition
		pCopy.Condition = &cond
	}
	return pCopy
}

// WithBody returns a copy of the production with the body replaced.
func (p Production) WithBody(body []Element) Production {
	pCopy := p.Copy()
	pCopy.Body = make([]Element, len(body))
	copy(pCopy.Body, body)
	return pCopy
}

// WithReducer returns a copy of the production with the reducer replaced.
func (p Production) WithReducer(expr ReduceExpr) Production {
	pCopy := p.Copy()
	pCopy.Reducer = expr
	return pCopy
}

// ConcreteCount returns the number of concrete elements in the body. Element
// references in the production's reduce expression must be less than this.
func (p Production) ConcreteCount() int {
	count := 0
	for _, e := range p.Body {
		if IsConcreteElement(e) {
			count++
		}
	}
	return count
}

// Equal returns whether the production is structurally equal to another value.
// It will not be equal if the other value cannot be cast to Production or
// *Production.
func (p Production) Equal(o any) bool {
	other, ok := o.(Production)
	if !ok {
		otherPtr, ok := o.(*Production)
		if !ok || otherPtr == nil {
			return false
		}
		other = *otherPtr
	}

	if len(p.Body) != len(other.Body) {
		return false
	}
	for i := range p.Body {
		if !elementsEqual(p.Body[i], other.Body[i]) {
			return false
		}
	}
	if !reduceExprsEqual(p.Reducer, other.Reducer) {
		return false
	}
	if (p.Condition == nil) != (other.Condition == nil) {
		return false
	}
	if p.Condition != nil && *p.Condition != *other.Condition {
		return false
	}
	return true
}

// productionKey returns the canonical structural key of a production, used to
// detect duplicate right-hand sides.
func productionKey(p Production) string {
	var sb strings.Builder
	for i, e := range p.Body {
		if i > 0 {
			sb.WriteRune(' ')
		}
		e.writeKey(&sb)
	}
	sb.WriteString(" / ")
	sb.WriteString(reduceKey(p.Reducer))
	if p.Condition != nil {
		sb.WriteString(" #")
		sb.WriteString(p.Condition.String())
	}
	return sb.String()
}

// NtDef is the definition of one nonterminal: its parameter names, its
// productions, and the type of value its reductions build once types have
// been assigned.
type NtDef struct {
	// Params names the nonterminal's parameters, in declaration order. Most
	// nonterminals have none.
	Params []string

	// Rhs is the nonterminal's productions, in declaration order.
	Rhs []Production

	// Type is the type of value the nonterminal's reductions build. It is nil
	// until type assignment runs.
	Type *types.Type
}

// Copy returns a deeply-copied duplicate of the definition.
func (d NtDef) Copy() NtDef {
	dCopy := NtDef{
		Params: make([]string, len(d.Params)),
		Rhs:    make([]Production, len(d.Rhs)),
	}
	copy(dCopy.Params, d.Params)
	for i := range d.Rhs {
		dCopy.Rhs[i] = d.Rhs[i].Copy()
	}
	if d.Type != nil {
		t := *d.Type
		dCopy.Type = &t
	}
	return dCopy
}

// WithProductions returns a copy of the definition with the productions
// replaced. Parameters and type carry over unchanged.
func (d NtDef) WithProductions(rhs []Production) NtDef {
	dCopy := d.Copy()
	dCopy.Rhs = make([]Production, len(rhs))
	for i := range rhs {
		dCopy.Rhs[i] = rhs[i].Copy()
	}
	return dCopy
}

// Equal returns whether the definition is structurally equal to another value.
// It will not be equal if the other value cannot be cast to NtDef or *NtDef.
func (d NtDef) Equal(o any) bool {
	other, ok := o.(NtDef)
	if !ok {
		otherPtr, ok := o.(*NtDef)
		if !ok || otherPtr == nil {
			return false
		}
		other = *otherPtr
	}

	if !util.EqualComparableSlices(d.Params, other.Params) {
		return false
	}
	if !util.EqualSlices(d.Rhs, other.Rhs) {
		return false
	}
	if (d.Type == nil) != (other.Type == nil) {
		return false
	}
	if d.Type != nil && !d.Type.Equal(other.Type) {
		return false
	}
	return true
}
