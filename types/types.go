// Package types defines the type vocabulary shared between the grammar IR and
// the external type-inference pass. The inference algorithm itself lives
// outside this module; construction of a grammar either invokes it through a
// caller-supplied hook or trusts type information computed by an earlier
// pipeline stage.
package types

import "strings"

// Type is the static type of the runtime value produced by parsing an
// instance of a nonterminal, or the type of a reducer-method argument or
// result. Types are structural: a name plus zero or more type arguments, so
// both plain types ("Expr") and parameterized ones ("Option" of "Expr") can be
// represented.
type Type struct {
	Name string
	Args []Type
}

// NewType creates a Type with the given name and type arguments.
func NewType(name string, args ...Type) Type {
	return Type{Name: name, Args: args}
}

// Well-known types used by grammar construction.
var (
	// NoReturn is the type of init nonterminals; matching one accepts the
	// input rather than producing a value.
	NoReturn = Type{Name: "NoReturn"}

	// Unit is the type of productions whose reducer produces no interesting
	// value.
	Unit = Type{Name: "Unit"}

	// Token is the type of variable terminals.
	Token = Type{Name: "Token"}
)

func (t Type) String() string {
	if len(t.Args) == 0 {
		return t.Name
	}

	var sb strings.Builder
	sb.WriteString(t.Name)
	sb.WriteRune('<')
	for i := range t.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(t.Args[i].String())
	}
	sb.WriteRune('>')
	return sb.String()
}

// Equal returns whether the Type is equal to another value. It will not be
// equal if the other value cannot be cast to Type or *Type.
func (t Type) Equal(o any) bool {
	other, ok := o.(Type)
	if !ok {
		otherPtr, ok := o.(*Type)
		if !ok {
			return false
		} else if otherPtr == nil {
			return false
		}
		other = *otherPtr
	}

	if t.Name != other.Name {
		return false
	}
	if len(t.Args) != len(other.Args) {
		return false
	}
	for i := range t.Args {
		if !t.Args[i].Equal(other.Args[i]) {
			return false
		}
	}
	return true
}

// MethodType is the signature inferred (or supplied) for a reducer method: the
// types of its arguments and the type of its result.
type MethodType struct {
	ArgumentTypes []Type
	ReturnType    Type
}

func (mt MethodType) String() string {
	var sb strings.Builder
	sb.WriteRune('(')
	for i := range mt.ArgumentTypes {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(mt.ArgumentTypes[i].String())
	}
	sb.WriteString(") -> ")
	sb.WriteString(mt.ReturnType.String())
	return sb.String()
}

// Equal returns whether the MethodType is equal to another value. It will not
// be equal if the other value cannot be cast to MethodType or *MethodType.
func (mt MethodType) Equal(o any) bool {
	other, ok := o.(MethodType)
	if !ok {
		otherPtr, ok := o.(*MethodType)
		if !ok {
			return false
		} else if otherPtr == nil {
			return false
		}
		other = *otherPtr
	}

	if !mt.ReturnType.Equal(other.ReturnType) {
		return false
	}
	if len(mt.ArgumentTypes) != len(other.ArgumentTypes) {
		return false
	}
	for i := range mt.ArgumentTypes {
		if !mt.ArgumentTypes[i].Equal(other.ArgumentTypes[i]) {
			return false
		}
	}
	return true
}
