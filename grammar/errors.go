package grammar

import "fmt"

// ErrCode classifies what kind of problem made a grammar invalid.
type ErrCode int

const (
	// ErrMalformedInput means a declaration or option was structurally wrong
	// before validation proper could even start.
	ErrMalformedInput ErrCode = iota

	// ErrUnknownElement means a production body contained a value that is not
	// any recognized element kind, or an element was used somewhere its kind
	// is not allowed.
	ErrUnknownElement

	// ErrNameCollision means one name was used for two different things, such
	// as a nonterminal that is also declared as a variable terminal.
	ErrNameCollision

	// ErrParamMismatch means a nonterminal invocation did not match the
	// invoked definition's parameter list, or a Var named no parameter of the
	// enclosing nonterminal.
	ErrParamMismatch

	// ErrUndefinedRef means something referred to a nonterminal, terminal, or
	// method that is not defined anywhere in the grammar.
	ErrUndefinedRef

	// ErrReducerArity means a reduce expression referred to a concrete
	// element index that the production body does not have, or used the
	// accept sentinel outside an init production.
	ErrReducerArity

	// ErrBadInit means an init nonterminal's definition did not have one of
	// the recognized entry-point shapes.
	ErrBadInit

	// ErrUnresolvedGoal means a declared goal is not a defined nonterminal.
	ErrUnresolvedGoal

	// ErrUnsupported means the grammar used a combination the pipeline does
	// not support, such as a synthetic terminal whose expansion contains
	// another synthetic terminal.
	ErrUnsupported
)

// Error is a grammar validation failure. It records where in the grammar the
// problem was found: the nonterminal being validated, the production within
// it, and the specific element, whichever of those apply.
type Error struct {
	// Code classifies the failure.
	Code ErrCode

	// Key is the nonterminal being validated when the problem was found, or
	// nil when the problem is not tied to one nonterminal.
	Key NtKey

	// Prod is the production being validated, or nil.
	Prod *Production

	// Elem is the specific offending element, or nil.
	Elem Element

	msg string
}

func (e *Error) Error() string {
	return e.msg
}

// newError creates a grammar Error for the given location with a formatted
// message. The message is automatically prefixed to identify it as a grammar
// validity problem.
func newError(code ErrCode, key NtKey, prod *Production, elem Element, format string, a ...interface{}) *Error {
	msg := fmt.Sprintf(format, a...)
	if key != nil {
		msg = fmt.Sprintf("in %s: %s", keyDisplay(key), msg)
	}
	return &Error{
		Code: code,
		Key:  key,
		Prod: prod,
		Elem: elem,
		msg:  "invalid grammar: " + msg,
	}
}
