// Package diag implements the error taxonomy of spec §7: a small closed
// set of fatal error kinds, reported once at the top of the stack, with
// no partial output and no local retry. The compiler is a pure function
// AST -> Result<Program>; every failure path returns a *Error instead of
// panicking or printing directly, so the CLI collaborator decides how
// (and whether) to display it.
package diag

import "fmt"

// Kind is the closed set of error kinds spec §7 names. These are kinds,
// not types: callers switch on Kind, never on the dynamic type of Error.
type Kind int

const (
	// ParseError is surfaced unchanged from the collaborator parser.
	ParseError Kind = iota
	// UnsupportedSyntax is an AST shape the middle end doesn't implement.
	UnsupportedSyntax
	// UndefinedName is an identifier used without a prior definition and
	// absent from consts/externals.
	UndefinedName
	// RegisterPressure is a coloring failure: no node of degree < 16 in a
	// non-empty interference graph.
	RegisterPressure
	// UnknownCall is a Call whose name is neither store/load nor a
	// declared function.
	UnknownCall
)

func (k Kind) String() string {
	switch k {
	case ParseError:
		return "ParseError"
	case UnsupportedSyntax:
		return "UnsupportedSyntax"
	case UndefinedName:
		return "UndefinedName"
	case RegisterPressure:
		return "RegisterPressure"
	case UnknownCall:
		return "UnknownCall"
	default:
		return "Error"
	}
}

// Error is a fatal compiler error. All five kinds carry a Message; Detail
// holds kind-specific context (the offending name, the instruction, etc.)
// for display purposes only.
type Error struct {
	Kind    Kind
	Message string
	Detail  string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New builds an Error of the given kind.
func New(kind Kind, message string, detail string) *Error {
	return &Error{Kind: kind, Message: message, Detail: detail}
}

// Unsupported reports an AST shape the middle end doesn't implement.
func Unsupported(what string) *Error {
	return New(UnsupportedSyntax, "unsupported syntax", what)
}

// Undefined reports a name used without a prior definition.
func Undefined(name string) *Error {
	return New(UndefinedName, "undefined name", name)
}

// TooComplex reports a register allocation failure.
func TooComplex() *Error {
	return New(RegisterPressure, "program too complex", "no register available")
}

// UnknownCallTo reports a call to a name that is neither a primitive nor
// a declared function.
func UnknownCallTo(name string) *Error {
	return New(UnknownCall, "unknown call", name)
}
