package ast

import "github.com/gmofishsauce/wut4/lang/zxfmt/token"

// ErrorTag enumerates the recoverable parse failures a Tree can carry
// (spec.md §7 taxonomy). These describe malformed *source*, collected
// into Tree.Errors as data rather than returned up the call stack, so a
// caller can still render/inspect whatever the parser managed to build.
type ErrorTag uint8

const (
	ErrExpectedStatement ErrorTag = iota
	ErrExpectedExpression
	ErrExpectedToken
	ErrExpectedDeclaration
	ErrExtraConstQualifier
	ErrInvalidAndAnd
	ErrUnattachedDocComment
	ErrDeclBetweenFields
)

func (e ErrorTag) String() string {
	switch e {
	case ErrExpectedStatement:
		return "expected statement"
	case ErrExpectedExpression:
		return "expected expression"
	case ErrExpectedToken:
		return "expected token"
	case ErrExpectedDeclaration:
		return "expected a declaration"
	case ErrExtraConstQualifier:
		return "extra qualifier on constant declaration"
	case ErrInvalidAndAnd:
		return "'&&' is invalid; use 'and'"
	case ErrUnattachedDocComment:
		return "doc comment does not document anything"
	case ErrDeclBetweenFields:
		return "declarations are not allowed between container fields"
	}
	return "unknown error"
}

// Error records one recoverable parse failure: where it was found
// (Token), what the parser expected (Expected, meaningful only for
// ErrExpectedToken), and which node it was attached to, if any.
type Error struct {
	Tag      ErrorTag
	Token    token.Index
	Expected token.Tag
	Node     Index
}

// ErrOutOfMemory is the sentinel for the one genuinely exceptional
// condition on the parse path: the underlying slices could not grow.
// Every other failure is a recoverable Error appended to Tree.Errors,
// not a Go error return — see SPEC_FULL.md's error taxonomy.
var ErrOutOfMemory = outOfMemoryError{}

type outOfMemoryError struct{}

func (outOfMemoryError) Error() string { return "ast: out of memory" }
