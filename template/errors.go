package template

import (
	"errors"
	"fmt"
)

// Phase sentinels. Every *Error matches the sentinel of the stage that
// raised it with errors.Is. NonBooleanCondition is raised while rendering,
// since types are only known once a Context is bound, but it is a defect of
// the template rather than of the context, so it matches ErrParse as well.
var (
	ErrLex    = errors.New("template lex error")
	ErrParse  = errors.New("template parse error")
	ErrRender = errors.New("template render error")
)

// ErrorKind describes the type of error.
type ErrorKind int

const (
	UnterminatedTag ErrorKind = iota
	UnmatchedIf
	UnexpectedElse
	UnexpectedEndIf
	UnsupportedExpression
	UnknownTag
	UndefinedVariable
	NonBooleanCondition
)

func (k ErrorKind) String() string {
	switch k {
	case UnterminatedTag:
		return "unterminated tag"
	case UnmatchedIf:
		return "unmatched if"
	case UnexpectedElse:
		return "unexpected else"
	case UnexpectedEndIf:
		return "unexpected endif"
	case UnsupportedExpression:
		return "unsupported expression"
	case UnknownTag:
		return "unknown tag"
	case UndefinedVariable:
		return "undefined variable"
	case NonBooleanCondition:
		return "non-boolean condition"
	default:
		return "error"
	}
}

// Phase returns the sentinel error for the stage that produces this kind.
func (k ErrorKind) Phase() error {
	switch k {
	case UnterminatedTag:
		return ErrLex
	case UndefinedVariable, NonBooleanCondition:
		return ErrRender
	default:
		return ErrParse
	}
}

// Error represents an error that occurred while scanning, parsing or
// rendering a template.
type Error struct {
	Kind     ErrorKind
	Template string // template name, empty for anonymous sources
	Pos      Pos
	Name     string // variable name for render errors
	Detail   string
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Name != "" {
		msg = fmt.Sprintf("%s %q", msg, e.Name)
	}
	if e.Detail != "" {
		msg = msg + ": " + e.Detail
	}
	switch {
	case e.Template != "" && e.Pos.Line > 0:
		return fmt.Sprintf("%s:%s: %s", e.Template, e.Pos, msg)
	case e.Pos.Line > 0:
		return fmt.Sprintf("%s: %s", e.Pos, msg)
	case e.Template != "":
		return fmt.Sprintf("%s: %s", e.Template, msg)
	}
	return msg
}

// Is reports whether target is the phase sentinel of the error kind.
func (e *Error) Is(target error) bool {
	if e.Kind == NonBooleanCondition && target == ErrParse {
		return true
	}
	return target == e.Kind.Phase()
}

func newError(kind ErrorKind, pos Pos, detail string) *Error {
	return &Error{Kind: kind, Pos: pos, Detail: detail}
}

// IsKind reports whether err is, or wraps, a template error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var terr *Error
	return errors.As(err, &terr) && terr.Kind == kind
}
