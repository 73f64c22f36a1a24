package template

import "fmt"

// TokenType represents the type of a token.
type TokenType int

const (
	TokenText TokenType = iota
	TokenInterp
	TokenIf
	TokenElse
	TokenEndIf
	TokenTag // any other {% ... %} tag; rejected by the parser
)

var tokenTypeNames = map[TokenType]string{
	TokenText:   "TEXT",
	TokenInterp: "INTERP",
	TokenIf:     "IF",
	TokenElse:   "ELSE",
	TokenEndIf:  "ENDIF",
	TokenTag:    "TAG",
}

func (t TokenType) String() string {
	if name, ok := tokenTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", t)
}

// Pos is a location in template source. Line and Column are 1-based.
type Pos struct {
	Offset int
	Line   int
	Column int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token is a single lexical unit of a template.
//
// For TokenText, Value is the raw text. For tag tokens, Value is the inner
// expression with delimiters, trim markers and the tag keyword removed,
// e.g. "use_local" for "{% if use_local -%}". TokenTag keeps the whole
// inner text so the parser can report it.
type Token struct {
	Type      TokenType
	Value     string
	TrimLeft  bool
	TrimRight bool
	Pos       Pos
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%s", t.Type, t.Value, t.Pos)
}
