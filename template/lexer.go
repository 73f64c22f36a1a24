package template

import "strings"

const (
	varStart   = "{{"
	varEnd     = "}}"
	blockStart = "{%"
	blockEnd   = "%}"
	trimMarker = '-'
)

// Lexer splits template source into text spans and tag tokens.
type Lexer struct {
	source string
	pos    int // current offset in source

	// position bookkeeping for the last offset passed to posAt
	lastOffset int
	line       int
	col        int
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(source string) *Lexer {
	return &Lexer{source: source, line: 1, col: 1}
}

// Scan tokenizes source. It fails only when a {{ or {% has no closing
// delimiter before the end of input.
func Scan(source string) ([]Token, error) {
	return NewLexer(source).All()
}

// All collects all remaining tokens into a slice.
func (l *Lexer) All() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		if tok == nil {
			return tokens, nil
		}
		tokens = append(tokens, *tok)
	}
}

// Next returns the next token, or nil at end of input.
func (l *Lexer) Next() (*Token, error) {
	if l.pos >= len(l.source) {
		return nil, nil
	}

	offset, open := l.findStartMarker()
	if offset < 0 {
		tok := Token{Type: TokenText, Value: l.source[l.pos:], Pos: l.posAt(l.pos)}
		l.pos = len(l.source)
		return &tok, nil
	}
	if offset > l.pos {
		tok := Token{Type: TokenText, Value: l.source[l.pos:offset], Pos: l.posAt(l.pos)}
		l.pos = offset
		return &tok, nil
	}

	return l.scanTag(open)
}

// findStartMarker returns the offset of the next {{ or {% at or after the
// current position together with the marker found, or -1.
func (l *Lexer) findStartMarker() (int, string) {
	offset := l.pos
	for offset < len(l.source) {
		idx := strings.IndexByte(l.source[offset:], '{')
		if idx < 0 {
			return -1, ""
		}
		idx += offset
		if idx+1 >= len(l.source) {
			return -1, ""
		}
		switch l.source[idx+1] {
		case '{':
			return idx, varStart
		case '%':
			return idx, blockStart
		}
		offset = idx + 1
	}
	return -1, ""
}

func (l *Lexer) scanTag(open string) (*Token, error) {
	start := l.pos
	pos := l.posAt(start)

	end := varEnd
	if open == blockStart {
		end = blockEnd
	}

	bodyStart := start + len(open)
	closeIdx := strings.Index(l.source[bodyStart:], end)
	if closeIdx < 0 {
		l.pos = len(l.source)
		return nil, newError(UnterminatedTag, pos, "missing "+end+" for "+open)
	}

	inner := l.source[bodyStart : bodyStart+closeIdx]
	l.pos = bodyStart + closeIdx + len(end)

	tok := Token{Pos: pos}
	if len(inner) > 0 && inner[0] == trimMarker {
		tok.TrimLeft = true
		inner = inner[1:]
	}
	if len(inner) > 0 && inner[len(inner)-1] == trimMarker {
		tok.TrimRight = true
		inner = inner[:len(inner)-1]
	}
	inner = strings.TrimSpace(inner)

	if open == varStart {
		tok.Type = TokenInterp
		tok.Value = inner
		return &tok, nil
	}

	keyword, rest := splitKeyword(inner)
	switch keyword {
	case "if":
		tok.Type = TokenIf
		tok.Value = rest
	case "else":
		tok.Type = TokenElse
		tok.Value = rest
	case "endif":
		tok.Type = TokenEndIf
		tok.Value = rest
	default:
		tok.Type = TokenTag
		tok.Value = inner
	}
	return &tok, nil
}

func splitKeyword(s string) (string, string) {
	idx := strings.IndexAny(s, " \t\r\n")
	if idx < 0 {
		return s, ""
	}
	return s[:idx], strings.TrimSpace(s[idx:])
}

// posAt converts a byte offset into a Pos. Offsets must be non-decreasing
// across calls.
func (l *Lexer) posAt(offset int) Pos {
	for i := l.lastOffset; i < offset; i++ {
		if l.source[i] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
	}
	l.lastOffset = offset
	return Pos{Offset: offset, Line: l.line, Column: l.col}
}
