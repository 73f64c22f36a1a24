package template

import (
	"fmt"
	"strings"
)

// frame is an open {% if %} block.
type frame struct {
	cond    Condition
	pos     Pos
	then    []Node
	els     []Node
	inElse  bool
	hasElse bool
}

func (f *frame) append(n Node) {
	if f.inElse {
		f.els = append(f.els, n)
	} else {
		f.then = append(f.then, n)
	}
}

// Parser builds a node tree from a token stream. Open blocks are kept on an
// explicit stack, so nesting depth is not bounded by the call stack.
type Parser struct {
	root  []Node
	stack []*frame

	// text waiting for the next tag so a leading trim marker can still
	// shorten it
	pending   string
	trimAfter bool
}

// Parse scans and parses an anonymous template.
func Parse(source string) (*Template, error) {
	return ParseNamed("", source)
}

// ParseNamed scans and parses source. The name is used in error messages
// and returned by Template.Name.
func ParseNamed(name, source string) (*Template, error) {
	tokens, err := Scan(source)
	if err != nil {
		return nil, withTemplate(err, name)
	}
	nodes, err := parse(tokens)
	if err != nil {
		return nil, withTemplate(err, name)
	}
	return &Template{name: name, nodes: nodes}, nil
}

// MustParse is like Parse but panics on error. Intended for templates
// compiled into the binary.
func MustParse(name, source string) *Template {
	t, err := ParseNamed(name, source)
	if err != nil {
		panic(err)
	}
	return t
}

func withTemplate(err error, name string) error {
	if terr, ok := err.(*Error); ok && name != "" {
		terr.Template = name
	}
	return err
}

func parse(tokens []Token) ([]Node, error) {
	p := &Parser{}
	for _, tok := range tokens {
		if err := p.consume(tok); err != nil {
			return nil, err
		}
	}
	return p.finish()
}

func (p *Parser) consume(tok Token) error {
	if tok.Type == TokenText {
		text := tok.Value
		if p.trimAfter {
			text = trimLeadingLine(text)
			p.trimAfter = false
		}
		p.pending += text
		return nil
	}

	if tok.TrimLeft {
		p.pending = trimTrailingLine(p.pending)
	}
	p.flushText()
	p.trimAfter = tok.TrimRight

	switch tok.Type {
	case TokenInterp:
		if !isIdent(tok.Value) {
			return newError(UnsupportedExpression, tok.Pos, fmt.Sprintf("interpolation %q is not a variable name", tok.Value))
		}
		p.append(&Interpolation{Name: tok.Value, Pos: tok.Pos})

	case TokenIf:
		cond, err := parseCondition(tok)
		if err != nil {
			return err
		}
		p.stack = append(p.stack, &frame{cond: cond, pos: tok.Pos})

	case TokenElse:
		if tok.Value != "" {
			return newError(UnsupportedExpression, tok.Pos, fmt.Sprintf("else takes no expression, got %q", tok.Value))
		}
		top := p.top()
		if top == nil {
			return newError(UnexpectedElse, tok.Pos, "no open if block")
		}
		if top.hasElse {
			return newError(UnexpectedElse, tok.Pos, fmt.Sprintf("duplicate else for if opened at %s", top.pos))
		}
		top.inElse = true
		top.hasElse = true

	case TokenEndIf:
		if tok.Value != "" {
			return newError(UnsupportedExpression, tok.Pos, fmt.Sprintf("endif takes no expression, got %q", tok.Value))
		}
		top := p.top()
		if top == nil {
			return newError(UnexpectedEndIf, tok.Pos, "no open if block")
		}
		p.stack = p.stack[:len(p.stack)-1]
		p.append(&Conditional{
			Cond:    top.cond,
			Then:    top.then,
			Else:    top.els,
			HasElse: top.hasElse,
			Pos:     top.pos,
		})

	default:
		return newError(UnknownTag, tok.Pos, fmt.Sprintf("{%% %s %%}", tok.Value))
	}
	return nil
}

func (p *Parser) finish() ([]Node, error) {
	p.flushText()
	if top := p.top(); top != nil {
		detail := fmt.Sprintf("if %s has no endif", top.cond)
		if len(p.stack) > 1 {
			detail = fmt.Sprintf("%s (%d blocks open)", detail, len(p.stack))
		}
		return nil, newError(UnmatchedIf, top.pos, detail)
	}
	return p.root, nil
}

func (p *Parser) top() *frame {
	if len(p.stack) == 0 {
		return nil
	}
	return p.stack[len(p.stack)-1]
}

func (p *Parser) append(n Node) {
	if top := p.top(); top != nil {
		top.append(n)
		return
	}
	p.root = append(p.root, n)
}

func (p *Parser) flushText() {
	if p.pending != "" {
		p.append(&Literal{Text: p.pending})
	}
	p.pending = ""
}

func parseCondition(tok Token) (Condition, error) {
	fields := strings.Fields(tok.Value)
	switch {
	case len(fields) == 1 && isIdent(fields[0]) && fields[0] != "not":
		return Condition{Name: fields[0]}, nil
	case len(fields) == 2 && fields[0] == "not" && isIdent(fields[1]) && fields[1] != "not":
		return Condition{Name: fields[1], Negated: true}, nil
	case len(fields) == 0:
		return Condition{}, newError(UnsupportedExpression, tok.Pos, "if requires a condition")
	}
	return Condition{}, newError(UnsupportedExpression, tok.Pos, fmt.Sprintf("condition %q must be a variable name or not <variable>", tok.Value))
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// trimTrailingLine removes trailing spaces and tabs, then at most one line
// break.
func trimTrailingLine(s string) string {
	s = strings.TrimRight(s, " \t")
	if strings.HasSuffix(s, "\n") {
		s = s[:len(s)-1]
		s = strings.TrimSuffix(s, "\r")
	}
	return s
}

// trimLeadingLine removes leading spaces and tabs, then at most one line
// break.
func trimLeadingLine(s string) string {
	s = strings.TrimLeft(s, " \t")
	if strings.HasPrefix(s, "\r\n") {
		return s[2:]
	}
	return strings.TrimPrefix(s, "\n")
}
