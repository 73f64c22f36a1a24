package template

import (
	"fmt"
	"io"
	"strings"
)

// Render renders t against ctx. See (*Template).Render.
func Render(t *Template, ctx Context) (string, error) {
	return t.Render(ctx)
}

// Render walks the template depth-first and returns the output. Branches
// that are not taken are never evaluated, so variables referenced only there
// need not be bound. On error no output is returned.
func (t *Template) Render(ctx Context) (string, error) {
	var sb strings.Builder
	if err := t.walk(&sb, ctx); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Execute renders t and writes the result to w. Nothing is written when
// rendering fails.
func (t *Template) Execute(w io.Writer, ctx Context) error {
	out, err := t.Render(ctx)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// Check evaluates the template against ctx without producing output and
// returns the error Render would return.
func (t *Template) Check(ctx Context) error {
	return t.walk(nil, ctx)
}

type frameIter struct {
	nodes []Node
	next  int
}

// walk uses an explicit stack so deeply nested conditionals render without
// recursion. sb may be nil for a dry run.
func (t *Template) walk(sb *strings.Builder, ctx Context) error {
	stack := []frameIter{{nodes: t.nodes}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next >= len(top.nodes) {
			stack = stack[:len(stack)-1]
			continue
		}
		n := top.nodes[top.next]
		top.next++

		switch n := n.(type) {
		case *Literal:
			if sb != nil {
				sb.WriteString(n.Text)
			}
		case *Interpolation:
			v, ok := ctx.Lookup(n.Name)
			if !ok {
				return t.renderError(UndefinedVariable, n.Pos, n.Name, "")
			}
			if sb != nil {
				sb.WriteString(v.String())
			}
		case *Conditional:
			ok, err := t.evalCondition(n, ctx)
			if err != nil {
				return err
			}
			branch := n.Else
			if ok {
				branch = n.Then
			}
			if len(branch) > 0 {
				stack = append(stack, frameIter{nodes: branch})
			}
		}
	}
	return nil
}

func (t *Template) evalCondition(n *Conditional, ctx Context) (bool, error) {
	v, ok := ctx.Lookup(n.Cond.Name)
	if !ok {
		return false, t.renderError(UndefinedVariable, n.Pos, n.Cond.Name, "")
	}
	b, isBool := v.Bool()
	if !isBool {
		return false, t.renderError(NonBooleanCondition, n.Pos, n.Cond.Name,
			fmt.Sprintf("condition variables must be booleans, got %s", v.Kind()))
	}
	return b != n.Cond.Negated, nil
}

func (t *Template) renderError(kind ErrorKind, pos Pos, name, detail string) *Error {
	return &Error{Kind: kind, Template: t.name, Pos: pos, Name: name, Detail: detail}
}
