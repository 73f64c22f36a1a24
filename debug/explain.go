// Package debug turns template errors into reports with a source excerpt
// and hints for fixing them.
package debug

import (
	"fmt"
	"io/fs"
	"strings"

	"github.com/cpcf/scaffold/template"
)

// Report describes one template error.
type Report struct {
	Err         *template.Error
	Excerpt     string
	Suggestions []string
}

// Explainer builds reports for errors raised while rendering templates
// read from FS. Variables lists the names a template context defines.
type Explainer struct {
	FS        fs.FS
	Variables []string
}

// Reports returns a report for every template error in err's tree, in the
// order errors.Join and MultiError list them.
func (x Explainer) Reports(err error) []Report {
	var reports []Report
	for _, terr := range collect(err) {
		reports = append(reports, Report{
			Err:         terr,
			Excerpt:     x.excerpt(terr),
			Suggestions: x.suggest(terr),
		})
	}
	return reports
}

// Explain formats err followed by the reports of its template errors. Errors
// without template errors are returned unchanged.
func (x Explainer) Explain(err error) string {
	reports := x.Reports(err)
	if len(reports) == 0 {
		return err.Error()
	}

	var b strings.Builder
	b.WriteString(err.Error())
	for _, r := range reports {
		b.WriteString("\n\n")
		b.WriteString(r.Err.Error())
		if r.Excerpt != "" {
			b.WriteString("\n")
			b.WriteString(r.Excerpt)
		}
		for _, s := range r.Suggestions {
			fmt.Fprintf(&b, "\n  hint: %s", s)
		}
	}
	return b.String()
}

func collect(err error) []*template.Error {
	if err == nil {
		return nil
	}
	switch e := err.(type) {
	case *template.Error:
		return []*template.Error{e}
	case interface{ Unwrap() []error }:
		var out []*template.Error
		for _, inner := range e.Unwrap() {
			out = append(out, collect(inner)...)
		}
		return out
	case interface{ Unwrap() error }:
		return collect(e.Unwrap())
	}
	return nil
}

// excerpt returns the offending line with a caret under the error column.
func (x Explainer) excerpt(terr *template.Error) string {
	if x.FS == nil || terr.Template == "" || terr.Pos.Line < 1 {
		return ""
	}
	src, err := fs.ReadFile(x.FS, terr.Template)
	if err != nil {
		return ""
	}

	lines := strings.Split(string(src), "\n")
	if terr.Pos.Line > len(lines) {
		return ""
	}
	line := strings.TrimSuffix(lines[terr.Pos.Line-1], "\r")

	var caret strings.Builder
	for i := 0; i < terr.Pos.Column-1 && i < len(line); i++ {
		if line[i] == '\t' {
			caret.WriteByte('\t')
		} else {
			caret.WriteByte(' ')
		}
	}
	caret.WriteByte('^')

	gutter := fmt.Sprintf("%4d | ", terr.Pos.Line)
	return gutter + line + "\n" + strings.Repeat(" ", len(gutter)-2) + "| " + caret.String()
}

func (x Explainer) suggest(terr *template.Error) []string {
	switch terr.Kind {
	case template.UnterminatedTag:
		return []string{"close the tag with }} or %}"}
	case template.UnmatchedIf:
		return []string{"add {% endif %} to close the if block opened here"}
	case template.UnexpectedElse:
		return []string{"else may appear once, inside an open if block"}
	case template.UnexpectedEndIf:
		return []string{"remove the endif or add the matching {% if %}"}
	case template.UnsupportedExpression:
		return []string{"use a plain variable name, or `not name` in conditions"}
	case template.UnknownTag:
		return []string{"only if, else and endif blocks exist"}
	case template.UndefinedVariable:
		var hints []string
		if near := closest(terr.Name, x.Variables); near != "" {
			hints = append(hints, fmt.Sprintf("did you mean %q?", near))
		}
		if len(x.Variables) > 0 {
			hints = append(hints, "defined variables: "+strings.Join(x.Variables, ", "))
		}
		return hints
	case template.NonBooleanCondition:
		return []string{fmt.Sprintf("%s holds text; conditions need a boolean variable such as use_local", terr.Name)}
	}
	return nil
}

// closest returns the candidate within edit distance 2 of name, if any.
func closest(name string, candidates []string) string {
	best, bestDist := "", 3
	for _, c := range candidates {
		if d := distance(name, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func distance(a, b string) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
