package template

// Node is an element of a parsed template: *Literal, *Interpolation or
// *Conditional.
type Node interface {
	node()
}

// Literal is text emitted verbatim. Trim markers have already been applied.
type Literal struct {
	Text string
}

// Interpolation substitutes the string form of a context variable.
type Interpolation struct {
	Name string
	Pos  Pos
}

// Condition is a bare variable reference, optionally negated with "not".
type Condition struct {
	Name    string
	Negated bool
}

func (c Condition) String() string {
	if c.Negated {
		return "not " + c.Name
	}
	return c.Name
}

// Conditional selects Then when Cond holds and Else otherwise.
type Conditional struct {
	Cond    Condition
	Then    []Node
	Else    []Node
	HasElse bool
	Pos     Pos
}

func (*Literal) node()       {}
func (*Interpolation) node() {}
func (*Conditional) node()   {}

// Template is a parsed template. It is immutable and safe for concurrent
// use by multiple goroutines.
type Template struct {
	name  string
	nodes []Node
}

// Name returns the name the template was parsed with.
func (t *Template) Name() string {
	return t.name
}

// Nodes returns the top-level nodes. Callers must not modify them.
func (t *Template) Nodes() []Node {
	return t.nodes
}

// Variables returns every variable name referenced anywhere in the
// template, both branches included, sorted and without duplicates.
func (t *Template) Variables() []string {
	seen := make(map[string]struct{})
	walk(t.nodes, func(n Node) {
		switch n := n.(type) {
		case *Interpolation:
			seen[n.Name] = struct{}{}
		case *Conditional:
			seen[n.Cond.Name] = struct{}{}
		}
	})
	return sortedKeys(seen)
}

// Conditions returns the variable names used as conditions, sorted and
// without duplicates.
func (t *Template) Conditions() []string {
	seen := make(map[string]struct{})
	walk(t.nodes, func(n Node) {
		if c, ok := n.(*Conditional); ok {
			seen[c.Cond.Name] = struct{}{}
		}
	})
	return sortedKeys(seen)
}

func walk(nodes []Node, fn func(Node)) {
	for _, n := range nodes {
		fn(n)
		if c, ok := n.(*Conditional); ok {
			walk(c.Then, fn)
			walk(c.Else, fn)
		}
	}
}
