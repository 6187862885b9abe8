package expr

import (
	"strconv"
	"strings"
)

// Node is an expression tree node.
type Node interface {
	Pos() int
	String() string
	node()
}

// Number is a numeric literal or a named constant such as `_pi`.
type Number struct {
	Value float64
	At    int
}

// Ident references a variable. Slot is assigned by Tree.Bind.
type Ident struct {
	Name string
	At   int
	Slot int
}

type Unary struct {
	Op TokenType
	X  Node
	At int
}

type Binary struct {
	Op   TokenType
	L, R Node
	At   int
}

type Ternary struct {
	Cond, Then, Else Node
	At               int
}

// Call invokes either a builtin (Builtin != nil after binding) or a caller
// provided function identified by Slot.
type Call struct {
	Name    string
	Args    []Node
	At      int
	Slot    int
	Builtin *Builtin
}

func (n *Number) Pos() int  { return n.At }
func (n *Ident) Pos() int   { return n.At }
func (n *Unary) Pos() int   { return n.At }
func (n *Binary) Pos() int  { return n.At }
func (n *Ternary) Pos() int { return n.At }
func (n *Call) Pos() int    { return n.At }

func (*Number) node()  {}
func (*Ident) node()   {}
func (*Unary) node()   {}
func (*Binary) node()  {}
func (*Ternary) node() {}
func (*Call) node()    {}

func (n *Number) String() string { return strconv.FormatFloat(n.Value, 'g', -1, 64) }
func (n *Ident) String() string  { return n.Name }
func (n *Unary) String() string  { return "(" + n.Op.String() + n.X.String() + ")" }

func (n *Binary) String() string {
	return "(" + n.L.String() + " " + n.Op.String() + " " + n.R.String() + ")"
}

func (n *Ternary) String() string {
	return "(" + n.Cond.String() + " ? " + n.Then.String() + " : " + n.Else.String() + ")"
}

func (n *Call) String() string {
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = a.String()
	}
	return n.Name + "(" + strings.Join(args, ", ") + ")"
}

// Tree is a parsed expression. Each top-level comma separated item is one
// result; len(Results) is the native result count.
type Tree struct {
	Source  string
	Results []Node
}

// String renders the tree in fully parenthesised form.
func (t *Tree) String() string {
	parts := make([]string, len(t.Results))
	for i, r := range t.Results {
		parts[i] = r.String()
	}
	return strings.Join(parts, ", ")
}

// Walk visits every node depth-first, parents before children.
func Walk(n Node, fn func(Node)) {
	fn(n)
	switch n := n.(type) {
	case *Unary:
		Walk(n.X, fn)
	case *Binary:
		Walk(n.L, fn)
		Walk(n.R, fn)
	case *Ternary:
		Walk(n.Cond, fn)
		Walk(n.Then, fn)
		Walk(n.Else, fn)
	case *Call:
		for _, a := range n.Args {
			Walk(a, fn)
		}
	}
}

func (t *Tree) walk(fn func(Node)) {
	for _, r := range t.Results {
		Walk(r, fn)
	}
}

// Idents returns the distinct variable names referenced by the tree, in
// order of first appearance.
func (t *Tree) Idents() []string {
	var out []string
	seen := map[string]bool{}
	t.walk(func(n Node) {
		if id, ok := n.(*Ident); ok && !seen[id.Name] {
			seen[id.Name] = true
			out = append(out, id.Name)
		}
	})
	return out
}

// Calls returns the distinct function names called by the tree.
func (t *Tree) Calls() []string {
	var out []string
	seen := map[string]bool{}
	t.walk(func(n Node) {
		if c, ok := n.(*Call); ok && !seen[c.Name] {
			seen[c.Name] = true
			out = append(out, c.Name)
		}
	})
	return out
}

// Volatile reports whether the bound tree calls a builtin whose result
// changes between calls with identical arguments.
func (t *Tree) Volatile() bool {
	volatile := false
	t.walk(func(n Node) {
		if c, ok := n.(*Call); ok && c.Builtin != nil && c.Builtin.Volatile {
			volatile = true
		}
	})
	return volatile
}

// SingleIdent returns the identifier if the tree is nothing but one variable
// reference.
func (t *Tree) SingleIdent() (*Ident, bool) {
	if len(t.Results) != 1 {
		return nil, false
	}
	id, ok := t.Results[0].(*Ident)
	return id, ok
}

// Clean trims src and collapses whitespace runs to a single space.
func Clean(src string) string {
	return strings.Join(strings.Fields(src), " ")
}
