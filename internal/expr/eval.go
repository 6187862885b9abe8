package expr

import (
	"fmt"
	"math"
)

// Binder assigns storage slots to the free names of a tree.
type Binder interface {
	// BindIdent returns the variable slot for name.
	BindIdent(name string) (int, error)
	// BindCall returns the function slot for name, or ok=false to fall back
	// to the builtin of that name.
	BindCall(name string, arity int) (slot int, ok bool, err error)
}

// Bind resolves every identifier and call of the tree through b. Bind must
// complete before the tree is evaluated or shared.
func (t *Tree) Bind(b Binder) error {
	var firstErr error
	t.walk(func(n Node) {
		if firstErr != nil {
			return
		}
		switch n := n.(type) {
		case *Ident:
			slot, err := b.BindIdent(n.Name)
			if err != nil {
				firstErr = err
				return
			}
			n.Slot = slot
		case *Call:
			slot, ok, err := b.BindCall(n.Name, len(n.Args))
			if err != nil {
				firstErr = err
				return
			}
			if ok {
				n.Slot = slot
				return
			}
			bi, found := LookupBuiltin(n.Name)
			if !found {
				firstErr = &SyntaxError{Pos: n.At, Msg: fmt.Sprintf("unknown function %q", n.Name)}
				return
			}
			if len(n.Args) < bi.MinArgs || (bi.MaxArgs >= 0 && len(n.Args) > bi.MaxArgs) {
				firstErr = &SyntaxError{Pos: n.At, Msg: fmt.Sprintf("wrong number of arguments for %s: %d", n.Name, len(n.Args))}
				return
			}
			n.Builtin = bi
		}
	})
	return firstErr
}

// Caller invokes bound, caller provided functions.
type Caller interface {
	CallSlot(slot int, args []float64) (float64, error)
}

func truth(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Eval evaluates a bound node. vars holds the values of the ident slots.
func Eval(n Node, vars []float64, c Caller) (float64, error) {
	switch n := n.(type) {
	case *Number:
		return n.Value, nil
	case *Ident:
		if n.Slot < 0 || n.Slot >= len(vars) {
			return 0, fmt.Errorf("variable %q is not bound", n.Name)
		}
		return vars[n.Slot], nil
	case *Unary:
		x, err := Eval(n.X, vars, c)
		if err != nil {
			return 0, err
		}
		if n.Op == NOT {
			return truth(x == 0), nil
		}
		return -x, nil
	case *Ternary:
		cond, err := Eval(n.Cond, vars, c)
		if err != nil {
			return 0, err
		}
		if cond != 0 {
			return Eval(n.Then, vars, c)
		}
		return Eval(n.Else, vars, c)
	case *Binary:
		return evalBinary(n, vars, c)
	case *Call:
		args := make([]float64, len(n.Args))
		for i, a := range n.Args {
			v, err := Eval(a, vars, c)
			if err != nil {
				return 0, err
			}
			args[i] = v
		}
		if n.Builtin != nil {
			return n.Builtin.Fn(args), nil
		}
		if n.Slot < 0 || c == nil {
			return 0, fmt.Errorf("function %q is not bound", n.Name)
		}
		return c.CallSlot(n.Slot, args)
	}
	return 0, fmt.Errorf("unsupported node %T", n)
}

func evalBinary(n *Binary, vars []float64, c Caller) (float64, error) {
	l, err := Eval(n.L, vars, c)
	if err != nil {
		return 0, err
	}
	// short-circuit logic
	switch n.Op {
	case AND:
		if l == 0 {
			return 0, nil
		}
	case OR:
		if l != 0 {
			return 1, nil
		}
	}
	r, err := Eval(n.R, vars, c)
	if err != nil {
		return 0, err
	}
	switch n.Op {
	case PLUS:
		return l + r, nil
	case MINUS:
		return l - r, nil
	case MULT:
		return l * r, nil
	case DIV:
		return l / r, nil
	case MOD:
		return math.Mod(l, r), nil
	case POW:
		return math.Pow(l, r), nil
	case LESS:
		return truth(l < r), nil
	case LESS_EQ:
		return truth(l <= r), nil
	case GREATER:
		return truth(l > r), nil
	case GREATER_EQ:
		return truth(l >= r), nil
	case EQ:
		return truth(l == r), nil
	case NEQ:
		return truth(l != r), nil
	case AND, OR:
		return truth(r != 0), nil
	}
	return 0, fmt.Errorf("unsupported operator %s", n.Op)
}
