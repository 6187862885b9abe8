package expr

import (
	"fmt"
	"math"
)

var namedConstants = map[string]float64{
	"_pi": math.Pi,
	"_e":  math.E,
}

type parser struct {
	toks []Token
	i    int
}

// Parse parses src into a Tree.
func Parse(src string) (*Tree, error) {
	toks, err := NewLexer(src).Scan()
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	if p.peek().Type == EOF {
		return nil, &SyntaxError{Pos: 0, Msg: "empty expression"}
	}
	t := &Tree{Source: src}
	for {
		n, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		t.Results = append(t.Results, n)
		if !p.match(COMMA) {
			break
		}
	}
	if g := p.peek(); g.Type != EOF {
		return nil, p.errAt(g, fmt.Sprintf("unexpected %q", g.Lexeme))
	}
	return t, nil
}

func (p *parser) peek() Token { return p.toks[p.i] }

func (p *parser) next() Token {
	t := p.toks[p.i]
	if t.Type != EOF {
		p.i++
	}
	return t
}

func (p *parser) match(tt TokenType) bool {
	if p.peek().Type == tt {
		p.i++
		return true
	}
	return false
}

func (p *parser) need(tt TokenType) (Token, error) {
	g := p.peek()
	if g.Type != tt {
		return Token{}, p.errAt(g, fmt.Sprintf("expected %s, found %s", tt, describe(g)))
	}
	p.i++
	return g, nil
}

func (p *parser) errAt(t Token, msg string) error {
	return &SyntaxError{Pos: t.Pos, Msg: msg}
}

func describe(t Token) string {
	if t.Type == EOF {
		return EOF.String()
	}
	return fmt.Sprintf("%q", t.Lexeme)
}

// ───────────────────────── precedence / associativity ──────────────────────

const unaryBP = 80

func lbp(t TokenType) (int, bool) {
	switch t {
	case POW:
		return 90, true
	case MULT, DIV, MOD:
		return 70, true
	case PLUS, MINUS:
		return 60, true
	case LESS, LESS_EQ, GREATER, GREATER_EQ:
		return 50, true
	case EQ, NEQ:
		return 40, true
	case AND:
		return 30, true
	case OR:
		return 20, true
	case QUESTION:
		return 10, true
	}
	return 0, false
}

func isRightAssoc(tt TokenType) bool { return tt == POW || tt == QUESTION }

func (p *parser) expr(minBP int) (Node, error) {
	left, err := p.prefix()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek()
		bp, ok := lbp(op.Type)
		if !ok || bp < minBP {
			return left, nil
		}
		p.i++
		nextBP := bp + 1
		if isRightAssoc(op.Type) {
			nextBP = bp
		}
		if op.Type == QUESTION {
			then, err := p.expr(0)
			if err != nil {
				return nil, err
			}
			if _, err := p.need(COLON); err != nil {
				return nil, err
			}
			els, err := p.expr(nextBP)
			if err != nil {
				return nil, err
			}
			left = &Ternary{Cond: left, Then: then, Else: els, At: op.Pos}
			continue
		}
		right, err := p.expr(nextBP)
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op.Type, L: left, R: right, At: op.Pos}
	}
}

func (p *parser) prefix() (Node, error) {
	t := p.next()
	switch t.Type {
	case NUMBER:
		return &Number{Value: t.Num, At: t.Pos}, nil
	case IDENT:
		if p.peek().Type == LROUND {
			p.i++
			return p.call(t)
		}
		if v, ok := namedConstants[t.Lexeme]; ok {
			return &Number{Value: v, At: t.Pos}, nil
		}
		return &Ident{Name: t.Lexeme, At: t.Pos, Slot: -1}, nil
	case MINUS, PLUS, NOT:
		x, err := p.expr(unaryBP)
		if err != nil {
			return nil, err
		}
		if t.Type == PLUS {
			return x, nil
		}
		return &Unary{Op: t.Type, X: x, At: t.Pos}, nil
	case LROUND:
		inner, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.need(RROUND); err != nil {
			return nil, err
		}
		return inner, nil
	}
	return nil, p.errAt(t, "expected operand, found "+describe(t))
}

func (p *parser) call(name Token) (Node, error) {
	c := &Call{Name: name.Lexeme, At: name.Pos, Slot: -1}
	if p.match(RROUND) {
		return c, nil
	}
	for {
		arg, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		c.Args = append(c.Args, arg)
		if p.match(COMMA) {
			continue
		}
		if _, err := p.need(RROUND); err != nil {
			return nil, err
		}
		return c, nil
	}
}
