package expr

import (
	"strconv"
	"strings"
)

// Lexer splits an expression into tokens.
type Lexer struct {
	src   string
	start int
	cur   int
	toks  []Token
}

// NewLexer returns a lexer over src.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src}
}

func (l *Lexer) isAtEnd() bool { return l.cur >= len(l.src) }

func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.src[l.cur]
}

func (l *Lexer) peekN(n int) byte {
	if l.cur+n >= len(l.src) {
		return 0
	}
	return l.src[l.cur+n]
}

func (l *Lexer) add(tt TokenType) {
	l.toks = append(l.toks, Token{Type: tt, Lexeme: l.src[l.start:l.cur], Pos: l.start})
}

func (l *Lexer) err(msg string) error {
	return &SyntaxError{Pos: l.start, Msg: msg}
}

func isDigit(b byte) bool    { return b >= '0' && b <= '9' }
func isAlpha(b byte) bool    { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_' }
func isAlphaNum(b byte) bool { return isAlpha(b) || isDigit(b) }

// Scan tokenizes the whole input. The returned slice always ends with EOF.
func (l *Lexer) Scan() ([]Token, error) {
	for {
		for !l.isAtEnd() && strings.IndexByte(" \t\r\n", l.peek()) >= 0 {
			l.cur++
		}
		l.start = l.cur
		if l.isAtEnd() {
			l.toks = append(l.toks, Token{Type: EOF, Pos: l.cur})
			return l.toks, nil
		}
		if err := l.scanToken(); err != nil {
			return nil, err
		}
	}
}

func (l *Lexer) scanToken() error {
	c := l.src[l.cur]
	l.cur++
	two := func(next byte, yes, no TokenType) {
		if l.peek() == next {
			l.cur++
			l.add(yes)
			return
		}
		l.add(no)
	}
	switch c {
	case '+':
		l.add(PLUS)
	case '-':
		l.add(MINUS)
	case '*':
		l.add(MULT)
	case '/':
		l.add(DIV)
	case '%':
		l.add(MOD)
	case '^':
		l.add(POW)
	case '(':
		l.add(LROUND)
	case ')':
		l.add(RROUND)
	case ',':
		l.add(COMMA)
	case '?':
		l.add(QUESTION)
	case ':':
		l.add(COLON)
	case '<':
		two('=', LESS_EQ, LESS)
	case '>':
		two('=', GREATER_EQ, GREATER)
	case '!':
		two('=', NEQ, NOT)
	case '=':
		if l.peek() != '=' {
			return l.err("unexpected '=' (use '==' for comparison)")
		}
		l.cur++
		l.add(EQ)
	case '&':
		if l.peek() != '&' {
			return l.err("unexpected '&'")
		}
		l.cur++
		l.add(AND)
	case '|':
		if l.peek() != '|' {
			return l.err("unexpected '|'")
		}
		l.cur++
		l.add(OR)
	default:
		switch {
		case isDigit(c) || (c == '.' && isDigit(l.peek())):
			return l.scanNumber()
		case isAlpha(c):
			return l.scanIdentifier()
		}
		return l.err("unexpected character " + strconv.QuoteRune(rune(c)))
	}
	return nil
}

func (l *Lexer) scanNumber() error {
	for isDigit(l.peek()) {
		l.cur++
	}
	if l.peek() == '.' && !isAlpha(l.peekN(1)) {
		l.cur++
		for isDigit(l.peek()) {
			l.cur++
		}
	}
	if e := l.peek(); e == 'e' || e == 'E' {
		n := 1
		if s := l.peekN(1); s == '+' || s == '-' {
			n = 2
		}
		if isDigit(l.peekN(n)) {
			l.cur += n
			for isDigit(l.peek()) {
				l.cur++
			}
		}
	}
	lex := l.src[l.start:l.cur]
	v, err := strconv.ParseFloat(lex, 64)
	if err != nil {
		return l.err("malformed number " + strconv.Quote(lex))
	}
	l.toks = append(l.toks, Token{Type: NUMBER, Lexeme: lex, Num: v, Pos: l.start})
	return nil
}

// scanIdentifier reads dotted names such as `celltype.size` or `v.x` as a
// single identifier.
func (l *Lexer) scanIdentifier() error {
	for {
		for isAlphaNum(l.peek()) {
			l.cur++
		}
		if l.peek() != '.' {
			break
		}
		if !isAlpha(l.peekN(1)) {
			l.cur++
			return l.err("identifier cannot end with '.'")
		}
		l.cur++
	}
	switch l.src[l.start:l.cur] {
	case "and":
		l.add(AND)
	case "or":
		l.add(OR)
	default:
		l.add(IDENT)
	}
	return nil
}
