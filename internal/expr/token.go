package expr

import "fmt"

// TokenType classifies a lexeme.
type TokenType int

const (
	EOF TokenType = iota
	NUMBER
	IDENT
	PLUS
	MINUS
	MULT
	DIV
	MOD
	POW
	LROUND
	RROUND
	COMMA
	QUESTION
	COLON
	NOT
	AND
	OR
	LESS
	LESS_EQ
	GREATER
	GREATER_EQ
	EQ
	NEQ
)

var tokenNames = map[TokenType]string{
	EOF: "end of expression", NUMBER: "number", IDENT: "identifier",
	PLUS: "+", MINUS: "-", MULT: "*", DIV: "/", MOD: "%", POW: "^",
	LROUND: "(", RROUND: ")", COMMA: ",", QUESTION: "?", COLON: ":",
	NOT: "!", AND: "&&", OR: "||",
	LESS: "<", LESS_EQ: "<=", GREATER: ">", GREATER_EQ: ">=", EQ: "==", NEQ: "!=",
}

func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return fmt.Sprintf("token(%d)", int(t))
}

// Token is a lexeme with its byte offset in the source.
type Token struct {
	Type   TokenType
	Lexeme string
	Num    float64
	Pos    int
}

// SyntaxError reports a lexing or parsing problem at a byte offset.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at position %d", e.Msg, e.Pos+1)
}
