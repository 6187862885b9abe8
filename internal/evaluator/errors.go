package evaluator

import "errors"

var (
	// ErrEmptyExpression is returned for blank expression text.
	ErrEmptyExpression = errors.New("empty expression")
	// ErrParseFailure wraps syntax errors of the expression language.
	ErrParseFailure = errors.New("expression parse failure")
	// ErrVectorExpansionRefused is returned when a scalar expression assigned
	// to a vector does not reference any vector symbol.
	ErrVectorExpansionRefused = errors.New("scalar expression cannot be expanded to a vector")
)
