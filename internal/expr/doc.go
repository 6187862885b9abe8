// Package expr implements the textual math language used by model
// expressions: a lexer, a Pratt parser producing an immutable AST and a
// scalar tree-walking interpreter.
//
// The language follows the usual calculator conventions: numbers,
// identifiers (which may contain dots, e.g. `celltype.size` or `v.x`), the
// operators `+ - * / % ^`, comparisons, `&&`/`and`, `||`/`or`, `!`, the
// ternary `c ? a : b`, function calls and a top-level comma list whose length
// is the native result count of the expression.
//
// Identifiers and calls are bound to slots by the caller (see Bind) before
// evaluation; after binding the tree is read-only and can be shared between
// goroutines.
package expr
