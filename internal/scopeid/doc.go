/*
Package scopeid provides a structured representation of scope paths, the
dotted addresses used to locate a scope (and the symbols or processes it
owns) inside the scope hierarchy, e.g. `Global.tissue.cells[2]`.

Scope paths are used for diagnostics: every load-time or run-time error that
refers to a symbol or an expression carries the path of the scope it was
resolved in. Parsing and formatting live here so that all packages render
paths identically.
*/
package scopeid
