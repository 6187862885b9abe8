// Package registry maps the block kinds of a model description to the Go
// code implementing them.
//
// Process kinds are registered together with the attributes they accept, so
// that a model can be checked against the code before anything is built.
// Continuous blocks delegate numerical integration to steppers, registered
// separately by method name.
package registry
