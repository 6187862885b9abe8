// Package executor runs per-focus work of a scheduled step on a fixed pool of
// workers.
//
// Each goroutine of a Pool is identified by a worker index in [0, Workers()).
// Callers use the index to pick per-worker state such as the evaluator clones
// of evaluator.ThreadedEvaluator, so no two goroutines ever share mutable
// evaluation state.
package executor
