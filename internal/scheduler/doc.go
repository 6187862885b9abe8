// Package scheduler drives a simulation: it negotiates the time steps of the
// processes, orders them and advances the global clock until the stop time.
//
// # Phases
//
// Processes are split by category. Phase I holds continuous processes, run
// in ascending rank. Phase II holds instantaneous processes and reporters in
// a dependency-respecting order. Phase III holds analysis processes, which
// only observe state.
//
// # Ordering
//
// Phase II is ordered by repeatedly picking the first process, in
// declaration order, whose inputs are no longer written by any unscheduled
// process. When no process qualifies, a fixed list of fallback strategies is
// tried once each: duplicating a reporter, then ignoring delayed inputs. If
// both are spent the model contains a genuine cycle and Init fails with
// ErrCyclicDependency.
//
// # Lifecycle
//
// A Scheduler is built with New, initialised once with Init, run with
// Compute and released with Wipe. A wiped scheduler refuses further use.
package scheduler
