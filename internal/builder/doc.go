/*
Package builder turns a loaded configuration model into a runnable
simulation: a tree of scopes populated with symbols, and the list of
processes bound to them.

The construction is a multi-phase process:

 1. Time: the root `time` block gives the simulated interval, the optional
    stop condition and the checkpoint interval.

 2. Declarations: blocks are visited in declaration order. Symbol blocks
    (constant, variable, property, function, derived, population) register a
    symbol in the current scope, `scope` blocks open a child scope and every
    other block is handed to the registry, which validates it and creates
    the process that reads it.

 3. Validation: derived symbols and functions are initialised so that
    undefined names and malformed expressions fail the build instead of the
    run.

Upon successful completion the Simulation is handed to the scheduler.
*/
package builder
