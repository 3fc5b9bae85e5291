// Package pipeline provides an ordered, mutable list of named steps applied
// one after the other to a value of a single type.
//
// # Core Concepts
//
//   - **Step**: a named transformation from T to T. Plain functions are added with AddStep,
//     functions that can fail with AddStepFunc.
//   - **Pipeline**: the ordered steps. Steps are appended, removed by position or cleared.
//   - **Run**: feeds a value through every step and returns the last output.
//   - **Trace**: like Run, but returns the output of every step.
//   - **Middleware**: a function that wraps each step during an evaluation, such as logging.
//
// Errors returned by a step stop the evaluation and reach the caller unchanged.
// Structural mistakes are reported with errors wrapping ErrInvalidArgument or
// ErrOutOfRange, and leave the pipeline as it was.
//
// A pipeline is meant to have a single owner. It must not be mutated while
// it is being evaluated.
package pipeline
