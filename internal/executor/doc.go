// Package executor runs a transformation graph: one goroutine per step, all
// started together, connected by bounded row buffers. It detects completion
// and failure and aggregates the step counters into a Result.
package executor
