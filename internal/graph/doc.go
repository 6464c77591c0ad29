// Package graph holds the static definition of a transformation: its steps,
// each backed by a configured plugin, and the hops that connect them.
//
// A Graph is built once, validated, and then handed to the executor. It is
// safe for concurrent reads but is not meant to change while a run is in
// progress.
package graph
