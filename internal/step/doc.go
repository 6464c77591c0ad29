// Package step runs one transformation step: it owns the step's lifecycle,
// reads rows from its input buffers, hands them to the step plugin and
// writes the plugin's output rows to its output buffers.
//
// Plugins expose what they can do through small capability interfaces.
// Every plugin is a Processor; a plugin that produces rows from nothing is a
// Source, one that turns input rows into output rows is a Transform. The
// optional Initializer, Flusher and Disposer hooks run around the main loop.
package step
