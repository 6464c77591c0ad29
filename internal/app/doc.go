// Package app contains the core application logic. It wires the step catalog,
// the HCL loader, the executor and the health check server into a single run
// lifecycle, decoupled from any specific entrypoint like a CLI.
package app
