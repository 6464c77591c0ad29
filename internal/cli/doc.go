// Package cli turns command-line arguments into an app.Config. It validates
// flags, collects repeated -set step overrides and reports usage problems as
// ExitError values carrying the process exit code.
package cli
