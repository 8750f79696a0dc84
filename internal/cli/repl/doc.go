// Package repl provides the interactive mode of timerelay-cli.
//
//   - repl.go: read-eval-print loop and argument splitting
//   - completer.go: command name completion
//   - history.go: command history persistence
package repl
