// Package command provides the timerelay-cli commands.
//
// This package defines all CLI commands using urfave/cli/v2:
//
//   - root.go: application, global flags, server session
//   - data.go: get, set, del and raw exec
//   - rpc.go: task scheduling
//   - interactive.go: REPL mode, the default without a subcommand
package command
