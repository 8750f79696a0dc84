// Command timerelay-cli talks to a timerelay server, one command per
// invocation or interactively.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/yndnr/timerelay-go/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		// The error reply has already been printed.
		if !errors.Is(err, command.ErrReplyError) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}
