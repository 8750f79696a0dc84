package command

import (
	"errors"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/timerelay-go/internal/cli/repl"
)

// InteractiveCommand returns the repl command.
func InteractiveCommand() *cli.Command {
	return &cli.Command{
		Name:   "repl",
		Usage:  "Start interactive mode",
		Action: runInteractive,
	}
}

func runInteractive(c *cli.Context) error {
	s, err := openSession(c)
	if err != nil {
		return err
	}

	r := repl.New(s.client.Addr(), func(args []string) error {
		err := s.run(c.Context, args...)
		if errors.Is(err, ErrReplyError) {
			return nil
		}
		return err
	}, repl.DefaultHistoryFile())
	return r.Run()
}
