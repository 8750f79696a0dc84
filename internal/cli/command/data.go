package command

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// GetCommand returns the get command.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Get the value of a key",
		ArgsUsage: "KEY",
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, 1, "KEY"); err != nil {
				return err
			}
			return do(c, "get", c.Args().Get(0))
		},
	}
}

// SetCommand returns the set command.
func SetCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Set the value of a key",
		ArgsUsage: "KEY VALUE",
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, 2, "KEY VALUE"); err != nil {
				return err
			}
			return do(c, "set", c.Args().Get(0), c.Args().Get(1))
		},
	}
}

// DelCommand returns the del command, which cancels a scheduled task.
func DelCommand() *cli.Command {
	return &cli.Command{
		Name:      "del",
		Usage:     "Cancel a scheduled task",
		ArgsUsage: "TASK_ID",
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, 1, "TASK_ID"); err != nil {
				return err
			}
			return do(c, "del", c.Args().Get(0))
		},
	}
}

// ExecCommand returns the exec command, which sends its arguments as a
// raw request.
func ExecCommand() *cli.Command {
	return &cli.Command{
		Name:      "exec",
		Usage:     "Send a raw command",
		ArgsUsage: "COMMAND [ARG...]",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return fmt.Errorf("usage: exec COMMAND [ARG...]")
			}
			return do(c, c.Args().Slice()...)
		},
	}
}
