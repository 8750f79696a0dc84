package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"
)

// RPCCommand returns the rpc command.
func RPCCommand() *cli.Command {
	return &cli.Command{
		Name:      "rpc",
		Usage:     "Schedule a payload to be forwarded to a worker",
		ArgsUsage: "HOST:PORT PAYLOAD",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "mode",
				Aliases: []string{"m"},
				Usage:   "once or repeat",
				Value:   "once",
			},
			&cli.DurationFlag{
				Name:  "in",
				Usage: "delay before the first dispatch; also the repeat period",
			},
			&cli.Int64Flag{
				Name:  "at",
				Usage: "trigger time in Unix milliseconds (overrides --in)",
			},
		},
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, 2, "HOST:PORT PAYLOAD"); err != nil {
				return err
			}
			args, err := rpcArgs(c.String("mode"), c.Int64("at"), c.IsSet("at"), c.Duration("in").Milliseconds(),
				c.Args().Get(0), c.Args().Get(1))
			if err != nil {
				return err
			}
			return do(c, args...)
		},
	}
}

// rpcArgs builds the RPC request. Without an absolute trigger the delay
// is sent as is: the server treats a trigger in the past as a delay.
func rpcArgs(mode string, at int64, hasAt bool, inMs int64, target, payload string) ([]string, error) {
	mode = strings.ToLower(mode)
	if mode != "once" && mode != "repeat" {
		return nil, fmt.Errorf("invalid mode %q, expected once or repeat", mode)
	}
	if inMs < 0 {
		return nil, fmt.Errorf("--in must not be negative")
	}
	trigger := inMs
	if hasAt {
		trigger = at
	}
	return []string{"rpc", mode, strconv.FormatInt(trigger, 10), target, payload}, nil
}
