package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/timerelay-go/internal/cli/config"
	"github.com/yndnr/timerelay-go/internal/cli/connection"
	"github.com/yndnr/timerelay-go/internal/cli/output"
	"github.com/yndnr/timerelay-go/internal/infra/buildinfo"
)

// ErrReplyError is returned when the server answered with an error reply.
// The reply itself has already been printed.
var ErrReplyError = errors.New("server returned an error reply")

const sessionKey = "session"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "timerelay-cli",
		Usage:   "timerelay command-line client",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			GetCommand(),
			SetCommand(),
			DelCommand(),
			RPCCommand(),
			ExecCommand(),
			InteractiveCommand(),
		},
		Action: runInteractive,
		After: func(c *cli.Context) error {
			if s := getSession(c); s != nil {
				return s.close()
			}
			return nil
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "CLI config file (default ~/.timerelay/cli.yaml)",
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "server address host:port (default 127.0.0.1:6379)",
			EnvVars: []string{"TIMERELAY_CLI_SERVER"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: text, json, yaml",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "connect and request timeout",
		},
	}
}

// session is the connection shared by the commands of one invocation.
type session struct {
	client    *connection.Client
	formatter output.Formatter
	out       io.Writer
}

// resolveConfig merges the config file and the global flags.
func resolveConfig(c *cli.Context) (*config.CLIConfig, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("server") {
		cfg.Server = c.String("server")
	}
	if c.IsSet("output") {
		cfg.Output = c.String("output")
	}
	if c.IsSet("timeout") {
		cfg.Timeout = c.Duration("timeout")
	}
	if !output.ValidFormat(cfg.Output) {
		return nil, fmt.Errorf("invalid output format %q", cfg.Output)
	}
	return cfg, nil
}

// openSession returns the session of this invocation, connecting on first use.
func openSession(c *cli.Context) (*session, error) {
	if s := getSession(c); s != nil {
		return s, nil
	}

	cfg, err := resolveConfig(c)
	if err != nil {
		return nil, err
	}
	out := c.App.Writer
	if out == nil {
		out = os.Stdout
	}
	s := &session{
		client:    connection.NewClient(cfg.Server, cfg.Timeout),
		formatter: output.NewFormatter(output.Format(cfg.Output)),
		out:       out,
	}
	if err := s.client.Connect(c.Context); err != nil {
		return nil, err
	}

	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[sessionKey] = s
	return s, nil
}

func getSession(c *cli.Context) *session {
	if c.App.Metadata == nil {
		return nil
	}
	s, _ := c.App.Metadata[sessionKey].(*session)
	return s
}

// run sends one request and prints the reply.
func (s *session) run(ctx context.Context, args ...string) error {
	if !s.client.Connected() {
		if err := s.client.Connect(ctx); err != nil {
			return err
		}
	}
	reply, err := s.client.Do(args...)
	if err != nil {
		return err
	}
	if err := s.formatter.Format(s.out, reply); err != nil {
		return err
	}
	if reply.Type == connection.ReplyError {
		return ErrReplyError
	}
	return nil
}

func (s *session) close() error {
	return s.client.Close()
}

// do opens the session and runs one request.
func do(c *cli.Context, args ...string) error {
	s, err := openSession(c)
	if err != nil {
		return err
	}
	return s.run(c.Context, args...)
}

// requireArgs checks the positional argument count.
func requireArgs(c *cli.Context, n int, usage string) error {
	if c.NArg() != n {
		return fmt.Errorf("usage: %s %s", c.Command.Name, usage)
	}
	return nil
}
