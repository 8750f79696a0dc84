package redisserver

import (
	"strconv"
	"strings"
	"time"

	"github.com/yndnr/timerelay-go/internal/core/domain"
	"github.com/yndnr/timerelay-go/internal/object"
	"github.com/yndnr/timerelay-go/internal/scheduler"
)

// CommandFlag describes how a command takes its arguments. Flags are
// recorded in the table but not enforced.
type CommandFlag uint8

const (
	// FlagBulk marks commands whose last argument is a bulk payload.
	FlagBulk CommandFlag = 1 << iota
	// FlagInline marks commands with only short arguments.
	FlagInline
	// FlagDenyOOM marks commands that may grow memory use.
	FlagDenyOOM
)

// Command is an entry of the command table.
type Command struct {
	Name  string
	Proc  func(c *Conn) error
	Arity int // exact argument count, command name included
	Flags CommandFlag
}

func newCommandTable() map[string]*Command {
	cmds := []*Command{
		{Name: "get", Proc: getCommand, Arity: 2, Flags: FlagInline},
		{Name: "set", Proc: setCommand, Arity: 3, Flags: FlagBulk | FlagDenyOOM},
		{Name: "rpc", Proc: rpcCommand, Arity: 5, Flags: FlagBulk | FlagDenyOOM},
		{Name: "del", Proc: delCommand, Arity: 2, Flags: FlagInline},
	}
	table := make(map[string]*Command, len(cmds))
	for _, cmd := range cmds {
		table[cmd.Name] = cmd
	}
	return table
}

// processCommand executes the request in argv and releases the arguments.
func (c *Conn) processCommand() {
	name := c.argv[0].String()

	// QUIT tears the connection down before any reply.
	if strings.EqualFold(name, "quit") {
		c.close("quit")
		return
	}

	start := time.Now()
	label := "unknown"
	result := "ok"

	cmd, ok := c.srv.commands[strings.ToLower(name)]
	switch {
	case !ok:
		result = "error"
		c.addReplyError(domain.UnknownCommand(name))
	case len(c.argv) != cmd.Arity:
		label = cmd.Name
		result = "error"
		c.addReplyError(domain.WrongArity(cmd.Name))
	default:
		label = cmd.Name
		if err := cmd.Proc(c); err != nil {
			result = "error"
			c.srv.logger.Debug("command failed",
				"conn", c.id,
				"command", cmd.Name,
				"code", domain.GetErrorCode(err),
				"error", err,
			)
			c.addReplyError(err)
		}
	}

	c.resetArgs()
	c.srv.metrics.RecordCommand(label, result, time.Since(start).Seconds())
}

// GET key
func getCommand(c *Conn) error {
	val, ok := c.srv.db.Lookup(c.argv[1])
	if !ok {
		c.addReply(c.srv.shared.NullBulk)
		return nil
	}
	if val.Kind() != object.KindString {
		c.addReply(c.srv.shared.WrongTypeErr)
		return nil
	}
	c.addReplyBulk(val)
	return nil
}

// SET key value
func setCommand(c *Conn) error {
	val := c.argv[2]
	val.IncrRef()
	c.srv.db.Set(c.argv[1], val)
	c.addReply(c.srv.shared.OK)
	return nil
}

// RPC mode triggerTimeMs host:port payload
func rpcCommand(c *Conn) error {
	trigger, err := strconv.ParseInt(c.argv[2].String(), 10, 64)
	if err != nil {
		return domain.ErrNotInteger
	}
	mode := scheduler.ParseMode(c.argv[1].String())

	task, err := c.srv.sched.Schedule(mode, trigger, c.argv[3].String(), c.argv[4])
	if err != nil {
		if domain.IsDomainError(err, domain.ErrScheduleFailed.Code) {
			c.srv.logger.Error("task registration failed", "conn", c.id, "error", err)
		}
		return err
	}
	c.addReplyString("+OK timeEventId:" + strconv.FormatInt(task.ID, 10) + "\r\n")
	return nil
}

// DEL timerId
func delCommand(c *Conn) error {
	id, err := strconv.ParseInt(c.argv[1].String(), 10, 64)
	if err != nil {
		return domain.ErrNotInteger
	}
	c.srv.sched.Cancel(id)
	c.addReply(c.srv.shared.OK)
	return nil
}
