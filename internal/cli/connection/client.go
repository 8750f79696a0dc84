package connection

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"
)

// ErrNotConnected is returned by Do after Close.
var ErrNotConnected = errors.New("not connected")

// ReplyType identifies the kind of a server reply.
type ReplyType int

const (
	ReplyStatus ReplyType = iota
	ReplyError
	ReplyInteger
	ReplyBulk
	ReplyNil
	ReplyArray
)

func (t ReplyType) String() string {
	switch t {
	case ReplyStatus:
		return "status"
	case ReplyError:
		return "error"
	case ReplyInteger:
		return "integer"
	case ReplyBulk:
		return "bulk"
	case ReplyNil:
		return "nil"
	case ReplyArray:
		return "array"
	}
	return "unknown"
}

// Reply is a decoded server reply.
type Reply struct {
	Type  ReplyType
	Str   string
	Int   int64
	Elems []*Reply
}

// Err returns the server error carried by an error reply, or nil.
func (r *Reply) Err() error {
	if r.Type != ReplyError {
		return nil
	}
	return &ServerError{Message: r.Str}
}

// ServerError is an error reply ("-ERR ...").
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return e.Message
}

// Client is a RESP client.
type Client struct {
	addr    string
	timeout time.Duration
	conn    net.Conn
	r       *bufio.Reader
}

// NewClient creates a client for addr. A zero timeout disables deadlines.
func NewClient(addr string, timeout time.Duration) *Client {
	return &Client{addr: addr, timeout: timeout}
}

// Addr returns the server address.
func (c *Client) Addr() string {
	return c.addr
}

// Connect dials the server.
func (c *Client) Connect(ctx context.Context) error {
	d := net.Dialer{Timeout: c.timeout}
	conn, err := d.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return fmt.Errorf("connect %s: %w", c.addr, err)
	}
	c.conn = conn
	c.r = bufio.NewReader(conn)
	return nil
}

// Connected reports whether the client holds an open connection.
func (c *Client) Connected() bool {
	return c.conn != nil
}

// Close closes the connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.r = nil
	return err
}

// Do sends one request and waits for its reply. Error replies are
// returned as a Reply, not as an error; err reports transport failures.
func (c *Client) Do(args ...string) (*Reply, error) {
	if c.conn == nil {
		return nil, ErrNotConnected
	}
	if len(args) == 0 {
		return nil, errors.New("empty command")
	}
	if c.timeout > 0 {
		if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
			return nil, err
		}
	}
	if _, err := c.conn.Write(EncodeCommand(args...)); err != nil {
		return nil, fmt.Errorf("send: %w", err)
	}

	// QUIT closes the connection without a reply.
	if strings.EqualFold(args[0], "quit") {
		_ = c.Close()
		return &Reply{Type: ReplyStatus, Str: "OK"}, nil
	}

	reply, err := ReadReply(c.r)
	if err != nil {
		return nil, fmt.Errorf("receive: %w", err)
	}
	return reply, nil
}

// EncodeCommand encodes args as a multibulk request.
func EncodeCommand(args ...string) []byte {
	var sb strings.Builder
	sb.WriteByte('*')
	sb.WriteString(strconv.Itoa(len(args)))
	sb.WriteString("\r\n")
	for _, a := range args {
		sb.WriteByte('$')
		sb.WriteString(strconv.Itoa(len(a)))
		sb.WriteString("\r\n")
		sb.WriteString(a)
		sb.WriteString("\r\n")
	}
	return []byte(sb.String())
}

// ReadReply decodes one reply.
func ReadReply(r *bufio.Reader) (*Reply, error) {
	line, err := readLine(r)
	if err != nil {
		return nil, err
	}
	if len(line) == 0 {
		return nil, errors.New("empty reply line")
	}

	switch line[0] {
	case '+':
		return &Reply{Type: ReplyStatus, Str: line[1:]}, nil
	case '-':
		return &Reply{Type: ReplyError, Str: line[1:]}, nil
	case ':':
		n, err := strconv.ParseInt(line[1:], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad integer reply %q", line)
		}
		return &Reply{Type: ReplyInteger, Int: n}, nil
	case '$':
		n, err := strconv.Atoi(line[1:])
		if err != nil {
			return nil, fmt.Errorf("bad bulk length %q", line)
		}
		if n < 0 {
			return &Reply{Type: ReplyNil}, nil
		}
		buf := make([]byte, n+2)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		return &Reply{Type: ReplyBulk, Str: string(buf[:n])}, nil
	case '*':
		n, err := strconv.Atoi(line[1:])
		if err != nil {
			return nil, fmt.Errorf("bad array length %q", line)
		}
		if n < 0 {
			return &Reply{Type: ReplyNil}, nil
		}
		reply := &Reply{Type: ReplyArray, Elems: make([]*Reply, 0, n)}
		for i := 0; i < n; i++ {
			e, err := ReadReply(r)
			if err != nil {
				return nil, err
			}
			reply.Elems = append(reply.Elems, e)
		}
		return reply, nil
	}
	return nil, fmt.Errorf("unexpected reply type %q", line[0])
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	if len(line) < 2 || line[len(line)-2] != '\r' {
		return "", fmt.Errorf("reply line not terminated by CRLF: %q", line)
	}
	return line[:len(line)-2], nil
}
