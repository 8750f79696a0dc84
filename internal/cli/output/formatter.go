package output

import (
	"fmt"
	"io"
	"strconv"

	"github.com/yndnr/timerelay-go/internal/cli/connection"
)

// Format represents the output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ValidFormat reports whether f names a known format.
func ValidFormat(f string) bool {
	switch Format(f) {
	case FormatText, FormatJSON, FormatYAML:
		return true
	}
	return false
}

// Formatter writes a reply.
type Formatter interface {
	Format(w io.Writer, r *connection.Reply) error
}

// NewFormatter creates a formatter for the given format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return &TextFormatter{}
	}
}

// ReplyView is the structured form of a reply.
type ReplyView struct {
	Type  string `json:"type" yaml:"type"`
	Value any    `json:"value" yaml:"value"`
}

// View converts r into its structured form.
func View(r *connection.Reply) ReplyView {
	v := ReplyView{Type: r.Type.String()}
	switch r.Type {
	case connection.ReplyStatus, connection.ReplyError, connection.ReplyBulk:
		v.Value = r.Str
	case connection.ReplyInteger:
		v.Value = r.Int
	case connection.ReplyArray:
		elems := make([]ReplyView, len(r.Elems))
		for i, e := range r.Elems {
			elems[i] = View(e)
		}
		v.Value = elems
	}
	return v
}

// TextFormatter prints replies the way redis-cli does.
type TextFormatter struct{}

// Format implements Formatter.
func (f *TextFormatter) Format(w io.Writer, r *connection.Reply) error {
	return writeText(w, r, "")
}

func writeText(w io.Writer, r *connection.Reply, indent string) error {
	var err error
	switch r.Type {
	case connection.ReplyStatus:
		_, err = fmt.Fprintln(w, r.Str)
	case connection.ReplyError:
		_, err = fmt.Fprintf(w, "(error) %s\n", r.Str)
	case connection.ReplyInteger:
		_, err = fmt.Fprintf(w, "(integer) %d\n", r.Int)
	case connection.ReplyBulk:
		_, err = fmt.Fprintln(w, strconv.Quote(r.Str))
	case connection.ReplyNil:
		_, err = fmt.Fprintln(w, "(nil)")
	case connection.ReplyArray:
		if len(r.Elems) == 0 {
			_, err = fmt.Fprintln(w, "(empty array)")
			break
		}
		for i, e := range r.Elems {
			if _, err = fmt.Fprintf(w, "%s%d) ", indent, i+1); err != nil {
				return err
			}
			if err = writeText(w, e, indent+"   "); err != nil {
				return err
			}
		}
	}
	return err
}
