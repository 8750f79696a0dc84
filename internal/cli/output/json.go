package output

import (
	"encoding/json"
	"io"

	"github.com/yndnr/timerelay-go/internal/cli/connection"
)

// JSONFormatter formats replies as JSON.
type JSONFormatter struct{}

// Format formats the reply as indented JSON.
func (f *JSONFormatter) Format(w io.Writer, r *connection.Reply) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(View(r))
}
