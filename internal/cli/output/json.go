package output

import (
	"encoding/json"
	"io"

	"github.com/yndnr/blueis/internal/cli/connection"
)

// JSONFormatter formats replies as JSON.
type JSONFormatter struct{}

// Format formats r as one line of JSON.
func (f *JSONFormatter) Format(w io.Writer, r connection.Reply) error {
	return json.NewEncoder(w).Encode(Value(r))
}
