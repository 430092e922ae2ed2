package output

import (
	"fmt"
	"io"

	"github.com/yndnr/blueis/internal/cli/connection"
)

// Format represents the output format.
type Format string

const (
	FormatRaw  Format = "raw"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatRaw, FormatJSON, FormatYAML:
		return Format(s), nil
	case "":
		return FormatRaw, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want raw, json or yaml)", s)
	}
}

// Formatter writes one reply.
type Formatter interface {
	Format(w io.Writer, r connection.Reply) error
}

// NewFormatter creates a formatter for the given format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return &RawFormatter{}
	}
}

// Value converts a reply to plain Go values for structured encoders:
// strings, int64, nil, []any, and map[string]any{"error": msg} for errors.
func Value(r connection.Reply) any {
	switch r.Type {
	case connection.ReplyStatus, connection.ReplyBulk:
		return r.Str
	case connection.ReplyError:
		return map[string]any{"error": r.Str}
	case connection.ReplyInteger:
		return r.Int
	case connection.ReplyArray:
		out := make([]any, len(r.Elems))
		for i, e := range r.Elems {
			out[i] = Value(e)
		}
		return out
	default:
		return nil
	}
}
