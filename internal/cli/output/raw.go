package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yndnr/blueis/internal/cli/connection"
)

// RawFormatter renders replies the way redis-cli does on a terminal.
type RawFormatter struct{}

// Format writes r followed by a newline.
func (f *RawFormatter) Format(w io.Writer, r connection.Reply) error {
	var b strings.Builder
	writeRaw(&b, r, "")
	_, err := io.WriteString(w, b.String())
	return err
}

func writeRaw(b *strings.Builder, r connection.Reply, indent string) {
	switch r.Type {
	case connection.ReplyStatus:
		b.WriteString(r.Str + "\n")
	case connection.ReplyError:
		b.WriteString("(error) " + r.Str + "\n")
	case connection.ReplyInteger:
		fmt.Fprintf(b, "(integer) %d\n", r.Int)
	case connection.ReplyBulk:
		b.WriteString(strconv.Quote(r.Str) + "\n")
	case connection.ReplyNil, connection.ReplyNilArray:
		b.WriteString("(nil)\n")
	case connection.ReplyArray:
		if len(r.Elems) == 0 {
			b.WriteString("(empty array)\n")
			return
		}
		width := len(strconv.Itoa(len(r.Elems)))
		for i, e := range r.Elems {
			if i > 0 {
				b.WriteString(indent)
			}
			label := fmt.Sprintf("%*d) ", width, i+1)
			b.WriteString(label)
			writeRaw(b, e, indent+strings.Repeat(" ", len(label)))
		}
	}
}
