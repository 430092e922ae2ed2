package domain

import (
	"strconv"
	"strings"
	"time"
)

// MonitorRecord is a copy of one command as received by the server.
type MonitorRecord struct {
	Time       time.Time
	ClientAddr string
	Args       [][]byte
}

// Format renders the record the way redis MONITOR does:
//
//	1700000000.123456 [0 127.0.0.1:5555] "LPUSH" "k" "v"
func (r MonitorRecord) Format() string {
	var b strings.Builder
	micros := r.Time.UnixMicro()
	b.WriteString(strconv.FormatInt(micros/1e6, 10))
	b.WriteByte('.')
	frac := strconv.FormatInt(micros%1e6, 10)
	b.WriteString(strings.Repeat("0", 6-len(frac)))
	b.WriteString(frac)
	b.WriteString(" [0 ")
	b.WriteString(r.ClientAddr)
	b.WriteByte(']')
	for _, arg := range r.Args {
		b.WriteByte(' ')
		writeQuoted(&b, arg)
	}
	return b.String()
}

// writeQuoted writes arg as a double-quoted string, escaping quotes,
// backslashes and non-printable bytes.
func writeQuoted(b *strings.Builder, arg []byte) {
	const hex = "0123456789abcdef"
	b.WriteByte('"')
	for _, c := range arg {
		switch c {
		case '\\', '"':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\a':
			b.WriteString(`\a`)
		case '\b':
			b.WriteString(`\b`)
		default:
			if c >= 0x20 && c < 0x7f {
				b.WriteByte(c)
			} else {
				b.WriteString(`\x`)
				b.WriteByte(hex[c>>4])
				b.WriteByte(hex[c&0x0f])
			}
		}
	}
	b.WriteByte('"')
}
