package connection

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Reply size limits guard the client against a misbehaving peer.
const (
	maxLineLength  = 64 * 1024
	maxBulkLength  = 512 * 1024 * 1024
	maxArrayLength = 1 << 24
)

// ErrProtocol reports a malformed reply.
var ErrProtocol = errors.New("connection: protocol error")

// ReplyType identifies the kind of a RESP reply.
type ReplyType int

const (
	ReplyStatus ReplyType = iota
	ReplyError
	ReplyInteger
	ReplyBulk
	ReplyNil
	ReplyArray
	ReplyNilArray
)

// String returns the type name.
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
	case ReplyNilArray:
		return "nil-array"
	default:
		return "unknown"
	}
}

// Reply is one parsed server reply.
type Reply struct {
	Type  ReplyType
	Str   string
	Int   int64
	Elems []Reply
}

// ServerError is an error reply sent by the server.
type ServerError string

func (e ServerError) Error() string { return string(e) }

// Err returns the reply as a ServerError if it is an error reply.
func (r Reply) Err() error {
	if r.Type == ReplyError {
		return ServerError(r.Str)
	}
	return nil
}

// IsNil reports whether the reply is a null bulk string or null array.
func (r Reply) IsNil() bool {
	return r.Type == ReplyNil || r.Type == ReplyNilArray
}

// ReadReply reads one complete reply from br.
func ReadReply(br *bufio.Reader) (Reply, error) {
	line, err := readLine(br)
	if err != nil {
		return Reply{}, err
	}
	if line == "" {
		return Reply{}, fmt.Errorf("%w: empty line", ErrProtocol)
	}

	body := line[1:]
	switch line[0] {
	case '+':
		return Reply{Type: ReplyStatus, Str: body}, nil
	case '-':
		return Reply{Type: ReplyError, Str: body}, nil
	case ':':
		n, err := strconv.ParseInt(body, 10, 64)
		if err != nil {
			return Reply{}, fmt.Errorf("%w: bad integer %q", ErrProtocol, body)
		}
		return Reply{Type: ReplyInteger, Int: n}, nil
	case '$':
		n, err := parseLength(body, maxBulkLength)
		if err != nil {
			return Reply{}, err
		}
		if n < 0 {
			return Reply{Type: ReplyNil}, nil
		}
		buf := make([]byte, n+2)
		if _, err := io.ReadFull(br, buf); err != nil {
			return Reply{}, err
		}
		if buf[n] != '\r' || buf[n+1] != '\n' {
			return Reply{}, fmt.Errorf("%w: bulk string not terminated by CRLF", ErrProtocol)
		}
		return Reply{Type: ReplyBulk, Str: string(buf[:n])}, nil
	case '*':
		n, err := parseLength(body, maxArrayLength)
		if err != nil {
			return Reply{}, err
		}
		if n < 0 {
			return Reply{Type: ReplyNilArray}, nil
		}
		elems := make([]Reply, 0, n)
		for i := 0; i < n; i++ {
			elem, err := ReadReply(br)
			if err != nil {
				return Reply{}, err
			}
			elems = append(elems, elem)
		}
		return Reply{Type: ReplyArray, Elems: elems}, nil
	default:
		return Reply{}, fmt.Errorf("%w: unexpected type byte %q", ErrProtocol, line[0])
	}
}

func parseLength(s string, max int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < -1 {
		return 0, fmt.Errorf("%w: bad length %q", ErrProtocol, s)
	}
	if n > max {
		return 0, fmt.Errorf("%w: length %d exceeds limit", ErrProtocol, n)
	}
	return n, nil
}

func readLine(br *bufio.Reader) (string, error) {
	var b strings.Builder
	for {
		frag, err := br.ReadSlice('\n')
		b.Write(frag)
		if b.Len() > maxLineLength {
			return "", fmt.Errorf("%w: line too long", ErrProtocol)
		}
		if err == nil {
			break
		}
		if !errors.Is(err, bufio.ErrBufferFull) {
			return "", err
		}
	}
	line := b.String()
	if !strings.HasSuffix(line, "\r\n") {
		return "", fmt.Errorf("%w: line not terminated by CRLF", ErrProtocol)
	}
	return line[:len(line)-2], nil
}
