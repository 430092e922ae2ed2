package redisserver

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/yndnr/blueis/internal/core/domain"
	"github.com/yndnr/blueis/internal/core/service"
	"github.com/yndnr/blueis/internal/telemetry/logger"
	"github.com/yndnr/blueis/internal/telemetry/metric"
)

// commandKind enumerates the supported commands.
type commandKind int

const (
	cmdPing commandKind = iota
	cmdQuit
	cmdMonitor
	cmdLPush
	cmdRPush
	cmdLPushX
	cmdRPushX
	cmdLPop
	cmdRPop
	cmdBLPop
	cmdBRPop
	cmdLLen
	cmdLRange
	cmdLIndex
	cmdLSet
	cmdLTrim
	cmdRPopLPush
	cmdLMove
)

// argType is the expected type of a positional argument.
type argType int

const (
	argKey argType = iota
	argValue
	argInt
	argTimeout
	argSide
)

// commandSpec describes one command. Argument counts exclude the command
// name; maxArgs -1 means variadic. The last entry of args repeats for
// variadic commands, and tail, when set, types the final argument.
type commandSpec struct {
	name    string
	kind    commandKind
	minArgs int
	maxArgs int
	args    []argType
	tail    *argType
}

func (s *commandSpec) argTypeAt(i, n int) argType {
	if s.tail != nil && i == n-1 {
		return *s.tail
	}
	if i < len(s.args) {
		return s.args[i]
	}
	return s.args[len(s.args)-1]
}

func typed(t argType) *argType { return &t }

var commandTable = map[string]*commandSpec{
	"PING":      {name: "ping", kind: cmdPing, minArgs: 0, maxArgs: 1, args: []argType{argValue}},
	"QUIT":      {name: "quit", kind: cmdQuit, minArgs: 0, maxArgs: 0},
	"MONITOR":   {name: "monitor", kind: cmdMonitor, minArgs: 0, maxArgs: 0},
	"LPUSH":     {name: "lpush", kind: cmdLPush, minArgs: 2, maxArgs: -1, args: []argType{argKey, argValue}},
	"RPUSH":     {name: "rpush", kind: cmdRPush, minArgs: 2, maxArgs: -1, args: []argType{argKey, argValue}},
	"LPUSHX":    {name: "lpushx", kind: cmdLPushX, minArgs: 2, maxArgs: -1, args: []argType{argKey, argValue}},
	"RPUSHX":    {name: "rpushx", kind: cmdRPushX, minArgs: 2, maxArgs: -1, args: []argType{argKey, argValue}},
	"LPOP":      {name: "lpop", kind: cmdLPop, minArgs: 1, maxArgs: 2, args: []argType{argKey, argInt}},
	"RPOP":      {name: "rpop", kind: cmdRPop, minArgs: 1, maxArgs: 2, args: []argType{argKey, argInt}},
	"BLPOP":     {name: "blpop", kind: cmdBLPop, minArgs: 2, maxArgs: -1, args: []argType{argKey}, tail: typed(argTimeout)},
	"BRPOP":     {name: "brpop", kind: cmdBRPop, minArgs: 2, maxArgs: -1, args: []argType{argKey}, tail: typed(argTimeout)},
	"LLEN":      {name: "llen", kind: cmdLLen, minArgs: 1, maxArgs: 1, args: []argType{argKey}},
	"LRANGE":    {name: "lrange", kind: cmdLRange, minArgs: 3, maxArgs: 3, args: []argType{argKey, argInt, argInt}},
	"LINDEX":    {name: "lindex", kind: cmdLIndex, minArgs: 2, maxArgs: 2, args: []argType{argKey, argInt}},
	"LSET":      {name: "lset", kind: cmdLSet, minArgs: 3, maxArgs: 3, args: []argType{argKey, argInt, argValue}},
	"LTRIM":     {name: "ltrim", kind: cmdLTrim, minArgs: 3, maxArgs: 3, args: []argType{argKey, argInt, argInt}},
	"RPOPLPUSH": {name: "rpoplpush", kind: cmdRPopLPush, minArgs: 2, maxArgs: 2, args: []argType{argKey, argKey}},
	"LMOVE":     {name: "lmove", kind: cmdLMove, minArgs: 4, maxArgs: 4, args: []argType{argKey, argKey, argSide, argSide}},
}

// request is a validated command with its typed arguments in order of
// appearance.
type request struct {
	spec    *commandSpec
	args    [][]byte
	ints    []int64
	sides   []domain.Side
	timeout time.Duration
}

func lookupCommand(name []byte) (*commandSpec, bool) {
	spec, ok := commandTable[normalizeCommandName(name)]
	return spec, ok
}

// validate checks arity, then argument types. It never touches storage.
func validate(spec *commandSpec, args [][]byte) (*request, error) {
	n := len(args)
	if n < spec.minArgs || (spec.maxArgs >= 0 && n > spec.maxArgs) {
		return nil, domain.ErrWrongArity.WithDetails(spec.name)
	}

	req := &request{spec: spec, args: args}
	for i, a := range args {
		switch spec.argTypeAt(i, n) {
		case argInt:
			v, err := strconv.ParseInt(string(a), 10, 64)
			if err != nil {
				return nil, domain.ErrNotInteger
			}
			req.ints = append(req.ints, v)
		case argTimeout:
			d, err := parseTimeout(a)
			if err != nil {
				return nil, err
			}
			req.timeout = d
		case argSide:
			side, ok := domain.ParseSide(string(a))
			if !ok {
				return nil, domain.ErrSyntax
			}
			req.sides = append(req.sides, side)
		}
	}
	return req, nil
}

// parseTimeout parses a blocking timeout in (fractional) seconds. Zero
// means wait forever.
func parseTimeout(b []byte) (time.Duration, error) {
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, domain.ErrInvalidTimeout
	}
	if f < 0 {
		return 0, domain.ErrNegativeTimeout
	}
	if f > float64(math.MaxInt64)/float64(time.Second) {
		return 0, domain.ErrInvalidTimeout
	}
	return time.Duration(f * float64(time.Second)), nil
}

// action tells the connection loop what to do after a reply.
type action int

const (
	actionContinue action = iota
	actionClose
	actionMonitor
)

// errClientGone marks a command abandoned because the client disconnected
// or the server is shutting down.
var errClientGone = errors.New("redisserver: client gone")

// CommandHandler validates and executes commands for a connection.
type CommandHandler struct {
	svc     *service.ListService
	monitor *service.Broadcaster
	limiter *service.RateLimiterRegistry
	metrics *metric.Registry
	logger  *slog.Logger
	now     func() time.Time
}

// NewCommandHandler creates a new CommandHandler. limiter and metrics may
// be nil.
func NewCommandHandler(svc *service.ListService, monitor *service.Broadcaster, limiter *service.RateLimiterRegistry, metrics *metric.Registry, logger *slog.Logger) *CommandHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if monitor == nil {
		monitor = service.NewBroadcaster(0, logger)
	}
	return &CommandHandler{
		svc:     svc,
		monitor: monitor,
		limiter: limiter,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Handle runs one command and writes its reply to the connection buffer.
// The caller flushes.
func (h *CommandHandler) Handle(ctx context.Context, c *Conn, args [][]byte) action {
	if len(args) == 0 {
		_ = WriteError(c.bw, "ERR no command")
		return actionContinue
	}

	// MONITOR itself is not echoed to monitors, as in redis.
	if normalizeCommandName(args[0]) != "MONITOR" {
		h.monitor.Publish(domain.MonitorRecord{
			Time:       h.now(),
			ClientAddr: c.Addr(),
			Args:       args,
		})
	}

	if !h.limiter.Allow(c.Host()) {
		h.metrics.IncRateLimited()
		_ = WriteError(c.bw, "ERR "+domain.ErrRateLimited.Message)
		return actionContinue
	}

	spec, ok := lookupCommand(args[0])
	if !ok {
		h.metrics.ObserveCommand("unknown", metric.StatusError, 0)
		logger.L(ctx).Debug("unknown command", "name", logger.Preview(string(args[0])))
		_ = WriteError(c.bw, "ERR unknown command '"+string(args[0])+"'")
		return actionContinue
	}

	start := time.Now()
	req, err := validate(spec, args[1:])
	if err != nil {
		h.metrics.ObserveCommand(spec.name, metric.StatusError, time.Since(start))
		_ = WriteError(c.bw, h.errorReply(c, spec, err))
		return actionContinue
	}

	logger.L(ctx).Debug("command",
		"command", spec.name,
		"args", len(req.args),
	)

	act, status, err := h.dispatch(ctx, c, req)
	switch {
	case errors.Is(err, errClientGone):
		h.metrics.ObserveCommand(spec.name, metric.StatusError, time.Since(start))
		return actionClose
	case err != nil:
		status = metric.StatusError
		_ = WriteError(c.bw, h.errorReply(c, spec, err))
	}
	h.metrics.ObserveCommand(spec.name, status, time.Since(start))
	return act
}

func (h *CommandHandler) dispatch(ctx context.Context, c *Conn, req *request) (action, string, error) {
	var (
		status = metric.StatusOK
		err    error
	)

	switch req.spec.kind {
	case cmdPing:
		if len(req.args) == 1 {
			err = WriteBulk(c.bw, req.args[0])
		} else {
			err = WriteSimpleString(c.bw, "PONG")
		}
		return actionContinue, status, err
	case cmdQuit:
		return actionClose, status, WriteSimpleString(c.bw, "OK")
	case cmdMonitor:
		return actionMonitor, status, WriteSimpleString(c.bw, "OK")
	case cmdLPush, cmdRPush, cmdLPushX, cmdRPushX:
		err = h.push(ctx, c, req)
	case cmdLPop, cmdRPop:
		status, err = h.pop(ctx, c, req)
	case cmdBLPop, cmdBRPop:
		status, err = h.blockingPop(ctx, c, req)
	case cmdLLen:
		var n int64
		if n, err = h.svc.Len(ctx, req.args[0]); err == nil {
			err = WriteInteger(c.bw, n)
		}
	case cmdLRange:
		var items [][]byte
		if items, err = h.svc.Range(ctx, req.args[0], req.ints[0], req.ints[1]); err == nil {
			err = WriteBulkArray(c.bw, items)
		}
	case cmdLIndex:
		var (
			v     []byte
			found bool
		)
		if v, found, err = h.svc.Index(ctx, req.args[0], req.ints[0]); err == nil {
			status, err = writeElement(c, v, found)
		}
	case cmdLSet:
		if err = h.svc.Set(ctx, req.args[0], req.ints[0], req.args[2]); err == nil {
			err = WriteSimpleString(c.bw, "OK")
		}
	case cmdLTrim:
		if err = h.svc.Trim(ctx, req.args[0], req.ints[0], req.ints[1]); err == nil {
			err = WriteSimpleString(c.bw, "OK")
		}
	case cmdRPopLPush:
		status, err = h.move(ctx, c, req.args[0], req.args[1], domain.Right, domain.Left)
	case cmdLMove:
		status, err = h.move(ctx, c, req.args[0], req.args[1], req.sides[0], req.sides[1])
	}
	return actionContinue, status, err
}

func (h *CommandHandler) push(ctx context.Context, c *Conn, req *request) error {
	side := domain.Left
	if req.spec.kind == cmdRPush || req.spec.kind == cmdRPushX {
		side = domain.Right
	}
	onlyIfExists := req.spec.kind == cmdLPushX || req.spec.kind == cmdRPushX

	n, err := h.svc.Push(ctx, req.args[0], side, req.args[1:], onlyIfExists)
	if onlyIfExists && errors.Is(err, domain.ErrNoSuchKey) {
		return WriteInteger(c.bw, 0)
	}
	if err != nil {
		return err
	}
	return WriteInteger(c.bw, n)
}

func (h *CommandHandler) pop(ctx context.Context, c *Conn, req *request) (string, error) {
	side := domain.Left
	if req.spec.kind == cmdRPop {
		side = domain.Right
	}
	key := req.args[0]

	if len(req.ints) == 0 {
		vals, err := h.svc.Pop(ctx, key, side, 1)
		if err != nil {
			return "", err
		}
		if len(vals) == 0 {
			return writeElement(c, nil, false)
		}
		return writeElement(c, vals[0], true)
	}

	count := req.ints[0]
	if count < 0 {
		return "", domain.ErrNotInteger
	}
	if count == 0 {
		n, err := h.svc.Len(ctx, key)
		if err != nil {
			return "", err
		}
		if n == 0 {
			return metric.StatusNull, WriteNullArray(c.bw)
		}
		return metric.StatusOK, WriteArrayHeader(c.bw, 0)
	}

	vals, err := h.svc.Pop(ctx, key, side, count)
	if err != nil {
		return "", err
	}
	if len(vals) == 0 {
		return metric.StatusNull, WriteNullArray(c.bw)
	}
	return metric.StatusOK, WriteBulkArray(c.bw, vals)
}

// blockingPop suspends the connection until an element arrives, the
// timeout elapses or the client disconnects.
func (h *CommandHandler) blockingPop(ctx context.Context, c *Conn, req *request) (string, error) {
	side := domain.Left
	if req.spec.kind == cmdBRPop {
		side = domain.Right
	}
	keys := req.args[:len(req.args)-1]

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := c.watchClose(cancel)
	res, err := h.svc.BlockingPop(ctx, c.ID, keys, side, req.timeout)
	stop()

	switch {
	case errors.Is(err, domain.ErrTimeout):
		c.refreshWriteDeadline()
		return metric.StatusNull, WriteNullArray(c.bw)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.L(ctx).Debug("blocked client went away")
		return "", errClientGone
	case err != nil:
		return "", err
	}

	c.refreshWriteDeadline()
	if err := WriteArrayHeader(c.bw, 2); err != nil {
		return "", err
	}
	if err := WriteBulk(c.bw, res.Key); err != nil {
		return "", err
	}
	status, err := writeElement(c, res.Value, true)
	if err != nil {
		return "", err
	}
	// The element is already removed from storage; a failed delivery loses it.
	if err := c.flush(); err != nil {
		logger.L(ctx).Debug("popped element not delivered",
			"key", logger.Preview(string(res.Key)),
			"value", res.Value,
			"error", err)
		return "", errClientGone
	}
	return status, nil
}

func (h *CommandHandler) move(ctx context.Context, c *Conn, src, dst []byte, srcSide, dstSide domain.Side) (string, error) {
	v, moved, err := h.svc.Move(ctx, src, dst, srcSide, dstSide)
	if err != nil {
		return "", err
	}
	return writeElement(c, v, moved)
}

// writeElement writes a list element, or a null bulk when there is none.
// Elements are never nil on the wire; an empty element is an empty bulk.
func writeElement(c *Conn, v []byte, found bool) (string, error) {
	if !found {
		return metric.StatusNull, WriteNullBulk(c.bw)
	}
	if v == nil {
		v = []byte{}
	}
	return metric.StatusOK, WriteBulk(c.bw, v)
}

// errorReply renders err as a RESP error line. Storage failures are logged
// with their cause and answered generically.
func (h *CommandHandler) errorReply(c *Conn, spec *commandSpec, err error) string {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		h.logger.Error("command failed",
			"client_id", c.ID,
			"command", spec.name,
			"error", err,
		)
		return "ERR internal error"
	}

	switch {
	case errors.Is(err, domain.ErrWrongArity):
		return "ERR wrong number of arguments for '" + spec.name + "' command"
	case errors.Is(err, domain.ErrWrongType):
		return "WRONGTYPE " + domain.ErrWrongType.Message
	case errors.Is(err, domain.ErrStorageIO),
		errors.Is(err, domain.ErrClosed),
		errors.Is(err, domain.ErrIncompatibleSchema):
		h.metrics.IncStorageErrors()
		h.logger.Error("storage error",
			"client_id", c.ID,
			"command", spec.name,
			"error", err,
		)
		return "ERR " + domain.ErrStorageIO.Message
	}
	return "ERR " + de.Message
}

// CommandNames returns the supported command names in sorted order.
func CommandNames() []string {
	names := make([]string, 0, len(commandTable))
	for name := range commandTable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
