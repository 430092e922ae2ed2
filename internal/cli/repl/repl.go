package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// Executor runs one command and writes its reply. A returned error is
// printed and the loop continues, unless it is io.EOF which ends the loop.
type Executor func(ctx context.Context, args []string) error

// Config configures a REPL.
type Config struct {
	Prompt      string
	Commands    []string
	HistoryFile string
	Input       io.Reader
	Output      io.Writer
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	prompt    string
	exec      Executor
	completer *Completer
	history   *History
}

// New creates a new REPL instance.
func New(cfg Config, exec Executor) *REPL {
	if cfg.Input == nil {
		cfg.Input = os.Stdin
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	if cfg.Prompt == "" {
		cfg.Prompt = "blueis> "
	}
	return &REPL{
		input:     cfg.Input,
		output:    cfg.Output,
		prompt:    cfg.Prompt,
		exec:      exec,
		completer: NewCompleter(cfg.Commands),
		history:   NewHistory(cfg.HistoryFile),
	}
}

// Run reads and executes lines until EOF, exit, or ctx is done.
func (r *REPL) Run(ctx context.Context) error {
	if err := r.history.Load(); err != nil {
		fmt.Fprintf(r.output, "warning: could not load history: %v\n", err)
	}
	defer func() {
		if err := r.history.Save(); err != nil {
			fmt.Fprintf(r.output, "warning: could not save history: %v\n", err)
		}
	}()

	reader := bufio.NewReader(r.input)
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(r.output, r.prompt)

		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		if err == io.EOF && line == "" {
			fmt.Fprintln(r.output)
			return nil
		}

		line = strings.TrimRight(line, "\r\n")
		if strings.HasSuffix(line, "\t") {
			r.complete(line)
			continue
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if !r.handle(ctx, line) {
			return nil
		}
		if err == io.EOF {
			return nil
		}
	}
}

// handle runs one line and reports whether the loop should continue.
func (r *REPL) handle(ctx context.Context, line string) bool {
	r.history.Add(line)

	args, err := SplitArgs(line)
	if err != nil {
		fmt.Fprintf(r.output, "(error) %v\n", err)
		return true
	}

	switch strings.ToLower(args[0]) {
	case "exit":
		return false
	case "help":
		r.help(args[1:])
		return true
	case "history":
		for i, e := range r.history.Entries() {
			fmt.Fprintf(r.output, "%4d  %s\n", i+1, e)
		}
		return true
	case "clear":
		fmt.Fprint(r.output, "\033[H\033[2J")
		return true
	}

	if err := r.exec(ctx, args); err != nil {
		if err == io.EOF {
			return false
		}
		fmt.Fprintf(r.output, "(error) %v\n", err)
	}
	// QUIT is sent to the server, then the session ends.
	return !strings.EqualFold(args[0], "quit")
}

func (r *REPL) complete(line string) {
	fields := strings.Fields(line)
	prefix := ""
	if len(fields) > 0 {
		prefix = fields[len(fields)-1]
	}
	matches := r.completer.Complete(prefix)
	if len(matches) == 0 {
		fmt.Fprintln(r.output, "(no completions)")
		return
	}
	fmt.Fprintln(r.output, strings.Join(matches, "  "))
}

func (r *REPL) help(topic []string) {
	if len(topic) > 0 {
		matches := r.completer.Complete(topic[0])
		if len(matches) == 0 {
			fmt.Fprintf(r.output, "unknown command %q\n", topic[0])
			return
		}
		fmt.Fprintln(r.output, strings.Join(matches, "\n"))
		return
	}
	fmt.Fprintln(r.output, "Commands:")
	for _, c := range r.completer.Commands() {
		fmt.Fprintf(r.output, "  %s\n", c)
	}
	fmt.Fprintln(r.output, "End a line with TAB to list completions.")
}
