package repl

import (
	"sort"
	"strings"
)

// Completer completes command names.
type Completer struct {
	commands []string
}

// NewCompleter creates a Completer for the given command names plus the
// REPL's own commands.
func NewCompleter(commands []string) *Completer {
	all := append([]string{"HELP", "EXIT", "CLEAR", "HISTORY"}, commands...)
	for i, c := range all {
		all[i] = strings.ToUpper(c)
	}
	sort.Strings(all)
	return &Completer{commands: all}
}

// Complete returns the commands starting with prefix, ignoring case.
func (c *Completer) Complete(prefix string) []string {
	prefix = strings.ToUpper(prefix)
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}

// Commands returns every known command name.
func (c *Completer) Commands() []string {
	return c.commands
}
