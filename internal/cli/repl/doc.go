// Package repl provides the interactive mode of blueis-cli.
//
// Each input line is split into arguments with redis-cli quoting rules and
// handed to an executor. "help" lists the server commands, a line ending
// in a tab lists completions for its last word, and "exit" or "quit" leave
// the loop. Entered lines are kept in a history file.
package repl
