// Package cli implements the kvs command-line contract: get/set/rm
// against a data directory, with the exit codes and messages spec.md
// §6 requires. It is a thin forwarding layer — all it does is parse
// arguments and translate engine results into process behavior.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/rishiag/kvs/internal/engine"
)

// keyNotFoundMessage is printed for a Get on an absent key (exit 0)
// and for a Remove on an absent key (exit 1).
const keyNotFoundMessage = "Key not found"

// Engine is the subset of engine.Engine the CLI depends on, so tests
// can substitute a fake without touching the filesystem.
type Engine interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// Opener constructs an Engine rooted at dir; production code passes a
// function that loads config and calls engine.Open, tests pass a fake.
type Opener func(dir string) (Engine, error)

// Run parses args (excluding the program name) and executes the named
// subcommand. It returns the process exit code; stdout/stderr are
// written to the given writers.
func Run(args []string, open Opener, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("kvs", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	rest := fs.Args()
	if len(rest) == 0 {
		fmt.Fprintln(stderr, "usage: kvs [path] <get|set|rm> ...")
		return 2
	}

	path := "."
	if !isSubcommand(rest[0]) {
		path = rest[0]
		rest = rest[1:]
	}
	if len(rest) == 0 {
		fmt.Fprintln(stderr, "usage: kvs [path] <get|set|rm> ...")
		return 2
	}

	e, err := open(path)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if closer, ok := e.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	switch rest[0] {
	case "get":
		return runGet(e, rest[1:], stdout, stderr)
	case "set":
		return runSet(e, rest[1:], stdout, stderr)
	case "rm":
		return runRemove(e, rest[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", rest[0])
		return 2
	}
}

func isSubcommand(s string) bool {
	switch s {
	case "get", "set", "rm":
		return true
	default:
		return false
	}
}

func runGet(e Engine, args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "usage: kvs get <key>")
		return 2
	}
	value, ok, err := e.Get(args[0])
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if !ok {
		fmt.Fprintln(stdout, keyNotFoundMessage)
		return 0
	}
	fmt.Fprintln(stdout, value)
	return 0
}

func runSet(e Engine, args []string, stdout, stderr io.Writer) int {
	if len(args) != 2 {
		fmt.Fprintln(stderr, "usage: kvs set <key> <value>")
		return 2
	}
	if err := e.Set(args[0], args[1]); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

func runRemove(e Engine, args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "usage: kvs rm <key>")
		return 2
	}
	err := e.Remove(args[0])
	if err == nil {
		return 0
	}
	var notFound *engine.KeyNotFoundError
	if errors.As(err, &notFound) {
		fmt.Fprintln(stdout, keyNotFoundMessage)
		return 1
	}
	fmt.Fprintln(stderr, err)
	return 1
}
