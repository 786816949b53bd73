// Package replcli implements an interactive PUT/GET/DELETE/EXIT loop
// over the storage engine. It is not part of the spec's CLI contract —
// that is internal/cli — but is kept as a convenience entry point in
// the teacher's own interactive-shell style.
package replcli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/rishiag/kvs/internal/engine"
)

// Engine is the subset of engine.Engine the REPL depends on.
type Engine interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// Handler drives the interactive command loop against an Engine.
type Handler struct {
	engine Engine
	in     *bufio.Scanner
	out    io.Writer
}

// NewHandler builds a Handler reading commands from in and writing
// responses to out.
func NewHandler(e Engine, in io.Reader, out io.Writer) *Handler {
	return &Handler{engine: e, in: bufio.NewScanner(in), out: out}
}

// Run reads commands until EOF or an EXIT/QUIT command, returning any
// I/O error encountered reading input.
func (h *Handler) Run() error {
	fmt.Fprintln(h.out, "kvs - interactive key-value store")
	fmt.Fprintln(h.out, "Commands: PUT <key> <value>, GET <key>, DELETE <key>, EXIT")
	fmt.Fprint(h.out, "> ")

	for h.in.Scan() {
		line := strings.TrimSpace(h.in.Text())
		if line == "" {
			fmt.Fprint(h.out, "> ")
			continue
		}

		parts := strings.Fields(line)
		switch strings.ToUpper(parts[0]) {
		case "PUT":
			h.handlePut(parts)
		case "GET":
			h.handleGet(parts)
		case "DELETE":
			h.handleDelete(parts)
		case "EXIT", "QUIT":
			fmt.Fprintln(h.out, "Goodbye!")
			return nil
		default:
			fmt.Fprintf(h.out, "Unknown command: %s\n", parts[0])
		}
		fmt.Fprint(h.out, "> ")
	}

	return h.in.Err()
}

func (h *Handler) handlePut(parts []string) {
	if len(parts) < 3 {
		fmt.Fprintln(h.out, "Usage: PUT <key> <value>")
		return
	}
	key, value := parts[1], strings.Join(parts[2:], " ")
	if err := h.engine.Set(key, value); err != nil {
		slog.Error("replcli: PUT failed", "key", key, "error", err)
		fmt.Fprintf(h.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(h.out, "OK")
}

func (h *Handler) handleGet(parts []string) {
	if len(parts) < 2 {
		fmt.Fprintln(h.out, "Usage: GET <key>")
		return
	}
	value, ok, err := h.engine.Get(parts[1])
	if err != nil {
		slog.Error("replcli: GET failed", "key", parts[1], "error", err)
		fmt.Fprintf(h.out, "Error: %v\n", err)
		return
	}
	if !ok {
		fmt.Fprintln(h.out, "Key not found")
		return
	}
	fmt.Fprintln(h.out, value)
}

func (h *Handler) handleDelete(parts []string) {
	if len(parts) < 2 {
		fmt.Fprintln(h.out, "Usage: DELETE <key>")
		return
	}
	err := h.engine.Remove(parts[1])
	var notFound *engine.KeyNotFoundError
	switch {
	case err == nil:
		fmt.Fprintln(h.out, "OK")
	case errors.As(err, &notFound):
		fmt.Fprintln(h.out, "Key not found")
	default:
		slog.Error("replcli: DELETE failed", "key", parts[1], "error", err)
		fmt.Fprintf(h.out, "Error: %v\n", err)
	}
}
