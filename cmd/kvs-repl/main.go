// Command kvs-repl is an interactive shell over the storage engine,
// kept from the teacher's own REPL as a convenience entry point
// alongside the spec's single-shot kvs CLI.
package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/rishiag/kvs/internal/config"
	"github.com/rishiag/kvs/internal/engine"
	"github.com/rishiag/kvs/internal/replcli"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	path := "."
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	cfg, err := config.Load("config.yml", path)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	e, err := engine.Open(cfg.DataDir, engine.WithCompactionThreshold(cfg.CompactionThreshold))
	if err != nil {
		log.Fatalf("failed to open engine: %v", err)
	}
	defer func() {
		if err := e.Close(); err != nil {
			slog.Error("kvs-repl: error closing engine", "error", err)
		}
	}()

	h := replcli.NewHandler(e, os.Stdin, os.Stdout)
	if err := h.Run(); err != nil {
		log.Fatalf("repl error: %v", err)
	}
}
