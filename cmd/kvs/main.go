// Command kvs is the CLI entry point for the key-value store: it
// forwards get/set/rm subcommands to the storage engine and nothing
// more — argument parsing and exit codes live in internal/cli, not in
// the engine.
package main

import (
	"log/slog"
	"os"

	"github.com/rishiag/kvs/internal/cli"
	"github.com/rishiag/kvs/internal/config"
	"github.com/rishiag/kvs/internal/engine"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	code := cli.Run(os.Args[1:], openEngine, os.Stdout, os.Stderr)
	os.Exit(code)
}

func openEngine(dir string) (cli.Engine, error) {
	cfg, err := config.Load("config.yml", dir)
	if err != nil {
		return nil, err
	}
	return engine.Open(cfg.DataDir, engine.WithCompactionThreshold(cfg.CompactionThreshold))
}
