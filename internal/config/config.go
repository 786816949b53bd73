// Package config loads the handful of knobs the store leaves open:
// where the data directory lives and how large the log's uncompacted
// tail may grow before a compaction runs. Values come from an optional
// .env file, an optional config.yml in the working directory, and finally
// built-in defaults — unlike a server process, the kvs CLI must work
// against a bare, unconfigured data directory.
package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// DefaultCompactionThreshold is the uncompacted-byte bound past which
// Set/Remove trigger a compaction, per the store's byte-count policy.
const DefaultCompactionThreshold uint64 = 1024 * 1024 // 1 MiB

// DefaultDataDir is used when neither an argument nor config file names
// a data directory.
const DefaultDataDir = "."

// Config holds the store's runtime configuration.
type Config struct {
	DataDir              string `yaml:"data_dir"`
	CompactionThreshold  uint64 `yaml:"compaction_threshold"`
}

// fileConfig mirrors Config's YAML shape but leaves fields unset
// (zero-valued) when absent from config.yml, so Load can tell "not
// specified" from "specified as zero".
type fileConfig struct {
	DataDir             string `yaml:"data_dir"`
	CompactionThreshold uint64 `yaml:"compaction_threshold"`
}

// Load builds a Config by layering, from lowest to highest precedence:
// built-in defaults, then config.yml (if present) with environment
// variables expanded, then an explicit override for the data directory
// (typically the CLI's positional path argument). A missing .env or
// config.yml is not an error; a malformed config.yml is.
func Load(configPath string, dataDirOverride string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("config: no .env file found or failed to load it", "error", err)
	}

	cfg := &Config{
		DataDir:             DefaultDataDir,
		CompactionThreshold: DefaultCompactionThreshold,
	}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			if os.IsNotExist(err) {
				slog.Debug("config: no config file found, using defaults", "path", configPath)
			} else {
				return nil, err
			}
		} else {
			var fc fileConfig
			if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &fc); err != nil {
				return nil, err
			}
			if fc.DataDir != "" {
				cfg.DataDir = fc.DataDir
			}
			if fc.CompactionThreshold != 0 {
				cfg.CompactionThreshold = fc.CompactionThreshold
			}
		}
	}

	if dataDirOverride != "" {
		cfg.DataDir = dataDirOverride
	}

	return cfg, nil
}
