// Package engine implements the log-structured storage engine: an
// append-only command log, an in-memory key→location index rebuilt by
// replay on open, and an online compactor that reclaims space occupied
// by superseded records.
//
// An Engine is not safe for concurrent use. The store is single-
// threaded by design: every public method blocks on file I/O and
// mutates the index directly, with no internal locking. Callers that
// need concurrent access must serialize it themselves.
package engine

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rishiag/kvs/internal/command"
	"github.com/rishiag/kvs/internal/index"
	"github.com/rishiag/kvs/internal/kvlog"
)

// LogFileName is the name of the primary, authoritative log file
// inside the data directory.
const LogFileName = "kvs.log"

// compactingLogFileName is the transient file a compaction writes to
// before it is renamed over LogFileName.
const compactingLogFileName = "new.log"

// DefaultCompactionThreshold is the uncompacted-byte bound past which a
// successful write triggers a compaction.
const DefaultCompactionThreshold uint64 = 1024 * 1024 // 1 MiB

// ErrKeyNotFound is returned by nothing directly — Get reports absence
// via its boolean return — but is exposed for callers that want a
// sentinel to compare against when wrapping Get in their own API.
var ErrKeyNotFound = errors.New("kvs: key not found")

// ErrUnexpectedCommandType indicates the index pointed at a log offset
// that does not hold a Set record: either a corrupted log or a bug in
// the engine itself.
var ErrUnexpectedCommandType = errors.New("kvs: unexpected command type at indexed offset")

// KeyNotFoundError is returned by Remove when the key is not present.
type KeyNotFoundError struct {
	Key string
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("kvs: no such key: %q", e.Key)
}

// Option configures an Engine at Open time.
type Option func(*Engine)

// WithCompactionThreshold overrides the default 1 MiB uncompacted-byte
// compaction trigger.
func WithCompactionThreshold(n uint64) Option {
	return func(e *Engine) { e.compactionThreshold = n }
}

// WithLogger overrides the default slog.Default() logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// Engine is a single data directory's key-value store: one writer, one
// reader, and the in-memory index built from replaying the log between
// them.
type Engine struct {
	dir    string
	writer *kvlog.Writer
	reader *kvlog.Reader
	index  *index.Index

	uncompacted         uint64
	compactionThreshold uint64
	log                 *slog.Logger
}

// Open creates dir if it does not exist, opens (or creates) dir/kvs.log,
// replays it to rebuild the index, and returns a ready Engine positioned
// for appends at the end of the log.
func Open(dir string, opts ...Option) (*Engine, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("engine: create data dir %s: %w", dir, err)
	}

	logPath := filepath.Join(dir, LogFileName)
	writer, err := kvlog.NewWriter(logPath)
	if err != nil {
		return nil, fmt.Errorf("engine: open log for writing: %w", err)
	}
	reader, err := kvlog.NewReader(logPath)
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("engine: open log for reading: %w", err)
	}

	e := &Engine{
		dir:                 dir,
		writer:              writer,
		reader:              reader,
		index:               index.New(),
		compactionThreshold: DefaultCompactionThreshold,
		log:                 slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	uncompacted, err := e.replay()
	if err != nil {
		writer.Close()
		reader.Close()
		return nil, fmt.Errorf("engine: replay log: %w", err)
	}
	e.uncompacted = uncompacted

	e.log.Info("engine: opened",
		"dir", dir,
		"keys", e.index.Len(),
		"uncompacted", e.uncompacted)
	return e, nil
}

// replay scans the log from offset 0 to end-of-file, rebuilding the
// index and totaling the uncompacted byte count. It fails on the first
// unreadable record rather than silently truncating a corrupt log.
func (e *Engine) replay() (uint64, error) {
	end, err := e.reader.Size()
	if err != nil {
		return 0, err
	}

	var uncompacted uint64
	var pos int64
	r := e.reader.SectionReader(0)
	for pos < end {
		cmd, n, err := command.DecodeFrom(r)
		if err != nil {
			if err == io.EOF {
				break
			}
			return 0, fmt.Errorf("replay: decode at offset %d: %w", pos, err)
		}

		switch cmd.Kind {
		case command.KindSet:
			key := string(cmd.Key)
			if old, existed := e.index.Put(key, index.Pos{Offset: pos, Length: int64(n)}); existed {
				uncompacted += uint64(old.Length)
			}
		case command.KindRemove:
			key := string(cmd.Key)
			if old, existed := e.index.Delete(key); existed {
				uncompacted += uint64(old.Length)
			} else {
				e.log.Warn("replay: remove for key absent from index", "key", key)
			}
			uncompacted += uint64(n)
		}

		pos += int64(n)
	}

	return uncompacted, nil
}

// Get returns the value for key and true, or ("", false) if key is not
// present. It returns an error only on I/O failure, decode failure, or
// index/log divergence (ErrUnexpectedCommandType).
func (e *Engine) Get(key string) (string, bool, error) {
	pos, ok := e.index.Get(key)
	if !ok {
		return "", false, nil
	}

	data, err := e.reader.ReadAt(pos.Offset, pos.Length)
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}

	cmd, _, err := command.DecodeFrom(bytes.NewReader(data))
	if err != nil {
		return "", false, fmt.Errorf("get %q: decode record: %w", key, err)
	}
	if cmd.Kind != command.KindSet {
		return "", false, fmt.Errorf("get %q: %w", key, ErrUnexpectedCommandType)
	}

	e.log.Debug("get: success", "key", key, "offset", pos.Offset, "length", pos.Length)
	return string(cmd.Value), true, nil
}

// Set stores value under key, overwriting any previous value. It
// returns once the write is flushed to the log, so a separate reader
// handle observes it immediately.
func (e *Engine) Set(key, value string) error {
	off := e.writer.Position()
	data := command.Set([]byte(key), []byte(value)).Encode()
	if _, err := e.writer.Write(data); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	if err := e.writer.Flush(); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}

	length := int64(len(data))
	if old, existed := e.index.Put(key, index.Pos{Offset: off, Length: length}); existed {
		e.uncompacted += uint64(old.Length)
	}

	e.log.Info("set: success", "key", key, "offset", off, "length", length)
	return e.maybeCompact()
}

// Remove deletes key. It fails with *KeyNotFoundError, and writes
// nothing to the log, if key is not present.
func (e *Engine) Remove(key string) error {
	old, existed := e.index.Delete(key)
	if !existed {
		return &KeyNotFoundError{Key: key}
	}

	off := e.writer.Position()
	data := command.Remove([]byte(key)).Encode()
	if _, err := e.writer.Write(data); err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	if err := e.writer.Flush(); err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}

	e.uncompacted += uint64(len(data)) + uint64(old.Length)

	e.log.Info("remove: success", "key", key, "offset", off)
	return e.maybeCompact()
}

// Uncompacted returns the current lower bound on bytes a compaction
// would reclaim.
func (e *Engine) Uncompacted() uint64 {
	return e.uncompacted
}

// Len returns the number of live keys.
func (e *Engine) Len() int {
	return e.index.Len()
}

// Close flushes and closes the underlying log handles.
func (e *Engine) Close() error {
	var errs []error
	if err := e.writer.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := e.reader.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("engine: close: %v", errs)
	}
	e.log.Info("engine: closed", "dir", e.dir)
	return nil
}

func (e *Engine) maybeCompact() error {
	if e.uncompacted <= e.compactionThreshold {
		return nil
	}
	e.log.Warn("engine: compaction threshold exceeded, compacting",
		"uncompacted", e.uncompacted,
		"threshold", e.compactionThreshold)
	return e.compact()
}
