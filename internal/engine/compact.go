package engine

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rishiag/kvs/internal/index"
	"github.com/rishiag/kvs/internal/kvlog"
)

// compact rewrites the log to contain only the live records named by
// the index, copying each record's bytes verbatim (never
// re-serializing) so every index entry's length continues to match the
// bytes at its new offset exactly. The new log is swapped in with an
// atomic rename.
func (e *Engine) compact() error {
	newPath := filepath.Join(e.dir, compactingLogFileName)
	if err := os.Remove(newPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("compact: clear stale %s: %w", compactingLogFileName, err)
	}
	newWriter, err := kvlog.NewWriter(newPath)
	if err != nil {
		return fmt.Errorf("compact: open %s: %w", compactingLogFileName, err)
	}

	keys := e.index.SortedKeys()
	updates := make(map[string]index.Pos, len(keys))
	for _, key := range keys {
		pos, ok := e.index.Get(key)
		if !ok {
			continue // deleted concurrently with the snapshot; impossible under single-goroutine use, but safe to skip.
		}

		data, err := e.reader.ReadAt(pos.Offset, pos.Length)
		if err != nil {
			newWriter.Close()
			return fmt.Errorf("compact: read %q at %d: %w", key, pos.Offset, err)
		}

		start := newWriter.Position()
		if _, err := newWriter.Write(data); err != nil {
			newWriter.Close()
			return fmt.Errorf("compact: write %q: %w", key, err)
		}

		updates[key] = index.Pos{Offset: start, Length: pos.Length}
	}

	if err := newWriter.Flush(); err != nil {
		newWriter.Close()
		return fmt.Errorf("compact: flush: %w", err)
	}
	if err := newWriter.Close(); err != nil {
		return fmt.Errorf("compact: close new log: %w", err)
	}

	oldPath := filepath.Join(e.dir, LogFileName)
	if err := os.Rename(newPath, oldPath); err != nil {
		return fmt.Errorf("compact: rename %s over %s: %w", compactingLogFileName, LogFileName, err)
	}

	if err := e.reopenLog(); err != nil {
		return fmt.Errorf("compact: reopen log: %w", err)
	}

	for key, pos := range updates {
		e.index.Put(key, pos)
	}
	e.uncompacted = 0

	e.log.Info("compact: finished", "keys", len(updates))
	return nil
}

// reopenLog closes and reopens both handles against the (now renamed)
// log file, since the writer and reader must track a fresh *os.File
// after the atomic swap rather than the file descriptor that used to
// point at kvs.log.
func (e *Engine) reopenLog() error {
	if err := e.writer.Close(); err != nil {
		return err
	}
	if err := e.reader.Close(); err != nil {
		return err
	}

	logPath := filepath.Join(e.dir, LogFileName)
	writer, err := kvlog.NewWriter(logPath)
	if err != nil {
		return err
	}
	reader, err := kvlog.NewReader(logPath)
	if err != nil {
		writer.Close()
		return err
	}

	e.writer = writer
	e.reader = reader
	return nil
}
