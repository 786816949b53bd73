package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/rishiag/kvs/internal/index"
)

func mustOpen(t *testing.T, dir string, opts ...Option) *Engine {
	t.Helper()
	e, err := Open(dir, opts...)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return e
}

// S1
func TestScenario_IndependentKeys(t *testing.T) {
	dir := t.TempDir()
	e := mustOpen(t, dir)
	defer e.Close()

	if err := e.Set("key1", "value1"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := e.Set("key2", "value2"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	v, ok, err := e.Get("key1")
	if err != nil || !ok || v != "value1" {
		t.Errorf("Get(key1) = (%q, %v, %v), want (value1, true, nil)", v, ok, err)
	}
	v, ok, err = e.Get("key2")
	if err != nil || !ok || v != "value2" {
		t.Errorf("Get(key2) = (%q, %v, %v), want (value2, true, nil)", v, ok, err)
	}
}

// S2
func TestScenario_Overwrite(t *testing.T) {
	dir := t.TempDir()
	e := mustOpen(t, dir)
	defer e.Close()

	e.Set("key1", "value1")
	e.Set("key1", "value2")

	v, ok, err := e.Get("key1")
	if err != nil || !ok || v != "value2" {
		t.Errorf("Get(key1) = (%q, %v, %v), want (value2, true, nil)", v, ok, err)
	}
}

// S3
func TestScenario_GetMissing(t *testing.T) {
	dir := t.TempDir()
	e := mustOpen(t, dir)
	defer e.Close()

	_, ok, err := e.Get("missing")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Get(missing) ok = true, want false")
	}
}

// S4
func TestScenario_RemoveThenGetThenRemoveAgain(t *testing.T) {
	dir := t.TempDir()
	e := mustOpen(t, dir)
	defer e.Close()

	e.Set("key1", "value1")
	if err := e.Remove("key1"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	_, ok, err := e.Get("key1")
	if err != nil || ok {
		t.Errorf("Get() after Remove() = (ok=%v, err=%v), want (false, nil)", ok, err)
	}

	err = e.Remove("key1")
	var notFound *KeyNotFoundError
	if err == nil {
		t.Fatal("Remove() on already-removed key returned nil, want *KeyNotFoundError")
	}
	if !isKeyNotFoundError(err, &notFound) {
		t.Errorf("Remove() error = %v, want *KeyNotFoundError", err)
	}
}

func TestRemove_AbsentKeyDoesNotTouchLog(t *testing.T) {
	dir := t.TempDir()
	e := mustOpen(t, dir)
	defer e.Close()

	logPath := filepath.Join(dir, LogFileName)
	before, err := os.Stat(logPath)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}

	err = e.Remove("missing")
	var notFound *KeyNotFoundError
	if !isKeyNotFoundError(err, &notFound) {
		t.Fatalf("Remove() error = %v, want *KeyNotFoundError", err)
	}

	after, err := os.Stat(logPath)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if before.Size() != after.Size() {
		t.Errorf("log size changed from %d to %d after Remove() on absent key", before.Size(), after.Size())
	}
}

// S5
func TestScenario_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	e := mustOpen(t, dir)
	if err := e.Set("k", "v"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	e2 := mustOpen(t, dir)
	defer e2.Close()

	v, ok, err := e2.Get("k")
	if err != nil || !ok || v != "v" {
		t.Errorf("Get(k) after reopen = (%q, %v, %v), want (v, true, nil)", v, ok, err)
	}
}

// S6, scaled down for test speed: many overwrites of the same key keep
// the log bounded by the compaction threshold rather than growing with
// the number of writes.
func TestCompactionBound_LogSizeIndependentOfWriteCount(t *testing.T) {
	dir := t.TempDir()
	threshold := uint64(4096)
	e := mustOpen(t, dir, WithCompactionThreshold(threshold))
	defer e.Close()

	value := strings.Repeat("x", 128)
	for i := 0; i < 500; i++ {
		if err := e.Set("hot-key", value); err != nil {
			t.Fatalf("Set() #%d error = %v", i, err)
		}
	}

	v, ok, err := e.Get("hot-key")
	if err != nil || !ok || v != value {
		t.Fatalf("Get(hot-key) = (ok=%v, err=%v), want final value present", ok, err)
	}

	info, err := os.Stat(filepath.Join(dir, LogFileName))
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	maxExpected := int64(threshold) * 4
	if info.Size() > maxExpected {
		t.Errorf("log size = %d, want <= %d (threshold-bounded)", info.Size(), maxExpected)
	}
}

func TestCompaction_PreservesMappingAndResetsUncompacted(t *testing.T) {
	dir := t.TempDir()
	e := mustOpen(t, dir, WithCompactionThreshold(256))
	defer e.Close()

	want := map[string]string{}
	for i := 0; i < 50; i++ {
		key := keyN(i)
		val := keyN(i) + "-value"
		want[key] = val
		if err := e.Set(key, val); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
	}
	// Overwrite every other key to generate uncompacted bytes, then
	// force a compaction explicitly.
	for i := 0; i < 50; i += 2 {
		key := keyN(i)
		val := keyN(i) + "-value2"
		want[key] = val
		if err := e.Set(key, val); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
	}

	if err := e.compact(); err != nil {
		t.Fatalf("compact() error = %v", err)
	}

	if e.Uncompacted() != 0 {
		t.Errorf("Uncompacted() = %d, want 0 after compaction", e.Uncompacted())
	}

	for key, val := range want {
		got, ok, err := e.Get(key)
		if err != nil || !ok || got != val {
			t.Errorf("Get(%q) = (%q, %v, %v), want (%q, true, nil)", key, got, ok, err, val)
		}
	}
}

// Property 8: the index obtained by replay equals the index held in
// memory at the moment of the last successful write.
func TestReplayFidelity(t *testing.T) {
	dir := t.TempDir()
	e := mustOpen(t, dir)

	e.Set("a", "1")
	e.Set("b", "2")
	e.Set("a", "3")
	e.Remove("b")
	e.Set("c", "4")

	wantSnapshot := e.index.Snapshot()
	if err := e.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	e2 := mustOpen(t, dir)
	defer e2.Close()

	gotSnapshot := e2.index.Snapshot()
	if diff := cmp.Diff(wantSnapshot, gotSnapshot); diff != "" {
		t.Errorf("replayed index mismatch (-want +got):\n%s", diff)
	}
}

func TestReplay_CorruptLogFailsOpen(t *testing.T) {
	dir := t.TempDir()
	e := mustOpen(t, dir)
	e.Set("key1", "value1")
	if err := e.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	logPath := filepath.Join(dir, LogFileName)
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	// Truncate mid-record to simulate a crash during a write.
	truncated := data[:len(data)-2]
	if err := os.WriteFile(logPath, truncated, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	_, err = Open(dir)
	if err == nil {
		t.Fatal("Open() on truncated log returned nil error, want a replay failure")
	}
}

func TestGet_UnexpectedCommandTypeOnIndexDivergence(t *testing.T) {
	dir := t.TempDir()
	e := mustOpen(t, dir)
	defer e.Close()

	e.Set("key1", "value1")
	removeOff := e.writer.Position()
	// Simulate index corruption: point "key1" at a Remove record.
	e.Remove("key1")
	e.index.Put("key1", index.Pos{Offset: removeOff, Length: e.writer.Position() - removeOff})

	_, _, err := e.Get("key1")
	if !errors.Is(err, ErrUnexpectedCommandType) {
		t.Fatalf("Get() error = %v, want ErrUnexpectedCommandType", err)
	}
}

func isKeyNotFoundError(err error, target **KeyNotFoundError) bool {
	if e, ok := err.(*KeyNotFoundError); ok {
		*target = e
		return true
	}
	return false
}

func keyN(i int) string {
	return fmt.Sprintf("key-%04d", i)
}
