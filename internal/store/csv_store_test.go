package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"guildwatch/internal/presence"
)

func run(t time.Time, id string, online map[string]bool) []presence.SnapshotRow {
	rows := make([]presence.SnapshotRow, 0, len(online))
	for _, name := range []string{"Alice", "Bob"} {
		rows = append(rows, presence.SnapshotRow{Timestamp: t, RunID: id, Player: name, Online: online[name]})
	}
	return rows
}

func TestCSVStoreAppendAndRead(t *testing.T) {
	dir := t.TempDir()
	s, err := NewCSVStore(filepath.Join(dir, "data", "history.csv"))
	if err != nil {
		t.Fatalf("NewCSVStore: %v", err)
	}

	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	ll := t0.Add(-2 * time.Hour)
	first := run(t0, "r0", map[string]bool{"Alice": true})
	first[0].LastLogin = &ll
	if err := s.WriteBatch(first); err != nil {
		t.Fatalf("first WriteBatch: %v", err)
	}
	if err := s.WriteBatch(run(t0.Add(15*time.Minute), "r1", map[string]bool{"Bob": true})); err != nil {
		t.Fatalf("second WriteBatch: %v", err)
	}

	rows, err := s.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows after 2 runs, got %d", len(rows))
	}
	if rows[0].Player != "Alice" || !rows[0].Online {
		t.Errorf("unexpected first row: %+v", rows[0])
	}
	if rows[0].LastLogin == nil || !rows[0].LastLogin.Equal(ll) {
		t.Errorf("last login not round-tripped: %+v", rows[0].LastLogin)
	}
	if rows[1].LastLogin != nil {
		t.Errorf("expected nil last login for Bob, got %v", rows[1].LastLogin)
	}
	if !rows[2].Timestamp.After(rows[0].Timestamp) {
		t.Error("rows not in insertion order")
	}

	// Header must be written exactly once.
	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if n := strings.Count(string(data), "timestamp,run_id,player,online,last_login"); n != 1 {
		t.Errorf("expected exactly one header line, found %d", n)
	}
}

// shortWriteFile persists only capacity bytes of each write before failing,
// the way a full disk tears a buffered append partway through.
type shortWriteFile struct {
	buf      []byte
	capacity int
}

func (f *shortWriteFile) Write(p []byte) (int, error) {
	room := f.capacity - len(f.buf)
	if len(p) <= room {
		f.buf = append(f.buf, p...)
		return len(p), nil
	}
	f.buf = append(f.buf, p[:room]...)
	return room, errors.New("no space left on device")
}

func (f *shortWriteFile) Truncate(size int64) error {
	f.buf = f.buf[:size]
	return nil
}

func TestAppendBatchRollsBackShortWrite(t *testing.T) {
	prior := []byte("timestamp,run_id,player,online,last_login\n2026-08-01T12:00:00Z,r0,Alice,true,\n")
	f := &shortWriteFile{buf: append([]byte(nil), prior...), capacity: len(prior) + 120}

	var batch []byte
	for i := 0; i < 400; i++ {
		batch = append(batch, []byte("2026-08-01T12:15:00Z,r1,Alice,false,\n")...)
	}
	if err := appendBatch(f, int64(len(prior)), batch); err == nil {
		t.Fatal("expected write error from full file")
	}
	if string(f.buf) != string(prior) {
		t.Fatalf("partial run persisted: file grew from %d to %d bytes", len(prior), len(f.buf))
	}
}

func TestCSVStoreLargeBatchWholeRun(t *testing.T) {
	s, err := NewCSVStore(filepath.Join(t.TempDir(), "history.csv"))
	if err != nil {
		t.Fatalf("NewCSVStore: %v", err)
	}

	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	batch := make([]presence.SnapshotRow, 0, 400)
	for i := 0; i < 400; i++ {
		batch = append(batch, presence.SnapshotRow{
			Timestamp: t0,
			RunID:     "r0",
			Player:    fmt.Sprintf("Player %03d", i),
			Online:    i%2 == 0,
		})
	}
	if err := s.WriteBatch(batch); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}

	rows, err := s.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(rows) != len(batch) {
		t.Fatalf("expected %d rows, got %d", len(batch), len(rows))
	}
}

func TestCSVStoreReadMissingFile(t *testing.T) {
	s, err := NewCSVStore(filepath.Join(t.TempDir(), "history.csv"))
	if err != nil {
		t.Fatalf("NewCSVStore: %v", err)
	}
	rows, err := s.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll on missing file: %v", err)
	}
	if rows != nil {
		t.Fatalf("expected empty history, got %d rows", len(rows))
	}
}

func TestCSVStoreEmptyBatchIsNoop(t *testing.T) {
	s, err := NewCSVStore(filepath.Join(t.TempDir(), "history.csv"))
	if err != nil {
		t.Fatalf("NewCSVStore: %v", err)
	}
	if err := s.WriteBatch(nil); err != nil {
		t.Fatalf("WriteBatch(nil): %v", err)
	}
	if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
		t.Error("empty batch should not create the file")
	}
}
