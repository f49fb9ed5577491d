package store

import (
	"path/filepath"
	"testing"
	"time"

	"guildwatch/internal/presence"
)

func TestReplayGroupsByRun(t *testing.T) {
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	rows := []presence.SnapshotRow{
		{Timestamp: t0, RunID: "r0", Player: "Alice", Online: true},
		{Timestamp: t0, RunID: "r0", Player: "Bob", Online: false},
		{Timestamp: t0.Add(time.Minute), RunID: "r1", Player: "Alice", Online: false},
		{Timestamp: t0.Add(time.Minute), RunID: "r1", Player: "Bob", Online: true},
	}
	w := &recordingWriter{}
	if err := Replay(rows, w, 0); err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(w.batches) != 2 {
		t.Fatalf("expected 2 run batches, got %d", len(w.batches))
	}
	if len(w.batches[0]) != 2 || w.batches[0][0].RunID != "r0" {
		t.Fatalf("unexpected first batch: %+v", w.batches[0])
	}
	if w.batches[1][0].RunID != "r1" {
		t.Fatalf("unexpected second batch: %+v", w.batches[1])
	}
}

func TestReplayFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.csv")
	s, err := NewCSVStore(path)
	if err != nil {
		t.Fatalf("NewCSVStore: %v", err)
	}
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	if err := s.WriteBatch([]presence.SnapshotRow{{Timestamp: t0, RunID: "r0", Player: "Alice", Online: true}}); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}

	w := &recordingWriter{}
	if err := ReplayFile(path, w, 0); err != nil {
		t.Fatalf("ReplayFile: %v", err)
	}
	if len(w.batches) != 1 || w.batches[0][0].Player != "Alice" {
		t.Fatalf("unexpected replayed rows: %+v", w.batches)
	}
}
