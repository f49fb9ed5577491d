package store

import (
	"errors"
	"testing"
	"time"

	"guildwatch/internal/presence"
)

type recordingWriter struct {
	batches [][]presence.SnapshotRow
	err     error
	closed  bool
}

func (w *recordingWriter) WriteBatch(rows []presence.SnapshotRow) error {
	if w.err != nil {
		return w.err
	}
	w.batches = append(w.batches, rows)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestMultiWriterFanOut(t *testing.T) {
	a := &recordingWriter{}
	b := &recordingWriter{}
	mw := NewMultiWriter(a, b)

	rows := []presence.SnapshotRow{{Timestamp: time.Unix(0, 0).UTC(), RunID: "r0", Player: "Alice", Online: true}}
	if err := mw.WriteBatch(rows); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	if len(a.batches) != 1 || len(b.batches) != 1 {
		t.Fatalf("expected both writers hit, got %d/%d", len(a.batches), len(b.batches))
	}

	if err := mw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !a.closed || !b.closed {
		t.Error("expected all writers closed")
	}
}

func TestMultiWriterStopsOnFirstError(t *testing.T) {
	boom := errors.New("boom")
	a := &recordingWriter{err: boom}
	b := &recordingWriter{}
	mw := NewMultiWriter(a, b)

	err := mw.WriteBatch([]presence.SnapshotRow{{RunID: "r0", Player: "Alice"}})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(b.batches) != 0 {
		t.Error("secondary writer should not receive rows after primary failure")
	}
}
