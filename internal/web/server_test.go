package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"guildwatch/internal/presence"
)

type staticReader struct {
	rows []presence.SnapshotRow
	err  error
}

func (r *staticReader) ReadAll() ([]presence.SnapshotRow, error) { return r.rows, r.err }

func newTestServer(rows []presence.SnapshotRow) *Server {
	return NewServer(&staticReader{rows: rows}, presence.Roster{"Alice", "Bob"}, "True Knife")
}

func TestHandleSummary(t *testing.T) {
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	rows := []presence.SnapshotRow{
		{Timestamp: t0, RunID: "r0", Player: "Alice", Online: true},
		{Timestamp: t0, RunID: "r0", Player: "Bob", Online: false},
	}
	srv := newTestServer(rows)

	req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var sums []presence.PlayerSummary
	if err := json.NewDecoder(w.Body).Decode(&sums); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(sums) != 2 || sums[0].OnlineCount != 1 || sums[1].OfflineCount != 1 {
		t.Fatalf("unexpected summary: %+v", sums)
	}
}

func TestHandleHistoryEmptyStore(t *testing.T) {
	srv := newTestServer(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != "null" && got != "[]" {
		t.Fatalf("expected empty history payload, got %q", got)
	}
}

func TestHandleIndexRenders(t *testing.T) {
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	srv := newTestServer([]presence.SnapshotRow{
		{Timestamp: t0, RunID: "r0", Player: "Alice", Online: true},
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"True Knife", "Alice", "Bob", "never"} {
		if !strings.Contains(body, want) {
			t.Errorf("index missing %q", want)
		}
	}
}

func TestHandleIndexReaderError(t *testing.T) {
	srv := NewServer(&staticReader{err: http.ErrBodyNotAllowed}, presence.Roster{"Alice"}, "g")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}
