package store

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"guildwatch/internal/presence"
)

var csvHeader = []string{"timestamp", "run_id", "player", "online", "last_login"}

// CSVStore is the append-only flat-file history store. One row per
// (run, player); the header is written once when the file is created.
type CSVStore struct {
	path string
}

// NewCSVStore creates the store for path, creating parent directories.
func NewCSVStore(path string) (*CSVStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &WriteError{Target: path, Err: err}
		}
	}
	return &CSVStore{path: path}, nil
}

// Path returns the backing file path.
func (s *CSVStore) Path() string { return s.path }

// WriteBatch appends one complete run. The batch is encoded into memory and
// appended with a single write; if that write fails the file is truncated
// back to its previous size, so a run is persisted either whole or not at
// all.
func (s *CSVStore) WriteBatch(rows []presence.SnapshotRow) error {
	if len(rows) == 0 {
		return nil
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return &WriteError{Target: s.path, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return &WriteError{Target: s.path, Err: err}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if info.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			return &WriteError{Target: s.path, Err: err}
		}
	}
	for _, row := range rows {
		if err := w.Write(encodeRow(row)); err != nil {
			return &WriteError{Target: s.path, Err: err}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return &WriteError{Target: s.path, Err: err}
	}

	if err := appendBatch(f, info.Size(), buf.Bytes()); err != nil {
		return &WriteError{Target: s.path, Err: err}
	}
	return nil
}

// truncater is the slice of *os.File appendBatch needs for rollback.
type truncater interface {
	io.Writer
	Truncate(size int64) error
}

// appendBatch issues the encoded run as one write and rolls the file back to
// prev bytes when the write fails partway, e.g. on a full disk.
func appendBatch(f truncater, prev int64, data []byte) error {
	if _, err := f.Write(data); err != nil {
		if terr := f.Truncate(prev); terr != nil {
			return errors.Join(err, terr)
		}
		return err
	}
	return nil
}

// ReadAll loads the full history in insertion order. A missing file is an
// empty history, not an error.
func (s *CSVStore) ReadAll() ([]presence.SnapshotRow, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(csvHeader)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	var rows []presence.SnapshotRow
	for i, rec := range records {
		if i == 0 && rec[0] == csvHeader[0] {
			continue
		}
		row, err := decodeRow(rec)
		if err != nil {
			return nil, fmt.Errorf("read %s row %d: %w", s.path, i, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func encodeRow(row presence.SnapshotRow) []string {
	lastLogin := ""
	if row.LastLogin != nil {
		lastLogin = row.LastLogin.UTC().Format(time.RFC3339)
	}
	return []string{
		row.Timestamp.UTC().Format(time.RFC3339),
		row.RunID,
		row.Player,
		strconv.FormatBool(row.Online),
		lastLogin,
	}
}

func decodeRow(rec []string) (presence.SnapshotRow, error) {
	ts, err := time.Parse(time.RFC3339, rec[0])
	if err != nil {
		return presence.SnapshotRow{}, err
	}
	online, err := strconv.ParseBool(rec[3])
	if err != nil {
		return presence.SnapshotRow{}, err
	}
	row := presence.SnapshotRow{
		Timestamp: ts.UTC(),
		RunID:     rec[1],
		Player:    rec[2],
		Online:    online,
	}
	if rec[4] != "" {
		ll, err := time.Parse(time.RFC3339, rec[4])
		if err != nil {
			return presence.SnapshotRow{}, err
		}
		ll = ll.UTC()
		row.LastLogin = &ll
	}
	return row, nil
}
