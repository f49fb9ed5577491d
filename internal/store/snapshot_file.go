package store

import (
	"encoding/json"
	"os"
	"path/filepath"

	"guildwatch/internal/presence"
)

// snapshotDoc is the per-run JSON document layout.
type snapshotDoc struct {
	Timestamp string                 `json:"timestamp"`
	RunID     string                 `json:"run_id"`
	Guild     string                 `json:"guild"`
	Players   []presence.SnapshotRow `json:"players"`
}

// SnapshotFileWriter writes one JSON document per collection run into a
// directory, named after the run timestamp and run id.
type SnapshotFileWriter struct {
	dir   string
	guild string
}

// NewSnapshotFileWriter creates the snapshot directory if needed.
func NewSnapshotFileWriter(dir, guild string) (*SnapshotFileWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &WriteError{Target: dir, Err: err}
	}
	return &SnapshotFileWriter{dir: dir, guild: guild}, nil
}

// WriteBatch writes the run document. The file is written whole via a
// temporary name and rename so readers never see a torn snapshot.
func (w *SnapshotFileWriter) WriteBatch(rows []presence.SnapshotRow) error {
	if len(rows) == 0 {
		return nil
	}
	ts := rows[0].Timestamp.UTC().Format("2006-01-02T15-04-05Z")
	doc := snapshotDoc{
		Timestamp: rows[0].Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
		RunID:     rows[0].RunID,
		Guild:     w.guild,
		Players:   rows,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &WriteError{Target: w.dir, Err: err}
	}

	// The run id keeps two runs within the same second from colliding.
	path := filepath.Join(w.dir, "snapshot_"+ts+"_"+doc.RunID+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return &WriteError{Target: path, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return &WriteError{Target: path, Err: err}
	}
	return nil
}
