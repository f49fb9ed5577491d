package store

import (
	"time"

	"guildwatch/internal/presence"
)

// Replay feeds historical rows run by run into writer, e.g. to backfill a
// newly configured sink. A speed > 0 reproduces the original run spacing
// scaled by speed; speed <= 0 inserts no delay.
func Replay(rows []presence.SnapshotRow, writer SnapshotWriter, speed float64) error {
	var (
		batch []presence.SnapshotRow
		prev  time.Time
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		ts := batch[0].Timestamp
		if !prev.IsZero() && speed > 0 {
			diff := ts.Sub(prev)
			if speed != 1 {
				diff = time.Duration(float64(diff) / speed)
			}
			if diff > 0 {
				time.Sleep(diff)
			}
		}
		if err := writer.WriteBatch(batch); err != nil {
			return err
		}
		prev = ts
		batch = nil
		return nil
	}

	for _, row := range rows {
		if len(batch) > 0 && row.RunID != batch[0].RunID {
			if err := flush(); err != nil {
				return err
			}
		}
		batch = append(batch, row)
	}
	return flush()
}

// ReplayFile loads a CSV history file and replays it into writer.
func ReplayFile(path string, writer SnapshotWriter, speed float64) error {
	s, err := NewCSVStore(path)
	if err != nil {
		return err
	}
	rows, err := s.ReadAll()
	if err != nil {
		return err
	}
	return Replay(rows, writer, speed)
}
