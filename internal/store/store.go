// History store writers and readers. The unit of writing is one complete
// collection run: a snapshot batch either lands whole or not at all.
package store

import (
	"fmt"

	"guildwatch/internal/presence"
)

// SnapshotWriter persists one complete collection run.
type SnapshotWriter interface {
	WriteBatch(rows []presence.SnapshotRow) error
}

// Optional: writers holding resources also implement Close.
type closer interface {
	Close() error
}

// WriteError reports an unwritable history store. It is fatal to the run.
type WriteError struct {
	Target string
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Target, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
