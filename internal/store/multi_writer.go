package store

import "guildwatch/internal/presence"

// MultiWriter fans a run batch out to multiple writers. The first failing
// writer aborts the fan-out; the primary store is expected first in the list
// so secondary sinks never hold rows the store rejected.
type MultiWriter struct {
	writers []SnapshotWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(writers ...SnapshotWriter) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// WriteBatch sends the batch to all writers.
func (mw *MultiWriter) WriteBatch(rows []presence.SnapshotRow) error {
	for _, w := range mw.writers {
		if err := w.WriteBatch(rows); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every writer that holds resources.
func (mw *MultiWriter) Close() error {
	var err error
	for _, w := range mw.writers {
		if c, ok := w.(closer); ok {
			if e := c.Close(); e != nil && err == nil {
				err = e
			}
		}
	}
	return err
}
