// Writer implementation printing snapshot rows to STDOUT
package store

import (
	"encoding/json"
	"fmt"

	"guildwatch/internal/presence"
)

// StdoutWriter prints snapshot rows to STDOUT, one JSON object per line.
type StdoutWriter struct{}

// WriteBatch outputs every row of a run.
func (w *StdoutWriter) WriteBatch(rows []presence.SnapshotRow) error {
	for _, r := range rows {
		data, _ := json.Marshal(r)
		fmt.Println(string(data))
	}
	return nil
}
