// Presence domain types shared by the collector and the dashboard readers.
package presence

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// SnapshotRow is one timestamped online/offline observation for one player.
// Rows are immutable once written; the history store only ever appends.
type SnapshotRow struct {
	Timestamp time.Time  `json:"ts"`
	RunID     string     `json:"run_id"`
	Player    string     `json:"player"`
	Online    bool       `json:"online"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// PresenceTableName holds the table name used when writing to GreptimeDB.
// It defaults to "guild_presence" but can be overridden via the
// GREPTIMEDB_TABLE environment variable.
var PresenceTableName = func() string {
	if env := os.Getenv("GREPTIMEDB_TABLE"); env != "" {
		return env
	}
	return "guild_presence"
}()

func (SnapshotRow) TableName() string {
	return PresenceTableName
}

// Key normalizes a player name for matching against the fetched online list:
// surrounding whitespace is trimmed and case is folded, so "ALICE " and
// "alice" refer to the same player.
func Key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Roster is the fixed, ordered list of player names being monitored.
type Roster []string

// NewRoster trims entries, drops empties and duplicates (under Key), and
// rejects an empty result; a collector run requires at least one player.
func NewRoster(names []string) (Roster, error) {
	seen := make(map[string]struct{}, len(names))
	roster := make(Roster, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		k := Key(n)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		roster = append(roster, n)
	}
	if len(roster) == 0 {
		return nil, fmt.Errorf("roster is empty")
	}
	return roster, nil
}

// Contains reports whether name belongs to the roster under Key.
func (r Roster) Contains(name string) bool {
	k := Key(name)
	for _, n := range r {
		if Key(n) == k {
			return true
		}
	}
	return false
}

// LatestRun returns the rows of the most recent collection run, or nil when
// rows is empty. Rows are expected in insertion (hence time) order.
func LatestRun(rows []SnapshotRow) []SnapshotRow {
	if len(rows) == 0 {
		return nil
	}
	last := rows[len(rows)-1]
	start := len(rows) - 1
	for start > 0 && rows[start-1].RunID == last.RunID {
		start--
	}
	return rows[start:]
}
