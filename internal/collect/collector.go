// Collector turning one status fetch into one appended history run.
package collect

import (
	"context"
	"time"

	"github.com/google/uuid"

	"guildwatch/internal/logging"
	"guildwatch/internal/presence"
	"guildwatch/internal/store"
)

// StatusSource is the slice of the status client a run needs.
type StatusSource interface {
	FetchOnline(ctx context.Context) ([]string, error)
	LastLogins(ctx context.Context, names []string) (map[string]time.Time, error)
}

// Collector maps one fetched online list onto the roster and appends the
// resulting snapshot batch. A run is linear: fetch, map, append.
type Collector struct {
	roster        presence.Roster
	source        StatusSource
	writer        store.SnapshotWriter
	withLastLogin bool
	now           func() time.Time
}

// New creates a Collector. The roster must already be validated non-empty.
func New(roster presence.Roster, src StatusSource, writer store.SnapshotWriter, withLastLogin bool) *Collector {
	return &Collector{
		roster:        roster,
		source:        src,
		writer:        writer,
		withLastLogin: withLastLogin,
		now:           time.Now,
	}
}

// Run performs one collection. On success it returns the appended rows:
// exactly one per roster entry, all sharing a timestamp and run id. Any
// fetch or write failure aborts the run before a single row is persisted.
func (c *Collector) Run(ctx context.Context) ([]presence.SnapshotRow, error) {
	log := logging.FromContext(ctx)

	online, err := c.source.FetchOnline(ctx)
	if err != nil {
		return nil, err
	}
	onlineSet := make(map[string]struct{}, len(online))
	for _, name := range online {
		onlineSet[presence.Key(name)] = struct{}{}
	}

	// Last-login lookups are best effort. The run's presence flags stand on
	// their own, so a broken guild or profile page only costs the extras.
	var lastLogins map[string]time.Time
	if c.withLastLogin {
		lastLogins, err = c.source.LastLogins(ctx, c.roster)
		if err != nil {
			log.Warn("last login lookup skipped", "error", err)
			lastLogins = nil
		}
	}

	ts := c.now().UTC().Truncate(time.Second)
	runID := uuid.NewString()
	rows := make([]presence.SnapshotRow, 0, len(c.roster))
	for _, player := range c.roster {
		_, isOnline := onlineSet[presence.Key(player)]
		row := presence.SnapshotRow{
			Timestamp: ts,
			RunID:     runID,
			Player:    player,
			Online:    isOnline,
		}
		if ll, ok := lastLogins[player]; ok {
			ll := ll.UTC()
			row.LastLogin = &ll
		}
		rows = append(rows, row)
	}

	if err := c.writer.WriteBatch(rows); err != nil {
		return nil, err
	}
	log.Info("run recorded", "run_id", runID, "players", len(rows), "online", len(onlineSet))
	return rows, nil
}
