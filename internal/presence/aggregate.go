package presence

import (
	"sort"
	"time"
)

// PlayerSummary is the derived per-player view the dashboard renders. It is
// recomputed from the full history on every load and never persisted.
type PlayerSummary struct {
	Player          string        `json:"player"`
	OnlineCount     int           `json:"online_count"`
	OfflineCount    int           `json:"offline_count"`
	LastSeenOnline  time.Time     `json:"last_seen_online"`
	LastObserved    time.Time     `json:"last_observed"`
	LastLogin       *time.Time    `json:"last_login,omitempty"`
	OnlineRatio     float64       `json:"online_ratio"`
	EstimatedOnline time.Duration `json:"estimated_online"`
}

// Summarize aggregates the full history per roster entry. Roster players with
// no observations get a zero-valued summary; an empty history is not an
// error. Rows for players no longer on the roster are ignored.
func Summarize(rows []SnapshotRow, roster Roster) []PlayerSummary {
	byKey := make(map[string]*PlayerSummary, len(roster))
	out := make([]PlayerSummary, len(roster))
	for i, name := range roster {
		out[i] = PlayerSummary{Player: name}
		byKey[Key(name)] = &out[i]
	}

	spacing := medianRunSpacing(rows)
	for _, row := range rows {
		s, ok := byKey[Key(row.Player)]
		if !ok {
			continue
		}
		if row.Online {
			s.OnlineCount++
			if row.Timestamp.After(s.LastSeenOnline) {
				s.LastSeenOnline = row.Timestamp
			}
		} else {
			s.OfflineCount++
		}
		if row.Timestamp.After(s.LastObserved) {
			s.LastObserved = row.Timestamp
		}
		if row.LastLogin != nil && (s.LastLogin == nil || row.LastLogin.After(*s.LastLogin)) {
			s.LastLogin = row.LastLogin
		}
	}

	for i := range out {
		total := out[i].OnlineCount + out[i].OfflineCount
		if total > 0 {
			out[i].OnlineRatio = float64(out[i].OnlineCount) / float64(total)
		}
		out[i].EstimatedOnline = time.Duration(out[i].OnlineCount) * spacing
	}
	return out
}

// FilterWindow returns the rows observed in [from, to]. A zero bound is open.
func FilterWindow(rows []SnapshotRow, from, to time.Time) []SnapshotRow {
	var out []SnapshotRow
	for _, r := range rows {
		if !from.IsZero() && r.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && r.Timestamp.After(to) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// medianRunSpacing estimates the interval between collection runs from the
// distinct run timestamps. Online-duration estimates are observations times
// this spacing; with fewer than two runs there is nothing to estimate.
func medianRunSpacing(rows []SnapshotRow) time.Duration {
	seen := make(map[time.Time]struct{})
	var stamps []time.Time
	for _, r := range rows {
		if _, ok := seen[r.Timestamp]; ok {
			continue
		}
		seen[r.Timestamp] = struct{}{}
		stamps = append(stamps, r.Timestamp)
	}
	if len(stamps) < 2 {
		return 0
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i].Before(stamps[j]) })
	gaps := make([]time.Duration, 0, len(stamps)-1)
	for i := 1; i < len(stamps); i++ {
		gaps = append(gaps, stamps[i].Sub(stamps[i-1]))
	}
	sort.Slice(gaps, func(i, j int) bool { return gaps[i] < gaps[j] })
	return gaps[len(gaps)/2]
}
