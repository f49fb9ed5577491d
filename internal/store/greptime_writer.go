package store

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strconv"
	"time"

	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"guildwatch/internal/presence"
)

// GreptimeDBWriter mirrors presence rows into GreptimeDB via the ingester
// client, as a secondary timeseries sink beside the CSV store. The table is
// auto-created by the server on first write.
type GreptimeDBWriter struct {
	client *greptime.Client
	table  string
	guild  string
	log    *slog.Logger
}

// NewGreptimeDBWriter connects to endpoint ("host" or "host:port") and
// writes into database.
func NewGreptimeDBWriter(endpoint, database, guild string, log *slog.Logger) (*GreptimeDBWriter, error) {
	host, port := splitEndpoint(endpoint)
	cfg := greptime.NewConfig(host).WithDatabase(database)
	if port > 0 {
		cfg = cfg.WithPort(port)
	}
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &GreptimeDBWriter{
		client: client,
		table:  presence.PresenceTableName,
		guild:  guild,
		log:    log,
	}, nil
}

// splitEndpoint accepts "host" or "host:port". Port 0 keeps the client's
// default gRPC port.
func splitEndpoint(endpoint string) (string, int) {
	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		return endpoint, 0
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return endpoint, 0
	}
	return host, port
}

// WriteBatch inserts one run's rows.
func (w *GreptimeDBWriter) WriteBatch(rows []presence.SnapshotRow) error {
	if len(rows) == 0 {
		return nil
	}

	tbl, err := table.New(w.table)
	if err != nil {
		return &WriteError{Target: w.table, Err: err}
	}
	if err := errors.Join(
		tbl.AddTagColumn("guild", types.STRING),
		tbl.AddTagColumn("player", types.STRING),
		tbl.AddFieldColumn("run_id", types.STRING),
		tbl.AddFieldColumn("status", types.STRING),
		tbl.AddFieldColumn("last_login", types.TIMESTAMP_MILLISECOND),
		tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND),
	); err != nil {
		return &WriteError{Target: w.table, Err: err}
	}

	for _, r := range rows {
		status := "offline"
		if r.Online {
			status = "online"
		}
		var lastLogin time.Time // zero when the profile had none
		if r.LastLogin != nil {
			lastLogin = *r.LastLogin
		}
		if err := tbl.AddRow(w.guild, r.Player, r.RunID, status, lastLogin, r.Timestamp); err != nil {
			return &WriteError{Target: w.table, Err: err}
		}
	}

	if _, err := w.client.Write(context.Background(), tbl); err != nil {
		w.log.Error("greptime write failed", "rows", len(rows), "error", err)
		return &WriteError{Target: w.table, Err: err}
	}

	w.log.Debug("greptime write ok", "rows", len(rows))
	return nil
}
