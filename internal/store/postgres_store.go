package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"guildwatch/internal/presence"
)

//go:embed migrations/*.sql
var migrations embed.FS

// PostgresStore is an optional relational history store beside the CSV file,
// for installations that want SQL over the presence history.
type PostgresStore struct {
	db    *sql.DB
	guild string
}

// OpenPostgres connects via the pgx stdlib driver, verifies health, and
// applies the embedded migrations.
func OpenPostgres(ctx context.Context, url, guild string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(1 * time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := goose.Up(db, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &PostgresStore{db: db, guild: guild}, nil
}

// WriteBatch inserts one run in a single transaction, keeping the
// no-partial-run invariant on the SQL side too.
func (s *PostgresStore) WriteBatch(rows []presence.SnapshotRow) error {
	if len(rows) == 0 {
		return nil
	}
	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &WriteError{Target: "presence_history", Err: err}
	}
	defer tx.Rollback()

	const q = `
INSERT INTO presence_history (collected_at, run_id, guild, player, online, last_login)
VALUES ($1, $2, $3, $4, $5, $6)`
	for _, r := range rows {
		var lastLogin sql.NullTime
		if r.LastLogin != nil {
			lastLogin = sql.NullTime{Time: r.LastLogin.UTC(), Valid: true}
		}
		if _, err := tx.ExecContext(ctx, q, r.Timestamp.UTC(), r.RunID, s.guild, r.Player, r.Online, lastLogin); err != nil {
			return &WriteError{Target: "presence_history", Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &WriteError{Target: "presence_history", Err: err}
	}
	return nil
}

// ReadAll loads the guild's history ordered by collection time.
func (s *PostgresStore) ReadAll(ctx context.Context) ([]presence.SnapshotRow, error) {
	const q = `
SELECT collected_at, run_id, player, online, last_login
FROM presence_history
WHERE guild = $1
ORDER BY collected_at, id`
	rs, err := s.db.QueryContext(ctx, q, s.guild)
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	var rows []presence.SnapshotRow
	for rs.Next() {
		var row presence.SnapshotRow
		var lastLogin sql.NullTime
		if err := rs.Scan(&row.Timestamp, &row.RunID, &row.Player, &row.Online, &lastLogin); err != nil {
			return nil, err
		}
		row.Timestamp = row.Timestamp.UTC()
		if lastLogin.Valid {
			ll := lastLogin.Time.UTC()
			row.LastLogin = &ll
		}
		rows = append(rows, row)
	}
	return rows, rs.Err()
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error { return s.db.Close() }
