package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
)

// PostgresStore keeps history in a shared database so several machines (or a
// whole team) see one log.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres opens the database and ensures the schema exists.
func NewPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	s := &PostgresStore{db: db}
	if err := s.migrate(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS rocket_history (
		id UUID PRIMARY KEY,
		ts TIMESTAMPTZ NOT NULL DEFAULT now(),
		command TEXT NOT NULL,
		prompt TEXT NOT NULL,
		mode TEXT,
		provider TEXT,
		model TEXT,
		tags TEXT[],
		tokens_used INT NOT NULL DEFAULT 0,
		duration_ms BIGINT NOT NULL DEFAULT 0,
		success BOOLEAN NOT NULL DEFAULT true
	);`)
	if err != nil {
		return fmt.Errorf("migrate history table: %w", err)
	}
	return nil
}

// Append inserts one entry.
func (s *PostgresStore) Append(ctx context.Context, e Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rocket_history (id, ts, command, prompt, mode, provider, model, tags, tokens_used, duration_ms, success)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.ID, e.Time, e.Command, e.Prompt, e.Mode, e.Provider, e.Model,
		pq.Array(e.Tags), e.TokensUsed, e.DurationMS, e.Success,
	)
	return err
}

// Recent returns up to n entries, newest first.
func (s *PostgresStore) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ts, command, prompt, mode, provider, model, tags, tokens_used, duration_ms, success
		FROM rocket_history ORDER BY ts DESC LIMIT $1`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Search matches pattern against prompt and command, case-insensitively.
func (s *PostgresStore) Search(ctx context.Context, pattern string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ts, command, prompt, mode, provider, model, tags, tokens_used, duration_ms, success
		FROM rocket_history
		WHERE prompt ILIKE '%' || $1 || '%' OR command ILIKE '%' || $1 || '%'
		ORDER BY ts DESC`, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Stats aggregates in SQL to avoid pulling the full table.
func (s *PostgresStore) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{ByCommand: map[string]int{}, ByProvider: map[string]int{}}
	row := s.db.QueryRowContext(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE success),
		       coalesce(sum(tokens_used), 0)
		FROM rocket_history`)
	if err := row.Scan(&stats.Total, &stats.Succeeded, &stats.TotalTokens); err != nil {
		return Stats{}, err
	}
	stats.Failed = stats.Total - stats.Succeeded

	rows, err := s.db.QueryContext(ctx, `SELECT command, count(*) FROM rocket_history GROUP BY command`)
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var cmd string
		var n int
		if err := rows.Scan(&cmd, &n); err != nil {
			return Stats{}, err
		}
		stats.ByCommand[cmd] = n
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}

	provRows, err := s.db.QueryContext(ctx, `
		SELECT provider, count(*) FROM rocket_history
		WHERE provider IS NOT NULL AND provider <> '' GROUP BY provider`)
	if err != nil {
		return Stats{}, err
	}
	defer provRows.Close()
	for provRows.Next() {
		var prov string
		var n int
		if err := provRows.Scan(&prov, &n); err != nil {
			return Stats{}, err
		}
		stats.ByProvider[prov] = n
	}
	return stats, provRows.Err()
}

// Clear truncates the history table.
func (s *PostgresStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `TRUNCATE rocket_history`)
	return err
}

// Close closes the database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		var e Entry
		var mode, provider, model sql.NullString
		if err := rows.Scan(&e.ID, &e.Time, &e.Command, &e.Prompt, &mode, &provider, &model,
			pq.Array(&e.Tags), &e.TokensUsed, &e.DurationMS, &e.Success); err != nil {
			return nil, err
		}
		e.Mode = mode.String
		e.Provider = provider.String
		e.Model = model.String
		out = append(out, e)
	}
	return out, rows.Err()
}
