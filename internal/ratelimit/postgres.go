package ratelimit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/filestream/internal/dbx"
	"github.com/dmitrijs2005/filestream/internal/ratelimit/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresStore shares rate records between server instances. Window starts
// are stored as unix milliseconds so the reset test runs inside one
// statement.
type PostgresStore struct {
	db dbx.DBTX
}

func NewPostgresStore(db dbx.DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres opens a pgx-backed connection pool for dsn.
func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	return db, nil
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded schema.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

func (s *PostgresStore) Hit(ctx context.Context, identity string, now time.Time, window time.Duration) (int, error) {
	query :=
		`INSERT INTO rate_records (identity, count, window_start_ms)
		 VALUES ($1, 1, $2)
		 ON CONFLICT (identity) DO UPDATE SET
		     count = CASE WHEN $2 - rate_records.window_start_ms > $3
		                  THEN 1 ELSE rate_records.count + 1 END,
		     window_start_ms = CASE WHEN $2 - rate_records.window_start_ms > $3
		                  THEN $2 ELSE rate_records.window_start_ms END
		 RETURNING count`

	var count int
	err := s.db.QueryRowContext(ctx, query, identity, now.UnixMilli(), window.Milliseconds()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error performing sql request: %w", err)
	}

	return count, nil
}

func (s *PostgresStore) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM rate_records WHERE window_start_ms < $1`

	res, err := s.db.ExecContext(ctx, query, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("error performing sql request: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading affected rows: %w", err)
	}
	return n, nil
}
