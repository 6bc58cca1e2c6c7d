package stores

import (
	"context"
	"errors"
	"fmt"

	"github.com/9seconds/geolocator/geolib"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	postgresMigration = `
CREATE TABLE IF NOT EXISTS geolocations (
    ip         TEXT PRIMARY KEY,
    data       JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

	postgresFind = `
SELECT ip, data, created_at, updated_at
FROM geolocations
WHERE ip = $1`

	postgresUpsert = `
INSERT INTO geolocations (ip, data)
VALUES ($1, $2)
ON CONFLICT (ip) DO UPDATE
SET data = EXCLUDED.data, updated_at = now()
RETURNING ip, data, created_at, updated_at`

	postgresDelete = `DELETE FROM geolocations WHERE ip = $1`
)

type postgresPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres keeps records in geolocations table. Uniqueness of IP is
// guaranteed by a primary key, upserts rely on ON CONFLICT clause.
type Postgres struct {
	pool postgresPool
}

func (p *Postgres) Find(ctx context.Context, ip string) (*geolib.Record, error) {
	record, err := p.scan(p.pool.QueryRow(ctx, postgresFind, ip))

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, fmt.Errorf("%w: %s", geolib.ErrNotFound, ip)
	case err != nil:
		return nil, fmt.Errorf("cannot select %s: %w", ip, err)
	}

	return record, nil
}

func (p *Postgres) Upsert(ctx context.Context, ip string, data geolib.Payload) (*geolib.Record, error) {
	record, err := p.scan(p.pool.QueryRow(ctx, postgresUpsert, ip, map[string]interface{}(data)))
	if err != nil {
		return nil, fmt.Errorf("cannot upsert %s: %w", ip, err)
	}

	return record, nil
}

func (p *Postgres) Delete(ctx context.Context, ip string) error {
	tag, err := p.pool.Exec(ctx, postgresDelete, ip)
	if err != nil {
		return fmt.Errorf("cannot delete %s: %w", ip, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", geolib.ErrNotFound, ip)
	}

	return nil
}

// Migrate creates a table if it is absent.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, postgresMigration); err != nil {
		return fmt.Errorf("cannot create geolocations table: %w", err)
	}

	return nil
}

func (p *Postgres) Close() {
	if pool, ok := p.pool.(*pgxpool.Pool); ok {
		pool.Close()
	}
}

func (p *Postgres) scan(row pgx.Row) (*geolib.Record, error) {
	record := &geolib.Record{}
	data := map[string]interface{}{}

	if err := row.Scan(&record.IP, &data, &record.CreatedAt, &record.UpdatedAt); err != nil {
		return nil, err
	}

	record.Data = data

	return record, nil
}

// NewPostgres connects to the database with the given DSN and creates a
// table if necessary.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot create a pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()

		return nil, fmt.Errorf("cannot connect to postgres: %w", err)
	}

	store := &Postgres{
		pool: pool,
	}

	if err := store.Migrate(ctx); err != nil {
		pool.Close()

		return nil, err
	}

	return store, nil
}

// type check
var _ geolib.Store = (*Postgres)(nil)
