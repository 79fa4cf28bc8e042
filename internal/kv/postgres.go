package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is a Store backed by a PostgreSQL table.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn, verifies the connection and ensures the kv table exists.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, errors.New("postgres store requires a dsn")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := p.pool.QueryRow(ctx, `SELECT value FROM kv WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return value, nil
}

func (p *Postgres) Set(ctx context.Context, key string, value []byte) error {
	const q = `
		INSERT INTO kv (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at`
	if _, err := p.pool.Exec(ctx, q, key, value); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM kv WHERE key = $1`, key); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) Query(ctx context.Context, prefix string, limit int) ([]Entry, error) {
	var lim *int64
	if limit > 0 {
		l := int64(limit)
		lim = &l
	}
	rows, err := p.pool.Query(ctx, `
		SELECT key, value FROM kv
		WHERE starts_with(key, $1)
		ORDER BY key COLLATE "C" ASC
		LIMIT $2`, prefix, lim)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", prefix, err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.Value); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
