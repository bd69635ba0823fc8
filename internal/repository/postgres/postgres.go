// Package postgres implements the repository interfaces on PostgreSQL via pgx.
//
// Queries mirror the sqlite package: ownership is part of every WHERE clause,
// and a row owned by another teacher is indistinguishable from a missing one.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sakif/classroom/internal/repository"
)

var _ repository.Store = (*Store)(nil)

// pool is the subset of *pgxpool.Pool the store uses. pgxmock.PgxPoolIface
// satisfies it in tests.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Store is the PostgreSQL-backed repository.Store.
type Store struct {
	pool pool
}

// NewStore wraps an existing pool.
func NewStore(p pool) *Store {
	return &Store{pool: p}
}

// Options tunes the connection pool. Zero values keep the pgxpool defaults.
type Options struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// Connect migrates the database at dsn to the latest schema and returns a
// Store on a fresh connection pool.
func Connect(ctx context.Context, dsn string, opts Options) (*Store, error) {
	m, err := NewMigrator(dsn)
	if err != nil {
		return nil, err
	}
	upErr := m.Up()
	closeErr := m.Close()
	if upErr != nil {
		return nil, upErr
	}
	if closeErr != nil {
		return nil, closeErr
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}
	if opts.MaxConns > 0 {
		poolConfig.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		poolConfig.MinConns = opts.MinConns
	}
	if opts.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = opts.MaxConnLifetime
	}
	poolConfig.HealthCheckPeriod = 30 * time.Second

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	p, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: creating pool: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return NewStore(p), nil
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
