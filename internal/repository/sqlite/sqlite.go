// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go translation
// of the SQLite C code, so the server stays a single static binary.
//
// SCHEMA:
// The tables live in migrations/*.sql, embedded into the binary and applied with
// golang-migrate. New() always migrates to the latest version before returning.
//
//	users        user_id, user_name UNIQUE, password (bcrypt), role, teacher_user_id
//	classes      class_id, class_name, user_id → users (the owning teacher)
//	assignments  assignment_id, class_id → classes, due_date, title, notes, category
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	moderncsqlite "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"

	"github.com/sakif/classroom/internal/repository"
)

// compile-time check that *DB implements every repository interface
var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn *sql.DB
}

// Open opens the database at dbPath and applies the connection settings, but
// does not migrate. Use New for a ready-to-use store.
//
// dbPath examples:
//   - "data/classroom.db"  → file-based database (persistent)
//   - ":memory:"           → in-memory database (tests; lost on close)
func Open(dbPath string) (*sql.DB, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: creating database directory: %w", err)
		}
	}

	// foreign_keys is a per-connection setting, so it goes into the DSN where
	// the driver applies it to every connection the pool opens.
	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every connection to ":memory:" is a separate, empty database.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode allows concurrent reads while a write is happening.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	return conn, nil
}

// New opens the database and migrates it to the latest schema version.
func New(dbPath string) (*DB, error) {
	conn, err := Open(dbPath)
	if err != nil {
		return nil, err
	}

	m, err := NewMigrator(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	// m is not closed: closing a golang-migrate instance closes conn too.
	if err := m.Up(); err != nil {
		conn.Close()
		return nil, err
	}

	return &DB{conn: conn}, nil
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr *moderncsqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	if sqliteErr.Code() == sqlitelib.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	// Without extended result codes only the primary code is set.
	return sqliteErr.Code()&0xff == sqlitelib.SQLITE_CONSTRAINT &&
		strings.Contains(sqliteErr.Error(), "UNIQUE")
}

// rowsAffected returns the count from res, wrapping the driver error.
func rowsAffected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return n, nil
}
