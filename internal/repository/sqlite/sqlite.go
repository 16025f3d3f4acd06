// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database — it lives inside your Go binary as a single
// file. No separate database server to install, configure, or manage. A
// personal journal is exactly its sweet spot: one process, one file, real
// relational integrity (the cascade delete below is enforced by the engine,
// not by application code).
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo (calls C code from Go), which means you need a C
// compiler installed and cross-compilation becomes painful. modernc.org/sqlite
// is a pure Go translation of the SQLite C code — no C compiler needed, works
// everywhere Go works.
//
// CONCURRENCY MODEL:
// WAL mode lets reads proceed while a write is in flight, and writeMu
// serializes the writes themselves — each mutation commits fully before the
// next begins. Subscription deliveries never run inside a write: the Bus is
// notified only after a mutation commits, so a woken watcher always reads
// post-commit state.
package sqlite

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/sakif/goldendays/internal/live"

	// BLANK IMPORT:
	// The underscore import is a "side-effect only" import: the package's
	// init() registers itself with database/sql as a driver named "sqlite",
	// after which sql.Open("sqlite", ...) knows how to talk to SQLite.
	// media.go additionally imports the package by name to inspect driver
	// error codes for foreign-key violations.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements the repository interfaces
// for events and media.
//
// The bus field is how storage changes become live-query updates: every
// mutating method publishes the affected topics after its commit. Callers of
// this package never touch the Bus directly.
type DB struct {
	conn    *sql.DB
	bus     *live.Bus
	writeMu sync.Mutex // serializes mutations (single-writer discipline)
}

// dsn builds the driver DSN with the pragmas every connection needs.
//
// PRAGMAS ARE PER-CONNECTION:
// sql.DB is a connection POOL. A pragma applied with a one-off Exec after
// Open configures only whichever pooled connection happened to serve that
// Exec — any connection the pool opens later runs with SQLite's defaults,
// meaning foreign keys OFF. Both the rejection of media rows pointing at
// missing events and the ON DELETE CASCADE depend on the pragma being on
// for the connection that runs the statement, so the pragmas ride in the
// DSN, where the driver applies them to every connection it opens.
//
//   - foreign_keys(1): OFF by default in SQLite (backwards compatibility);
//     everything here depends on it being ON.
//   - journal_mode(WAL): default SQLite locks the whole database during
//     writes; WAL lets reads proceed WHILE a write is in flight, which is
//     what lets live queries re-run without waiting behind mutations.
//   - busy_timeout(5000): a reader that does hit a transient lock (e.g.
//     during a WAL checkpoint) waits instead of failing immediately.
func dsn(dbPath string) string {
	return "file:" + dbPath +
		"?_pragma=foreign_keys(1)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)"
}

// New opens (or creates) the database at dbPath and runs migrations.
// Mutations committed through the returned DB are announced on bus.
//
// dbPath examples:
//   - "data/goldendays.db" → file-based database (persistent)
//   - ":memory:"           → in-memory database (great for tests, lost on close)
//
// sql.Open() does NOT actually open a connection — it just creates a pool
// manager. We call Ping() to force an immediate connection so a bad path or
// permissions problem surfaces here instead of on the first query.
func New(dbPath string, bus *live.Bus) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if dbPath == ":memory:" {
		// Every pooled connection to ":memory:" would open its OWN empty
		// database — a second connection would see no tables at all. One
		// connection keeps the whole pool on a single coherent store.
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn, bus: bus}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool, flushing the WAL and releasing
// the file lock. Wherever you call New(), immediately defer Close().
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS is idempotent, so
// this is safe to run on every start.
//
// SCHEMA NOTES:
//   - ids are AUTOINCREMENT: monotonically assigned by the engine, never
//     reused even after deletes, so a re-read by any returned id is
//     unambiguous.
//   - events.date is a nullable INTEGER holding epoch milliseconds (UTC);
//     NULL means "no date set" and is a meaningful state, not missing data.
//   - media.data holds the encoded bytes themselves (BLOB), not a path —
//     a media row is self-contained and dies with its event.
//   - ON DELETE CASCADE makes an event delete and the removal of all its
//     media a single atomic statement. A crash can never leave orphans.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			name        TEXT NOT NULL DEFAULT '',
			date        INTEGER NULL,
			description TEXT NOT NULL DEFAULT ''
		);
	`)
	if err != nil {
		return fmt.Errorf("creating events table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS media (
			mediaId INTEGER PRIMARY KEY AUTOINCREMENT,
			eventId INTEGER NOT NULL REFERENCES events(id) ON DELETE CASCADE,
			data    BLOB NOT NULL,
			type    TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_media_event_id ON media(eventId);
	`)
	if err != nil {
		return fmt.Errorf("creating media table: %w", err)
	}

	return nil
}
