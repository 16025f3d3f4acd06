package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sakif/goldendays/internal/apperror"
	"github.com/sakif/goldendays/internal/live"
	"github.com/sakif/goldendays/internal/model"
	"github.com/sakif/goldendays/internal/repository"
)

// COMPILE-TIME INTERFACE CHECK:
// `var _ X = (*Y)(nil)` assigns a nil *Y to a variable of interface type X.
// If *Y doesn't implement X, the compiler errors immediately instead of at
// the first call site that passes *DB as a repository.
var _ repository.EventRepository = (*DB)(nil)

// dateToMillis converts the model's optional date to the column
// representation: NULL for "no date set", epoch milliseconds otherwise.
func dateToMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

// millisToDate is the inverse of dateToMillis. Times come back in UTC —
// the column stores an instant, not a wall-clock reading.
func millisToDate(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64).UTC()
	return &t
}

// likeEscaper neutralizes LIKE metacharacters in user-supplied search text so
// `%` and `_` match themselves. Queries using it must declare ESCAPE '\'.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// CreateEvent inserts a new event and assigns its id in place.
//
// POINTER RECEIVER ON THE MODEL:
// We take *model.Event so the caller's struct gets the generated id. The
// id itself comes from SQLite's AUTOINCREMENT via LastInsertId — the one
// id-assignment point in the system, which is what makes ids monotonic and
// never reused.
func (db *DB) CreateEvent(ctx context.Context, event *model.Event) error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO events (name, date, description) VALUES (?, ?, ?)`,
		event.Name,
		dateToMillis(event.Date),
		event.Description,
	)
	if err != nil {
		return apperror.Storage("inserting event", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return apperror.Storage("reading inserted event id", err)
	}
	event.ID = id

	db.bus.Publish(live.TopicEvents)
	return nil
}

// UpdateEvent replaces the full row keyed by event.ID. There is no partial update
// — callers submit the complete record, exactly as they received it.
//
// RowsAffected distinguishes "succeeded" from "nothing happened": updating a
// missing id returns NotFound rather than silently discarding the edit.
func (db *DB) UpdateEvent(ctx context.Context, event *model.Event) error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE events SET name = ?, date = ?, description = ? WHERE id = ?`,
		event.Name,
		dateToMillis(event.Date),
		event.Description,
		event.ID,
	)
	if err != nil {
		return apperror.Storage("updating event", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return apperror.Storage("checking rows affected", err)
	}
	if affected == 0 {
		return apperror.NotFound("event", event.ID)
	}

	db.bus.Publish(live.TopicEvents)
	return nil
}

// DeleteEvent removes the event and, through the schema's ON DELETE CASCADE, every
// media row referencing it — one statement, one atomic unit. Both topics are
// published because media listings change too.
func (db *DB) DeleteEvent(ctx context.Context, id int64) error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	res, err := db.conn.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return apperror.Storage("deleting event", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return apperror.Storage("checking rows affected", err)
	}
	if affected == 0 {
		return apperror.NotFound("event", id)
	}

	db.bus.Publish(live.TopicEvents, live.TopicMedia)
	return nil
}

// GetEventByID is a point lookup. sql.ErrNoRows is not really an error — it just
// means no matching row exists — so it is translated to the domain's
// NotFound, which the HTTP layer in turn maps to 404.
func (db *DB) GetEventByID(ctx context.Context, id int64) (*model.Event, error) {
	var (
		event model.Event
		date  sql.NullInt64
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, date, description FROM events WHERE id = ?`,
		id,
	).Scan(&event.ID, &event.Name, &date, &event.Description)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("event", id)
		}
		return nil, apperror.Storage(fmt.Sprintf("getting event %d", id), err)
	}
	event.Date = millisToDate(date)

	return &event, nil
}

// ListEvents returns all events in insertion order (ORDER BY id — AUTOINCREMENT
// ids are assigned monotonically, so id order IS insertion order).
func (db *DB) ListEvents(ctx context.Context) ([]model.Event, error) {
	return db.queryEvents(ctx,
		`SELECT id, name, date, description FROM events ORDER BY id`)
}

// SearchEventsByName returns events whose name contains substring, unanchored, in
// insertion order. An empty substring matches every row — the behavior a
// cleared search box expects.
//
// CASE POLICY:
// Matching is case-insensitive for ASCII letters (SQLite's default LIKE
// semantics; non-ASCII compares byte-wise). "day" finds "Birthday" and
// "DAY ONE" alike. LIKE metacharacters in the needle are escaped, so a
// search for "100%" matches the literal text.
func (db *DB) SearchEventsByName(ctx context.Context, substring string) ([]model.Event, error) {
	return db.queryEvents(ctx,
		`SELECT id, name, date, description FROM events
		 WHERE name LIKE '%' || ? || '%' ESCAPE '\'
		 ORDER BY id`,
		likeEscaper.Replace(substring))
}

// queryEvents runs a SELECT over the events table and scans the rows.
//
// defer rows.Close() is not optional: sql.Rows holds a pool connection, and a
// leaked one is gone for the life of the process. rows.Err() after the loop
// catches failures that happened during iteration rather than at query time.
func (db *DB) queryEvents(ctx context.Context, query string, args ...any) ([]model.Event, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperror.Storage("querying events", err)
	}
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		var (
			event model.Event
			date  sql.NullInt64
		)
		if err := rows.Scan(&event.ID, &event.Name, &date, &event.Description); err != nil {
			return nil, apperror.Storage("scanning event row", err)
		}
		event.Date = millisToDate(date)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Storage("iterating events", err)
	}

	return events, nil
}
