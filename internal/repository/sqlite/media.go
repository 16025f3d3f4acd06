package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/goldendays/internal/apperror"
	"github.com/sakif/goldendays/internal/live"
	"github.com/sakif/goldendays/internal/model"
	"github.com/sakif/goldendays/internal/repository"

	// Imported by name (unlike the blank driver import in sqlite.go) so we
	// can inspect *sqlite3.Error codes; aliased because this package is also
	// called sqlite.
	sqlite3 "modernc.org/sqlite"
)

var _ repository.MediaRepository = (*DB)(nil)

// SQLite extended result code for a FOREIGN KEY constraint violation
// (SQLITE_CONSTRAINT_FOREIGNKEY). The driver surfaces it on *sqlite3.Error.
const sqliteConstraintForeignKey = 787

// isForeignKeyViolation reports whether err is the engine rejecting a row
// whose eventId references no existing event.
func isForeignKeyViolation(err error) bool {
	var liteErr *sqlite3.Error
	return errors.As(err, &liteErr) && liteErr.Code() == sqliteConstraintForeignKey
}

// CreateMedia inserts a media row and assigns its mediaId in place.
//
// The foreign key is enforced by the engine, not re-checked here: if eventId
// references no event, SQLite refuses the insert and we translate the driver
// error to apperror.ErrForeignKey. No row persists on that path — the
// statement never committed.
func (db *DB) CreateMedia(ctx context.Context, media *model.Media) error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO media (eventId, data, type) VALUES (?, ?, ?)`,
		media.EventID,
		media.Data,
		media.Type,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.ForeignKey(media.EventID)
		}
		return apperror.Storage("inserting media", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return apperror.Storage("reading inserted media id", err)
	}
	media.MediaID = id

	db.bus.Publish(live.TopicMedia)
	return nil
}

// DeleteMedia removes a single media row. Media is a leaf entity — nothing
// cascades from it.
func (db *DB) DeleteMedia(ctx context.Context, mediaID int64) error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	res, err := db.conn.ExecContext(ctx, `DELETE FROM media WHERE mediaId = ?`, mediaID)
	if err != nil {
		return apperror.Storage("deleting media", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return apperror.Storage("checking rows affected", err)
	}
	if affected == 0 {
		return apperror.NotFound("media", mediaID)
	}

	db.bus.Publish(live.TopicMedia)
	return nil
}

// GetMediaByID returns a media row including its payload bytes, verbatim as
// stored. Decoding/playback is entirely the caller's concern.
func (db *DB) GetMediaByID(ctx context.Context, mediaID int64) (*model.Media, error) {
	var media model.Media
	err := db.conn.QueryRowContext(ctx,
		`SELECT mediaId, eventId, data, type FROM media WHERE mediaId = ?`,
		mediaID,
	).Scan(&media.MediaID, &media.EventID, &media.Data, &media.Type)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("media", mediaID)
		}
		return nil, apperror.Storage(fmt.Sprintf("getting media %d", mediaID), err)
	}

	return &media, nil
}

// ListMediaByEventID returns the media attached to an event in insertion order.
// An event with no media (or no such event at all) yields an empty slice —
// the two cases are indistinguishable here, which is fine for a listing.
func (db *DB) ListMediaByEventID(ctx context.Context, eventID int64) ([]model.Media, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT mediaId, eventId, data, type FROM media
		 WHERE eventId = ? ORDER BY mediaId`,
		eventID,
	)
	if err != nil {
		return nil, apperror.Storage("querying media", err)
	}
	defer rows.Close()

	items := []model.Media{}
	for rows.Next() {
		var media model.Media
		if err := rows.Scan(&media.MediaID, &media.EventID, &media.Data, &media.Type); err != nil {
			return nil, apperror.Storage("scanning media row", err)
		}
		items = append(items, media)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Storage("iterating media", err)
	}

	return items, nil
}
