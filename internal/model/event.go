// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// Event represents a user-defined occasion: a name, an optional date, and a
// free-text description. Media items attach to an event by its ID.
//
// The `json:"..."` tags tell Go's encoding/json package how to serialize/deserialize
// this struct to/from JSON when it travels through the HTTP collaborator.
//
// WHY ID int64?
// Events are keyed by a SQLite AUTOINCREMENT integer, assigned by the storage
// layer on insert. A zero ID means "not persisted yet" — the repository fills
// it in. database/sql returns LastInsertId as int64, so we use int64 end to end
// rather than converting back and forth.
//
// WHY Date *time.Time (a pointer)?
// "No date set" is a meaningful state for an event, distinct from any actual
// instant. A nil pointer models that directly; the zero time.Time would be an
// ambiguous sentinel (it's also a valid, if ancient, instant). The storage
// layer persists a nil Date as SQL NULL and a non-nil one as epoch milliseconds.
type Event struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Date        *time.Time `json:"date,omitempty"`
	Description string     `json:"description"`
}
