package model

// Media type classifications. Only these two values are ever persisted;
// anything the ingest path cannot classify is skipped before it reaches
// the storage layer.
const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

// Media is a binary attachment (an encoded image or video) belonging to
// exactly one Event. The payload is stored as-is in the database — an opaque
// byte sequence, not a file path — so a media row is self-contained and dies
// with its event (the schema declares ON DELETE CASCADE on EventID).
//
// Media rows are never updated in place: they are inserted once and removed
// either explicitly or by the cascade. There is deliberately no update
// operation anywhere in the stack.
//
// Data carries `json:"-"`: blobs can be tens of megabytes, so listings return
// metadata only and the raw bytes are served through a dedicated endpoint.
type Media struct {
	MediaID int64  `json:"mediaId"`
	EventID int64  `json:"eventId"`
	Data    []byte `json:"-"`
	Type    string `json:"type"`
}
