package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// AIPhoto is the persisted record for one style's output in a photo session.
// The row is created with an empty storage path before the generation job
// resolves and updated once the style's pipeline completes. A row with a
// non-empty path implies its generation job completed and post-processing
// produced final bytes.
type AIPhoto struct {
	ID          uuid.UUID
	SessionID   uuid.UUID
	Style       Style
	StoragePath sql.NullString
	PublicURL   sql.NullString
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
