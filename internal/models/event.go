package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Event struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	LogoPath  sql.NullString
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasLogo reports whether the event declared a logo asset for compositing.
func (e *Event) HasLogo() bool {
	return e.LogoPath.Valid && e.LogoPath.String != ""
}

type PhotoSession struct {
	ID        uuid.UUID
	EventID   uuid.UUID
	UserID    uuid.UUID
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}
