package supabase

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"photobooth-backend/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(connectionString string) (*DatabaseClient, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (d *DatabaseClient) GetEvent(eventID, userID uuid.UUID) (*models.Event, error) {
	var event models.Event
	err := d.db.QueryRow(`
		SELECT id, user_id, name, logo_path, created_at, updated_at
		FROM events
		WHERE id = $1 AND user_id = $2
	`, eventID, userID).Scan(
		&event.ID, &event.UserID, &event.Name,
		&event.LogoPath, &event.CreatedAt, &event.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return &event, nil
}

func (d *DatabaseClient) GetPhotoSession(sessionID, userID uuid.UUID) (*models.PhotoSession, error) {
	var session models.PhotoSession
	err := d.db.QueryRow(`
		SELECT id, event_id, user_id, status, created_at, updated_at
		FROM photo_sessions
		WHERE id = $1 AND user_id = $2
	`, sessionID, userID).Scan(
		&session.ID, &session.EventID, &session.UserID,
		&session.Status, &session.CreatedAt, &session.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get photo session: %w", err)
	}

	return &session, nil
}

// CreateAIPhoto inserts the per-style record with an empty storage path. The
// row exists before the generation job resolves so a later update only has to
// fill in the final location.
func (d *DatabaseClient) CreateAIPhoto(sessionID uuid.UUID, style models.Style) (*models.AIPhoto, error) {
	var photo models.AIPhoto
	err := d.db.QueryRow(`
		INSERT INTO ai_photos (id, session_id, style, storage_path)
		VALUES ($1, $2, $3, '')
		RETURNING id, session_id, style, storage_path, public_url, created_at, updated_at
	`, uuid.New(), sessionID, string(style)).Scan(
		&photo.ID, &photo.SessionID, &photo.Style,
		&photo.StoragePath, &photo.PublicURL, &photo.CreatedAt, &photo.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ai photo: %w", err)
	}

	return &photo, nil
}

func (d *DatabaseClient) UpdateAIPhotoURL(photoID uuid.UUID, storagePath, publicURL string) (*models.AIPhoto, error) {
	var photo models.AIPhoto
	err := d.db.QueryRow(`
		UPDATE ai_photos
		SET storage_path = $1, public_url = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING id, session_id, style, storage_path, public_url, created_at, updated_at
	`, storagePath, publicURL, photoID).Scan(
		&photo.ID, &photo.SessionID, &photo.Style,
		&photo.StoragePath, &photo.PublicURL, &photo.CreatedAt, &photo.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update ai photo: %w", err)
	}

	return &photo, nil
}

func (d *DatabaseClient) GetSessionPhotos(sessionID, userID uuid.UUID) ([]models.AIPhoto, error) {
	rows, err := d.db.Query(`
		SELECT p.id, p.session_id, p.style, p.storage_path, p.public_url, p.created_at, p.updated_at
		FROM ai_photos p
		JOIN photo_sessions s ON s.id = p.session_id
		WHERE p.session_id = $1 AND s.user_id = $2
		ORDER BY p.created_at ASC
	`, sessionID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list session photos: %w", err)
	}
	defer rows.Close()

	var photos []models.AIPhoto
	for rows.Next() {
		var photo models.AIPhoto
		err := rows.Scan(
			&photo.ID, &photo.SessionID, &photo.Style,
			&photo.StoragePath, &photo.PublicURL, &photo.CreatedAt, &photo.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ai photo: %w", err)
		}
		photos = append(photos, photo)
	}

	return photos, nil
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}
