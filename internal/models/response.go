package models

import "time"

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// GenerateResponse is the aggregate returned once the whole style batch
// completes. Images holds one entry per style that finished the full
// download-composite-upload-record chain, in fixed style order.
type GenerateResponse struct {
	ImageID   string        `json:"imageId"`
	SessionID string        `json:"sessionId"`
	EventID   string        `json:"eventId"`
	Images    []StyledImage `json:"images"`
}

type StyledImage struct {
	AIPhotoID    string `json:"aiPhotoId"`
	Style        Style  `json:"style"`
	StorageURL   string `json:"storageUrl"`
	PublicURL    string `json:"publicUrl"`
	GenerationID string `json:"generationId"`
	HasLogo      bool   `json:"hasLogo"`
}

type SessionPhotosResponse struct {
	Photos []SessionPhoto `json:"photos"`
}

type SessionPhoto struct {
	ID          string    `json:"id"`
	Style       Style     `json:"style"`
	StoragePath string    `json:"storage_path,omitempty"`
	PublicURL   string    `json:"public_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
