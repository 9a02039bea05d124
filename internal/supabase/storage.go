package supabase

import (
	"bytes"
	"fmt"
	"time"

	"github.com/google/uuid"
	storage "github.com/supabase-community/storage-go"

	"photobooth-backend/internal/models"
)

type StorageClient struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

func NewStorageClient(supabaseURL, serviceRoleKey, bucket string) (*StorageClient, error) {
	// Ensure URL doesn't have trailing slash
	baseURL := supabaseURL
	if len(baseURL) > 0 && baseURL[len(baseURL)-1] == '/' {
		baseURL = baseURL[:len(baseURL)-1]
	}
	client := storage.NewClient(baseURL+"/storage/v1", serviceRoleKey, nil)

	return &StorageClient{
		client:  client,
		bucket:  bucket,
		baseURL: baseURL,
	}, nil
}

// UploadGeneratedPhoto stores one style's final bytes under a per-session
// path owned exclusively by that style's pipeline and returns the storage
// path plus its public URL.
func (s *StorageClient) UploadGeneratedPhoto(userID, sessionID uuid.UUID, style models.Style, data []byte) (string, string, error) {
	filename := fmt.Sprintf("%s_%s.jpg", style, time.Now().Format("20060102_150405"))
	storagePath := fmt.Sprintf("users/%s/sessions/%s/%s", userID.String(), sessionID.String(), filename)

	contentType := "image/jpeg"
	upsert := true
	_, err := s.client.UploadFile(s.bucket, storagePath, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to upload generated photo: %w", err)
	}

	return storagePath, s.GetPublicURL(storagePath), nil
}

func (s *StorageClient) GetPublicURL(storagePath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s",
		s.baseURL, s.bucket, storagePath)
}

// DownloadEventLogo fetches an event's logo asset for compositing.
func (s *StorageClient) DownloadEventLogo(logoPath string) ([]byte, error) {
	data, err := s.client.DownloadFile(s.bucket, logoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to download logo: %w", err)
	}

	return data, nil
}

func (s *StorageClient) DeleteFile(storagePath string) error {
	_, err := s.client.RemoveFile(s.bucket, []string{storagePath})
	return err
}

// DeleteSessionFiles removes every stored photo for one session.
func (s *StorageClient) DeleteSessionFiles(userID, sessionID uuid.UUID) error {
	prefix := fmt.Sprintf("users/%s/sessions/%s/", userID.String(), sessionID.String())

	files, err := s.client.ListFiles(s.bucket, prefix, storage.FileSearchOptions{
		Limit: 1000,
	})
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}

	if len(files) > 0 {
		filePaths := make([]string, len(files))
		for i, file := range files {
			filePaths[i] = file.Name
		}
		_, err = s.client.RemoveFile(s.bucket, filePaths)
		if err != nil {
			return fmt.Errorf("failed to delete files: %w", err)
		}
	}

	return nil
}
