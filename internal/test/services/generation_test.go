package services_test

import (
	"database/sql"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"photobooth-backend/internal/imaging"
	"photobooth-backend/internal/leonardo"
	"photobooth-backend/internal/models"
	"photobooth-backend/internal/services"
)

type fakeGenClient struct {
	mu              sync.Mutex
	submittedStyles []models.Style
	uploadErr       error
	submitErr       map[models.Style]error
	waitErr         map[string]error
	downloadErr     map[string]error
}

func (f *fakeGenClient) UploadSource(data []byte, filename string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	return "asset-1", nil
}

func (f *fakeGenClient) SubmitGeneration(assetID string, style models.Style, isLandscape bool) (string, error) {
	f.mu.Lock()
	f.submittedStyles = append(f.submittedStyles, style)
	f.mu.Unlock()
	if err := f.submitErr[style]; err != nil {
		return "", err
	}
	return "gen-" + string(style), nil
}

func (f *fakeGenClient) WaitForResult(generationID string) (*leonardo.JobStatus, error) {
	if err := f.waitErr[generationID]; err != nil {
		return nil, err
	}
	return &leonardo.JobStatus{
		GenerationID: generationID,
		Status:       leonardo.StatusComplete,
		ResultURL:    "https://cdn.test/" + generationID + ".jpg",
	}, nil
}

func (f *fakeGenClient) DownloadImage(url string) ([]byte, error) {
	if err := f.downloadErr[url]; err != nil {
		return nil, err
	}
	return []byte("generated-bytes"), nil
}

func (f *fakeGenClient) RetryWithBackoff(fn func() error, maxRetries int) error {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if lastErr = fn(); lastErr == nil {
			return nil
		}
	}
	return lastErr
}

func (f *fakeGenClient) submitted() []models.Style {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Style(nil), f.submittedStyles...)
}

type fakePhotoStore struct {
	mu        sync.Mutex
	created   []models.Style
	updated   map[uuid.UUID]string
	createErr map[models.Style]error
	updateErr map[models.Style]error
	styleByID map[uuid.UUID]models.Style
}

func newFakePhotoStore() *fakePhotoStore {
	return &fakePhotoStore{
		updated:   make(map[uuid.UUID]string),
		styleByID: make(map[uuid.UUID]models.Style),
	}
}

func (f *fakePhotoStore) CreateAIPhoto(sessionID uuid.UUID, style models.Style) (*models.AIPhoto, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.createErr[style]; err != nil {
		return nil, err
	}
	photo := &models.AIPhoto{ID: uuid.New(), SessionID: sessionID, Style: style}
	f.created = append(f.created, style)
	f.styleByID[photo.ID] = style
	return photo, nil
}

func (f *fakePhotoStore) UpdateAIPhotoURL(photoID uuid.UUID, storagePath, publicURL string) (*models.AIPhoto, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	style := f.styleByID[photoID]
	if err := f.updateErr[style]; err != nil {
		return nil, err
	}
	f.updated[photoID] = storagePath
	return &models.AIPhoto{
		ID:          photoID,
		Style:       style,
		StoragePath: sql.NullString{String: storagePath, Valid: true},
		PublicURL:   sql.NullString{String: publicURL, Valid: true},
	}, nil
}

type fakeStorage struct {
	mu        sync.Mutex
	uploads   []models.Style
	uploadErr map[models.Style]error
	logoData  []byte
	logoErr   error
}

func (f *fakeStorage) UploadGeneratedPhoto(userID, sessionID uuid.UUID, style models.Style, data []byte) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.uploadErr[style]; err != nil {
		return "", "", err
	}
	f.uploads = append(f.uploads, style)
	path := fmt.Sprintf("users/u/sessions/s/%s.jpg", style)
	return path, "https://storage.test/" + path, nil
}

func (f *fakeStorage) DownloadEventLogo(logoPath string) ([]byte, error) {
	if f.logoErr != nil {
		return nil, f.logoErr
	}
	return f.logoData, nil
}

type fakeCompositor struct{}

func (fakeCompositor) Composite(generated []byte, logo []byte) *imaging.CompositeResult {
	return &imaging.CompositeResult{
		Data:     generated,
		MimeType: "image/jpeg",
		Width:    400,
		Height:   300,
		HasLogo:  len(logo) > 0,
	}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []string
}

func (f *fakePublisher) PublishSessionEvent(sessionID uuid.UUID, event string, payload map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func testInput() services.GenerationInput {
	userID := uuid.New()
	eventID := uuid.New()
	return services.GenerationInput{
		UserID: userID,
		Event:  &models.Event{ID: eventID, UserID: userID, Name: "Launch Party"},
		Session: &models.PhotoSession{
			ID:      uuid.New(),
			EventID: eventID,
			UserID:  userID,
			Status:  "in_progress",
		},
		ImageData:   []byte("source-bytes"),
		Filename:    "photo.jpg",
		IsLandscape: true,
	}
}

func newService(client *fakeGenClient, store *fakePhotoStore, storage *fakeStorage, publisher *fakePublisher, logger *zap.Logger) *services.GenerationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return services.NewGenerationService(client, store, storage, fakeCompositor{}, publisher, logger)
}

func TestGenerateStyledPhotos_Success(t *testing.T) {
	client := &fakeGenClient{}
	store := newFakePhotoStore()
	storage := &fakeStorage{}
	publisher := &fakePublisher{}
	svc := newService(client, store, storage, publisher, nil)

	resp, err := svc.GenerateStyledPhotos(testInput())

	require.NoError(t, err)
	assert.Equal(t, "asset-1", resp.ImageID)
	require.Len(t, resp.Images, 4)

	// One submission per style, and the aggregate preserves the fixed style
	// order regardless of goroutine completion order.
	assert.ElementsMatch(t, models.AllStyles, client.submitted())
	for i, style := range models.AllStyles {
		assert.Equal(t, style, resp.Images[i].Style)
		assert.Equal(t, "gen-"+string(style), resp.Images[i].GenerationID)
		assert.NotEmpty(t, resp.Images[i].StorageURL)
		assert.NotEmpty(t, resp.Images[i].PublicURL)
		assert.False(t, resp.Images[i].HasLogo)
	}

	assert.Contains(t, publisher.events, "generation_started")
	assert.Contains(t, publisher.events, "generation_completed")
}

func TestGenerateStyledPhotos_UploadFailureAbortsRequest(t *testing.T) {
	client := &fakeGenClient{uploadErr: assert.AnError}
	svc := newService(client, newFakePhotoStore(), &fakeStorage{}, &fakePublisher{}, nil)

	resp, err := svc.GenerateStyledPhotos(testInput())

	assert.Error(t, err)
	assert.Nil(t, resp)
	assert.Empty(t, client.submitted())
}

func TestGenerateStyledPhotos_GenerationFailureIsFatal(t *testing.T) {
	client := &fakeGenClient{
		waitErr: map[string]error{
			"gen-oil": fmt.Errorf("generation job gen-oil reported FAILED"),
		},
	}
	publisher := &fakePublisher{}
	svc := newService(client, newFakePhotoStore(), &fakeStorage{}, publisher, nil)

	resp, err := svc.GenerateStyledPhotos(testInput())

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, err.Error(), "Generation failed")
	// All four submissions still happen, the failure surfaces afterwards.
	assert.Len(t, client.submitted(), 4)
	assert.Contains(t, publisher.events, "generation_failed")
}

func TestGenerateStyledPhotos_StorageFailureDropsOnlyThatStyle(t *testing.T) {
	client := &fakeGenClient{}
	storage := &fakeStorage{
		uploadErr: map[models.Style]error{models.StyleWatercolor: assert.AnError},
	}
	svc := newService(client, newFakePhotoStore(), storage, &fakePublisher{}, nil)

	resp, err := svc.GenerateStyledPhotos(testInput())

	require.NoError(t, err)
	require.Len(t, resp.Images, 3)
	for _, img := range resp.Images {
		assert.NotEqual(t, models.StyleWatercolor, img.Style)
	}
}

func TestGenerateStyledPhotos_RecordUpdateFailureDropsOnlyThatStyle(t *testing.T) {
	client := &fakeGenClient{}
	store := newFakePhotoStore()
	store.updateErr = map[models.Style]error{models.StyleClassic: assert.AnError}
	svc := newService(client, store, &fakeStorage{}, &fakePublisher{}, nil)

	resp, err := svc.GenerateStyledPhotos(testInput())

	require.NoError(t, err)
	require.Len(t, resp.Images, 3)
	for _, img := range resp.Images {
		assert.NotEqual(t, models.StyleClassic, img.Style)
	}
}

func TestGenerateStyledPhotos_EventLogoApplied(t *testing.T) {
	client := &fakeGenClient{}
	storage := &fakeStorage{logoData: []byte("logo-bytes")}
	svc := newService(client, newFakePhotoStore(), storage, &fakePublisher{}, nil)

	input := testInput()
	input.Event.LogoPath = sql.NullString{String: "logos/event.png", Valid: true}

	resp, err := svc.GenerateStyledPhotos(input)

	require.NoError(t, err)
	require.Len(t, resp.Images, 4)
	for _, img := range resp.Images {
		assert.True(t, img.HasLogo)
	}
}

func TestGenerateStyledPhotos_LogoDownloadFailureDegrades(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	client := &fakeGenClient{}
	storage := &fakeStorage{logoErr: assert.AnError}
	svc := newService(client, newFakePhotoStore(), storage, &fakePublisher{}, zap.New(core))

	input := testInput()
	input.Event.LogoPath = sql.NullString{String: "logos/event.png", Valid: true}

	resp, err := svc.GenerateStyledPhotos(input)

	require.NoError(t, err)
	require.Len(t, resp.Images, 4)
	for _, img := range resp.Images {
		assert.False(t, img.HasLogo)
	}

	var messages []string
	for _, entry := range logs.All() {
		messages = append(messages, entry.Message)
	}
	assert.Contains(t, messages, "Failed to download logo")
}

func TestGenerateStyledPhotos_RecordCreatedBeforeUpdate(t *testing.T) {
	client := &fakeGenClient{}
	store := newFakePhotoStore()
	svc := newService(client, store, &fakeStorage{}, &fakePublisher{}, nil)

	_, err := svc.GenerateStyledPhotos(testInput())

	require.NoError(t, err)
	assert.ElementsMatch(t, models.AllStyles, store.created)
	assert.Len(t, store.updated, 4)
}
