package services

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"photobooth-backend/internal/imaging"
	"photobooth-backend/internal/leonardo"
	"photobooth-backend/internal/models"
	"photobooth-backend/internal/supabase"
)

// GenerationClient is the slice of the Leonardo client the orchestrator needs.
type GenerationClient interface {
	UploadSource(data []byte, filename string) (string, error)
	SubmitGeneration(assetID string, style models.Style, isLandscape bool) (string, error)
	WaitForResult(generationID string) (*leonardo.JobStatus, error)
	DownloadImage(url string) ([]byte, error)
	RetryWithBackoff(fn func() error, maxRetries int) error
}

type PhotoStore interface {
	CreateAIPhoto(sessionID uuid.UUID, style models.Style) (*models.AIPhoto, error)
	UpdateAIPhotoURL(photoID uuid.UUID, storagePath, publicURL string) (*models.AIPhoto, error)
}

type PhotoStorage interface {
	UploadGeneratedPhoto(userID, sessionID uuid.UUID, style models.Style, data []byte) (string, string, error)
	DownloadEventLogo(logoPath string) ([]byte, error)
}

type Compositor interface {
	Composite(generated []byte, logo []byte) *imaging.CompositeResult
}

type EventPublisher interface {
	PublishSessionEvent(sessionID uuid.UUID, event string, payload map[string]interface{}) error
}

// GenerationInput carries one validated request through the pipeline. The
// caller has already verified ownership of the event and session.
type GenerationInput struct {
	UserID      uuid.UUID
	Event       *models.Event
	Session     *models.PhotoSession
	ImageData   []byte
	Filename    string
	IsLandscape bool
}

// GenerationService fans one source photo out into four styled derivatives.
// The source is uploaded once and shared read-only across styles; each
// style's pipeline owns its record and storage path exclusively, so no
// locking is needed across the goroutines.
type GenerationService struct {
	client     GenerationClient
	photos     PhotoStore
	storage    PhotoStorage
	compositor Compositor
	realtime   EventPublisher
	logger     *zap.Logger
}

func NewGenerationService(
	client GenerationClient,
	photos PhotoStore,
	storage PhotoStorage,
	compositor Compositor,
	realtime EventPublisher,
	logger *zap.Logger,
) *GenerationService {
	return &GenerationService{
		client:     client,
		photos:     photos,
		storage:    storage,
		compositor: compositor,
		realtime:   realtime,
		logger:     logger,
	}
}

// styleOutcome separates the two failure domains: genErr covers submit, poll
// and result download and is fatal for the whole request; pipelineErr covers
// composite, upload and record and only drops the one style.
type styleOutcome struct {
	image       *models.StyledImage
	genErr      error
	pipelineErr error
}

// GenerateStyledPhotos runs the full batch and returns the aggregate in fixed
// style order. A generation failure on any style fails the whole request;
// post-generation failures are collected per style and the remaining styles
// still appear in the response.
func (s *GenerationService) GenerateStyledPhotos(input GenerationInput) (*models.GenerateResponse, error) {
	var assetID string
	err := s.client.RetryWithBackoff(func() error {
		var err error
		assetID, err = s.client.UploadSource(input.ImageData, input.Filename)
		return err
	}, 3)
	if err != nil {
		return nil, fmt.Errorf("failed to upload source image: %w", err)
	}

	// The logo is shared read-only by all styles, fetch it once. A download
	// failure degrades every style to the border path.
	var logoData []byte
	if input.Event.HasLogo() {
		logoData, err = s.storage.DownloadEventLogo(input.Event.LogoPath.String)
		if err != nil {
			s.logger.Warn("Failed to download logo",
				zap.String("logo_path", input.Event.LogoPath.String),
				zap.Error(err))
			logoData = nil
		}
	}

	s.realtime.PublishSessionEvent(input.Session.ID, "generation_started",
		supabase.GenerationStartedPayload(input.Session.ID, len(models.AllStyles)))

	outcomes := make([]styleOutcome, len(models.AllStyles))
	var wg sync.WaitGroup
	for i, style := range models.AllStyles {
		wg.Add(1)
		go func(i int, style models.Style) {
			defer wg.Done()
			outcomes[i] = s.runStyle(input, assetID, style, logoData)
		}(i, style)
	}
	wg.Wait()

	for _, outcome := range outcomes {
		if outcome.genErr != nil {
			err := fmt.Errorf("Generation failed: %w", outcome.genErr)
			s.realtime.PublishSessionEvent(input.Session.ID, "generation_failed",
				supabase.GenerationFailedPayload(input.Session.ID, err.Error()))
			return nil, err
		}
	}

	images := make([]models.StyledImage, 0, len(outcomes))
	for _, outcome := range outcomes {
		if outcome.image != nil {
			images = append(images, *outcome.image)
		}
	}

	s.realtime.PublishSessionEvent(input.Session.ID, "generation_completed",
		supabase.GenerationCompletedPayload(input.Session.ID, len(images)))

	return &models.GenerateResponse{
		ImageID:   assetID,
		SessionID: input.Session.ID.String(),
		EventID:   input.Event.ID.String(),
		Images:    images,
	}, nil
}

func (s *GenerationService) runStyle(input GenerationInput, assetID string, style models.Style, logoData []byte) styleOutcome {
	log := s.logger.With(
		zap.String("session_id", input.Session.ID.String()),
		zap.String("style", string(style)))

	record, err := s.photos.CreateAIPhoto(input.Session.ID, style)
	if err != nil {
		log.Warn("failed to create photo record", zap.Error(err))
		return styleOutcome{pipelineErr: err}
	}

	var generationID string
	err = s.client.RetryWithBackoff(func() error {
		var err error
		generationID, err = s.client.SubmitGeneration(assetID, style, input.IsLandscape)
		return err
	}, 3)
	if err != nil {
		return styleOutcome{genErr: err}
	}

	status, err := s.client.WaitForResult(generationID)
	if err != nil {
		return styleOutcome{genErr: err}
	}

	generated, err := s.client.DownloadImage(status.ResultURL)
	if err != nil {
		return styleOutcome{genErr: err}
	}

	composite := s.compositor.Composite(generated, logoData)
	log.Info("style composited",
		zap.Int("width", composite.Width),
		zap.Int("height", composite.Height),
		zap.Bool("has_logo", composite.HasLogo))

	storagePath, publicURL, err := s.storage.UploadGeneratedPhoto(
		input.UserID, input.Session.ID, style, composite.Data)
	if err != nil {
		log.Warn("failed to store generated photo", zap.Error(err))
		return styleOutcome{pipelineErr: err}
	}

	updated, err := s.photos.UpdateAIPhotoURL(record.ID, storagePath, publicURL)
	if err != nil {
		log.Warn("failed to update photo record", zap.Error(err))
		return styleOutcome{pipelineErr: err}
	}

	s.realtime.PublishSessionEvent(input.Session.ID, "style_completed",
		supabase.StyleCompletedPayload(input.Session.ID, style, publicURL))

	return styleOutcome{image: &models.StyledImage{
		AIPhotoID:    updated.ID.String(),
		Style:        style,
		StorageURL:   storagePath,
		PublicURL:    publicURL,
		GenerationID: generationID,
		HasLogo:      composite.HasLogo,
	}}
}
