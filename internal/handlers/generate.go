package handlers

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"photobooth-backend/internal/imaging"
	"photobooth-backend/internal/middleware"
	"photobooth-backend/internal/models"
	"photobooth-backend/internal/services"
)

// EventStore resolves ownership of the event and session before any
// generation work starts.
type EventStore interface {
	GetEvent(eventID, userID uuid.UUID) (*models.Event, error)
	GetPhotoSession(sessionID, userID uuid.UUID) (*models.PhotoSession, error)
}

type Generator interface {
	GenerateStyledPhotos(input services.GenerationInput) (*models.GenerateResponse, error)
}

type GenerateHandler struct {
	store     EventStore
	generator Generator
}

func NewGenerateHandler(store EventStore, generator Generator) *GenerateHandler {
	return &GenerateHandler{
		store:     store,
		generator: generator,
	}
}

// Generate godoc
// @Summary     Generate styled photos
// @Description Takes one source photo and produces four styled derivatives via the Leonardo generation API, composited with the event logo or a border and stored durably.
// @Tags        photos
// @Accept      multipart/form-data
// @Produce     json
// @Security    Bearer
// @Param       eventId formData string true "Event ID (UUID)"
// @Param       sessionId formData string true "Photo session ID (UUID)"
// @Param       image formData file true "Source photo"
// @Success     200 {object} models.GenerateResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /photos/generate [post]
func (h *GenerateHandler) Generate(c *gin.Context) {
	userIDStr, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found", Code: "UNAUTHORIZED"})
		return
	}

	userID, err := uuid.Parse(userIDStr.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid user id", Code: "INVALID_USER_ID"})
		return
	}

	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to parse multipart form",
			Message: err.Error(),
			Code:    "INVALID_FORM",
		})
		return
	}

	// The image check comes before the identifier pair, the first missing
	// field determines the error message.
	file := sourceImageFile(c.Request.MultipartForm)
	if file == nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "Image is required",
			Code:  "IMAGE_REQUIRED",
		})
		return
	}

	eventIDStr := c.PostForm("eventId")
	sessionIDStr := c.PostForm("sessionId")
	if eventIDStr == "" || sessionIDStr == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "Event ID and Session ID are required",
			Code:  "IDS_REQUIRED",
		})
		return
	}

	eventID, err := uuid.Parse(eventIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid event id", Code: "INVALID_EVENT_ID"})
		return
	}

	sessionID, err := uuid.Parse(sessionIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid session id", Code: "INVALID_SESSION_ID"})
		return
	}

	event, err := h.store.GetEvent(eventID, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "Event not found",
			Message: err.Error(),
			Code:    "EVENT_NOT_FOUND",
		})
		return
	}

	session, err := h.store.GetPhotoSession(sessionID, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "Photo session not found",
			Message: err.Error(),
			Code:    "SESSION_NOT_FOUND",
		})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to open uploaded image",
			Message: err.Error(),
			Code:    "INVALID_IMAGE",
		})
		return
	}
	data, err := io.ReadAll(src)
	src.Close()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to read uploaded image",
			Message: err.Error(),
			Code:    "INVALID_IMAGE",
		})
		return
	}

	meta, err := imaging.Inspect(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid image",
			Message: err.Error(),
			Code:    "INVALID_IMAGE",
		})
		return
	}

	response, err := h.generator.GenerateStyledPhotos(services.GenerationInput{
		UserID:      userID,
		Event:       event,
		Session:     session,
		ImageData:   data,
		Filename:    file.Filename,
		IsLandscape: meta.IsLandscape(),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to generate photos",
			Message: err.Error(),
			Code:    "GENERATION_FAILED",
		})
		return
	}

	c.JSON(http.StatusOK, response)
}

func sourceImageFile(form *multipart.Form) *multipart.FileHeader {
	if form == nil {
		return nil
	}
	fieldNames := []string{"image", "photo", "file"}
	for _, fieldName := range fieldNames {
		if f := form.File[fieldName]; len(f) > 0 {
			return f[0]
		}
	}
	return nil
}
