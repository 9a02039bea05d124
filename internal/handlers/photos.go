package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"photobooth-backend/internal/middleware"
	"photobooth-backend/internal/models"
)

type SessionPhotoStore interface {
	GetSessionPhotos(sessionID, userID uuid.UUID) ([]models.AIPhoto, error)
}

type PhotosHandler struct {
	store SessionPhotoStore
}

func NewPhotosHandler(store SessionPhotoStore) *PhotosHandler {
	return &PhotosHandler{
		store: store,
	}
}

// GetSessionPhotos godoc
// @Summary     Get session photos
// @Description Returns the styled photo records for a photo session, including storage paths for every style whose pipeline completed
// @Tags        photos
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       session_id path string true "Photo session ID (UUID)"
// @Success     200 {object} models.SessionPhotosResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /sessions/{session_id}/photos [get]
func (h *PhotosHandler) GetSessionPhotos(c *gin.Context) {
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

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid session id", Code: "INVALID_SESSION_ID"})
		return
	}

	photos, err := h.store.GetSessionPhotos(sessionID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to get session photos",
			Message: err.Error(),
			Code:    "PHOTOS_LOOKUP_FAILED",
		})
		return
	}

	photoResponses := make([]models.SessionPhoto, len(photos))
	for i, photo := range photos {
		resp := models.SessionPhoto{
			ID:        photo.ID.String(),
			Style:     photo.Style,
			CreatedAt: photo.CreatedAt,
		}
		if photo.StoragePath.Valid {
			resp.StoragePath = photo.StoragePath.String
		}
		if photo.PublicURL.Valid {
			resp.PublicURL = photo.PublicURL.String
		}
		photoResponses[i] = resp
	}

	c.JSON(http.StatusOK, models.SessionPhotosResponse{Photos: photoResponses})
}
