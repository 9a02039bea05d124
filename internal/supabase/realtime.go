package supabase

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/supabase-community/supabase-go"

	"photobooth-backend/internal/models"
)

type RealtimeClient struct {
	client *supabase.Client
}

func NewRealtimeClient(client *supabase.Client) *RealtimeClient {
	return &RealtimeClient{
		client: client,
	}
}

func (r *RealtimeClient) PublishEvent(channel string, event string, payload map[string]interface{}) error {
	// Note: Supabase Go client doesn't have direct Realtime publish.
	// Database updates trigger Realtime automatically; this wrapper keeps the
	// extension point for explicit event publishing via the Realtime REST API.
	return nil
}

func (r *RealtimeClient) PublishSessionEvent(sessionID uuid.UUID, event string, payload map[string]interface{}) error {
	channel := fmt.Sprintf("session:%s", sessionID.String())
	return r.PublishEvent(channel, event, payload)
}

// Event payloads
func GenerationStartedPayload(sessionID uuid.UUID, styleCount int) map[string]interface{} {
	return map[string]interface{}{
		"session_id":  sessionID.String(),
		"status":      "generating",
		"style_count": styleCount,
	}
}

func StyleCompletedPayload(sessionID uuid.UUID, style models.Style, publicURL string) map[string]interface{} {
	return map[string]interface{}{
		"session_id": sessionID.String(),
		"style":      string(style),
		"public_url": publicURL,
	}
}

func GenerationCompletedPayload(sessionID uuid.UUID, photoCount int) map[string]interface{} {
	return map[string]interface{}{
		"session_id":  sessionID.String(),
		"status":      "completed",
		"photo_count": photoCount,
	}
}

func GenerationFailedPayload(sessionID uuid.UUID, errorMsg string) map[string]interface{} {
	return map[string]interface{}{
		"session_id": sessionID.String(),
		"status":     "failed",
		"error":      errorMsg,
	}
}
