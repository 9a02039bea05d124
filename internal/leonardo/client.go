package leonardo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"photobooth-backend/internal/models"
)

// Job status values reported by the generation API.
const (
	StatusPending  = "PENDING"
	StatusComplete = "COMPLETE"
	StatusFailed   = "FAILED"
)

const defaultExtension = "jpg"

// Options configures the Leonardo client. Sleep exists so tests can drive the
// poll loop without real timers.
type Options struct {
	BaseURL         string
	APIKey          string
	HTTPClient      *http.Client
	Logger          *zap.Logger
	PollInterval    time.Duration
	MaxPollAttempts int
	Sleep           func(time.Duration)
}

type Client struct {
	baseURL         string
	apiKey          string
	httpClient      *http.Client
	logger          *zap.Logger
	pollInterval    time.Duration
	maxPollAttempts int
	sleep           func(time.Duration)
}

// JobStatus is the normalized result of one status poll.
type JobStatus struct {
	GenerationID string
	Status       string
	ResultURL    string
}

type initImageIn struct {
	Extension string `json:"extension"`
}

type initImageOut struct {
	ID        string `json:"id"`
	UploadURL string `json:"upload_url"`
}

type generationIn struct {
	InitImageID string `json:"init_image_id"`
	Prompt      string `json:"prompt"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	NumImages   int    `json:"num_images"`
}

type generationOut struct {
	GenerationID string `json:"generation_id"`
}

type generationStatusOut struct {
	GenerationID string `json:"generation_id"`
	Status       string `json:"status"`
	Images       []struct {
		URL string `json:"url"`
	} `json:"images"`
}

var stylePrompts = map[models.Style]string{
	models.StyleAnime:      "anime style portrait, vibrant cel shading, clean line art",
	models.StyleWatercolor: "soft watercolor painting, delicate washes, paper texture",
	models.StyleOil:        "classical oil painting, rich impasto brushwork, warm palette",
	models.StyleClassic:    "timeless studio portrait, film grain, elegant lighting",
}

func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}
	maxPollAttempts := opts.MaxPollAttempts
	if maxPollAttempts <= 0 {
		maxPollAttempts = 100
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	return &Client{
		baseURL:         strings.TrimSuffix(opts.BaseURL, "/"),
		apiKey:          opts.APIKey,
		httpClient:      httpClient,
		logger:          logger,
		pollInterval:    pollInterval,
		maxPollAttempts: maxPollAttempts,
		sleep:           sleep,
	}
}

// ExtensionFromFilename derives the asset extension from an uploaded
// filename: the substring after the last dot, lowercased. An absent name, a
// name without a dot, or an empty suffix all default to jpg. A leading-dot
// name like ".hidden" yields "hidden", matching the established upload
// behavior this service must keep.
func ExtensionFromFilename(filename string) string {
	if filename == "" {
		return defaultExtension
	}
	idx := strings.LastIndex(filename, ".")
	if idx == -1 {
		return defaultExtension
	}
	ext := filename[idx+1:]
	if ext == "" {
		return defaultExtension
	}
	return strings.ToLower(ext)
}

// UploadSource registers the source photo as an init image and uploads its
// bytes, returning the external asset id shared by all style submissions.
func (c *Client) UploadSource(data []byte, filename string) (string, error) {
	reqBody := initImageIn{Extension: ExtensionFromFilename(filename)}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/init-image"
	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to create init image: status %d, body: %s", resp.StatusCode, string(body))
	}

	var result initImageOut
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w, body: %s", err, string(body))
	}

	if result.UploadURL == "" {
		return "", fmt.Errorf("init image response did not include an upload url")
	}

	if err := c.uploadFile(result.UploadURL, data); err != nil {
		return "", err
	}

	return result.ID, nil
}

func (c *Client) uploadFile(uploadURL string, data []byte) error {
	req, err := http.NewRequest("PUT", uploadURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to upload source image: status %d, body: %s", resp.StatusCode, string(body))
	}

	return nil
}

// SubmitGeneration creates one generation job for the given style against an
// already-uploaded init image.
func (c *Client) SubmitGeneration(assetID string, style models.Style, isLandscape bool) (string, error) {
	width, height := dimensionsFor(isLandscape)
	reqBody := generationIn{
		InitImageID: assetID,
		Prompt:      stylePrompts[style],
		Width:       width,
		Height:      height,
		NumImages:   1,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/generations"
	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to submit generation: status %d, body: %s", resp.StatusCode, string(body))
	}

	var result generationOut
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w, body: %s", err, string(body))
	}

	return result.GenerationID, nil
}

// PollStatus fetches the current status of a generation job.
func (c *Client) PollStatus(generationID string) (*JobStatus, error) {
	url := c.baseURL + "/generations/" + generationID
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to poll generation: status %d, body: %s", resp.StatusCode, string(body))
	}

	var result generationStatusOut
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w, body: %s", err, string(body))
	}

	status := &JobStatus{
		GenerationID: generationID,
		Status:       result.Status,
	}
	if len(result.Images) > 0 {
		status.ResultURL = result.Images[0].URL
	}
	return status, nil
}

// WaitForResult polls a job with a fixed inter-poll delay until it reaches a
// terminal status. The attempt cap bounds the otherwise open-ended wait, and
// exhaustion is treated the same as a failed job.
func (c *Client) WaitForResult(generationID string) (*JobStatus, error) {
	for attempt := 0; attempt < c.maxPollAttempts; attempt++ {
		if attempt > 0 {
			c.sleep(c.pollInterval)
		}

		status, err := c.PollStatus(generationID)
		if err != nil {
			return nil, err
		}

		switch status.Status {
		case StatusComplete:
			if status.ResultURL == "" {
				return nil, fmt.Errorf("generation job %s completed without a result url", generationID)
			}
			return status, nil
		case StatusFailed:
			return nil, fmt.Errorf("generation job %s reported FAILED", generationID)
		}

		c.logger.Debug("generation job still pending",
			zap.String("generation_id", generationID),
			zap.Int("attempt", attempt+1))
	}

	return nil, fmt.Errorf("generation job %s did not complete after %d attempts", generationID, c.maxPollAttempts)
}

// DownloadImage fetches the generated image bytes from the result url.
func (c *Client) DownloadImage(url string) ([]byte, error) {
	resp, err := c.httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("failed to download generated image: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

// RetryWithBackoff executes a function with exponential backoff retry logic.
func (c *Client) RetryWithBackoff(fn func() error, maxRetries int) error {
	backoffs := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		if i < len(backoffs) {
			c.sleep(backoffs[i])
		}
	}

	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}

func dimensionsFor(isLandscape bool) (int, int) {
	if isLandscape {
		return 1024, 768
	}
	return 768, 1024
}
