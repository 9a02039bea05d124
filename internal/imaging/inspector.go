package imaging

import (
	"bytes"
	"fmt"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// Metadata holds the dimensions extracted from an uploaded image. Either
// dimension may be absent when the decoder could not determine it.
type Metadata struct {
	Width  *int
	Height *int
}

// Inspect extracts width and height from raw image bytes. A corrupt or
// unsupported image is a validation failure, the request must abort before
// any generation job is submitted.
func Inspect(data []byte) (*Metadata, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to read image metadata: %w", err)
	}

	width := cfg.Width
	height := cfg.Height
	return &Metadata{Width: &width, Height: &height}, nil
}

// IsLandscape applies the orientation policy. Width presence is authoritative
// over height: a missing width means not landscape, a missing height with a
// present width means landscape, equal dimensions are not landscape.
func (m *Metadata) IsLandscape() bool {
	if m == nil || m.Width == nil {
		return false
	}
	if m.Height == nil {
		return true
	}
	return *m.Width > *m.Height
}
