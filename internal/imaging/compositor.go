package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"

	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"
)

const (
	jpegQuality  = 90
	borderRatio  = 40 // border thickness is 1/40 of the longest edge
	logoRatio    = 5  // logo is scaled to 1/5 of the base width
	marginRatio  = 50 // logo offset from the bottom-right corner
	jpegMimeType = "image/jpeg"
)

// CompositeResult is the transient output of post-processing, consumed
// immediately by the storage upload step.
type CompositeResult struct {
	Data     []byte
	MimeType string
	Width    int
	Height   int
	HasLogo  bool
}

// Compositor post-processes generated images: merge the event logo when one
// is available, otherwise add a neutral border. Every step is best-effort,
// the degrade chain is merge, then border, then the unmodified image. A
// cosmetic failure must never lose an already-generated result.
type Compositor struct {
	logger *zap.Logger
}

func NewCompositor(logger *zap.Logger) *Compositor {
	return &Compositor{logger: logger}
}

// Composite produces the final raster for one generated image. logo may be
// nil when the event has no logo asset or its download failed upstream.
func (c *Compositor) Composite(generated []byte, logo []byte) *CompositeResult {
	base, _, err := image.Decode(bytes.NewReader(generated))
	if err != nil {
		if len(logo) > 0 {
			c.logger.Warn("Failed to merge logo", zap.Error(err))
		}
		c.logger.Warn("Failed to add border", zap.Error(err))
		return rawResult(generated)
	}

	var final image.Image
	hasLogo := false

	if len(logo) > 0 {
		merged, err := mergeLogo(base, logo)
		if err != nil {
			c.logger.Warn("Failed to merge logo", zap.Error(err))
		} else {
			final = merged
			hasLogo = true
		}
	}

	if final == nil {
		bordered, err := addBorder(base)
		if err != nil {
			c.logger.Warn("Failed to add border", zap.Error(err))
			final = base
		} else {
			final = bordered
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, final, &jpeg.Options{Quality: jpegQuality}); err != nil {
		c.logger.Warn("Failed to encode composited image", zap.Error(err))
		return rawResult(generated)
	}

	bounds := final.Bounds()
	return &CompositeResult{
		Data:     buf.Bytes(),
		MimeType: jpegMimeType,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		HasLogo:  hasLogo,
	}
}

func rawResult(generated []byte) *CompositeResult {
	return &CompositeResult{
		Data:     generated,
		MimeType: jpegMimeType,
	}
}

// mergeLogo scales the logo relative to the base image and draws it over the
// bottom-right corner.
func mergeLogo(base image.Image, logo []byte) (image.Image, error) {
	logoImg, _, err := image.Decode(bytes.NewReader(logo))
	if err != nil {
		return nil, fmt.Errorf("failed to decode logo: %w", err)
	}

	baseBounds := base.Bounds()
	logoBounds := logoImg.Bounds()
	if baseBounds.Empty() || logoBounds.Empty() {
		return nil, fmt.Errorf("cannot merge onto empty image")
	}

	targetWidth := baseBounds.Dx() / logoRatio
	if targetWidth < 1 {
		targetWidth = 1
	}
	targetHeight := targetWidth * logoBounds.Dy() / logoBounds.Dx()
	if targetHeight < 1 {
		targetHeight = 1
	}

	scaled := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), logoImg, logoBounds, xdraw.Over, nil)

	canvas := image.NewRGBA(baseBounds)
	draw.Draw(canvas, baseBounds, base, baseBounds.Min, draw.Src)

	margin := baseBounds.Dx() / marginRatio
	offset := image.Pt(
		baseBounds.Max.X-targetWidth-margin,
		baseBounds.Max.Y-targetHeight-margin,
	)
	draw.Draw(canvas, image.Rectangle{Min: offset, Max: offset.Add(scaled.Bounds().Size())},
		scaled, image.Point{}, draw.Over)

	return canvas, nil
}

// addBorder expands the canvas with a white frame around the image.
func addBorder(base image.Image) (image.Image, error) {
	bounds := base.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("cannot add border to empty image")
	}

	longest := bounds.Dx()
	if bounds.Dy() > longest {
		longest = bounds.Dy()
	}
	thickness := longest / borderRatio
	if thickness < 1 {
		thickness = 1
	}

	canvas := image.NewRGBA(image.Rect(0, 0, bounds.Dx()+2*thickness, bounds.Dy()+2*thickness))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(thickness, thickness, thickness+bounds.Dx(), thickness+bounds.Dy()),
		base, bounds.Min, draw.Src)

	return canvas, nil
}
