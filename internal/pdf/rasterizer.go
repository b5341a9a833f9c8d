package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	"github.com/visionmark/visionmark/internal/domain"
	"github.com/visionmark/visionmark/internal/observability"
)

// Rasterizer renders document pages into PNG-encoded buffers.
type Rasterizer struct {
	cfg    domain.PageConfig
	logger *observability.Logger
}

// NewRasterizer creates a rasterizer for the given page settings.
func NewRasterizer(cfg domain.PageConfig, logger *observability.Logger) *Rasterizer {
	if logger == nil {
		logger = observability.Nop()
	}
	logger = logger.WithComponent("rasterizer")
	// MuPDF renders annotations unconditionally; the flag exists for config
	// compatibility with sources that can exclude them.
	if !cfg.IncludeAnnotations {
		logger.Warn().Msg("annotation exclusion is not supported by the renderer; annotations will be included")
	}
	return &Rasterizer{
		cfg:    cfg,
		logger: logger,
	}
}

// renderDPI computes the effective render resolution from the target DPI.
// The zoom factor is dpi/72 and the transform doubles it on both axes, so
// pages render at twice the nominal DPI. Downstream extraction quality is
// tuned against this oversampling; do not change it without revalidating.
func renderDPI(dpi int) float64 {
	zoom := float64(dpi) / 72
	return 72 * zoom * 2
}

// Render rasterizes one page into a PNG buffer, honoring the configured
// color space and transparency flags. MuPDF applies the page's intrinsic
// rotation and renders annotations as part of its page transform. The native
// rendering resources are scoped to the call.
func (r *Rasterizer) Render(doc *Document, pageIndex int) (*domain.RasterImage, error) {
	if pageIndex < 0 || pageIndex >= doc.pageCount {
		return nil, domain.PageConversionError(pageIndex, "page index out of range", nil)
	}

	img, err := doc.doc.ImageDPI(pageIndex, renderDPI(r.cfg.DPI))
	if err != nil {
		return nil, domain.PageConversionError(pageIndex, "failed to render page", err)
	}

	encoded, err := encodePage(img, r.cfg)
	if err != nil {
		return nil, domain.PageConversionError(pageIndex, "failed to encode page as PNG", err)
	}

	bounds := img.Bounds()
	return &domain.RasterImage{
		PageIndex: pageIndex,
		PNG:       encoded,
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
	}, nil
}

// encodePage applies the configured color space and transparency handling
// and PNG-encodes the result.
func encodePage(img image.Image, cfg domain.PageConfig) ([]byte, error) {
	var out image.Image = img

	if !cfg.PreserveTransparency {
		out = flattenAlpha(out)
	}
	if strings.EqualFold(cfg.ColorSpace, "gray") {
		out = toGray(out)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("png encode: %w", err)
	}
	return buf.Bytes(), nil
}

// flattenAlpha composites the image onto a white background, dropping the
// alpha channel.
func flattenAlpha(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	flat := image.NewRGBA(bounds)
	draw.Draw(flat, bounds, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(flat, bounds, img, bounds.Min, draw.Over)
	return flat
}

// toGray converts the image to 8-bit grayscale.
func toGray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, img, bounds.Min, draw.Src)
	return gray
}
