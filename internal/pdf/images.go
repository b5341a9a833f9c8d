package pdf

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/visionmark/visionmark/internal/domain"
	"github.com/visionmark/visionmark/internal/observability"
)

// ImageExtractor pulls embedded bitmap images out of a document's pages and
// encodes them as stable file locators or inline data URIs.
type ImageExtractor struct {
	doc    *Document
	outDir string
	// mu serializes access to the underlying PDF reader, which caches
	// objects in an unguarded map and seeks a shared file handle.
	mu     sync.Mutex
	logger *observability.Logger
}

// NewImageExtractor creates an extractor bound to an open document. outDir
// is where url-mode images are written.
func NewImageExtractor(doc *Document, outDir string, logger *observability.Logger) *ImageExtractor {
	if logger == nil {
		logger = observability.Nop()
	}
	if outDir == "" {
		outDir = "extracted_images"
	}
	return &ImageExtractor{
		doc:    doc,
		outDir: outDir,
		logger: logger.WithComponent("images"),
	}
}

// Extract returns the embedded images of a page encoded for the given mode.
// For PDF inputs the page's image XObjects are decoded and re-encoded as
// PNG; a standalone image input yields its own page raster. Returns an empty
// list when the mode is unset or nothing is found.
func (e *ImageExtractor) Extract(raster *domain.RasterImage, mode domain.ImageMode, pageIndex int) ([]domain.ExtractedImage, error) {
	if mode == domain.ImageModeNone {
		return nil, nil
	}

	var pngs [][]byte
	switch {
	case e.doc.pages != nil:
		var err error
		pngs, err = e.embeddedImages(pageIndex)
		if err != nil {
			return nil, err
		}
	case e.doc.kind == KindImage && raster != nil:
		// The input itself is the embedded image.
		pngs = [][]byte{raster.PNG}
	}

	return encodeImages(pngs, mode, pageIndex, e.outDir)
}

// embeddedImages decodes the image XObjects of one PDF page into PNG buffers.
// Undecodable images are skipped. Concurrent page extractions share one
// reader, so the whole read is done under the lock.
func (e *ImageExtractor) embeddedImages(pageIndex int) ([][]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	page, err := e.doc.pages.GetPage(pageIndex)
	if err != nil {
		return nil, domain.PageConversionError(pageIndex, "failed to load page for image extraction", err)
	}

	images, err := e.doc.pages.ExtractPageImages(page)
	if err != nil {
		return nil, domain.PageConversionError(pageIndex, "failed to extract page images", err)
	}

	pngs := make([][]byte, 0, len(images))
	for _, img := range images {
		data, err := img.ToPNG()
		if err != nil {
			e.logger.Debug().Err(err).Int("page", pageIndex).Str("xobject", img.Name).
				Msg("skipping undecodable embedded image")
			continue
		}
		pngs = append(pngs, data)
	}
	return pngs, nil
}

// encodeImages turns raw PNG buffers into ExtractedImage values. In url mode
// each image is written under outDir with a deterministic per-page,
// per-image name; in base64 mode the bytes are inlined as a data URI.
func encodeImages(pngs [][]byte, mode domain.ImageMode, pageIndex int, outDir string) ([]domain.ExtractedImage, error) {
	if len(pngs) == 0 {
		return nil, nil
	}

	out := make([]domain.ExtractedImage, 0, len(pngs))
	for i, data := range pngs {
		name := fmt.Sprintf("page_%d_img_%d.png", pageIndex+1, i+1)

		switch mode {
		case domain.ImageModeURL:
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return nil, domain.PageConversionError(pageIndex, "failed to create image output directory", err)
			}
			locator := filepath.Join(outDir, name)
			if err := os.WriteFile(locator, data, 0o644); err != nil {
				return nil, domain.PageConversionError(pageIndex, "failed to write extracted image", err)
			}
			out = append(out, domain.ExtractedImage{
				PageIndex: pageIndex,
				Mode:      mode,
				Locator:   locator,
			})
		case domain.ImageModeBase64:
			out = append(out, domain.ExtractedImage{
				PageIndex: pageIndex,
				Mode:      mode,
				Locator:   name,
				Payload:   "data:image/png;base64," + base64.StdEncoding.EncodeToString(data),
			})
		}
	}
	return out, nil
}
