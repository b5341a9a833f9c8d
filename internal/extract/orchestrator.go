// Package extract orchestrates per-page markdown extraction and schedules
// it across a document.
package extract

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/visionmark/visionmark/internal/domain"
	"github.com/visionmark/visionmark/internal/llm"
	"github.com/visionmark/visionmark/internal/observability"
)

// ImageExtractor pulls embedded images out of a rendered page.
type ImageExtractor interface {
	Extract(raster *domain.RasterImage, mode domain.ImageMode, pageIndex int) ([]domain.ExtractedImage, error)
}

// Options carries the extraction settings for a run.
type Options struct {
	DetailedExtraction bool
	ImageMode          domain.ImageMode
	CustomPrompt       string
}

// Orchestrator runs the per-page extraction pipeline: optional structured
// analysis, embedded-image extraction, prompt construction, markdown
// generation, and final assembly.
//
// A failed analysis flips the orchestrator into simple-mode extraction for
// the remainder of the run. Concurrent pages may race to set the flag; the
// set is idempotent, so the race is benign.
type Orchestrator struct {
	model    llm.VisionModel
	images   ImageExtractor
	opts     Options
	fallback atomic.Bool
	logger   *observability.Logger
}

// NewOrchestrator creates an orchestrator. images may be nil when no
// image-inclusion mode is configured.
func NewOrchestrator(model llm.VisionModel, images ImageExtractor, opts Options, logger *observability.Logger) *Orchestrator {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Orchestrator{
		model:  model,
		images: images,
		opts:   opts,
		logger: logger.WithComponent("extract"),
	}
}

// detailed reports whether this run still performs structured analysis.
func (o *Orchestrator) detailed() bool {
	return o.opts.DetailedExtraction && !o.fallback.Load()
}

// enterFallback switches the run to simple-mode extraction. The flip is
// sticky for the rest of the run.
func (o *Orchestrator) enterFallback(pageIndex int, cause error) {
	o.logger.Warn().Err(cause).Int("page", pageIndex).
		Msg("detailed extraction failed, falling back to simple extraction")
	o.fallback.Store(true)
}

// ExtractPage converts one rendered page into a PageResult.
func (o *Orchestrator) ExtractPage(ctx context.Context, raster *domain.RasterImage) (domain.PageResult, error) {
	pageIndex := raster.PageIndex

	var desc *domain.ImageDescription
	var extracted []domain.ExtractedImage

	if o.detailed() {
		analyzed, err := o.model.StructuredCall(ctx, raster.PNG, llm.AnalysisPrompt())
		switch {
		case err != nil:
			o.enterFallback(pageIndex, err)
		case !analyzed.HasText():
			// Nothing to transcribe; no markdown call, no image extraction.
			return domain.PageResult{PageIndex: pageIndex}, nil
		default:
			desc = analyzed
			if analyzed.HasImages() && o.opts.ImageMode != domain.ImageModeNone && o.images != nil {
				images, err := o.images.Extract(raster, o.opts.ImageMode, pageIndex)
				if err != nil {
					o.enterFallback(pageIndex, err)
					desc = nil
				} else {
					extracted = images
				}
			}
		}
	}

	if desc == nil {
		desc = llm.FallbackDescription()
	}

	prompt, err := llm.BuildMarkdownPrompt(desc, o.opts.CustomPrompt)
	if err != nil {
		return domain.PageResult{}, domain.PageConversionError(pageIndex, "failed to build markdown prompt", err)
	}

	markdown, err := o.model.FreeformCall(ctx, raster.PNG, prompt)
	if err != nil {
		return domain.PageResult{}, domain.PageConversionError(pageIndex, "markdown generation failed", err)
	}

	return domain.PageResult{
		PageIndex: pageIndex,
		Markdown:  assemble(markdown, extracted),
		Images:    extracted,
	}, nil
}

// assemble appends one markdown image reference per extracted image.
func assemble(markdown string, images []domain.ExtractedImage) string {
	if len(images) == 0 {
		return markdown
	}
	var b strings.Builder
	b.WriteString(markdown)
	for _, img := range images {
		b.WriteString("\n\n")
		b.WriteString(img.MarkdownRef())
	}
	return b.String()
}
