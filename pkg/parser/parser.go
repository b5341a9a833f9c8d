// Package parser is the public entry point for converting PDF documents and
// standalone images into per-page markdown through a vision LLM.
package parser

import (
	"context"
	"fmt"
	"time"

	"github.com/visionmark/visionmark/internal/domain"
	"github.com/visionmark/visionmark/internal/extract"
	"github.com/visionmark/visionmark/internal/llm"
	"github.com/visionmark/visionmark/internal/observability"
	"github.com/visionmark/visionmark/internal/pdf"
)

// Re-export the result and mode types for callers.
type (
	PageResult     = domain.PageResult
	ExtractedImage = domain.ExtractedImage
	ImageMode      = domain.ImageMode
	PageConfig     = domain.PageConfig
)

const (
	ImageModeNone   = domain.ImageModeNone
	ImageModeURL    = domain.ImageModeURL
	ImageModeBase64 = domain.ImageModeBase64
)

// Config holds all settings for a conversion run. It is read-only once the
// Parser is constructed.
type Config struct {
	ModelName       string
	APIKey          string
	Temperature     float64
	TopP            float64
	MaxOutputTokens int
	CallTimeout     time.Duration

	ImageMode      ImageMode
	ImageOutputDir string
	CustomPrompt   string

	DetailedExtraction bool
	EnableConcurrency  bool
	NumWorkers         int

	Page PageConfig
}

// DefaultConfig returns the conversion defaults.
func DefaultConfig() Config {
	return Config{
		ModelName:   "gemini-1.5-pro",
		Temperature: 0.7,
		TopP:        0.7,
		NumWorkers:  4,
		Page:        domain.DefaultPageConfig(),
	}
}

// Parser converts documents into ordered per-page markdown.
type Parser struct {
	cfg    Config
	model  llm.VisionModel
	logger *observability.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger used by all pipeline components.
func WithLogger(logger *observability.Logger) Option {
	return func(p *Parser) {
		p.logger = logger
	}
}

// WithModel injects a vision model, bypassing provider construction. Tests
// use this to supply a deterministic stub.
func WithModel(model llm.VisionModel) Option {
	return func(p *Parser) {
		p.model = model
	}
}

// New validates the configuration and constructs a Parser. An unrecognized
// model name fails here with an UnsupportedModel error, before any
// conversion starts.
func New(cfg Config, opts ...Option) (*Parser, error) {
	if !cfg.ImageMode.Valid() {
		return nil, domain.ConfigError(fmt.Sprintf("invalid image mode %q", cfg.ImageMode), nil)
	}
	if cfg.Page.DPI <= 0 {
		return nil, domain.ConfigError(fmt.Sprintf("invalid DPI %d", cfg.Page.DPI), nil)
	}
	if cfg.EnableConcurrency && cfg.NumWorkers <= 0 {
		return nil, domain.ConfigError(fmt.Sprintf("invalid worker count %d", cfg.NumWorkers), nil)
	}

	p := &Parser{
		cfg:    cfg,
		logger: observability.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.model == nil {
		model, err := llm.NewModel(llm.ModelConfig{
			ModelName:       cfg.ModelName,
			APIKey:          cfg.APIKey,
			Temperature:     cfg.Temperature,
			TopP:            cfg.TopP,
			MaxOutputTokens: cfg.MaxOutputTokens,
			CallTimeout:     cfg.CallTimeout,
		}, p.logger)
		if err != nil {
			return nil, err
		}
		p.model = model
	}

	return p, nil
}

// Convert renders every page of the input document and extracts markdown
// from each, returning the results in page order. A standalone PNG/JPEG
// input yields exactly one result. The conversion is all-or-nothing: any
// page failure aborts the run with no partial results.
func (p *Parser) Convert(ctx context.Context, path string) ([]PageResult, error) {
	doc, err := pdf.Open(path, p.logger)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	p.logger.Info().Str("path", path).Int("pages", doc.PageCount()).
		Str("kind", string(doc.Kind())).Msg("starting conversion")

	rasterizer := pdf.NewRasterizer(p.cfg.Page, p.logger)

	var images extract.ImageExtractor
	if p.cfg.ImageMode != ImageModeNone {
		images = pdf.NewImageExtractor(doc, p.cfg.ImageOutputDir, p.logger)
	}

	orch := extract.NewOrchestrator(p.model, images, extract.Options{
		DetailedExtraction: p.cfg.DetailedExtraction,
		ImageMode:          p.cfg.ImageMode,
		CustomPrompt:       p.cfg.CustomPrompt,
	}, p.logger)

	svc := extract.NewService(&documentRenderer{doc: doc, rasterizer: rasterizer}, orch, extract.SchedulerOptions{
		Concurrent: p.cfg.EnableConcurrency,
		Workers:    p.cfg.NumWorkers,
	}, p.logger)

	return svc.Run(ctx)
}

// documentRenderer adapts an open document plus rasterizer to the
// scheduler's PageRenderer interface.
type documentRenderer struct {
	doc        *pdf.Document
	rasterizer *pdf.Rasterizer
}

func (r *documentRenderer) PageCount() int {
	return r.doc.PageCount()
}

func (r *documentRenderer) Render(ctx context.Context, pageIndex int) (*domain.RasterImage, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return r.rasterizer.Render(r.doc, pageIndex)
}
