package extract

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/visionmark/visionmark/internal/domain"
	"github.com/visionmark/visionmark/internal/observability"
)

// batchPause is the courtesy delay between consecutive batches, easing
// pressure on the external API's rate limits.
const batchPause = 500 * time.Millisecond

// PageRenderer produces rendered pages on demand.
type PageRenderer interface {
	PageCount() int
	Render(ctx context.Context, pageIndex int) (*domain.RasterImage, error)
}

// SchedulerOptions controls how pages are dispatched.
type SchedulerOptions struct {
	Concurrent bool
	Workers    int
	// Pause overrides the inter-batch delay. Zero means the default; tests
	// set a negative value to disable the pause.
	Pause time.Duration
}

// Service drives page extraction across a whole document. Output order
// always equals page order, independent of the concurrency setting; any
// single page failure aborts the run.
type Service struct {
	renderer PageRenderer
	orch     *Orchestrator
	opts     SchedulerOptions
	logger   *observability.Logger
}

// NewService creates the batch scheduler for one conversion run.
func NewService(renderer PageRenderer, orch *Orchestrator, opts SchedulerOptions, logger *observability.Logger) *Service {
	if logger == nil {
		logger = observability.Nop()
	}
	if opts.Pause == 0 {
		opts.Pause = batchPause
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Service{
		renderer: renderer,
		orch:     orch,
		opts:     opts,
		logger:   logger.WithComponent("scheduler"),
	}
}

// Run processes every page of the document and returns the results in page
// order. No partial page list is ever returned.
func (s *Service) Run(ctx context.Context) ([]domain.PageResult, error) {
	total := s.renderer.PageCount()
	results := make([]domain.PageResult, total)

	if !s.opts.Concurrent || s.opts.Workers == 1 {
		for i := 0; i < total; i++ {
			res, err := s.processPage(ctx, i)
			if err != nil {
				return nil, err
			}
			results[i] = res
		}
		return results, nil
	}

	for start := 0; start < total; start += s.opts.Workers {
		end := min(start+s.opts.Workers, total)
		s.logger.Debug().Int("from", start).Int("to", end-1).Msg("dispatching batch")

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			g.Go(func() error {
				res, err := s.processPage(gctx, i)
				if err != nil {
					return err
				}
				results[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		if end < total && s.opts.Pause > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.opts.Pause):
			}
		}
	}

	return results, nil
}

// processPage renders and extracts a single page.
func (s *Service) processPage(ctx context.Context, pageIndex int) (domain.PageResult, error) {
	select {
	case <-ctx.Done():
		return domain.PageResult{}, ctx.Err()
	default:
	}

	raster, err := s.renderer.Render(ctx, pageIndex)
	if err != nil {
		return domain.PageResult{}, err
	}

	res, err := s.orch.ExtractPage(ctx, raster)
	if err != nil {
		return domain.PageResult{}, err
	}

	s.logger.Info().Int("page", pageIndex).Int("bytes", len(res.Markdown)).Msg("page converted")
	return res, nil
}
