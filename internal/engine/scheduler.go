package engine

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/IshaanNene/RivalScope/internal/types"
)

// fetchResult is the outcome of one candidate fetch.
type fetchResult struct {
	id      string
	product *types.Product
	err     error
}

// Scheduler fetches candidate products, sequentially or through a bounded
// pool. Results always come back in submission order.
type Scheduler struct {
	source  Source
	workers int
	logger  *slog.Logger
}

// NewScheduler creates a Scheduler running at most workers fetches at once.
func NewScheduler(src Source, workers int, logger *slog.Logger) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	return &Scheduler{
		source:  src,
		workers: workers,
		logger:  logger.With("component", "scheduler"),
	}
}

// FetchAll fetches every id on domain. onStart is called before each fetch
// begins; it may be called from several goroutines when the pool is used.
func (s *Scheduler) FetchAll(ctx context.Context, ids []string, domain string, onStart func(i int, id string)) []fetchResult {
	results := make([]fetchResult, len(ids))
	if s.workers == 1 || len(ids) < 2 {
		for i, id := range ids {
			if ctx.Err() != nil {
				results[i] = fetchResult{id: id, err: ctx.Err()}
				continue
			}
			if onStart != nil {
				onStart(i, id)
			}
			p, err := s.source.FetchProduct(ctx, id, domain)
			results[i] = fetchResult{id: id, product: p, err: err}
		}
		return results
	}

	s.logger.Debug("starting candidate pool", "workers", s.workers, "candidates", len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = fetchResult{id: id, err: err}
				return nil
			}
			if onStart != nil {
				onStart(i, id)
			}
			p, err := s.source.FetchProduct(gctx, id, domain)
			// Each goroutine owns exactly one slot.
			results[i] = fetchResult{id: id, product: p, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
