// Package engine orchestrates product lookups, competitor discovery and
// keyword rank aggregation on top of a product/search Source.
package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/IshaanNene/RivalScope/internal/config"
	"github.com/IshaanNene/RivalScope/internal/marketplace"
	"github.com/IshaanNene/RivalScope/internal/observability"
	"github.com/IshaanNene/RivalScope/internal/types"
)

// Source retrieves products and search result pages. The worker gateway is
// the production implementation.
type Source interface {
	FetchProduct(ctx context.Context, id, domain string) (*types.Product, error)
	Search(ctx context.Context, keyword, domain string, page int) ([]types.ResultEntry, error)
}

// ProgressFunc receives human-readable progress messages.
type ProgressFunc func(message string)

// Option configures the Engine.
type Option func(*Engine)

// WithMetrics sets the metrics sink.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// Engine is the orchestrator behind every user-facing operation. It holds no
// mutable state between calls; records it returns are owned by the caller.
type Engine struct {
	cfg     *config.Config
	source  Source
	metrics *observability.Metrics
	logger  *slog.Logger
}

// New creates a new Engine reading products from src.
func New(cfg *config.Config, src Source, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		cfg:    cfg,
		source: src,
		logger: logger.With("component", "engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = observability.NewMetrics(logger)
	}
	return e
}

// Metrics returns the engine's metrics.
func (e *Engine) Metrics() *observability.Metrics {
	return e.metrics
}

// LookupProduct returns the product for id on domain. Invalid ids and
// products without a title are reported as types.ErrNotFound.
func (e *Engine) LookupProduct(ctx context.Context, id, domain string) (*types.Product, error) {
	id = marketplace.NormalizeID(id)
	if !marketplace.Validate(id) {
		return nil, errors.Join(types.ErrNotFound, types.ErrInvalidID)
	}

	product, err := e.source.FetchProduct(ctx, id, domain)
	if err != nil {
		return nil, err
	}
	if product == nil || product.Title == "" {
		return nil, types.ErrNotFound
	}
	return product, nil
}

func (e *Engine) progress(fn ProgressFunc, message string) {
	e.logger.Debug(message)
	if fn != nil {
		fn(message)
	}
}
