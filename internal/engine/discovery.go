package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/IshaanNene/RivalScope/internal/marketplace"
	"github.com/IshaanNene/RivalScope/internal/types"
)

var (
	ErrSelfCompetitor      = errors.New("product cannot be its own competitor")
	ErrDuplicateCompetitor = errors.New("competitor already tracked")
)

// DiscoverCompetitors finds up to desiredCount competitors of id. Candidates
// come from the target's related ids, topped up from a title search when
// short. Failed candidate fetches are skipped and not backfilled.
//
// A target that cannot be resolved yields an empty result and a nil error,
// and so does a desiredCount of zero or less.
func (e *Engine) DiscoverCompetitors(ctx context.Context, id, domain string, desiredCount int, onProgress ProgressFunc) ([]types.CompetitorRecord, error) {
	if desiredCount <= 0 {
		return []types.CompetitorRecord{}, nil
	}
	records := make([]types.CompetitorRecord, 0, desiredCount)

	target, err := e.LookupProduct(ctx, id, domain)
	if err != nil {
		if ctx.Err() != nil {
			return records, ctx.Err()
		}
		e.logger.Warn("target product unavailable", "id", id, "domain", domain, "error", err)
		return records, nil
	}

	candidates := e.candidates(ctx, target, domain, desiredCount, onProgress)
	if len(candidates) > desiredCount {
		candidates = candidates[:desiredCount]
	}
	if len(candidates) == 0 {
		e.logger.Info("no competitor candidates found", "id", target.ID)
		return records, nil
	}

	var mu sync.Mutex
	onStart := func(i int, candidate string) {
		mu.Lock()
		defer mu.Unlock()
		e.progress(onProgress, fmt.Sprintf("fetching competitor %d/%d: %s", i+1, len(candidates), candidate))
	}

	sched := NewScheduler(e.source, e.cfg.Discovery.Workers, e.logger)
	for _, res := range sched.FetchAll(ctx, candidates, domain, onStart) {
		if res.err != nil || res.product == nil || res.product.Title == "" {
			e.metrics.CandidatesSkipped.Add(1)
			e.logger.Warn("skipping competitor", "id", res.id, "error", res.err)
			continue
		}
		records = append(records, types.CompetitorRecord{
			Product: res.product,
			Tier:    e.tier(target.BSR, res.product.BSR),
			Label:   fmt.Sprintf("%s (%s)", res.product.Brand, res.product.ID),
		})
		if len(records) >= desiredCount {
			break
		}
	}

	e.logger.Info("competitor discovery finished",
		"id", target.ID,
		"candidates", len(candidates),
		"found", len(records),
	)
	return records, ctx.Err()
}

// candidates returns deduplicated candidate ids for target in first-seen
// order, never including the target itself.
func (e *Engine) candidates(ctx context.Context, target *types.Product, domain string, desiredCount int, onProgress ProgressFunc) []string {
	dedup := NewDeduplicator(desiredCount + len(target.RelatedASINs))
	dedup.MarkSeen(target.ID)
	for _, related := range target.RelatedASINs {
		dedup.Add(related)
	}

	if dedup.Count() >= desiredCount || target.Title == "" {
		return dedup.IDs()
	}

	tokens := strings.Fields(target.Title)
	if n := e.cfg.Discovery.SearchTokens; n > 0 && len(tokens) > n {
		tokens = tokens[:n]
	}
	keyword := strings.Join(tokens, " ")
	e.progress(onProgress, "searching keyword: "+keyword)

	entries, err := e.source.Search(ctx, keyword, domain, 1)
	if err != nil {
		e.logger.Warn("candidate search failed", "keyword", keyword, "error", err)
		return dedup.IDs()
	}
	for _, entry := range entries {
		dedup.Add(entry.ID)
	}
	return dedup.IDs()
}

func (e *Engine) tier(targetBSR, candidateBSR *int) types.Tier {
	return ClassifyTier(targetBSR, candidateBSR, e.cfg.Discovery.TopRankMax, e.cfg.Discovery.BenchmarkRatio)
}

// ClassifyTier places a candidate relative to the target by best-sellers
// rank. A missing rank on either side is a benchmark.
func ClassifyTier(targetBSR, candidateBSR *int, topRankMax int, benchmarkRatio float64) types.Tier {
	if targetBSR == nil || candidateBSR == nil || *targetBSR <= 0 || *candidateBSR <= 0 {
		return types.TierBenchmark
	}
	candidate, target := *candidateBSR, *targetBSR
	switch {
	case candidate <= topRankMax:
		return types.TierTop
	case math.Abs(float64(candidate-target)) < benchmarkRatio*float64(target):
		return types.TierBenchmark
	default:
		return types.TierPotential
	}
}

// AddCompetitor fetches id and returns it as a manually added competitor of
// target. The target itself and ids already in existing are rejected.
func (e *Engine) AddCompetitor(ctx context.Context, id, domain string, target *types.Product, existing []types.CompetitorRecord) (types.CompetitorRecord, error) {
	id = marketplace.NormalizeID(id)
	if !marketplace.Validate(id) {
		return types.CompetitorRecord{}, fmt.Errorf("%w %q", types.ErrInvalidID, id)
	}
	if target != nil && target.ID == id {
		return types.CompetitorRecord{}, ErrSelfCompetitor
	}
	for _, rec := range existing {
		if rec.Product != nil && rec.ID == id {
			return types.CompetitorRecord{}, fmt.Errorf("%w: %s", ErrDuplicateCompetitor, id)
		}
	}

	product, err := e.LookupProduct(ctx, id, domain)
	if err != nil {
		return types.CompetitorRecord{}, fmt.Errorf("add competitor %s: %w", id, err)
	}
	return types.CompetitorRecord{
		Product: product,
		Tier:    types.TierManuallyAdded,
		Label:   fmt.Sprintf("%s (%s)", product.Brand, product.ID),
	}, nil
}
