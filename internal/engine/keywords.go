package engine

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/IshaanNene/RivalScope/internal/marketplace"
	"github.com/IshaanNene/RivalScope/internal/types"
)

// RankKeywords reports the natural rank of the target and each competitor
// for every keyword: one row per keyword and tracked id, target first.
// A product that does not appear in the searched pages gets a nil rank and
// the "-" ad flag.
func (e *Engine) RankKeywords(ctx context.Context, keywords []string, targetID string, competitorIDs []string, domain string, onProgress ProgressFunc) ([]types.KeywordRankRow, error) {
	tracked := NewDeduplicator(1 + len(competitorIDs))
	tracked.Add(targetID)
	for _, id := range competitorIDs {
		tracked.Add(id)
	}
	ids := tracked.IDs()
	target := marketplace.NormalizeID(targetID)

	rows := make([]types.KeywordRankRow, 0, len(keywords)*len(ids))
	for _, keyword := range keywords {
		if err := ctx.Err(); err != nil {
			return rows, err
		}
		e.progress(onProgress, "searching keyword: "+keyword)

		merged := e.searchPages(ctx, keyword, domain)
		for _, id := range ids {
			label := id
			if id == target {
				label = fmt.Sprintf("target (%s)", id)
			}
			rows = append(rows, rankRow(keyword, label, id, merged))
		}
		e.metrics.KeywordsRanked.Add(1)
	}
	return rows, nil
}

// searchPages fetches up to keywords.max_pages result pages for keyword and
// merges them into one continuous ranking. A failed or empty page ends the
// walk.
func (e *Engine) searchPages(ctx context.Context, keyword, domain string) []types.ResultEntry {
	maxPages := e.cfg.Keywords.MaxPages
	if maxPages < 1 {
		maxPages = 1
	}

	var pages [][]types.ResultEntry
	for page := 1; page <= maxPages; page++ {
		entries, err := e.source.Search(ctx, keyword, domain, page)
		if err != nil {
			e.logger.Warn("search page failed", "keyword", keyword, "page", page, "error", err)
			break
		}
		if len(entries) == 0 {
			break
		}
		pages = append(pages, entries)
	}
	return MergePages(pages)
}

// MergePages concatenates search pages, offsetting the ranks of each page by
// the number of entries on the pages before it.
func MergePages(pages [][]types.ResultEntry) []types.ResultEntry {
	var merged []types.ResultEntry
	for _, entries := range pages {
		offset := len(merged)
		for _, entry := range entries {
			entry.Rank += offset
			merged = append(merged, entry)
		}
	}
	return merged
}

func rankRow(keyword, label, id string, merged []types.ResultEntry) types.KeywordRankRow {
	row := types.KeywordRankRow{Keyword: keyword, Product: label, AdFlag: types.AdFlagNotFound}
	for _, entry := range merged {
		if marketplace.NormalizeID(entry.ID) != id {
			continue
		}
		row.NaturalRank = types.Int(entry.Rank)
		row.AdFlag = types.AdFlagOrganic
		if entry.Sponsored {
			row.AdFlag = types.AdFlagSponsored
		}
		break
	}
	return row
}

var (
	alphaPattern = regexp.MustCompile(`[a-z]+`)

	titleStopwords = map[string]struct{}{
		"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "for": {}, "with": {},
		"in": {}, "on": {}, "to": {}, "of": {}, "by": {}, "is": {}, "it": {},
		"at": {}, "as": {}, "from": {}, "that": {}, "this": {},
	}
)

// MaxTitleKeywords caps the phrases derived from a title.
const MaxTitleKeywords = 5

// KeywordsFromTitle derives search phrases from a product title: the first
// three tokens, the first two and, with four or more tokens, tokens two to
// four. Titles with fewer than two usable tokens yield none.
func KeywordsFromTitle(title string) []string {
	var words []string
	for _, w := range alphaPattern.FindAllString(strings.ToLower(title), -1) {
		if _, stop := titleStopwords[w]; stop || len(w) < 2 {
			continue
		}
		words = append(words, w)
	}
	if len(words) < 2 {
		return nil
	}

	candidates := []string{
		strings.Join(words[:min(3, len(words))], " "),
		strings.Join(words[:2], " "),
	}
	if len(words) >= 4 {
		candidates = append(candidates, strings.Join(words[1:4], " "))
	}

	phrases := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, p := range candidates {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		phrases = append(phrases, p)
		if len(phrases) == MaxTitleKeywords {
			break
		}
	}
	return phrases
}
