package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/IshaanNene/RivalScope/internal/config"
	"github.com/IshaanNene/RivalScope/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeSource serves products and search pages from memory.
type fakeSource struct {
	mu       sync.Mutex
	products map[string]*types.Product
	pages    map[string][][]types.ResultEntry
	fail     map[string]bool
	delay    map[string]time.Duration
	fetched  []string
	searched []string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		products: make(map[string]*types.Product),
		pages:    make(map[string][][]types.ResultEntry),
		fail:     make(map[string]bool),
		delay:    make(map[string]time.Duration),
	}
}

func (f *fakeSource) FetchProduct(ctx context.Context, id, _ string) (*types.Product, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, id)
	d := f.delay[id]
	fail := f.fail[id]
	p, ok := f.products[id]
	f.mu.Unlock()

	if d > 0 {
		time.Sleep(d)
	}
	if fail {
		return nil, types.ErrTimeout
	}
	if !ok {
		return nil, types.ErrNotFound
	}
	return p.Clone(), nil
}

func (f *fakeSource) Search(_ context.Context, keyword, _ string, page int) ([]types.ResultEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searched = append(f.searched, fmt.Sprintf("%s#%d", keyword, page))
	pages := f.pages[keyword]
	if page > len(pages) {
		return []types.ResultEntry{}, nil
	}
	return pages[page-1], nil
}

func (f *fakeSource) add(id, brand string, bsr *int) {
	f.products[id] = &types.Product{ID: id, Title: brand + " product", Brand: brand, BSR: bsr}
}

func entries(ids ...string) []types.ResultEntry {
	out := make([]types.ResultEntry, len(ids))
	for i, id := range ids {
		out[i] = types.ResultEntry{Rank: i + 1, ID: id}
	}
	return out
}

func testEngine(src Source) *Engine {
	return New(config.DefaultConfig(), src, testLogger)
}

func TestClassifyTier(t *testing.T) {
	target := types.Int(1000)
	tests := []struct {
		name      string
		candidate *int
		want      types.Tier
	}{
		{"top", types.Int(5), types.TierTop},
		{"top boundary", types.Int(10), types.TierTop},
		{"benchmark", types.Int(900), types.TierBenchmark},
		{"potential", types.Int(50000), types.TierPotential},
		{"ratio boundary", types.Int(1500), types.TierPotential},
		{"absent", nil, types.TierBenchmark},
	}
	for _, tt := range tests {
		if got := ClassifyTier(target, tt.candidate, 10, 0.5); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.name, tt.want, got)
		}
	}
	if got := ClassifyTier(nil, types.Int(3), 10, 0.5); got != types.TierBenchmark {
		t.Errorf("missing target rank: expected benchmark, got %s", got)
	}
}

func TestDiscoverCompetitorsRelated(t *testing.T) {
	src := newFakeSource()
	src.products["B0D7Q5GY93"] = &types.Product{
		ID:           "B0D7Q5GY93",
		Title:        "Insulated Travel Mug",
		BSR:          types.Int(1000),
		RelatedASINs: []string{"B000000001", "B000000002", "B000000003", "B000000004", "B000000005", "B000000006"},
	}
	src.add("B000000001", "Alpha", types.Int(5))
	src.add("B000000002", "Beta", types.Int(900))
	src.add("B000000004", "Delta", nil)
	src.add("B000000005", "Eps", types.Int(50000))
	src.add("B000000006", "Zeta", types.Int(1100))
	src.fail["B000000003"] = true

	var messages []string
	records, err := testEngine(src).DiscoverCompetitors(context.Background(), "B0D7Q5GY93", "us", 4,
		func(msg string) { messages = append(messages, msg) })
	if err != nil {
		t.Fatalf("discover: %v", err)
	}

	var got []string
	for _, r := range records {
		got = append(got, string(r.Tier)+":"+r.ID)
	}
	want := []string{"top:B000000001", "benchmark:B000000002", "benchmark:B000000004"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if records[0].Label != "Alpha (B000000001)" {
		t.Errorf("unexpected label %q", records[0].Label)
	}
	if len(src.searched) != 0 {
		t.Errorf("expected no search fallback, got %v", src.searched)
	}
	for _, id := range src.fetched {
		if id == "B000000005" || id == "B000000006" {
			t.Errorf("candidate %s beyond the desired count was fetched", id)
		}
	}
	if len(messages) != 4 || !strings.HasPrefix(messages[0], "fetching competitor 1/4") {
		t.Errorf("unexpected progress %v", messages)
	}
}

func TestDiscoverCompetitorsSearchFallback(t *testing.T) {
	src := newFakeSource()
	src.products["B0TARGET01"] = &types.Product{
		ID:           "B0TARGET01",
		Title:        "Acme Steel Travel Mug 16oz Leakproof Lid",
		RelatedASINs: []string{"B000000001", "B0TARGET01"},
	}
	src.add("B000000001", "Alpha", nil)
	src.add("B000000007", "Gamma", nil)
	src.add("B000000008", "Theta", nil)
	src.pages["Acme Steel Travel Mug 16oz"] = [][]types.ResultEntry{
		entries("B0TARGET01", "B000000001", "B000000007", "B000000008", "B000000009"),
	}

	records, err := testEngine(src).DiscoverCompetitors(context.Background(), "b0target01", "us", 3, nil)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	var got []string
	for _, r := range records {
		got = append(got, r.ID)
	}
	want := []string{"B000000001", "B000000007", "B000000008"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if !reflect.DeepEqual(src.searched, []string{"Acme Steel Travel Mug 16oz#1"}) {
		t.Errorf("unexpected searches %v", src.searched)
	}
}

func TestDiscoverCompetitorsMissingTarget(t *testing.T) {
	src := newFakeSource()
	records, err := testEngine(src).DiscoverCompetitors(context.Background(), "B0MISSING1", "us", 4, nil)
	if err != nil || len(records) != 0 {
		t.Errorf("expected empty result, got %v, %v", records, err)
	}

	records, err = testEngine(src).DiscoverCompetitors(context.Background(), "bad id", "us", 4, nil)
	if err != nil || len(records) != 0 || len(src.fetched) != 1 {
		t.Errorf("invalid id should not be fetched: %v, %v, %v", records, err, src.fetched)
	}
}

func TestDiscoverCompetitorsZeroCount(t *testing.T) {
	src := newFakeSource()
	src.products["B0D7Q5GY93"] = &types.Product{
		ID:           "B0D7Q5GY93",
		Title:        "Insulated Travel Mug",
		RelatedASINs: []string{"B000000001", "B000000002", "B000000003", "B000000004", "B000000005"},
	}
	for i, id := range src.products["B0D7Q5GY93"].RelatedASINs {
		src.add(id, fmt.Sprintf("Brand%d", i), types.Int(100*(i+1)))
	}

	for _, n := range []int{0, -1} {
		records, err := testEngine(src).DiscoverCompetitors(context.Background(), "B0D7Q5GY93", "us", n, nil)
		if err != nil {
			t.Fatalf("discover %d: %v", n, err)
		}
		if records == nil || len(records) != 0 {
			t.Errorf("desiredCount %d: expected empty result, got %d records", n, len(records))
		}
	}
	if len(src.fetched) != 0 || len(src.searched) != 0 {
		t.Errorf("expected no fetches, got %v %v", src.fetched, src.searched)
	}
}

func TestDiscoverCompetitorsPoolOrder(t *testing.T) {
	build := func() *fakeSource {
		src := newFakeSource()
		related := []string{"B000000001", "B000000002", "B000000003", "B000000004", "B000000005", "B000000006"}
		src.products["B0D7Q5GY93"] = &types.Product{ID: "B0D7Q5GY93", Title: "Mug", BSR: types.Int(1000), RelatedASINs: related}
		for i, id := range related {
			src.add(id, fmt.Sprintf("Brand%d", i), types.Int((i+1)*300))
			// Earlier candidates finish last.
			src.delay[id] = time.Duration(len(related)-i) * 5 * time.Millisecond
		}
		src.fail["B000000002"] = true
		return src
	}

	sequential, err := testEngine(build()).DiscoverCompetitors(context.Background(), "B0D7Q5GY93", "us", 6, nil)
	if err != nil {
		t.Fatalf("sequential: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Discovery.Workers = 4
	pooled, err := New(cfg, build(), testLogger).DiscoverCompetitors(context.Background(), "B0D7Q5GY93", "us", 6, func(string) {})
	if err != nil {
		t.Fatalf("pooled: %v", err)
	}

	if !reflect.DeepEqual(sequential, pooled) {
		t.Errorf("pool changed the result:\nsequential %v\npooled     %v", sequential, pooled)
	}
	if len(pooled) != 5 {
		t.Errorf("expected 5 records, got %d", len(pooled))
	}
}

func TestAddCompetitor(t *testing.T) {
	src := newFakeSource()
	src.add("B000000001", "Alpha", types.Int(5))
	src.add("B000000002", "Beta", nil)
	e := testEngine(src)
	target := &types.Product{ID: "B0TARGET01", Title: "Mug"}

	rec, err := e.AddCompetitor(context.Background(), "b000000001", "us", target, nil)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if rec.Tier != types.TierManuallyAdded || rec.Label != "Alpha (B000000001)" {
		t.Errorf("unexpected record %+v", rec)
	}

	existing := []types.CompetitorRecord{rec}
	if _, err := e.AddCompetitor(context.Background(), "B000000001", "us", target, existing); !errors.Is(err, ErrDuplicateCompetitor) {
		t.Errorf("expected duplicate error, got %v", err)
	}
	if _, err := e.AddCompetitor(context.Background(), "B0TARGET01", "us", target, existing); !errors.Is(err, ErrSelfCompetitor) {
		t.Errorf("expected self error, got %v", err)
	}
	if _, err := e.AddCompetitor(context.Background(), "nope", "us", target, existing); !errors.Is(err, types.ErrInvalidID) {
		t.Errorf("expected invalid id, got %v", err)
	}
	if _, err := e.AddCompetitor(context.Background(), "B000000099", "us", target, existing); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestRankKeywordsOffset(t *testing.T) {
	src := newFakeSource()
	page1 := entries("B000000001", "B000000002", "B000000003", "B000000004", "B000000005",
		"B000000006", "B000000007", "B000000008", "B000000009", "B000000010")
	page2 := entries("B000000011", "B000000012", "TARGET0001", "B000000014", "B000000015")
	page2[3].Sponsored = true
	src.pages["travel mug"] = [][]types.ResultEntry{page1, page2}

	rows, err := testEngine(src).RankKeywords(context.Background(), []string{"travel mug"},
		"target0001", []string{"B000000014", "B000000002", "b000000014"}, "us", nil)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].Product != "target (TARGET0001)" || rows[0].NaturalRank == nil || *rows[0].NaturalRank != 13 || rows[0].AdFlag != types.AdFlagOrganic {
		t.Errorf("unexpected target row %+v", rows[0])
	}
	if rows[1].Product != "B000000014" || *rows[1].NaturalRank != 14 || rows[1].AdFlag != types.AdFlagSponsored {
		t.Errorf("unexpected competitor row %+v", rows[1])
	}
	if *rows[2].NaturalRank != 2 {
		t.Errorf("unexpected rank %d", *rows[2].NaturalRank)
	}
	// Page 3 was empty and ended the walk.
	if !reflect.DeepEqual(src.searched, []string{"travel mug#1", "travel mug#2", "travel mug#3"}) {
		t.Errorf("unexpected searches %v", src.searched)
	}
}

func TestRankKeywordsNotFound(t *testing.T) {
	src := newFakeSource()
	rows, err := testEngine(src).RankKeywords(context.Background(), []string{"xyz"}, "TARGET0001", nil, "us", nil)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	want := []types.KeywordRankRow{{Keyword: "xyz", Product: "target (TARGET0001)", NaturalRank: nil, AdFlag: "-"}}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("expected %+v, got %+v", want, rows)
	}
	if len(src.searched) != 1 {
		t.Errorf("expected the walk to stop after an empty first page, got %v", src.searched)
	}
}

func TestKeywordsFromTitle(t *testing.T) {
	tests := []struct {
		title string
		want  []string
	}{
		{"Stainless Steel Travel Mug with Lid, 16oz", []string{"stainless steel travel", "stainless steel", "steel travel mug"}},
		{"The Mug of Tea", []string{"mug tea"}},
		{"Mug", nil},
		{"A B C", nil},
		{"", nil},
	}
	for _, tt := range tests {
		if got := KeywordsFromTitle(tt.title); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%q: expected %v, got %v", tt.title, tt.want, got)
		}
	}
}

func TestMergePages(t *testing.T) {
	merged := MergePages([][]types.ResultEntry{entries("A", "B"), entries("C")})
	if len(merged) != 3 || merged[2].Rank != 3 || merged[2].ID != "C" {
		t.Errorf("unexpected merge %+v", merged)
	}
}

func TestDeduplicator(t *testing.T) {
	d := NewDeduplicator(4)
	d.MarkSeen("B0TARGET01")
	for _, id := range []string{"b000000002", "B000000001", "B000000002", "", "B0TARGET01"} {
		d.Add(id)
	}
	if !reflect.DeepEqual(d.IDs(), []string{"B000000002", "B000000001"}) {
		t.Errorf("unexpected ids %v", d.IDs())
	}
	if d.Add("b0target01") || d.Count() != 2 {
		t.Error("expected marked id to be rejected and not counted")
	}
}
