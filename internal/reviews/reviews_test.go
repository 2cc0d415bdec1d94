package reviews

import (
	"reflect"
	"sort"
	"testing"

	"github.com/IshaanNene/RivalScope/internal/types"
)

func review(stars float64, title, body string) types.Review {
	r := types.Review{Title: title, Body: body}
	if stars > 0 {
		r.Stars = types.Float(stars)
	}
	return r
}

func TestAnalyzeBuckets(t *testing.T) {
	p := &types.Product{ID: "B000000001", Reviews: []types.Review{
		review(5, "Keeps coffee hot", "The lid seals tight and coffee stays hot for hours."),
		review(4, "Solid mug", "Coffee stays hot, lid is easy to clean."),
		review(2, "Leaks", "The lid leaks when tilted."),
		review(1, "Broken", "Handle cracked after a week, lid leaks."),
		review(0, "No rating", "Arrived quickly."),
		review(5, "Duplicate", "Coffee stays hot, lid is easy to clean."),
		review(3.5, "Meh", "Average mug overall."),
	}}

	s := Analyze(p)
	if s.TotalReviews != 6 || len(s.Reviews) != 6 {
		t.Errorf("expected 6 unique reviews, got %d", s.TotalReviews)
	}
	if s.PositiveCount != 2 || s.NegativeCount != 2 {
		t.Errorf("unexpected buckets %d/%d", s.PositiveCount, s.NegativeCount)
	}
	if len(s.PositiveKeywords) == 0 || s.PositiveKeywords[0] != "coffee" {
		t.Errorf("unexpected positive keywords %v", s.PositiveKeywords)
	}
	if s.NegativeKeywords[0] != "leaks" || s.NegativeKeywords[1] != "lid" {
		t.Errorf("unexpected negative keywords %v", s.NegativeKeywords)
	}
	for _, kw := range append(s.PositiveKeywords, s.NegativeKeywords...) {
		if kw == "the" || kw == "is" || kw == "great" {
			t.Errorf("stopword %q leaked into keywords", kw)
		}
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	s := Analyze(&types.Product{})
	if s.TotalReviews != 0 || s.PositiveKeywords == nil || s.NegativeKeywords == nil || s.Reviews == nil {
		t.Errorf("expected zero signals with empty lists, got %+v", s)
	}
	if s := Analyze(nil); s.TotalReviews != 0 {
		t.Errorf("expected zero signals for nil product")
	}
}

func TestDedupIdempotent(t *testing.T) {
	reviews := []types.Review{
		review(5, "a", "first body"),
		review(4, "b", ""),
		review(3, "c", ""),
		review(2, "d", "second body"),
	}
	once := Dedup(reviews)
	if len(once) != len(reviews) {
		t.Errorf("distinct bodies and empty bodies must all survive, got %d", len(once))
	}
	if !reflect.DeepEqual(Dedup(once), once) {
		t.Error("dedup is not idempotent")
	}

	dup := append(reviews, review(1, "e", "first body"))
	if got := Dedup(dup); len(got) != 4 || got[0].Title != "a" {
		t.Errorf("expected first occurrence kept, got %+v", got)
	}
}

func TestAnalyzeOrderIndependent(t *testing.T) {
	base := []types.Review{
		review(5, "Sturdy", "Sturdy handle."),
		review(5, "Insulation", "Vacuum insulation!"),
		review(2, "Rust", "Rust spots."),
		review(1, "Dent", "Dent arrived."),
	}
	reversed := make([]types.Review, len(base))
	for i, r := range base {
		reversed[len(base)-1-i] = r
	}

	a := Analyze(&types.Product{Reviews: base})
	b := Analyze(&types.Product{Reviews: reversed})

	sorted := func(s []string) []string {
		out := append([]string(nil), s...)
		sort.Strings(out)
		return out
	}
	if !reflect.DeepEqual(sorted(a.PositiveKeywords), sorted(b.PositiveKeywords)) {
		t.Errorf("positive keywords depend on order: %v vs %v", a.PositiveKeywords, b.PositiveKeywords)
	}
	if !reflect.DeepEqual(sorted(a.NegativeKeywords), sorted(b.NegativeKeywords)) {
		t.Errorf("negative keywords depend on order: %v vs %v", a.NegativeKeywords, b.NegativeKeywords)
	}
	if a.PositiveCount != b.PositiveCount || a.NegativeCount != b.NegativeCount {
		t.Error("bucket counts depend on order")
	}
}

func TestKeywordsTieOrder(t *testing.T) {
	got := Keywords([]string{"zebra apple mango", "apple zebra"}, 10)
	want := []string{"zebra", "apple", "mango", "zebra apple", "apple mango", "apple zebra"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if got := Keywords([]string{"zebra apple mango"}, 2); len(got) != 2 {
		t.Errorf("expected cap of 2, got %v", got)
	}
}

func TestKeywordsCutoffTies(t *testing.T) {
	words := []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot", "golf", "hotel", "india", "juliet", "kilo", "lima"}
	texts := append(append([]string{}, words...), "sturdy", "sturdy")

	got := Keywords(texts, TopKeywords)
	want := append([]string{"sturdy"}, words[:9]...)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	reversed := make([]string, len(texts))
	for i, text := range texts {
		reversed[len(texts)-1-i] = text
	}
	got = Keywords(reversed, TopKeywords)
	want = []string{"sturdy", "lima", "kilo", "juliet", "india", "hotel", "golf", "foxtrot", "echo", "delta"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}
