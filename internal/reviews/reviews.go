// Package reviews turns the reviews found on a product page into positive
// and negative keyword signals.
package reviews

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/IshaanNene/RivalScope/internal/types"
)

// TopKeywords is how many keywords each bucket reports.
const TopKeywords = 10

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)

var stopwords = toSet(
	"the", "a", "an", "and", "or", "for", "with", "in", "on", "to",
	"of", "by", "is", "it", "at", "as", "from", "that", "this", "was",
	"but", "are", "be", "have", "has", "had", "not", "they", "them",
	"we", "my", "me", "i", "you", "your", "its", "so", "very",
	"just", "will", "would", "could", "can", "do", "did", "get",
	"got", "been", "being", "than", "then", "no", "if", "all",
	"one", "two", "also", "about", "out", "up", "how", "what",
	"which", "when", "there", "their", "our", "these", "those",
	"some", "other", "each", "into", "only", "over", "such",
	"after", "before", "between", "through", "same", "any",
	"much", "more", "most", "both", "own", "still", "even",
	"really", "product", "item", "bought", "purchase", "use",
	"using", "used", "like", "good", "great", "nice", "well",
	"best", "better", "love", "work", "works", "working",
)

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Analyze deduplicates the reviews of p by body, buckets them by star
// rating and extracts the most frequent terms of each bucket. Reviews
// without stars count toward the total only.
func Analyze(p *types.Product) types.ReviewSignals {
	signals := types.ReviewSignals{
		PositiveKeywords: []string{},
		NegativeKeywords: []string{},
		Reviews:          []types.Review{},
	}
	if p == nil || len(p.Reviews) == 0 {
		return signals
	}

	unique := Dedup(p.Reviews)

	var positive, negative []string
	for _, r := range unique {
		text := r.Title + " " + r.Body
		switch {
		case r.Stars == nil:
		case *r.Stars >= 4:
			positive = append(positive, text)
		case *r.Stars >= 1 && *r.Stars <= 3:
			negative = append(negative, text)
		}
	}

	signals.PositiveKeywords = Keywords(positive, TopKeywords)
	signals.NegativeKeywords = Keywords(negative, TopKeywords)
	signals.Reviews = unique
	signals.TotalReviews = len(unique)
	signals.PositiveCount = len(positive)
	signals.NegativeCount = len(negative)
	return signals
}

// Dedup drops reviews whose non-empty body was already seen. Reviews with an
// empty body are always kept.
func Dedup(reviews []types.Review) []types.Review {
	seen := make(map[string]struct{}, len(reviews))
	out := make([]types.Review, 0, len(reviews))
	for _, r := range reviews {
		if r.Body != "" {
			if _, dup := seen[r.Body]; dup {
				continue
			}
			seen[r.Body] = struct{}{}
		}
		out = append(out, r)
	}
	return out
}

// Keywords returns the n most frequent unigrams and adjacent bigrams across
// texts after stopword removal. Bigrams never span two texts. Ties keep the
// order terms were first counted in, all unigrams before any bigram.
func Keywords(texts []string, n int) []string {
	if n <= 0 {
		return []string{}
	}

	tokenized := make([][]string, 0, len(texts))
	for _, text := range texts {
		tokenized = append(tokenized, tokenize(text))
	}

	counts := make(map[string]int)
	var order []string
	count := func(term string) {
		if _, ok := counts[term]; !ok {
			order = append(order, term)
		}
		counts[term]++
	}
	for _, words := range tokenized {
		for _, w := range words {
			count(w)
		}
	}
	for _, words := range tokenized {
		for i := 0; i+1 < len(words); i++ {
			count(words[i] + " " + words[i+1])
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > n {
		order = order[:n]
	}
	return append([]string{}, order...)
}

func tokenize(text string) []string {
	var words []string
	for _, w := range strings.Fields(nonWord.ReplaceAllString(strings.ToLower(text), " ")) {
		if _, stop := stopwords[w]; stop || utf8.RuneCountInString(w) <= 2 {
			continue
		}
		words = append(words, w)
	}
	return words
}
