package pipeline

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/IshaanNene/RivalScope/internal/types"
)

// Defaults applied by NewDefault.
const (
	DefaultCoupon     = "none"
	MaxRelated        = 20
	SellingPointRunes = 80
)

// --- Advanced Middleware ---

// RelatedMiddleware enforces the related-id invariants: distinct, never the
// product itself, sorted, and at most Max entries.
type RelatedMiddleware struct {
	Max int
}

func (m *RelatedMiddleware) Name() string { return "related_ids" }

func (m *RelatedMiddleware) Process(product *types.Product) (*types.Product, error) {
	seen := make(map[string]bool, len(product.RelatedASINs))
	related := make([]string, 0, len(product.RelatedASINs))
	for _, id := range product.RelatedASINs {
		id = strings.ToUpper(strings.TrimSpace(id))
		if id == "" || id == product.ID || seen[id] {
			continue
		}
		seen[id] = true
		related = append(related, id)
	}
	sort.Strings(related)
	if m.Max > 0 && len(related) > m.Max {
		related = related[:m.Max]
	}
	product.RelatedASINs = related
	return product, nil
}

// SellingPointMiddleware derives the main selling point from the first
// bullet, truncated to MaxRunes runes with "..." appended when cut.
type SellingPointMiddleware struct {
	MaxRunes int
}

func (m *SellingPointMiddleware) Name() string { return "selling_point" }

func (m *SellingPointMiddleware) Process(product *types.Product) (*types.Product, error) {
	if len(product.BulletPoints) == 0 {
		product.MainSellingPoint = ""
		return product, nil
	}
	product.MainSellingPoint = Truncate(product.BulletPoints[0], m.MaxRunes)
	return product, nil
}

// Truncate shortens s to at most n runes, appending "..." when it was cut.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
