package parser

import (
	"github.com/IshaanNene/RivalScope/internal/types"
)

// ProductExtractor turns raw product page HTML into a Product.
type ProductExtractor interface {
	// ExtractProduct returns a ParseError wrapping types.ErrParseFailure when
	// the page carries no resolvable title.
	ExtractProduct(body []byte, id string) (*types.Product, error)
}

// SearchExtractor turns a search result page into ranked entries.
type SearchExtractor interface {
	// ExtractSearchResults returns entries in page order. Ranks are assigned
	// only to entries carrying an id.
	ExtractSearchResults(body []byte) ([]types.ResultEntry, error)
}
