package fetcher

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/IshaanNene/RivalScope/internal/config"
	"github.com/IshaanNene/RivalScope/internal/marketplace"
	"github.com/IshaanNene/RivalScope/internal/parser"
	"github.com/IshaanNene/RivalScope/internal/types"
)

// TestLiveProductFetch fetches a real product page over HTTP. Set
// RIVALSCOPE_LIVE=1 to run it.
func TestLiveProductFetch(t *testing.T) {
	if testing.Short() || os.Getenv("RIVALSCOPE_LIVE") != "1" {
		t.Skip("skipping live test")
	}

	cfg := config.DefaultConfig()
	f, err := NewHTTPFetcher(cfg, testLogger, Options{})
	if err != nil {
		t.Fatalf("create fetcher: %v", err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	url := marketplace.Lookup("us").ProductURL("B0D7Q5GY93")
	page, err := f.Fetch(ctx, url, "#productTitle")
	if errors.Is(err, types.ErrBlocked) {
		t.Skipf("blocked by bot challenge: %v", err)
	}
	if err != nil {
		t.Fatalf("fetch error: %v", err)
	}

	t.Logf("Body size: %d bytes", len(page.Body))
	t.Logf("Duration: %s", page.FetchDuration)

	product, err := parser.NewProductParser(testLogger).ExtractProduct(page.Body, "B0D7Q5GY93")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	t.Logf("Title: %s", product.Title)
	t.Logf("Related: %d", len(product.RelatedASINs))
}
