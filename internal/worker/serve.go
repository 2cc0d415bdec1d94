package worker

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"github.com/IshaanNene/RivalScope/internal/config"
	"github.com/IshaanNene/RivalScope/internal/fetcher"
	"github.com/IshaanNene/RivalScope/internal/marketplace"
	"github.com/IshaanNene/RivalScope/internal/parser"
	"github.com/IshaanNene/RivalScope/internal/pipeline"
	"github.com/IshaanNene/RivalScope/internal/types"
)

const (
	productWaitSelector = "#productTitle"
	searchWaitSelector  = "[data-component-type='s-search-result']"
)

// Server is the worker side of the fetch boundary. It handles one request
// and writes exactly one JSON document.
type Server struct {
	cfg      *config.Config
	opts     fetcher.Options
	products parser.ProductExtractor
	search   parser.SearchExtractor
	pipeline *pipeline.Pipeline
	logger   *slog.Logger

	newFetcher       func() (fetcher.Fetcher, error)
	newScreenshotter func() fetcher.Screenshotter
}

// ServerOption configures the Server.
type ServerOption func(*Server)

// WithFetcher replaces the page fetcher factory.
func WithFetcher(fn func() (fetcher.Fetcher, error)) ServerOption {
	return func(s *Server) { s.newFetcher = fn }
}

// WithScreenshotter replaces the screenshot factory.
func WithScreenshotter(fn func() fetcher.Screenshotter) ServerOption {
	return func(s *Server) { s.newScreenshotter = fn }
}

// NewServer creates a worker server. opts carries the proxy and browser
// binary handed down by the gateway.
func NewServer(cfg *config.Config, logger *slog.Logger, opts fetcher.Options, serverOpts ...ServerOption) *Server {
	s := &Server{
		cfg:      cfg,
		opts:     opts,
		products: parser.NewProductParser(logger),
		search:   parser.NewSearchParser(logger),
		pipeline: pipeline.NewDefault(logger),
		logger:   logger.With("component", "worker"),
	}
	s.newFetcher = func() (fetcher.Fetcher, error) {
		return fetcher.New(s.cfg, logger, s.opts)
	}
	s.newScreenshotter = func() fetcher.Screenshotter {
		// Screenshots always need a real browser.
		return fetcher.NewBrowserFetcher(s.cfg, logger, s.opts)
	}

	for _, opt := range serverOpts {
		opt(s)
	}
	return s
}

// Serve handles positional worker arguments and writes the result to out.
// It only returns an error when out cannot be written.
func (s *Server) Serve(ctx context.Context, args []string, out io.Writer) error {
	req, err := ParseRequest(args)
	if err != nil {
		return write(out, ErrorDoc{Error: types.CodeUnknownCommand, Message: err.Error()})
	}

	switch req.Command {
	case CmdProduct:
		return write(out, s.product(ctx, req))
	case CmdSearch:
		return write(out, s.searchPage(ctx, req))
	case CmdScreenshot:
		return write(out, s.screenshot(ctx, req))
	default:
		s.logger.Error("unknown command", "command", req.Command)
		return write(out, ErrorDoc{Error: types.CodeUnknownCommand, Message: "unknown command " + req.Command})
	}
}

func (s *Server) product(ctx context.Context, req Request) any {
	id := marketplace.NormalizeID(req.Arg)
	if !marketplace.Validate(id) {
		return ErrorDoc{Error: types.CodeInvalidID, Message: "invalid product id " + req.Arg}
	}
	market := s.market(req.Domain)
	url := market.ProductURL(id)

	f, err := s.newFetcher()
	if err != nil {
		return ErrorDoc{Error: types.CodeFetchFailed, Message: err.Error()}
	}
	defer f.Close()

	page, err := f.Fetch(ctx, url, productWaitSelector)
	if err != nil {
		return s.fetchFailure(err, "could not fetch product page")
	}

	product, err := s.products.ExtractProduct(page.Body, id)
	if err != nil {
		s.logger.Warn("product extraction failed", "id", id, "error", err)
		return ErrorDoc{Error: types.CodeParseFailed, Message: "could not parse product page"}
	}
	product.Domain = market.Code
	product.URL = url

	product, err = s.pipeline.Process(product)
	if err != nil || product == nil {
		s.logger.Warn("product rejected by pipeline", "id", id, "error", err)
		return ErrorDoc{Error: types.CodeParseFailed, Message: "could not parse product page"}
	}
	return product
}

func (s *Server) searchPage(ctx context.Context, req Request) any {
	empty := []types.ResultEntry{}
	url := s.market(req.Domain).SearchURL(req.Arg, req.Page())

	f, err := s.newFetcher()
	if err != nil {
		s.logger.Warn("fetcher setup failed", "error", err)
		return empty
	}
	defer f.Close()

	page, err := f.Fetch(ctx, url, searchWaitSelector)
	if err != nil {
		s.logger.Warn("search fetch failed", "url", url, "error", err)
		return empty
	}

	entries, err := s.search.ExtractSearchResults(page.Body)
	if err != nil {
		s.logger.Warn("search extraction failed", "url", url, "error", err)
		return empty
	}
	return entries
}

func (s *Server) screenshot(ctx context.Context, req Request) any {
	id := marketplace.NormalizeID(req.Arg)
	if !marketplace.Validate(id) {
		return ErrorDoc{Error: types.CodeInvalidID, Message: "invalid product id " + req.Arg}
	}
	url := s.market(req.Domain).ScreenshotURL(id, req.Extra)

	img, err := s.newScreenshotter().Screenshot(ctx, url)
	if err != nil {
		s.logger.Warn("screenshot failed", "url", url, "error", err)
		if errors.Is(err, types.ErrBlocked) {
			return ErrorDoc{Error: types.CodeBlocked, Message: err.Error()}
		}
		return ErrorDoc{Error: types.CodeScreenshotFailed, Message: err.Error()}
	}
	return ScreenshotDoc{Screenshot: base64.StdEncoding.EncodeToString(img)}
}

// market resolves domain, logging when an unrecognised code falls back to
// the default storefront.
func (s *Server) market(domain string) marketplace.Marketplace {
	if domain != "" && !marketplace.Known(domain) {
		s.logger.Warn("unknown marketplace, using default", "domain", domain, "default", marketplace.DefaultDomain)
	}
	return marketplace.Lookup(domain)
}

func (s *Server) fetchFailure(err error, message string) ErrorDoc {
	s.logger.Warn("fetch failed", "error", err)
	if errors.Is(err, types.ErrBlocked) {
		return ErrorDoc{Error: types.CodeBlocked, Message: "bot challenge detected"}
	}
	return ErrorDoc{Error: types.CodeFetchFailed, Message: message + ": " + err.Error()}
}

// write encodes v as a single JSON document.
func write(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
