package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/RivalScope/internal/engine"
	"github.com/IshaanNene/RivalScope/internal/report"
	"github.com/IshaanNene/RivalScope/internal/reviews"
	"github.com/IshaanNene/RivalScope/internal/types"
)

var (
	competitorCount   int
	competitorWorkers int
	competitorAdds    []string

	keywordList        []string
	keywordCompetitors []string
	keywordDiscover    int

	screenshotLang   string
	screenshotOutput string
)

// productCmd creates the "product" subcommand.
func productCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "product [id]",
		Short: "Look up a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, cancel, err := newApp()
			if err != nil {
				return err
			}
			defer cancel()
			defer a.metrics.LogSummary()

			product, err := a.engine.LookupProduct(ctx, args[0], domain)
			if err != nil {
				return notFound(args[0], err)
			}
			return report.Write(a.cfg.Output.Format, os.Stdout, a.logger, product)
		},
	}
}

// competitorsCmd creates the "competitors" subcommand.
func competitorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "competitors [id]",
		Short: "Discover and tier the competitors of a product",
		Long: `Discover competitors from the product's related items, topping up from a
title search when there are too few. Each competitor is tiered by
best-sellers rank relative to the target: top, benchmark or potential.`,
		Args: cobra.ExactArgs(1),
		RunE: runCompetitors,
	}

	cmd.Flags().IntVarP(&competitorCount, "count", "n", 0, "number of competitors (0 = config default)")
	cmd.Flags().IntVarP(&competitorWorkers, "workers", "w", 0, "parallel candidate fetches (0 = config default)")
	cmd.Flags().StringSliceVar(&competitorAdds, "add", nil, "ids to add as manual competitors")

	return cmd
}

func runCompetitors(cmd *cobra.Command, args []string) error {
	a, ctx, cancel, err := newApp()
	if err != nil {
		return err
	}
	defer cancel()
	defer a.metrics.LogSummary()

	if competitorWorkers > 0 {
		a.cfg.Discovery.Workers = competitorWorkers
	}

	count := competitorCount
	if count <= 0 {
		count = a.cfg.Discovery.DefaultCount
	}

	records, err := a.engine.DiscoverCompetitors(ctx, args[0], domain, count, progressPrinter)
	if err != nil {
		return err
	}

	if len(competitorAdds) > 0 {
		target, err := a.engine.LookupProduct(ctx, args[0], domain)
		if err != nil {
			return notFound(args[0], err)
		}
		for _, id := range competitorAdds {
			rec, err := a.engine.AddCompetitor(ctx, id, domain, target, records)
			if err != nil {
				a.logger.Warn("manual competitor skipped", "id", id, "error", err)
				continue
			}
			records = append(records, rec)
		}
	}

	if len(records) == 0 {
		a.logger.Warn("no competitors found", "id", args[0])
	}
	return report.Write(a.cfg.Output.Format, os.Stdout, a.logger, toAny(records)...)
}

// keywordsCmd creates the "keywords" subcommand.
func keywordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keywords [id]",
		Short: "Track search ranks of a product and its competitors",
		Long: `Search each keyword across up to three result pages and report where the
target and each competitor rank. Without --keyword, phrases are derived from
the product title.`,
		Args: cobra.ExactArgs(1),
		RunE: runKeywords,
	}

	cmd.Flags().StringArrayVarP(&keywordList, "keyword", "k", nil, "keyword to track (repeatable)")
	cmd.Flags().StringSliceVar(&keywordCompetitors, "competitor", nil, "competitor ids to track")
	cmd.Flags().IntVar(&keywordDiscover, "discover", 0, "also track discovered competitors (0 = none, -1 = config default)")

	return cmd
}

func runKeywords(cmd *cobra.Command, args []string) error {
	a, ctx, cancel, err := newApp()
	if err != nil {
		return err
	}
	defer cancel()
	defer a.metrics.LogSummary()

	keywords := keywordList
	if len(keywords) == 0 {
		target, err := a.engine.LookupProduct(ctx, args[0], domain)
		if err != nil {
			return notFound(args[0], err)
		}
		keywords = engine.KeywordsFromTitle(target.Title)
		if n := a.cfg.Keywords.MaxPhrases; n > 0 && len(keywords) > n {
			keywords = keywords[:n]
		}
		a.logger.Info("keywords derived from title", "keywords", keywords)
	}
	if len(keywords) == 0 {
		return fmt.Errorf("no keywords to track for %s", args[0])
	}

	competitors := append([]string(nil), keywordCompetitors...)
	if keywordDiscover != 0 {
		count := keywordDiscover
		if count < 0 {
			count = a.cfg.Discovery.DefaultCount
		}
		records, err := a.engine.DiscoverCompetitors(ctx, args[0], domain, count, progressPrinter)
		if err != nil {
			return err
		}
		for _, rec := range records {
			competitors = append(competitors, rec.ID)
		}
	}

	rows, err := a.engine.RankKeywords(ctx, keywords, args[0], competitors, domain, progressPrinter)
	if err != nil {
		return err
	}
	return report.Write(a.cfg.Output.Format, os.Stdout, a.logger, toAny(rows)...)
}

// reviewsCmd creates the "reviews" subcommand.
func reviewsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reviews [id]",
		Short: "Extract positive and negative keywords from a product's reviews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, cancel, err := newApp()
			if err != nil {
				return err
			}
			defer cancel()
			defer a.metrics.LogSummary()

			product, err := a.engine.LookupProduct(ctx, args[0], domain)
			if err != nil {
				return notFound(args[0], err)
			}
			signals := reviews.Analyze(product)
			a.metrics.ReviewsAnalyzed.Add(int64(signals.TotalReviews))
			return report.Write(a.cfg.Output.Format, os.Stdout, a.logger, signals)
		},
	}
}

// screenshotCmd creates the "screenshot" subcommand.
func screenshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "screenshot [id]",
		Short: "Capture a PNG of a product page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, cancel, err := newApp()
			if err != nil {
				return err
			}
			defer cancel()

			img, err := a.gateway.Screenshot(ctx, args[0], domain, screenshotLang)
			if err != nil {
				return fmt.Errorf("screenshot %s: %w", args[0], err)
			}

			path := screenshotOutput
			if path == "" {
				path = fmt.Sprintf("%s_%s.png", args[0], domain)
			}
			if dir := filepath.Dir(path); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create output dir: %w", err)
				}
			}
			if err := os.WriteFile(path, img, 0o644); err != nil {
				return fmt.Errorf("write screenshot: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Screenshot saved to %s (%d bytes)\n", path, len(img))
			return nil
		},
	}

	cmd.Flags().StringVar(&screenshotLang, "lang", "", "display language, e.g. en_GB")
	cmd.Flags().StringVarP(&screenshotOutput, "output", "o", "", "output file (default <id>_<domain>.png)")

	return cmd
}

func progressPrinter(message string) {
	fmt.Fprintf(os.Stderr, "  %s\n", message)
}

func notFound(id string, err error) error {
	if errors.Is(err, types.ErrNotFound) {
		return fmt.Errorf("product %s not found", id)
	}
	return fmt.Errorf("product %s: %w", id, err)
}

func toAny[T any](items []T) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}
