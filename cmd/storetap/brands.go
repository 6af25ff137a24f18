package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/rendis/storetap/internal/config"
	"github.com/rendis/storetap/internal/engine/crawler"
	"github.com/rendis/storetap/internal/engine/listing"
	"github.com/rendis/storetap/internal/engine/normalize"
	"github.com/rendis/storetap/internal/engine/oracle"
)

type brandKind string

const (
	kindCrawl   brandKind = "crawl"
	kindListing brandKind = "list"
)

// brandSpec wires a brand to its oracle and normalizer, or to its listing fetcher.
type brandSpec struct {
	name  string
	title string
	kind  brandKind
	// hint is shown when the sanity probe fails.
	hint       string
	newOracle  func(cfg *config.Config, f *oracle.Fetcher) (crawler.Oracle, error)
	normalizer func() crawler.Normalizer
	list       func(ctx context.Context, cfg *config.Config, f *oracle.Fetcher) (*listing.Result, error)
}

var brands = map[string]brandSpec{
	"starbucks": {
		name:  "starbucks",
		title: "Starbucks",
		kind:  kindCrawl,
		hint:  "refresh the cookie file from a browser session on starbucks.com",
		newOracle: func(cfg *config.Config, f *oracle.Fetcher) (crawler.Oracle, error) {
			cookie, err := oracle.LoadCookie(cfg.Starbucks.CookieFile)
			if err != nil {
				return nil, err
			}
			return oracle.NewStarbucks(f, oracle.StarbucksConfig{
				BaseURL: cfg.Starbucks.BaseURL,
				Place:   cfg.Starbucks.Place,
				Cookie:  cookie,
			}), nil
		},
		normalizer: func() crawler.Normalizer { return normalize.Starbucks() },
	},
	"raisingcanes": {
		name:  "raisingcanes",
		title: "Raising Cane's",
		kind:  kindCrawl,
		hint:  "check yext.api_key, yext.experience_key and yext.vertical_key",
		newOracle: func(cfg *config.Config, f *oracle.Fetcher) (crawler.Oracle, error) {
			y, err := oracle.NewYext(f, cfg.Yext.Oracle())
			if err != nil {
				return nil, err
			}
			return y, nil
		},
		normalizer: func() crawler.Normalizer { return normalize.Yext("Raising Cane's") },
	},
	"dutchbros": {
		name:  "dutchbros",
		title: "Dutch Bros",
		kind:  kindListing,
		list: func(ctx context.Context, cfg *config.Config, f *oracle.Fetcher) (*listing.Result, error) {
			return listing.DutchBros(ctx, f, cfg.DutchBros.URL)
		},
	},
	"7brew": {
		name:  "7brew",
		title: "7 Brew",
		kind:  kindListing,
		list: func(ctx context.Context, cfg *config.Config, f *oracle.Fetcher) (*listing.Result, error) {
			return listing.SevenBrew(ctx, f, cfg.SevenBrew.ListURL, cfg.Crawl.Delay)
		},
	},
}

func brandNames(kind brandKind) []string {
	var names []string
	for name, b := range brands {
		if b.kind == kind {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func lookupBrand(name string, kind brandKind) (brandSpec, error) {
	b, ok := brands[strings.ToLower(strings.TrimSpace(name))]
	if !ok || b.kind != kind {
		return brandSpec{}, eris.Errorf("unknown %s brand %q (available: %s)",
			kind, name, strings.Join(brandNames(kind), ", "))
	}
	return b, nil
}

var brandsCmd = &cobra.Command{
	Use:   "brands",
	Short: "List the supported brands",
	Run: func(cmd *cobra.Command, _ []string) {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "BRAND\tNAME\tCOMMAND")
		for _, kind := range []brandKind{kindCrawl, kindListing} {
			for _, name := range brandNames(kind) {
				fmt.Fprintf(w, "%s\t%s\t%s\n", name, brands[name].title, kind)
			}
		}
		_ = w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(brandsCmd)
}
