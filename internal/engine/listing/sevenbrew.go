package listing

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/rendis/storetap/internal/engine/dedup"
	"github.com/rendis/storetap/internal/engine/normalize"
	"github.com/rendis/storetap/internal/engine/oracle"
	"github.com/rendis/storetap/internal/model"
)

// SevenBrewURL lists every 7 Brew stand with a "View" link to its page.
const SevenBrewURL = "https://7brew.com/find-a-7-brew/"

var (
	placeTypes = map[string]bool{
		"place":             true,
		"localbusiness":     true,
		"organization":      true,
		"restaurant":        true,
		"cafeorcoffeeshop":  true,
		"foodestablishment": true,
	}
	usMention = regexp.MustCompile(`\b(USA|United States)\b`)
)

// SevenBrew scrapes the listing page and every linked detail page, waiting
// delay between detail requests.
func SevenBrew(ctx context.Context, f *oracle.Fetcher, listURL string, delay time.Duration) (*Result, error) {
	if listURL == "" {
		listURL = SevenBrewURL
	}
	logger := zap.L().With(zap.String("component", "listing"), zap.String("brand", "7brew"))

	links, err := detailLinks(ctx, f, listURL)
	if err != nil {
		return nil, err
	}
	logger.Info("detail links found", zap.Int("links", len(links)))

	limiter := rate.NewLimiter(rate.Every(delay), 1)
	norm := normalize.SevenBrew()
	seen := dedup.NewStore()
	res := &Result{}

	for i, link := range links {
		if err := limiter.Wait(ctx); err != nil {
			return res, eris.Wrap(err, "listing: wait for rate limiter")
		}

		raw, err := detailRecord(ctx, f, link)
		if err != nil {
			logger.Warn("detail page failed", zap.String("url", link), zap.Error(err))
			res.Failed++
			continue
		}
		rec, err := norm.Normalize(raw)
		if err != nil {
			logger.Warn("detail page unusable", zap.String("url", link), zap.Error(err))
			res.Failed++
			continue
		}
		res.add(seen, rec)
		logger.Debug("detail page done",
			zap.Int("n", i+1),
			zap.Int("of", len(links)),
			zap.String("city", rec.City),
			zap.String("region", rec.Region),
		)
	}
	return res, nil
}

func fetchDocument(ctx context.Context, f *oracle.Fetcher, pageURL string) (*goquery.Document, error) {
	h := http.Header{}
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	body, err := f.Get(ctx, pageURL, h)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &oracle.ParseError{URL: pageURL, Err: eris.Wrap(err, "listing: parse html")}
	}
	return doc, nil
}

// detailLinks returns the absolute targets of every "View" link, deduplicated
// in page order.
func detailLinks(ctx context.Context, f *oracle.Fetcher, listURL string) ([]string, error) {
	base, err := url.Parse(listURL)
	if err != nil {
		return nil, eris.Wrapf(err, "listing: parse list url %s", listURL)
	}
	doc, err := fetchDocument(ctx, f, listURL)
	if err != nil {
		return nil, eris.Wrap(err, "listing: fetch 7 brew listing")
	}

	var links []string
	seen := make(map[string]bool)
	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		if !strings.EqualFold(strings.TrimSpace(a.Text()), "view") {
			return
		}
		href, ok := a.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref).String()
		if seen[abs] {
			return
		}
		seen[abs] = true
		links = append(links, abs)
	})
	return links, nil
}

// detailRecord turns a detail page into a raw record built from its first
// place-like JSON-LD object.
func detailRecord(ctx context.Context, f *oracle.Fetcher, pageURL string) (model.RawRecord, error) {
	doc, err := fetchDocument(ctx, f, pageURL)
	if err != nil {
		return nil, err
	}

	raw := pickJSONLD(doc)
	if raw == nil {
		raw = model.RawRecord{}
	}
	raw["url"] = pageURL
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		raw["heading"] = h1
	}
	if u, err := url.Parse(pageURL); err == nil {
		parts := strings.Split(strings.TrimRight(u.Path, "/"), "/")
		raw["slug"] = parts[len(parts)-1]
	}
	if usMention.MatchString(doc.Find("body").Text()) {
		raw["country"] = "US"
	}
	return raw, nil
}

func pickJSONLD(doc *goquery.Document) model.RawRecord {
	var found model.RawRecord
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var data any
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return true
		}
		for _, obj := range jsonLDObjects(data) {
			if isPlace(obj["@type"]) {
				found = model.RawRecord(obj)
				return false
			}
		}
		return true
	})
	return found
}

// jsonLDObjects flattens top-level arrays and @graph containers.
func jsonLDObjects(data any) []map[string]any {
	var out []map[string]any
	switch v := data.(type) {
	case []any:
		for _, item := range v {
			out = append(out, jsonLDObjects(item)...)
		}
	case map[string]any:
		out = append(out, v)
		if graph, ok := v["@graph"]; ok {
			out = append(out, jsonLDObjects(graph)...)
		}
	}
	return out
}

func isPlace(t any) bool {
	switch v := t.(type) {
	case string:
		return placeTypes[strings.ToLower(v)]
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && placeTypes[strings.ToLower(s)] {
				return true
			}
		}
	}
	return false
}
