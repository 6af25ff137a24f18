package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/rendis/storetap/internal/model"
)

// StarbucksURL is the store locator endpoint behind starbucks.com.
const StarbucksURL = "https://www.starbucks.com/apiproxy/v1/locations"

// StarbucksConfig holds everything a Starbucks query needs. Cookie is the raw
// value of the browser's cookie header.
type StarbucksConfig struct {
	BaseURL string
	Place   string
	Cookie  string
}

// LoadCookie reads a single-line cookie header value from path.
func LoadCookie(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", eris.Wrapf(err, "oracle: read cookie file %s (paste the browser's cookie header value into it)", path)
	}
	cookie := strings.TrimSpace(string(data))
	if cookie == "" {
		return "", eris.Errorf("oracle: cookie file %s is empty", path)
	}
	return cookie, nil
}

// Starbucks queries the Starbucks locator.
type Starbucks struct {
	fetcher *Fetcher
	cfg     StarbucksConfig
}

func NewStarbucks(f *Fetcher, cfg StarbucksConfig) *Starbucks {
	if cfg.BaseURL == "" {
		cfg.BaseURL = StarbucksURL
	}
	if cfg.Place == "" {
		cfg.Place = "United States"
	}
	return &Starbucks{fetcher: f, cfg: cfg}
}

func (s *Starbucks) headers() http.Header {
	h := http.Header{}
	h.Set("Accept", "application/json, text/plain, */*")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("Referer", "https://www.starbucks.com/store-locator")
	h.Set("Origin", "https://www.starbucks.com")
	h.Set("X-Requested-With", "XMLHttpRequest")
	h.Set("Sec-Fetch-Site", "same-origin")
	h.Set("Sec-Fetch-Mode", "cors")
	h.Set("Sec-Fetch-Dest", "empty")
	if s.cfg.Cookie != "" {
		h.Set("Cookie", s.cfg.Cookie)
	}
	return h
}

// Query returns the raw store objects near (lat, lng). The endpoint ignores
// limits, so at most limit items are kept client-side.
func (s *Starbucks) Query(ctx context.Context, lat, lng float64, limit int) ([]model.RawRecord, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	params.Set("lng", strconv.FormatFloat(lng, 'f', 6, 64))
	params.Set("place", s.cfg.Place)
	reqURL := s.cfg.BaseURL + "?" + params.Encode()

	body, err := s.fetcher.Get(ctx, reqURL, s.headers())
	if err != nil {
		return nil, err
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &ParseError{URL: reqURL, Err: eris.Wrap(err, "oracle: decode starbucks response")}
	}
	items, ok := payload.([]any)
	if !ok {
		return nil, nil
	}

	out := make([]model.RawRecord, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, model.RawRecord(m))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
