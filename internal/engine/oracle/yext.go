package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/rendis/storetap/internal/model"
)

const (
	// YextURL is the Yext vertical search endpoint used by brand locators.
	YextURL = "https://prod-cdn.us.yextapis.com/v2/accounts/me/search/vertical/query"

	yextMaxLimit      = 50
	yextDefaultRadius = 400_000
)

// YextConfig identifies a Yext search experience. APIKey is required.
type YextConfig struct {
	BaseURL       string
	APIKey        string
	ExperienceKey string
	VerticalKey   string
	VersionDate   string
	Environment   string
	Locale        string
	RadiusMeters  int
}

func (c YextConfig) withDefaults() YextConfig {
	if c.BaseURL == "" {
		c.BaseURL = YextURL
	}
	if c.ExperienceKey == "" {
		c.ExperienceKey = "locator"
	}
	if c.VerticalKey == "" {
		c.VerticalKey = "locations"
	}
	if c.VersionDate == "" {
		c.VersionDate = "20220511"
	}
	if c.Environment == "" {
		c.Environment = "PRODUCTION"
	}
	if c.Locale == "" {
		c.Locale = "en"
	}
	if c.RadiusMeters <= 0 {
		c.RadiusMeters = yextDefaultRadius
	}
	return c
}

// Yext runs geo "near" searches against a Yext vertical.
type Yext struct {
	fetcher *Fetcher
	cfg     YextConfig
}

func NewYext(f *Fetcher, cfg YextConfig) (*Yext, error) {
	if cfg.APIKey == "" {
		return nil, eris.New("oracle: yext api key is required")
	}
	return &Yext{fetcher: f, cfg: cfg.withDefaults()}, nil
}

type yextNear struct {
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Radius int     `json:"radius"`
}

type yextResponse struct {
	Response struct {
		Results []struct {
			Data map[string]any `json:"data"`
		} `json:"results"`
	} `json:"response"`
}

// Query returns the result data objects near (lat, lng). Yext caps a page at
// 50 results.
func (y *Yext) Query(ctx context.Context, lat, lng float64, limit int) ([]model.RawRecord, error) {
	if limit <= 0 || limit > yextMaxLimit {
		limit = yextMaxLimit
	}

	filters, err := json.Marshal(map[string]map[string]yextNear{
		"builtin.location": {"$near": {Lat: lat, Lng: lng, Radius: y.cfg.RadiusMeters}},
	})
	if err != nil {
		return nil, eris.Wrap(err, "oracle: encode yext filters")
	}

	params := url.Values{}
	params.Set("api_key", y.cfg.APIKey)
	params.Set("experienceKey", y.cfg.ExperienceKey)
	params.Set("verticalKey", y.cfg.VerticalKey)
	params.Set("v", y.cfg.VersionDate)
	params.Set("version", y.cfg.Environment)
	params.Set("locale", y.cfg.Locale)
	params.Set("source", "STANDARD")
	params.Set("sessionTrackingEnabled", "true")
	params.Set("skipSpellCheck", "true")
	params.Set("retrieveFacets", "false")
	params.Set("sortBys", "[]")
	params.Set("input", "")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("filters", string(filters))
	reqURL := y.cfg.BaseURL + "?" + params.Encode()

	h := http.Header{}
	h.Set("Accept", "application/json")

	body, err := y.fetcher.Get(ctx, reqURL, h)
	if err != nil {
		return nil, err
	}

	var resp yextResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &ParseError{URL: reqURL, Err: eris.Wrap(err, "oracle: decode yext response")}
	}

	out := make([]model.RawRecord, 0, len(resp.Response.Results))
	for _, r := range resp.Response.Results {
		if r.Data == nil {
			continue
		}
		out = append(out, model.RawRecord(r.Data))
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
