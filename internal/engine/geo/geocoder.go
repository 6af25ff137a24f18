package geo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
)

// NominatimURL is the OSM search endpoint used for region lookups.
const NominatimURL = "https://nominatim.openstreetmap.org/search"

type nominatimResult struct {
	BoundingBox []string `json:"boundingbox"` // [minLat, maxLat, minLng, maxLng]
	DisplayName string   `json:"display_name"`
}

// Geocoder resolves free-text regions to bounding boxes.
type Geocoder struct {
	BaseURL string
	Client  *http.Client
}

// GeocodeRegion returns the bounding box for a region (e.g. "Texas, US")
// using the OSM Nominatim API.
func (g *Geocoder) GeocodeRegion(ctx context.Context, query string) (orb.Bound, error) {
	base := g.BaseURL
	if base == "" {
		base = NominatimURL
	}
	hc := g.Client
	if hc == nil {
		hc = http.DefaultClient
	}

	u := base + "?" + url.Values{
		"q":      {query},
		"format": {"json"},
		"limit":  {"1"},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return orb.Bound{}, eris.Wrap(err, "geocoder: create request")
	}
	req.Header.Set("User-Agent", "storetap/0.1 (store locator crawler)")

	resp, err := hc.Do(req)
	if err != nil {
		return orb.Bound{}, eris.Wrap(err, "geocoder: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return orb.Bound{}, eris.Errorf("geocoder: unexpected status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return orb.Bound{}, eris.Wrap(err, "geocoder: decode response")
	}
	if len(results) == 0 {
		return orb.Bound{}, eris.Errorf("geocoder: region %q not found", query)
	}

	bb := results[0].BoundingBox
	if len(bb) < 4 {
		return orb.Bound{}, eris.New("geocoder: invalid bounding box")
	}

	var v [4]float64
	for i := range v {
		v[i], err = strconv.ParseFloat(bb[i], 64)
		if err != nil {
			return orb.Bound{}, eris.Wrapf(err, "geocoder: parse bounding box %q", bb[i])
		}
	}
	minLat, maxLat, minLng, maxLng := v[0], v[1], v[2], v[3]

	return orb.Bound{
		Min: orb.Point{minLng, minLat},
		Max: orb.Point{maxLng, maxLat},
	}, nil
}
