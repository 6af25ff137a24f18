package oracle

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/rendis/storetap/internal/model"
)

// ProbePoint is lower Manhattan, where every chain we crawl has stores.
var ProbePoint = model.GeoPoint{Lat: 40.7127753, Lng: -74.0059728}

// ErrProbeEmpty means the probe query succeeded but returned nothing, which
// usually points at stale cookies or a wrong API key.
var ErrProbeEmpty = eris.New("oracle: probe returned no locations")

// Querier is the query half of an oracle.
type Querier interface {
	Query(ctx context.Context, lat, lng float64, limit int) ([]model.RawRecord, error)
}

// Probe makes one known-good query and returns the number of items.
func Probe(ctx context.Context, q Querier, p model.GeoPoint, limit int) (int, error) {
	items, err := q.Query(ctx, p.Lat, p.Lng, limit)
	if err != nil {
		return 0, eris.Wrapf(err, "oracle: probe at %s", p)
	}
	if len(items) == 0 {
		return 0, ErrProbeEmpty
	}
	return len(items), nil
}
