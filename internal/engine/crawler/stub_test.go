package crawler

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"

	"github.com/rendis/storetap/internal/model"
)

type queryFunc func(call int, lat, lng float64) ([]model.RawRecord, error)

// stubOracle records every call and delegates the answer to fn.
type stubOracle struct {
	mu    sync.Mutex
	calls []model.GeoPoint
	fn    queryFunc
}

func newStubOracle(fn queryFunc) *stubOracle {
	return &stubOracle{fn: fn}
}

func (s *stubOracle) Query(_ context.Context, lat, lng float64, _ int) ([]model.RawRecord, error) {
	s.mu.Lock()
	s.calls = append(s.calls, model.GeoPoint{Lat: lat, Lng: lng})
	n := len(s.calls)
	s.mu.Unlock()
	return s.fn(n, lat, lng)
}

func (s *stubOracle) Calls() []model.GeoPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.GeoPoint(nil), s.calls...)
}

// stubNormalizer reads id, lat and lng keys.
type stubNormalizer struct{}

func (stubNormalizer) Normalize(raw model.RawRecord) (model.Record, error) {
	lat, okLat := raw["lat"].(float64)
	lng, okLng := raw["lng"].(float64)
	if !okLat || !okLng {
		return model.Record{}, eris.New("stub: missing coordinates")
	}
	id, _ := raw["id"].(string)
	return model.Record{ProviderID: id, Brand: "Stub", Point: model.GeoPoint{Lat: lat, Lng: lng}}, nil
}

func raw(id string, lat, lng float64) model.RawRecord {
	return model.RawRecord{"id": id, "lat": lat, "lng": lng}
}

// denseOracle answers every query inside box with one store on a 0.1 degree
// lattice, so the crawl keeps finding new stores until it leaves the box.
func denseOracle(box orb.Bound) *stubOracle {
	return newStubOracle(func(_ int, lat, lng float64) ([]model.RawRecord, error) {
		if !box.Contains(orb.Point{lng, lat}) {
			return nil, nil
		}
		sLat := math.Round(lat*10) / 10
		sLng := math.Round(lng*10) / 10
		return []model.RawRecord{raw(fmt.Sprintf("%.1f,%.1f", sLat, sLng), sLat, sLng)}, nil
	})
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Delay = 0
	return cfg
}
