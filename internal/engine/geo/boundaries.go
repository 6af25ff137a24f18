package geo

import (
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rotisserie/eris"

	"github.com/rendis/storetap/internal/model"
)

func readFeatures(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: read %s", path)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: parse geojson %s", path)
	}
	return fc, nil
}

// LoadSeeds reads Point and MultiPoint features from a GeoJSON FeatureCollection.
func LoadSeeds(path string) ([]model.GeoPoint, error) {
	fc, err := readFeatures(path)
	if err != nil {
		return nil, err
	}

	var seeds []model.GeoPoint
	for _, f := range fc.Features {
		switch g := f.Geometry.(type) {
		case orb.Point:
			seeds = append(seeds, model.PointFromOrb(g))
		case orb.MultiPoint:
			for _, p := range g {
				seeds = append(seeds, model.PointFromOrb(p))
			}
		}
	}
	if len(seeds) == 0 {
		return nil, eris.Errorf("geo: no point features in %s", path)
	}
	return seeds, nil
}

// LoadRegion reads every Polygon and MultiPolygon feature of a GeoJSON
// FeatureCollection into one region, bounded by their combined extent.
func LoadRegion(path string) (Region, error) {
	fc, err := readFeatures(path)
	if err != nil {
		return Region{}, err
	}

	var mp orb.MultiPolygon
	for _, f := range fc.Features {
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			mp = append(mp, g)
		case orb.MultiPolygon:
			mp = append(mp, g...)
		}
	}
	if len(mp) == 0 {
		return Region{}, eris.Errorf("geo: no polygon features in %s", path)
	}

	b := mp.Bound()
	return Region{Bound: &b, Poly: mp}, nil
}
