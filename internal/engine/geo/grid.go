package geo

import (
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
	"github.com/rotisserie/eris"

	"github.com/rendis/storetap/internal/model"
)

// ContiguousUS is the lower-48 bounding box used for nationwide sweeps.
var ContiguousUS = orb.Bound{
	Min: orb.Point{-124.8, 24.5},
	Max: orb.Point{-66.9, 49.5},
}

// DefaultGridStep is the seed grid spacing in degrees.
const DefaultGridStep = 1.5

// GenerateGrid lays seed points over the bound every step degrees, inclusive of
// the upper edges. Coordinates are rounded to 3 decimals.
func GenerateGrid(b orb.Bound, step float64) []model.GeoPoint {
	if step <= 0 {
		step = DefaultGridStep
	}

	var pts []model.GeoPoint
	rows := int(math.Floor((b.Max.Lat()-b.Min.Lat())/step+1e-9)) + 1
	cols := int(math.Floor((b.Max.Lon()-b.Min.Lon())/step+1e-9)) + 1
	for r := 0; r < rows; r++ {
		lat := b.Min.Lat() + float64(r)*step
		for c := 0; c < cols; c++ {
			lng := b.Min.Lon() + float64(c)*step
			pts = append(pts, model.GeoPoint{Lat: round3(lat), Lng: round3(lng)})
		}
	}
	return pts
}

// GenerateRadiusGrid lays seed points every step degrees around a center and
// keeps those within radiusKm of it.
func GenerateRadiusGrid(center model.GeoPoint, radiusKm, step float64) []model.GeoPoint {
	// ~111 km per degree latitude
	latDeg := radiusKm / 111.0
	lngDeg := radiusKm / (111.0 * math.Cos(center.Lat*math.Pi/180.0))

	b := orb.Bound{
		Min: orb.Point{center.Lng - lngDeg, center.Lat - latDeg},
		Max: orb.Point{center.Lng + lngDeg, center.Lat + latDeg},
	}

	var filtered []model.GeoPoint
	for _, p := range GenerateGrid(b, step) {
		if DistanceKm(center, p) <= radiusKm {
			filtered = append(filtered, p)
		}
	}
	if len(filtered) == 0 {
		filtered = append(filtered, center)
	}
	return filtered
}

// DistanceKm is the great-circle distance between two points.
func DistanceKm(a, b model.GeoPoint) float64 {
	return orbgeo.DistanceHaversine(a.Orb(), b.Orb()) / 1000.0
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// ParseBound parses "minLat,minLng,maxLat,maxLng".
func ParseBound(s string) (orb.Bound, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return orb.Bound{}, eris.Errorf("geo: bound %q must be minLat,minLng,maxLat,maxLng", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return orb.Bound{}, eris.Wrapf(err, "geo: parse bound %q", s)
		}
		v[i] = f
	}
	if v[0] > v[2] || v[1] > v[3] {
		return orb.Bound{}, eris.Errorf("geo: bound %q has min above max", s)
	}
	return orb.Bound{
		Min: orb.Point{v[1], v[0]},
		Max: orb.Point{v[3], v[2]},
	}, nil
}
