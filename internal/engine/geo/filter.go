package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/rendis/storetap/internal/model"
)

// Region bounds a crawl. A zero Region contains every point.
type Region struct {
	Bound *orb.Bound
	Poly  orb.MultiPolygon
}

// IsZero reports whether the region imposes no restriction.
func (r Region) IsZero() bool {
	return r.Bound == nil && len(r.Poly) == 0
}

// Contains reports whether p falls inside both the bound and the polygon, when set.
func (r Region) Contains(p model.GeoPoint) bool {
	point := p.Orb() // orb.Point is [lng, lat]
	if r.Bound != nil && !r.Bound.Contains(point) {
		return false
	}
	if len(r.Poly) > 0 && !planar.MultiPolygonContains(r.Poly, point) {
		return false
	}
	return true
}

// Filter keeps the points inside the region.
func (r Region) Filter(pts []model.GeoPoint) []model.GeoPoint {
	if r.IsZero() {
		return pts
	}
	var in []model.GeoPoint
	for _, p := range pts {
		if r.Contains(p) {
			in = append(in, p)
		}
	}
	return in
}
