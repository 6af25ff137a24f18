package model

import (
	"fmt"

	"github.com/paulmach/orb"
)

// GeoPoint is a latitude/longitude pair in degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Orb returns the point in orb's [lng, lat] order.
func (p GeoPoint) Orb() orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("%.4f,%.4f", p.Lat, p.Lng)
}

// PointFromOrb converts an orb point back to a GeoPoint.
func PointFromOrb(p orb.Point) GeoPoint {
	return GeoPoint{Lat: p.Lat(), Lng: p.Lon()}
}

// Cell is a grid bucket obtained by snapping a point to a fixed granularity.
// Points that share a cell are the same query area.
type Cell struct {
	Row int64
	Col int64
}

func (c Cell) String() string {
	return fmt.Sprintf("%d:%d", c.Row, c.Col)
}

// RawRecord is one decoded location object as returned by an oracle or listing.
type RawRecord map[string]any

// Record is a normalized location.
type Record struct {
	Key         string            `json:"key"`
	ProviderID  string            `json:"provider_id"`
	Brand       string            `json:"brand"`
	Name        string            `json:"name"`
	Point       GeoPoint          `json:"point"`
	Line1       string            `json:"line1"`
	Line2       string            `json:"line2"`
	Line3       string            `json:"line3"`
	City        string            `json:"city"`
	Region      string            `json:"region"`
	PostalCode  string            `json:"postal_code"`
	CountryCode string            `json:"country_code"`
	Phone       string            `json:"phone"`
	Attrs       map[string]string `json:"attrs,omitempty"`
}

// HasPoint reports whether the record carries usable coordinates.
func (r Record) HasPoint() bool {
	return !(r.Point.Lat == 0 && r.Point.Lng == 0)
}
