package geo

import (
	"math"

	"github.com/rendis/storetap/internal/model"
)

// DefaultRingRadii are the expansion radii in degrees of latitude (~12 km and ~18 km).
var DefaultRingRadii = []float64{0.11, 0.16}

const (
	maxLat = 89.9
	// minCos keeps the longitude stretch finite near the poles.
	minCos = 0.01
)

// compass holds unit offsets (dLat, dLng) for N, NE, E, SE, S, SW, W, NW.
var compass = func() [8][2]float64 {
	var out [8][2]float64
	for i := range out {
		bearing := float64(i) * math.Pi / 4
		out[i] = [2]float64{math.Cos(bearing), math.Sin(bearing)}
	}
	return out
}()

// RingAround returns 8 points per radius around p, N first and clockwise.
// Longitude offsets are stretched by 1/cos(lat) so every point sits roughly
// radius*111 km from p. Non-positive radii are skipped, so p itself is never returned.
func RingAround(p model.GeoPoint, radii []float64) []model.GeoPoint {
	cosLat := math.Cos(p.Lat * math.Pi / 180.0)
	if cosLat < minCos {
		cosLat = minCos
	}

	out := make([]model.GeoPoint, 0, len(radii)*len(compass))
	for _, r := range radii {
		if r <= 0 {
			continue
		}
		for _, dir := range compass {
			q := model.GeoPoint{
				Lat: clampLat(p.Lat + r*dir[0]),
				Lng: wrapLng(p.Lng + r*dir[1]/cosLat),
			}
			// clamping at the poles can fold a point back onto the centre
			if q == p {
				continue
			}
			out = append(out, q)
		}
	}
	return out
}

func clampLat(lat float64) float64 {
	return math.Max(-maxLat, math.Min(maxLat, lat))
}

func wrapLng(lng float64) float64 {
	if lng >= -180 && lng < 180 {
		return lng
	}
	lng = math.Mod(lng+180, 360)
	if lng < 0 {
		lng += 360
	}
	return lng - 180
}
