package geo

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/storetap/internal/model"
)

func TestGenerateGrid_InclusiveEdges(t *testing.T) {
	b := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{3, 3}}
	pts := GenerateGrid(b, 1.5)

	require.Len(t, pts, 9)
	assert.Equal(t, model.GeoPoint{Lat: 0, Lng: 0}, pts[0])
	assert.Equal(t, model.GeoPoint{Lat: 3, Lng: 3}, pts[8])
}

func TestGenerateGrid_ContiguousUS(t *testing.T) {
	pts := GenerateGrid(ContiguousUS, DefaultGridStep)

	// 17 latitude rows by 39 longitude columns
	assert.Len(t, pts, 17*39)
	for _, p := range pts {
		assert.True(t, ContiguousUS.Contains(p.Orb()), "point %s outside bound", p)
	}
}

func TestGenerateGrid_DefaultStep(t *testing.T) {
	b := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1.5, 0}}
	assert.Len(t, GenerateGrid(b, 0), 2)
}

func TestGenerateRadiusGrid(t *testing.T) {
	center := model.GeoPoint{Lat: 39.7392, Lng: -104.9903}
	pts := GenerateRadiusGrid(center, 100, 0.5)

	require.NotEmpty(t, pts)
	for _, p := range pts {
		assert.LessOrEqual(t, DistanceKm(center, p), 100.0)
	}
}

func TestGenerateRadiusGrid_FallsBackToCenter(t *testing.T) {
	center := model.GeoPoint{Lat: 39.7392, Lng: -104.9903}
	pts := GenerateRadiusGrid(center, 1, 5)

	assert.Equal(t, []model.GeoPoint{center}, pts)
}

func TestDistanceKm(t *testing.T) {
	nyc := model.GeoPoint{Lat: 40.7128, Lng: -74.0060}
	la := model.GeoPoint{Lat: 34.0522, Lng: -118.2437}

	assert.InDelta(t, 3936, DistanceKm(nyc, la), 20)
	assert.InDelta(t, 0, DistanceKm(nyc, nyc), 1e-9)
}

func TestParseBound(t *testing.T) {
	b, err := ParseBound("30.1, -98.0,31.5,-97.2")
	require.NoError(t, err)
	assert.Equal(t, orb.Point{-98.0, 30.1}, b.Min)
	assert.Equal(t, orb.Point{-97.2, 31.5}, b.Max)
}

func TestParseBound_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"too few parts", "1,2,3"},
		{"not a number", "a,2,3,4"},
		{"min above max", "5,2,3,4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBound(tt.in)
			assert.Error(t, err)
		})
	}
}
