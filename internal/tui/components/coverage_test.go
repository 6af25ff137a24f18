package components

import (
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"

	"github.com/rendis/storetap/internal/model"
)

func TestCoverageMap_EmptyIsBlank(t *testing.T) {
	m := NewCoverageMap(10, 3)
	view := m.View()

	assert.Len(t, strings.Split(view, "\n"), 3)
	assert.Empty(t, strings.TrimSpace(view))
	assert.Zero(t, m.Plotted())
}

func TestCoverageMap_FramedPoints(t *testing.T) {
	frame := orb.Bound{Min: orb.Point{-100, 30}, Max: orb.Point{-90, 40}}
	m := NewCoverageMap(10, 5)
	m.SetFrame(&frame)
	m.SetPoints([]model.GeoPoint{
		{Lat: 35, Lng: -95},
		{Lat: 31, Lng: -99},
		{Lat: 50, Lng: -95}, // outside frame
	})

	assert.Equal(t, 2, m.Plotted())
	assert.NotEmpty(t, strings.TrimSpace(m.View()))
}

func TestCoverageMap_FitsPoints(t *testing.T) {
	m := NewCoverageMap(20, 5)
	m.SetPoints([]model.GeoPoint{{Lat: 40.7, Lng: -74.0}, {Lat: 34.0, Lng: -118.2}})

	assert.Equal(t, 2, m.Plotted())
	assert.NotEmpty(t, strings.TrimSpace(m.View()))
}

func TestCoverageMap_ZeroSize(t *testing.T) {
	m := NewCoverageMap(0, 0)
	m.SetPoints([]model.GeoPoint{{Lat: 1, Lng: 1}})
	assert.Empty(t, m.View())
}
