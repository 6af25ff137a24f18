package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeocodeRegion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Texas, US", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"boundingbox":["25.8","36.5","-106.6","-93.5"],"display_name":"Texas"}]`))
	}))
	defer srv.Close()

	g := &Geocoder{BaseURL: srv.URL, Client: srv.Client()}
	b, err := g.GeocodeRegion(context.Background(), "Texas, US")
	require.NoError(t, err)

	assert.InDelta(t, -106.6, b.Min.Lon(), 1e-9)
	assert.InDelta(t, 25.8, b.Min.Lat(), 1e-9)
	assert.InDelta(t, -93.5, b.Max.Lon(), 1e-9)
	assert.InDelta(t, 36.5, b.Max.Lat(), 1e-9)
}

func TestGeocodeRegion_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	g := &Geocoder{BaseURL: srv.URL, Client: srv.Client()}
	_, err := g.GeocodeRegion(context.Background(), "Atlantis")
	assert.ErrorContains(t, err, "not found")
}

func TestGeocodeRegion_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := &Geocoder{BaseURL: srv.URL, Client: srv.Client()}
	_, err := g.GeocodeRegion(context.Background(), "Texas")
	assert.Error(t, err)
}
