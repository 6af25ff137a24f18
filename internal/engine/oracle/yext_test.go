package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYext_Query(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "secret", q.Get("api_key"))
		assert.Equal(t, "locator", q.Get("experienceKey"))
		assert.Equal(t, "locations", q.Get("verticalKey"))
		assert.Equal(t, "20", q.Get("limit"))

		var filters map[string]map[string]map[string]float64
		require.NoError(t, json.Unmarshal([]byte(q.Get("filters")), &filters))
		near := filters["builtin.location"]["$near"]
		assert.InDelta(t, 30.2672, near["lat"], 1e-9)
		assert.InDelta(t, -97.7431, near["lng"], 1e-9)
		assert.InDelta(t, 350000, near["radius"], 1e-9)

		_, _ = w.Write([]byte(`{"response": {"results": [
			{"data": {"id": "RC1", "name": "Cane's Austin"}},
			{"data": null},
			{"data": {"id": "RC2", "name": "Cane's Round Rock"}}
		]}}`))
	}))
	defer srv.Close()

	y, err := NewYext(fastFetcher(srv.Client()), YextConfig{BaseURL: srv.URL, APIKey: "secret", RadiusMeters: 350000})
	require.NoError(t, err)

	items, err := y.Query(context.Background(), 30.2672, -97.7431, 20)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "RC1", items[0]["id"])
	assert.Equal(t, "RC2", items[1]["id"])
}

func TestYext_LimitClamped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"response": {}}`))
	}))
	defer srv.Close()

	y, err := NewYext(fastFetcher(srv.Client()), YextConfig{BaseURL: srv.URL, APIKey: "k"})
	require.NoError(t, err)

	items, err := y.Query(context.Background(), 0, 0, 500)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestYext_RequiresAPIKey(t *testing.T) {
	_, err := NewYext(NewFetcher(nil), YextConfig{})
	assert.Error(t, err)
}

func TestYext_ParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	y, err := NewYext(fastFetcher(srv.Client()), YextConfig{BaseURL: srv.URL, APIKey: "k"})
	require.NoError(t, err)

	_, err = y.Query(context.Background(), 0, 0, 10)
	var pe *ParseError
	assert.True(t, errors.As(err, &pe))
}
