package oracle

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastFetcher(hc *http.Client) *Fetcher {
	f := NewFetcher(hc)
	f.BaseBackoff = time.Millisecond
	f.MaxBackoff = 5 * time.Millisecond
	return f
}

func TestFetcher_GetOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "yes", r.Header.Get("X-Test"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`ok`))
	}))
	defer srv.Close()

	h := http.Header{}
	h.Set("X-Test", "yes")
	body, err := fastFetcher(srv.Client()).Get(context.Background(), srv.URL, h)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
}

func TestFetcher_RetriesRateLimitThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	f := fastFetcher(srv.Client())
	body, err := f.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(body))
	assert.Equal(t, int32(3), calls.Load())
	assert.Zero(t, f.ConsecutiveRateLimits())
}

func TestFetcher_RateLimitExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := fastFetcher(srv.Client())
	_, err := f.Get(context.Background(), srv.URL, nil)
	require.Error(t, err)

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusForbidden, te.StatusCode)

	var rl *RateLimitError
	assert.True(t, errors.As(err, &rl))
	assert.Equal(t, int32(maxRetries), calls.Load())
	assert.Equal(t, int64(maxRetries), f.ConsecutiveRateLimits())
}

func TestFetcher_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := fastFetcher(srv.Client()).Get(context.Background(), srv.URL, nil)

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusNotFound, te.StatusCode)
	assert.Contains(t, err.Error(), "nope")
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetcher_ServerErrorRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := fastFetcher(srv.Client()).Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetcher_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := fastFetcher(http.DefaultClient).Get(context.Background(), url, nil)

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Zero(t, te.StatusCode)
}

func TestFetcher_CanceledWhileBackingOff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := f.Get(ctx, srv.URL, nil)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRetryAfter(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	assert.Zero(t, retryAfter(resp))

	resp.Header.Set("Retry-After", "7")
	assert.Equal(t, 7*time.Second, retryAfter(resp))

	resp.Header.Set("Retry-After", "soon")
	assert.Zero(t, retryAfter(resp))
}

func TestBackoff_Capped(t *testing.T) {
	f := &Fetcher{BaseBackoff: time.Second, MaxBackoff: 4 * time.Second}
	for attempt := range 6 {
		d := f.backoff(attempt)
		assert.LessOrEqual(t, d, time.Duration(float64(4*time.Second)*(1+jitterFactor)))
		assert.GreaterOrEqual(t, d, time.Second)
	}
}

func TestNewHTTPClient(t *testing.T) {
	hc := NewHTTPClient(HTTPConfig{Fingerprint: true})
	tr, ok := hc.Transport.(*http.Transport)
	require.True(t, ok)
	assert.NotNil(t, tr.DialTLSContext)
	assert.Equal(t, defaultTimeout, hc.Timeout)

	hc = NewHTTPClient(HTTPConfig{Fingerprint: true, ProxyURL: "http://127.0.0.1:8080", Timeout: time.Second})
	tr = hc.Transport.(*http.Transport)
	assert.Nil(t, tr.DialTLSContext)
	assert.NotNil(t, tr.Proxy)
	assert.Equal(t, time.Second, hc.Timeout)
}
