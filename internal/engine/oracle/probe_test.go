package oracle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/storetap/internal/model"
)

type querierFunc func(ctx context.Context, lat, lng float64, limit int) ([]model.RawRecord, error)

func (f querierFunc) Query(ctx context.Context, lat, lng float64, limit int) ([]model.RawRecord, error) {
	return f(ctx, lat, lng, limit)
}

func TestProbe(t *testing.T) {
	q := querierFunc(func(_ context.Context, lat, lng float64, _ int) ([]model.RawRecord, error) {
		assert.Equal(t, ProbePoint.Lat, lat)
		assert.Equal(t, ProbePoint.Lng, lng)
		return []model.RawRecord{{"id": "1"}, {"id": "2"}}, nil
	})

	n, err := Probe(context.Background(), q, ProbePoint, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestProbe_Empty(t *testing.T) {
	q := querierFunc(func(context.Context, float64, float64, int) ([]model.RawRecord, error) {
		return nil, nil
	})

	_, err := Probe(context.Background(), q, ProbePoint, 10)
	assert.ErrorIs(t, err, ErrProbeEmpty)
}

func TestProbe_TransportError(t *testing.T) {
	q := querierFunc(func(context.Context, float64, float64, int) ([]model.RawRecord, error) {
		return nil, &TransportError{StatusCode: 403, Err: &RateLimitError{StatusCode: 403}}
	})

	_, err := Probe(context.Background(), q, ProbePoint, 10)
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 403, te.StatusCode)
}
