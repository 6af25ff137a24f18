package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/storetap/internal/model"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Main   St ", "main st"},
		{"CAFÉ", "cafe"},
		{"São Paulo", "sao paulo"},
		{"Straße", "strasse"},
		{"\tA\nB ", "a b"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "input %q", tt.in)
	}
}

func TestIdentityKey_ProviderIDWins(t *testing.T) {
	key, err := IdentityKey(model.Record{ProviderID: " ABC-1 ", Line1: "1 Main St"})
	require.NoError(t, err)
	assert.Equal(t, "id:abc-1", key)
}

func TestIdentityKey_IDIsCaseInsensitive(t *testing.T) {
	a, err := IdentityKey(model.Record{ProviderID: "Store42"})
	require.NoError(t, err)
	b, err := IdentityKey(model.Record{ProviderID: "STORE42"})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestIdentityKey_AddressFallback(t *testing.T) {
	a, err := IdentityKey(model.Record{Line1: "100 Main St", City: "Springfield", Region: "IL", PostalCode: "62701"})
	require.NoError(t, err)
	b, err := IdentityKey(model.Record{Line1: "100  MAIN st", City: "springfield", Region: "il", PostalCode: "62701"})
	require.NoError(t, err)

	assert.Equal(t, "addr:100 main st|springfield|il|62701", a)
	assert.Equal(t, a, b)
}

func TestIdentityKey_PartialAddress(t *testing.T) {
	key, err := IdentityKey(model.Record{City: "Austin"})
	require.NoError(t, err)
	assert.Equal(t, "addr:|austin||", key)
}

func TestIdentityKey_NoIdentity(t *testing.T) {
	_, err := IdentityKey(model.Record{Name: "Nameless", Point: model.GeoPoint{Lat: 1, Lng: 1}})
	assert.ErrorIs(t, err, ErrNoIdentity)

	_, err = IdentityKey(model.Record{ProviderID: "   ", Line1: " "})
	assert.ErrorIs(t, err, ErrNoIdentity)
}
