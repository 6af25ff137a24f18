package normalize

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/storetap/internal/engine/dedup"
)

func TestStarbucks(t *testing.T) {
	raw := decode(t, `{"store": {
		"id": "1234-5678",
		"storeNumber": "11111-22222",
		"name": "Broadway & Chambers",
		"phoneNumber": "212-555-0100",
		"ownershipTypeCode": "CO",
		"open": true,
		"slug": "broadway-chambers",
		"coordinates": {"latitude": 40.7142, "longitude": -74.0064},
		"address": {
			"streetAddressLine1": "1 Broadway",
			"streetAddressLine2": null,
			"city": "New York",
			"countrySubdivisionCode": "NY",
			"postalCode": "100071234567",
			"countryCode": "US"
		}
	}}`)

	r, err := Starbucks().Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, "Starbucks", r.Brand)
	assert.Equal(t, "1234-5678", r.ProviderID)
	assert.Equal(t, "id:1234-5678", r.Key)
	assert.Equal(t, "Broadway & Chambers", r.Name)
	assert.Equal(t, "1 Broadway", r.Line1)
	assert.Empty(t, r.Line2)
	assert.Equal(t, "New York", r.City)
	assert.Equal(t, "NY", r.Region)
	assert.Equal(t, "1000712345", r.PostalCode)
	assert.Equal(t, "US", r.CountryCode)
	assert.Equal(t, 40.7142, r.Point.Lat)
	assert.Equal(t, -74.0064, r.Point.Lng)
	assert.Equal(t, "CO", r.Attrs["ownership"])
	assert.Equal(t, "true", r.Attrs["open"])
	assert.Equal(t, "11111-22222", r.Attrs["store_number"])
	assert.NotContains(t, r.Attrs, "open_status")
}

func TestStarbucks_StoreNumberFallback(t *testing.T) {
	raw := decode(t, `{"store": {"storeNumber": "999", "coordinates": {"latitude": 1, "longitude": 2}}}`)

	r, err := Starbucks().Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "999", r.ProviderID)
}

func TestStarbucks_MissingCoordinates(t *testing.T) {
	raw := decode(t, `{"store": {"id": "1"}}`)

	_, err := Starbucks().Normalize(raw)
	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "coordinates", se.Field)
}

func TestYext(t *testing.T) {
	raw := decode(t, `{
		"id": "RC-77",
		"name": "Raising Cane's",
		"mainPhone": "+15125550100",
		"websiteUrl": {"url": "https://locations.raisingcanes.com/tx/austin/77"},
		"address": {"line1": "500 Congress Ave", "city": "Austin", "region": "TX", "postalCode": "78701-1234", "countryCode": "US"},
		"yextDisplayCoordinate": {"latitude": 30.2672, "longitude": -97.7431}
	}`)

	r, err := Yext("Raising Cane's").Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, "Raising Cane's", r.Brand)
	assert.Equal(t, "RC-77", r.ProviderID)
	assert.Equal(t, "78701", r.PostalCode)
	assert.Equal(t, "TX", r.Region)
	assert.Equal(t, 30.2672, r.Point.Lat)
	assert.Equal(t, "https://locations.raisingcanes.com/tx/austin/77", r.Attrs["website"])
}

func TestYext_AddressKeyAndCoordinateFallback(t *testing.T) {
	raw := decode(t, `{
		"name": "Raising Cane's",
		"address": {"line1": "1 Main St", "state": "LA", "postalCode": "70801"},
		"displayCoordinate": {"latitude": 30.45, "longitude": -91.18}
	}`)

	r, err := Yext("Raising Cane's").Normalize(raw)
	require.NoError(t, err)

	assert.Empty(t, r.ProviderID)
	assert.Equal(t, "addr:1 main st||la|70801", r.Key)
	assert.Equal(t, "Raising Cane's|1 Main St|70801", r.Attrs["location_id"])
	assert.Equal(t, "LA", r.Region)
	assert.Equal(t, -91.18, r.Point.Lng)
}

func TestYext_NameVariantsShareAddressKey(t *testing.T) {
	const tmpl = `{
		"name": %q,
		"address": {"line1": "100 Main St", "city": "Austin", "region": "TX", "postalCode": "78701"},
		"yextDisplayCoordinate": {"latitude": 30.27, "longitude": -97.74}
	}`
	m := Yext("Raising Cane's")

	a, err := m.Normalize(decode(t, fmt.Sprintf(tmpl, "Raising Cane's")))
	require.NoError(t, err)
	b, err := m.Normalize(decode(t, fmt.Sprintf(tmpl, "Raising Cane's Chicken Fingers")))
	require.NoError(t, err)

	assert.Equal(t, a.Key, b.Key)
	assert.Equal(t, "addr:100 main st|austin|tx|78701", a.Key)

	store := dedup.NewStore()
	ok, err := store.Accept(&a)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = store.Accept(&b)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestYext_IDSuppressesLocationID(t *testing.T) {
	raw := decode(t, `{
		"id": "RC-9",
		"name": "Raising Cane's",
		"address": {"line1": "1 Main St", "postalCode": "70801"},
		"yextDisplayCoordinate": {"latitude": 30.45, "longitude": -91.18}
	}`)

	r, err := Yext("Raising Cane's").Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "id:rc-9", r.Key)
	assert.NotContains(t, r.Attrs, "location_id")
}

func TestDutchBros(t *testing.T) {
	raw := decode(t, `{
		"new_co_id": "",
		"id": 501,
		"store_nickname": "Grants Pass Sixth",
		"stand_address": "123 SE 6th St",
		"city": "Grants Pass",
		"state": "OR",
		"zip_code": "97526",
		"latitude": "42.4390",
		"longitude": "-123.3284",
		"drivethru": true,
		"schedule_array": [{"day": "mon", "open": "05:00"}]
	}`)

	r, err := DutchBros().Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, "501", r.ProviderID)
	assert.Equal(t, "Grants Pass Sixth", r.Name)
	assert.Equal(t, "123 SE 6th St", r.Line1)
	assert.Equal(t, "US", r.CountryCode)
	assert.Equal(t, 42.439, r.Point.Lat)
	assert.Equal(t, -123.3284, r.Point.Lng)
	assert.Equal(t, "true", r.Attrs["drivethru"])
	assert.Equal(t, `[{"day":"mon","open":"05:00"}]`, r.Attrs["schedule"])
}

func TestDutchBros_NestedCoordinates(t *testing.T) {
	raw := decode(t, `{"id": "7", "country": "CA", "coordinates": {"lat": 49.28, "lon": -123.12}}`)

	r, err := DutchBros().Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "CA", r.CountryCode)
	assert.Equal(t, 49.28, r.Point.Lat)
}

func TestSevenBrew_OptionalPoint(t *testing.T) {
	raw := decode(t, `{
		"@type": "LocalBusiness",
		"url": "https://7brew.com/location/rogers-ar/",
		"heading": "Rogers, AR",
		"address": {"streetAddress": "100 Walnut St", "addressLocality": "Rogers", "addressRegion": "AR", "postalCode": "72756", "addressCountry": {"@type": "Country", "name": "USA"}}
	}`)

	r, err := SevenBrew().Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, "Rogers, AR", r.Name)
	assert.Equal(t, "US", r.CountryCode)
	assert.False(t, r.HasPoint())
	assert.Equal(t, "id:https://7brew.com/location/rogers-ar/", r.Key)
}

func TestNormalize_NoIdentity(t *testing.T) {
	raw := decode(t, `{"lat": 45.0, "lon": -122.0}`)

	_, err := DutchBros().Normalize(raw)
	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "identity", se.Field)
	assert.ErrorIs(t, err, dedup.ErrNoIdentity)
}

func TestNormalize_RejectsNullIsland(t *testing.T) {
	raw := decode(t, `{"id": "x", "lat": 0, "lon": 0}`)

	_, err := DutchBros().Normalize(raw)
	var se *SchemaError
	assert.True(t, errors.As(err, &se))
}
