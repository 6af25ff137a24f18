package normalize

import (
	"fmt"
	"strings"

	"github.com/rendis/storetap/internal/engine/dedup"
	"github.com/rendis/storetap/internal/model"
)

// SchemaError means a raw record cannot be turned into a usable Record.
type SchemaError struct {
	Brand string
	Field string
	Err   error
}

func (e *SchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("normalize: %s: %s: %v", e.Brand, e.Field, e.Err)
	}
	return fmt.Sprintf("normalize: %s: missing %s", e.Brand, e.Field)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// Fields maps each canonical field to its extractor chain.
type Fields struct {
	ID          Chain
	Name        Chain
	Line1       Chain
	Line2       Chain
	Line3       Chain
	City        Chain
	Region      Chain
	PostalCode  Chain
	CountryCode Chain
	Phone       Chain
	Lat         Chain
	Lng         Chain
	Attrs       map[string]Chain
}

// Mapper normalizes raw records of one brand.
type Mapper struct {
	Brand  string
	Fields Fields
	// PostalLen truncates postal codes when positive.
	PostalLen int
	// OptionalPoint accepts records without coordinates.
	OptionalPoint bool
	// Derived computes extra attributes from the mapped record. An empty
	// result is not stored.
	Derived map[string]func(model.Record) string
}

// Normalize maps raw into a Record and stamps its identity key.
func (m *Mapper) Normalize(raw model.RawRecord) (model.Record, error) {
	f := m.Fields
	r := model.Record{
		Brand:       m.Brand,
		ProviderID:  f.ID.String(raw),
		Name:        f.Name.String(raw),
		Line1:       f.Line1.String(raw),
		Line2:       f.Line2.String(raw),
		Line3:       f.Line3.String(raw),
		City:        f.City.String(raw),
		Region:      f.Region.String(raw),
		PostalCode:  truncate(f.PostalCode.String(raw), m.PostalLen),
		CountryCode: countryCode(f.CountryCode.String(raw)),
		Phone:       f.Phone.String(raw),
	}

	lat, okLat := f.Lat.Float(raw)
	lng, okLng := f.Lng.Float(raw)
	switch {
	case okLat && okLng && validCoord(lat, lng):
		r.Point = model.GeoPoint{Lat: lat, Lng: lng}
	case !m.OptionalPoint:
		return model.Record{}, &SchemaError{Brand: m.Brand, Field: "coordinates"}
	}

	if len(f.Attrs)+len(m.Derived) > 0 {
		r.Attrs = make(map[string]string, len(f.Attrs)+len(m.Derived))
		for name, c := range f.Attrs {
			if v := c.String(raw); v != "" {
				r.Attrs[name] = v
			}
		}
		for name, fn := range m.Derived {
			if v := fn(r); v != "" {
				r.Attrs[name] = v
			}
		}
	}

	key, err := dedup.IdentityKey(r)
	if err != nil {
		return model.Record{}, &SchemaError{Brand: m.Brand, Field: "identity", Err: err}
	}
	r.Key = key
	return r, nil
}

func validCoord(lat, lng float64) bool {
	if lat == 0 && lng == 0 {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// truncate keeps the first n runes of s.
func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	runes := 0
	for i := range s {
		if runes == n {
			return s[:i]
		}
		runes++
	}
	return s
}

func countryCode(s string) string {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "US", "USA", "UNITED STATES", "UNITED STATES OF AMERICA":
		return "US"
	}
	return strings.ToUpper(strings.TrimSpace(s))
}
