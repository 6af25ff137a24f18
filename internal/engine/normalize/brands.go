package normalize

import (
	"strings"

	"github.com/rendis/storetap/internal/model"
)

// Starbucks maps items of the Starbucks locations API ({"store": {...}}).
func Starbucks() *Mapper {
	return &Mapper{
		Brand:     "Starbucks",
		PostalLen: 10,
		Fields: Fields{
			ID:          First("store.id", "store.storeNumber"),
			Name:        First("store.name"),
			Line1:       First("store.address.streetAddressLine1"),
			Line2:       First("store.address.streetAddressLine2"),
			Line3:       First("store.address.streetAddressLine3"),
			City:        First("store.address.city"),
			Region:      First("store.address.countrySubdivisionCode"),
			PostalCode:  First("store.address.postalCode"),
			CountryCode: First("store.address.countryCode"),
			Phone:       First("store.phoneNumber"),
			Lat:         First("store.coordinates.latitude"),
			Lng:         First("store.coordinates.longitude"),
			Attrs: map[string]Chain{
				"store_number": First("store.storeNumber"),
				"ownership":    First("store.ownershipTypeCode"),
				"open":         First("store.open"),
				"open_status":  First("store.openStatusFormatted"),
				"hours_status": First("store.hoursStatusFormatted"),
				"slug":         First("store.slug"),
			},
		},
	}
}

// Yext maps result data objects of a Yext locator vertical. Records without
// an id are keyed by address and carry a name|line1|postal location_id.
func Yext(brand string) *Mapper {
	return &Mapper{
		Brand:     brand,
		PostalLen: 5,
		Fields: Fields{
			ID:          First("id", "uid"),
			Name:        First("name"),
			Line1:       First("address.line1"),
			Line2:       First("address.line2"),
			City:        First("address.city"),
			Region:      First("address.region", "address.state"),
			PostalCode:  First("address.postalCode"),
			CountryCode: First("address.countryCode"),
			Phone:       First("mainPhone"),
			Lat:         First("yextDisplayCoordinate.latitude", "displayCoordinate.latitude", "geocodedCoordinate.latitude"),
			Lng:         First("yextDisplayCoordinate.longitude", "displayCoordinate.longitude", "geocodedCoordinate.longitude"),
			Attrs: map[string]Chain{
				"website": First("websiteUrl.url", "websiteUrl"),
			},
		},
		Derived: map[string]func(model.Record) string{
			"location_id": func(r model.Record) string {
				if r.ProviderID != "" || (r.Name == "" && r.Line1 == "" && r.PostalCode == "") {
					return ""
				}
				return strings.Join([]string{r.Name, r.Line1, r.PostalCode}, "|")
			},
		},
	}
}

// DutchBros maps entries of the Dutch Bros stands feed. Field names vary
// between feed versions, hence the long chains.
func DutchBros() *Mapper {
	return &Mapper{
		Brand: "Dutch Bros",
		Fields: Fields{
			ID:          First("new_co_id", "id"),
			Name:        First("store_nickname", "name"),
			Line1:       First("stand_address", "address", "street"),
			Line2:       First("stand_address2", "address2", "street2"),
			City:        First("city"),
			Region:      First("state", "region"),
			PostalCode:  First("zip_code", "postalCode", "zip"),
			CountryCode: append(First("country"), Literal("US")),
			Phone:       First("phone", "phone_number"),
			Lat:         First("lat", "latitude", "coordinates.lat", "location.lat"),
			Lng:         First("lon", "lng", "longitude", "coordinates.lon", "location.lon"),
			Attrs: map[string]Chain{
				"store_number":  First("store_number", "number"),
				"store_code":    First("store_code", "code"),
				"drivethru":     First("drivethru", "drive_thru"),
				"walkup_window": First("walkup_window", "walk_up"),
				"hours":         First("hours", "hours_text"),
				"schedule":      First("schedule_array"),
			},
		},
	}
}

// SevenBrew maps schema.org place objects scraped from 7 Brew detail pages.
// The listing adds "url" and, when the page has one, "heading". Many pages
// carry no geo block, so coordinates are optional.
func SevenBrew() *Mapper {
	return &Mapper{
		Brand:         "7 Brew",
		OptionalPoint: true,
		Fields: Fields{
			ID:          First("url", "@id"),
			Name:        First("name", "heading"),
			Line1:       First("address.streetAddress"),
			City:        First("address.addressLocality"),
			Region:      First("address.addressRegion"),
			PostalCode:  First("address.postalCode"),
			CountryCode: First("address.addressCountry.name", "address.addressCountry", "country"),
			Phone:       First("telephone"),
			Lat:         First("geo.latitude"),
			Lng:         First("geo.longitude"),
			Attrs: map[string]Chain{
				"slug": First("slug"),
				"url":  First("url"),
			},
		},
	}
}
