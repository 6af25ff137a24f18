package dedup

import (
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/rendis/storetap/internal/model"
)

// ErrNoIdentity is returned for records with neither a provider id nor any
// address component.
var ErrNoIdentity = eris.New("dedup: record has no identity")

var folder = cases.Fold()

// Normalize case-folds s, strips diacritics and collapses whitespace.
func Normalize(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(folder.String(out)), " ")
}

// IdentityKey derives the dedup key of a record. A provider id wins; otherwise
// the key is the normalized street, city, region and postal code. Two distinct
// locations sharing all of those collapse into one.
func IdentityKey(r model.Record) (string, error) {
	if id := Normalize(r.ProviderID); id != "" {
		return "id:" + id, nil
	}

	parts := []string{
		Normalize(r.Line1),
		Normalize(r.City),
		Normalize(r.Region),
		Normalize(r.PostalCode),
	}
	if strings.Join(parts, "") == "" {
		return "", ErrNoIdentity
	}
	return "addr:" + strings.Join(parts, "|"), nil
}
