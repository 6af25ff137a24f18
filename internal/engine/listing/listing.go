// Package listing fetches brands whose full location list is published
// directly, so no spatial crawl is needed.
package listing

import (
	"github.com/rendis/storetap/internal/engine/dedup"
	"github.com/rendis/storetap/internal/model"
)

// Result is the outcome of one listing fetch.
type Result struct {
	Records []model.Record
	// Skipped counts entries dropped as duplicates or outside the US.
	Skipped int
	// Failed counts entries or pages that could not be normalized or fetched.
	Failed int
}

func (r *Result) add(seen *dedup.Store, rec model.Record) {
	if rec.CountryCode != "US" {
		r.Skipped++
		return
	}
	ok, err := seen.Accept(&rec)
	if err != nil {
		r.Failed++
		return
	}
	if !ok {
		r.Skipped++
		return
	}
	r.Records = append(r.Records, rec)
}
