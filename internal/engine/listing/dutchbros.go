package listing

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/rendis/storetap/internal/engine/dedup"
	"github.com/rendis/storetap/internal/engine/normalize"
	"github.com/rendis/storetap/internal/engine/oracle"
	"github.com/rendis/storetap/internal/model"
)

// DutchBrosURL is the public stands feed.
const DutchBrosURL = "https://files.dutchbros.com/api-cache/stands.json"

var standWrappers = []string{"stands", "data", "items", "locations"}

// DutchBros downloads the stands feed and keeps US stands.
func DutchBros(ctx context.Context, f *oracle.Fetcher, url string) (*Result, error) {
	if url == "" {
		url = DutchBrosURL
	}
	logger := zap.L().With(zap.String("component", "listing"), zap.String("brand", "dutchbros"))

	h := http.Header{}
	h.Set("Accept", "application/json, text/plain, */*")
	h.Set("Referer", "https://www.dutchbros.com/locations")

	body, err := f.Get(ctx, url, h)
	if err != nil {
		return nil, eris.Wrap(err, "listing: fetch dutch bros stands")
	}

	stands, err := unwrapStands(body)
	if err != nil {
		return nil, &oracle.ParseError{URL: url, Err: err}
	}

	norm := normalize.DutchBros()
	seen := dedup.NewStore()
	res := &Result{}
	for _, s := range stands {
		m, ok := s.(map[string]any)
		if !ok {
			res.Failed++
			continue
		}
		rec, err := norm.Normalize(model.RawRecord(m))
		if err != nil {
			logger.Debug("dropping stand", zap.Error(err))
			res.Failed++
			continue
		}
		res.add(seen, rec)
	}

	logger.Info("stands fetched",
		zap.Int("entries", len(stands)),
		zap.Int("kept", len(res.Records)),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}

// unwrapStands accepts a bare array or an object wrapping one.
func unwrapStands(body []byte) ([]any, error) {
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, eris.Wrap(err, "listing: decode stands")
	}

	if obj, ok := payload.(map[string]any); ok {
		for _, k := range standWrappers {
			if list, ok := obj[k].([]any); ok {
				return list, nil
			}
		}
	}
	list, ok := payload.([]any)
	if !ok {
		return nil, eris.New("listing: stands payload is not a list")
	}
	return list, nil
}
