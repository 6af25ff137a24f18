package export

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/rendis/storetap/internal/model"
)

var baseColumns = []string{
	"brand", "identity_key", "provider_id", "name",
	"line1", "line2", "line3", "city", "region", "postal_code", "country_code",
	"phone", "lat", "lng",
}

// Columns returns the header for records: the fixed columns followed by the
// sorted union of attribute keys.
func Columns(records []model.Record) []string {
	keys := make(map[string]struct{})
	for _, r := range records {
		for k := range r.Attrs {
			keys[k] = struct{}{}
		}
	}
	attrs := make([]string, 0, len(keys))
	for k := range keys {
		attrs = append(attrs, k)
	}
	sort.Strings(attrs)

	return append(append([]string(nil), baseColumns...), attrs...)
}

// WriteCSV writes a header and one row per record.
func WriteCSV(w io.Writer, records []model.Record) error {
	cols := Columns(records)
	attrCols := cols[len(baseColumns):]

	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return eris.Wrap(err, "export: write header")
	}

	row := make([]string, len(cols))
	for _, r := range records {
		row = row[:0]
		row = append(row,
			r.Brand, r.Key, r.ProviderID, r.Name,
			r.Line1, r.Line2, r.Line3, r.City, r.Region, r.PostalCode, r.CountryCode,
			r.Phone,
		)
		if r.HasPoint() {
			row = append(row, formatCoord(r.Point.Lat), formatCoord(r.Point.Lng))
		} else {
			row = append(row, "", "")
		}
		for _, k := range attrCols {
			row = append(row, r.Attrs[k])
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "export: write row")
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush")
}

// WriteCSVFile writes records to path, creating parent directories.
func WriteCSVFile(path string, records []model.Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "export: create dir for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	if err := WriteCSV(f, records); err != nil {
		f.Close()
		return err
	}
	return eris.Wrapf(f.Close(), "export: close %s", path)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
