package storage

import (
	"database/sql"
	"encoding/json"
	"sync"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/rendis/storetap/internal/model"
)

// Store persists normalized locations. Rows are unique per brand and
// identity key, so re-inserting a known location is a no-op.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, eris.Wrap(err, "storage: open db")
	}

	// Optimize for write throughput
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=-64000",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "storage: set pragma %q", p)
		}
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS locations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		brand TEXT NOT NULL,
		identity_key TEXT NOT NULL,
		provider_id TEXT,
		name TEXT,
		line1 TEXT,
		line2 TEXT,
		line3 TEXT,
		city TEXT,
		region TEXT,
		postal_code TEXT,
		country_code TEXT,
		phone TEXT,
		lat REAL,
		lng REAL,
		attrs TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(brand, identity_key)
	);
	CREATE INDEX IF NOT EXISTS idx_locations_brand ON locations(brand);
	CREATE INDEX IF NOT EXISTS idx_locations_coords ON locations(lat, lng);
	CREATE INDEX IF NOT EXISTS idx_locations_region ON locations(region);
	`
	if _, err := db.Exec(schema); err != nil {
		return eris.Wrap(err, "storage: create schema")
	}
	return nil
}

// InsertBatch stores records in one transaction and returns how many were new.
// Records without an identity key are skipped.
func (s *Store) InsertBatch(records []model.Record) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, eris.Wrap(err, "storage: begin tx")
	}

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO locations
		(brand, identity_key, provider_id, name, line1, line2, line3, city, region,
		 postal_code, country_code, phone, lat, lng, attrs)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`)
	if err != nil {
		tx.Rollback()
		return 0, eris.Wrap(err, "storage: prepare insert")
	}
	defer stmt.Close()

	inserted := 0
	for _, r := range records {
		if r.Key == "" {
			continue
		}
		var lat, lng sql.NullFloat64
		if r.HasPoint() {
			lat = sql.NullFloat64{Float64: r.Point.Lat, Valid: true}
			lng = sql.NullFloat64{Float64: r.Point.Lng, Valid: true}
		}
		var attrs sql.NullString
		if len(r.Attrs) > 0 {
			b, err := json.Marshal(r.Attrs)
			if err != nil {
				tx.Rollback()
				return 0, eris.Wrap(err, "storage: encode attrs")
			}
			attrs = sql.NullString{String: string(b), Valid: true}
		}

		res, err := stmt.Exec(
			r.Brand, r.Key, r.ProviderID, r.Name,
			r.Line1, r.Line2, r.Line3, r.City, r.Region,
			r.PostalCode, r.CountryCode, r.Phone,
			lat, lng, attrs,
		)
		if err != nil {
			tx.Rollback()
			return 0, eris.Wrapf(err, "storage: insert %s", r.Key)
		}
		n, _ := res.RowsAffected()
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "storage: commit tx")
	}

	return inserted, nil
}

func (s *Store) Count() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM locations").Scan(&count)
	return count, eris.Wrap(err, "storage: count")
}

// All returns every stored location in insertion order.
func (s *Store) All() ([]model.Record, error) {
	rows, err := s.db.Query(`
		SELECT brand, identity_key, provider_id, name, line1, line2, line3, city, region,
		       postal_code, country_code, phone, lat, lng, attrs
		FROM locations ORDER BY id
	`)
	if err != nil {
		return nil, eris.Wrap(err, "storage: query locations")
	}
	defer rows.Close()

	var out []model.Record
	for rows.Next() {
		var (
			r                                     model.Record
			providerID, name, line1, line2, line3 sql.NullString
			city, region, postal, country, phone  sql.NullString
			attrs                                 sql.NullString
			lat, lng                              sql.NullFloat64
		)
		if err := rows.Scan(&r.Brand, &r.Key, &providerID, &name, &line1, &line2, &line3,
			&city, &region, &postal, &country, &phone, &lat, &lng, &attrs); err != nil {
			return nil, eris.Wrap(err, "storage: scan location")
		}
		r.ProviderID = providerID.String
		r.Name = name.String
		r.Line1 = line1.String
		r.Line2 = line2.String
		r.Line3 = line3.String
		r.City = city.String
		r.Region = region.String
		r.PostalCode = postal.String
		r.CountryCode = country.String
		r.Phone = phone.String
		if lat.Valid && lng.Valid {
			r.Point = model.GeoPoint{Lat: lat.Float64, Lng: lng.Float64}
		}
		if attrs.Valid && attrs.String != "" {
			if err := json.Unmarshal([]byte(attrs.String), &r.Attrs); err != nil {
				return nil, eris.Wrapf(err, "storage: decode attrs of %s", r.Key)
			}
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "storage: iterate locations")
}

func (s *Store) Close() error {
	return s.db.Close()
}
