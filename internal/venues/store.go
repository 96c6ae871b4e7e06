package venues

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const storeBusyTimeout = 5 * time.Second

var storeSchema = []string{
	`CREATE TABLE IF NOT EXISTS saved_venues (
		place_id      TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		venue_type    TEXT NOT NULL DEFAULT '',
		description   TEXT NOT NULL DEFAULT '',
		fairness      TEXT NOT NULL DEFAULT '',
		latitude      REAL NOT NULL DEFAULT 0,
		longitude     REAL NOT NULL DEFAULT 0,
		transit_notes TEXT NOT NULL DEFAULT '',
		photo_url     TEXT NOT NULL DEFAULT '',
		saved_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

// Store persists saved venues in SQLite, keyed by place identifier.
type Store struct {
	db *sql.DB
}

// OpenStore opens (and if needed creates) the saved-venue database at path.
// Pass ":memory:" for an ephemeral store in tests.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("venues: open store: %w", err)
	}
	// modernc.org/sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY between concurrent handlers.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", storeBusyTimeout.Milliseconds()),
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("venues: apply pragma: %w", err)
		}
	}
	for _, stmt := range storeSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("venues: apply schema: %w", err)
		}
	}

	return &Store{db: db}, nil
}

// Ping verifies the database is reachable. Used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Save upserts v keyed by its PlaceID. Venues arriving without a place
// identifier are assigned a generated one, which is also returned.
func (s *Store) Save(ctx context.Context, v Venue) (string, error) {
	if v.PlaceID == "" {
		v.PlaceID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO saved_venues
			(place_id, name, venue_type, description, fairness, latitude, longitude, transit_notes, photo_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(place_id) DO UPDATE SET
			name          = excluded.name,
			venue_type    = excluded.venue_type,
			description   = excluded.description,
			fairness      = excluded.fairness,
			latitude      = excluded.latitude,
			longitude     = excluded.longitude,
			transit_notes = excluded.transit_notes,
			photo_url     = excluded.photo_url`,
		v.PlaceID, v.Name, v.Type, v.Description, v.Fairness,
		v.Location.Latitude, v.Location.Longitude, v.TransitNotes, v.PhotoURL,
	)
	if err != nil {
		return "", fmt.Errorf("venues: save %q: %w", v.PlaceID, err)
	}
	return v.PlaceID, nil
}

// List returns every saved venue, oldest first.
func (s *Store) List(ctx context.Context) ([]Venue, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT place_id, name, venue_type, description, fairness, latitude, longitude, transit_notes, photo_url
		FROM saved_venues
		ORDER BY saved_at, place_id`)
	if err != nil {
		return nil, fmt.Errorf("venues: list: %w", err)
	}
	defer rows.Close()

	var out []Venue
	for rows.Next() {
		var v Venue
		if err := rows.Scan(&v.PlaceID, &v.Name, &v.Type, &v.Description, &v.Fairness,
			&v.Location.Latitude, &v.Location.Longitude, &v.TransitNotes, &v.PhotoURL); err != nil {
			return nil, fmt.Errorf("venues: scan saved venue: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("venues: list: %w", err)
	}
	return out, nil
}

// Delete removes the saved venue with the given place identifier. Returns
// ErrNotFound when nothing matched.
func (s *Store) Delete(ctx context.Context, placeID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_venues WHERE place_id = ?`, placeID)
	if err != nil {
		return fmt.Errorf("venues: delete %q: %w", placeID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("venues: delete %q: %w", placeID, err)
	}
	if n == 0 {
		return fmt.Errorf("venues: delete %q: %w", placeID, ErrNotFound)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
