// Package db persists marketplace listings and orders in SQLite.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Listing is one farmer listing.
type Listing struct {
	ID        int64     `json:"id"`
	Crop      string    `json:"crop"`
	Quantity  int       `json:"quantity"`
	Location  string    `json:"location"`
	Language  string    `json:"language"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"timestamp"`
}

// Order is one confirmed buyer order.
type Order struct {
	ID        int64     `json:"order_id"`
	Crop      string    `json:"crop"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"timestamp"`
}

// Stats summarizes the current listings.
type Stats struct {
	TotalListings int      `json:"total_listings"`
	TotalQuantity int      `json:"total_quantity"`
	UniqueCrops   int      `json:"unique_crops"`
	Crops         []string `json:"crops,omitempty"`
}

// Store is an owned, injectable handle over the marketplace database. It is
// passed explicitly to handlers instead of living as package state, so tests
// get isolated instances.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS listings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    crop TEXT NOT NULL,
    quantity INTEGER NOT NULL,
    location TEXT NOT NULL DEFAULT 'Village X',
    language TEXT NOT NULL DEFAULT 'Hindi',
    status TEXT NOT NULL DEFAULT 'available',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS orders (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    crop TEXT NOT NULL,
    quantity INTEGER NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_listings_crop ON listings(crop);
`

// Open opens (creating if needed) the store at path. Use ":memory:" for an
// ephemeral store in tests.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	database, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	if _, err := database.Exec(schema); err != nil {
		database.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: database}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// AddListing inserts a listing and returns it with its assigned ID.
func (s *Store) AddListing(crop string, quantity int, location, language string) (Listing, error) {
	if location == "" {
		location = "Village X"
	}
	if language == "" {
		language = "Hindi"
	}
	now := time.Now().UTC()
	result, err := s.db.Exec(
		`INSERT INTO listings (crop, quantity, location, language, status, created_at) VALUES (?, ?, ?, ?, 'available', ?)`,
		crop, quantity, location, language, now,
	)
	if err != nil {
		return Listing{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Listing{}, err
	}
	return Listing{
		ID:        id,
		Crop:      crop,
		Quantity:  quantity,
		Location:  location,
		Language:  language,
		Status:    "available",
		CreatedAt: now,
	}, nil
}

// Listings returns all listings, oldest first.
func (s *Store) Listings() ([]Listing, error) {
	return s.queryListings(`SELECT id, crop, quantity, location, language, status, created_at FROM listings ORDER BY id`)
}

// ListingsByCrop returns listings for one crop (case-insensitive).
func (s *Store) ListingsByCrop(crop string) ([]Listing, error) {
	return s.queryListings(
		`SELECT id, crop, quantity, location, language, status, created_at FROM listings WHERE LOWER(crop) = LOWER(?) ORDER BY id`,
		crop,
	)
}

func (s *Store) queryListings(query string, args ...interface{}) ([]Listing, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []Listing
	for rows.Next() {
		var listing Listing
		if err := rows.Scan(&listing.ID, &listing.Crop, &listing.Quantity, &listing.Location,
			&listing.Language, &listing.Status, &listing.CreatedAt); err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}
	return listings, rows.Err()
}

// ConfirmOrder records an order and returns its confirmation.
func (s *Store) ConfirmOrder(crop string, quantity int) (Order, error) {
	now := time.Now().UTC()
	result, err := s.db.Exec(`INSERT INTO orders (crop, quantity, created_at) VALUES (?, ?, ?)`, crop, quantity, now)
	if err != nil {
		return Order{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Order{}, err
	}
	return Order{ID: id, Crop: crop, Quantity: quantity, CreatedAt: now}, nil
}

// GetStats summarizes current listings.
func (s *Store) GetStats() (Stats, error) {
	var stats Stats
	row := s.db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(quantity), 0) FROM listings`)
	if err := row.Scan(&stats.TotalListings, &stats.TotalQuantity); err != nil {
		return Stats{}, err
	}

	rows, err := s.db.Query(`SELECT DISTINCT crop FROM listings ORDER BY crop`)
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var crop string
		if err := rows.Scan(&crop); err != nil {
			return Stats{}, err
		}
		stats.Crops = append(stats.Crops, crop)
	}
	stats.UniqueCrops = len(stats.Crops)
	return stats, rows.Err()
}
