package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"streeteasy-monitor/models"
	"streeteasy-monitor/utils"
)

// PostgresStore persists listings to PostgreSQL.
type PostgresStore struct {
	db     *sql.DB
	logger *utils.Logger
}

// NewPostgresStore opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresStore.
func NewPostgresStore(dsn string, logger *utils.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := &utils.RetryConfig{MaxAttempts: 10, BaseDelay: 500 * time.Millisecond, Logger: logger}
	if err := retry.Do("postgres-ping", db.Ping); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	ps := &PostgresStore{db: db, logger: logger}
	if err := ps.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return ps, nil
}

func (ps *PostgresStore) migrate() error {
	_, err := ps.db.Exec(`
		CREATE TABLE IF NOT EXISTS listings (
			id           SERIAL PRIMARY KEY,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			listing_id   TEXT        UNIQUE NOT NULL,
			url          TEXT        NOT NULL DEFAULT '',
			price        NUMERIC(10,0) NOT NULL DEFAULT 0,
			address      TEXT        NOT NULL DEFAULT '',
			neighborhood TEXT        NOT NULL DEFAULT '',
			listed_by    TEXT        NOT NULL DEFAULT ''
		);

		CREATE INDEX IF NOT EXISTS idx_listings_created_at   ON listings(created_at);
		CREATE INDEX IF NOT EXISTS idx_listings_neighborhood ON listings(neighborhood);
		CREATE INDEX IF NOT EXISTS idx_listings_price        ON listings(price);
	`)
	return err
}

// ExistingIDs returns every stored listing identifier.
func (ps *PostgresStore) ExistingIDs(ctx context.Context) (models.IDSet, error) {
	rows, err := ps.db.QueryContext(ctx, `SELECT listing_id FROM listings`)
	if err != nil {
		return nil, fmt.Errorf("postgres: existing ids: %w", err)
	}
	defer rows.Close()

	ids := make(models.IDSet)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("postgres: scan id: %w", err)
		}
		ids.Add(id)
	}
	return ids, rows.Err()
}

// InsertIfAbsent stores the whitelisted columns of l. A duplicate or empty
// identifier is ignored and reported as false.
func (ps *PostgresStore) InsertIfAbsent(ctx context.Context, l *models.Listing) (bool, error) {
	if l == nil || l.ID == "" {
		return false, nil
	}
	cols := insertColumns(l)

	names := make([]string, 0, len(cols))
	placeholders := make([]string, 0, len(cols))
	args := make([]interface{}, 0, len(cols))
	for i, c := range cols {
		names = append(names, c.name)
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		args = append(args, c.value)
	}

	query := fmt.Sprintf(`
		INSERT INTO listings (%s)
		VALUES (%s)
		ON CONFLICT (listing_id) DO NOTHING
	`, strings.Join(names, ", "), strings.Join(placeholders, ", "))

	res, err := ps.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("postgres: insert %s: %w", l.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("postgres: rows affected: %w", err)
	}
	if n > 0 {
		ps.logger.Info("[postgres] Saved listing: %s (%s)", l.ID, l.Address)
	}
	return n > 0, nil
}

// List returns stored listings newest first. A limit of 0 returns all.
func (ps *PostgresStore) List(ctx context.Context, limit int) ([]*models.Listing, error) {
	query := `
		SELECT listing_id, url, price, address, neighborhood, listed_by, created_at
		FROM listings
		ORDER BY created_at DESC, id DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := ps.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list: %w", err)
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// Get returns the listing with the given identifier or ErrNotFound.
func (ps *PostgresStore) Get(ctx context.Context, id string) (*models.Listing, error) {
	row := ps.db.QueryRowContext(ctx, `
		SELECT listing_id, url, price, address, neighborhood, listed_by, created_at
		FROM listings
		WHERE listing_id = $1
	`, id)

	l, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return l, err
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanListing(s scanner) (*models.Listing, error) {
	l := &models.Listing{}
	if err := s.Scan(&l.ID, &l.URL, &l.Price, &l.Address, &l.Neighborhood, &l.ListedBy, &l.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("postgres: scan row: %w", err)
	}
	return l, nil
}

type column struct {
	name  string
	value interface{}
}

// insertColumns lists the whitelisted columns written for l. Any other
// listing field, such as IsFeatured, is never stored.
func insertColumns(l *models.Listing) []column {
	if l == nil || l.ID == "" {
		return nil
	}
	return []column{
		{"listing_id", l.ID},
		{"url", l.URL},
		{"price", l.Price},
		{"address", l.Address},
		{"neighborhood", l.Neighborhood},
		{"listed_by", l.ListedBy},
	}
}
