package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"PriceSentinel/internal/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists products to a SQLite database.
type SQLiteStore struct {
	*hub
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create db dir: %w", ErrStore, err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite: %w", ErrStore, err)
	}
	// One connection keeps PRAGMAs and ":memory:" databases consistent; the
	// hub already serialises writers.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: %s: %w", ErrStore, pragma, err)
		}
	}

	s := &SQLiteStore{hub: newHub(), db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: migrate: %w", ErrStore, err)
	}

	log.Printf("[INFO] sqlite product store opened: %s", dbPath)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS products (
			url         TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			price       TEXT NOT NULL,
			observed_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_products_observed ON products(observed_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (s *SQLiteStore) Upsert(ctx context.Context, p model.Product) error {
	if p.URL == "" {
		return fmt.Errorf("upsert: %w: empty url", ErrInvalidProduct)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `INSERT INTO products (url, name, price, observed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			name        = excluded.name,
			price       = excluded.price,
			observed_at = excluded.observed_at`,
		p.URL, p.Name, p.Price, p.ObservedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("%w: upsert %s: %w", ErrStore, p.URL, err)
	}
	s.notify(ctx)
	return nil
}

func (s *SQLiteStore) ListOnce(ctx context.Context) ([]model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list(ctx)
}

func (s *SQLiteStore) Subscribe(ctx context.Context) (<-chan []model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot, err := s.list(ctx)
	if err != nil {
		return nil, err
	}
	return s.subscribe(ctx, snapshot), nil
}

func (s *SQLiteStore) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM products`); err != nil {
		return fmt.Errorf("%w: clear products: %w", ErrStore, err)
	}
	s.notify(ctx)
	return nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdown()
	log.Println("[INFO] closing sqlite product store")
	return s.db.Close()
}

// notify publishes the post-commit snapshot. The write already succeeded, so a
// failed re-read is only logged; subscribers catch up on the next mutation.
func (s *SQLiteStore) notify(ctx context.Context) {
	if len(s.subs) == 0 {
		return
	}
	snapshot, err := s.list(ctx)
	if err != nil {
		log.Printf("[ERROR] publish product snapshot: %v", err)
		return
	}
	s.publish(snapshot)
}

func (s *SQLiteStore) list(ctx context.Context) ([]model.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT url, name, price, observed_at FROM products ORDER BY observed_at DESC, url ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: list products: %w", ErrStore, err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		var p model.Product
		var observed int64
		if err := rows.Scan(&p.URL, &p.Name, &p.Price, &observed); err != nil {
			return nil, fmt.Errorf("%w: scan product: %w", ErrStore, err)
		}
		p.ObservedAt = time.UnixMilli(observed)
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list products: %w", ErrStore, err)
	}
	return products, nil
}
