package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scbrown/shelf/internal/model"

	_ "modernc.org/sqlite"
)

const schemaVersion = 2

// SQLiteStore implements Store using a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// New opens (or creates) a SQLite database at dbPath.
// It auto-creates the parent directory (e.g. ~/.shelf/) and runs
// schema migrations to ensure the database is up to date.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single connection for WAL mode simplicity.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// migrate runs schema migrations up to the current version.
func (s *SQLiteStore) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER NOT NULL
	)`); err != nil {
		return fmt.Errorf("create version table: %w", err)
	}

	var ver int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&ver)
	if err == sql.ErrNoRows {
		ver = 0
	} else if err != nil {
		return fmt.Errorf("read version: %w", err)
	}

	if ver < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	if ver < 2 {
		if err := s.migrateV2(); err != nil {
			return err
		}
	}

	return nil
}

func (s *SQLiteStore) migrateV1() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS products (
			position     INTEGER PRIMARY KEY,
			name         TEXT NOT NULL,
			tags         TEXT NOT NULL DEFAULT '',
			brand        TEXT,
			image_url    TEXT,
			rating       REAL NOT NULL DEFAULT 0,
			review_count INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_products_brand ON products(brand)`,
		`INSERT OR REPLACE INTO schema_version (version) VALUES (1)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate v1: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) migrateV2() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS imports (
			id          TEXT PRIMARY KEY,
			source      TEXT,
			products    INTEGER NOT NULL,
			imported_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_imports_imported_at ON imports(imported_at)`,
		`UPDATE schema_version SET version = 2`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate v2: %w", err)
		}
	}
	return nil
}

// Products returns every stored product ordered by position.
func (s *SQLiteStore) Products(ctx context.Context) ([]model.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT position, name, tags, brand, image_url, rating, review_count
		 FROM products ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		var brand, imageURL sql.NullString
		if err := rows.Scan(&p.Position, &p.Name, &p.Tags, &brand, &imageURL, &p.Rating, &p.ReviewCount); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		p.Brand = brand.String
		p.ImageURL = imageURL.String
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// ReplaceProducts atomically replaces the stored catalog with products,
// renumbering positions in slice order, and records the import under source.
// It returns the number of products written.
func (s *SQLiteStore) ReplaceProducts(ctx context.Context, source string, products []model.Product) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM products`); err != nil {
		return 0, fmt.Errorf("clear products: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO products (position, name, tags, brand, image_url, rating, review_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range products {
		if _, err := stmt.ExecContext(ctx,
			i,
			p.Name,
			p.Tags,
			nullableString(p.Brand),
			nullableString(p.ImageURL),
			p.Rating,
			p.ReviewCount,
		); err != nil {
			return 0, fmt.Errorf("insert product %d: %w", i, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO imports (id, source, products, imported_at) VALUES (?, ?, ?, ?)`,
		uuid.NewString(),
		nullableString(source),
		len(products),
		time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return 0, fmt.Errorf("record import: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return len(products), nil
}

// Stats returns summary statistics about the stored catalog.
func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	var avg sql.NullFloat64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN TRIM(tags) != '' THEN 1 ELSE 0 END), 0),
		        COUNT(DISTINCT NULLIF(brand, '')),
		        AVG(NULLIF(rating, 0))
		 FROM products`).Scan(&st.TotalProducts, &st.TaggedProducts, &st.Brands, &avg); err != nil {
		return st, fmt.Errorf("count products: %w", err)
	}
	st.AvgRating = avg.Float64

	rows, err := s.db.QueryContext(ctx,
		`SELECT brand, COUNT(*) AS cnt FROM products
		 WHERE brand IS NOT NULL AND brand != ''
		 GROUP BY brand ORDER BY cnt DESC, brand ASC LIMIT ?`, topBrandsLimit)
	if err != nil {
		return st, fmt.Errorf("top brands: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var nc NameCount
		if err := rows.Scan(&nc.Name, &nc.Count); err != nil {
			return st, fmt.Errorf("scan brand: %w", err)
		}
		st.TopBrands = append(st.TopBrands, nc)
	}
	if err := rows.Err(); err != nil {
		return st, err
	}

	last, err := s.lastImport(ctx)
	if err != nil {
		return st, err
	}
	st.LastImport = last
	return st, nil
}

func (s *SQLiteStore) lastImport(ctx context.Context) (*Import, error) {
	var imp Import
	var source sql.NullString
	var ts string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source, products, imported_at FROM imports
		 ORDER BY rowid DESC LIMIT 1`).Scan(&imp.ID, &source, &imp.Products, &ts)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last import: %w", err)
	}
	imp.Source = source.String
	imp.ImportedAt, err = time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, fmt.Errorf("parse imported_at %q: %w", ts, err)
	}
	return &imp, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullableString(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
