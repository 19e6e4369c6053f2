package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "modernc.org/sqlite"

	"github.com/fjod/go_shoe_store/internal/domain"
)

// Repository is a SQLite-backed catalog source.
type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Each connection to ":memory:" is its own database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(migrationsPath string) error {
	driver, err := sqlite.WithInstance(r.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"sqlite",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

const selectShoes = `
		SELECT shoe_id, brand, model, price, image, available_sizes
		FROM shoes
`

func (r *Repository) All(ctx context.Context) ([]domain.Product, error) {
	return r.query(ctx, selectShoes+` ORDER BY position`)
}

func (r *Repository) ByID(ctx context.Context, id string) (domain.Product, bool, error) {
	products, err := r.query(ctx, selectShoes+` WHERE shoe_id = $1`, id)
	if err != nil {
		return domain.Product{}, false, err
	}
	if len(products) == 0 {
		return domain.Product{}, false, nil
	}
	return products[0], true, nil
}

func (r *Repository) ByBrand(ctx context.Context, brand string) ([]domain.Product, error) {
	return r.query(ctx, selectShoes+` WHERE brand = $1 ORDER BY position`, brand)
}

func (r *Repository) query(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query shoes: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		var (
			p     domain.Product
			price string
			sizes string
		)
		if err := rows.Scan(&p.ID, &p.Brand, &p.Model, &price, &p.Image, &sizes); err != nil {
			return nil, fmt.Errorf("failed to scan shoe: %w", err)
		}
		p.Price = domain.Price(price)
		p.AvailableSizes = splitSizes(sizes)
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return products, nil
}

func splitSizes(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func (r *Repository) Close() error {
	return r.db.Close()
}
