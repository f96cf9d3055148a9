package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// PostgresSource reads the merchant-managed products table. FindProduct only
// looks up UUID references; slugs go through FindBySlug.
type PostgresSource struct {
	db *sql.DB
}

func NewPostgresSource(db *sql.DB) (*PostgresSource, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &PostgresSource{db: db}, nil
}

func (s *PostgresSource) Name() string { return "postgres" }

const productColumns = `id, slug, name, subtitle, price, weight, grade, origin, images, stock`

func (s *PostgresSource) FindProduct(ctx context.Context, ref string) (*Product, error) {
	if _, err := uuid.Parse(ref); err != nil {
		return nil, nil
	}
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(s.db.QueryRowContext(ctx, query, ref))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query product: %w", err)
	}
	return p, nil
}

func (s *PostgresSource) FindBySlug(ctx context.Context, slug string) (*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE slug = $1`
	p, err := scanProduct(s.db.QueryRowContext(ctx, query, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query product by slug: %w", err)
	}
	return p, nil
}

func (s *PostgresSource) ListProducts(ctx context.Context) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY created_at`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}
	return products, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*Product, error) {
	var p Product
	var images string
	err := row.Scan(&p.ID, &p.Slug, &p.Name, &p.Subtitle, &p.Price, &p.Weight, &p.Grade, &p.Origin, &images, &p.Stock)
	if err != nil {
		return nil, err
	}
	if images != "" {
		if err := json.Unmarshal([]byte(images), &p.Images); err != nil {
			return nil, fmt.Errorf("decode images of product %s: %w", p.ID, err)
		}
	}
	return &p, nil
}
