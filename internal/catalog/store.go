package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store abstracts the remote product table so search logic and tests do not
// depend on a live database.
type Store interface {
	MatchAny(ctx context.Context, tokens []string, limit int) ([]Product, error)
}

// PostgresStore queries the products table over a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Connect opens and verifies a pgx pool for the product database.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open product database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping product database: %w", err)
	}
	return pool, nil
}

// MatchAny returns in-stock products where any token substring-matches the
// name, brand, or description.
func (s *PostgresStore) MatchAny(ctx context.Context, tokens []string, limit int) ([]Product, error) {
	query, args := buildMatchQuery(tokens, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0, limit)
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Brand, &p.Price, &p.Stock, &p.Description); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read product rows: %w", err)
	}
	return products, nil
}
