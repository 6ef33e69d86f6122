package store

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the shared handle for every entity's persistence methods.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store backed by the given connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}
