package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store adds transactional helpers on top of Queries.
type Store struct {
	*Queries
	pool *pgxpool.Pool
}

// NewStore binds the queries to pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{Queries: New(pool), pool: pool}
}

// ExecTx runs fn inside a transaction, committing when fn returns nil.
func (s *Store) ExecTx(ctx context.Context, fn func(*Queries) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(s.WithTx(tx))
	})
}

// ReplaceBulkTiers deletes every tier of itemID and inserts tiers in one transaction.
func (s *Store) ReplaceBulkTiers(ctx context.Context, itemID int64, tiers []InsertBulkTierParams) error {
	return s.ExecTx(ctx, func(q *Queries) error {
		if err := q.DeleteBulkTiers(ctx, itemID); err != nil {
			return fmt.Errorf("delete tiers: %w", err)
		}
		for _, t := range tiers {
			t.ItemID = itemID
			if err := q.InsertBulkTier(ctx, t); err != nil {
				return fmt.Errorf("insert tier %d: %w", t.Quantity, err)
			}
		}
		return nil
	})
}

// Ping checks connectivity for readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
