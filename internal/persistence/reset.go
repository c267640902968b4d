package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const truncateAll = `TRUNCATE complaint_history, complaints, users RESTART IDENTITY CASCADE`

// Truncate empties every application table and resets id sequences. Migration bookkeeping is kept.
func Truncate(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return errors.New("truncate: no postgres pool")
	}
	if _, err := pool.Exec(ctx, truncateAll); err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}
