package repositories

import (
	"context"

	"chain-gateway.backend/internal/domain/entities"
)

// RecordStore defines point get, upsert and full scan over a named collection.
// Get returns errors.ErrNotFound when no record carries the id.
type RecordStore interface {
	Get(ctx context.Context, table, id string) (entities.Record, error)
	Put(ctx context.Context, table string, record entities.Record) (*entities.WriteAck, error)
	Scan(ctx context.Context, table string) ([]entities.Record, error)
}
