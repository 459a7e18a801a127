package recordstore

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"go.uber.org/zap"

	"chain-gateway.backend/internal/domain/entities"
	domainerrors "chain-gateway.backend/internal/domain/errors"
	"chain-gateway.backend/pkg/logger"
	"chain-gateway.backend/pkg/redis"
)

const tableKeyPrefix = "records:"

var (
	hsetValue = redis.HSet
	hgetValue = redis.HGet
	hgetAll   = redis.HGetAll
)

// RedisStore keeps each table in one hash; the field is the record id and the value
// is the record as JSON.
type RedisStore struct{}

// NewRedisStore creates a record store on top of the client initialized in pkg/redis
func NewRedisStore() *RedisStore {
	return &RedisStore{}
}

func tableKey(table string) string {
	return tableKeyPrefix + table
}

// Get fetches one record by primary key
func (s *RedisStore) Get(ctx context.Context, table, id string) (entities.Record, error) {
	if err := validateKey("redis.get", table, id); err != nil {
		return nil, err
	}

	raw, err := hgetValue(ctx, tableKey(table), id)
	if errors.Is(err, redis.Nil) {
		return nil, domainerrors.ErrNotFound
	}
	if err != nil {
		return nil, domainerrors.Transport("redis.get", err)
	}

	var record entities.Record
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, domainerrors.Transport("redis.get", err)
	}
	return record, nil
}

// Put upserts a record; the whole document is replaced, last writer wins
func (s *RedisStore) Put(ctx context.Context, table string, record entities.Record) (*entities.WriteAck, error) {
	id := record.ID()
	if err := validateKey("redis.put", table, id); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return nil, domainerrors.Validation("redis.put", err.Error())
	}
	if err := hsetValue(ctx, tableKey(table), id, payload); err != nil {
		return nil, domainerrors.Transport("redis.put", err)
	}
	return &entities.WriteAck{Table: table, ID: id}, nil
}

// Scan returns every record of the table ordered by id
func (s *RedisStore) Scan(ctx context.Context, table string) ([]entities.Record, error) {
	if table == "" {
		return nil, domainerrors.Validation("redis.scan", "table is required")
	}

	fields, err := hgetAll(ctx, tableKey(table))
	if err != nil {
		return nil, domainerrors.Transport("redis.scan", err)
	}
	ids := make([]string, 0, len(fields))
	for id := range fields {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	records := make([]entities.Record, 0, len(ids))
	for _, id := range ids {
		var record entities.Record
		if err := json.Unmarshal([]byte(fields[id]), &record); err != nil {
			logger.Warn(ctx, "Skipping undecodable record", zap.String("table", table), zap.String("id", id), zap.Error(err))
			continue
		}
		records = append(records, record)
	}
	return records, nil
}
