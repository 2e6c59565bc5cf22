package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/samber/mo"
	"go.uber.org/zap"

	"github.com/netcopilot/api/internal/model"
)

const (
	dataKeyPrefix = "people:data:"
	indexKey      = "people:index"
)

// RedisStore keeps each record as a JSON blob plus an id in a LPUSH index
// list. Both writes share one MULTI/EXEC so a record is never stored
// without being listed.
type RedisStore struct {
	redis  *redis.Client
	logger *zap.Logger
}

var _ PersonStore = (*RedisStore)(nil)

func NewRedisStore(redisClient *redis.Client, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{redis: redisClient, logger: logger}
}

func (s *RedisStore) Save(ctx context.Context, rec *model.PersonRecord) (*model.PersonRecord, error) {
	saved := *rec
	saved.ID = uuid.New().String()
	saved.CreatedAt = time.Now().UTC()

	data, err := json.Marshal(&saved)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal person record: %w", err)
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, dataKeyPrefix+saved.ID, data, 0)
		pipe.LPush(ctx, indexKey, saved.ID)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save person record: %w", err)
	}

	return &saved, nil
}

func (s *RedisStore) List(ctx context.Context, limit int) ([]model.PersonRecord, error) {
	ids, err := s.redis.LRange(ctx, indexKey, 0, int64(normalizeLimit(limit)-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read person index: %w", err)
	}
	if len(ids) == 0 {
		return []model.PersonRecord{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = dataKeyPrefix + id
	}
	values, err := s.redis.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read person records: %w", err)
	}

	records := make([]model.PersonRecord, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var rec model.PersonRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			s.logger.Warn("skipping undecodable person record", zap.String("id", ids[i]), zap.Error(err))
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (mo.Option[*model.PersonRecord], error) {
	data, err := s.redis.Get(ctx, dataKeyPrefix+id).Bytes()
	if err != nil {
		if err == redis.Nil {
			return mo.None[*model.PersonRecord](), nil
		}
		return mo.None[*model.PersonRecord](), fmt.Errorf("failed to get person record: %w", err)
	}

	var rec model.PersonRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return mo.None[*model.PersonRecord](), fmt.Errorf("failed to unmarshal person record: %w", err)
	}
	return mo.Some(&rec), nil
}
