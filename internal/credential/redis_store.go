package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the credential record in Redis, for kiosk deployments
// where several terminals at one site share a single enrollment. The record
// still goes through the same state machine as the on-device stores.
type RedisStore struct {
	client    *redis.Client
	namespace string
	deviceID  string
}

func NewRedisStore(client *redis.Client, namespace, deviceID string) *RedisStore {
	return &RedisStore{client: client, namespace: namespace, deviceID: deviceID}
}

func (s *RedisStore) key() string {
	return fmt.Sprintf("%s:credential:%s", s.namespace, s.deviceID)
}

func (s *RedisStore) Load(ctx context.Context) (*Record, error) {
	raw, err := s.client.Get(ctx, s.key()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load credential record: %w", err)
	}
	record := &Record{}
	if err := json.Unmarshal(raw, record); err != nil {
		return nil, fmt.Errorf("decode credential record: %w", err)
	}
	return record, nil
}

func (s *RedisStore) Save(ctx context.Context, record Record) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal credential record: %w", err)
	}
	if err := s.client.Set(ctx, s.key(), raw, 0).Err(); err != nil {
		return fmt.Errorf("save credential record: %w", err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
