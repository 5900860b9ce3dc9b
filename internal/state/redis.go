package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jsdelfino/watsonwork-weather/internal/domain"
)

type RedisStoreConfig struct {
	KeyPrefix string
	TTL       time.Duration // 0 stores without expiry
}

// RedisStore keeps conversation state as JSON strings under
// "{prefix}:{spaceID}:{userID}".
type RedisStore struct {
	client redis.Cmdable
	cfg    RedisStoreConfig
}

func NewRedisStore(client redis.Cmdable, cfg RedisStoreConfig) *RedisStore {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "weather:state"
	}
	return &RedisStore{client: client, cfg: cfg}
}

func (s *RedisStore) redisKey(key Key) string {
	return s.cfg.KeyPrefix + ":" + key.String()
}

func (s *RedisStore) Get(ctx context.Context, key Key) (*domain.ConversationState, error) {
	raw, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &domain.ConversationState{}, nil
		}
		return nil, fmt.Errorf("%w: get %s: %v", ErrStore, key, err)
	}

	var st domain.ConversationState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrStore, key, err)
	}
	return &st, nil
}

func (s *RedisStore) Put(ctx context.Context, key Key, st *domain.ConversationState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("%w: encoding %s: %v", ErrStore, key, err)
	}

	if err := s.client.Set(ctx, s.redisKey(key), raw, s.cfg.TTL).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %v", ErrStore, key, err)
	}
	return nil
}
