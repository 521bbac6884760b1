package uistate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/models"
	redis "github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "dashboard:ui-state:"
	redisTTL       = 90 * 24 * time.Hour
)

// RedisStore keeps one JSON value per session with a sliding expiry.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore connects to the redis:// URL and verifies the connection.
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = client.Ping(pingCtx).Err()
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Get(ctx context.Context, session string) (*models.UIState, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+session).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrStateNotFound
		}

		return nil, err
	}

	var state models.UIState

	err = json.Unmarshal(data, &state)
	if err != nil {
		return nil, fmt.Errorf("corrupt ui state for session %s: %w", session, err)
	}

	return &state, nil
}

func (s *RedisStore) Put(ctx context.Context, session string, state *models.UIState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, redisKeyPrefix+session, data, redisTTL).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
