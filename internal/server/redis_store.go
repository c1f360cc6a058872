package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRecordStore keeps records as JSON strings under aeo:session:<id>
// and scored pairs as a list under aeo:pairs:<id>.
type RedisRecordStore struct {
	client *redis.Client
	prefix string
}

// NewRedisRecordStore connects to redisURL and checks the connection
func NewRedisRecordStore(redisURL string) (*RedisRecordStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisRecordStoreWithClient(client), nil
}

// NewRedisRecordStoreWithClient creates a store from an existing client
func NewRedisRecordStoreWithClient(client *redis.Client) *RedisRecordStore {
	return &RedisRecordStore{client: client, prefix: "aeo:"}
}

func (s *RedisRecordStore) sessionKey(id string) string {
	return s.prefix + "session:" + id
}

func (s *RedisRecordStore) pairsKey(id string) string {
	return s.prefix + "pairs:" + id
}

func (s *RedisRecordStore) Save(ctx context.Context, id string, data json.RawMessage, summary string) error {
	now := time.Now().UTC()
	rec := Record{SessionID: id, Data: data, Summary: summary, CreatedAt: now, UpdatedAt: now}
	if existing, err := s.Load(ctx, id); err == nil {
		rec.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := s.client.Set(ctx, s.sessionKey(id), payload, 0).Err(); err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	return nil
}

func (s *RedisRecordStore) Load(ctx context.Context, id string) (*Record, error) {
	payload, err := s.client.Get(ctx, s.sessionKey(id)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return &rec, nil
}

func (s *RedisRecordStore) AddPair(ctx context.Context, pair TextPair) error {
	if pair.CreatedAt.IsZero() {
		pair.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("marshal pair: %w", err)
	}
	if err := s.client.RPush(ctx, s.pairsKey(pair.SessionID), payload).Err(); err != nil {
		return fmt.Errorf("save pair: %w", err)
	}
	return nil
}

func (s *RedisRecordStore) Pairs(ctx context.Context, id string) ([]TextPair, error) {
	items, err := s.client.LRange(ctx, s.pairsKey(id), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load pairs: %w", err)
	}
	pairs := make([]TextPair, 0, len(items))
	for _, item := range items {
		var p TextPair
		if err := json.Unmarshal([]byte(item), &p); err != nil {
			return nil, fmt.Errorf("unmarshal pair: %w", err)
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}

// Ping checks if Redis is reachable
func (s *RedisRecordStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *RedisRecordStore) Close() error {
	return s.client.Close()
}
