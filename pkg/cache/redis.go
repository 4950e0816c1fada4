package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"lyric-relay/internal/lyric"
	"lyric-relay/pkg/redis"
)

const redisKeyPrefix = "lyrics:"

// RedisStore redis存储，文档以JSON形式保存
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 连接redis并创建存储
func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	client, err := redis.NewClient(addr, password, db)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// Get 读取缓存的文档，键不存在时返回 (nil, nil)
func (s *RedisStore) Get(ctx context.Context, songID string) (*lyric.Document, error) {
	data, err := s.client.GetBytes(ctx, redisKeyPrefix+songID)
	if err != nil {
		return nil, fmt.Errorf("failed to read from redis: %w", err)
	}
	if data == nil {
		return nil, nil
	}

	var doc lyric.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil
	}
	return &doc, nil
}

// Set 写入文档
func (s *RedisStore) Set(ctx context.Context, songID string, doc *lyric.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	return s.client.Set(ctx, redisKeyPrefix+songID, data)
}

// Close 关闭redis连接
func (s *RedisStore) Close() error {
	return s.client.Close()
}
