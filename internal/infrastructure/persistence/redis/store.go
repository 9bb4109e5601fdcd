package redis

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"avangard-rag-api/internal/application/retrieval"
)

// SearchStore 基于 Redis 实现 retrieval.CacheStore
type SearchStore struct {
	client *Client
}

// NewSearchStore 创建检索缓存存储
func NewSearchStore(client *Client) *SearchStore {
	return &SearchStore{client: client}
}

// Get 读取缓存值，键不存在时返回 retrieval.ErrCacheMiss
func (s *SearchStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, key)
	if err != nil {
		if s.client.IsNil(err) {
			return nil, retrieval.ErrCacheMiss
		}
		return nil, err
	}
	return []byte(val), nil
}

// Set 写入缓存值
func (s *SearchStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl)
}

// DeleteByPattern 按模式删除缓存键，返回删除数量
//
// 使用 SCAN 迭代避免 KEYS 阻塞，分批删除。
func (s *SearchStore) DeleteByPattern(ctx context.Context, pattern string) (int64, error) {
	ctx, span := tracer.Start(ctx, "redis.DeleteByPattern")
	span.SetAttributes(attribute.String("db.redis.pattern", pattern))
	defer span.End()

	var (
		deleted int64
		batch   []string
	)
	iter := s.client.Scan(ctx, pattern)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= 100 {
			if err := s.client.Del(ctx, batch...); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return deleted, err
			}
			deleted += int64(len(batch))
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return deleted, err
	}
	if len(batch) > 0 {
		if err := s.client.Del(ctx, batch...); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return deleted, err
		}
		deleted += int64(len(batch))
	}

	span.SetAttributes(attribute.Int64("db.redis.deleted", deleted))
	return deleted, nil
}
