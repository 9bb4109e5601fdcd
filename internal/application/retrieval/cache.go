package retrieval

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"avangard-rag-api/pkg/logger"
	"avangard-rag-api/pkg/metrics"
)

const (
	defaultCachePrefix = "rag_search"
	defaultCacheTTL    = time.Hour

	// maxPlainKeyLen 超过该长度的键改用 MD5 摘要，避免超长查询撑爆键空间。
	maxPlainKeyLen = 200
)

// SearchCache 检索结果缓存。
// 所有缓存故障降级处理：读故障视为未命中，写故障忽略。
type SearchCache struct {
	store  CacheStore
	prefix string
	ttl    time.Duration
}

// NewSearchCache 创建检索结果缓存。
func NewSearchCache(store CacheStore, prefix string, ttl time.Duration) *SearchCache {
	if prefix == "" {
		prefix = defaultCachePrefix
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &SearchCache{store: store, prefix: prefix, ttl: ttl}
}

// key 生成缓存键：prefix:user:归一化查询:org:scope。
// org 为 0 表示无组织，保证同一键位次序稳定。
func (c *SearchCache) key(userID int64, query string, organizationID int64, scope Scope) string {
	normQuery := strings.ToLower(strings.TrimSpace(query))
	key := fmt.Sprintf("%s:%d:%s:%d:%s", c.prefix, userID, normQuery, organizationID, scope)
	if len(key) > maxPlainKeyLen {
		sum := md5.Sum([]byte(key))
		return c.prefix + ":" + hex.EncodeToString(sum[:])
	}
	return key
}

// Get 读取缓存的检索结果，未命中或缓存故障时 ok 为 false。
func (c *SearchCache) Get(ctx context.Context, userID int64, query string, organizationID int64, scope Scope) ([]SearchResult, bool) {
	if c == nil || c.store == nil {
		return nil, false
	}

	data, err := c.store.Get(ctx, c.key(userID, query, organizationID, scope))
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			metrics.CacheRequestsTotal.WithLabelValues("miss").Inc()
			return nil, false
		}
		metrics.CacheRequestsTotal.WithLabelValues("error").Inc()
		logger.Warn(ctx, "search cache get failed", "error", err)
		return nil, false
	}

	var results []SearchResult
	if err := json.Unmarshal(data, &results); err != nil {
		metrics.CacheRequestsTotal.WithLabelValues("error").Inc()
		logger.Warn(ctx, "search cache decode failed", "error", err)
		return nil, false
	}

	metrics.CacheRequestsTotal.WithLabelValues("hit").Inc()
	return results, true
}

// Set 缓存检索结果，失败时仅记录日志。
func (c *SearchCache) Set(ctx context.Context, userID int64, query string, organizationID int64, scope Scope, results []SearchResult) {
	if c == nil || c.store == nil {
		return
	}

	data, err := json.Marshal(results)
	if err != nil {
		logger.Warn(ctx, "search cache encode failed", "error", err)
		return
	}
	if err := c.store.Set(ctx, c.key(userID, query, organizationID, scope), data, c.ttl); err != nil {
		logger.Warn(ctx, "search cache set failed", "error", err)
	}
}

// InvalidateUser 清除某用户的全部检索缓存，在其文档变更后调用。
func (c *SearchCache) InvalidateUser(ctx context.Context, userID int64) {
	if c == nil || c.store == nil {
		return
	}

	pattern := fmt.Sprintf("%s:%d:*", c.prefix, userID)
	deleted, err := c.store.DeleteByPattern(ctx, pattern)
	if err != nil {
		logger.Warn(ctx, "search cache invalidate failed", "user_id", userID, "error", err)
		return
	}
	metrics.CacheInvalidationsTotal.WithLabelValues("user").Inc()
	logger.Debug(ctx, "search cache invalidated", "user_id", userID, "deleted", deleted)
}

// InvalidateOrganization 清除组织内全部用户的检索缓存，在组织文档变更后调用。
func (c *SearchCache) InvalidateOrganization(ctx context.Context, organizationID int64) {
	if c == nil || c.store == nil {
		return
	}

	pattern := fmt.Sprintf("%s:*:%d:*", c.prefix, organizationID)
	deleted, err := c.store.DeleteByPattern(ctx, pattern)
	if err != nil {
		logger.Warn(ctx, "search cache invalidate failed", "organization_id", organizationID, "error", err)
		return
	}
	metrics.CacheInvalidationsTotal.WithLabelValues("organization").Inc()
	logger.Debug(ctx, "search cache invalidated", "organization_id", organizationID, "deleted", deleted)
}
