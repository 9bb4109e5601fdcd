package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchCacheGetAfterSet(t *testing.T) {
	store := newFakeCacheStore()
	cache := NewSearchCache(store, "rag_search", time.Hour)
	ctx := context.Background()

	results := []SearchResult{
		{Text: "текст договора", Filename: "contract.pdf", DocumentID: "doc-1", Score: 0.8},
	}
	cache.Set(ctx, 42, "договор аренды", 7, ScopeAll, results)

	got, ok := cache.Get(ctx, 42, "договор аренды", 7, ScopeAll)
	require.True(t, ok)
	assert.Equal(t, results, got)
}

func TestSearchCacheMiss(t *testing.T) {
	cache := NewSearchCache(newFakeCacheStore(), "rag_search", time.Hour)
	_, ok := cache.Get(context.Background(), 42, "о чем угодно", 0, ScopeAll)
	assert.False(t, ok)
}

func TestSearchCacheKeyNormalizesQuery(t *testing.T) {
	store := newFakeCacheStore()
	cache := NewSearchCache(store, "rag_search", time.Hour)
	ctx := context.Background()

	cache.Set(ctx, 42, "  Договор Аренды  ", 7, ScopeAll, []SearchResult{{Text: "x"}})

	// 大小写与首尾空白不同的同一查询命中同一键
	_, ok := cache.Get(ctx, 42, "договор аренды", 7, ScopeAll)
	assert.True(t, ok)
}

func TestSearchCacheKeySeparatesUsersAndScopes(t *testing.T) {
	store := newFakeCacheStore()
	cache := NewSearchCache(store, "rag_search", time.Hour)
	ctx := context.Background()

	cache.Set(ctx, 42, "запрос", 7, ScopeAll, []SearchResult{{Text: "a"}})

	_, ok := cache.Get(ctx, 43, "запрос", 7, ScopeAll)
	assert.False(t, ok, "another user must not hit the cache")

	_, ok = cache.Get(ctx, 42, "запрос", 7, ScopePrivate)
	assert.False(t, ok, "another scope must not hit the cache")
}

func TestSearchCacheLongKeyHashed(t *testing.T) {
	store := newFakeCacheStore()
	cache := NewSearchCache(store, "rag_search", time.Hour)
	ctx := context.Background()

	longQuery := strings.Repeat("очень длинный запрос ", 30)
	cache.Set(ctx, 42, longQuery, 7, ScopeAll, []SearchResult{{Text: "x"}})

	keys := store.keys()
	require.Len(t, keys, 1)
	// 前缀:md5 形式，md5 十六进制固定 32 字符
	assert.True(t, strings.HasPrefix(keys[0], "rag_search:"))
	assert.Len(t, keys[0], len("rag_search:")+32)

	_, ok := cache.Get(ctx, 42, longQuery, 7, ScopeAll)
	assert.True(t, ok)
}

func TestSearchCacheInvalidateUser(t *testing.T) {
	store := newFakeCacheStore()
	cache := NewSearchCache(store, "rag_search", time.Hour)
	ctx := context.Background()

	cache.Set(ctx, 42, "первый запрос", 7, ScopeAll, []SearchResult{{Text: "a"}})
	cache.Set(ctx, 42, "второй запрос", 7, ScopePrivate, []SearchResult{{Text: "b"}})
	cache.Set(ctx, 99, "чужой запрос", 7, ScopeAll, []SearchResult{{Text: "c"}})

	cache.InvalidateUser(ctx, 42)

	_, ok := cache.Get(ctx, 42, "первый запрос", 7, ScopeAll)
	assert.False(t, ok)
	_, ok = cache.Get(ctx, 42, "второй запрос", 7, ScopePrivate)
	assert.False(t, ok)
	_, ok = cache.Get(ctx, 99, "чужой запрос", 7, ScopeAll)
	assert.True(t, ok, "other users keys must survive")
}

func TestSearchCacheInvalidateOrganization(t *testing.T) {
	store := newFakeCacheStore()
	cache := NewSearchCache(store, "rag_search", time.Hour)
	ctx := context.Background()

	cache.Set(ctx, 42, "запрос", 7, ScopeAll, []SearchResult{{Text: "a"}})
	cache.Set(ctx, 43, "запрос", 7, ScopeAll, []SearchResult{{Text: "b"}})
	cache.Set(ctx, 44, "запрос", 8, ScopeAll, []SearchResult{{Text: "c"}})

	cache.InvalidateOrganization(ctx, 7)

	_, ok := cache.Get(ctx, 42, "запрос", 7, ScopeAll)
	assert.False(t, ok)
	_, ok = cache.Get(ctx, 43, "запрос", 7, ScopeAll)
	assert.False(t, ok)
	_, ok = cache.Get(ctx, 44, "запрос", 8, ScopeAll)
	assert.True(t, ok, "other org keys must survive")
}

func TestSearchCacheDegradesOnStoreError(t *testing.T) {
	store := newFakeCacheStore()
	store.getErr = errors.New("redis down")
	store.setErr = errors.New("redis down")
	cache := NewSearchCache(store, "rag_search", time.Hour)
	ctx := context.Background()

	// 读写故障都不应 panic 或返回错误，读故障视为未命中
	cache.Set(ctx, 42, "запрос", 0, ScopeAll, []SearchResult{{Text: "a"}})
	_, ok := cache.Get(ctx, 42, "запрос", 0, ScopeAll)
	assert.False(t, ok)
}

func TestSearchCacheNilSafe(t *testing.T) {
	var cache *SearchCache
	ctx := context.Background()

	_, ok := cache.Get(ctx, 42, "запрос", 0, ScopeAll)
	assert.False(t, ok)
	cache.Set(ctx, 42, "запрос", 0, ScopeAll, nil)
	cache.InvalidateUser(ctx, 42)
	cache.InvalidateOrganization(ctx, 7)
}
