package retrieval

import (
	"context"
	"time"
)

// Embedder 文本向量化依赖（port）。
type Embedder interface {
	// EmbedStrings 批量向量化文本，返回与输入等长的向量列表。
	EmbedStrings(ctx context.Context, texts []string) ([][]float32, error)
}

// Reranker 交叉编码器重排依赖（port）。
type Reranker interface {
	// Rerank 对 query 与每个文档的相关性打分，返回与 docs 等长的得分列表。
	Rerank(ctx context.Context, query string, docs []string) ([]float64, error)
}

// TextExtractor 文档文本抽取依赖（port）。
type TextExtractor interface {
	// Extract 从原始文件内容中抽取纯文本。
	// 格式不受支持时返回 ErrUnsupportedContent。
	Extract(filename, mimeType string, content []byte) (string, error)
}

// CacheStore 检索缓存的存储依赖（port）。
type CacheStore interface {
	// Get 读取缓存值，未命中返回 ErrCacheMiss。
	Get(ctx context.Context, key string) ([]byte, error)

	// Set 写入缓存值。
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// DeleteByPattern 删除匹配 glob 模式的全部键，返回删除数量。
	DeleteByPattern(ctx context.Context, pattern string) (int64, error)
}
