package retrieval

import "errors"

var (
	// ErrEmptyDocument 表示文档解析后没有任何文本内容。
	ErrEmptyDocument = errors.New("no text extracted from document")

	// ErrUnsupportedContent 表示文件格式不受支持。
	ErrUnsupportedContent = errors.New("unsupported file type")

	// ErrRetrievalUnavailable 表示向量检索依赖不可用，检索请求无法降级。
	ErrRetrievalUnavailable = errors.New("retrieval is unavailable")

	// ErrRerankUnavailable 表示重排服务不可用；检索会降级为按相似度排序。
	ErrRerankUnavailable = errors.New("reranker is unavailable")

	// ErrCacheUnavailable 表示缓存不可用；检索会降级为未命中。
	ErrCacheUnavailable = errors.New("search cache is unavailable")

	// ErrCacheMiss 表示缓存未命中。
	ErrCacheMiss = errors.New("cache miss")

	// ErrIndexWriteFailed 表示向量写入失败，任务可重试。
	ErrIndexWriteFailed = errors.New("index write failed")

	// ErrInvalidScope 表示检索范围取值非法。
	ErrInvalidScope = errors.New("invalid search scope")
)
