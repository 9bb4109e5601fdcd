package retrieval

import "context"

// VectorRepository 定义应用层对向量存储/检索的最小依赖（port）。
// 由基础设施层提供具体实现（例如 Milvus）。
type VectorRepository interface {
	// EnsureCollection 确保集合与索引存在，幂等。
	EnsureCollection(ctx context.Context) error

	// Search 在指定过滤条件下执行相似度检索。
	Search(ctx context.Context, params *VectorSearchParams) ([]*VectorSearchResult, error)

	// Insert 批量写入文档分块。
	Insert(ctx context.Context, chunks []*VectorChunk) error

	// DeleteByFilter 删除匹配过滤条件的全部分块。
	DeleteByFilter(ctx context.Context, filter VectorFilter) error
}

// VectorSearchParams 向量检索参数。
type VectorSearchParams struct {
	QueryVector []float32
	Limit       int
	Filter      VectorFilter
}

// VectorSearchResult 向量检索结果。
type VectorSearchResult struct {
	ID          string
	Score       float64 // 相似度，越大越相关
	Text        string
	DocumentID  string
	Filename    string
	ContentType string
}

// VectorChunk 待写入的文档分块。
type VectorChunk struct {
	ID             string
	DocumentID     string
	UserID         int64
	OrganizationID int64 // 0 表示个人文档
	Visibility     string
	Filename       string
	ContentType    string
	Text           string
	Vector         []float32
}
