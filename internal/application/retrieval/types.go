package retrieval

import (
	"avangard-rag-api/internal/domain/entity"
)

// SearchInput 检索输入。
type SearchInput struct {
	UserID         int64
	OrganizationID int64 // 0 表示用户未加入组织
	Query          string
	Scope          Scope
	Limit          int

	// ScoreThreshold 低于该相似度的结果被丢弃；<=0 时使用默认值。
	ScoreThreshold float64

	// UseRerank 为 false 时跳过交叉编码器重排，按相似度排序截断。
	UseRerank bool

	// RerankTopN 重排后保留的结果数；<=0 时使用默认值。
	RerankTopN int

	// SkipCache 为 true 时绕过结果缓存（不读也不写）。
	SkipCache bool
}

// SearchResult 单条检索结果。
type SearchResult struct {
	Text        string             `json:"text"`
	Filename    string             `json:"filename"`
	DocumentID  string             `json:"document_id"`
	ContentType entity.ContentType `json:"content_type"`
	Score       float64            `json:"score"`
	RerankScore *float64           `json:"rerank_score,omitempty"`
}

// SearchOutput 检索输出。
type SearchOutput struct {
	Results  []SearchResult `json:"results"`
	CacheHit bool           `json:"cache_hit"`
	Reranked bool           `json:"reranked"`
	Expanded string         `json:"expanded_query,omitempty"` // 扩展后的查询，与原查询相同时为空
}

// IndexStats 一次索引操作的结果。
type IndexStats struct {
	ContentType entity.ContentType
	Chunks      int
}

// toContentType 将存储层的类别字符串收敛为已知类别，未知值回退为 general。
func toContentType(s string) entity.ContentType {
	switch ct := entity.ContentType(s); ct {
	case entity.ContentTypeLegal, entity.ContentTypeTechnical,
		entity.ContentTypeCooking, entity.ContentTypeFAQ, entity.ContentTypeGeneral:
		return ct
	default:
		return entity.ContentTypeGeneral
	}
}
