package dto

import (
	"time"

	"avangard-rag-api/internal/application/retrieval"
	"avangard-rag-api/internal/domain/entity"
)

// SearchRequest 检索请求
type SearchRequest struct {
	Query string `json:"query" binding:"required,max=2000"`
	// Scope 检索范围：private | organization | all，缺省为 all
	Scope string `json:"scope,omitempty"`
	Limit int    `json:"limit,omitempty" binding:"omitempty,min=1,max=50"`

	ScoreThreshold float64 `json:"score_threshold,omitempty" binding:"omitempty,gt=0,lte=1"`
	NoRerank       bool    `json:"no_rerank,omitempty"`
	RerankTopN     int     `json:"rerank_top_n,omitempty" binding:"omitempty,min=1,max=50"`
	NoCache        bool    `json:"no_cache,omitempty"`
}

// SearchResultItem 单条检索结果
type SearchResultItem struct {
	Text        string   `json:"text"`
	Filename    string   `json:"filename"`
	DocumentID  string   `json:"document_id"`
	ContentType string   `json:"content_type"`
	Score       float64  `json:"score"`
	RerankScore *float64 `json:"rerank_score,omitempty"`
}

// SearchResponse 检索响应
type SearchResponse struct {
	Results       []SearchResultItem `json:"results"`
	CacheHit      bool               `json:"cache_hit"`
	Reranked      bool               `json:"reranked"`
	ExpandedQuery string             `json:"expanded_query,omitempty"`
}

// ToSearchResponse 转换检索输出
func ToSearchResponse(out *retrieval.SearchOutput) *SearchResponse {
	items := make([]SearchResultItem, 0, len(out.Results))
	for _, r := range out.Results {
		items = append(items, SearchResultItem{
			Text:        r.Text,
			Filename:    r.Filename,
			DocumentID:  r.DocumentID,
			ContentType: string(r.ContentType),
			Score:       r.Score,
			RerankScore: r.RerankScore,
		})
	}
	return &SearchResponse{
		Results:       items,
		CacheHit:      out.CacheHit,
		Reranked:      out.Reranked,
		ExpandedQuery: out.Expanded,
	}
}

// QueryLogResponse 查询日志响应
type QueryLogResponse struct {
	Query       string    `json:"query"`
	Scope       string    `json:"scope"`
	ResultCount int       `json:"result_count"`
	CacheHit    bool      `json:"cache_hit"`
	Reranked    bool      `json:"reranked"`
	DurationMS  int64     `json:"duration_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToQueryLogResponses 转换查询日志列表
func ToQueryLogResponses(logs []*entity.QueryLog) []*QueryLogResponse {
	out := make([]*QueryLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, &QueryLogResponse{
			Query:       l.Query,
			Scope:       l.Scope,
			ResultCount: l.ResultCount,
			CacheHit:    l.CacheHit,
			Reranked:    l.Reranked,
			DurationMS:  l.Duration.Milliseconds(),
			CreatedAt:   l.CreatedAt,
		})
	}
	return out
}
