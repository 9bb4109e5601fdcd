package entity

import (
	"time"
)

// QueryLog 检索查询日志
type QueryLog struct {
	ID             int64         `json:"id"`
	UserID         int64         `json:"user_id"`
	OrganizationID int64         `json:"organization_id,omitempty"`
	Query          string        `json:"query"`
	Scope          string        `json:"scope"`
	ResultCount    int           `json:"result_count"`
	CacheHit       bool          `json:"cache_hit"`
	Reranked       bool          `json:"reranked"`
	Duration       time.Duration `json:"duration"`
	CreatedAt      time.Time     `json:"created_at"`
}
