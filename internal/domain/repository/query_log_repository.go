package repository

import (
	"context"

	"avangard-rag-api/internal/domain/entity"
)

// QueryLogRepository 查询日志仓储接口
type QueryLogRepository interface {
	// Create 记录一次检索查询
	Create(ctx context.Context, log *entity.QueryLog) error

	// ListByUser 获取用户最近的查询记录
	ListByUser(ctx context.Context, userID int64, pagination Pagination) (*PagedResult[*entity.QueryLog], error)
}
