package postgres

import (
	"context"
	"fmt"

	"avangard-rag-api/internal/domain/entity"
	"avangard-rag-api/internal/domain/repository"
)

// QueryLogRepository 查询日志仓储实现
type QueryLogRepository struct {
	client *Client
}

// NewQueryLogRepository 创建查询日志仓储
func NewQueryLogRepository(client *Client) *QueryLogRepository {
	return &QueryLogRepository{client: client}
}

// Create 记录一次检索查询
func (r *QueryLogRepository) Create(ctx context.Context, log *entity.QueryLog) error {
	ctx, span := tracer.Start(ctx, "postgres.QueryLogRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(log).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("记录查询日志失败: %w", err)
	}
	return nil
}

// ListByUser 获取用户最近的查询记录
func (r *QueryLogRepository) ListByUser(ctx context.Context, userID int64, pagination repository.Pagination) (*repository.PagedResult[*entity.QueryLog], error) {
	ctx, span := tracer.Start(ctx, "postgres.QueryLogRepository.ListByUser")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.QueryLog{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("统计查询日志失败: %w", err)
	}

	var logs []*entity.QueryLog
	if err := query.Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&logs).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("获取查询日志失败: %w", err)
	}

	return repository.NewPagedResult(logs, total, pagination), nil
}
