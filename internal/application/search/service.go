// Package search 提供检索服务：调用检索引擎并记录查询日志
package search

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"

	"avangard-rag-api/internal/application/retrieval"
	"avangard-rag-api/internal/domain/entity"
	"avangard-rag-api/internal/domain/repository"
	"avangard-rag-api/pkg/logger"
)

var tracer = otel.Tracer("search")

// Service 检索服务
type Service struct {
	engine *retrieval.Engine
	logs   repository.QueryLogRepository
}

// NewService 创建检索服务
func NewService(engine *retrieval.Engine, logs repository.QueryLogRepository) *Service {
	return &Service{
		engine: engine,
		logs:   logs,
	}
}

// Search 执行范围化检索并记录查询日志
//
// 日志写入失败不影响检索结果。
func (s *Service) Search(ctx context.Context, in retrieval.SearchInput) (*retrieval.SearchOutput, error) {
	ctx, span := tracer.Start(ctx, "search.Search")
	defer span.End()

	start := time.Now()
	out, err := s.engine.Search(ctx, in)
	if err != nil {
		return nil, err
	}

	if s.logs != nil {
		entry := &entity.QueryLog{
			UserID:         in.UserID,
			OrganizationID: in.OrganizationID,
			Query:          in.Query,
			Scope:          string(in.Scope),
			ResultCount:    len(out.Results),
			CacheHit:       out.CacheHit,
			Reranked:       out.Reranked,
			Duration:       time.Since(start),
			CreatedAt:      time.Now(),
		}
		if logErr := s.logs.Create(ctx, entry); logErr != nil {
			logger.Warn(ctx, "failed to record query log", "error", logErr)
		}
	}

	return out, nil
}

// History 获取用户最近的查询记录
func (s *Service) History(ctx context.Context, userID int64, pagination repository.Pagination) (*repository.PagedResult[*entity.QueryLog], error) {
	return s.logs.ListByUser(ctx, userID, pagination)
}
