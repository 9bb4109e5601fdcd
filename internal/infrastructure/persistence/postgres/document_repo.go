package postgres

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"avangard-rag-api/internal/domain/entity"
	"avangard-rag-api/internal/domain/repository"
)

// DocumentRepository 文档仓储实现
type DocumentRepository struct {
	client *Client
}

// NewDocumentRepository 创建文档仓储
func NewDocumentRepository(client *Client) *DocumentRepository {
	return &DocumentRepository{client: client}
}

// Create 创建文档记录
func (r *DocumentRepository) Create(ctx context.Context, doc *entity.Document) error {
	ctx, span := tracer.Start(ctx, "postgres.DocumentRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(doc).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("创建文档记录失败: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取文档
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*entity.Document, error) {
	ctx, span := tracer.Start(ctx, "postgres.DocumentRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var doc entity.Document
	if err := db.First(&doc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("获取文档失败: %w", err)
	}
	return &doc, nil
}

// GetByHash 根据文件哈希查找用户已有文档
func (r *DocumentRepository) GetByHash(ctx context.Context, userID int64, fileHash string) (*entity.Document, error) {
	ctx, span := tracer.Start(ctx, "postgres.DocumentRepository.GetByHash")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var doc entity.Document
	if err := db.First(&doc, "user_id = ? AND file_hash = ?", userID, fileHash).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("根据哈希查找文档失败: %w", err)
	}
	return &doc, nil
}

// Update 更新文档
func (r *DocumentRepository) Update(ctx context.Context, doc *entity.Document) error {
	ctx, span := tracer.Start(ctx, "postgres.DocumentRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(doc).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("更新文档失败: %w", err)
	}
	return nil
}

// Delete 删除文档记录
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.DocumentRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.Document{}, "id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("删除文档记录失败: %w", err)
	}
	return nil
}

// ListByUser 获取用户文档列表
func (r *DocumentRepository) ListByUser(ctx context.Context, userID int64, filter repository.DocumentFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.Document], error) {
	ctx, span := tracer.Start(ctx, "postgres.DocumentRepository.ListByUser")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := applyDocumentFilter(db.Model(&entity.Document{}).Where("user_id = ?", userID), filter)
	return r.page(span, query, pagination)
}

// ListByOrganization 获取组织文档列表
func (r *DocumentRepository) ListByOrganization(ctx context.Context, organizationID int64, filter repository.DocumentFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.Document], error) {
	ctx, span := tracer.Start(ctx, "postgres.DocumentRepository.ListByOrganization")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := applyDocumentFilter(
		db.Model(&entity.Document{}).
			Where("organization_id = ? AND visibility = ?", organizationID, entity.VisibilityOrganization),
		filter,
	)
	return r.page(span, query, pagination)
}

func (r *DocumentRepository) page(span trace.Span, query *gorm.DB, pagination repository.Pagination) (*repository.PagedResult[*entity.Document], error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("统计文档失败: %w", err)
	}

	var docs []*entity.Document
	if err := query.Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&docs).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("获取文档列表失败: %w", err)
	}

	return repository.NewPagedResult(docs, total, pagination), nil
}

func applyDocumentFilter(query *gorm.DB, filter repository.DocumentFilter) *gorm.DB {
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ContentType != "" {
		query = query.Where("content_type = ?", filter.ContentType)
	}
	if filter.Visibility != "" {
		query = query.Where("visibility = ?", filter.Visibility)
	}
	return query
}
