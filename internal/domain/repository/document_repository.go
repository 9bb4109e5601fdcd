package repository

import (
	"context"

	"avangard-rag-api/internal/domain/entity"
)

// DocumentFilter 文档列表过滤条件
type DocumentFilter struct {
	Status      entity.DocumentStatus
	ContentType entity.ContentType
	Visibility  entity.Visibility
}

// DocumentRepository 文档仓储接口
type DocumentRepository interface {
	// Create 创建文档记录
	Create(ctx context.Context, doc *entity.Document) error

	// GetByID 根据 ID 获取文档
	GetByID(ctx context.Context, id string) (*entity.Document, error)

	// GetByHash 根据文件哈希查找用户已有文档，用于上传去重
	GetByHash(ctx context.Context, userID int64, fileHash string) (*entity.Document, error)

	// Update 更新文档
	Update(ctx context.Context, doc *entity.Document) error

	// Delete 删除文档记录
	Delete(ctx context.Context, id string) error

	// ListByUser 获取用户文档列表
	ListByUser(ctx context.Context, userID int64, filter DocumentFilter, pagination Pagination) (*PagedResult[*entity.Document], error)

	// ListByOrganization 获取组织文档列表
	ListByOrganization(ctx context.Context, organizationID int64, filter DocumentFilter, pagination Pagination) (*PagedResult[*entity.Document], error)
}
