package repository

import (
	"context"

	"avangard-rag-api/internal/domain/entity"
)

// OrganizationRepository 组织仓储接口
type OrganizationRepository interface {
	// Create 创建组织
	Create(ctx context.Context, org *entity.Organization) error

	// GetByID 根据 ID 获取组织
	GetByID(ctx context.Context, id int64) (*entity.Organization, error)

	// Update 更新组织
	Update(ctx context.Context, org *entity.Organization) error

	// Delete 删除组织
	Delete(ctx context.Context, id int64) error
}
