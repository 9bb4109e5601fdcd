package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"avangard-rag-api/internal/domain/entity"
)

// OrganizationRepository 组织仓储实现
type OrganizationRepository struct {
	client *Client
}

// NewOrganizationRepository 创建组织仓储
func NewOrganizationRepository(client *Client) *OrganizationRepository {
	return &OrganizationRepository{client: client}
}

// Create 创建组织
func (r *OrganizationRepository) Create(ctx context.Context, org *entity.Organization) error {
	ctx, span := tracer.Start(ctx, "postgres.OrganizationRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(org).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("创建组织失败: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取组织
func (r *OrganizationRepository) GetByID(ctx context.Context, id int64) (*entity.Organization, error) {
	ctx, span := tracer.Start(ctx, "postgres.OrganizationRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var org entity.Organization
	if err := db.First(&org, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("获取组织失败: %w", err)
	}
	return &org, nil
}

// Update 更新组织
func (r *OrganizationRepository) Update(ctx context.Context, org *entity.Organization) error {
	ctx, span := tracer.Start(ctx, "postgres.OrganizationRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(org).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("更新组织失败: %w", err)
	}
	return nil
}

// Delete 删除组织
func (r *OrganizationRepository) Delete(ctx context.Context, id int64) error {
	ctx, span := tracer.Start(ctx, "postgres.OrganizationRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.Organization{}, "id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("删除组织失败: %w", err)
	}
	return nil
}
