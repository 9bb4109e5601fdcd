package entity

import (
	"time"
)

// Organization 组织实体
// 组织内上传且可见性为 organization 的文档对全体成员可检索
type Organization struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	OwnerID     int64     `json:"owner_id"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewOrganization 创建新组织
func NewOrganization(name string, ownerID int64) *Organization {
	now := time.Now()
	return &Organization{
		Name:      name,
		OwnerID:   ownerID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
