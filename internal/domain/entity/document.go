package entity

import (
	"time"

	"github.com/google/uuid"
)

// DocumentStatus 文档索引状态
type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusIndexed    DocumentStatus = "indexed"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// Visibility 文档可见范围
type Visibility string

const (
	// VisibilityPrivate 仅上传者本人可检索
	VisibilityPrivate Visibility = "private"
	// VisibilityOrganization 组织内全体成员可检索
	VisibilityOrganization Visibility = "organization"
)

// ContentType 文档内容类别，决定分块参数
type ContentType string

const (
	ContentTypeLegal     ContentType = "legal"
	ContentTypeTechnical ContentType = "technical"
	ContentTypeCooking   ContentType = "cooking"
	ContentTypeFAQ       ContentType = "faq"
	ContentTypeGeneral   ContentType = "general"
)

// Document 文档实体
type Document struct {
	ID             string         `json:"id"`
	UserID         int64          `json:"user_id"`
	OrganizationID int64          `json:"organization_id,omitempty"` // 0 表示个人文档
	Filename       string         `json:"filename"`
	ContentType    ContentType    `json:"content_type,omitempty"`
	Visibility     Visibility     `json:"visibility"`
	Status         DocumentStatus `json:"status"`
	ChunksCount    int            `json:"chunks_count"`
	FileSize       int64          `json:"file_size"`
	FileHash       string         `json:"file_hash,omitempty"` // SHA-256，用于去重
	MimeType       string         `json:"mime_type,omitempty"`
	StoragePath    string         `json:"-"` // 原始文件存放位置，仅服务端使用
	ErrorMessage   string         `json:"error_message,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	IndexedAt      *time.Time     `json:"indexed_at,omitempty"`
}

// NewDocument 创建待索引文档
func NewDocument(userID, organizationID int64, filename string, visibility Visibility) *Document {
	now := time.Now()
	return &Document{
		ID:             uuid.NewString(),
		UserID:         userID,
		OrganizationID: organizationID,
		Filename:       filename,
		Visibility:     visibility,
		Status:         DocumentStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// MarkProcessing 标记为处理中
func (d *Document) MarkProcessing() {
	d.Status = DocumentStatusProcessing
	d.ErrorMessage = ""
	d.UpdatedAt = time.Now()
}

// MarkIndexed 标记为已索引
func (d *Document) MarkIndexed(contentType ContentType, chunks int) {
	now := time.Now()
	d.Status = DocumentStatusIndexed
	d.ContentType = contentType
	d.ChunksCount = chunks
	d.ErrorMessage = ""
	d.IndexedAt = &now
	d.UpdatedAt = now
}

// MarkFailed 标记为失败并记录原因
func (d *Document) MarkFailed(reason string) {
	d.Status = DocumentStatusFailed
	d.ErrorMessage = reason
	d.UpdatedAt = time.Now()
}

// IsOrganizationDocument 检查是否为组织文档
func (d *Document) IsOrganizationDocument() bool {
	return d.OrganizationID != 0 && d.Visibility == VisibilityOrganization
}
