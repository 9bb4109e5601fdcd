package dto

import (
	"time"

	"avangard-rag-api/internal/domain/entity"
	"avangard-rag-api/internal/domain/repository"
)

// DocumentListQuery 文档列表查询参数
type DocumentListQuery struct {
	Page        int    `form:"page,default=1"`
	PageSize    int    `form:"page_size,default=20"`
	Status      string `form:"status"`
	ContentType string `form:"content_type"`
	Visibility  string `form:"visibility"`
	Scope       string `form:"scope,default=private"` // private | organization
}

// Filter 转换为仓储过滤条件
func (q *DocumentListQuery) Filter() repository.DocumentFilter {
	return repository.DocumentFilter{
		Status:      entity.DocumentStatus(q.Status),
		ContentType: entity.ContentType(q.ContentType),
		Visibility:  entity.Visibility(q.Visibility),
	}
}

// DocumentResponse 文档响应
type DocumentResponse struct {
	ID             string     `json:"id"`
	Filename       string     `json:"filename"`
	ContentType    string     `json:"content_type,omitempty"`
	Visibility     string     `json:"visibility"`
	Status         string     `json:"status"`
	ChunksCount    int        `json:"chunks_count"`
	FileSize       int64      `json:"file_size"`
	OrganizationID int64      `json:"organization_id,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	IndexedAt      *time.Time `json:"indexed_at,omitempty"`
}

// ToDocumentResponse 转换文档实体
func ToDocumentResponse(doc *entity.Document) *DocumentResponse {
	if doc == nil {
		return nil
	}
	return &DocumentResponse{
		ID:             doc.ID,
		Filename:       doc.Filename,
		ContentType:    string(doc.ContentType),
		Visibility:     string(doc.Visibility),
		Status:         string(doc.Status),
		ChunksCount:    doc.ChunksCount,
		FileSize:       doc.FileSize,
		OrganizationID: doc.OrganizationID,
		ErrorMessage:   doc.ErrorMessage,
		CreatedAt:      doc.CreatedAt,
		IndexedAt:      doc.IndexedAt,
	}
}

// ToDocumentResponses 转换文档列表
func ToDocumentResponses(docs []*entity.Document) []*DocumentResponse {
	out := make([]*DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, ToDocumentResponse(doc))
	}
	return out
}
