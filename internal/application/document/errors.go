// Package document 提供文档生命周期管理：上传、列表、删除、重建索引
package document

import "errors"

var (
	// ErrDocumentNotFound 文档不存在
	ErrDocumentNotFound = errors.New("document not found")

	// ErrAccessDenied 当前用户无权操作该文档
	ErrAccessDenied = errors.New("access denied")

	// ErrDuplicateDocument 相同内容的文档已存在
	ErrDuplicateDocument = errors.New("duplicate document")

	// ErrFileTooLarge 文件超过上传大小限制
	ErrFileTooLarge = errors.New("file too large")

	// ErrOrganizationRequired 组织可见的文档要求用户已加入组织
	ErrOrganizationRequired = errors.New("organization membership required")
)
