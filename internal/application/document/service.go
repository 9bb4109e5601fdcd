package document

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"avangard-rag-api/internal/application/retrieval"
	"avangard-rag-api/internal/domain/entity"
	"avangard-rag-api/internal/domain/repository"
	"avangard-rag-api/internal/infrastructure/messaging"
	"avangard-rag-api/pkg/logger"
)

var tracer = otel.Tracer("document")

// JobPublisher 索引任务发布依赖，*messaging.Producer 实现该接口
type JobPublisher interface {
	PublishIndexJob(ctx context.Context, job *messaging.DocumentIndexMessage) (string, error)
	PublishDeleteJob(ctx context.Context, job *messaging.DocumentDeleteMessage) (string, error)
}

// FileStore 原始文件存储依赖
type FileStore interface {
	Save(documentID string, content []byte) (string, error)
	Load(path string) ([]byte, error)
	Remove(path string) error
}

// Service 文档服务
type Service struct {
	docRepo   repository.DocumentRepository
	publisher JobPublisher
	store     FileStore
	cache     *retrieval.SearchCache

	maxUploadSize int64
}

// NewService 创建文档服务
func NewService(docRepo repository.DocumentRepository, publisher JobPublisher, store FileStore, cache *retrieval.SearchCache, maxUploadSize int64) *Service {
	if maxUploadSize <= 0 {
		maxUploadSize = 20 << 20
	}
	return &Service{
		docRepo:       docRepo,
		publisher:     publisher,
		store:         store,
		cache:         cache,
		maxUploadSize: maxUploadSize,
	}
}

// UploadInput 上传请求
type UploadInput struct {
	UserID         int64
	OrganizationID int64
	Filename       string
	MimeType       string
	Visibility     entity.Visibility
	Content        []byte
}

// Upload 接收上传文件，创建文档记录并发布索引任务
//
// 相同用户上传内容完全一致的文件时返回已有文档，不重复索引。
func (s *Service) Upload(ctx context.Context, input UploadInput) (*entity.Document, error) {
	ctx, span := tracer.Start(ctx, "document.Upload")
	span.SetAttributes(
		attribute.Int64("user_id", input.UserID),
		attribute.String("filename", input.Filename),
	)
	defer span.End()

	if input.Filename == "" {
		return nil, fmt.Errorf("文件名不能为空")
	}
	if int64(len(input.Content)) > s.maxUploadSize {
		return nil, ErrFileTooLarge
	}
	if input.Visibility == "" {
		input.Visibility = entity.VisibilityPrivate
	}
	if input.Visibility == entity.VisibilityOrganization && input.OrganizationID == 0 {
		return nil, ErrOrganizationRequired
	}

	hash := sha256.Sum256(input.Content)
	fileHash := hex.EncodeToString(hash[:])

	existing, err := s.docRepo.GetByHash(ctx, input.UserID, fileHash)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status != entity.DocumentStatusFailed {
		return existing, ErrDuplicateDocument
	}

	orgID := int64(0)
	if input.Visibility == entity.VisibilityOrganization {
		orgID = input.OrganizationID
	}

	doc := entity.NewDocument(input.UserID, orgID, input.Filename, input.Visibility)
	doc.FileSize = int64(len(input.Content))
	doc.FileHash = fileHash
	doc.MimeType = input.MimeType

	path, err := s.store.Save(doc.ID, input.Content)
	if err != nil {
		return nil, err
	}
	doc.StoragePath = path

	if err := s.docRepo.Create(ctx, doc); err != nil {
		if rmErr := s.store.Remove(path); rmErr != nil {
			logger.Warn(ctx, "failed to clean up stored file", "path", path, "error", rmErr)
		}
		return nil, err
	}

	if _, err := s.publisher.PublishIndexJob(ctx, &messaging.DocumentIndexMessage{
		DocumentID:     doc.ID,
		UserID:         doc.UserID,
		OrganizationID: doc.OrganizationID,
		Filename:       doc.Filename,
		MimeType:       doc.MimeType,
		StoragePath:    doc.StoragePath,
	}); err != nil {
		doc.MarkFailed("队列不可用: " + err.Error())
		if updErr := s.docRepo.Update(ctx, doc); updErr != nil {
			logger.Error(ctx, "failed to mark document failed", updErr, "document_id", doc.ID)
		}
		return nil, err
	}

	logger.Info(ctx, "document uploaded",
		"document_id", doc.ID,
		"filename", doc.Filename,
		"size", doc.FileSize,
	)
	return doc, nil
}

// Get 获取文档详情并校验访问权限
func (s *Service) Get(ctx context.Context, userID, organizationID int64, documentID string) (*entity.Document, error) {
	ctx, span := tracer.Start(ctx, "document.Get")
	defer span.End()

	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	if !canRead(doc, userID, organizationID) {
		return nil, ErrAccessDenied
	}
	return doc, nil
}

// ListByUser 获取用户自己的文档列表
func (s *Service) ListByUser(ctx context.Context, userID int64, filter repository.DocumentFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.Document], error) {
	return s.docRepo.ListByUser(ctx, userID, filter, pagination)
}

// ListByOrganization 获取组织共享文档列表
func (s *Service) ListByOrganization(ctx context.Context, organizationID int64, filter repository.DocumentFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.Document], error) {
	if organizationID == 0 {
		return nil, ErrOrganizationRequired
	}
	return s.docRepo.ListByOrganization(ctx, organizationID, filter, pagination)
}

// Delete 删除文档：移除数据库记录与原始文件，异步清理向量分块
func (s *Service) Delete(ctx context.Context, userID, organizationID int64, role entity.UserRole, documentID string) error {
	ctx, span := tracer.Start(ctx, "document.Delete")
	span.SetAttributes(attribute.String("document_id", documentID))
	defer span.End()

	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrDocumentNotFound
	}
	if !canModify(doc, userID, organizationID, role) {
		return ErrAccessDenied
	}

	if err := s.docRepo.Delete(ctx, documentID); err != nil {
		return err
	}
	if doc.StoragePath != "" {
		if err := s.store.Remove(doc.StoragePath); err != nil {
			logger.Warn(ctx, "failed to remove stored file", "path", doc.StoragePath, "error", err)
		}
	}

	if _, err := s.publisher.PublishDeleteJob(ctx, &messaging.DocumentDeleteMessage{
		DocumentID:     doc.ID,
		UserID:         doc.UserID,
		OrganizationID: doc.OrganizationID,
		Filename:       doc.Filename,
	}); err != nil {
		// 记录删除已生效，向量残留由下次同文档索引清理兜底
		logger.Error(ctx, "failed to publish delete job", err, "document_id", doc.ID)
	}

	s.invalidateCaches(ctx, doc)
	logger.Info(ctx, "document deleted", "document_id", doc.ID)
	return nil
}

// Reindex 重新索引文档
func (s *Service) Reindex(ctx context.Context, userID, organizationID int64, role entity.UserRole, documentID string) (*entity.Document, error) {
	ctx, span := tracer.Start(ctx, "document.Reindex")
	span.SetAttributes(attribute.String("document_id", documentID))
	defer span.End()

	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	if !canModify(doc, userID, organizationID, role) {
		return nil, ErrAccessDenied
	}

	doc.Status = entity.DocumentStatusPending
	doc.ErrorMessage = ""
	if err := s.docRepo.Update(ctx, doc); err != nil {
		return nil, err
	}

	if _, err := s.publisher.PublishIndexJob(ctx, &messaging.DocumentIndexMessage{
		DocumentID:     doc.ID,
		UserID:         doc.UserID,
		OrganizationID: doc.OrganizationID,
		Filename:       doc.Filename,
		MimeType:       doc.MimeType,
		StoragePath:    doc.StoragePath,
		Reindex:        true,
	}); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Service) invalidateCaches(ctx context.Context, doc *entity.Document) {
	s.cache.InvalidateUser(ctx, doc.UserID)
	if doc.IsOrganizationDocument() {
		s.cache.InvalidateOrganization(ctx, doc.OrganizationID)
	}
}

// canRead 文档归属人，或同组织成员读组织共享文档
func canRead(doc *entity.Document, userID, organizationID int64) bool {
	if doc.UserID == userID {
		return true
	}
	return doc.IsOrganizationDocument() && doc.OrganizationID == organizationID
}

// canModify 文档归属人，或组织管理员改组织共享文档
func canModify(doc *entity.Document, userID, organizationID int64, role entity.UserRole) bool {
	if doc.UserID == userID {
		return true
	}
	return doc.IsOrganizationDocument() &&
		doc.OrganizationID == organizationID &&
		role == entity.UserRoleAdmin
}
