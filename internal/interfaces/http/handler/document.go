package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"avangard-rag-api/internal/application/document"
	"avangard-rag-api/internal/domain/entity"
	"avangard-rag-api/internal/domain/repository"
	"avangard-rag-api/internal/interfaces/http/dto"
	"avangard-rag-api/internal/interfaces/http/middleware"
	"avangard-rag-api/pkg/logger"
)

// DocumentHandler 文档处理器
type DocumentHandler struct {
	svc           *document.Service
	maxUploadSize int64
}

// NewDocumentHandler 创建文档处理器
func NewDocumentHandler(svc *document.Service, maxUploadSize int64) *DocumentHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = 20 << 20
	}
	return &DocumentHandler{svc: svc, maxUploadSize: maxUploadSize}
}

// Upload 上传文档
// @Summary 上传文档并触发异步索引
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "文档文件（txt/md/pdf）"
// @Param visibility formData string false "可见范围：private | organization"
// @Success 202 {object} dto.Response[dto.DocumentResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 413 {object} dto.ErrorResponse
// @Router /api/v1/documents [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		dto.BadRequest(c, "file is required")
		return
	}
	if fileHeader.Size > h.maxUploadSize {
		dto.PayloadTooLarge(c, "file exceeds upload size limit")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		dto.BadRequest(c, "cannot read uploaded file")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, h.maxUploadSize+1))
	if err != nil {
		dto.InternalError(c, "failed to read uploaded file")
		return
	}
	if int64(len(content)) > h.maxUploadSize {
		dto.PayloadTooLarge(c, "file exceeds upload size limit")
		return
	}

	visibility := entity.Visibility(c.DefaultPostForm("visibility", string(entity.VisibilityPrivate)))
	if visibility != entity.VisibilityPrivate && visibility != entity.VisibilityOrganization {
		dto.BadRequest(c, "invalid visibility")
		return
	}

	doc, err := h.svc.Upload(c.Request.Context(), document.UploadInput{
		UserID:         middleware.UserID(c),
		OrganizationID: middleware.OrganizationID(c),
		Filename:       fileHeader.Filename,
		MimeType:       fileHeader.Header.Get("Content-Type"),
		Visibility:     visibility,
		Content:        content,
	})
	if err != nil {
		switch {
		case errors.Is(err, document.ErrDuplicateDocument):
			// 返回已有文档，便于客户端直接复用
			dto.Conflict(c, "document with identical content already exists: "+doc.ID)
		case errors.Is(err, document.ErrFileTooLarge):
			dto.PayloadTooLarge(c, "file exceeds upload size limit")
		case errors.Is(err, document.ErrOrganizationRequired):
			dto.BadRequest(c, "organization visibility requires organization membership")
		default:
			logger.Error(c.Request.Context(), "document upload failed", err)
			dto.InternalError(c, "upload failed")
		}
		return
	}

	dto.Accepted(c, dto.ToDocumentResponse(doc))
}

// List 文档列表
// @Summary 文档列表
// @Description scope=private 返回用户自己的文档，scope=organization 返回组织共享文档
// @Tags Documents
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param scope query string false "列表范围：private | organization"
// @Param status query string false "按索引状态过滤"
// @Success 200 {object} dto.Response[[]dto.DocumentResponse]
// @Router /api/v1/documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	var query dto.DocumentListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	pagination := repository.NewPagination(query.Page, query.PageSize)

	var (
		result *repository.PagedResult[*entity.Document]
		err    error
	)
	switch query.Scope {
	case "organization":
		result, err = h.svc.ListByOrganization(c.Request.Context(), middleware.OrganizationID(c), query.Filter(), pagination)
	default:
		result, err = h.svc.ListByUser(c.Request.Context(), middleware.UserID(c), query.Filter(), pagination)
	}
	if err != nil {
		if errors.Is(err, document.ErrOrganizationRequired) {
			dto.BadRequest(c, "user has no organization")
			return
		}
		logger.Error(c.Request.Context(), "document list failed", err)
		dto.InternalError(c, "failed to list documents")
		return
	}

	dto.SuccessWithPage(c, dto.ToDocumentResponses(result.Items), &dto.PageMeta{
		Page:       result.Page,
		PageSize:   result.PageSize,
		Total:      result.Total,
		TotalPages: result.TotalPages,
	})
}

// Get 文档详情
// @Summary 文档详情
// @Tags Documents
// @Produce json
// @Param id path string true "文档 ID"
// @Success 200 {object} dto.Response[dto.DocumentResponse]
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/documents/{id} [get]
func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.svc.Get(c.Request.Context(), middleware.UserID(c), middleware.OrganizationID(c), c.Param("id"))
	if err != nil {
		h.writeDocumentError(c, err, "failed to get document")
		return
	}
	dto.Success(c, dto.ToDocumentResponse(doc))
}

// Delete 删除文档
// @Summary 删除文档及其向量分块
// @Tags Documents
// @Produce json
// @Param id path string true "文档 ID"
// @Success 204
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/documents/{id} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	err := h.svc.Delete(
		c.Request.Context(),
		middleware.UserID(c),
		middleware.OrganizationID(c),
		entity.UserRole(middleware.Role(c)),
		c.Param("id"),
	)
	if err != nil {
		h.writeDocumentError(c, err, "failed to delete document")
		return
	}
	dto.NoContent(c)
}

// Reindex 重建文档索引
// @Summary 重新分块并索引文档
// @Tags Documents
// @Produce json
// @Param id path string true "文档 ID"
// @Success 202 {object} dto.Response[dto.DocumentResponse]
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/documents/{id}/reindex [post]
func (h *DocumentHandler) Reindex(c *gin.Context) {
	doc, err := h.svc.Reindex(
		c.Request.Context(),
		middleware.UserID(c),
		middleware.OrganizationID(c),
		entity.UserRole(middleware.Role(c)),
		c.Param("id"),
	)
	if err != nil {
		h.writeDocumentError(c, err, "failed to reindex document")
		return
	}
	dto.Accepted(c, dto.ToDocumentResponse(doc))
}

func (h *DocumentHandler) writeDocumentError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, document.ErrDocumentNotFound):
		dto.NotFound(c, "document not found")
	case errors.Is(err, document.ErrAccessDenied):
		dto.Forbidden(c, "access denied")
	default:
		logger.Error(c.Request.Context(), fallback, err)
		dto.InternalError(c, fallback)
	}
}
