package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"avangard-rag-api/internal/application/retrieval"
	"avangard-rag-api/internal/application/search"
	"avangard-rag-api/internal/domain/repository"
	"avangard-rag-api/internal/interfaces/http/dto"
	"avangard-rag-api/internal/interfaces/http/middleware"
	"avangard-rag-api/pkg/logger"
)

// SearchHandler 检索处理器
type SearchHandler struct {
	svc *search.Service
}

// NewSearchHandler 创建检索处理器
func NewSearchHandler(svc *search.Service) *SearchHandler {
	return &SearchHandler{svc: svc}
}

// Search 范围化检索
// @Summary 在用户可见的文档中检索相关分块
// @Description scope=private 仅检索个人文档，scope=organization 仅检索组织共享文档，scope=all（默认）合并两者
// @Tags Search
// @Accept json
// @Produce json
// @Param body body dto.SearchRequest true "检索请求"
// @Success 200 {object} dto.Response[dto.SearchResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/v1/search [post]
func (h *SearchHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	scope, err := retrieval.ParseScope(req.Scope)
	if err != nil {
		dto.BadRequest(c, "invalid scope: must be private, organization or all")
		return
	}

	out, err := h.svc.Search(c.Request.Context(), retrieval.SearchInput{
		UserID:         middleware.UserID(c),
		OrganizationID: middleware.OrganizationID(c),
		Query:          req.Query,
		Scope:          scope,
		Limit:          req.Limit,
		ScoreThreshold: req.ScoreThreshold,
		UseRerank:      !req.NoRerank,
		RerankTopN:     req.RerankTopN,
		SkipCache:      req.NoCache,
	})
	if err != nil {
		switch {
		case errors.Is(err, retrieval.ErrInvalidScope):
			dto.BadRequest(c, "scope unavailable for this user")
		case errors.Is(err, retrieval.ErrRetrievalUnavailable):
			dto.ServiceUnavailable(c, "search backend unavailable")
		default:
			logger.Error(c.Request.Context(), "search failed", err)
			dto.InternalError(c, "search failed")
		}
		return
	}

	dto.Success(c, dto.ToSearchResponse(out))
}

// History 最近的查询记录
// @Summary 用户最近的查询记录
// @Tags Search
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} dto.Response[[]dto.QueryLogResponse]
// @Router /api/v1/search/history [get]
func (h *SearchHandler) History(c *gin.Context) {
	var query struct {
		Page     int `form:"page,default=1"`
		PageSize int `form:"page_size,default=20"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	result, err := h.svc.History(c.Request.Context(), middleware.UserID(c), repository.NewPagination(query.Page, query.PageSize))
	if err != nil {
		logger.Error(c.Request.Context(), "query history failed", err)
		dto.InternalError(c, "failed to load query history")
		return
	}

	dto.SuccessWithPage(c, dto.ToQueryLogResponses(result.Items), &dto.PageMeta{
		Page:       result.Page,
		PageSize:   result.PageSize,
		Total:      result.Total,
		TotalPages: result.TotalPages,
	})
}
