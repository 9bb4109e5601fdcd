// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"

	"avangard-rag-api/internal/interfaces/http/handler"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(
	v1 *gin.RouterGroup,
	authHandler *handler.AuthHandler,
	documentHandler *handler.DocumentHandler,
	searchHandler *handler.SearchHandler,
) {
	// 认证管理
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
	}

	// 文档管理
	documents := v1.Group("/documents")
	{
		documents.POST("", documentHandler.Upload)
		documents.GET("", documentHandler.List)
		documents.GET("/:id", documentHandler.Get)
		documents.DELETE("/:id", documentHandler.Delete)
		documents.POST("/:id/reindex", documentHandler.Reindex)
	}

	// 范围化检索
	search := v1.Group("/search")
	{
		search.POST("", searchHandler.Search)
		search.GET("/history", searchHandler.History)
	}
}
