// Package middleware 提供 HTTP 中间件
package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"avangard-rag-api/pkg/logger"
	"avangard-rag-api/pkg/utils"
)

// Gin Context 键
const (
	CtxUserID         = "user_id"
	CtxOrganizationID = "organization_id"
	CtxRole           = "role"
)

// AuthConfig 认证配置
type AuthConfig struct {
	// SkipPaths 跳过认证的路径前缀
	SkipPaths []string
	// Enabled 是否启用认证
	Enabled bool
}

// DefaultSkipPaths 默认跳过认证的路径
var DefaultSkipPaths = []string{
	"/health",
	"/ready",
	"/live",
	"/metrics",
	"/api/v1/auth",
}

// Auth 认证中间件，校验 Bearer JWT 并注入用户身份
func Auth(jwtManager *utils.JWTManager, cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.Next()
			return
		}

		for _, path := range cfg.SkipPaths {
			if strings.HasPrefix(c.Request.URL.Path, path) {
				c.Next()
				return
			}
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "invalid authorization format")
			return
		}

		claims, err := jwtManager.ParseToken(parts[1])
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, utils.ErrTokenExpired) {
				msg = "token expired"
			}
			abortUnauthorized(c, msg)
			return
		}

		// 刷新令牌不能用于访问接口
		if claims.Type != "access" {
			abortUnauthorized(c, "invalid token type")
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxOrganizationID, claims.OrganizationID)
		c.Set(CtxRole, claims.Role)

		ctx := logger.WithContext(c.Request.Context(), logger.UserIDKey, strconv.FormatInt(claims.UserID, 10))
		if claims.OrganizationID != 0 {
			ctx = logger.WithContext(ctx, logger.OrgIDKey, strconv.FormatInt(claims.OrganizationID, 10))
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// UserID 从 Gin Context 取当前用户 ID
func UserID(c *gin.Context) int64 {
	return c.GetInt64(CtxUserID)
}

// OrganizationID 从 Gin Context 取当前用户的组织 ID，0 表示未加入组织
func OrganizationID(c *gin.Context) int64 {
	return c.GetInt64(CtxOrganizationID)
}

// Role 从 Gin Context 取当前用户角色
func Role(c *gin.Context) string {
	return c.GetString(CtxRole)
}

// abortUnauthorized 终止请求并返回 401
func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":     401,
		"message":  msg,
		"trace_id": c.GetString("trace_id"),
	})
}
