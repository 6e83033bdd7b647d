package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/fleetdesk/internal/auth"
	"github.com/langchou/fleetdesk/internal/models"
)

// context key 常量
const (
	ctxUserKey    = "auth_user"
	ctxTokenIDKey = "auth_token_id"
)

// Authenticate 认证中间件
// 解析 Bearer 令牌并校验对应的 access_tokens 行仍然存在（未被撤销）
func (h *Handler) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == "" || tokenString == header {
			h.unauthenticated(c)
			return
		}

		claims, err := auth.ParseToken(h.jwtSecret, tokenString)
		if err != nil {
			h.unauthenticated(c)
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			h.unauthenticated(c)
			return
		}

		// 已撤销（登出）的令牌即使签名有效也拒绝
		alive, err := h.tokens.Exists(c.Request.Context(), claims.ID, userID)
		if err != nil {
			h.logger.Error("Failed to check access token", zap.Error(err))
			h.unauthenticated(c)
			return
		}
		if !alive {
			h.unauthenticated(c)
			return
		}

		user, err := h.users.GetByID(c.Request.Context(), userID)
		if err != nil {
			h.unauthenticated(c)
			return
		}

		c.Set(ctxUserKey, user)
		c.Set(ctxTokenIDKey, claims.ID)
		c.Next()
	}
}

// RequireRole 角色门禁中间件（路由组级别的粗粒度控制）
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil || user.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
			return
		}
		c.Next()
	}
}

func (h *Handler) unauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
}

// currentUser 取出当前认证用户
func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// currentTokenID 取出当前请求所用令牌的 ID
func currentTokenID(c *gin.Context) string {
	return c.GetString(ctxTokenIDKey)
}
