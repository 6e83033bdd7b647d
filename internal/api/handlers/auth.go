package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/fleetdesk/internal/auth"
	"github.com/langchou/fleetdesk/internal/models"
	"github.com/langchou/fleetdesk/internal/repository"
)

type registerRequest struct {
	Name                 string `json:"name" binding:"required,max=255"`
	Email                string `json:"email" binding:"required,email,max=255"`
	Password             string `json:"password" binding:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" binding:"required,eqfield=Password"`
	Role                 string `json:"role" binding:"required,oneof=admin chauffeur"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register 注册用户并立即签发令牌
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("Failed to hash password", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to register user")
		return
	}

	user := &models.User{
		Name:         req.Name,
		Email:        strings.ToLower(req.Email),
		PasswordHash: hash,
		Role:         req.Role,
	}
	if err := h.users.Create(c.Request.Context(), user); err != nil {
		if repository.IsUniqueViolation(err) {
			fieldError(c, "email", "The email has already been taken.")
			return
		}
		h.logger.Error("Failed to create user", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to register user")
		return
	}

	token, ok := h.issueToken(c, user)
	if !ok {
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    user,
		"token":   token,
	})
}

// Login 校验凭据并签发令牌
// 凭据错误统一返回同一条提示，避免暴露账号是否存在
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), strings.ToLower(req.Email))
	if err != nil {
		fieldError(c, "email", "The provided credentials are incorrect.")
		return
	}
	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		fieldError(c, "email", "The provided credentials are incorrect.")
		return
	}

	token, ok := h.issueToken(c, user)
	if !ok {
		return
	}

	if user.VehicleID != nil {
		if vehicle, err := h.vehicles.GetByID(c.Request.Context(), *user.VehicleID); err == nil {
			user.Vehicle = vehicle
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    user,
		"token":   token,
	})
}

// Logout 仅撤销本次请求携带的令牌
func (h *Handler) Logout(c *gin.Context) {
	if err := h.tokens.Delete(c.Request.Context(), currentTokenID(c)); err != nil {
		h.logger.Error("Failed to revoke token", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to log out")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Me 获取当前认证用户（含分配车辆）
func (h *Handler) Me(c *gin.Context) {
	user := currentUser(c)
	if user.VehicleID != nil {
		if vehicle, err := h.vehicles.GetByID(c.Request.Context(), *user.VehicleID); err == nil {
			user.Vehicle = vehicle
		}
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// issueToken 签发令牌并持久化对应的 access_tokens 行
func (h *Handler) issueToken(c *gin.Context, user *models.User) (string, bool) {
	token, tokenID, expiresAt, err := auth.IssueToken(h.jwtSecret, user.ID, user.Role, h.tokenTTL)
	if err != nil {
		h.logger.Error("Failed to issue token", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to issue token")
		return "", false
	}
	if err := h.tokens.Create(c.Request.Context(), tokenID, user.ID, expiresAt); err != nil {
		h.logger.Error("Failed to persist token", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to issue token")
		return "", false
	}
	return token, true
}
