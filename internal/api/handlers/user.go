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

type storeUserRequest struct {
	Name                 string `json:"name" binding:"required,max=255"`
	Email                string `json:"email" binding:"required,email,max=255"`
	Password             string `json:"password" binding:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" binding:"required,eqfield=Password"`
	Role                 string `json:"role" binding:"required,oneof=admin chauffeur"`
	VehicleID            *int64 `json:"vehicle_id"`
}

type updateUserRequest struct {
	Name                 string  `json:"name" binding:"required,max=255"`
	Email                string  `json:"email" binding:"required,email,max=255"`
	Password             *string `json:"password"`
	PasswordConfirmation *string `json:"password_confirmation"`
	Role                 string  `json:"role" binding:"required,oneof=admin chauffeur"`
	VehicleID            *int64  `json:"vehicle_id"`
}

type assignVehicleRequest struct {
	VehicleID int64 `json:"vehicle_id" binding:"required"`
}

// ListUsers 用户列表，支持 role 过滤与姓名/邮箱搜索
func (h *Handler) ListUsers(c *gin.Context) {
	role := c.Query("role")
	if role != "" && !models.ValidRole(role) {
		fieldError(c, "role", "The selected role is invalid.")
		return
	}
	search := c.Query("search")
	page := pageParam(c)
	offset := (page - 1) * models.DefaultPerPage

	ctx := c.Request.Context()
	users, err := h.users.List(ctx, role, search, models.DefaultPerPage, offset)
	if err != nil {
		h.logger.Error("Failed to list users", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to list users")
		return
	}
	total, err := h.users.Count(ctx, role, search)
	if err != nil {
		h.logger.Error("Failed to count users", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to list users")
		return
	}

	// 内嵌分配车辆
	for _, u := range users {
		if u.VehicleID == nil {
			continue
		}
		if vehicle, err := h.vehicles.GetByID(ctx, *u.VehicleID); err == nil {
			u.Vehicle = vehicle
		}
	}

	if users == nil {
		users = []*models.User{}
	}
	c.JSON(http.StatusOK, models.NewPage(users, page, models.DefaultPerPage, total))
}

// StoreUser 管理员创建用户
func (h *Handler) StoreUser(c *gin.Context) {
	var req storeUserRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if req.VehicleID != nil {
		if _, err := h.vehicles.GetByID(ctx, *req.VehicleID); err != nil {
			fieldError(c, "vehicle_id", "The selected vehicle id is invalid.")
			return
		}
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("Failed to hash password", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to create user")
		return
	}

	user := &models.User{
		Name:         req.Name,
		Email:        strings.ToLower(req.Email),
		PasswordHash: hash,
		Role:         req.Role,
		VehicleID:    req.VehicleID,
	}
	if err := h.users.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			h.respondUserConflict(c, err, req.VehicleID)
			return
		}
		h.logger.Error("Failed to create user", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to create user")
		return
	}

	if user.VehicleID != nil {
		if vehicle, err := h.vehicles.GetByID(ctx, *user.VehicleID); err == nil {
			user.Vehicle = vehicle
		}
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"user":    user,
	})
}

// ShowUser 用户详情（含分配车辆与交接历史）
func (h *Handler) ShowUser(c *gin.Context) {
	user, ok := h.findUser(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if user.VehicleID != nil {
		if vehicle, err := h.vehicles.GetByID(ctx, *user.VehicleID); err == nil {
			user.Vehicle = vehicle
		}
	}
	if initiated, err := h.exchanges.AllByDriver(ctx, user.ID, true); err == nil {
		user.InitiatedExchanges = initiated
	}
	if received, err := h.exchanges.AllByDriver(ctx, user.ID, false); err == nil {
		user.ReceivedExchanges = received
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateUser 管理员更新用户，密码仅在提供时重置
func (h *Handler) UpdateUser(c *gin.Context) {
	user, ok := h.findUser(c)
	if !ok {
		return
	}

	var req updateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if req.VehicleID != nil {
		if _, err := h.vehicles.GetByID(ctx, *req.VehicleID); err != nil {
			fieldError(c, "vehicle_id", "The selected vehicle id is invalid.")
			return
		}
	}

	if req.Password != nil && *req.Password != "" {
		if len(*req.Password) < 8 {
			fieldError(c, "password", "The password must be at least 8 characters.")
			return
		}
		if req.PasswordConfirmation == nil || *req.PasswordConfirmation != *req.Password {
			fieldError(c, "password", "The password confirmation does not match.")
			return
		}
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			h.logger.Error("Failed to hash password", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "Failed to update user")
			return
		}
		user.PasswordHash = hash
	}

	user.Name = req.Name
	user.Email = strings.ToLower(req.Email)
	user.Role = req.Role
	user.VehicleID = req.VehicleID
	if err := h.users.Update(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			h.respondUserConflict(c, err, req.VehicleID)
			return
		}
		h.logger.Error("Failed to update user", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to update user")
		return
	}

	if user.VehicleID != nil {
		if vehicle, err := h.vehicles.GetByID(ctx, *user.VehicleID); err == nil {
			user.Vehicle = vehicle
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "User updated successfully",
		"user":    user,
	})
}

// DestroyUser 管理员删除用户；系统中最后一名管理员不可删除
func (h *Handler) DestroyUser(c *gin.Context) {
	user, ok := h.findUser(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if user.IsAdmin() {
		admins, err := h.users.CountByRole(ctx, models.RoleAdmin)
		if err != nil {
			h.logger.Error("Failed to count admins", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "Failed to delete user")
			return
		}
		if admins <= 1 {
			respondError(c, http.StatusUnprocessableEntity, "Cannot delete the last admin user")
			return
		}
	}

	if err := h.users.Delete(ctx, user.ID); err != nil {
		h.logger.Error("Failed to delete user", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to delete user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// AssignVehicle 将车辆分配给用户；一辆车同时只能属于一名用户
func (h *Handler) AssignVehicle(c *gin.Context) {
	user, ok := h.findUser(c)
	if !ok {
		return
	}

	var req assignVehicleRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	vehicle, err := h.vehicles.GetByID(ctx, req.VehicleID)
	if err != nil {
		fieldError(c, "vehicle_id", "The selected vehicle id is invalid.")
		return
	}

	// 先做友好检查，再靠部分唯一索引兜底并发
	if holder, err := h.users.FindByVehicle(ctx, vehicle.ID, user.ID); err == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"message":     "Vehicle is already assigned to another user",
			"assigned_to": holder.Name,
		})
		return
	}

	if err := h.users.AssignVehicle(ctx, user.ID, vehicle.ID); err != nil {
		if repository.IsUniqueViolation(err) {
			respondError(c, http.StatusUnprocessableEntity, "Vehicle is already assigned to another user")
			return
		}
		h.logger.Error("Failed to assign vehicle", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to assign vehicle")
		return
	}

	user.VehicleID = &vehicle.ID
	user.Vehicle = vehicle
	c.JSON(http.StatusOK, gin.H{
		"message": "Vehicle assigned successfully",
		"user":    user,
	})
}

// respondUserConflict 将唯一约束冲突映射到对应字段
func (h *Handler) respondUserConflict(c *gin.Context, err error, vehicleID *int64) {
	if vehicleID != nil && repository.ConstraintName(err) == "uniq_users_vehicle_id" {
		respondError(c, http.StatusUnprocessableEntity, "Vehicle is already assigned to another user")
		return
	}
	fieldError(c, "email", "The email has already been taken.")
}

// findUser 解析路径中的用户 ID 并加载用户，未找到时输出 404
func (h *Handler) findUser(c *gin.Context) (*models.User, bool) {
	id, ok := idParam(c, "id")
	if !ok {
		respondError(c, http.StatusNotFound, "User not found")
		return nil, false
	}
	user, err := h.users.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, http.StatusNotFound, "User not found")
		return nil, false
	}
	return user, true
}
