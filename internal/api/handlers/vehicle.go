package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/fleetdesk/internal/models"
	"github.com/langchou/fleetdesk/internal/policy"
	"github.com/langchou/fleetdesk/internal/repository"
)

type vehicleRequest struct {
	RegistrationNumber string `json:"registration_number" binding:"required,max=255"`
	Model              string `json:"model" binding:"required,max=255"`
	Year               int    `json:"year" binding:"required,gte=1900"`
}

// ListVehicles 车辆列表，支持 status 过滤与车牌/型号搜索
func (h *Handler) ListVehicles(c *gin.Context) {
	if !policy.CanViewAnyVehicle(currentUser(c)) {
		respondError(c, http.StatusForbidden, "Forbidden")
		return
	}

	status := c.Query("status")
	if status != "" && status != models.VehicleActive && status != models.VehicleArchived {
		fieldError(c, "status", "The selected status is invalid.")
		return
	}
	search := c.Query("search")
	page := pageParam(c)
	offset := (page - 1) * models.DefaultPerPage

	ctx := c.Request.Context()
	vehicles, err := h.vehicles.List(ctx, status, search, models.DefaultPerPage, offset)
	if err != nil {
		h.logger.Error("Failed to list vehicles", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to list vehicles")
		return
	}
	total, err := h.vehicles.Count(ctx, status, search)
	if err != nil {
		h.logger.Error("Failed to count vehicles", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to list vehicles")
		return
	}

	// 列表同样内嵌分配司机、证件与维保记录
	for _, v := range vehicles {
		h.embedVehicleRelations(ctx, v, false)
	}

	if vehicles == nil {
		vehicles = []*models.Vehicle{}
	}
	c.JSON(http.StatusOK, models.NewPage(vehicles, page, models.DefaultPerPage, total))
}

// StoreVehicle 创建车辆（仅管理员）
func (h *Handler) StoreVehicle(c *gin.Context) {
	user := currentUser(c)
	if !policy.CanCreateVehicle(user) {
		respondError(c, http.StatusForbidden, "Forbidden")
		return
	}

	var req vehicleRequest
	if !bindJSON(c, &req) {
		return
	}
	if !validYear(c, req.Year) {
		return
	}

	vehicle := &models.Vehicle{
		RegistrationNumber: req.RegistrationNumber,
		Model:              req.Model,
		Year:               req.Year,
		Status:             models.VehicleActive,
	}
	ctx := c.Request.Context()
	if err := h.vehicles.Create(ctx, vehicle); err != nil {
		if repository.IsUniqueViolation(err) {
			fieldError(c, "registration_number", "The registration number has already been taken.")
			return
		}
		h.logger.Error("Failed to create vehicle", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to create vehicle")
		return
	}

	h.embedVehicleRelations(ctx, vehicle, false)
	c.JSON(http.StatusCreated, gin.H{
		"message": "Vehicle created successfully",
		"vehicle": vehicle,
	})
}

// ShowVehicle 车辆详情（含分配司机、证件、维保与交接记录）
func (h *Handler) ShowVehicle(c *gin.Context) {
	vehicle, ok := h.findVehicle(c)
	if !ok {
		return
	}

	user := currentUser(c)
	if !policy.CanViewVehicle(user, vehicle) {
		respondError(c, http.StatusForbidden, "Forbidden")
		return
	}

	h.embedVehicleRelations(c.Request.Context(), vehicle, true)
	c.JSON(http.StatusOK, gin.H{"vehicle": vehicle})
}

// UpdateVehicle 更新车辆（仅管理员）
func (h *Handler) UpdateVehicle(c *gin.Context) {
	vehicle, ok := h.findVehicle(c)
	if !ok {
		return
	}

	user := currentUser(c)
	if !policy.CanUpdateVehicle(user, vehicle) {
		respondError(c, http.StatusForbidden, "Forbidden")
		return
	}

	var req vehicleRequest
	if !bindJSON(c, &req) {
		return
	}
	if !validYear(c, req.Year) {
		return
	}

	vehicle.RegistrationNumber = req.RegistrationNumber
	vehicle.Model = req.Model
	vehicle.Year = req.Year
	ctx := c.Request.Context()
	if err := h.vehicles.Update(ctx, vehicle); err != nil {
		if repository.IsUniqueViolation(err) {
			fieldError(c, "registration_number", "The registration number has already been taken.")
			return
		}
		h.logger.Error("Failed to update vehicle", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to update vehicle")
		return
	}

	h.embedVehicleRelations(ctx, vehicle, false)
	c.JSON(http.StatusOK, gin.H{
		"message": "Vehicle updated successfully",
		"vehicle": vehicle,
	})
}

// DestroyVehicle 删除车辆：实际为归档，保留历史记录
func (h *Handler) DestroyVehicle(c *gin.Context) {
	vehicle, ok := h.findVehicle(c)
	if !ok {
		return
	}

	user := currentUser(c)
	if !policy.CanDeleteVehicle(user, vehicle) {
		respondError(c, http.StatusForbidden, "Forbidden")
		return
	}

	ctx := c.Request.Context()
	archived, ok := h.archiveVehicle(c, ctx, vehicle)
	if !ok {
		return
	}

	h.wsHub.BroadcastVehicleUpdate("archived", archived)
	c.JSON(http.StatusOK, gin.H{"message": "Vehicle archived successfully"})
}

// ArchiveVehicle 归档车辆（仅管理员）
func (h *Handler) ArchiveVehicle(c *gin.Context) {
	vehicle, ok := h.findVehicle(c)
	if !ok {
		return
	}

	user := currentUser(c)
	if !policy.CanArchiveVehicle(user, vehicle) {
		respondError(c, http.StatusForbidden, "Forbidden")
		return
	}

	ctx := c.Request.Context()
	archived, ok := h.archiveVehicle(c, ctx, vehicle)
	if !ok {
		return
	}

	h.wsHub.BroadcastVehicleUpdate("archived", archived)
	c.JSON(http.StatusOK, gin.H{
		"message": "Vehicle archived successfully",
		"vehicle": archived,
	})
}

// RestoreVehicle 恢复已归档车辆（仅管理员）
func (h *Handler) RestoreVehicle(c *gin.Context) {
	vehicle, ok := h.findVehicle(c)
	if !ok {
		return
	}

	user := currentUser(c)
	if !policy.CanRestoreVehicle(user, vehicle) {
		respondError(c, http.StatusForbidden, "Forbidden")
		return
	}

	ctx := c.Request.Context()
	if err := h.vehicles.Restore(ctx, vehicle.ID); err != nil {
		h.logger.Error("Failed to restore vehicle", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to restore vehicle")
		return
	}

	restored, err := h.vehicles.GetByID(ctx, vehicle.ID)
	if err != nil {
		h.logger.Error("Failed to reload vehicle", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to restore vehicle")
		return
	}

	h.wsHub.BroadcastVehicleUpdate("restored", restored)
	c.JSON(http.StatusOK, gin.H{
		"message": "Vehicle restored successfully",
		"vehicle": restored,
	})
}

// MyVehicle 司机查看分配给自己的车辆
func (h *Handler) MyVehicle(c *gin.Context) {
	user := currentUser(c)
	if !user.IsChauffeur() {
		respondError(c, http.StatusForbidden, "Forbidden")
		return
	}
	if user.VehicleID == nil {
		respondError(c, http.StatusNotFound, "No vehicle assigned to you")
		return
	}

	ctx := c.Request.Context()
	vehicle, err := h.vehicles.GetByID(ctx, *user.VehicleID)
	if err != nil {
		respondError(c, http.StatusNotFound, "No vehicle assigned to you")
		return
	}

	// 司机视角只内嵌证件与维保
	if docs, err := h.documents.AllByVehicle(ctx, vehicle.ID); err == nil {
		vehicle.Documents = docs
	}
	if list, err := h.maintenances.AllByVehicle(ctx, vehicle.ID); err == nil {
		vehicle.Maintenances = list
	}
	c.JSON(http.StatusOK, gin.H{"vehicle": vehicle})
}

// archiveVehicle 归档并重新加载车辆
func (h *Handler) archiveVehicle(c *gin.Context, ctx context.Context, vehicle *models.Vehicle) (*models.Vehicle, bool) {
	if err := h.vehicles.Archive(ctx, vehicle.ID); err != nil {
		h.logger.Error("Failed to archive vehicle", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to archive vehicle")
		return nil, false
	}

	archived, err := h.vehicles.GetByID(ctx, vehicle.ID)
	if err != nil {
		h.logger.Error("Failed to reload vehicle", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to archive vehicle")
		return nil, false
	}
	return archived, true
}

// findVehicle 解析路径中的车辆 ID 并加载车辆，未找到时输出 404
func (h *Handler) findVehicle(c *gin.Context) (*models.Vehicle, bool) {
	id, ok := idParam(c, "id")
	if !ok {
		respondError(c, http.StatusNotFound, "Vehicle not found")
		return nil, false
	}
	vehicle, err := h.vehicles.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, http.StatusNotFound, "Vehicle not found")
		return nil, false
	}
	return vehicle, true
}

// embedVehicleRelations 内嵌车辆的关联数据，加载失败只记录日志
func (h *Handler) embedVehicleRelations(ctx context.Context, vehicle *models.Vehicle, withExchanges bool) {
	if assigned, err := h.users.FindByVehicle(ctx, vehicle.ID, 0); err == nil {
		vehicle.AssignedUser = assigned
	}
	if docs, err := h.documents.AllByVehicle(ctx, vehicle.ID); err == nil {
		vehicle.Documents = docs
	} else {
		h.logger.Error("Failed to load vehicle documents", zap.Error(err))
	}
	if list, err := h.maintenances.AllByVehicle(ctx, vehicle.ID); err == nil {
		vehicle.Maintenances = list
	} else {
		h.logger.Error("Failed to load vehicle maintenances", zap.Error(err))
	}
	if withExchanges {
		if exchanges, err := h.exchanges.AllByVehicle(ctx, vehicle.ID); err == nil {
			vehicle.Exchanges = exchanges
		} else {
			h.logger.Error("Failed to load vehicle exchanges", zap.Error(err))
		}
	}
}

// validYear 年份不能超过下一个自然年
func validYear(c *gin.Context, year int) bool {
	max := time.Now().Year() + 1
	if year > max {
		fieldError(c, "year", fmt.Sprintf("The year may not be greater than %d.", max))
		return false
	}
	return true
}
