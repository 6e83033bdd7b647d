package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/fleetdesk/internal/models"
	"github.com/langchou/fleetdesk/internal/policy"
	"github.com/langchou/fleetdesk/internal/state"
	"github.com/langchou/fleetdesk/internal/storage"
)

// ListExchanges 交接单列表：管理员看全部，司机只看自己参与的
func (h *Handler) ListExchanges(c *gin.Context) {
	if !policy.CanViewAnyExchange(currentUser(c)) {
		respondError(c, http.StatusForbidden, "Forbidden")
		return
	}

	status := c.Query("status")
	if status != "" && !state.ValidStatus(status) {
		fieldError(c, "status", "The selected status is invalid.")
		return
	}

	user := currentUser(c)
	var partyID int64
	if !user.IsAdmin() {
		partyID = user.ID
	}

	page := pageParam(c)
	offset := (page - 1) * models.DefaultPerPage

	ctx := c.Request.Context()
	list, err := h.exchanges.List(ctx, status, partyID, models.DefaultPerPage, offset)
	if err != nil {
		h.logger.Error("Failed to list exchanges", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to list exchanges")
		return
	}
	total, err := h.exchanges.Count(ctx, status, partyID)
	if err != nil {
		h.logger.Error("Failed to count exchanges", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to list exchanges")
		return
	}

	if list == nil {
		list = []*models.Exchange{}
	}
	c.JSON(http.StatusOK, models.NewPage(list, page, models.DefaultPerPage, total))
}

// StoreExchange 司机发起交接请求（multipart 表单，交接前照片可选）
func (h *Handler) StoreExchange(c *gin.Context) {
	user := currentUser(c)
	if !policy.CanCreateExchange(user) {
		respondError(c, http.StatusForbidden, "Forbidden")
		return
	}

	toDriverID, ok := formID(c, "to_driver_id")
	if !ok {
		return
	}
	vehicleID, ok := formID(c, "vehicle_id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	target, err := h.users.GetByID(ctx, toDriverID)
	if err != nil {
		fieldError(c, "to_driver_id", "The selected to driver id is invalid.")
		return
	}
	if !target.IsChauffeur() {
		respondError(c, http.StatusUnprocessableEntity, "Target user must be a chauffeur")
		return
	}
	if _, err := h.vehicles.GetByID(ctx, vehicleID); err != nil {
		fieldError(c, "vehicle_id", "The selected vehicle id is invalid.")
		return
	}

	requestDate := time.Now()
	if raw := c.PostForm("request_date"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			fieldError(c, "request_date", "The request date is not a valid date.")
			return
		}
		requestDate = parsed
	}

	beforePhoto, ok := h.saveUpload(c, "before_photo", storage.DirExchangePhotos, storage.ValidatePhoto)
	if !ok {
		return
	}

	exchange := &models.Exchange{
		FromDriverID:    user.ID,
		ToDriverID:      toDriverID,
		VehicleID:       vehicleID,
		RequestDate:     requestDate,
		Status:          state.StatusPending,
		BeforePhotoPath: beforePhoto,
		Note:            optionalForm(c, "note"),
	}
	if err := h.exchanges.Create(ctx, exchange); err != nil {
		h.logger.Error("Failed to create exchange", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to create exchange")
		return
	}

	// 重新加载以内嵌双方司机与车辆
	created, err := h.exchanges.GetByID(ctx, exchange.ID)
	if err != nil {
		h.logger.Error("Failed to reload exchange", zap.Error(err))
		created = exchange
	}

	h.wsHub.BroadcastExchangeUpdate("created", created)
	c.JSON(http.StatusCreated, gin.H{
		"message":  "Vehicle exchange request created successfully",
		"exchange": created,
	})
}

// ShowExchange 交接单详情
func (h *Handler) ShowExchange(c *gin.Context) {
	exchange, ok := h.findExchange(c)
	if !ok {
		return
	}

	user := currentUser(c)
	if !policy.CanViewExchange(user, exchange) {
		respondError(c, http.StatusForbidden, "Forbidden")
		return
	}

	c.JSON(http.StatusOK, gin.H{"exchange": exchange})
}

// UpdateExchange 发起人在待审批期间补充备注与交接后照片
func (h *Handler) UpdateExchange(c *gin.Context) {
	exchange, ok := h.findExchange(c)
	if !ok {
		return
	}

	user := currentUser(c)
	if !policy.CanUpdateExchange(user, exchange) {
		respondError(c, http.StatusForbidden, "Cannot update this exchange")
		return
	}

	afterPhoto, ok := h.saveUpload(c, "after_photo", storage.DirExchangePhotos, storage.ValidatePhoto)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if afterPhoto != nil {
		if exchange.AfterPhotoPath != nil {
			if err := h.store.Delete(ctx, *exchange.AfterPhotoPath); err != nil {
				h.logger.Warn("Failed to delete old exchange photo", zap.String("path", *exchange.AfterPhotoPath), zap.Error(err))
			}
		}
		exchange.AfterPhotoPath = afterPhoto
	}
	// 备注整体覆盖：未携带 note 字段时清空
	exchange.Note = optionalForm(c, "note")

	if err := h.exchanges.Update(ctx, exchange); err != nil {
		h.logger.Error("Failed to update exchange", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to update exchange")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Exchange updated successfully",
		"exchange": exchange,
	})
}

// DestroyExchange 删除交接单：管理员随时可删，发起人仅限待审批期间
func (h *Handler) DestroyExchange(c *gin.Context) {
	exchange, ok := h.findExchange(c)
	if !ok {
		return
	}

	user := currentUser(c)
	if !policy.CanDeleteExchange(user, exchange) {
		respondError(c, http.StatusForbidden, "Cannot delete this exchange")
		return
	}

	ctx := c.Request.Context()
	for _, path := range []*string{exchange.BeforePhotoPath, exchange.AfterPhotoPath} {
		if path == nil {
			continue
		}
		if err := h.store.Delete(ctx, *path); err != nil {
			h.logger.Warn("Failed to delete exchange photo", zap.String("path", *path), zap.Error(err))
		}
	}
	if err := h.exchanges.Delete(ctx, exchange.ID); err != nil {
		h.logger.Error("Failed to delete exchange", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to delete exchange")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Exchange deleted successfully"})
}

// ApproveExchange 管理员通过交接（仅限待审批状态）
func (h *Handler) ApproveExchange(c *gin.Context) {
	h.decideExchange(c, state.EventApprove, state.StatusApproved, "approved", "Exchange approved successfully", policy.CanApproveExchange)
}

// RejectExchange 管理员驳回交接（仅限待审批状态）
func (h *Handler) RejectExchange(c *gin.Context) {
	h.decideExchange(c, state.EventReject, state.StatusRejected, "rejected", "Exchange rejected successfully", policy.CanRejectExchange)
}

// decideExchange 审批通用流程：策略 + 状态机校验 + 条件更新，保证决策只发生一次
func (h *Handler) decideExchange(c *gin.Context, event, target, action, message string, allowed func(*models.User, *models.Exchange) bool) {
	exchange, ok := h.findExchange(c)
	if !ok {
		return
	}

	user := currentUser(c)
	if !allowed(user, exchange) {
		// 管理员被拒说明状态不对，非管理员一律 403
		if user.IsAdmin() {
			respondError(c, http.StatusUnprocessableEntity, "Exchange is not pending")
		} else {
			respondError(c, http.StatusForbidden, "Forbidden")
		}
		return
	}

	machine := state.NewExchangeMachine(exchange.Status)
	if !machine.Can(event) {
		respondError(c, http.StatusUnprocessableEntity, "Exchange is not pending")
		return
	}

	ctx := c.Request.Context()
	decided, err := h.exchanges.Decide(ctx, exchange.ID, target)
	if err != nil {
		h.logger.Error("Failed to decide exchange", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to update exchange")
		return
	}
	// 并发审批时只有第一个请求生效
	if !decided {
		respondError(c, http.StatusUnprocessableEntity, "Exchange is not pending")
		return
	}

	updated, err := h.exchanges.GetByID(ctx, exchange.ID)
	if err != nil {
		h.logger.Error("Failed to reload exchange", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to update exchange")
		return
	}

	h.wsHub.BroadcastExchangeUpdate(action, updated)
	c.JSON(http.StatusOK, gin.H{
		"message":  message,
		"exchange": updated,
	})
}

// MyExchanges 司机查看自己参与的交接单（分页）
func (h *Handler) MyExchanges(c *gin.Context) {
	user := currentUser(c)
	if !user.IsChauffeur() {
		respondError(c, http.StatusForbidden, "Forbidden")
		return
	}

	page := pageParam(c)
	offset := (page - 1) * models.DefaultPerPage

	ctx := c.Request.Context()
	list, err := h.exchanges.List(ctx, "", user.ID, models.DefaultPerPage, offset)
	if err != nil {
		h.logger.Error("Failed to list exchanges", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to list exchanges")
		return
	}
	total, err := h.exchanges.Count(ctx, "", user.ID)
	if err != nil {
		h.logger.Error("Failed to count exchanges", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to list exchanges")
		return
	}

	if list == nil {
		list = []*models.Exchange{}
	}
	c.JSON(http.StatusOK, models.NewPage(list, page, models.DefaultPerPage, total))
}

// findExchange 加载交接单，未找到时输出 404
func (h *Handler) findExchange(c *gin.Context) (*models.Exchange, bool) {
	id, ok := idParam(c, "id")
	if !ok {
		respondError(c, http.StatusNotFound, "Exchange not found")
		return nil, false
	}
	exchange, err := h.exchanges.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, http.StatusNotFound, "Exchange not found")
		return nil, false
	}
	return exchange, true
}

// formID 解析必填的数字表单字段
func formID(c *gin.Context, field string) (int64, bool) {
	raw := c.PostForm(field)
	if raw == "" {
		fieldError(c, field, "The "+formFieldName(field)+" field is required.")
		return 0, false
	}
	id, err := parseID(raw)
	if err != nil {
		fieldError(c, field, "The "+formFieldName(field)+" must be an integer.")
		return 0, false
	}
	return id, true
}

func parseID(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}

func formFieldName(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

// optionalForm 读取可选表单字段，空值返回 nil
func optionalForm(c *gin.Context, field string) *string {
	if v, ok := c.GetPostForm(field); ok && v != "" {
		return &v
	}
	return nil
}
