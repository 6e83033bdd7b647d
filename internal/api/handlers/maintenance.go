package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/fleetdesk/internal/models"
	"github.com/langchou/fleetdesk/internal/storage"
)

// ListMaintenances 某车辆的维保记录（按日期倒序，分页）
func (h *Handler) ListMaintenances(c *gin.Context) {
	vehicle, ok := h.findVehicle(c)
	if !ok {
		return
	}

	page := pageParam(c)
	offset := (page - 1) * models.DefaultPerPage

	ctx := c.Request.Context()
	list, err := h.maintenances.ListByVehicle(ctx, vehicle.ID, models.DefaultPerPage, offset)
	if err != nil {
		h.logger.Error("Failed to list maintenances", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to list maintenance records")
		return
	}
	total, err := h.maintenances.CountByVehicle(ctx, vehicle.ID)
	if err != nil {
		h.logger.Error("Failed to count maintenances", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to list maintenance records")
		return
	}

	if list == nil {
		list = []*models.Maintenance{}
	}
	c.JSON(http.StatusOK, models.NewPage(list, page, models.DefaultPerPage, total))
}

// StoreMaintenance 创建维保记录（multipart 表单，发票可选）
func (h *Handler) StoreMaintenance(c *gin.Context) {
	vehicle, ok := h.findVehicle(c)
	if !ok {
		return
	}

	form, ok := h.bindMaintenanceForm(c)
	if !ok {
		return
	}

	invoicePath, ok := h.saveUpload(c, "invoice", storage.DirInvoices, storage.ValidateDocument)
	if !ok {
		return
	}

	m := &models.Maintenance{
		VehicleID:       vehicle.ID,
		MaintenanceType: form.maintenanceType,
		Description:     form.description,
		Date:            form.date,
		ReminderDate:    form.reminderDate,
		InvoicePath:     invoicePath,
	}
	if err := h.maintenances.Create(c.Request.Context(), m); err != nil {
		h.logger.Error("Failed to create maintenance", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to create maintenance record")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Maintenance record created successfully",
		"maintenance": m,
	})
}

// ShowMaintenance 维保记录详情
func (h *Handler) ShowMaintenance(c *gin.Context) {
	_, m, ok := h.findMaintenance(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"maintenance": m})
}

// UpdateMaintenance 更新维保记录，替换发票时删除旧发票
func (h *Handler) UpdateMaintenance(c *gin.Context) {
	_, m, ok := h.findMaintenance(c)
	if !ok {
		return
	}

	form, ok := h.bindMaintenanceForm(c)
	if !ok {
		return
	}

	newPath, ok := h.saveUpload(c, "invoice", storage.DirInvoices, storage.ValidateDocument)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if newPath != nil {
		if m.InvoicePath != nil {
			if err := h.store.Delete(ctx, *m.InvoicePath); err != nil {
				h.logger.Warn("Failed to delete old invoice file", zap.String("path", *m.InvoicePath), zap.Error(err))
			}
		}
		m.InvoicePath = newPath
	}

	m.MaintenanceType = form.maintenanceType
	m.Description = form.description
	m.Date = form.date
	m.ReminderDate = form.reminderDate
	if err := h.maintenances.Update(ctx, m); err != nil {
		h.logger.Error("Failed to update maintenance", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to update maintenance record")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Maintenance record updated successfully",
		"maintenance": m,
	})
}

// DestroyMaintenance 删除维保记录，连同发票一起清理
func (h *Handler) DestroyMaintenance(c *gin.Context) {
	_, m, ok := h.findMaintenance(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if m.InvoicePath != nil {
		if err := h.store.Delete(ctx, *m.InvoicePath); err != nil {
			h.logger.Warn("Failed to delete invoice file", zap.String("path", *m.InvoicePath), zap.Error(err))
		}
	}
	if err := h.maintenances.Delete(ctx, m.ID); err != nil {
		h.logger.Error("Failed to delete maintenance", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to delete maintenance record")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Maintenance record deleted successfully"})
}

// UpcomingMaintenances 某车辆在 days 天内的维保提醒（默认 7 天）
func (h *Handler) UpcomingMaintenances(c *gin.Context) {
	vehicle, ok := h.findVehicle(c)
	if !ok {
		return
	}

	days, ok := daysParam(c, 7, 365)
	if !ok {
		return
	}

	list, err := h.maintenances.Upcoming(c.Request.Context(), vehicle.ID, days)
	if err != nil {
		h.logger.Error("Failed to list upcoming maintenances", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to list upcoming maintenance records")
		return
	}

	if list == nil {
		list = []*models.Maintenance{}
	}
	c.JSON(http.StatusOK, gin.H{
		"maintenances": list,
		"count":        len(list),
	})
}

type maintenanceForm struct {
	maintenanceType string
	description     string
	date            time.Time
	reminderDate    *time.Time
}

// bindMaintenanceForm 校验维保表单字段
func (h *Handler) bindMaintenanceForm(c *gin.Context) (*maintenanceForm, bool) {
	form := &maintenanceForm{
		maintenanceType: c.PostForm("maintenance_type"),
		description:     c.PostForm("description"),
	}
	if form.maintenanceType == "" {
		fieldError(c, "maintenance_type", "The maintenance type field is required.")
		return nil, false
	}
	if form.description == "" {
		fieldError(c, "description", "The description field is required.")
		return nil, false
	}

	rawDate := c.PostForm("date")
	if rawDate == "" {
		fieldError(c, "date", "The date field is required.")
		return nil, false
	}
	date, err := time.Parse(dateLayout, rawDate)
	if err != nil {
		fieldError(c, "date", "The date is not a valid date.")
		return nil, false
	}
	form.date = date

	// 提醒日期可选，但必须晚于维保日期
	if rawReminder := c.PostForm("reminder_date"); rawReminder != "" {
		reminder, err := time.Parse(dateLayout, rawReminder)
		if err != nil {
			fieldError(c, "reminder_date", "The reminder date is not a valid date.")
			return nil, false
		}
		if !reminder.After(date) {
			fieldError(c, "reminder_date", "The reminder date must be a date after date.")
			return nil, false
		}
		form.reminderDate = &reminder
	}

	return form, true
}

// findMaintenance 加载维保记录并校验其归属于路径中的车辆
func (h *Handler) findMaintenance(c *gin.Context) (*models.Vehicle, *models.Maintenance, bool) {
	vehicle, ok := h.findVehicle(c)
	if !ok {
		return nil, nil, false
	}

	maintID, ok := idParam(c, "maintenanceId")
	if !ok {
		respondError(c, http.StatusNotFound, "Maintenance record not found")
		return nil, nil, false
	}
	m, err := h.maintenances.GetByID(c.Request.Context(), maintID)
	if err != nil || m.VehicleID != vehicle.ID {
		respondError(c, http.StatusNotFound, "Maintenance record not found")
		return nil, nil, false
	}
	return vehicle, m, true
}
