package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/fleetdesk/internal/models"
	"github.com/langchou/fleetdesk/internal/storage"
)

// dateLayout 表单日期字段格式
const dateLayout = "2006-01-02"

// ListDocuments 某车辆的证件列表（分页）
func (h *Handler) ListDocuments(c *gin.Context) {
	vehicle, ok := h.findVehicle(c)
	if !ok {
		return
	}

	page := pageParam(c)
	offset := (page - 1) * models.DefaultPerPage

	ctx := c.Request.Context()
	docs, err := h.documents.ListByVehicle(ctx, vehicle.ID, models.DefaultPerPage, offset)
	if err != nil {
		h.logger.Error("Failed to list documents", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to list documents")
		return
	}
	total, err := h.documents.CountByVehicle(ctx, vehicle.ID)
	if err != nil {
		h.logger.Error("Failed to count documents", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to list documents")
		return
	}

	if docs == nil {
		docs = []*models.Document{}
	}
	c.JSON(http.StatusOK, models.NewPage(docs, page, models.DefaultPerPage, total))
}

// StoreDocument 创建证件（multipart 表单，附件可选）
func (h *Handler) StoreDocument(c *gin.Context) {
	vehicle, ok := h.findVehicle(c)
	if !ok {
		return
	}

	docType, expiration, ok := h.bindDocumentForm(c)
	if !ok {
		return
	}

	filePath, ok := h.saveUpload(c, "file", storage.DirDocuments, storage.ValidateDocument)
	if !ok {
		return
	}

	doc := &models.Document{
		VehicleID:      vehicle.ID,
		Type:           docType,
		ExpirationDate: expiration,
		FilePath:       filePath,
	}
	if err := h.documents.Create(c.Request.Context(), doc); err != nil {
		h.logger.Error("Failed to create document", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to create document")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Document created successfully",
		"document": doc,
	})
}

// ShowDocument 证件详情
func (h *Handler) ShowDocument(c *gin.Context) {
	_, doc, ok := h.findDocument(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"document": doc})
}

// UpdateDocument 更新证件，替换附件时删除旧附件
func (h *Handler) UpdateDocument(c *gin.Context) {
	_, doc, ok := h.findDocument(c)
	if !ok {
		return
	}

	docType, expiration, ok := h.bindDocumentForm(c)
	if !ok {
		return
	}

	newPath, ok := h.saveUpload(c, "file", storage.DirDocuments, storage.ValidateDocument)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if newPath != nil {
		// 先删旧附件：删除失败不阻断更新
		if doc.FilePath != nil {
			if err := h.store.Delete(ctx, *doc.FilePath); err != nil {
				h.logger.Warn("Failed to delete old document file", zap.String("path", *doc.FilePath), zap.Error(err))
			}
		}
		doc.FilePath = newPath
	}

	doc.Type = docType
	doc.ExpirationDate = expiration
	if err := h.documents.Update(ctx, doc); err != nil {
		h.logger.Error("Failed to update document", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to update document")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Document updated successfully",
		"document": doc,
	})
}

// DestroyDocument 删除证件，连同附件一起清理
func (h *Handler) DestroyDocument(c *gin.Context) {
	_, doc, ok := h.findDocument(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	// 先清附件再删记录：附件删除失败只记录日志
	if doc.FilePath != nil {
		if err := h.store.Delete(ctx, *doc.FilePath); err != nil {
			h.logger.Warn("Failed to delete document file", zap.String("path", *doc.FilePath), zap.Error(err))
		}
	}
	if err := h.documents.Delete(ctx, doc.ID); err != nil {
		h.logger.Error("Failed to delete document", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to delete document")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Document deleted successfully"})
}

// ExpiringDocuments 某车辆在 days 天内到期的证件（默认 30 天）
func (h *Handler) ExpiringDocuments(c *gin.Context) {
	vehicle, ok := h.findVehicle(c)
	if !ok {
		return
	}

	days, ok := daysParam(c, 30, 365)
	if !ok {
		return
	}

	docs, err := h.documents.ExpiringSoon(c.Request.Context(), vehicle.ID, days)
	if err != nil {
		h.logger.Error("Failed to list expiring documents", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to list expiring documents")
		return
	}

	if docs == nil {
		docs = []*models.Document{}
	}
	c.JSON(http.StatusOK, gin.H{
		"documents": docs,
		"count":     len(docs),
	})
}

// bindDocumentForm 校验证件表单字段
func (h *Handler) bindDocumentForm(c *gin.Context) (string, time.Time, bool) {
	docType := c.PostForm("type")
	if docType == "" {
		fieldError(c, "type", "The type field is required.")
		return "", time.Time{}, false
	}
	if !models.ValidDocumentType(docType) {
		fieldError(c, "type", "The selected type is invalid.")
		return "", time.Time{}, false
	}

	raw := c.PostForm("expiration_date")
	if raw == "" {
		fieldError(c, "expiration_date", "The expiration date field is required.")
		return "", time.Time{}, false
	}
	expiration, err := time.Parse(dateLayout, raw)
	if err != nil {
		fieldError(c, "expiration_date", "The expiration date is not a valid date.")
		return "", time.Time{}, false
	}
	// 到期日必须晚于今天
	today := time.Now().Truncate(24 * time.Hour)
	if !expiration.After(today) {
		fieldError(c, "expiration_date", "The expiration date must be a date after today.")
		return "", time.Time{}, false
	}

	return docType, expiration, true
}

// findDocument 加载证件并校验其归属于路径中的车辆
func (h *Handler) findDocument(c *gin.Context) (*models.Vehicle, *models.Document, bool) {
	vehicle, ok := h.findVehicle(c)
	if !ok {
		return nil, nil, false
	}

	docID, ok := idParam(c, "documentId")
	if !ok {
		respondError(c, http.StatusNotFound, "Document not found")
		return nil, nil, false
	}
	doc, err := h.documents.GetByID(c.Request.Context(), docID)
	if err != nil || doc.VehicleID != vehicle.ID {
		respondError(c, http.StatusNotFound, "Document not found")
		return nil, nil, false
	}
	return vehicle, doc, true
}

// saveUpload 读取并保存可选附件；无附件时返回 nil
func (h *Handler) saveUpload(c *gin.Context, field, dir string, validate func(*multipart.FileHeader) error) (*string, bool) {
	fh, err := c.FormFile(field)
	if err != nil {
		// 附件可选：未携带附件或非 multipart 请求都视为未上传
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, true
		}
		fieldError(c, field, "The uploaded file is invalid.")
		return nil, false
	}

	if err := validate(fh); err != nil {
		fieldError(c, field, err.Error())
		return nil, false
	}

	src, err := fh.Open()
	if err != nil {
		h.logger.Error("Failed to open uploaded file", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to store uploaded file")
		return nil, false
	}
	defer src.Close()

	path, err := h.store.Save(c.Request.Context(), dir, storage.Filename(fh.Filename), src)
	if err != nil {
		h.logger.Error("Failed to store uploaded file", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to store uploaded file")
		return nil, false
	}
	return &path, true
}

// daysParam 解析 days 查询参数并限制取值范围
func daysParam(c *gin.Context, def, max int) (int, bool) {
	raw := c.Query("days")
	if raw == "" {
		return def, true
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 1 || days > max {
		fieldError(c, "days", "The days must be between 1 and "+strconv.Itoa(max)+".")
		return 0, false
	}
	return days, true
}
