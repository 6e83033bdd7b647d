package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// 上传目录常量
const (
	DirDocuments      = "documents"
	DirInvoices       = "invoices"
	DirExchangePhotos = "exchange_photos"
)

// MaxUploadSize 单个附件上限 2MB
const MaxUploadSize = 2 << 20

// 各类附件允许的扩展名
var (
	documentExts = map[string]bool{".pdf": true, ".jpg": true, ".jpeg": true, ".png": true}
	photoExts    = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}
)

// Store 附件存储接口
// 附件以不透明的 key 路径（目录/文件名）标识
type Store interface {
	// Save 写入附件并返回存储路径
	Save(ctx context.Context, dir, filename string, content io.Reader) (string, error)
	// Delete 删除附件；附件不存在不视为错误
	Delete(ctx context.Context, path string) error
}

// ValidateDocument 校验证件/发票附件（pdf/jpg/jpeg/png，<=2MB）
func ValidateDocument(fh *multipart.FileHeader) error {
	return validate(fh, documentExts, "Only PDF, JPG, JPEG, and PNG files are allowed.")
}

// ValidatePhoto 校验交接照片（jpg/jpeg/png，<=2MB）
func ValidatePhoto(fh *multipart.FileHeader) error {
	return validate(fh, photoExts, "Only JPG, JPEG, and PNG files are allowed.")
}

func validate(fh *multipart.FileHeader, allowed map[string]bool, typeMsg string) error {
	if fh.Size > MaxUploadSize {
		return fmt.Errorf("File size too large. Maximum size is 2MB.")
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowed[ext] {
		return fmt.Errorf("Invalid file type. %s", typeMsg)
	}
	return nil
}

// Filename 生成不会冲突的存储文件名，保留原扩展名
func Filename(original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	return uuid.NewString() + ext
}
