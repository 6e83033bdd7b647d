package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/langchou/fleetdesk/internal/models"
)

// DocumentRepository 车辆证件仓库
type DocumentRepository struct {
	db *DB
}

// NewDocumentRepository 创建证件仓库
func NewDocumentRepository(db *DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = `id, vehicle_id, type, expiration_date, file_path, created_at, updated_at`

func scanDocument(row interface{ Scan(...any) error }) (*models.Document, error) {
	d := &models.Document{}
	err := row.Scan(
		&d.ID,
		&d.VehicleID,
		&d.Type,
		&d.ExpirationDate,
		&d.FilePath,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Create 创建证件
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := `
		INSERT INTO vehicle_documents (vehicle_id, type, expiration_date, file_path, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	now := time.Now()
	err := r.db.Pool.QueryRow(ctx, query,
		doc.VehicleID,
		doc.Type,
		doc.ExpirationDate,
		doc.FilePath,
		now,
		now,
	).Scan(&doc.ID)

	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}

	doc.CreatedAt = now
	doc.UpdatedAt = now
	return nil
}

// GetByID 通过 ID 获取证件
func (r *DocumentRepository) GetByID(ctx context.Context, id int64) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM vehicle_documents WHERE id = $1`
	doc, err := scanDocument(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get document by id: %w", err)
	}
	return doc, nil
}

// ListByVehicle 获取某车辆的证件（分页）
func (r *DocumentRepository) ListByVehicle(ctx context.Context, vehicleID int64, limit, offset int) ([]*models.Document, error) {
	query := `
		SELECT ` + documentColumns + ` FROM vehicle_documents
		WHERE vehicle_id = $1
		ORDER BY id
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Pool.Query(ctx, query, vehicleID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// CountByVehicle 统计某车辆的证件数量
func (r *DocumentRepository) CountByVehicle(ctx context.Context, vehicleID int64) (int64, error) {
	var total int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM vehicle_documents WHERE vehicle_id = $1`, vehicleID).Scan(&total); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return total, nil
}

// AllByVehicle 获取某车辆的全部证件（用于详情内嵌）
func (r *DocumentRepository) AllByVehicle(ctx context.Context, vehicleID int64) ([]*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM vehicle_documents WHERE vehicle_id = $1 ORDER BY id`
	rows, err := r.db.Pool.Query(ctx, query, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// ExpiringSoon 获取某车辆在 days 天内到期的证件
// 只有上界：已过期的证件同样返回
func (r *DocumentRepository) ExpiringSoon(ctx context.Context, vehicleID int64, days int) ([]*models.Document, error) {
	query := `
		SELECT ` + documentColumns + ` FROM vehicle_documents
		WHERE vehicle_id = $1 AND expiration_date <= NOW() + ($2 * INTERVAL '1 day')
		ORDER BY expiration_date
	`
	rows, err := r.db.Pool.Query(ctx, query, vehicleID, days)
	if err != nil {
		return nil, fmt.Errorf("list expiring documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// Update 更新证件（整体替换字段集）
func (r *DocumentRepository) Update(ctx context.Context, doc *models.Document) error {
	query := `
		UPDATE vehicle_documents SET type = $1, expiration_date = $2, file_path = $3, updated_at = $4
		WHERE id = $5
	`
	doc.UpdatedAt = time.Now()
	_, err := r.db.Pool.Exec(ctx, query,
		doc.Type,
		doc.ExpirationDate,
		doc.FilePath,
		doc.UpdatedAt,
		doc.ID,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	return nil
}

// Delete 删除证件
func (r *DocumentRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM vehicle_documents WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}
