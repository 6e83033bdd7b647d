package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/langchou/fleetdesk/internal/models"
)

// MaintenanceRepository 维保记录仓库
type MaintenanceRepository struct {
	db *DB
}

// NewMaintenanceRepository 创建维保仓库
func NewMaintenanceRepository(db *DB) *MaintenanceRepository {
	return &MaintenanceRepository{db: db}
}

const maintenanceColumns = `id, vehicle_id, maintenance_type, description, date, reminder_date, invoice_path, created_at, updated_at`

func scanMaintenance(row interface{ Scan(...any) error }) (*models.Maintenance, error) {
	m := &models.Maintenance{}
	err := row.Scan(
		&m.ID,
		&m.VehicleID,
		&m.MaintenanceType,
		&m.Description,
		&m.Date,
		&m.ReminderDate,
		&m.InvoicePath,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Create 创建维保记录
func (r *MaintenanceRepository) Create(ctx context.Context, m *models.Maintenance) error {
	query := `
		INSERT INTO maintenances (vehicle_id, maintenance_type, description, date, reminder_date, invoice_path, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	now := time.Now()
	err := r.db.Pool.QueryRow(ctx, query,
		m.VehicleID,
		m.MaintenanceType,
		m.Description,
		m.Date,
		m.ReminderDate,
		m.InvoicePath,
		now,
		now,
	).Scan(&m.ID)

	if err != nil {
		return fmt.Errorf("insert maintenance: %w", err)
	}

	m.CreatedAt = now
	m.UpdatedAt = now
	return nil
}

// GetByID 通过 ID 获取维保记录
func (r *MaintenanceRepository) GetByID(ctx context.Context, id int64) (*models.Maintenance, error) {
	query := `SELECT ` + maintenanceColumns + ` FROM maintenances WHERE id = $1`
	m, err := scanMaintenance(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get maintenance by id: %w", err)
	}
	return m, nil
}

// ListByVehicle 获取某车辆的维保记录（按日期倒序，分页）
func (r *MaintenanceRepository) ListByVehicle(ctx context.Context, vehicleID int64, limit, offset int) ([]*models.Maintenance, error) {
	query := `
		SELECT ` + maintenanceColumns + ` FROM maintenances
		WHERE vehicle_id = $1
		ORDER BY date DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Pool.Query(ctx, query, vehicleID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list maintenances: %w", err)
	}
	defer rows.Close()

	var list []*models.Maintenance
	for rows.Next() {
		m, err := scanMaintenance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan maintenance: %w", err)
		}
		list = append(list, m)
	}

	return list, nil
}

// CountByVehicle 统计某车辆的维保记录数量
func (r *MaintenanceRepository) CountByVehicle(ctx context.Context, vehicleID int64) (int64, error) {
	var total int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM maintenances WHERE vehicle_id = $1`, vehicleID).Scan(&total); err != nil {
		return 0, fmt.Errorf("count maintenances: %w", err)
	}
	return total, nil
}

// AllByVehicle 获取某车辆的全部维保记录（用于详情内嵌）
func (r *MaintenanceRepository) AllByVehicle(ctx context.Context, vehicleID int64) ([]*models.Maintenance, error) {
	query := `SELECT ` + maintenanceColumns + ` FROM maintenances WHERE vehicle_id = $1 ORDER BY date DESC`
	rows, err := r.db.Pool.Query(ctx, query, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("list maintenances: %w", err)
	}
	defer rows.Close()

	var list []*models.Maintenance
	for rows.Next() {
		m, err := scanMaintenance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan maintenance: %w", err)
		}
		list = append(list, m)
	}

	return list, nil
}

// Upcoming 获取某车辆在 [now, now+days] 窗口内的维保提醒
func (r *MaintenanceRepository) Upcoming(ctx context.Context, vehicleID int64, days int) ([]*models.Maintenance, error) {
	query := `
		SELECT ` + maintenanceColumns + ` FROM maintenances
		WHERE vehicle_id = $1
		  AND reminder_date IS NOT NULL
		  AND reminder_date >= NOW()
		  AND reminder_date <= NOW() + ($2 * INTERVAL '1 day')
		ORDER BY reminder_date
	`
	rows, err := r.db.Pool.Query(ctx, query, vehicleID, days)
	if err != nil {
		return nil, fmt.Errorf("list upcoming maintenances: %w", err)
	}
	defer rows.Close()

	var list []*models.Maintenance
	for rows.Next() {
		m, err := scanMaintenance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan maintenance: %w", err)
		}
		list = append(list, m)
	}

	return list, nil
}

// Update 更新维保记录（整体替换字段集）
func (r *MaintenanceRepository) Update(ctx context.Context, m *models.Maintenance) error {
	query := `
		UPDATE maintenances SET maintenance_type = $1, description = $2, date = $3, reminder_date = $4, invoice_path = $5, updated_at = $6
		WHERE id = $7
	`
	m.UpdatedAt = time.Now()
	_, err := r.db.Pool.Exec(ctx, query,
		m.MaintenanceType,
		m.Description,
		m.Date,
		m.ReminderDate,
		m.InvoicePath,
		m.UpdatedAt,
		m.ID,
	)
	if err != nil {
		return fmt.Errorf("update maintenance: %w", err)
	}
	return nil
}

// Delete 删除维保记录
func (r *MaintenanceRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM maintenances WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete maintenance: %w", err)
	}
	return nil
}
