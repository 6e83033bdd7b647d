package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/langchou/fleetdesk/internal/models"
)

// VehicleRepository 车辆数据仓库
type VehicleRepository struct {
	db *DB
}

// NewVehicleRepository 创建车辆仓库
func NewVehicleRepository(db *DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

const vehicleColumns = `id, registration_number, model, year, status, archived_at, created_at, updated_at`

func scanVehicle(row interface{ Scan(...any) error }) (*models.Vehicle, error) {
	v := &models.Vehicle{}
	err := row.Scan(
		&v.ID,
		&v.RegistrationNumber,
		&v.Model,
		&v.Year,
		&v.Status,
		&v.ArchivedAt,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Create 创建车辆
func (r *VehicleRepository) Create(ctx context.Context, vehicle *models.Vehicle) error {
	query := `
		INSERT INTO vehicles (registration_number, model, year, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	now := time.Now()
	if vehicle.Status == "" {
		vehicle.Status = models.VehicleActive
	}
	err := r.db.Pool.QueryRow(ctx, query,
		vehicle.RegistrationNumber,
		vehicle.Model,
		vehicle.Year,
		vehicle.Status,
		now,
		now,
	).Scan(&vehicle.ID)

	if err != nil {
		return fmt.Errorf("insert vehicle: %w", err)
	}

	vehicle.CreatedAt = now
	vehicle.UpdatedAt = now
	return nil
}

// GetByID 通过 ID 获取车辆
func (r *VehicleRepository) GetByID(ctx context.Context, id int64) (*models.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1`
	vehicle, err := scanVehicle(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get vehicle by id: %w", err)
	}
	return vehicle, nil
}

// List 获取车辆列表，支持状态过滤与车牌/型号模糊搜索
func (r *VehicleRepository) List(ctx context.Context, status, search string, limit, offset int) ([]*models.Vehicle, error) {
	query := `
		SELECT ` + vehicleColumns + ` FROM vehicles
		WHERE ($1 = '' OR status = $1)
		  AND ($2 = '' OR registration_number ILIKE '%' || $2 || '%' OR model ILIKE '%' || $2 || '%')
		ORDER BY id
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Pool.Query(ctx, query, status, search, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []*models.Vehicle
	for rows.Next() {
		vehicle, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}
		vehicles = append(vehicles, vehicle)
	}

	return vehicles, nil
}

// Count 统计符合过滤条件的车辆数量
func (r *VehicleRepository) Count(ctx context.Context, status, search string) (int64, error) {
	query := `
		SELECT COUNT(*) FROM vehicles
		WHERE ($1 = '' OR status = $1)
		  AND ($2 = '' OR registration_number ILIKE '%' || $2 || '%' OR model ILIKE '%' || $2 || '%')
	`
	var total int64
	if err := r.db.Pool.QueryRow(ctx, query, status, search).Scan(&total); err != nil {
		return 0, fmt.Errorf("count vehicles: %w", err)
	}
	return total, nil
}

// Update 更新车辆基础信息
func (r *VehicleRepository) Update(ctx context.Context, vehicle *models.Vehicle) error {
	query := `
		UPDATE vehicles SET registration_number = $1, model = $2, year = $3, updated_at = $4
		WHERE id = $5
	`
	vehicle.UpdatedAt = time.Now()
	_, err := r.db.Pool.Exec(ctx, query,
		vehicle.RegistrationNumber,
		vehicle.Model,
		vehicle.Year,
		vehicle.UpdatedAt,
		vehicle.ID,
	)
	if err != nil {
		return fmt.Errorf("update vehicle: %w", err)
	}
	return nil
}

// Archive 归档车辆：status=archived 且记录归档时间
// 对已归档的车辆重复调用只会刷新 archived_at
func (r *VehicleRepository) Archive(ctx context.Context, id int64) error {
	query := `UPDATE vehicles SET status = $1, archived_at = $2, updated_at = $2 WHERE id = $3`
	if _, err := r.db.Pool.Exec(ctx, query, models.VehicleArchived, time.Now(), id); err != nil {
		return fmt.Errorf("archive vehicle: %w", err)
	}
	return nil
}

// Restore 恢复车辆：status=active 且清空归档时间
func (r *VehicleRepository) Restore(ctx context.Context, id int64) error {
	query := `UPDATE vehicles SET status = $1, archived_at = NULL, updated_at = $2 WHERE id = $3`
	if _, err := r.db.Pool.Exec(ctx, query, models.VehicleActive, time.Now(), id); err != nil {
		return fmt.Errorf("restore vehicle: %w", err)
	}
	return nil
}
