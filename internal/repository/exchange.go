package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/langchou/fleetdesk/internal/models"
	"github.com/langchou/fleetdesk/internal/state"
)

// ExchangeRepository 车辆交接单仓库
type ExchangeRepository struct {
	db *DB
}

// NewExchangeRepository 创建交接单仓库
func NewExchangeRepository(db *DB) *ExchangeRepository {
	return &ExchangeRepository{db: db}
}

// 交接单查询固定联结发起人、接收人与车辆
const exchangeSelect = `
	SELECT e.id, e.from_driver_id, e.to_driver_id, e.vehicle_id, e.request_date, e.status,
	       e.before_photo_path, e.after_photo_path, e.note, e.created_at, e.updated_at,
	       f.id, f.name, f.email, f.role, f.vehicle_id,
	       t.id, t.name, t.email, t.role, t.vehicle_id,
	       v.id, v.registration_number, v.model, v.year, v.status, v.archived_at
	FROM vehicle_exchanges e
	JOIN users f ON f.id = e.from_driver_id
	JOIN users t ON t.id = e.to_driver_id
	JOIN vehicles v ON v.id = e.vehicle_id
`

func scanExchange(row interface{ Scan(...any) error }) (*models.Exchange, error) {
	e := &models.Exchange{
		FromDriver: &models.User{},
		ToDriver:   &models.User{},
		Vehicle:    &models.Vehicle{},
	}
	err := row.Scan(
		&e.ID,
		&e.FromDriverID,
		&e.ToDriverID,
		&e.VehicleID,
		&e.RequestDate,
		&e.Status,
		&e.BeforePhotoPath,
		&e.AfterPhotoPath,
		&e.Note,
		&e.CreatedAt,
		&e.UpdatedAt,
		&e.FromDriver.ID,
		&e.FromDriver.Name,
		&e.FromDriver.Email,
		&e.FromDriver.Role,
		&e.FromDriver.VehicleID,
		&e.ToDriver.ID,
		&e.ToDriver.Name,
		&e.ToDriver.Email,
		&e.ToDriver.Role,
		&e.ToDriver.VehicleID,
		&e.Vehicle.ID,
		&e.Vehicle.RegistrationNumber,
		&e.Vehicle.Model,
		&e.Vehicle.Year,
		&e.Vehicle.Status,
		&e.Vehicle.ArchivedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Create 创建交接单
func (r *ExchangeRepository) Create(ctx context.Context, e *models.Exchange) error {
	query := `
		INSERT INTO vehicle_exchanges (from_driver_id, to_driver_id, vehicle_id, request_date, status, before_photo_path, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	now := time.Now()
	if e.Status == "" {
		e.Status = state.StatusPending
	}
	err := r.db.Pool.QueryRow(ctx, query,
		e.FromDriverID,
		e.ToDriverID,
		e.VehicleID,
		e.RequestDate,
		e.Status,
		e.BeforePhotoPath,
		e.Note,
		now,
		now,
	).Scan(&e.ID)

	if err != nil {
		return fmt.Errorf("insert exchange: %w", err)
	}

	e.CreatedAt = now
	e.UpdatedAt = now
	return nil
}

// GetByID 通过 ID 获取交接单（含关联数据）
func (r *ExchangeRepository) GetByID(ctx context.Context, id int64) (*models.Exchange, error) {
	query := exchangeSelect + ` WHERE e.id = $1`
	e, err := scanExchange(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get exchange by id: %w", err)
	}
	return e, nil
}

// List 获取交接单列表
// partyID 非零时只返回该用户作为发起人或接收人的交接单（司机视角）
func (r *ExchangeRepository) List(ctx context.Context, status string, partyID int64, limit, offset int) ([]*models.Exchange, error) {
	query := exchangeSelect + `
		WHERE ($1 = '' OR e.status = $1)
		  AND ($2 = 0 OR e.from_driver_id = $2 OR e.to_driver_id = $2)
		ORDER BY e.request_date DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Pool.Query(ctx, query, status, partyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list exchanges: %w", err)
	}
	defer rows.Close()

	var list []*models.Exchange
	for rows.Next() {
		e, err := scanExchange(rows)
		if err != nil {
			return nil, fmt.Errorf("scan exchange: %w", err)
		}
		list = append(list, e)
	}

	return list, nil
}

// Count 统计符合过滤条件的交接单数量
func (r *ExchangeRepository) Count(ctx context.Context, status string, partyID int64) (int64, error) {
	query := `
		SELECT COUNT(*) FROM vehicle_exchanges e
		WHERE ($1 = '' OR e.status = $1)
		  AND ($2 = 0 OR e.from_driver_id = $2 OR e.to_driver_id = $2)
	`
	var total int64
	if err := r.db.Pool.QueryRow(ctx, query, status, partyID).Scan(&total); err != nil {
		return 0, fmt.Errorf("count exchanges: %w", err)
	}
	return total, nil
}

// AllByVehicle 获取某车辆的全部交接单（用于车辆详情内嵌）
func (r *ExchangeRepository) AllByVehicle(ctx context.Context, vehicleID int64) ([]*models.Exchange, error) {
	query := exchangeSelect + ` WHERE e.vehicle_id = $1 ORDER BY e.request_date DESC`
	rows, err := r.db.Pool.Query(ctx, query, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("list exchanges by vehicle: %w", err)
	}
	defer rows.Close()

	var list []*models.Exchange
	for rows.Next() {
		e, err := scanExchange(rows)
		if err != nil {
			return nil, fmt.Errorf("scan exchange: %w", err)
		}
		list = append(list, e)
	}

	return list, nil
}

// AllByDriver 获取某用户发起或接收的全部交接单（用于用户详情内嵌）
func (r *ExchangeRepository) AllByDriver(ctx context.Context, driverID int64, initiated bool) ([]*models.Exchange, error) {
	column := "e.to_driver_id"
	if initiated {
		column = "e.from_driver_id"
	}
	query := exchangeSelect + ` WHERE ` + column + ` = $1 ORDER BY e.request_date DESC`
	rows, err := r.db.Pool.Query(ctx, query, driverID)
	if err != nil {
		return nil, fmt.Errorf("list exchanges by driver: %w", err)
	}
	defer rows.Close()

	var list []*models.Exchange
	for rows.Next() {
		e, err := scanExchange(rows)
		if err != nil {
			return nil, fmt.Errorf("scan exchange: %w", err)
		}
		list = append(list, e)
	}

	return list, nil
}

// AllPending 获取全部待审批交接单（用于 WebSocket 初始快照）
func (r *ExchangeRepository) AllPending(ctx context.Context) ([]*models.Exchange, error) {
	query := exchangeSelect + ` WHERE e.status = $1 ORDER BY e.request_date DESC`
	rows, err := r.db.Pool.Query(ctx, query, state.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("list pending exchanges: %w", err)
	}
	defer rows.Close()

	var list []*models.Exchange
	for rows.Next() {
		e, err := scanExchange(rows)
		if err != nil {
			return nil, fmt.Errorf("scan exchange: %w", err)
		}
		list = append(list, e)
	}

	return list, nil
}

// Update 更新备注与交接后照片
func (r *ExchangeRepository) Update(ctx context.Context, e *models.Exchange) error {
	query := `
		UPDATE vehicle_exchanges SET note = $1, after_photo_path = $2, updated_at = $3
		WHERE id = $4
	`
	e.UpdatedAt = time.Now()
	_, err := r.db.Pool.Exec(ctx, query, e.Note, e.AfterPhotoPath, e.UpdatedAt, e.ID)
	if err != nil {
		return fmt.Errorf("update exchange: %w", err)
	}
	return nil
}

// Decide 将待审批交接单置为最终状态
// 条件更新保证并发下同一交接单只会被决策一次；返回是否实际更新
func (r *ExchangeRepository) Decide(ctx context.Context, id int64, to string) (bool, error) {
	query := `
		UPDATE vehicle_exchanges SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	tag, err := r.db.Pool.Exec(ctx, query, to, time.Now(), id, state.StatusPending)
	if err != nil {
		return false, fmt.Errorf("decide exchange: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Delete 删除交接单
func (r *ExchangeRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM vehicle_exchanges WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete exchange: %w", err)
	}
	return nil
}
