package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/langchou/fleetdesk/internal/models"
)

// UserRepository 用户数据仓库
type UserRepository struct {
	db *DB
}

// NewUserRepository 创建用户仓库
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, name, email, password_hash, role, vehicle_id, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.VehicleID,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Create 创建用户
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (name, email, password_hash, role, vehicle_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	now := time.Now()
	err := r.db.Pool.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.VehicleID,
		now,
		now,
	).Scan(&user.ID)

	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// GetByID 通过 ID 获取用户
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

// GetByEmail 通过邮箱获取用户
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.db.Pool.QueryRow(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

// List 获取用户列表，支持角色过滤与姓名/邮箱模糊搜索
func (r *UserRepository) List(ctx context.Context, role, search string, limit, offset int) ([]*models.User, error) {
	query := `
		SELECT ` + userColumns + ` FROM users
		WHERE ($1 = '' OR role = $1)
		  AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR email ILIKE '%' || $2 || '%')
		ORDER BY id
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Pool.Query(ctx, query, role, search, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}

	return users, nil
}

// Count 统计符合过滤条件的用户数量
func (r *UserRepository) Count(ctx context.Context, role, search string) (int64, error) {
	query := `
		SELECT COUNT(*) FROM users
		WHERE ($1 = '' OR role = $1)
		  AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR email ILIKE '%' || $2 || '%')
	`
	var total int64
	if err := r.db.Pool.QueryRow(ctx, query, role, search).Scan(&total); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return total, nil
}

// Update 更新用户（整体替换字段集）
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users SET name = $1, email = $2, password_hash = $3, role = $4, vehicle_id = $5, updated_at = $6
		WHERE id = $7
	`
	user.UpdatedAt = time.Now()
	_, err := r.db.Pool.Exec(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.VehicleID,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// Delete 删除用户
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// CountByRole 统计某角色的用户数量
func (r *UserRepository) CountByRole(ctx context.Context, role string) (int64, error) {
	var total int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`, role).Scan(&total); err != nil {
		return 0, fmt.Errorf("count users by role: %w", err)
	}
	return total, nil
}

// FindByVehicle 查找持有某辆车的用户（可排除指定用户）
func (r *UserRepository) FindByVehicle(ctx context.Context, vehicleID, excludeUserID int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE vehicle_id = $1 AND id != $2`
	user, err := scanUser(r.db.Pool.QueryRow(ctx, query, vehicleID, excludeUserID))
	if err != nil {
		return nil, fmt.Errorf("find user by vehicle: %w", err)
	}
	return user, nil
}

// AssignVehicle 将车辆分配给用户
// users.vehicle_id 上的部分唯一索引保证并发下不会出现重复分配
func (r *UserRepository) AssignVehicle(ctx context.Context, userID, vehicleID int64) error {
	query := `UPDATE users SET vehicle_id = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.Pool.Exec(ctx, query, vehicleID, time.Now(), userID); err != nil {
		return fmt.Errorf("assign vehicle: %w", err)
	}
	return nil
}
