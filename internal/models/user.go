package models

import "time"

// 用户角色常量
const (
	RoleAdmin     = "admin"
	RoleChauffeur = "chauffeur"
)

// ValidRole 判断是否为合法角色
func ValidRole(r string) bool {
	return r == RoleAdmin || r == RoleChauffeur
}

// User 用户信息
type User struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	VehicleID    *int64    `json:"vehicle_id" db:"vehicle_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`

	// 关联数据（按需加载）
	Vehicle            *Vehicle    `json:"vehicle,omitempty" db:"-"`
	InitiatedExchanges []*Exchange `json:"initiated_exchanges,omitempty" db:"-"`
	ReceivedExchanges  []*Exchange `json:"received_exchanges,omitempty" db:"-"`
}

// IsAdmin 是否为管理员
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsChauffeur 是否为司机
func (u *User) IsChauffeur() bool {
	return u.Role == RoleChauffeur
}
