package models

import "time"

// 车辆状态常量
const (
	VehicleActive   = "active"
	VehicleArchived = "archived"
)

// Vehicle 车辆信息
type Vehicle struct {
	ID                 int64      `json:"id" db:"id"`
	RegistrationNumber string     `json:"registration_number" db:"registration_number"`
	Model              string     `json:"model" db:"model"`
	Year               int        `json:"year" db:"year"`
	Status             string     `json:"status" db:"status"`
	ArchivedAt         *time.Time `json:"archived_at" db:"archived_at"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`

	// 关联数据（按需加载）
	AssignedUser *User          `json:"assigned_user,omitempty" db:"-"`
	Documents    []*Document    `json:"documents,omitempty" db:"-"`
	Maintenances []*Maintenance `json:"maintenances,omitempty" db:"-"`
	Exchanges    []*Exchange    `json:"exchanges,omitempty" db:"-"`
}

// IsActive 是否在役
func (v *Vehicle) IsActive() bool {
	return v.Status == VehicleActive
}

// IsArchived 是否已归档
func (v *Vehicle) IsArchived() bool {
	return v.Status == VehicleArchived
}
