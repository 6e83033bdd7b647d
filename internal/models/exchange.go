package models

import (
	"time"

	"github.com/langchou/fleetdesk/internal/state"
)

// Exchange 车辆交接单
// 由一名司机发起，指定另一名司机为接收方，由管理员审批
type Exchange struct {
	ID              int64     `json:"id" db:"id"`
	FromDriverID    int64     `json:"from_driver_id" db:"from_driver_id"`
	ToDriverID      int64     `json:"to_driver_id" db:"to_driver_id"`
	VehicleID       int64     `json:"vehicle_id" db:"vehicle_id"`
	RequestDate     time.Time `json:"request_date" db:"request_date"`
	Status          string    `json:"status" db:"status"`
	BeforePhotoPath *string   `json:"before_photo_path" db:"before_photo_path"`
	AfterPhotoPath  *string   `json:"after_photo_path" db:"after_photo_path"`
	Note            *string   `json:"note" db:"note"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`

	// 关联数据（按需加载）
	FromDriver *User    `json:"from_driver,omitempty" db:"-"`
	ToDriver   *User    `json:"to_driver,omitempty" db:"-"`
	Vehicle    *Vehicle `json:"vehicle,omitempty" db:"-"`
}

// IsPending 是否待审批
func (e *Exchange) IsPending() bool {
	return e.Status == state.StatusPending
}

// IsApproved 是否已通过
func (e *Exchange) IsApproved() bool {
	return e.Status == state.StatusApproved
}

// IsRejected 是否已驳回
func (e *Exchange) IsRejected() bool {
	return e.Status == state.StatusRejected
}
