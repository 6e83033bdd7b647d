package models

import "time"

// Maintenance 维保记录
type Maintenance struct {
	ID              int64      `json:"id" db:"id"`
	VehicleID       int64      `json:"vehicle_id" db:"vehicle_id"`
	MaintenanceType string     `json:"maintenance_type" db:"maintenance_type"`
	Description     string     `json:"description" db:"description"`
	Date            time.Time  `json:"date" db:"date"`
	ReminderDate    *time.Time `json:"reminder_date" db:"reminder_date"`
	InvoicePath     *string    `json:"invoice_path" db:"invoice_path"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// ReminderDue 提醒是否已到期
func (m *Maintenance) ReminderDue(now time.Time) bool {
	return m.ReminderDate != nil && !m.ReminderDate.After(now)
}

// ReminderWithin 提醒是否落在 [now, now+days] 窗口内
func (m *Maintenance) ReminderWithin(now time.Time, days int) bool {
	if m.ReminderDate == nil {
		return false
	}
	return !m.ReminderDate.Before(now) && !m.ReminderDate.After(now.AddDate(0, 0, days))
}
