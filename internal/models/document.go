package models

import "time"

// 证件类型常量
const (
	DocumentCarteGrise        = "carte_grise"
	DocumentAssurance         = "assurance"
	DocumentControleTechnique = "controle_technique"
)

// ValidDocumentType 判断是否为合法证件类型
func ValidDocumentType(t string) bool {
	return t == DocumentCarteGrise || t == DocumentAssurance || t == DocumentControleTechnique
}

// Document 车辆证件
type Document struct {
	ID             int64     `json:"id" db:"id"`
	VehicleID      int64     `json:"vehicle_id" db:"vehicle_id"`
	Type           string    `json:"type" db:"type"`
	ExpirationDate time.Time `json:"expiration_date" db:"expiration_date"`
	FilePath       *string   `json:"file_path" db:"file_path"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// IsExpired 证件是否已过期
func (d *Document) IsExpired(now time.Time) bool {
	return d.ExpirationDate.Before(now)
}

// ExpiresWithin 证件是否在 days 天内到期
// 仅有上界：已过期的证件同样命中
func (d *Document) ExpiresWithin(now time.Time, days int) bool {
	return !d.ExpirationDate.After(now.AddDate(0, 0, days))
}
