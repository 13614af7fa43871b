package models

import "time"

// Hospital represents a tenant hospital; all patient and analysis data
// is scoped to exactly one hospital
type Hospital struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	Name                string    `gorm:"size:255;not null" json:"name"`
	CeoName             string    `gorm:"size:100" json:"ceo_name,omitempty"`
	Phone               string    `gorm:"size:50" json:"phone,omitempty"`
	Address             string    `gorm:"type:text" json:"address,omitempty"`
	AddressDetail       string    `gorm:"size:255" json:"address_detail,omitempty"`
	BusinessNumber      string    `gorm:"size:50" json:"business_number,omitempty"`
	BusinessLicensePath string    `gorm:"size:500" json:"business_license_path,omitempty"`
	Status              string    `gorm:"size:20;default:'pending'" json:"status"`
	CreatedAt           time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// TableName specifies the table name for Hospital model
func (Hospital) TableName() string {
	return "hospitals"
}
