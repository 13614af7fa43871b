package models

import "time"

// Credit holds the consumable balance for one hospital.
// The balance is only ever decremented by the analysis workflow;
// top-ups are administrative and happen outside this service.
type Credit struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	HospitalID uint      `gorm:"uniqueIndex;not null" json:"hospital_id"`
	Balance    int       `gorm:"not null;default:0" json:"balance"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName specifies the table name for Credit model
func (Credit) TableName() string {
	return "credits"
}

// CreditTransaction is an append-only ledger row recorded for every debit.
// Rows are never updated or deleted.
type CreditTransaction struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	HospitalID   uint      `gorm:"not null;index" json:"hospital_id"`
	Type         string    `gorm:"size:20;not null" json:"type"`
	Amount       int       `gorm:"not null" json:"amount"`
	BalanceAfter int       `gorm:"not null" json:"balance_after"`
	Description  string    `gorm:"size:255" json:"description"`
	AnalysisID   *uint     `gorm:"index" json:"analysis_id,omitempty"`
	CreatedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName specifies the table name for CreditTransaction model
func (CreditTransaction) TableName() string {
	return "credit_transactions"
}
