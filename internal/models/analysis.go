package models

import (
	"time"

	"gorm.io/datatypes"
)

// Analysis status values
const (
	AnalysisStatusProcessing = "processing"
	AnalysisStatusCompleted  = "completed"
	AnalysisStatusFailed     = "failed"
)

// Analysis represents one bone-age analysis request. A row is created in
// processing state within the same request that completes or fails it;
// failed rows are kept as permanent markers.
type Analysis struct {
	ID                     uint           `gorm:"primaryKey" json:"id"`
	HospitalID             uint           `gorm:"not null;index" json:"hospital_id"`
	PatientID              uint           `gorm:"not null;index" json:"patient_id"`
	UserID                 uint           `gorm:"not null" json:"user_id"`
	ImagePath              string         `gorm:"size:500;not null" json:"image_path"`
	ChronologicalAgeYears  int            `gorm:"not null" json:"chronological_age_years"`
	ChronologicalAgeMonths int            `gorm:"not null" json:"chronological_age_months"`
	Height                 *float64       `json:"height,omitempty"`
	Weight                 *float64       `json:"weight,omitempty"`
	Physician              string         `gorm:"size:100" json:"physician,omitempty"`
	Status                 string         `gorm:"size:20;default:'processing'" json:"status"`
	BoneAgeYears           *int           `json:"bone_age_years"`
	BoneAgeMonths          *int           `json:"bone_age_months"`
	ResultJSON             datatypes.JSON `json:"result_json,omitempty"`
	CreatedAt              time.Time      `gorm:"default:CURRENT_TIMESTAMP;index" json:"created_at"`

	// Relationships
	Patient Patient `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
}

// TableName specifies the table name for Analysis model
func (Analysis) TableName() string {
	return "analyses"
}

// AnalysisListItem is the row shape for list views, joined with patient info
type AnalysisListItem struct {
	ID                     uint      `json:"id"`
	Status                 string    `json:"status"`
	BoneAgeYears           *int      `json:"bone_age_years"`
	BoneAgeMonths          *int      `json:"bone_age_months"`
	ChronologicalAgeYears  int       `json:"chronological_age_years"`
	ChronologicalAgeMonths int       `json:"chronological_age_months"`
	CreatedAt              time.Time `json:"created_at"`
	PatientName            string    `json:"patient_name"`
	PatientCode            string    `json:"patient_code"`
}
