package models

import "time"

// Patient represents the patients table. Identity within a hospital is
// the (hospital_id, patient_code, name) triple, enforced by a composite
// unique index so concurrent lookup-or-create cannot duplicate a patient.
type Patient struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	HospitalID  uint      `gorm:"not null;uniqueIndex:idx_patient_identity" json:"hospital_id"`
	PatientCode string    `gorm:"size:50;not null;uniqueIndex:idx_patient_identity" json:"patient_code"`
	Name        string    `gorm:"size:100;not null;uniqueIndex:idx_patient_identity" json:"name"`
	BirthDate   string    `gorm:"size:10" json:"birth_date,omitempty"`
	Gender      string    `gorm:"size:10" json:"gender,omitempty"`
	CreatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName specifies the table name for Patient model
func (Patient) TableName() string {
	return "patients"
}
