package repository

import (
	"errors"

	"boneage-backend/internal/models"

	"gorm.io/gorm"
)

type PatientRepository struct {
	db *gorm.DB
}

func NewPatientRepo(db *gorm.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

// Find looks up a patient by the (hospital, code, name) identity triple
func (r *PatientRepository) Find(hospitalID uint, code, name string) (*models.Patient, error) {
	var patient models.Patient
	err := r.db.Where("hospital_id = ? AND patient_code = ? AND name = ?", hospitalID, code, name).
		First(&patient).Error
	if err != nil {
		return nil, err
	}
	return &patient, nil
}

// FindOrCreate returns the patient matching the identity triple, creating
// it when absent. The composite unique index backs the insert: if a
// concurrent request creates the same patient first, the duplicate-key
// failure resolves to a re-fetch instead of a duplicate row. Differing
// birth date or gender on an existing patient are ignored.
func (r *PatientRepository) FindOrCreate(hospitalID uint, code, name, birthDate, gender string) (*models.Patient, error) {
	var patient models.Patient
	err := r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("hospital_id = ? AND patient_code = ? AND name = ?", hospitalID, code, name).
			First(&patient).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		patient = models.Patient{
			HospitalID:  hospitalID,
			PatientCode: code,
			Name:        name,
			BirthDate:   birthDate,
			Gender:      gender,
		}
		if createErr := tx.Create(&patient).Error; createErr != nil {
			// Lost the race against a concurrent insert of the same triple
			if errors.Is(createErr, gorm.ErrDuplicatedKey) {
				return tx.Where("hospital_id = ? AND patient_code = ? AND name = ?", hospitalID, code, name).
					First(&patient).Error
			}
			return createErr
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &patient, nil
}
