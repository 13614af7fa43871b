package service

import (
	"errors"

	"boneage-backend/internal/models"
	"boneage-backend/internal/repository"

	"gorm.io/gorm"
)

type PatientService struct {
	patientRepo *repository.PatientRepository
}

func NewPatientService(patientRepo *repository.PatientRepository) *PatientService {
	return &PatientService{patientRepo: patientRepo}
}

// FindOrCreate resolves a patient by the (hospital, code, name) identity
// triple, creating the record when absent
func (s *PatientService) FindOrCreate(hospitalID uint, code, name, birthDate, gender string) (*models.Patient, error) {
	return s.patientRepo.FindOrCreate(hospitalID, code, name, birthDate, gender)
}

// Check reports whether a patient with the identity triple already exists
func (s *PatientService) Check(hospitalID uint, code, name string) (*models.Patient, bool, error) {
	patient, err := s.patientRepo.Find(hospitalID, code, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return patient, true, nil
}
