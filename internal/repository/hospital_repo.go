package repository

import (
	"boneage-backend/internal/models"

	"gorm.io/gorm"
)

type HospitalRepository struct {
	db *gorm.DB
}

func NewHospitalRepo(db *gorm.DB) *HospitalRepository {
	return &HospitalRepository{db: db}
}

// BusinessNumberExists reports whether a hospital is already registered
// under the business number. Registration rejects duplicates before
// opening the create transaction.
func (r *HospitalRepository) BusinessNumberExists(businessNumber string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Hospital{}).
		Where("business_number = ?", businessNumber).
		Count(&count).Error
	return count > 0, err
}
