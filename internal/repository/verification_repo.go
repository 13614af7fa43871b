package repository

import (
	"errors"

	"boneage-backend/internal/models"

	"gorm.io/gorm"
)

type VerificationRepository struct {
	db *gorm.DB
}

func NewVerificationRepo(db *gorm.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

// Replace deletes any prior codes for the (email, type) pair and inserts
// the fresh one, so only one code per pair is ever live
func (r *VerificationRepository) Replace(verification *models.EmailVerification) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ? AND type = ?", verification.Email, verification.Type).
			Delete(&models.EmailVerification{}).Error; err != nil {
			return err
		}
		return tx.Create(verification).Error
	})
}

// Find returns the live code row for the (email, type) pair
func (r *VerificationRepository) Find(email, verType string) (*models.EmailVerification, error) {
	var verification models.EmailVerification
	err := r.db.Where("email = ? AND type = ?", email, verType).
		Order("created_at DESC").
		First(&verification).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("verification not found")
		}
		return nil, err
	}
	return &verification, nil
}

// MarkVerified flags a code row as consumed by a successful verify call
func (r *VerificationRepository) MarkVerified(id uint) error {
	return r.db.Model(&models.EmailVerification{}).
		Where("id = ?", id).
		Update("verified", true).Error
}

// FindVerified returns the verified row for the pair, if any
func (r *VerificationRepository) FindVerified(email, verType string) (*models.EmailVerification, error) {
	var verification models.EmailVerification
	err := r.db.Where("email = ? AND type = ? AND verified = ?", email, verType, true).
		First(&verification).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("verification not found")
		}
		return nil, err
	}
	return &verification, nil
}
