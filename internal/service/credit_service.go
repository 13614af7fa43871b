package service

import (
	"errors"

	"boneage-backend/internal/models"
	"boneage-backend/internal/repository"
)

// ErrInsufficientCredit is returned when a hospital's balance cannot
// cover the analysis cost
var ErrInsufficientCredit = errors.New("insufficient credit")

type CreditService struct {
	creditRepo *repository.CreditRepository
}

func NewCreditService(creditRepo *repository.CreditRepository) *CreditService {
	return &CreditService{creditRepo: creditRepo}
}

// Balance returns the hospital's credit balance; a hospital without a
// credit row has a balance of zero
func (s *CreditService) Balance(hospitalID uint) (int, error) {
	return s.creditRepo.GetBalance(hospitalID)
}

// Transactions lists recent ledger entries for the hospital
func (s *CreditService) Transactions(hospitalID uint, limit int) ([]models.CreditTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.creditRepo.Transactions(hospitalID, limit)
}
