package repository

import (
	"errors"

	"boneage-backend/internal/models"

	"gorm.io/gorm"
)

// ErrInsufficientBalance is returned when a conditional debit finds the
// balance below the requested amount
var ErrInsufficientBalance = errors.New("insufficient credit balance")

type CreditRepository struct {
	db *gorm.DB
}

func NewCreditRepo(db *gorm.DB) *CreditRepository {
	return &CreditRepository{db: db}
}

// GetBalance returns the hospital's credit balance. A missing row reads
// as zero.
func (r *CreditRepository) GetBalance(hospitalID uint) (int, error) {
	var credit models.Credit
	err := r.db.Where("hospital_id = ?", hospitalID).First(&credit).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return credit.Balance, nil
}

// Debit atomically decrements the balance and appends the ledger row in
// one transaction. The decrement is conditional on the balance still
// covering the amount, so concurrent debits for the same hospital can
// never drive the balance negative.
func (r *CreditRepository) Debit(hospitalID uint, amount int, analysisID *uint, description string) (int, error) {
	return r.DebitTx(r.db, hospitalID, amount, analysisID, description)
}

// DebitTx is Debit running inside a caller-provided transaction, so the
// debit can share an atomic boundary with the analysis completion.
func (r *CreditRepository) DebitTx(tx *gorm.DB, hospitalID uint, amount int, analysisID *uint, description string) (int, error) {
	balanceAfter := 0
	err := tx.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Credit{}).
			Where("hospital_id = ? AND balance >= ?", hospitalID, amount).
			Update("balance", gorm.Expr("balance - ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientBalance
		}

		var credit models.Credit
		if err := tx.Where("hospital_id = ?", hospitalID).First(&credit).Error; err != nil {
			return err
		}
		balanceAfter = credit.Balance

		entry := models.CreditTransaction{
			HospitalID:   hospitalID,
			Type:         "use",
			Amount:       amount,
			BalanceAfter: credit.Balance,
			Description:  description,
			AnalysisID:   analysisID,
		}
		return tx.Create(&entry).Error
	})
	return balanceAfter, err
}

// Transactions lists the hospital's ledger entries, newest first
func (r *CreditRepository) Transactions(hospitalID uint, limit int) ([]models.CreditTransaction, error) {
	var entries []models.CreditTransaction
	err := r.db.Where("hospital_id = ?", hospitalID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
