package repository

import (
	"errors"
	"time"

	"boneage-backend/internal/models"

	"gorm.io/gorm"
)

// ErrUserNotFound is returned when no user row matches
var ErrUserNotFound = errors.New("user not found")

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByLoginID finds a user by login identifier
func (r *UserRepository) FindByLoginID(loginID string) (*models.User, error) {
	var user models.User
	err := r.db.Where("login_id = ?", loginID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindByID finds a user by primary key
func (r *UserRepository) FindByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindByIDWithHospital finds a user with the hospital profile preloaded
func (r *UserRepository) FindByIDWithHospital(id uint) (*models.User, error) {
	var user models.User
	err := r.db.Preload("Hospital").First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// LoginIDExists reports whether a login identifier is already taken
func (r *UserRepository) LoginIDExists(loginID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("login_id = ?", loginID).Count(&count).Error
	return count > 0, err
}

// RecordFailedLogin increments the attempt counter and, when the counter
// reaches the threshold, sets the lock timestamp
func (r *UserRepository) RecordFailedLogin(userID uint, attempts int, lockedUntil *time.Time) error {
	return r.db.Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"login_attempts": attempts,
			"locked_until":   lockedUntil,
		}).Error
}

// RecordSuccessfulLogin resets the lockout state and stamps last_login
func (r *UserRepository) RecordSuccessfulLogin(userID uint, at time.Time) error {
	return r.db.Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"login_attempts": 0,
			"locked_until":   nil,
			"last_login":     at,
		}).Error
}

// Unlock clears the attempt counter and lock timestamp unconditionally
func (r *UserRepository) Unlock(userID uint) error {
	res := r.db.Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"login_attempts": 0,
			"locked_until":   nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdatePassword replaces the stored password hash
func (r *UserRepository) UpdatePassword(userID uint, passwordHash string) error {
	return r.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("password_hash", passwordHash).Error
}

// CreateAccount inserts the hospital and its first user and deletes the
// consumed email verification in one transaction. This is the single
// all-or-nothing boundary of registration: a hospital without a user, or
// vice versa, must never be observable.
func (r *UserRepository) CreateAccount(hospital *models.Hospital, user *models.User, verificationID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(hospital).Error; err != nil {
			return err
		}
		user.HospitalID = hospital.ID
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.EmailVerification{}, verificationID).Error; err != nil {
			return err
		}
		return nil
	})
}
