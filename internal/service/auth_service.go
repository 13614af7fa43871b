package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"boneage-backend/internal/mailer"
	"boneage-backend/internal/models"
	"boneage-backend/internal/repository"
	"boneage-backend/pkg/utils"
)

const (
	maxLoginAttempts = 5
	lockoutDuration  = 30 * time.Minute

	verificationType   = "register"
	verificationExpiry = 10 * time.Minute
)

var (
	// ErrInvalidCredentials covers both unknown identifier and password
	// mismatch; the message stays identical to avoid user enumeration
	ErrInvalidCredentials = errors.New("invalid login id or password")
	ErrAccountDisabled    = errors.New("account is not active; awaiting approval")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrLoginIDTaken       = errors.New("login id already exists")
	ErrBusinessNumberUsed = errors.New("business number already registered")
	ErrCodeMismatch       = errors.New("verification code does not match")
	ErrCodeExpired        = errors.New("verification code expired")
	ErrCodeAlreadyUsed    = errors.New("verification code already used")
	ErrEmailNotVerified   = errors.New("email is not verified")
)

// AccountLockedError reports a locked account with the remaining lock time
type AccountLockedError struct {
	RemainingMinutes int
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked; try again in %d minutes", e.RemainingMinutes)
}

// RemainingAttemptsError reports a failed login below the lock threshold
type RemainingAttemptsError struct {
	Remaining int
}

func (e *RemainingAttemptsError) Error() string {
	return fmt.Sprintf("invalid login id or password (%d attempts remaining)", e.Remaining)
}

type AuthService struct {
	userRepo         *repository.UserRepository
	hospitalRepo     *repository.HospitalRepository
	verificationRepo *repository.VerificationRepository
	sender           mailer.Sender
	now              func() time.Time
}

func NewAuthService(
	userRepo *repository.UserRepository,
	hospitalRepo *repository.HospitalRepository,
	verificationRepo *repository.VerificationRepository,
	sender mailer.Sender,
) *AuthService {
	return &AuthService{
		userRepo:         userRepo,
		hospitalRepo:     hospitalRepo,
		verificationRepo: verificationRepo,
		sender:           sender,
		now:              time.Now,
	}
}

// LoginResponse represents the response structure for login
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID         uint   `json:"id"`
	LoginID    string `json:"login_id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	HospitalID uint   `json:"hospital_id"`
}

// Login authenticates a user, enforcing the lockout policy, and returns
// a session token
func (s *AuthService) Login(loginID, password string) (*LoginResponse, error) {
	user, err := s.userRepo.FindByLoginID(loginID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	now := s.now()
	if user.LockedUntil != nil && user.LockedUntil.After(now) {
		return nil, &AccountLockedError{RemainingMinutes: remainingMinutes(now, *user.LockedUntil)}
	}

	if !utils.ComparePassword(user.PasswordHash, password) {
		attempts := user.LoginAttempts + 1
		var lockedUntil *time.Time
		if attempts >= maxLoginAttempts {
			t := now.Add(lockoutDuration)
			lockedUntil = &t
		}
		if err := s.userRepo.RecordFailedLogin(user.ID, attempts, lockedUntil); err != nil {
			return nil, fmt.Errorf("failed to record login attempt: %w", err)
		}
		if lockedUntil != nil {
			return nil, &AccountLockedError{RemainingMinutes: remainingMinutes(now, *lockedUntil)}
		}
		return nil, &RemainingAttemptsError{Remaining: maxLoginAttempts - attempts}
	}

	if err := s.userRepo.RecordSuccessfulLogin(user.ID, now); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}

	token, err := utils.GenerateToken(user.ID, user.HospitalID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &LoginResponse{
		Token: token,
		User: UserResponse{
			ID:         user.ID,
			LoginID:    user.LoginID,
			Email:      user.Email,
			Name:       user.Name,
			Role:       user.Role,
			HospitalID: user.HospitalID,
		},
	}, nil
}

// Me returns the user's profile joined with the hospital record
func (s *AuthService) Me(userID uint) (*models.User, error) {
	return s.userRepo.FindByIDWithHospital(userID)
}

// ChangePassword replaces the stored hash after verifying the current password
func (s *AuthService) ChangePassword(userID uint, currentPassword, newPassword string) error {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return err
	}

	if !utils.ComparePassword(user.PasswordHash, currentPassword) {
		return ErrWrongPassword
	}

	passwordHash, err := utils.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.userRepo.UpdatePassword(userID, passwordHash)
}

// UnlockAccount clears the attempt counter and lock timestamp unconditionally
func (s *AuthService) UnlockAccount(userID uint) error {
	return s.userRepo.Unlock(userID)
}

// CheckLoginID reports whether a login identifier is available
func (s *AuthService) CheckLoginID(loginID string) (bool, error) {
	exists, err := s.userRepo.LoginIDExists(loginID)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// SendVerificationCode issues a fresh 6-digit code for the email,
// invalidating any prior code for the same (email, type) pair, and mails it
func (s *AuthService) SendVerificationCode(email string) error {
	code, err := generateNumericCode(6)
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	verification := &models.EmailVerification{
		Email:     email,
		Code:      code,
		Type:      verificationType,
		ExpiresAt: s.now().Add(verificationExpiry),
	}
	if err := s.verificationRepo.Replace(verification); err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}

	if err := s.sender.SendVerificationCode(email, code); err != nil {
		return err
	}

	log.Printf("Verification code sent to %s", email)
	return nil
}

// VerifyCode checks the submitted code against the live one for the email
func (s *AuthService) VerifyCode(email, code string) error {
	verification, err := s.verificationRepo.Find(email, verificationType)
	if err != nil {
		return ErrCodeMismatch
	}
	if verification.Verified {
		return ErrCodeAlreadyUsed
	}
	if s.now().After(verification.ExpiresAt) {
		return ErrCodeExpired
	}
	if verification.Code != code {
		return ErrCodeMismatch
	}

	return s.verificationRepo.MarkVerified(verification.ID)
}

// RegisterInput carries the registration form fields
type RegisterInput struct {
	LoginID             string
	Password            string
	Email               string
	Name                string
	HospitalName        string
	CeoName             string
	Phone               string
	Address             string
	AddressDetail       string
	BusinessNumber      string
	BusinessLicensePath string
}

// Register creates the hospital and its first user as a single
// all-or-nothing unit. The account starts inactive, pending admin
// approval, and the consumed verification row is deleted in the same
// transaction.
func (s *AuthService) Register(input RegisterInput) (*models.User, error) {
	exists, err := s.userRepo.LoginIDExists(input.LoginID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrLoginIDTaken
	}

	if input.BusinessNumber != "" {
		used, err := s.hospitalRepo.BusinessNumberExists(input.BusinessNumber)
		if err != nil {
			return nil, err
		}
		if used {
			return nil, ErrBusinessNumberUsed
		}
	}

	verification, err := s.verificationRepo.FindVerified(input.Email, verificationType)
	if err != nil {
		return nil, ErrEmailNotVerified
	}

	passwordHash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	hospital := &models.Hospital{
		Name:                input.HospitalName,
		CeoName:             input.CeoName,
		Phone:               input.Phone,
		Address:             input.Address,
		AddressDetail:       input.AddressDetail,
		BusinessNumber:      input.BusinessNumber,
		BusinessLicensePath: input.BusinessLicensePath,
		Status:              "pending",
	}
	user := &models.User{
		LoginID:      input.LoginID,
		PasswordHash: passwordHash,
		Email:        input.Email,
		Name:         input.Name,
		Role:         "hospital",
		IsActive:     false,
	}

	if err := s.userRepo.CreateAccount(hospital, user, verification.ID); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	log.Printf("Registered hospital %s (pending approval)", input.HospitalName)
	return user, nil
}

func remainingMinutes(now, until time.Time) int {
	minutes := int(until.Sub(now).Minutes())
	if until.Sub(now)%time.Minute > 0 {
		minutes++
	}
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

func generateNumericCode(length int) (string, error) {
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
