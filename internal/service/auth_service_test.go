package service

import (
	"testing"
	"time"

	"boneage-backend/internal/models"
	"boneage-backend/internal/repository"
	"boneage-backend/pkg/utils"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeSender struct {
	to   string
	code string
}

func (f *fakeSender) SendVerificationCode(to, code string) error {
	f.to = to
	f.code = code
	return nil
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Hospital{},
		&models.Credit{},
		&models.CreditTransaction{},
		&models.Patient{},
		&models.Analysis{},
		&models.EmailVerification{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func newAuthService(t *testing.T, db *gorm.DB) (*AuthService, *fakeSender) {
	t.Helper()
	utils.InitJWT("test-secret", time.Hour)
	sender := &fakeSender{}
	svc := NewAuthService(
		repository.NewUserRepo(db),
		repository.NewHospitalRepo(db),
		repository.NewVerificationRepo(db),
		sender,
	)
	return svc, sender
}

func seedUser(t *testing.T, db *gorm.DB, loginID, password string, active bool) *models.User {
	t.Helper()
	hash, err := utils.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	hospital := models.Hospital{Name: "Test Hospital", Status: "approved"}
	if err := db.Create(&hospital).Error; err != nil {
		t.Fatalf("seed hospital: %v", err)
	}
	user := models.User{
		LoginID:      loginID,
		PasswordHash: hash,
		Email:        loginID + "@example.com",
		Name:         "Tester",
		Role:         "hospital",
		HospitalID:   hospital.ID,
		IsActive:     active,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return &user
}

func TestLoginSuccess(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newAuthService(t, db)
	user := seedUser(t, db, "hosp1", "correct-pw", true)

	resp, err := svc.Login("hosp1", "correct-pw")
	assert.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, user.ID, resp.User.ID)
	assert.Equal(t, user.HospitalID, resp.User.HospitalID)

	claims, err := utils.ValidateToken(resp.Token)
	assert.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.HospitalID, claims.HospitalID)
	assert.Equal(t, "hospital", claims.Role)

	var stored models.User
	db.First(&stored, user.ID)
	assert.NotNil(t, stored.LastLogin)
	assert.Equal(t, 0, stored.LoginAttempts)
}

func TestLoginUnknownAndWrongPasswordSameMessage(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newAuthService(t, db)
	seedUser(t, db, "hosp1", "correct-pw", true)

	_, unknownErr := svc.Login("no-such-user", "whatever")
	_, wrongErr := svc.Login("hosp1", "wrong-pw")

	// Neither failure mode reveals whether the identifier exists
	assert.Contains(t, unknownErr.Error(), ErrInvalidCredentials.Error())
	assert.Contains(t, wrongErr.Error(), ErrInvalidCredentials.Error())
}

func TestLoginDisabledAccount(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newAuthService(t, db)
	seedUser(t, db, "hosp1", "correct-pw", false)

	_, err := svc.Login("hosp1", "correct-pw")
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestLoginLockoutAfterFiveFailures(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newAuthService(t, db)
	user := seedUser(t, db, "hosp1", "correct-pw", true)

	for i := 0; i < 4; i++ {
		_, err := svc.Login("hosp1", "wrong-pw")
		var remaining *RemainingAttemptsError
		assert.ErrorAs(t, err, &remaining)
		assert.Equal(t, 4-i, remaining.Remaining)
	}

	// Fifth failure locks the account and reports the lockout
	_, err := svc.Login("hosp1", "wrong-pw")
	var locked *AccountLockedError
	assert.ErrorAs(t, err, &locked)
	assert.Equal(t, 30, locked.RemainingMinutes)

	var stored models.User
	db.First(&stored, user.ID)
	assert.Equal(t, 5, stored.LoginAttempts)
	assert.NotNil(t, stored.LockedUntil)

	// Correct password is rejected while the lock is in force
	_, err = svc.Login("hosp1", "correct-pw")
	assert.ErrorAs(t, err, &locked)
}

func TestLoginLockExpires(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newAuthService(t, db)
	seedUser(t, db, "hosp1", "correct-pw", true)

	for i := 0; i < 5; i++ {
		svc.Login("hosp1", "wrong-pw")
	}

	// Move the clock past the lock window
	svc.now = func() time.Time { return time.Now().Add(31 * time.Minute) }

	resp, err := svc.Login("hosp1", "correct-pw")
	assert.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
}

func TestLoginCounterResetsOnSuccess(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newAuthService(t, db)
	user := seedUser(t, db, "hosp1", "correct-pw", true)

	for i := 0; i < 3; i++ {
		svc.Login("hosp1", "wrong-pw")
	}
	_, err := svc.Login("hosp1", "correct-pw")
	assert.NoError(t, err)

	var stored models.User
	db.First(&stored, user.ID)
	assert.Equal(t, 0, stored.LoginAttempts)
	assert.Nil(t, stored.LockedUntil)

	// A fresh failure starts counting from zero again
	_, err = svc.Login("hosp1", "wrong-pw")
	var remaining *RemainingAttemptsError
	assert.ErrorAs(t, err, &remaining)
	assert.Equal(t, 4, remaining.Remaining)
}

func TestChangePassword(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newAuthService(t, db)
	user := seedUser(t, db, "hosp1", "old-pw", true)

	err := svc.ChangePassword(user.ID, "bad-guess", "new-pw-123")
	assert.ErrorIs(t, err, ErrWrongPassword)

	err = svc.ChangePassword(user.ID, "old-pw", "new-pw-123")
	assert.NoError(t, err)

	_, err = svc.Login("hosp1", "old-pw")
	assert.Error(t, err)
	_, err = svc.Login("hosp1", "new-pw-123")
	assert.NoError(t, err)
}

func TestUnlockAccount(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newAuthService(t, db)
	user := seedUser(t, db, "hosp1", "correct-pw", true)

	for i := 0; i < 5; i++ {
		svc.Login("hosp1", "wrong-pw")
	}

	err := svc.UnlockAccount(user.ID)
	assert.NoError(t, err)

	resp, err := svc.Login("hosp1", "correct-pw")
	assert.NoError(t, err)
	assert.NotEmpty(t, resp.Token)

	assert.ErrorIs(t, svc.UnlockAccount(9999), repository.ErrUserNotFound)
}

func TestVerificationCodeLifecycle(t *testing.T) {
	db := setupTestDB(t)
	svc, sender := newAuthService(t, db)

	err := svc.SendVerificationCode("new@example.com")
	assert.NoError(t, err)
	assert.Equal(t, "new@example.com", sender.to)
	assert.Len(t, sender.code, 6)
	firstCode := sender.code

	// Reissue invalidates the prior code
	err = svc.SendVerificationCode("new@example.com")
	assert.NoError(t, err)
	secondCode := sender.code

	var count int64
	db.Model(&models.EmailVerification{}).Where("email = ?", "new@example.com").Count(&count)
	assert.EqualValues(t, 1, count)

	if firstCode != secondCode {
		assert.ErrorIs(t, svc.VerifyCode("new@example.com", firstCode), ErrCodeMismatch)
	}
	assert.NoError(t, svc.VerifyCode("new@example.com", secondCode))

	// A verified code cannot be verified again
	assert.ErrorIs(t, svc.VerifyCode("new@example.com", secondCode), ErrCodeAlreadyUsed)
}

func TestVerifyCodeExpired(t *testing.T) {
	db := setupTestDB(t)
	svc, sender := newAuthService(t, db)

	assert.NoError(t, svc.SendVerificationCode("new@example.com"))

	svc.now = func() time.Time { return time.Now().Add(11 * time.Minute) }
	assert.ErrorIs(t, svc.VerifyCode("new@example.com", sender.code), ErrCodeExpired)
}

func TestRegisterRequiresVerifiedEmail(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newAuthService(t, db)

	_, err := svc.Register(RegisterInput{
		LoginID:      "newhosp",
		Password:     "secret-pw",
		Email:        "new@example.com",
		Name:         "Director Kim",
		HospitalName: "New Hospital",
	})
	assert.ErrorIs(t, err, ErrEmailNotVerified)

	var hospitals int64
	db.Model(&models.Hospital{}).Count(&hospitals)
	assert.EqualValues(t, 0, hospitals)
}

func TestRegisterCreatesHospitalAndUserAtomically(t *testing.T) {
	db := setupTestDB(t)
	svc, sender := newAuthService(t, db)

	assert.NoError(t, svc.SendVerificationCode("new@example.com"))
	assert.NoError(t, svc.VerifyCode("new@example.com", sender.code))

	user, err := svc.Register(RegisterInput{
		LoginID:      "newhosp",
		Password:     "secret-pw",
		Email:        "new@example.com",
		Name:         "Director Kim",
		HospitalName: "New Hospital",
	})
	assert.NoError(t, err)
	assert.False(t, user.IsActive)

	var hospitals, users, verifications int64
	db.Model(&models.Hospital{}).Count(&hospitals)
	db.Model(&models.User{}).Count(&users)
	db.Model(&models.EmailVerification{}).Count(&verifications)
	assert.EqualValues(t, 1, hospitals)
	assert.EqualValues(t, 1, users)
	assert.EqualValues(t, 0, verifications)

	var hospital models.Hospital
	db.First(&hospital)
	assert.Equal(t, "pending", hospital.Status)
	assert.Equal(t, hospital.ID, user.HospitalID)

	// Disabled until an admin approves
	_, err = svc.Login("newhosp", "secret-pw")
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestRegisterDuplicateLoginID(t *testing.T) {
	db := setupTestDB(t)
	svc, sender := newAuthService(t, db)
	seedUser(t, db, "taken", "pw-123456", true)

	assert.NoError(t, svc.SendVerificationCode("new@example.com"))
	assert.NoError(t, svc.VerifyCode("new@example.com", sender.code))

	_, err := svc.Register(RegisterInput{
		LoginID:      "taken",
		Password:     "secret-pw",
		Email:        "new@example.com",
		Name:         "Director Kim",
		HospitalName: "New Hospital",
	})
	assert.ErrorIs(t, err, ErrLoginIDTaken)
}

func TestRegisterDuplicateBusinessNumber(t *testing.T) {
	db := setupTestDB(t)
	svc, sender := newAuthService(t, db)
	db.Create(&models.Hospital{Name: "Existing", BusinessNumber: "123-45-67890", Status: "approved"})

	assert.NoError(t, svc.SendVerificationCode("new@example.com"))
	assert.NoError(t, svc.VerifyCode("new@example.com", sender.code))

	_, err := svc.Register(RegisterInput{
		LoginID:        "newhosp",
		Password:       "secret-pw",
		Email:          "new@example.com",
		Name:           "Director Kim",
		HospitalName:   "New Hospital",
		BusinessNumber: "123-45-67890",
	})
	assert.ErrorIs(t, err, ErrBusinessNumberUsed)
}

func TestCreateAccountRollsBackOnFailure(t *testing.T) {
	db := setupTestDB(t)
	svc, sender := newAuthService(t, db)
	seedUser(t, db, "taken", "pw-123456", true)

	assert.NoError(t, svc.SendVerificationCode("new@example.com"))
	assert.NoError(t, svc.VerifyCode("new@example.com", sender.code))

	var before int64
	db.Model(&models.Hospital{}).Count(&before)

	// Drive the transaction directly into the unique-constraint failure on
	// the user insert; the hospital insert and verification delete must
	// both roll back.
	userRepo := repository.NewUserRepo(db)
	hospital := &models.Hospital{Name: "Half Hospital", Status: "pending"}
	user := &models.User{
		LoginID:      "taken",
		PasswordHash: "x",
		Email:        "new@example.com",
		Name:         "Dup",
	}
	var verification models.EmailVerification
	db.Where("email = ?", "new@example.com").First(&verification)

	err := userRepo.CreateAccount(hospital, user, verification.ID)
	assert.Error(t, err)

	var after, verifications int64
	db.Model(&models.Hospital{}).Count(&after)
	db.Model(&models.EmailVerification{}).Count(&verifications)
	assert.Equal(t, before, after)
	assert.EqualValues(t, 1, verifications)
}
