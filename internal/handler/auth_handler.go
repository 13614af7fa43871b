package handler

import (
	"errors"
	"log"
	"net/http"
	"path/filepath"
	"strconv"

	"boneage-backend/internal/config"
	"boneage-backend/internal/repository"
	"boneage-backend/internal/service"
	"boneage-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

var licenseExtensions = []string{".jpg", ".jpeg", ".png", ".pdf"}

type AuthHandler struct {
	authService *service.AuthService
	uploadCfg   config.UploadConfig
}

func NewAuthHandler(authService *service.AuthService, uploadCfg config.UploadConfig) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		uploadCfg:   uploadCfg,
	}
}

type LoginRequest struct {
	LoginID  string `json:"loginId" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles user authentication
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	response, err := h.authService.Login(req.LoginID, req.Password)
	if err != nil {
		var locked *service.AccountLockedError
		switch {
		case errors.As(err, &locked):
			utils.ErrorResponse(c, http.StatusLocked, locked.Error())
		case errors.Is(err, service.ErrAccountDisabled):
			utils.ErrorResponse(c, http.StatusUnauthorized, err.Error())
		case errors.Is(err, service.ErrInvalidCredentials):
			utils.ErrorResponse(c, http.StatusUnauthorized, err.Error())
		default:
			var remaining *service.RemainingAttemptsError
			if errors.As(err, &remaining) {
				utils.ErrorResponse(c, http.StatusUnauthorized, remaining.Error())
				return
			}
			log.Printf("Login error: %v", err)
			utils.ErrorResponse(c, http.StatusInternalServerError, "Login failed")
		}
		return
	}

	utils.SuccessResponse(c, response)
}

// Logout acknowledges logout. The session token is self-expiring; the
// client discards it.
func (h *AuthHandler) Logout(c *gin.Context) {
	utils.MessageResponse(c, "Logged out successfully")
}

// Me returns the authenticated user's profile with the hospital record
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetUint("userID")

	user, err := h.authService.Me(userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("Me error: %v", err)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to load profile")
		return
	}

	utils.SuccessResponse(c, user)
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

// ChangePassword replaces the user's password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID := c.GetUint("userID")
	if err := h.authService.ChangePassword(userID, req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrWrongPassword) {
			utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("ChangePassword error: %v", err)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to change password")
		return
	}

	utils.MessageResponse(c, "Password changed successfully")
}

// Unlock clears a user's lockout state (admin only)
func (h *AuthHandler) Unlock(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if err := h.authService.UnlockAccount(uint(userID)); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("Unlock error: %v", err)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to unlock account")
		return
	}

	utils.MessageResponse(c, "Account unlocked")
}

type CheckIDRequest struct {
	LoginID string `json:"loginId" binding:"required,min=3,max=50"`
}

// CheckID reports whether a login identifier is available
func (h *AuthHandler) CheckID(c *gin.Context) {
	var req CheckIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	available, err := h.authService.CheckLoginID(req.LoginID)
	if err != nil {
		log.Printf("CheckID error: %v", err)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to check login id")
		return
	}

	utils.SuccessResponse(c, gin.H{"available": available})
}

type SendCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// SendCode issues a verification code to the email
func (h *AuthHandler) SendCode(c *gin.Context) {
	var req SendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.authService.SendVerificationCode(req.Email); err != nil {
		log.Printf("SendCode error: %v", err)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to send verification code")
		return
	}

	utils.MessageResponse(c, "Verification code sent")
}

type VerifyCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6"`
}

// VerifyCode checks a submitted verification code
func (h *AuthHandler) VerifyCode(c *gin.Context) {
	var req VerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.authService.VerifyCode(req.Email, req.Code); err != nil {
		switch {
		case errors.Is(err, service.ErrCodeExpired),
			errors.Is(err, service.ErrCodeMismatch),
			errors.Is(err, service.ErrCodeAlreadyUsed):
			utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		default:
			log.Printf("VerifyCode error: %v", err)
			utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to verify code")
		}
		return
	}

	utils.MessageResponse(c, "Email verified")
}

// Register creates the hospital account from the multipart registration
// form, storing the business license file
func (h *AuthHandler) Register(c *gin.Context) {
	loginID := c.PostForm("loginId")
	password := c.PostForm("password")
	email := c.PostForm("email")
	name := c.PostForm("name")
	hospitalName := c.PostForm("hospitalName")
	if loginID == "" || password == "" || email == "" || name == "" || hospitalName == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Missing required fields")
		return
	}

	file, err := c.FormFile("businessLicense")
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Business license file is required")
		return
	}
	if !utils.AllowedExtension(file.Filename, licenseExtensions) {
		utils.ErrorResponse(c, http.StatusBadRequest, "Unsupported file type")
		return
	}
	if file.Size > h.uploadCfg.MaxFileSize {
		utils.ErrorResponse(c, http.StatusBadRequest, "File too large")
		return
	}

	storedName := utils.UploadFilename(file.Filename)
	licensePath := filepath.Join(h.uploadCfg.Path, "license", storedName)
	if err := c.SaveUploadedFile(file, licensePath); err != nil {
		log.Printf("Register file save error: %v", err)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to store file")
		return
	}

	user, err := h.authService.Register(service.RegisterInput{
		LoginID:             loginID,
		Password:            password,
		Email:               email,
		Name:                name,
		HospitalName:        hospitalName,
		CeoName:             c.PostForm("ceoName"),
		Phone:               c.PostForm("phone"),
		Address:             c.PostForm("address"),
		AddressDetail:       c.PostForm("addressDetail"),
		BusinessNumber:      c.PostForm("businessNumber"),
		BusinessLicensePath: licensePath,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLoginIDTaken),
			errors.Is(err, service.ErrBusinessNumberUsed),
			errors.Is(err, service.ErrEmailNotVerified):
			utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		default:
			log.Printf("Register error: %v", err)
			utils.ErrorResponse(c, http.StatusInternalServerError, "Registration failed")
		}
		return
	}

	utils.CreatedResponse(c, gin.H{
		"id":      user.ID,
		"loginId": user.LoginID,
		"status":  "pending approval",
	})
}
