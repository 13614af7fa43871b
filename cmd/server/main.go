package main

import (
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"boneage-backend/internal/ai"
	"boneage-backend/internal/config"
	"boneage-backend/internal/database"
	"boneage-backend/internal/handler"
	"boneage-backend/internal/mailer"
	"boneage-backend/internal/middleware"
	"boneage-backend/internal/repository"
	"boneage-backend/internal/service"
	"boneage-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. Load configuration
	cfg := config.LoadConfig()
	log.Println("Configuration loaded successfully")

	// 2. Initialize JWT utilities with config
	utils.InitJWT(cfg.JWT.Secret, cfg.JWT.Expiry)

	// 3. Initialize database connection
	db := database.Connect(cfg)

	// 4. Ensure upload directories exist
	for _, dir := range []string{"xray", "license"} {
		if err := os.MkdirAll(filepath.Join(cfg.Upload.Path, dir), 0o755); err != nil {
			log.Fatalf("Failed to create upload directory: %v", err)
		}
	}

	// 5. Initialize repositories
	userRepo := repository.NewUserRepo(db)
	hospitalRepo := repository.NewHospitalRepo(db)
	verificationRepo := repository.NewVerificationRepo(db)
	creditRepo := repository.NewCreditRepo(db)
	patientRepo := repository.NewPatientRepo(db)
	analysisRepo := repository.NewAnalysisRepo(db)

	// 6. Initialize services
	smtpSender := mailer.NewSMTPSender(cfg.SMTP)
	predictor := ai.NewClient(cfg.AI.ServerURL, cfg.AI.Timeout)

	authService := service.NewAuthService(userRepo, hospitalRepo, verificationRepo, smtpSender)
	creditService := service.NewCreditService(creditRepo)
	patientService := service.NewPatientService(patientRepo)
	analysisService := service.NewAnalysisService(analysisRepo, creditRepo, patientService, predictor, cfg.Credit.PerAnalysis)

	// 7. Setup Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// 8. Setup Gin router
	r := gin.Default()
	r.MaxMultipartMemory = cfg.Upload.MaxFileSize

	// Apply CORS middleware
	r.Use(middleware.CORS(cfg))

	// Static serving for stored uploads
	r.Static("/uploads", cfg.Upload.Path)

	// 9. Register handlers
	authHandler := handler.NewAuthHandler(authService, cfg.Upload)
	analysisHandler := handler.NewAnalysisHandler(analysisService, cfg.Upload)
	patientHandler := handler.NewPatientHandler(patientService)
	creditHandler := handler.NewCreditHandler(creditService)

	// 10. Define routes
	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		utils.SuccessResponse(c, gin.H{
			"status":    "healthy",
			"service":   "boneage-backend",
			"timestamp": time.Now().UTC(),
		})
	})

	// Auth routes
	auth := r.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/check-id", authHandler.CheckID)
		auth.POST("/send-code", authHandler.SendCode)
		auth.POST("/verify-code", authHandler.VerifyCode)
		auth.POST("/register", authHandler.Register)

		auth.POST("/logout", middleware.AuthMiddleware(), authHandler.Logout)
		auth.GET("/me", middleware.AuthMiddleware(), authHandler.Me)
		auth.PUT("/password", middleware.AuthMiddleware(), authHandler.ChangePassword)
		auth.PATCH("/unlock/:userId", middleware.AuthMiddleware(), middleware.RequireAdmin(), authHandler.Unlock)
	}

	// Analysis routes (authenticated, hospital-scoped by token claims)
	analyses := r.Group("/analyses")
	analyses.Use(middleware.AuthMiddleware())
	{
		analyses.POST("", analysisHandler.Submit)
		analyses.GET("", analysisHandler.List)
		analyses.GET("/:id", analysisHandler.Get)
	}

	// Patient routes
	patients := r.Group("/patients")
	patients.Use(middleware.AuthMiddleware())
	{
		patients.GET("/check", patientHandler.Check)
	}

	// Credit routes
	credits := r.Group("/credits")
	credits.Use(middleware.AuthMiddleware())
	{
		credits.GET("", creditHandler.Balance)
		credits.GET("/transactions", creditHandler.Transactions)
	}

	// 11. Setup graceful shutdown
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		if err := r.Run(":" + cfg.Server.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")
	log.Println("Server exited")
}
