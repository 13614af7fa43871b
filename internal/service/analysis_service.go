package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"

	"boneage-backend/internal/ai"
	"boneage-backend/internal/models"
	"boneage-backend/internal/repository"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrPredictionFailed is returned when the external prediction service
// fails or times out; the analysis row is kept flagged as failed
var ErrPredictionFailed = errors.New("bone age prediction failed")

// boneAgePattern matches the service's free-text bone age, e.g. "12Y 8M"
var boneAgePattern = regexp.MustCompile(`(\d+)Y\s*(\d+)M`)

// Predictor is the external prediction gateway contract
type Predictor interface {
	Predict(ctx context.Context, imagePath string, attrs ai.PatientAttrs) (*ai.Prediction, error)
}

type AnalysisService struct {
	analysisRepo   *repository.AnalysisRepository
	creditRepo     *repository.CreditRepository
	patientService *PatientService
	predictor      Predictor
	creditCost     int
}

func NewAnalysisService(
	analysisRepo *repository.AnalysisRepository,
	creditRepo *repository.CreditRepository,
	patientService *PatientService,
	predictor Predictor,
	creditCost int,
) *AnalysisService {
	if creditCost <= 0 {
		creditCost = 1
	}
	return &AnalysisService{
		analysisRepo:   analysisRepo,
		creditRepo:     creditRepo,
		patientService: patientService,
		predictor:      predictor,
		creditCost:     creditCost,
	}
}

// SubmitInput carries one analysis request
type SubmitInput struct {
	PatientCode      string
	PatientName      string
	PatientBirthDate string
	PatientGender    string
	Sex              int
	Height           float64
	Weight           *float64
	AgeMonths        int
	FatherHeight     *float64
	MotherHeight     *float64
	Physician        string
}

// SubmitResult is returned to the caller on success
type SubmitResult struct {
	AnalysisID    uint           `json:"analysis_id"`
	BoneAgeYears  *int           `json:"bone_age_years"`
	BoneAgeMonths *int           `json:"bone_age_months"`
	Result        datatypes.JSON `json:"result"`
}

// Submit runs the analysis workflow: credit pre-check, patient
// resolution, record creation, prediction call, result persistence and
// credit debit. The processing row is committed before the prediction
// call so a failure leaves a permanent failed marker; completion, debit
// and the ledger append share one transaction so a completed analysis
// can never be observed uncharged.
func (s *AnalysisService) Submit(ctx context.Context, hospitalID, userID uint, imagePath string, input SubmitInput) (*SubmitResult, error) {
	balance, err := s.creditRepo.GetBalance(hospitalID)
	if err != nil {
		return nil, fmt.Errorf("failed to check balance: %w", err)
	}
	if balance < s.creditCost {
		return nil, ErrInsufficientCredit
	}

	patient, err := s.patientService.FindOrCreate(
		hospitalID, input.PatientCode, input.PatientName, input.PatientBirthDate, input.PatientGender)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve patient: %w", err)
	}

	analysis := &models.Analysis{
		HospitalID:             hospitalID,
		PatientID:              patient.ID,
		UserID:                 userID,
		ImagePath:              imagePath,
		ChronologicalAgeYears:  input.AgeMonths / 12,
		ChronologicalAgeMonths: input.AgeMonths % 12,
		Height:                 &input.Height,
		Weight:                 input.Weight,
		Physician:              input.Physician,
		Status:                 models.AnalysisStatusProcessing,
	}
	if err := s.analysisRepo.Create(analysis); err != nil {
		return nil, fmt.Errorf("failed to create analysis: %w", err)
	}

	prediction, err := s.predictor.Predict(ctx, imagePath, ai.PatientAttrs{
		Sex:          input.Sex,
		Height:       input.Height,
		AgeMonths:    input.AgeMonths,
		FatherHeight: input.FatherHeight,
		MotherHeight: input.MotherHeight,
	})
	if err != nil {
		log.Printf("Prediction failed for analysis %d: %v", analysis.ID, err)
		if markErr := s.analysisRepo.MarkFailed(analysis.ID); markErr != nil {
			log.Printf("Failed to mark analysis %d failed: %v", analysis.ID, markErr)
		}
		return nil, ErrPredictionFailed
	}

	years, months := ParseBoneAge(prediction.BoneAge)
	payload := datatypes.JSON(prediction.Raw)

	err = s.analysisRepo.Transaction(func(tx *gorm.DB) error {
		if err := s.analysisRepo.CompleteTx(tx, analysis.ID, years, months, payload); err != nil {
			return err
		}
		_, err := s.creditRepo.DebitTx(tx, hospitalID, s.creditCost, &analysis.ID, "bone age analysis")
		return err
	})
	if err != nil {
		if markErr := s.analysisRepo.MarkFailed(analysis.ID); markErr != nil {
			log.Printf("Failed to mark analysis %d failed: %v", analysis.ID, markErr)
		}
		if errors.Is(err, repository.ErrInsufficientBalance) {
			// Balance drained by a concurrent request between the
			// pre-check and the debit
			return nil, ErrInsufficientCredit
		}
		return nil, fmt.Errorf("failed to complete analysis: %w", err)
	}

	return &SubmitResult{
		AnalysisID:    analysis.ID,
		BoneAgeYears:  years,
		BoneAgeMonths: months,
		Result:        payload,
	}, nil
}

// List returns one page of the hospital's analyses
func (s *AnalysisService) List(hospitalID uint, params repository.ListParams) ([]models.AnalysisListItem, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 || params.Limit > 100 {
		params.Limit = 20
	}
	return s.analysisRepo.List(hospitalID, params)
}

// Get returns one analysis scoped to the hospital
func (s *AnalysisService) Get(hospitalID, id uint) (*models.Analysis, error) {
	return s.analysisRepo.GetByID(hospitalID, id)
}

// ParseBoneAge extracts integer years and months from the prediction
// service's "<N>Y <M>M" text. Unparseable input yields nil values rather
// than an error; the analysis still completes.
func ParseBoneAge(text string) (*int, *int) {
	match := boneAgePattern.FindStringSubmatch(text)
	if match == nil {
		return nil, nil
	}
	years, err := strconv.Atoi(match[1])
	if err != nil {
		return nil, nil
	}
	months, err := strconv.Atoi(match[2])
	if err != nil {
		return nil, nil
	}
	return &years, &months
}
