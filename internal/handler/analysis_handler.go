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

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".dcm"}

type AnalysisHandler struct {
	analysisService *service.AnalysisService
	uploadCfg       config.UploadConfig
}

func NewAnalysisHandler(analysisService *service.AnalysisService, uploadCfg config.UploadConfig) *AnalysisHandler {
	return &AnalysisHandler{
		analysisService: analysisService,
		uploadCfg:       uploadCfg,
	}
}

// Submit accepts the multipart analysis request: the X-ray image plus
// patient and clinical attributes. The request blocks on the external
// prediction call.
func (h *AnalysisHandler) Submit(c *gin.Context) {
	hospitalID := c.GetUint("hospitalID")
	userID := c.GetUint("userID")

	file, err := c.FormFile("image")
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "X-ray image is required")
		return
	}
	if !utils.AllowedExtension(file.Filename, imageExtensions) {
		utils.ErrorResponse(c, http.StatusBadRequest, "Unsupported file type")
		return
	}
	if file.Size > h.uploadCfg.MaxFileSize {
		utils.ErrorResponse(c, http.StatusBadRequest, "File too large")
		return
	}

	input, err := parseSubmitForm(c)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	storedName := utils.UploadFilename(file.Filename)
	imagePath := filepath.Join(h.uploadCfg.Path, "xray", storedName)
	if err := c.SaveUploadedFile(file, imagePath); err != nil {
		log.Printf("Submit file save error: %v", err)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to store image")
		return
	}

	result, err := h.analysisService.Submit(c.Request.Context(), hospitalID, userID, imagePath, *input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInsufficientCredit):
			utils.ErrorResponse(c, http.StatusBadRequest, "Insufficient credit")
		case errors.Is(err, service.ErrPredictionFailed):
			utils.ErrorResponse(c, http.StatusInternalServerError, "Bone age analysis failed")
		default:
			log.Printf("Submit error: %v", err)
			utils.ErrorResponse(c, http.StatusInternalServerError, "Analysis failed")
		}
		return
	}

	utils.CreatedResponse(c, result)
}

// List returns the hospital's analyses with pagination, search and sorting
func (h *AnalysisHandler) List(c *gin.Context) {
	hospitalID := c.GetUint("hospitalID")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	rows, total, err := h.analysisService.List(hospitalID, repository.ListParams{
		Page:      page,
		Limit:     limit,
		Search:    c.Query("search"),
		SortField: c.Query("sortField"),
		SortOrder: c.Query("sortOrder"),
	})
	if err != nil {
		log.Printf("List error: %v", err)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list analyses")
		return
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	utils.SuccessResponse(c, gin.H{
		"rows": rows,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// Get returns one analysis with patient details, scoped to the hospital
func (h *AnalysisHandler) Get(c *gin.Context) {
	hospitalID := c.GetUint("hospitalID")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid analysis ID")
		return
	}

	analysis, err := h.analysisService.Get(hospitalID, uint(id))
	if err != nil {
		if errors.Is(err, repository.ErrAnalysisNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, "Analysis not found")
			return
		}
		log.Printf("Get error: %v", err)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to load analysis")
		return
	}

	utils.SuccessResponse(c, analysis)
}

func parseSubmitForm(c *gin.Context) (*service.SubmitInput, error) {
	patientCode := c.PostForm("patientCode")
	patientName := c.PostForm("patientName")
	if patientCode == "" || patientName == "" {
		return nil, errors.New("patient code and name are required")
	}

	sex, err := strconv.Atoi(c.PostForm("sex"))
	if err != nil {
		return nil, errors.New("sex must be an integer")
	}
	height, err := strconv.ParseFloat(c.PostForm("height"), 64)
	if err != nil {
		return nil, errors.New("height must be a number")
	}
	ageMonths, err := strconv.Atoi(c.PostForm("ageMonths"))
	if err != nil || ageMonths < 0 {
		return nil, errors.New("ageMonths must be a non-negative integer")
	}

	input := &service.SubmitInput{
		PatientCode:      patientCode,
		PatientName:      patientName,
		PatientBirthDate: c.PostForm("birthDate"),
		PatientGender:    c.PostForm("gender"),
		Sex:              sex,
		Height:           height,
		AgeMonths:        ageMonths,
		Physician:        c.PostForm("physician"),
	}

	if v := c.PostForm("weight"); v != "" {
		weight, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, errors.New("weight must be a number")
		}
		input.Weight = &weight
	}
	if v := c.PostForm("fatherHeight"); v != "" {
		fh, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, errors.New("fatherHeight must be a number")
		}
		input.FatherHeight = &fh
	}
	if v := c.PostForm("motherHeight"); v != "" {
		mh, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, errors.New("motherHeight must be a number")
		}
		input.MotherHeight = &mh
	}

	return input, nil
}
