package handler

import (
	"log"
	"net/http"

	"boneage-backend/internal/service"
	"boneage-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type PatientHandler struct {
	patientService *service.PatientService
}

func NewPatientHandler(patientService *service.PatientService) *PatientHandler {
	return &PatientHandler{
		patientService: patientService,
	}
}

// Check reports whether a patient exists for the hospital by
// (code, name); used by the submission form to prefill patient data
func (h *PatientHandler) Check(c *gin.Context) {
	hospitalID := c.GetUint("hospitalID")

	code := c.Query("patientCode")
	name := c.Query("patientName")
	if code == "" || name == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "patientCode and patientName are required")
		return
	}

	patient, exists, err := h.patientService.Check(hospitalID, code, name)
	if err != nil {
		log.Printf("Patient check error: %v", err)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to check patient")
		return
	}

	if !exists {
		utils.SuccessResponse(c, gin.H{"exists": false})
		return
	}
	utils.SuccessResponse(c, gin.H{"exists": true, "patient": patient})
}
