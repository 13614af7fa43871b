package handler

import (
	"log"
	"net/http"
	"strconv"

	"boneage-backend/internal/service"
	"boneage-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type CreditHandler struct {
	creditService *service.CreditService
}

func NewCreditHandler(creditService *service.CreditService) *CreditHandler {
	return &CreditHandler{
		creditService: creditService,
	}
}

// Balance returns the hospital's current credit balance
func (h *CreditHandler) Balance(c *gin.Context) {
	hospitalID := c.GetUint("hospitalID")

	balance, err := h.creditService.Balance(hospitalID)
	if err != nil {
		log.Printf("Balance error: %v", err)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to load balance")
		return
	}

	utils.SuccessResponse(c, gin.H{"balance": balance})
}

// Transactions returns the hospital's recent ledger entries
func (h *CreditHandler) Transactions(c *gin.Context) {
	hospitalID := c.GetUint("hospitalID")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	entries, err := h.creditService.Transactions(hospitalID, limit)
	if err != nil {
		log.Printf("Transactions error: %v", err)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to load transactions")
		return
	}

	utils.SuccessResponse(c, entries)
}
