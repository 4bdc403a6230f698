package handlers

import (
	"net/http"

	"github.com/ArowuTest/loyalty-backend/internal/models"
	"github.com/ArowuTest/loyalty-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// RedemptionHandler handles reward redemption requests
type RedemptionHandler struct {
	redemptionService services.RedemptionService
}

// NewRedemptionHandler creates a new RedemptionHandler
func NewRedemptionHandler(redemptionService services.RedemptionService) *RedemptionHandler {
	return &RedemptionHandler{redemptionService: redemptionService}
}

// Redeem handles POST /rewards/:id/redeem
func (h *RedemptionHandler) Redeem(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	rewardID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.redemptionService.Redeem(c.Request.Context(), identity.UserID, rewardID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":           "Reward redeemed successfully",
		"redemption":        result.Redemption,
		"remaining_balance": result.RemainingBalance,
	})
}

// statusParam parses the optional ?status= filter, answering 400 when unknown.
func statusParam(c *gin.Context) (models.RedemptionStatus, bool) {
	status := models.RedemptionStatus(c.Query("status"))
	switch status {
	case "", models.RedemptionActive, models.RedemptionUsed, models.RedemptionExpired, models.RedemptionCancelled:
		return status, true
	}
	badRequest(c, "Invalid status")
	return "", false
}

// MyRewards handles GET /rewards/my-rewards?status=
func (h *RedemptionHandler) MyRewards(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	status, ok := statusParam(c)
	if !ok {
		return
	}

	redemptions, err := h.redemptionService.ListForUser(c.Request.Context(), identity.UserID, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rewards": redemptions})
}

// List handles GET /merchant/redemptions?status=&branch_id=
func (h *RedemptionHandler) List(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	filter := services.RedemptionFilter{}
	if filter.Status, ok = statusParam(c); !ok {
		return
	}
	if branch := c.Query("branch_id"); branch != "all" {
		branchID, err := optionalObjectID(branch)
		if err != nil {
			badRequest(c, "Invalid branch_id format")
			return
		}
		filter.BranchID = branchID
	}

	redemptions, err := h.redemptionService.ListForMerchant(c.Request.Context(), identity, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"redemptions": redemptions})
}

// ValidateRequest is the body of POST /merchant/redemptions/validate
type ValidateRequest struct {
	Code string `json:"code" binding:"required"`
}

// Validate handles POST /merchant/redemptions/validate
func (h *RedemptionHandler) Validate(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	var request ValidateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, "code is required")
		return
	}

	redemption, err := h.redemptionService.Validate(c.Request.Context(), identity, request.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Redemption validated", "redemption": redemption})
}
