package handlers

import (
	"net/http"

	"github.com/ArowuTest/loyalty-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// GamificationHandler handles daily check-in requests
type GamificationHandler struct {
	checkInService services.CheckInService
}

// NewGamificationHandler creates a new GamificationHandler
func NewGamificationHandler(checkInService services.CheckInService) *GamificationHandler {
	return &GamificationHandler{checkInService: checkInService}
}

// CheckInRequest is the optional body of POST /gamification/check-in
type CheckInRequest struct {
	MerchantID string `json:"merchant_id"`
}

// CheckIn handles POST /gamification/check-in
func (h *GamificationHandler) CheckIn(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	var request CheckInRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&request); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	merchantID, err := optionalObjectID(request.MerchantID)
	if err != nil {
		badRequest(c, "Invalid merchant_id format")
		return
	}

	result, err := h.checkInService.CheckIn(c.Request.Context(), identity.UserID, merchantID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Status handles GET /gamification/status
func (h *GamificationHandler) Status(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	status, err := h.checkInService.Status(c.Request.Context(), identity.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
