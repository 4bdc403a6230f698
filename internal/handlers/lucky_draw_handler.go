package handlers

import (
	"net/http"

	"github.com/ArowuTest/loyalty-backend/internal/models"
	"github.com/ArowuTest/loyalty-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// LuckyDrawHandler handles customer lucky draw requests
type LuckyDrawHandler struct {
	spinService    services.SpinService
	checkInService services.CheckInService
}

// NewLuckyDrawHandler creates a new LuckyDrawHandler
func NewLuckyDrawHandler(spinService services.SpinService, checkInService services.CheckInService) *LuckyDrawHandler {
	return &LuckyDrawHandler{spinService: spinService, checkInService: checkInService}
}

// ListDraws handles GET /lucky-draws?merchant_id=
func (h *LuckyDrawHandler) ListDraws(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	merchantID, err := optionalObjectID(c.Query("merchant_id"))
	if err != nil || merchantID == nil {
		badRequest(c, "merchant_id is required")
		return
	}

	draws, err := h.spinService.ListAvailableDraws(c.Request.Context(), identity.UserID, *merchantID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"draws": draws})
}

// GetDraw handles GET /lucky-draws/:id
func (h *LuckyDrawHandler) GetDraw(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	drawID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	draw, err := h.spinService.GetDraw(c.Request.Context(), identity.UserID, drawID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, draw)
}

// GetDay7Draw handles GET /lucky-draws/day7-draw?merchant_id=
func (h *LuckyDrawHandler) GetDay7Draw(c *gin.Context) {
	merchantID, err := optionalObjectID(c.Query("merchant_id"))
	if err != nil {
		badRequest(c, "Invalid merchant_id format")
		return
	}

	draw, err := h.checkInService.GetDay7Draw(c.Request.Context(), merchantID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, draw)
}

// SpinRequest is the body of POST /lucky-draws/:id/spin
type SpinRequest struct {
	SpinType string `json:"spin_type"`
}

// Spin handles POST /lucky-draws/:id/spin
func (h *LuckyDrawHandler) Spin(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	drawID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	request := SpinRequest{SpinType: string(models.SpinTypePointsRedemption)}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&request); err != nil {
			badRequest(c, err.Error())
			return
		}
	}

	result, err := h.spinService.Spin(c.Request.Context(), identity.UserID, drawID, models.SpinType(request.SpinType))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetHistory handles GET /lucky-draws/history?draw_id=&page=&per_page=
func (h *LuckyDrawHandler) GetHistory(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	drawID, err := optionalObjectID(c.Query("draw_id"))
	if err != nil {
		badRequest(c, "Invalid draw_id format")
		return
	}
	page, perPage := pageParams(c)

	history, err := h.spinService.GetSpinHistory(c.Request.Context(), identity.UserID, drawID, page, perPage)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

// GetHistoryDetail handles GET /lucky-draws/history/:id
func (h *LuckyDrawHandler) GetHistoryDetail(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	historyID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	spin, err := h.spinService.GetSpinDetail(c.Request.Context(), identity.UserID, historyID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, spin)
}
