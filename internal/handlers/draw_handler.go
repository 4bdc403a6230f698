package handlers

import (
	"net/http"

	"github.com/ArowuTest/loyalty-backend/internal/services"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DrawHandler handles merchant administration of draws and prizes
type DrawHandler struct {
	drawService services.DrawService
}

// NewDrawHandler creates a new DrawHandler
func NewDrawHandler(drawService services.DrawService) *DrawHandler {
	return &DrawHandler{
		drawService: drawService,
	}
}

func staffMerchant(c *gin.Context) (primitive.ObjectID, bool) {
	identity, ok := callerIdentity(c)
	if !ok {
		return primitive.NilObjectID, false
	}
	if identity.MerchantID.IsZero() {
		respondError(c, services.ErrForbidden)
		return primitive.NilObjectID, false
	}
	return identity.MerchantID, true
}

// ListDraws handles GET /merchant/lucky-draws
func (h *DrawHandler) ListDraws(c *gin.Context) {
	merchantID, ok := staffMerchant(c)
	if !ok {
		return
	}
	draws, err := h.drawService.ListDraws(c.Request.Context(), merchantID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"draws": draws})
}

// GetDraw handles GET /merchant/lucky-draws/:id
func (h *DrawHandler) GetDraw(c *gin.Context) {
	merchantID, ok := staffMerchant(c)
	if !ok {
		return
	}
	drawID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	draw, err := h.drawService.GetDraw(c.Request.Context(), merchantID, drawID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, draw)
}

// CreateDraw handles POST /merchant/lucky-draws
func (h *DrawHandler) CreateDraw(c *gin.Context) {
	merchantID, ok := staffMerchant(c)
	if !ok {
		return
	}
	var input services.DrawInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	draw, err := h.drawService.CreateDraw(c.Request.Context(), merchantID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, draw)
}

// UpdateDraw handles PUT /merchant/lucky-draws/:id
func (h *DrawHandler) UpdateDraw(c *gin.Context) {
	merchantID, ok := staffMerchant(c)
	if !ok {
		return
	}
	drawID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var input services.DrawInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	draw, err := h.drawService.UpdateDraw(c.Request.Context(), merchantID, drawID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, draw)
}

// DeleteDraw handles DELETE /merchant/lucky-draws/:id
func (h *DrawHandler) DeleteDraw(c *gin.Context) {
	merchantID, ok := staffMerchant(c)
	if !ok {
		return
	}
	drawID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.drawService.DeleteDraw(c.Request.Context(), merchantID, drawID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Draw deleted"})
}

// AddPrize handles POST /merchant/lucky-draws/:id/prizes
func (h *DrawHandler) AddPrize(c *gin.Context) {
	merchantID, ok := staffMerchant(c)
	if !ok {
		return
	}
	drawID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var input services.PrizeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	prize, err := h.drawService.AddPrize(c.Request.Context(), merchantID, drawID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, prize)
}

// UpdatePrize handles PUT /merchant/lucky-draws/:id/prizes/:prizeId
func (h *DrawHandler) UpdatePrize(c *gin.Context) {
	merchantID, ok := staffMerchant(c)
	if !ok {
		return
	}
	drawID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	prizeID, ok := objectIDParam(c, "prizeId")
	if !ok {
		return
	}
	var input services.PrizeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	prize, err := h.drawService.UpdatePrize(c.Request.Context(), merchantID, drawID, prizeID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prize)
}

// DeletePrize handles DELETE /merchant/lucky-draws/:id/prizes/:prizeId
func (h *DrawHandler) DeletePrize(c *gin.Context) {
	merchantID, ok := staffMerchant(c)
	if !ok {
		return
	}
	drawID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	prizeID, ok := objectIDParam(c, "prizeId")
	if !ok {
		return
	}
	if err := h.drawService.DeletePrize(c.Request.Context(), merchantID, drawID, prizeID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Prize deleted"})
}

// GetStatistics handles GET /merchant/lucky-draws/:id/statistics
func (h *DrawHandler) GetStatistics(c *gin.Context) {
	merchantID, ok := staffMerchant(c)
	if !ok {
		return
	}
	drawID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	stats, err := h.drawService.GetStatistics(c.Request.Context(), merchantID, drawID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
