package handlers

import (
	"net/http"

	"github.com/ArowuTest/loyalty-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// UserHandler handles the caller's points balance requests
type UserHandler struct {
	userService services.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// GetPoints handles GET /me/points
func (h *UserHandler) GetPoints(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	summary, err := h.userService.GetPoints(c.Request.Context(), identity.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetPointHistory handles GET /me/points/history
func (h *UserHandler) GetPointHistory(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	history, err := h.userService.GetPointHistory(c.Request.Context(), identity.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": history})
}
