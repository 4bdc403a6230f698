package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ArowuTest/loyalty-backend/internal/middleware"
	"github.com/ArowuTest/loyalty-backend/internal/models"
	"github.com/ArowuTest/loyalty-backend/internal/services"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

// respondError writes the HTTP form of a service error.
func respondError(c *gin.Context, err error) {
	var (
		validation *services.ValidationError
		notFound   *services.NotFoundError
		limit      *services.DailySpinLimitError
		points     *services.InsufficientPointsError
		conflict   *services.ConcurrencyConflictError
		rank       *services.RankRequiredError
	)
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Message, "code": "validation_error"})
	case errors.As(err, &limit):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "daily_spin_limit_reached", "spins_today": limit.SpinsToday, "max_spins": limit.MaxSpins})
	case errors.As(err, &points):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "insufficient_points", "required": points.Required, "current": points.Current})
	case errors.Is(err, services.ErrInvalidSpinType):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_spin_type"})
	case errors.Is(err, services.ErrDrawUnavailable):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "draw_unavailable"})
	case errors.Is(err, services.ErrNoPrizesAvailable):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "no_prizes_available"})
	case errors.Is(err, services.ErrAlreadyCheckedIn):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "already_checked_in"})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "not_found"})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "code": "unauthorized"})
	case errors.As(err, &rank):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "code": "rank_required", "required_rank": rank.Required})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "code": "forbidden"})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "concurrency_conflict"})
	default:
		slog.Error("Request failed", "error", err, "path", c.FullPath())
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "code": "internal_error"})
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message, "code": "validation_error"})
}

// callerIdentity returns the authenticated caller, answering 401 when absent.
func callerIdentity(c *gin.Context) (*models.Identity, bool) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		respondError(c, services.ErrUnauthorized)
		return nil, false
	}
	return identity, true
}

// objectIDParam parses a path parameter, answering 400 when malformed.
func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		badRequest(c, "Invalid "+name+" format")
		return primitive.NilObjectID, false
	}
	return id, true
}

// optionalObjectID parses an optional hex id; empty input yields nil.
func optionalObjectID(value string) (*primitive.ObjectID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(value)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	return page, perPage
}
