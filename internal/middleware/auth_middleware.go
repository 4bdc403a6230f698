package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ArowuTest/loyalty-backend/internal/models"
	"github.com/ArowuTest/loyalty-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

const identityKey = "identity"

// TokenParser verifies access tokens
type TokenParser interface {
	Parse(tokenString string) (*jwt.Claims, error)
}

// JWTAuthMiddleware resolves the bearer token into a models.Identity on the context.
func JWTAuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		const bearerSchema = "Bearer "
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required", "code": "unauthorized"})
			return
		}
		if !strings.HasPrefix(authHeader, bearerSchema) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must start with Bearer ", "code": "unauthorized"})
			return
		}

		claims, err := tokens.Parse(strings.TrimSpace(authHeader[len(bearerSchema):]))
		if err != nil {
			slog.Warn("Token validation failed", "error", err, "path", c.FullPath())
			if errors.Is(err, jwtlib.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token has expired", "code": "unauthorized"})
			} else {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token", "code": "unauthorized"})
			}
			return
		}

		identity, err := identityFromClaims(claims)
		if err != nil {
			slog.Warn("Token claims rejected", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims", "code": "unauthorized"})
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

func identityFromClaims(claims *jwt.Claims) (*models.Identity, error) {
	userID, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return nil, errors.New("subject is not an object id")
	}
	identity := &models.Identity{UserID: userID, Role: claims.Role, IsMainBranch: claims.IsMainBranch}

	switch claims.Role {
	case models.RoleCustomer:
	case models.RoleStaff:
		if identity.MerchantID, err = primitive.ObjectIDFromHex(claims.MerchantID); err != nil {
			return nil, errors.New("staff token without merchant")
		}
		if claims.BranchID != "" {
			if identity.BranchID, err = primitive.ObjectIDFromHex(claims.BranchID); err != nil {
				return nil, errors.New("branch is not an object id")
			}
		}
	default:
		return nil, errors.New("unknown role")
	}
	return identity, nil
}

// GetIdentity returns the identity set by JWTAuthMiddleware.
func GetIdentity(c *gin.Context) (*models.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*models.Identity)
	return identity, ok
}

func requireIdentity(allow func(*models.Identity) bool, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required", "code": "unauthorized"})
			return
		}
		if !allow(identity) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": message, "code": "forbidden"})
			return
		}
		c.Next()
	}
}

// CustomerOnly admits customer tokens.
func CustomerOnly() gin.HandlerFunc {
	return requireIdentity((*models.Identity).IsCustomer, "customer access required")
}

// StaffOnly admits staff of any branch.
func StaffOnly() gin.HandlerFunc {
	return requireIdentity((*models.Identity).IsStaff, "staff access required")
}

// MainBranchOnly admits staff of a merchant's main branch.
func MainBranchOnly() gin.HandlerFunc {
	return requireIdentity(func(i *models.Identity) bool {
		return i.IsStaff() && i.IsMainBranch
	}, "main branch staff access required")
}
