package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for tokens that fail signature or claim checks.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the identity carried by an access token.
type Claims struct {
	Subject      string
	Role         string
	MerchantID   string
	BranchID     string
	IsMainBranch bool
}

// TokenService issues and verifies HS256 access tokens.
type TokenService struct {
	secret    []byte
	expiresIn time.Duration
	now       func() time.Time
}

// NewTokenService creates a TokenService. expiresIn is in seconds.
func NewTokenService(secret string, expiresIn int) *TokenService {
	return &TokenService{
		secret:    []byte(secret),
		expiresIn: time.Duration(expiresIn) * time.Second,
		now:       time.Now,
	}
}

// Issue signs a token for the given claims.
func (s *TokenService) Issue(c Claims) (string, error) {
	now := s.now()
	payload := jwt.MapClaims{
		"sub":  c.Subject,
		"role": c.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(s.expiresIn).Unix(),
	}
	if c.MerchantID != "" {
		payload["merchant_id"] = c.MerchantID
		payload["branch_id"] = c.BranchID
		payload["is_main"] = c.IsMainBranch
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token and extracts its claims.
func (s *TokenService) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	claims.Subject, _ = mc["sub"].(string)
	claims.Role, _ = mc["role"].(string)
	claims.MerchantID, _ = mc["merchant_id"].(string)
	claims.BranchID, _ = mc["branch_id"].(string)
	claims.IsMainBranch, _ = mc["is_main"].(bool)
	if claims.Subject == "" || claims.Role == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
