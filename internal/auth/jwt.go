package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/woodcraft-crm/leadflow-api/internal/config"
	"github.com/woodcraft-crm/leadflow-api/internal/workflow"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrInvalidRole  = errors.New("token carries an unknown role")
)

// Claims are the dashboard session claims
type Claims struct {
	VendorID string `json:"vendor_id"`
	Role     string `json:"role"`
	Name     string `json:"name"`
	jwt.RegisteredClaims
}

// JWTValidator validates HS256 session tokens
type JWTValidator struct {
	secret   []byte
	issuer   string
	audience string
}

// NewJWTValidator creates a new JWT validator
func NewJWTValidator(cfg *config.AuthConfig) *JWTValidator {
	return &JWTValidator{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
	}
}

// ValidateToken validates a token and returns the actor it identifies
func (v *JWTValidator) ValidateToken(tokenString string) (workflow.ActorContext, error) {
	if len(v.secret) == 0 {
		return workflow.ActorContext{}, fmt.Errorf("%w: no signing secret configured", ErrInvalidToken)
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return workflow.ActorContext{}, ErrExpiredToken
		}
		return workflow.ActorContext{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return workflow.ActorContext{}, ErrInvalidToken
	}

	return claims.Actor()
}

// Actor converts validated claims into an actor
func (c *Claims) Actor() (workflow.ActorContext, error) {
	vendorID, err := uuid.Parse(c.VendorID)
	if err != nil {
		return workflow.ActorContext{}, fmt.Errorf("%w: invalid vendor_id", ErrInvalidToken)
	}
	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return workflow.ActorContext{}, fmt.Errorf("%w: invalid sub", ErrInvalidToken)
	}

	role := workflow.Role(strings.ToLower(c.Role))
	if !role.IsValid() || role == workflow.RoleService {
		return workflow.ActorContext{}, ErrInvalidRole
	}

	return workflow.ActorContext{
		VendorID: vendorID,
		UserID:   userID,
		Role:     role,
		Name:     c.Name,
	}, nil
}

// IssueToken signs a session token for actor. It is used by tests and local tooling.
func IssueToken(cfg *config.AuthConfig, actor workflow.ActorContext, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		VendorID: actor.VendorID.String(),
		Role:     string(actor.Role),
		Name:     actor.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.UserID.String(),
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{cfg.Audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
}
