package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/infrastructure/config"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrMissingUserID    = errors.New("missing subject in claims")
	ErrInvalidRole      = errors.New("unknown role in claims")
)

// Claims are the bearer token claims issued by the auth provider.
// The subject is the user id.
type Claims struct {
	jwt.RegisteredClaims
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
}

// JWTService validates bearer tokens and turns them into identities
type JWTService struct {
	secret   []byte
	issuer   string
	audience string
	leeway   time.Duration
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		leeway:   cfg.Leeway,
	}
}

// Validate parses an HS256 token and returns the caller identity
func (s *JWTService) Validate(tokenString string) (identity.Identity, *Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(s.leeway),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	if s.audience != "" {
		opts = append(opts, jwt.WithAudience(s.audience))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return identity.Identity{}, nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return identity.Identity{}, nil, ErrTokenNotYetValid
		case errors.Is(err, jwt.ErrTokenInvalidIssuer), errors.Is(err, jwt.ErrTokenInvalidAudience):
			return identity.Identity{}, nil, ErrInvalidClaims
		}
		return identity.Identity{}, nil, ErrInvalidToken
	}
	if !token.Valid {
		return identity.Identity{}, nil, ErrInvalidToken
	}

	id, err := claims.Identity()
	if err != nil {
		return identity.Identity{}, nil, err
	}
	return id, claims, nil
}

// Identity converts the claims into a domain identity.
// A missing role defaults to client.
func (c *Claims) Identity() (identity.Identity, error) {
	if c.Subject == "" {
		return identity.Identity{}, ErrMissingUserID
	}
	userID, err := uuid.Parse(c.Subject)
	if err != nil || userID == uuid.Nil {
		return identity.Identity{}, ErrInvalidClaims
	}

	role := identity.Role(strings.ToLower(c.Role))
	if role == "" {
		role = identity.RoleClient
	}
	if !role.IsValid() {
		return identity.Identity{}, ErrInvalidRole
	}
	return identity.Identity{UserID: userID, Role: role, Email: c.Email}, nil
}

// GenerateToken signs a token for id. Production tokens come from the auth
// provider; this is used by tests and local tooling.
func (s *JWTService) GenerateToken(id identity.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   id.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Role:  string(id.Role),
		Email: id.Email,
	}
	if s.audience != "" {
		claims.Audience = jwt.ClaimStrings{s.audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// GetRemainingTTL returns the remaining time until the token expires
func (c *Claims) GetRemainingTTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	remaining := time.Until(c.ExpiresAt.Time)
	if remaining < 0 {
		return 0
	}
	return remaining
}
