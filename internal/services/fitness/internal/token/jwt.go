package token

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gunheehan/FitnessPT-api/internal/pkg/middleware"
)

const refreshTokenBytes = 64

var ErrInvalidToken = errors.New("invalid token")

// JwtService issues and verifies HS256 access tokens and opaque refresh tokens.
type JwtService struct {
	secret   secretProvider
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

type JwtConfig struct {
	Secret   secretProvider
	Issuer   string
	Audience string
	TTL      time.Duration
	// Now overrides the clock, it defaults to time.Now.
	Now func() time.Time
}

func NewJWTService(cfg JwtConfig) *JwtService {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &JwtService{
		secret:   cfg.Secret,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      cfg.TTL,
		now:      now,
	}
}

func (s *JwtService) TTL() time.Duration {
	return s.ttl
}

// IssueAccessToken signs a token for the user that expires after the configured TTL.
func (s *JwtService) IssueAccessToken(userID int64, email, role string) (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Email:        email,
		Role:         role,
		AuthProvider: ProviderGoogle,
	}

	tk, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret.Get())
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return tk, nil
}

// IssueRefreshToken returns 64 random bytes, base64 encoded. The token carries no
// claims, callers persist it to make it redeemable.
func (s *JwtService) IssueRefreshToken() (string, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}

	return base64.StdEncoding.EncodeToString(b), nil
}

// ParseAccessToken verifies signature, issuer, audience and expiry without any leeway.
func (s *JwtService) ParseAccessToken(tokenStr string) (Claims, error) {
	var claims Claims
	tk, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return s.secret.Get(), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !tk.Valid {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}

// ParsePrincipal verifies the token like ParseAccessToken and describes its bearer.
// It satisfies middleware.TokenParser.
func (s *JwtService) ParsePrincipal(tokenStr string) (middleware.Principal, error) {
	claims, err := s.ParseAccessToken(tokenStr)
	if err != nil {
		return middleware.Principal{}, err
	}

	return claims.Principal(), nil
}

// ValidateAccessToken reports whether the token is authentic and unexpired.
func (s *JwtService) ValidateAccessToken(tokenStr string) bool {
	_, err := s.ParseAccessToken(tokenStr)
	return err == nil
}

// ExtractUserID reads the subject without verifying the signature. It must never be
// the only input of an authorization decision. Returns 0 on malformed tokens.
func (s *JwtService) ExtractUserID(tokenStr string) int64 {
	var claims Claims
	_, _, err := jwt.NewParser().ParseUnverified(tokenStr, &claims)
	if err != nil {
		return 0
	}

	return claims.UserID()
}
