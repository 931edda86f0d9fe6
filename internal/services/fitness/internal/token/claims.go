package token

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gunheehan/FitnessPT-api/internal/pkg/middleware"
)

const ProviderGoogle = "google"

// Claims is the payload of an access token. The subject holds the numeric user id.
type Claims struct {
	jwt.RegisteredClaims
	Email        string `json:"email"`
	Role         string `json:"role"`
	AuthProvider string `json:"auth_provider"`
}

// UserID parses the subject, returning 0 when it is not a positive integer.
func (c Claims) UserID() int64 {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id < 0 {
		return 0
	}

	return id
}

func (c Claims) Principal() middleware.Principal {
	return middleware.Principal{
		UserID:    c.UserID(),
		Email:     c.Email,
		Role:      c.Role,
		Provider:  c.AuthProvider,
		TokenID:   c.ID,
		Issuer:    c.Issuer,
		Audience:  c.Audience,
		IssuedAt:  timeOf(c.IssuedAt),
		ExpiresAt: timeOf(c.ExpiresAt),
	}
}

func timeOf(d *jwt.NumericDate) time.Time {
	if d == nil {
		return time.Time{}
	}
	return d.Time
}
