package token

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(secret string, now func() time.Time) *JwtService {
	return NewJWTService(JwtConfig{
		Secret:   NewSecretString(secret),
		Issuer:   "fitnesspt",
		Audience: "fitnesspt-clients",
		TTL:      time.Hour,
		Now:      now,
	})
}

func TestIssueAccessToken(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	s := newService("test_secret", func() time.Time { return now })

	tokenStr, err := s.IssueAccessToken(42, "a@b.com", "member")
	require.NoError(t, err)
	require.NotEmpty(t, tokenStr)

	claims, err := s.ParseAccessToken(tokenStr)
	require.NoError(t, err)

	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, int64(42), claims.UserID())
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Equal(t, "member", claims.Role)
	assert.Equal(t, "google", claims.AuthProvider)
	assert.Equal(t, "fitnesspt", claims.Issuer)
	assert.Equal(t, jwt.ClaimStrings{"fitnesspt-clients"}, claims.Audience)
	assert.Len(t, claims.ID, 36)
	assert.Equal(t, now.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, now.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestIssueAccessToken_UniqueJTI(t *testing.T) {
	s := newService("test_secret", nil)

	a, err := s.IssueAccessToken(1, "a@b.com", "member")
	require.NoError(t, err)
	b, err := s.IssueAccessToken(1, "a@b.com", "member")
	require.NoError(t, err)

	ca, err := s.ParseAccessToken(a)
	require.NoError(t, err)
	cb, err := s.ParseAccessToken(b)
	require.NoError(t, err)
	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestValidateAccessToken(t *testing.T) {
	now := time.Now()
	s := newService("test_secret", func() time.Time { return now })

	fresh, err := s.IssueAccessToken(7, "a@b.com", "member")
	require.NoError(t, err)

	otherSecret, err := newService("another_secret", nil).IssueAccessToken(7, "a@b.com", "member")
	require.NoError(t, err)

	expired, err := newService("test_secret", func() time.Time { return now.Add(-2 * time.Hour) }).
		IssueAccessToken(7, "a@b.com", "member")
	require.NoError(t, err)

	wrongAudience, err := NewJWTService(JwtConfig{
		Secret:   NewSecretString("test_secret"),
		Issuer:   "fitnesspt",
		Audience: "someone-else",
		TTL:      time.Hour,
	}).IssueAccessToken(7, "a@b.com", "member")
	require.NoError(t, err)

	wrongIssuer, err := NewJWTService(JwtConfig{
		Secret:   NewSecretString("test_secret"),
		Issuer:   "evil",
		Audience: "fitnesspt-clients",
		TTL:      time.Hour,
	}).IssueAccessToken(7, "a@b.com", "member")
	require.NoError(t, err)

	tbl := []struct {
		name  string
		token string
		valid bool
	}{
		{"fresh", fresh, true},
		{"other secret", otherSecret, false},
		{"expired", expired, false},
		{"wrong audience", wrongAudience, false},
		{"wrong issuer", wrongIssuer, false},
		{"garbage", "not.a.token", false},
		{"empty", "", false},
	}

	for _, c := range tbl {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.valid, s.ValidateAccessToken(c.token))
		})
	}
}

func TestValidateAccessToken_ExactExpiry(t *testing.T) {
	issued := time.Now()
	clock := issued
	s := newService("test_secret", func() time.Time { return clock })

	tk, err := s.IssueAccessToken(7, "a@b.com", "member")
	require.NoError(t, err)

	clock = issued.Add(time.Hour - time.Second)
	assert.True(t, s.ValidateAccessToken(tk))

	clock = issued.Add(time.Hour + time.Second)
	assert.False(t, s.ValidateAccessToken(tk))
}

func TestValidateAccessToken_RejectsOtherAlgorithms(t *testing.T) {
	s := newService("test_secret", nil)

	tk := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			Issuer:    "fitnesspt",
			Audience:  jwt.ClaimStrings{"fitnesspt-clients"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := tk.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	assert.False(t, s.ValidateAccessToken(signed))
}

func TestExtractUserID(t *testing.T) {
	s := newService("test_secret", nil)

	tk, err := s.IssueAccessToken(42, "a@b.com", "USER")
	require.NoError(t, err)
	assert.Equal(t, int64(42), s.ExtractUserID(tk))

	// no signature check: a token from another issuer still yields its subject
	foreign, err := newService("another_secret", nil).IssueAccessToken(9, "x@y.com", "member")
	require.NoError(t, err)
	assert.Equal(t, int64(9), s.ExtractUserID(foreign))

	assert.Equal(t, int64(0), s.ExtractUserID("garbage"))
	assert.Equal(t, int64(0), s.ExtractUserID(""))

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{}).SignedString([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), s.ExtractUserID(noSub))
}

func TestIssueRefreshToken(t *testing.T) {
	s := newService("test_secret", nil)

	a, err := s.IssueRefreshToken()
	require.NoError(t, err)
	b, err := s.IssueRefreshToken()
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(a)
	require.NoError(t, err)
	assert.Len(t, raw, 64)
	assert.NotEqual(t, a, b)
}

func TestParsePrincipal(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	s := newService("test_secret", func() time.Time { return now })

	tk, err := s.IssueAccessToken(7, "coach@example.com", "admin")
	require.NoError(t, err)

	p, err := s.ParsePrincipal(tk)
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.UserID)
	assert.Equal(t, "coach@example.com", p.Email)
	assert.Equal(t, "admin", p.Role)
	assert.Equal(t, ProviderGoogle, p.Provider)
	assert.Equal(t, []string{"fitnesspt-clients"}, p.Audience)
	assert.True(t, p.ExpiresAt.Equal(now.Add(time.Hour)))

	_, err = newService("another_secret", func() time.Time { return now }).ParsePrincipal(tk)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
