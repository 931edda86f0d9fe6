package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gunheehan/FitnessPT-api/internal/pkg/serr"
	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/model"
	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/oauth"
	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/store"
)

// KeyRedirect is the env key holding the post login redirect.
const KeyRedirect = "redirect_url"

// TokenPair represents a pair of access and refresh tokens
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// AuthResult is returned by every operation that signs a user in.
type AuthResult struct {
	TokenPair
	User      model.User
	IsNewUser bool
}

type identityVerifier interface {
	Verify(ctx context.Context, assertion string) (oauth.User, error)
}

type tokenIssuer interface {
	IssueAccessToken(userID int64, email, role string) (string, error)
	IssueRefreshToken() (string, error)
	TTL() time.Duration
}

// refreshSessions persists issued refresh tokens. Consume returns an error
// wrapping store.ErrNotFound for unknown or already used tokens.
type refreshSessions interface {
	Save(ctx context.Context, token string, userID int64) error
	Consume(ctx context.Context, token string) (int64, error)
	Revoke(ctx context.Context, token string) error
}

// authenticator defines the interface for OAuth authentication flow management
type authenticator interface {
	LoginURL(env oauth.Env, provider string) (string, error)
	Exchange(ctx context.Context, env oauth.Env, provider, code, state string) (oauth.User, error)
}

type oneTimeCodeProvider interface {
	CreateCode(ctx context.Context, ts TokenPair) (string, error)
	RedeemCode(ctx context.Context, code string) (TokenPair, error)
}

// Auth signs users in with a Google identity and manages their sessions
type Auth struct {
	verifier    identityVerifier
	users       store.UserStore
	tokens      tokenIssuer
	sessions    refreshSessions
	auth        authenticator
	otc         oneTimeCodeProvider
	callbackURL string
	now         func() time.Time
}

// AuthOption defines a functional option for configuring the Auth service
type AuthOption func(*Auth) *Auth

func WithVerifier(v identityVerifier) AuthOption {
	return func(s *Auth) *Auth {
		s.verifier = v
		return s
	}
}

func WithUsers(st store.UserStore) AuthOption {
	return func(s *Auth) *Auth {
		s.users = st
		return s
	}
}

func WithTokens(t tokenIssuer) AuthOption {
	return func(s *Auth) *Auth {
		s.tokens = t
		return s
	}
}

func WithSessions(rs refreshSessions) AuthOption {
	return func(s *Auth) *Auth {
		s.sessions = rs
		return s
	}
}

// WithAuthenticator enables the browser code flow together with WithCodes.
func WithAuthenticator(a authenticator) AuthOption {
	return func(s *Auth) *Auth {
		s.auth = a
		return s
	}
}

func WithCodes(c oneTimeCodeProvider) AuthOption {
	return func(s *Auth) *Auth {
		s.otc = c
		return s
	}
}

// WithCallbackURL sets where the browser lands after the code flow when no redirect was asked for.
func WithCallbackURL(u string) AuthOption {
	return func(s *Auth) *Auth {
		s.callbackURL = u
		return s
	}
}

func WithClock(now func() time.Time) AuthOption {
	return func(s *Auth) *Auth {
		s.now = now
		return s
	}
}

// NewAuth creates a new Auth service with the provided options
func NewAuth(opts ...AuthOption) *Auth {
	s := &Auth{now: time.Now, callbackURL: "/"}
	for _, opt := range opts {
		s = opt(s)
	}

	if s.verifier == nil {
		panic("identity verifier is required")
	}

	if s.users == nil {
		panic("user store is required")
	}

	if s.tokens == nil {
		panic("token issuer is required")
	}

	if s.sessions == nil {
		panic("session store is required")
	}

	if (s.auth == nil) != (s.otc == nil) {
		panic("authenticator and code provider must be configured together")
	}

	return s
}

// Login verifies a Google ID token and signs the matching user in, creating it on first use.
func (s *Auth) Login(ctx context.Context, assertion string) (AuthResult, error) {
	if strings.TrimSpace(assertion) == "" {
		return AuthResult{}, invalid("identity token is required")
	}

	ident, err := s.verifier.Verify(ctx, assertion)
	if err != nil {
		if errors.Is(err, oauth.ErrInvalidAssertion) || errors.Is(err, oauth.ErrMalformedResponse) {
			return AuthResult{}, serr.NewServiceError(err, http.StatusUnauthorized, "invalid identity token")
		}
		return AuthResult{}, fmt.Errorf("verify identity: %w", err)
	}

	usr, isNew, err := s.resolveUser(ctx, ident)
	if err != nil {
		return AuthResult{}, err
	}

	return s.signIn(ctx, usr, isNew)
}

// Refresh rotates a refresh token. The presented token is consumed even when the user turns out to be inactive.
func (s *Auth) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	if refreshToken == "" {
		return AuthResult{}, invalid("refresh token is required")
	}

	userID, err := s.sessions.Consume(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return AuthResult{}, serr.NewServiceError(err, http.StatusUnauthorized, "invalid refresh token")
		}
		return AuthResult{}, fmt.Errorf("consume refresh token: %w", err)
	}

	usr, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return AuthResult{}, serr.NewServiceError(err, http.StatusUnauthorized, "invalid refresh token").With("user_id", userID)
		}
		return AuthResult{}, fmt.Errorf("get user: %w", err)
	}

	if !usr.IsActive {
		return AuthResult{}, serr.NewServiceError(nil, http.StatusForbidden, "user is deactivated").With("user_id", userID)
	}

	return s.signIn(ctx, usr, false)
}

// Logout revokes the refresh token. Unknown tokens are ignored.
func (s *Auth) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return invalid("refresh token is required")
	}

	if err := s.sessions.Revoke(ctx, refreshToken); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	return nil
}

type LoginRequest struct {
	Provider    string
	RedirectURL string
}

// LoginURL generates a login URL for the specified provider
func (s *Auth) LoginURL(env oauth.Env, r LoginRequest) (string, error) {
	if s.auth == nil {
		return "", serr.NewServiceError(nil, http.StatusNotFound, "code flow is not enabled")
	}

	redirect := r.RedirectURL
	if redirect == "" {
		redirect = s.callbackURL
	}
	if !s.allowedRedirect(redirect) {
		return "", invalid("redirect url is not allowed").With("redirect", redirect)
	}

	err := env.Save(KeyRedirect, redirect)
	if err != nil {
		return "", fmt.Errorf("save redirect url: %w", err)
	}

	url, err := s.auth.LoginURL(env, r.Provider)
	if err != nil {
		if errors.Is(err, oauth.ErrProviderNotFound) {
			return "", serr.NewServiceError(err, http.StatusNotFound, "oauth provider not found").With("provider", r.Provider)
		}

		return "", fmt.Errorf("login url: %w", err)
	}

	return url, nil
}

type AuthCallbackRequest struct {
	Provider string
	Code     string
	State    string
}

type AuthCallbackResponse struct {
	User        model.User
	IsNewUser   bool
	RedirectURL string
	OTC         string
}

// AuthCallback handles the OAuth callback, exchanges the code for user info, and hides the issued
// tokens behind a one-time code appended to the redirect url
func (s *Auth) AuthCallback(ctx context.Context, env oauth.Env, r AuthCallbackRequest) (AuthCallbackResponse, error) {
	if s.auth == nil {
		return AuthCallbackResponse{}, serr.NewServiceError(nil, http.StatusNotFound, "code flow is not enabled")
	}

	ident, err := s.auth.Exchange(ctx, env, r.Provider, r.Code, r.State)
	if err != nil {
		switch {
		case errors.Is(err, oauth.ErrProviderNotFound):
			return AuthCallbackResponse{}, serr.NewServiceError(err, http.StatusNotFound, "provider not found").With("provider", r.Provider)
		case errors.Is(err, oauth.ErrAuthFailed), errors.Is(err, oauth.ErrInvalidAssertion):
			return AuthCallbackResponse{}, serr.NewServiceError(err, http.StatusUnauthorized, "authentication failed").With("provider", r.Provider)
		}

		return AuthCallbackResponse{}, fmt.Errorf("exchange: %w", err)
	}

	usr, isNew, err := s.resolveUser(ctx, ident)
	if err != nil {
		return AuthCallbackResponse{}, err
	}

	res, err := s.signIn(ctx, usr, isNew)
	if err != nil {
		return AuthCallbackResponse{}, err
	}

	code, err := s.otc.CreateCode(ctx, res.TokenPair)
	if err != nil {
		return AuthCallbackResponse{}, fmt.Errorf("create exchange code: %w", err)
	}

	redirect, err := env.Load(KeyRedirect)
	if err != nil || !s.allowedRedirect(redirect) {
		redirect = s.callbackURL
	}

	return AuthCallbackResponse{
		User:        res.User,
		IsNewUser:   isNew,
		RedirectURL: withQuery(redirect, "code", code),
		OTC:         code,
	}, nil
}

// RedeemCode redeems a code for a token set. Each code works once.
func (s *Auth) RedeemCode(ctx context.Context, code string) (TokenPair, error) {
	if s.otc == nil {
		return TokenPair{}, serr.NewServiceError(nil, http.StatusNotFound, "code flow is not enabled")
	}
	if code == "" {
		return TokenPair{}, invalid("code is required")
	}

	ts, err := s.otc.RedeemCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return TokenPair{}, serr.NewServiceError(err, http.StatusNotFound, "code not found or expired")
		}
		return TokenPair{}, fmt.Errorf("redeem code: %w", err)
	}

	return ts, nil
}

// resolveUser finds the user bound to the Google identity or creates one.
// Name and picture are refreshed when they drifted since the last login.
func (s *Auth) resolveUser(ctx context.Context, ident oauth.User) (model.User, bool, error) {
	now := s.now().UTC()

	usr, err := s.users.GetUserByGoogleID(ctx, ident.ID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return model.User{}, false, fmt.Errorf("get user by google id: %w", err)
		}

		if ident.Email == "" {
			return model.User{}, false, serr.NewServiceError(nil, http.StatusUnauthorized, "identity has no email")
		}

		usr, err = s.users.CreateUser(ctx, store.CreateUserRequest{
			GoogleID:        ptr(ident.ID),
			Email:           ident.Email,
			Name:            ident.Name,
			ProfileImageURL: nonEmpty(ident.Picture),
			Role:            model.RoleMember,
			IsActive:        true,
			LastLoginAt:     &now,
		})
		if err == nil {
			slog.Info("user created", "user_id", usr.ID, "email", usr.Email)
			return usr, true, nil
		}
		if !errors.Is(err, store.ErrExists) {
			return model.User{}, false, fmt.Errorf("create user: %w", err)
		}

		// a concurrent first login may have created the user in the meantime
		usr, err = s.users.GetUserByGoogleID(ctx, ident.ID)
		if errors.Is(err, store.ErrNotFound) {
			return model.User{}, false, serr.NewServiceError(store.ErrExists, http.StatusConflict, "email is already registered").With("email", ident.Email)
		}
		if err != nil {
			return model.User{}, false, fmt.Errorf("get user by google id: %w", err)
		}
	}

	if !usr.IsActive {
		return model.User{}, false, serr.NewServiceError(nil, http.StatusForbidden, "user is deactivated").With("user_id", usr.ID)
	}

	if usr.Name != ident.Name || deref(usr.ProfileImageURL) != ident.Picture {
		usr, err = s.users.UpdateUser(ctx, store.UpdateUserRequest{
			ID:              usr.ID,
			Email:           usr.Email,
			Name:            ident.Name,
			ProfileImageURL: nonEmpty(ident.Picture),
			Role:            usr.Role,
			IsActive:        usr.IsActive,
		})
		if err != nil {
			return model.User{}, false, fmt.Errorf("update user profile: %w", err)
		}
	}

	if err := s.users.TouchLastLogin(ctx, usr.ID, now); err != nil {
		return model.User{}, false, fmt.Errorf("touch last login: %w", err)
	}
	usr.LastLoginAt = &now

	return usr, false, nil
}

func (s *Auth) signIn(ctx context.Context, usr model.User, isNew bool) (AuthResult, error) {
	at, err := s.tokens.IssueAccessToken(usr.ID, usr.Email, string(usr.Role))
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue access token: %w", err)
	}

	rt, err := s.tokens.IssueRefreshToken()
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue refresh token: %w", err)
	}

	if err := s.sessions.Save(ctx, rt, usr.ID); err != nil {
		return AuthResult{}, fmt.Errorf("save refresh session: %w", err)
	}

	return AuthResult{
		TokenPair: TokenPair{
			AccessToken:  at,
			RefreshToken: rt,
			ExpiresAt:    s.now().Add(s.tokens.TTL()).UTC(),
		},
		User:      usr,
		IsNewUser: isNew,
	}, nil
}

// allowedRedirect accepts local paths and urls below the configured callback.
// Urls must match the callback scheme and host, and their path must sit on a
// segment boundary under the callback path.
func (s *Auth) allowedRedirect(raw string) bool {
	if strings.ContainsAny(raw, "\\\r\n\t") {
		return false
	}

	if strings.HasPrefix(raw, "/") {
		if strings.HasPrefix(raw, "//") {
			return false
		}
		u, err := url.Parse(raw)
		return err == nil && u.Scheme == "" && u.Host == "" && u.User == nil
	}

	cb, err := url.Parse(s.callbackURL)
	if err != nil || cb.Scheme == "" || cb.Host == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil || u.User != nil || u.Opaque != "" {
		return false
	}
	if !strings.EqualFold(u.Scheme, cb.Scheme) || !strings.EqualFold(u.Host, cb.Host) {
		return false
	}

	base := strings.TrimSuffix(cb.Path, "/")
	return u.Path == base || strings.HasPrefix(u.Path, base+"/")
}

func withQuery(raw, key, val string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set(key, val)
	u.RawQuery = q.Encode()
	return u.String()
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
