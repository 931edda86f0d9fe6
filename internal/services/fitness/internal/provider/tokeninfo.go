package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/oauth"
)

const (
	DefaultTokenInfoURL     = "https://oauth2.googleapis.com/tokeninfo"
	DefaultTokenInfoTimeout = 5 * time.Second

	maxTokenInfoBody = 1 << 20
)

// TokenInfo verifies Google ID tokens by asking Google's tokeninfo endpoint.
type TokenInfo struct {
	endpoint  string
	client    *http.Client
	audiences []string
}

type TokenInfoConfig struct {
	Endpoint string
	Timeout  time.Duration
	// Audiences lists the accepted client ids. Empty disables the audience check.
	Audiences []string
	Client    *http.Client
}

type tokenInfoResponse struct {
	Sub           string   `json:"sub"`
	Email         string   `json:"email"`
	EmailVerified flexBool `json:"email_verified"`
	Name          string   `json:"name"`
	Picture       string   `json:"picture"`
	Aud           string   `json:"aud"`
}

// flexBool accepts both true and "true".
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	switch t := v.(type) {
	case bool:
		*b = flexBool(t)
	case string:
		parsed, err := strconv.ParseBool(t)
		if err != nil {
			return fmt.Errorf("email_verified: %w", err)
		}
		*b = flexBool(parsed)
	case nil:
		*b = false
	default:
		return fmt.Errorf("email_verified: unexpected type %T", v)
	}
	return nil
}

func NewTokenInfo(cfg TokenInfoConfig) *TokenInfo {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultTokenInfoURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTokenInfoTimeout
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: cfg.Timeout}
	}

	return &TokenInfo{
		endpoint:  cfg.Endpoint,
		client:    cfg.Client,
		audiences: cfg.Audiences,
	}
}

// Verify resolves the assertion to a Google identity. Transport failures and
// non-2xx answers are reported as oauth.ErrInvalidAssertion.
func (v *TokenInfo) Verify(ctx context.Context, assertion string) (oauth.User, error) {
	if assertion == "" {
		return oauth.User{}, fmt.Errorf("%w: empty token", oauth.ErrInvalidAssertion)
	}

	u, err := url.Parse(v.endpoint)
	if err != nil {
		return oauth.User{}, fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("id_token", assertion)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return oauth.User{}, fmt.Errorf("new request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return oauth.User{}, fmt.Errorf("%w: %w", oauth.ErrInvalidAssertion, err)
	}
	defer resp.Body.Close()

	body := io.LimitReader(resp.Body, maxTokenInfoBody)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, body)
		return oauth.User{}, fmt.Errorf("%w: tokeninfo status %d", oauth.ErrInvalidAssertion, resp.StatusCode)
	}

	var info tokenInfoResponse
	if err := json.NewDecoder(body).Decode(&info); err != nil {
		return oauth.User{}, fmt.Errorf("%w: %w", oauth.ErrMalformedResponse, err)
	}

	if info.Sub == "" {
		return oauth.User{}, fmt.Errorf("%w: missing sub", oauth.ErrMalformedResponse)
	}

	if len(v.audiences) > 0 && !slices.Contains(v.audiences, info.Aud) {
		return oauth.User{}, fmt.Errorf("%w: unexpected audience %q", oauth.ErrInvalidAssertion, info.Aud)
	}

	return oauth.User{
		ID:            info.Sub,
		Email:         info.Email,
		EmailVerified: bool(info.EmailVerified),
		Name:          nameOrDefault(info.Name, defaultName(info.Sub)),
		Picture:       info.Picture,
	}, nil
}
