package oauth

import (
	"fmt"
	"net/http"
	"time"
)

// HTTPEnv implements the Env interface using short lived HTTP-only cookies
type HTTPEnv struct {
	scope  string
	maxAge time.Duration
	w      http.ResponseWriter
	r      *http.Request
}

// NewHTTPEnv creates a new HTTPEnv instance. Cookie names are prefixed with scope.
func NewHTTPEnv(scope string, w http.ResponseWriter, r *http.Request) *HTTPEnv {
	return &HTTPEnv{scope: scope, maxAge: 10 * time.Minute, w: w, r: r}
}

func (e *HTTPEnv) name(key string) string {
	return fmt.Sprintf("%s-%s", e.scope, key)
}

func (e *HTTPEnv) Save(key, val string) error {
	http.SetCookie(e.w, &http.Cookie{
		Name:     e.name(key),
		Value:    val,
		Path:     "/",
		MaxAge:   int(e.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   e.r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (e *HTTPEnv) Load(key string) (string, error) {
	c, err := e.r.Cookie(e.name(key))
	if err != nil {
		return "", err
	}

	return c.Value, nil
}

// Clear expires the given keys.
func (e *HTTPEnv) Clear(keys ...string) {
	for _, k := range keys {
		http.SetCookie(e.w, &http.Cookie{
			Name:     e.name(k),
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
		})
	}
}
