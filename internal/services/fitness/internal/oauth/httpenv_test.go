package oauth

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPEnv(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/save", func(w http.ResponseWriter, r *http.Request) {
		env := NewHTTPEnv("oauth", w, r)
		_ = env.Save("test_key", "test_val")
	})

	loaded := make(chan string, 1)
	mux.HandleFunc("/load", func(w http.ResponseWriter, r *http.Request) {
		env := NewHTTPEnv("oauth", w, r)
		val, _ := env.Load("test_key")
		loaded <- val
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	client := &http.Client{Jar: jar}

	resp, err := client.Get(fmt.Sprintf("%s/save", srv.URL))
	require.NoError(t, err)
	resp.Body.Close()

	cookies := resp.Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "oauth-test_key", cookies[0].Name)
	require.True(t, cookies[0].HttpOnly)

	resp, err = client.Get(fmt.Sprintf("%s/load", srv.URL))
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, "test_val", <-loaded)
}

func TestHTTPEnv_Load_NotFound(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/load", nil)
	env := NewHTTPEnv("oauth", httptest.NewRecorder(), r)

	_, err := env.Load("non_existent_key")
	require.Error(t, err)
}

func TestHTTPEnv_Clear(t *testing.T) {
	w := httptest.NewRecorder()
	env := NewHTTPEnv("oauth", w, httptest.NewRequest(http.MethodGet, "/", nil))

	env.Clear("state", "nonce")

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 2)
	for _, c := range cookies {
		require.Equal(t, -1, c.MaxAge)
	}
}
