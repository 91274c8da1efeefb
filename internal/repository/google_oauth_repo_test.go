package repository

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"trading-journal/config"
	"trading-journal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newGoogleTestServer(t *testing.T, userInfo string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-1","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at-1", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(userInfo))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGoogleOAuthRepository_AuthCodeURL(t *testing.T) {
	repo := NewGoogleOAuthRepository(config.Auth{
		GoogleClientID: "client-id",
		RedirectURL:    "http://localhost:8080/auth/callback",
	}, logger.Nop())

	u, err := url.Parse(repo.AuthCodeURL("state-1"))
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, "openid email profile", q.Get("scope"))
}

func TestGoogleOAuthRepository_Exchange(t *testing.T) {
	srv := newGoogleTestServer(t, `{"sub":"1234","email":"me@example.com","email_verified":true,"name":"Me"}`)
	repo := newGoogleOAuthRepository(config.Auth{GoogleClientID: "id", GoogleClientSecret: "secret"},
		oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token", AuthStyle: oauth2.AuthStyleInParams},
		srv.URL+"/userinfo", logger.Nop())

	info, err := repo.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "1234", info.Sub)
	assert.Equal(t, "me@example.com", info.Email)
	assert.True(t, info.EmailVerified)

	_, err = repo.Exchange(context.Background(), "bad-code")
	assert.Error(t, err)
}

func TestGoogleOAuthRepository_ExchangeIncompleteProfile(t *testing.T) {
	srv := newGoogleTestServer(t, `{"email_verified":true}`)
	repo := newGoogleOAuthRepository(config.Auth{GoogleClientID: "id", GoogleClientSecret: "secret"},
		oauth2.Endpoint{TokenURL: srv.URL + "/token", AuthStyle: oauth2.AuthStyleInParams},
		srv.URL+"/userinfo", logger.Nop())

	_, err := repo.Exchange(context.Background(), "good-code")
	assert.Error(t, err)
}
