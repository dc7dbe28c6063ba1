package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pulse_backend/internal/config"
	"pulse_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthFixture(providerURL string) *AuthService {
	return NewAuthService(
		config.AuthConfig{ProviderURL: providerURL, APIKey: "anon-key", DefaultPath: "/dashboard/training"},
		config.JWTConfig{Secret: "test-secret-0123456789", ExpireTime: time.Hour},
		config.ServerConfig{PublicURL: "http://localhost:8080"},
	)
}

func TestOAuthRedirectURL(t *testing.T) {
	svc := newAuthFixture("https://id.example.com/auth/v1")

	got := svc.OAuthRedirectURL("google")
	assert.Equal(t,
		"https://id.example.com/auth/v1/authorize?provider=google&redirect_to=http%3A%2F%2Flocalhost%3A8080%2Fapi%2Fauth%2Fcallback",
		got)
}

func TestSendMagicLink(t *testing.T) {
	var gotPath string
	var gotBody magicLinkRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc := newAuthFixture(srv.URL)
	require.NoError(t, svc.SendMagicLink(context.Background(), "agent@example.com"))

	assert.Equal(t, "/otp", gotPath)
	assert.Equal(t, "agent@example.com", gotBody.Email)
	assert.True(t, gotBody.CreateUser)
	assert.Equal(t, "http://localhost:8080/api/auth/callback", gotBody.RedirectTo)
}

func TestSendMagicLinkProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid email", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	svc := newAuthFixture(srv.URL)
	assert.Error(t, svc.SendMagicLink(context.Background(), "nope"))
}

func TestExchangeCodeAndIssueSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/token", r.URL.Path)
		assert.Equal(t, "authorization_code", r.URL.Query().Get("grant_type"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "provider-token",
			"user":         map[string]string{"id": "u-123", "email": "agent@example.com"},
		})
	}))
	defer srv.Close()

	svc := newAuthFixture(srv.URL)
	session, err := svc.ExchangeCode(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "u-123", session.User.ID)
	assert.Equal(t, "agent@example.com", session.User.Email)

	token, err := svc.IssueSession(session.User.ID, session.User.Email)
	require.NoError(t, err)

	claims, err := util.ParseJWT(token, "test-secret-0123456789")
	require.NoError(t, err)
	assert.Equal(t, "u-123", claims.UserID)
	assert.Equal(t, "agent@example.com", claims.Email)
}
