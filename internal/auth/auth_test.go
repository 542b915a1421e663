package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amelia751/cloudly/internal/config"
)

func TestJWTAuthorizer_RoundTrip(t *testing.T) {
	a, err := NewJWTAuthorizer("s3cret")
	require.NoError(t, err)

	token, err := Sign("s3cret", Identity{UserID: "u1", Email: "a@b.c", Name: "Ann"}, time.Hour)
	require.NoError(t, err)

	id, err := a.Authorize(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, &Identity{UserID: "u1", Email: "a@b.c", Name: "Ann"}, id)
}

func TestJWTAuthorizer_Rejects(t *testing.T) {
	a, err := NewJWTAuthorizer("s3cret")
	require.NoError(t, err)
	ctx := context.Background()

	wrongKey, err := Sign("other", Identity{UserID: "u1"}, time.Hour)
	require.NoError(t, err)
	_, err = a.Authorize(ctx, wrongKey)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := Sign("s3cret", Identity{UserID: "u1"}, -time.Minute)
	require.NoError(t, err)
	_, err = a.Authorize(ctx, expired)
	assert.ErrorIs(t, err, ErrExpiredToken)

	noSubject, err := Sign("s3cret", Identity{}, time.Hour)
	require.NoError(t, err)
	_, err = a.Authorize(ctx, noSubject)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = a.Authorize(ctx, none)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = a.Authorize(ctx, "")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestNewAuthorizer(t *testing.T) {
	cfg := config.NewForTesting()
	a, err := NewAuthorizer(cfg)
	require.NoError(t, err)
	_, err = a.Authorize(context.Background(), LocalDevAPIKey)
	assert.NoError(t, err)

	cfg.JWTSecret = "s3cret"
	a, err = NewAuthorizer(cfg)
	require.NoError(t, err)
	token, err := Sign("s3cret", Identity{UserID: "u9"}, time.Hour)
	require.NoError(t, err)
	id, err := a.Authorize(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u9", id.UserID)
	_, err = a.Authorize(context.Background(), LocalDevAPIKey)
	assert.NoError(t, err, "dev key still accepted outside production")

	cfg.Environment = config.EnvProduction
	a, err = NewAuthorizer(cfg)
	require.NoError(t, err)
	_, err = a.Authorize(context.Background(), LocalDevAPIKey)
	assert.Error(t, err, "dev key rejected in production")

	cfg.JWTSecret = ""
	_, err = NewAuthorizer(cfg)
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestMiddleware(t *testing.T) {
	var seen *Identity
	h := Middleware(NewMockAuthorizer(), zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/recipients", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/recipients", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, rr.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/recipients", nil)
	req.Header.Set("Authorization", "Bearer "+LocalDevAPIKey)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "cloudly-dev", seen.UserID)
}
