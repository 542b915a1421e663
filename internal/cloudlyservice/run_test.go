package cloudlyservice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amelia751/cloudly/internal/auth"
	"github.com/amelia751/cloudly/internal/config"
	"github.com/amelia751/cloudly/internal/factory"
)

func TestStartupHealthTimeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, startupHealthTimeout(5*time.Second))
	assert.Equal(t, 2*time.Minute, startupHealthTimeout(time.Minute))
}

func TestServiceWiring(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.NewForTesting()
	cfg.SQLitePath = filepath.Join(t.TempDir(), "cloudly.db")
	cfg.HealthIntervalSeconds = 1
	log := zerolog.Nop()

	st, err := factory.NewStore(ctx, cfg, log)
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	svcHealth := startHealthCheckers(ctx, cfg, log, st)
	require.NoError(t, waitUntilHealthy(ctx, cfg, svcHealth))

	router, err := buildRouter(cfg, st, svcHealth, log)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, map[string]any{"store": true}, body["components"])

	req := httptest.NewRequest(http.MethodGet, "/recipients", nil)
	req.Header.Set("Authorization", "Bearer "+auth.LocalDevAPIKey)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestBuildRouterRejectsProductionWithoutSecret(t *testing.T) {
	cfg := config.NewForTesting()
	cfg.Environment = config.EnvProduction
	_, err := buildRouter(cfg, nil, nil, zerolog.Nop())
	assert.ErrorIs(t, err, auth.ErrMissingSecret)
}
