package server

import (
	"bytes"
	"context"
	"encoding/json"
	"frame-compress/config"
	"frame-compress/constant"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testConfig(t *testing.T) *config.Config {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	cfg.Compression.Probe = false
	cfg.Media.TempDir = t.TempDir()
	return cfg
}

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	addHealth(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestNewSessionFromDefaults(t *testing.T) {
	cfg := testConfig(t)
	session, cleanup := NewSession(context.Background(), cfg)
	require.NotNil(t, session)

	assert.Equal(t, constant.DefaultQuality, session.Quality().Int())
	assert.Equal(t, constant.ActionStatusIdle, session.Status(constant.ActionTypeFrameCompress))
	cleanup()

	_, err := session.StartVideoCompress(context.Background())
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	cfg := testConfig(t)
	cfg.App.Environment = constant.EnvironmentProduction.String()

	var buf bytes.Buffer
	logger := NewLogger(cfg, &buf)
	logger.Debug().Msg("hidden")
	logger.Info().Str("k", "v").Msg("shown")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["message"])
	assert.Equal(t, "v", line["k"])
	assert.Contains(t, line, "time")
}
