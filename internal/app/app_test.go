package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movietrack/config"
)

func testSettings(t *testing.T) *config.Settings {
	return &config.Settings{
		Env:      "test",
		Database: config.DatabaseSettings{Path: filepath.Join(t.TempDir(), "app.db")},
		Auth:     config.AuthSettings{JWTSecret: "app-test-secret", TokenTTL: time.Hour, BcryptCost: 4},
		CORS:     config.CORSSettings{AllowedOrigins: []string{"https://movietrack.example"}},
		Audit:    config.AuditSettings{QueueSize: 8},
	}
}

func TestHandlerServesHealthAndSignup(t *testing.T) {
	a, err := New(testSettings(t))
	require.NoError(t, err)
	defer a.Close()

	h := a.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup",
		strings.NewReader(`{"name":"Ada","email":"ada@example.com","password":"secret1"}`))
	req.Header.Set("Origin", "https://movietrack.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "https://movietrack.example", rec.Header().Get("Access-Control-Allow-Origin"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["token"])
}

func TestNewFailsWhenDatabaseDirIsAFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	settings := testSettings(t)
	settings.Database.Path = filepath.Join(blocker, "app.db")

	_, err := New(settings)
	assert.Error(t, err)
}
