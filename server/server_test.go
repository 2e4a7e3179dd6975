package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"civica/config"
	"civica/database"
	"civica/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:            "test-secret-key",
		RestoreOnEditReject:  true,
		EscalationWindowDays: 30,
		WatchlistThreshold:   2,
		RetentionDays:        365,
		AppealLimit:          5,
		AppealWindowSeconds:  3600,
		ExportLimit:          3,
		ExportWindowSeconds:  3600,
	}
}

// setupTestServer wires a server onto an in-memory database with no Redis,
// routes registered but without the global IP limiter.
func setupTestServer(t *testing.T, cfg *config.Config) (*fiber.App, *Server) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	srv := NewServerWithDB(cfg, db, nil)
	app := fiber.New()
	srv.SetupRoutes(app)
	return app, srv
}

// createTestUser inserts a user directly and signs a token for it, skipping
// the signup handler so its admission gate stays untouched.
func createTestUser(t *testing.T, srv *Server, username, role string) (*models.User, string) {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hashed",
		Role:     role,
	}
	require.NoError(t, srv.db.Create(user).Error)

	token, err := srv.generateToken(user)
	require.NoError(t, err)
	return user, token
}

func doJSON(t *testing.T, app *fiber.App, method, target, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealthCheck(t *testing.T) {
	app, _ := setupTestServer(t, testConfig())

	resp := doJSON(t, app, "GET", "/api/", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeMap(t, resp)
	assert.Equal(t, "healthy", body["status"])

	checks, ok := body["checks"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "healthy", checks["database"])
	assert.Equal(t, "unavailable", checks["redis"])
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	app, _ := setupTestServer(t, testConfig())

	for _, tc := range []struct {
		method string
		target string
	}{
		{"POST", "/api/ideas"},
		{"POST", "/api/appeals/"},
		{"GET", "/api/admin/review-queue"},
	} {
		resp := doJSON(t, app, tc.method, tc.target, "", fiber.Map{})
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "%s %s", tc.method, tc.target)
	}
}

func TestProtectedRoutesRejectBadToken(t *testing.T) {
	app, _ := setupTestServer(t, testConfig())

	resp := doJSON(t, app, "GET", "/api/admin/review-queue", "not-a-jwt", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
