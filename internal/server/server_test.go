package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wichananm65/beartrak-search-backend/internal/category"
	"github.com/wichananm65/beartrak-search-backend/internal/config"
	"github.com/wichananm65/beartrak-search-backend/internal/rfp"
)

func testConfig(origins ...string) config.Config {
	return config.Config{
		Environment:    config.EnvTest,
		DatabaseURL:    "sqlite://:memory:",
		Host:           "127.0.0.1",
		Port:           8001,
		AllowedOrigins: origins,
	}
}

func newApp(t *testing.T, cfg config.Config) *fiber.App {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	mock.ExpectPing()

	seed := []rfp.RFP{{ID: 1, Title: "Software Development RFP", Organization: "City of Berkeley", Status: rfp.StatusOpen}}
	return New(Deps{
		Config:     cfg,
		DB:         db,
		RFPs:       rfp.NewInMemoryRepository(seed),
		Categories: category.NewSQLRepository(db),
	})
}

func send(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, string) {
	t.Helper()
	res, err := app.Test(req)
	require.NoError(t, err)
	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, string(b)
}

func TestServer_HealthAndRoot(t *testing.T) {
	app := newApp(t, testConfig("*"))

	res, body := send(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"message":"BearTrak Search API is running"}`, body)

	res, body = send(t, app, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, `"database_status":"connected"`)
	assert.Contains(t, body, `"environment":"test"`)
}

func TestServer_SearchWired(t *testing.T) {
	app := newApp(t, testConfig("*"))

	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(url.Values{"query": {"berkeley"}}.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	res, body := send(t, app, req)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, `data-rfp-id="1"`)
}

func TestServer_RequestID(t *testing.T) {
	app := newApp(t, testConfig())

	res, _ := send(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, res.Header.Get(fiber.HeaderXRequestID))
}

func TestServer_NotFound(t *testing.T) {
	app := newApp(t, testConfig())

	res, body := send(t, app, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.JSONEq(t, `{"message":"not found"}`, body)
}

func TestServer_CORSWildcard(t *testing.T) {
	app := newApp(t, testConfig("*"))

	req := httptest.NewRequest(http.MethodOptions, "/api/search", nil)
	req.Header.Set(fiber.HeaderOrigin, "https://anywhere.example")
	req.Header.Set(fiber.HeaderAccessControlRequestMethod, http.MethodPost)
	req.Header.Set(fiber.HeaderAccessControlRequestHeaders, "HX-Request")
	res, _ := send(t, app, req)

	assert.Equal(t, http.StatusNoContent, res.StatusCode)
	assert.Equal(t, "*", res.Header.Get(fiber.HeaderAccessControlAllowOrigin))
	assert.Contains(t, res.Header.Get(fiber.HeaderAccessControlAllowHeaders), "HX-Request")
}

func TestServer_CORSAllowList(t *testing.T) {
	app := newApp(t, testConfig("https://beartrak.example"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(fiber.HeaderOrigin, "https://beartrak.example")
	res, _ := send(t, app, req)
	assert.Equal(t, "https://beartrak.example", res.Header.Get(fiber.HeaderAccessControlAllowOrigin))
	assert.Equal(t, "true", res.Header.Get(fiber.HeaderAccessControlAllowCredentials))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(fiber.HeaderOrigin, "https://evil.example")
	res, _ = send(t, app, req)
	assert.Empty(t, res.Header.Get(fiber.HeaderAccessControlAllowOrigin))
}

func TestServer_NoCORSWithoutOrigins(t *testing.T) {
	app := newApp(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(fiber.HeaderOrigin, "https://beartrak.example")
	res, _ := send(t, app, req)
	assert.Empty(t, res.Header.Get(fiber.HeaderAccessControlAllowOrigin))
}

func TestServer_CategoriesWired(t *testing.T) {
	app := newApp(t, testConfig())

	// The mock has no query expectations, so the route answers with a storage error.
	res, body := send(t, app, httptest.NewRequest(http.MethodGet, "/api/categories", nil))
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.JSONEq(t, `{"message":"storage unavailable"}`, body)
}

func TestServer_AcceptedCORSListsDoNotPanic(t *testing.T) {
	for _, raw := range []string{
		`["*"]`,
		`[]`,
		`["https://a.example"]`,
		`["https://a.example", "http://localhost:3000"]`,
		`["*", "https://a.example"]`,
		`["https://a.example/path"]`,
	} {
		cfg, err := config.Resolve(func(key string) (string, bool) {
			if key == "CORS_ORIGINS" {
				return raw, true
			}
			return "", false
		})
		if err != nil {
			assert.ErrorIs(t, err, config.ErrInvalid, raw)
			continue
		}
		assert.NotPanics(t, func() { New(Deps{Config: cfg}) }, raw)
	}
}
