package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rongwang/pioneer-fleet/internal/api"
	"github.com/rongwang/pioneer-fleet/internal/catalog"
	"github.com/rongwang/pioneer-fleet/internal/fleet"
	"github.com/rongwang/pioneer-fleet/internal/metrics"
	"github.com/rongwang/pioneer-fleet/internal/models"
	"github.com/rongwang/pioneer-fleet/internal/repository"
	"github.com/rongwang/pioneer-fleet/internal/service"
	"github.com/rongwang/pioneer-fleet/internal/utils"
	"github.com/stretchr/testify/require"
)

const (
	TestCorpoCode = "APQ8M3"
	TestAdminCode = "9999"
	TestPilot     = "Nova"
	TestPilotPIN  = "1234"
)

// TestContext holds all dependencies for tests
type TestContext struct {
	Router       *gin.Engine
	Backend      repository.Backend
	Store        *repository.DocumentStore
	Service      service.Service
	Catalog      *catalog.Catalog
	Metrics      *metrics.Registry
	JWTSecret    []byte
	TestPilot    string
	TestPilotJWT string
	AdminJWT     string
}

// Options tweaks SetupTestContext
type Options struct {
	// MaxBytes makes the in-memory store refuse larger documents
	MaxBytes int
	// RateLimit and RateBurst throttle the auth routes; zero means generous
	RateLimit float64
	RateBurst int
	// Backend replaces the in-memory store
	Backend repository.Backend
}

// SetupTestContext creates a new test context backed by an in-memory store
// holding one registered pilot.
func SetupTestContext(t *testing.T) *TestContext {
	return SetupTestContextWith(t, Options{})
}

// SetupTestContextWith is SetupTestContext with options
func SetupTestContextWith(t *testing.T, opts Options) *TestContext {
	jwtSecret := "test-secret-key"

	cat, err := catalog.Load("")
	require.NoError(t, err, "Failed to load catalog")

	backend := opts.Backend
	if backend == nil {
		backend = repository.NewMemoryBackend(opts.MaxBytes)
	}
	logger := utils.NewLoggerTo(io.Discard, io.Discard)
	registry := metrics.NewRegistry()

	normalizer := fleet.Normalizer{Catalog: cat}
	store := repository.NewDocumentStore(backend, normalizer, repository.Options{Timeout: time.Second}, logger, registry)

	// Create service
	svc := service.NewDefaultService(store, cat, jwtSecret, time.Hour, logger, registry)

	// Create API handler
	if opts.RateLimit == 0 {
		opts.RateLimit, opts.RateBurst = 1000, 1000
	}
	handler := api.NewHandler(svc, registry, api.NewRateLimiter(opts.RateLimit, opts.RateBurst))

	// Set up Gin router
	gin.SetMode(gin.TestMode)
	router := gin.New()

	// Add middleware for JWT secret
	router.Use(func(c *gin.Context) {
		c.Set("jwtSecret", []byte(jwtSecret))
		c.Next()
	})

	// Set up routes
	handler.SetupRoutes(router)

	// Create test pilot
	doc := models.NewDocument(TestCorpoCode)
	doc.Users[TestPilot] = TestPilotPIN
	SeedDocument(t, backend, doc)

	return &TestContext{
		Router:       router,
		Backend:      backend,
		Store:        store,
		Service:      svc,
		Catalog:      cat,
		Metrics:      registry,
		JWTSecret:    []byte(jwtSecret),
		TestPilot:    TestPilot,
		TestPilotJWT: GenerateToken(t, jwtSecret, TestPilot, false),
		AdminJWT:     GenerateToken(t, jwtSecret, TestPilot, true),
	}
}

// SeedDocument replaces the stored document with doc as is
func SeedDocument(t *testing.T, backend repository.Backend, doc *models.Document) {
	data, err := models.EncodeDocument(doc)
	require.NoError(t, err, "Failed to encode document")
	require.NoError(t, backend.Put(context.Background(), data), "Failed to seed document")
}

// StoredDocument decodes what the backend currently holds
func StoredDocument(t *testing.T, backend repository.Backend) *models.Document {
	data, err := backend.Fetch(context.Background())
	require.NoError(t, err, "Failed to fetch document")
	doc, err := models.DecodeDocument(data)
	require.NoError(t, err, "Failed to decode document")
	return doc
}

// GenerateToken signs a session token for pilot
func GenerateToken(t *testing.T, jwtSecret, pilot string, admin bool) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, service.Claims{
		Admin: admin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   pilot,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	tokenString, err := token.SignedString([]byte(jwtSecret))
	require.NoError(t, err, "Failed to generate JWT token")
	return tokenString
}

// PerformRequest executes an HTTP request against the router
func PerformRequest(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer

	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// AuthHeaders returns headers with Authorization token
func AuthHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", token),
	}
}

// DecodeBody unmarshals a JSON response body into v
func DecodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), "Failed to decode response: %s", w.Body.String())
}
