package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waste-bin-monitor/internal/config"
	"waste-bin-monitor/internal/ingestion"
	"waste-bin-monitor/pkg/utils"
)

type stubDB struct{ err error }

func (s stubDB) Health() error { return s.err }

type stubStats struct{}

func (stubStats) GetMetrics() ingestion.IngestMetrics {
	return ingestion.IngestMetrics{MessagesReceived: 10, MessagesProcessed: 9, MessagesFailed: 1}
}

type stubSessions int

func (s stubSessions) SessionCount() int { return int(s) }

type stubRealtime struct{}

func (stubRealtime) RegisterRoutes(r gin.IRouter) {
	r.GET("/ws", func(c *gin.Context) { c.Status(http.StatusTeapot) })
}

type stubSweeper struct {
	queued int
	err    error
}

func (s stubSweeper) Run(context.Context) (int, error) { return s.queued, s.err }

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Environment: "test"},
		JWT:       config.JWTConfig{Secret: "s3cret"},
		RateLimit: config.RateLimitConfig{GeneralRPS: 100, GeneralBurst: 100},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}, AllowedMethods: []string{"GET"}},
	}
}

func newRouter(deps Deps) *gin.Engine {
	gin.SetMode(gin.TestMode)
	if deps.DB == nil {
		deps.DB = stubDB{}
	}
	deps.Ingestion = stubStats{}
	deps.Sessions = stubSessions(3)
	deps.Realtime = stubRealtime{}
	return SetupRoutes(testConfig(), deps)
}

func get(r http.Handler, method, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthReportsIngestionAndSessions(t *testing.T) {
	w := get(newRouter(Deps{}), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(3), body["live_sessions"])
	assert.Equal(t, float64(10), body["ingestion"].(map[string]any)["messages_received"])
}

func TestHealthUnhealthyDatabase(t *testing.T) {
	w := get(newRouter(Deps{DB: stubDB{err: errors.New("down")}}), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsAndRealtimeRoutesMounted(t *testing.T) {
	r := newRouter(Deps{})
	assert.Equal(t, http.StatusOK, get(r, http.MethodGet, "/metrics", "").Code)
	assert.Equal(t, http.StatusTeapot, get(r, http.MethodGet, "/ws", "").Code)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	r := newRouter(Deps{Sweeper: stubSweeper{queued: 2}})

	assert.Equal(t, http.StatusUnauthorized, get(r, http.MethodGet, "/api/v1/admin/ingestion", "").Code)

	user, err := utils.GenerateToken(&utils.Claims{UserID: "5", Role: "client_user"}, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, get(r, http.MethodGet, "/api/v1/admin/ingestion", user).Code)

	admin, err := utils.GenerateToken(&utils.Claims{UserID: "1", Role: "admin"}, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, get(r, http.MethodGet, "/api/v1/admin/ingestion", admin).Code)

	w := get(r, http.MethodPost, "/api/v1/admin/offline-sweep", admin)
	require.Equal(t, http.StatusAccepted, w.Code)
	var resp utils.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(2), resp.Data.(map[string]any)["devices"])
}

func TestOfflineSweepDisabled(t *testing.T) {
	admin, err := utils.GenerateToken(&utils.Claims{UserID: "1", Role: "admin"}, "s3cret")
	require.NoError(t, err)

	w := get(newRouter(Deps{}), http.MethodPost, "/api/v1/admin/offline-sweep", admin)
	assert.Equal(t, http.StatusConflict, w.Code)
}
