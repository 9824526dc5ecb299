package router

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"

	"github.com/rodrigogk87/crowdfunding/internal/config"
	"github.com/rodrigogk87/crowdfunding/internal/database"
	"github.com/rodrigogk87/crowdfunding/internal/host"
	"github.com/rodrigogk87/crowdfunding/internal/logger"
	"github.com/rodrigogk87/crowdfunding/internal/storage"
)

var alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")

func newEngine(t *testing.T, devMode bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	kv, err := storage.NewMemoryDB()
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })
	ledger, err := host.New(kv)
	require.NoError(t, err)

	db, err := database.Open(sqlite.Open(filepath.Join(t.TempDir(), "index.db")))
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Server.DevMode = devMode
	cfg.Ledger.Decimals = 18
	return Setup(db, ledger, cfg)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := newEngine(t, false)
	w := serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestRequestID(t *testing.T) {
	r := newEngine(t, false)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Len(t, w.Header().Get(requestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w = serve(r, req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestDevModeGuard(t *testing.T) {
	body := `{"amount":"10"}`
	path := "/api/v1/accounts/" + alice.Hex() + "/faucet"

	r := newEngine(t, false)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusNotFound, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/ledger/advance", strings.NewReader(`{"seconds":5}`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusNotFound, serve(r, req).Code)

	r = newEngine(t, true)
	req = httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
}

func TestCORSPreflight(t *testing.T) {
	r := newEngine(t, false)
	w := serve(r, httptest.NewRequest(http.MethodOptions, "/api/v1/contracts", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatsRouteDoesNotShadowAddress(t *testing.T) {
	r := newEngine(t, false)
	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/contracts/stats", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "totalContracts")
}

func TestRequestLogCarriesRequestID(t *testing.T) {
	file := filepath.Join(t.TempDir(), "access.log")
	l, err := logger.NewWithFileRotation(logger.INFO, file)
	require.NoError(t, err)
	logger.SetDefaultLogger(l)
	t.Cleanup(func() {
		restored, err := logger.New(logger.INFO)
		require.NoError(t, err)
		logger.SetDefaultLogger(restored)
	})

	r := newEngine(t, false)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "trace-7")
	serve(r, req)
	logger.Sync()

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"request_id":"trace-7"`)
	assert.Contains(t, string(data), "GET /health 200")
}
