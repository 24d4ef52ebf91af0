package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitfusion/gtfsrealtime/internal/config"
	"github.com/transitfusion/gtfsrealtime/internal/logging"
	"github.com/transitfusion/gtfsrealtime/internal/respcache"
	"github.com/transitfusion/gtfsrealtime/internal/store"
	"github.com/transitfusion/gtfsrealtime/pkg/gtfsmodel"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.CORSEnabled = true
	cfg.App.MonitorEnabled = true
	cfg.App.ListenAddr = ":0"
	cfg.App.Routing.TripUpdatesEndpoint = "/trip-updates.pbf"
	cfg.App.Routing.ServiceAlertsEndpoint = "/service-alerts.pbf"
	cfg.App.Routing.VehiclePositionsEndpoint = "/vehicle-positions.pbf"
	cfg.App.Routing.MonitorEndpoint = "/monitor"
	return cfg
}

func openTestGateway(t *testing.T) *store.Gateway {
	t.Helper()
	log := logging.New(zerolog.Disabled)
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	g, err := store.Open(dsn, dsn, log)
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })
	return g
}

func TestServer_TripUpdates_DefaultFormatIsProtobuf(t *testing.T) {
	gateway := openTestGateway(t)
	cache := respcache.New(false, nil)
	log := logging.New(zerolog.Disabled)
	srv := New(testConfig(), gateway, cache, log)

	req := httptest.NewRequest(http.MethodGet, "/trip-updates.pbf", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
}

func TestServer_TripUpdates_JSONFormat(t *testing.T) {
	gateway := openTestGateway(t)
	cache := respcache.New(false, nil)
	log := logging.New(zerolog.Disabled)
	srv := New(testConfig(), gateway, cache, log)

	req := httptest.NewRequest(http.MethodGet, "/trip-updates.pbf?f=json", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "gtfsRealtimeVersion")
}

func TestServer_CORS_PreflightReturnsNoContent(t *testing.T) {
	gateway := openTestGateway(t)
	cache := respcache.New(false, nil)
	log := logging.New(zerolog.Disabled)
	srv := New(testConfig(), gateway, cache, log)

	req := httptest.NewRequest(http.MethodOptions, "/trip-updates.pbf", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_CORSDisabled_NoHeadersSet(t *testing.T) {
	gateway := openTestGateway(t)
	cache := respcache.New(false, nil)
	log := logging.New(zerolog.Disabled)
	cfg := testConfig()
	cfg.App.CORSEnabled = false
	srv := New(cfg, gateway, cache, log)

	req := httptest.NewRequest(http.MethodGet, "/trip-updates.pbf", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_ResponseCache_SecondRequestHitsCache(t *testing.T) {
	gateway := openTestGateway(t)
	cache := respcache.New(true, map[string]time.Duration{"trip-updates": time.Minute})
	log := logging.New(zerolog.Disabled)
	srv := New(testConfig(), gateway, cache, log)

	tx, err := gateway.BeginTx(context.Background())
	require.NoError(t, err)
	require.NoError(t, gateway.InsertTripUpdate(context.Background(), tx, gtfsmodel.TripUpdate{
		TripUpdateID: "T1", TripID: "T1", RouteID: "R1",
		StopTimeUpdates: []gtfsmodel.StopTimeUpdate{{}},
	}))
	require.NoError(t, tx.Commit())

	req := httptest.NewRequest(http.MethodGet, "/trip-updates.pbf", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	firstBody := rec.Body.Bytes()

	require.NoError(t, gateway.ClearRealtimeData(context.Background()))

	req2 := httptest.NewRequest(http.MethodGet, "/trip-updates.pbf", nil)
	rec2 := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec2, req2)

	assert.Equal(t, firstBody, rec2.Body.Bytes(), "second request within the TTL must be served from cache despite the store now being empty")
}

func TestServer_MonitorEndpoint_JSONFormat(t *testing.T) {
	gateway := openTestGateway(t)
	cache := respcache.New(false, nil)
	log := logging.New(zerolog.Disabled)
	srv := New(testConfig(), gateway, cache, log)

	req := httptest.NewRequest(http.MethodGet, "/monitor?f=json", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestServer_MonitorEndpoint_HTMLDefault(t *testing.T) {
	gateway := openTestGateway(t)
	cache := respcache.New(false, nil)
	log := logging.New(zerolog.Disabled)
	srv := New(testConfig(), gateway, cache, log)

	req := httptest.NewRequest(http.MethodGet, "/monitor", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<table")
}

func TestServer_MonitorDisabled_NotRegistered(t *testing.T) {
	gateway := openTestGateway(t)
	cache := respcache.New(false, nil)
	log := logging.New(zerolog.Disabled)
	cfg := testConfig()
	cfg.App.MonitorEnabled = false
	srv := New(cfg, gateway, cache, log)

	req := httptest.NewRequest(http.MethodGet, "/monitor", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
