// Package httpapi implements the HTTP Read API (C9): serves the
// reconciled trip updates, service alerts, and vehicle positions feeds
// as GTFS-realtime protobuf or JSON, plus an optional human-readable
// monitor view, per spec.md §4.5. Grounded on the predecessor's
// stdlib-first net/http usage (no web framework appears anywhere in
// the retrieved pack).
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/transitfusion/gtfsrealtime/internal/config"
	"github.com/transitfusion/gtfsrealtime/internal/logging"
	"github.com/transitfusion/gtfsrealtime/internal/respcache"
	"github.com/transitfusion/gtfsrealtime/internal/store"
)

// Server wires the three realtime feed endpoints, the optional monitor
// endpoint, and the response cache onto a stdlib *http.Server.
type Server struct {
	httpServer *http.Server
	cache      *respcache.Cache
	gateway    *store.Gateway
	cfg        *config.Config
	log        logging.Logger
}

// New builds a Server bound to cfg.App.ListenAddr. Call Start/Shutdown
// to run it under the lifecycle's context.
func New(cfg *config.Config, gateway *store.Gateway, cache *respcache.Cache, log logging.Logger) *Server {
	s := &Server{cache: cache, gateway: gateway, cfg: cfg, log: log}

	mux := http.NewServeMux()
	mux.Handle(cfg.App.Routing.TripUpdatesEndpoint, s.withCORS(s.handleTripUpdates))
	mux.Handle(cfg.App.Routing.ServiceAlertsEndpoint, s.withCORS(s.handleServiceAlerts))
	mux.Handle(cfg.App.Routing.VehiclePositionsEndpoint, s.withCORS(s.handleVehiclePositions))
	if cfg.App.MonitorEnabled {
		mux.Handle(cfg.App.Routing.MonitorEndpoint, s.withCORS(s.handleMonitor))
	}

	s.httpServer = &http.Server{
		Addr:    cfg.App.ListenAddr,
		Handler: mux,
	}
	return s
}

// Start begins serving in a background goroutine; errors other than
// http.ErrServerClosed are logged.
func (s *Server) Start() {
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("http server stopped unexpectedly", "error", err)
		}
	}()
	s.log.Info("http server listening", "addr", s.cfg.App.ListenAddr)
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) withCORS(handler http.HandlerFunc) http.HandlerFunc {
	if !s.cfg.App.CORSEnabled {
		return handler
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		handler(w, r)
	}
}

// format resolves the ?f= query parameter, defaulting to protobuf.
func format(r *http.Request) string {
	f := r.URL.Query().Get("f")
	if f == "json" {
		return "json"
	}
	return "pbf"
}

func (s *Server) handleTripUpdates(w http.ResponseWriter, r *http.Request) {
	s.serveFeed(w, r, "trip-updates", func(ctx context.Context) (proto.Message, error) {
		rows, err := s.gateway.FetchRealtimeTripUpdates(ctx)
		if err != nil {
			return nil, err
		}
		return buildTripUpdatesFeed(rows, time.Now()), nil
	})
}

func (s *Server) handleServiceAlerts(w http.ResponseWriter, r *http.Request) {
	s.serveFeed(w, r, "service-alerts", func(ctx context.Context) (proto.Message, error) {
		rows, err := s.gateway.FetchRealtimeServiceAlerts(ctx)
		if err != nil {
			return nil, err
		}
		return buildServiceAlertsFeed(rows, time.Now()), nil
	})
}

func (s *Server) handleVehiclePositions(w http.ResponseWriter, r *http.Request) {
	s.serveFeed(w, r, "vehicle-positions", func(ctx context.Context) (proto.Message, error) {
		rows, err := s.gateway.FetchRealtimeVehiclePositions(ctx)
		if err != nil {
			return nil, err
		}
		return buildVehiclePositionsFeed(rows, time.Now()), nil
	})
}

// serveFeed handles the shared fetch -> cache -> marshal -> write path
// for the three pbf endpoints.
func (s *Server) serveFeed(w http.ResponseWriter, r *http.Request, endpoint string, fetch func(context.Context) (proto.Message, error)) {
	f := format(r)
	if cached, ok := s.cache.Get(endpoint, f); ok {
		writeFeedBody(w, f, cached)
		return
	}

	msg, err := fetch(r.Context())
	if err != nil {
		s.log.Error("fetch feed failed", "endpoint", endpoint, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	body, err := marshalFeed(msg, f)
	if err != nil {
		s.log.Error("marshal feed failed", "endpoint", endpoint, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.cache.Set(endpoint, f, body)
	writeFeedBody(w, f, body)
}

func marshalFeed(msg proto.Message, f string) ([]byte, error) {
	if f == "json" {
		return protojson.Marshal(msg)
	}
	return proto.Marshal(msg)
}

func writeFeedBody(w http.ResponseWriter, f string, body []byte) {
	if f == "json" {
		w.Header().Set("Content-Type", "application/json")
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	w.Write(body)
}

// handleMonitor renders the operation-day monitor view as HTML by
// default, or as JSON when ?f=json is given.
func (s *Server) handleMonitor(w http.ResponseWriter, r *http.Request) {
	rows, err := s.gateway.FetchRealtimeOperationDayMonitorTrips(r.Context(), time.Now())
	if err != nil {
		s.log.Error("fetch monitor rows failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if format(r) == "json" {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rows)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderMonitorHTML(w, rows)
}
