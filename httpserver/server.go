package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/flashbots/go-utils/httplogger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ruteri/balancer-helper-registry/api"
	"github.com/ruteri/balancer-helper-registry/common"
	"github.com/ruteri/balancer-helper-registry/metrics"
	"go.uber.org/atomic"
)

// Health states reported by /livez, /readyz, /drain and /undrain.
const (
	healthAlive    = "alive"
	healthReady    = "ready"
	healthDraining = "draining"
	healthDrained  = "drained"
)

type Server struct {
	cfg *api.HTTPServerConfig
	log *slog.Logger

	// drainedAt is zero while the server accepts traffic.
	drainedAt atomic.Time
	now       func() time.Time

	srv        *http.Server
	metricsSrv *metrics.MetricsServer
	handler    *Handler
}

// New creates the API server. metricsSrv is served on cfg.MetricsAddr when
// that is set; it is created here when nil.
func New(cfg *api.HTTPServerConfig, handler *Handler, metricsSrv *metrics.MetricsServer) (srv *Server, err error) {
	if metricsSrv == nil {
		metricsSrv, err = metrics.New(common.PackageName, cfg.MetricsAddr)
		if err != nil {
			return nil, err
		}
	}

	srv = &Server{
		cfg:        cfg,
		log:        cfg.Log,
		now:        time.Now,
		metricsSrv: metricsSrv,
		handler:    handler,
	}

	srv.srv = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      srv.getRouter(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return srv, nil
}

func (srv *Server) getRouter() http.Handler {
	mux := chi.NewRouter()

	mux.With(srv.httpLogger).Mount("/api", srv.handler.Routes())

	mux.Group(func(r chi.Router) {
		r.Use(srv.httpLogger)
		r.Get("/livez", srv.handleLivenessCheck)
		r.Get("/readyz", srv.handleReadinessCheck)
		r.Get("/drain", srv.handleDrain)
		r.Get("/undrain", srv.handleUndrain)
	})

	if srv.cfg.EnablePprof {
		srv.log.Info("pprof API enabled")
		mux.Mount("/debug", middleware.Profiler())
	}
	return mux
}

func (srv *Server) httpLogger(next http.Handler) http.Handler {
	return httplogger.LoggingMiddlewareSlog(srv.log, next)
}

// readiness reports ready until the server is drained, then draining for
// cfg.DrainDuration, then drained.
func (srv *Server) readiness() string {
	drainedAt := srv.drainedAt.Load()
	switch {
	case drainedAt.IsZero():
		return healthReady
	case srv.now().Sub(drainedAt) < srv.cfg.DrainDuration:
		return healthDraining
	default:
		return healthDrained
	}
}

func (srv *Server) writeHealth(w http.ResponseWriter, status int, state string) {
	srv.handler.writeJSON(w, status, api.StatusResponse{
		Status:    state,
		PoolCount: srv.handler.registry.PoolsLength(),
	})
}

func (srv *Server) handleLivenessCheck(w http.ResponseWriter, r *http.Request) {
	srv.writeHealth(w, http.StatusOK, healthAlive)
}

func (srv *Server) handleReadinessCheck(w http.ResponseWriter, r *http.Request) {
	state := srv.readiness()
	if state != healthReady {
		srv.writeHealth(w, http.StatusServiceUnavailable, state)
		return
	}
	srv.writeHealth(w, http.StatusOK, state)
}

// handleDrain takes the server out of rotation. Draining an already drained
// server keeps the original drain time.
func (srv *Server) handleDrain(w http.ResponseWriter, r *http.Request) {
	srv.drain()
	srv.writeHealth(w, http.StatusOK, srv.readiness())
}

func (srv *Server) handleUndrain(w http.ResponseWriter, r *http.Request) {
	if !srv.drainedAt.Load().IsZero() {
		srv.drainedAt.Store(time.Time{})
		srv.log.Info("Server marked as ready")
	}
	srv.writeHealth(w, http.StatusOK, healthReady)
}

func (srv *Server) drain() {
	if srv.drainedAt.Load().IsZero() {
		srv.drainedAt.Store(srv.now())
		srv.log.Info("Server marked as not ready", "drainDuration", srv.cfg.DrainDuration)
	}
}

func (srv *Server) RunInBackground() {
	// metrics
	if srv.cfg.MetricsAddr != "" {
		go func() {
			srv.log.With("metricsAddress", srv.cfg.MetricsAddr).Info("Starting metrics server")
			err := srv.metricsSrv.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				srv.log.Error("Metrics server failed", "err", err)
			}
		}()
	}

	// api
	go func() {
		srv.log.Info("Starting HTTP server", "listenAddress", srv.cfg.ListenAddr)
		if err := srv.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srv.log.Error("HTTP server failed", "err", err)
		}
	}()
}

func (srv *Server) Shutdown() {
	srv.drain()

	// api
	ctx, cancel := context.WithTimeout(context.Background(), srv.cfg.GracefulShutdownDuration)
	defer cancel()
	if err := srv.srv.Shutdown(ctx); err != nil {
		srv.log.Error("Graceful HTTP server shutdown failed", "err", err)
	} else {
		srv.log.Info("HTTP server gracefully stopped")
	}

	// metrics
	if len(srv.cfg.MetricsAddr) != 0 {
		ctx, cancel := context.WithTimeout(context.Background(), srv.cfg.GracefulShutdownDuration)
		defer cancel()

		if err := srv.metricsSrv.Shutdown(ctx); err != nil {
			srv.log.Error("Graceful metrics server shutdown failed", "err", err)
		} else {
			srv.log.Info("Metrics server gracefully stopped")
		}
	}
}
