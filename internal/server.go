package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/2beens/jogtracker/internal/auth"
	"github.com/2beens/jogtracker/internal/cache"
	"github.com/2beens/jogtracker/internal/config"
	"github.com/2beens/jogtracker/internal/jogapi"
	"github.com/2beens/jogtracker/internal/middleware"
	"github.com/2beens/jogtracker/internal/telemetry/metrics"
	"github.com/2beens/jogtracker/internal/telemetry/tracing"
	"github.com/2beens/jogtracker/internal/tracker"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config      *config.Config
	redisClient *redis.Client
	jogClient   *jogapi.Client
	authService *auth.Service
	hub         *tracker.Hub
	registry    *tracker.Registry
	reportCache *cache.FreeCache

	// background work (sessions cleanup)
	cancelBackground context.CancelFunc
	wg               sync.WaitGroup
	shutdownOnce     sync.Once

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	RedisPassword           string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config

	promRegistry := metrics.SetupPrometheus()
	metricsManager := metrics.NewManager("jogtracker", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "jogtracker", rdb)
	if err != nil {
		return nil, err
	}

	tracedHttpClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   cfg.JogAPITimeout(),
	}
	jogClient, err := jogapi.NewClient(cfg.JogAPIBaseURL, tracedHttpClient)
	if err != nil {
		otelShutdown()
		return nil, fmt.Errorf("new jog api client: %w", err)
	}

	s, err := newServer(ctx, cfg, rdb, jogClient, metricsManager, promRegistry, params.VersionInfo)
	if err != nil {
		otelShutdown()
		return nil, err
	}
	s.otelShutdown = otelShutdown

	return s, nil
}

func newServer(
	ctx context.Context,
	cfg *config.Config,
	rdb *redis.Client,
	jogClient *jogapi.Client,
	metricsManager *metrics.Manager,
	promRegistry *prometheus.Registry,
	versionInfo string,
) (*Server, error) {
	// stream updates are relayed to the other instances only when enabled
	var relayClient *redis.Client
	if cfg.StreamRelayEnabled {
		relayClient = rdb
	}
	hub, err := tracker.NewHub(ctx, relayClient, metricsManager)
	if err != nil {
		return nil, fmt.Errorf("new stream hub: %w", err)
	}

	return &Server{
		versionInfo: versionInfo,
		config:      cfg,
		redisClient: rdb,
		jogClient:   jogClient,
		authService: auth.NewAuthService(cfg.SessionTTL(), rdb),
		hub:         hub,
		registry:    tracker.NewRegistry(jogClient, hub, metricsManager),
		reportCache: cache.NewFreeCache(cfg.ReportCacheSizeMB, cfg.ReportCacheTTLSec),

		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   func() {},
	}, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	trackerHandler := tracker.NewHandler(
		s.jogClient,
		s.authService,
		s.registry,
		s.hub,
		s.reportCache,
		s.metricsManager,
		s.versionInfo,
	)
	trackerHandler.SetupRoutes(
		r,
		redis_rate.NewLimiter(s.redisClient),
		s.config.LoginRateLimitAllowedPerMin,
	)

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "DELETE", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.authService)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.CorsAllowedOrigins...))
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) metricsRouterSetup() *mux.Router {
	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{Registry: s.promRegistry},
	))
	return metricsRouter
}

func (s *Server) Serve(ctx context.Context, host string, port int) {
	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:           s.routerSetup(),
		Addr:              ipAndPort,
		ReadHeaderTimeout: 10 * time.Second,
		ConnState:         s.connStateMetrics,
	}

	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:              metricsAddr,
		Handler:           s.metricsRouterSetup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.startSessionsCleanup(ctx, s.config.SessionsCleanupInterval())

	s.metricsManager.GaugeLifeSignal.Set(1)
}

// startSessionsCleanup periodically drops expired login sessions, together
// with their live coordinators.
func (s *Server) startSessionsCleanup(ctx context.Context, interval time.Duration) {
	ctx, s.cancelBackground = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupSessions(ctx)
			}
		}
	}()
}

func (s *Server) cleanupSessions(ctx context.Context) {
	removed := s.authService.ScanAndClean(ctx)
	for _, token := range removed {
		s.registry.Remove(token)
	}
	if len(removed) > 0 {
		log.Debugf("sessions cleanup: removed %d expired sessions", len(removed))
	}
}

// GracefulShutdown stops the servers and releases every resource; calls after the first do nothing.
func (s *Server) GracefulShutdown() {
	s.shutdownOnce.Do(s.shutdown)
}

func (s *Server) shutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	if s.cancelBackground != nil {
		s.cancelBackground()
	}
	s.wg.Wait()

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}
	// hijacked stream connections are not tracked by Shutdown, closing the hub ends them
	s.hub.Close()

	s.registry.CloseAll()
	log.Trace("sync coordinators closed ...")

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed, http.StateHijacked:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
