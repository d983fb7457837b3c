package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/multierr"

	"github.com/2beens/healthtracker/internal/challenges"
	"github.com/2beens/healthtracker/internal/config"
	"github.com/2beens/healthtracker/internal/db"
	"github.com/2beens/healthtracker/internal/leaderboard"
	"github.com/2beens/healthtracker/internal/middleware"
	"github.com/2beens/healthtracker/internal/plan"
	"github.com/2beens/healthtracker/internal/progress"
	"github.com/2beens/healthtracker/internal/session"
	"github.com/2beens/healthtracker/internal/telemetry/metrics"
	"github.com/2beens/healthtracker/internal/telemetry/tracing"
)

type planRepo interface {
	Create(ctx context.Context, plan *plan.Plan) (*plan.Plan, error)
	Get(ctx context.Context, userID int64) (*plan.Plan, error)
	Delete(ctx context.Context, userID int64) error
}

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server

	config      *config.Config
	dbPool      *pgxpool.Pool
	redisClient *redis.Client
	rateLimiter middleware.RequestRateLimiter

	plans          planRepo
	sessionService *session.Service
	aggregator     *progress.Aggregator
	board          *leaderboard.Board
	challengesPool *challenges.Pool

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	RedisPassword           string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config

	var (
		dbPool     *pgxpool.Pool
		collectors []prometheus.Collector
	)
	if cfg.Storage == config.StoragePostgres {
		var err error
		dbPool, err = db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDBName,
			TracingEnabled: params.HoneycombTracingEnabled,
		})
		if err != nil {
			return nil, fmt.Errorf("new db pool: %w", err)
		}

		if err := dbPool.Ping(ctx); err != nil {
			log.Warnf("failed to ping db: %s", err)
		}

		if cfg.MigrateOnStart {
			if err := db.Migrate(ctx, dbPool); err != nil {
				return nil, fmt.Errorf("migrate db: %w", err)
			}
		}

		collectors = append(collectors, pgxpoolprometheus.NewCollector(
			dbPool,
			map[string]string{"db_name": cfg.PostgresDBName},
		))
	}

	promRegistry := metrics.SetupPrometheus(collectors...)
	metricsManager := metrics.NewManager("healthtracker", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: params.RedisPassword,
		DB:       0,
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "healthtracker", rdb)
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	challengesPool, err := challenges.LoadPool(cfg.ChallengesCsvPath)
	if err != nil {
		return nil, fmt.Errorf("load challenges pool: %w", err)
	}

	var (
		plans planRepo
		store session.Store
	)
	switch cfg.Storage {
	case config.StoragePostgres:
		plans = plan.NewRepo(dbPool)
		store = session.NewPsqlStore(dbPool)
	default:
		log.Warnln("using in-memory storage, data is lost on restart")
		plans = plan.NewMemoryRepo()
		store = session.NewMemoryStore()
	}

	s := newServer(serverComponents{
		config:         cfg,
		location:       loc,
		plans:          plans,
		store:          store,
		redisClient:    rdb,
		rateLimiter:    redis_rate.NewLimiter(rdb),
		challengesPool: challengesPool,
		metricsManager: metricsManager,
	})
	s.dbPool = dbPool
	s.promRegistry = promRegistry
	s.otelShutdown = otelShutdown

	if err := s.syncLeaderboard(ctx, store); err != nil {
		log.Errorf("sync leaderboard: %s", err)
	}

	return s, nil
}

type serverComponents struct {
	config         *config.Config
	location       *time.Location
	clock          session.Clock
	plans          planRepo
	store          session.Store
	redisClient    *redis.Client
	rateLimiter    middleware.RequestRateLimiter
	challengesPool *challenges.Pool
	metricsManager *metrics.Manager
}

// newServer builds the domain services on top of already connected dependencies.
func newServer(c serverComponents) *Server {
	sessionService := session.NewService(session.ServiceParams{
		Store:          c.store,
		Plans:          c.plans,
		Clock:          c.clock,
		Location:       c.location,
		StreakRule:     session.StreakRule(c.config.StreakRule),
		SameDayPolicy:  session.SameDayPolicy(c.config.SameDayPolicy),
		MetricsManager: c.metricsManager,
	})

	progressCache := progress.NewCache(progress.DefaultCacheSize, progress.DefaultCacheExpiry, c.metricsManager)
	board := leaderboard.NewBoard(c.redisClient, c.store)
	sessionService.AddListener(progressCache)
	sessionService.AddListener(board)

	return &Server{
		config:         c.config,
		redisClient:    c.redisClient,
		rateLimiter:    c.rateLimiter,
		plans:          c.plans,
		sessionService: sessionService,
		aggregator:     progress.NewAggregator(c.store, progressCache, sessionService.Today),
		board:          board,
		challengesPool: c.challengesPool,
		metricsManager: c.metricsManager,
		otelShutdown:   func() {},
	}
}

type profileLister interface {
	ListProfiles(ctx context.Context) ([]session.Profile, error)
}

func (s *Server) syncLeaderboard(ctx context.Context, profiles profileLister) error {
	all, err := profiles.ListProfiles(ctx)
	if err != nil {
		return fmt.Errorf("list profiles: %w", err)
	}
	return s.board.Rebuild(ctx, all)
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("healthtracker-router"))

	plan.NewHandler(s.plans).SetupRoutes(r)
	session.NewHandler(s.sessionService).SetupRoutes(r)
	progress.NewHandler(s.aggregator).SetupRoutes(r)
	challenges.NewHandler(s.challengesPool, s.sessionService.Today).SetupRoutes(r)
	leaderboard.NewHandler(s.board).SetupRoutes(r)

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "DELETE", "OPTIONS").Name("unknown")

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors())
	r.Use(middleware.UserIdentity("/challenges/today", "/leaderboard"))
	r.Use(middleware.RateLimit(
		s.rateLimiter,
		s.metricsManager,
		"post",
		s.config.SubmitRateLimitPerMin,
		http.MethodPost,
	))

	return r
}

func (s *Server) Serve(host string, port int) {
	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      otelhttp.NewHandler(s.routerSetup(), "healthtracker"),
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{Registry: s.promRegistry},
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
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

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	var err error
	if s.httpServer != nil {
		err = multierr.Append(err, s.httpServer.Shutdown(ctx))
		log.Warnln("server shut down")
	}
	if s.metricsHttpServer != nil {
		err = multierr.Append(err, s.metricsHttpServer.Shutdown(ctx))
		log.Warnln("metrics server shut down")
	}

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		err = multierr.Append(err, s.redisClient.Close())
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	for _, shutdownErr := range multierr.Errors(err) {
		log.Errorf("graceful shutdown: %s", shutdownErr)
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}
}
