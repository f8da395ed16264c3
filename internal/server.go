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

	"github.com/2beens/pushuppal/internal/achievements"
	"github.com/2beens/pushuppal/internal/auth"
	"github.com/2beens/pushuppal/internal/config"
	"github.com/2beens/pushuppal/internal/db"
	"github.com/2beens/pushuppal/internal/goals"
	"github.com/2beens/pushuppal/internal/logs"
	"github.com/2beens/pushuppal/internal/middleware"
	"github.com/2beens/pushuppal/internal/prestige"
	"github.com/2beens/pushuppal/internal/stats"
	"github.com/2beens/pushuppal/internal/telemetry/metrics"
	"github.com/2beens/pushuppal/internal/telemetry/tracing"
	"github.com/2beens/pushuppal/pkg"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config *config.Config
	dbPool *pgxpool.Pool

	redisClient  *redis.Client
	loginChecker *auth.LoginChecker
	authService  *auth.Service

	achievementsService *achievements.Service
	evalPipeline        *achievements.Pipeline
	evalPipelineCancel  context.CancelFunc

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
	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         params.Config.PostgresHost,
		DBPort:         params.Config.PostgresPort,
		DBName:         params.Config.PostgresDBName,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": "pushup_pal_db"},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("backend", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0) // will be set to 1 when all is set and ran

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(params.Config.RedisHost, params.Config.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	authService := auth.NewService(auth.DefaultTTL, rdb)
	go func() {
		for range time.Tick(time.Hour * 8) {
			authService.ScanAndClean(ctx)
		}
	}()

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "pushup-pal-backend", rdb)
	if err != nil {
		return nil, err
	}

	achievementsService := achievements.NewService(
		logs.NewRepo(dbPool),
		goals.NewRepo(dbPool),
		achievements.NewEarnedRepo(dbPool),
		prestige.NewRepo(dbPool),
		achievements.NewRedisNotifier(rdb),
		metricsManager,
		achievements.ServiceConfig{
			Revocable:      params.Config.AchievementsRevocable,
			GracePeriod:    time.Duration(params.Config.NotifyGraceSeconds) * time.Second,
			NotifyCooldown: time.Duration(params.Config.NotifyCooldownSeconds) * time.Second,
		},
	)
	evalPipeline := achievements.NewPipeline(
		achievementsService,
		time.Duration(params.Config.EvalSettleMillis)*time.Millisecond,
	)

	return &Server{
		config:      params.Config,
		dbPool:      dbPool,
		versionInfo: params.VersionInfo,

		redisClient:  rdb,
		authService:  authService,
		loginChecker: auth.NewLoginChecker(auth.DefaultTTL, rdb),

		achievementsService: achievementsService,
		evalPipeline:        evalPipeline,

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)
	authHandler := auth.NewHandler(
		auth.NewUsersRepo(s.dbPool),
		s.authService,
		s.evalPipeline,
	)
	authRouter := r.PathPrefix("/a").Subrouter()
	authRouter.Use(middleware.RateLimit(
		reqRateLimiter,
		"auth",
		s.config.LoginRateLimitAllowedPerMin,
		s.metricsManager,
	))
	authRouter.HandleFunc("/signup", authHandler.HandleSignup).Methods("POST", "OPTIONS").Name("signup")
	authRouter.HandleFunc("/login", authHandler.HandleLogin).Methods("POST", "OPTIONS").Name("login")
	authRouter.HandleFunc("/logout", authHandler.HandleLogout).Methods("POST", "OPTIONS").Name("logout")
	authRouter.HandleFunc("/whoami", authHandler.HandleWhoAmI).Methods("GET", "OPTIONS").Name("whoami")

	entriesRepo := logs.NewRepo(s.dbPool)
	goalsRepo := goals.NewRepo(s.dbPool)

	logsHandler := logs.NewHandler(entriesRepo, s.evalPipeline, s.metricsManager)
	r.HandleFunc("/pushups/log", logsHandler.HandleAdd).Methods("POST", "OPTIONS").Name("new-log-entry")
	r.HandleFunc("/pushups/list", logsHandler.HandleList).Methods("GET", "OPTIONS").Name("list-log-entries")
	r.HandleFunc("/pushups/log/{id}", logsHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("remove-log-entry")
	r.HandleFunc("/pushups/day/{day}", logsHandler.HandleDeleteDay).Methods("DELETE", "OPTIONS").Name("remove-log-day")
	r.HandleFunc("/pushups/all", logsHandler.HandleClear).Methods("DELETE", "OPTIONS").Name("clear-log")

	goalsHandler := goals.NewHandler(goalsRepo, s.evalPipeline)
	r.HandleFunc("/goals", goalsHandler.HandleSet).Methods("POST", "OPTIONS").Name("set-goal")
	r.HandleFunc("/goals/current", goalsHandler.HandleGetCurrent).Methods("GET", "OPTIONS").Name("get-goal")
	r.HandleFunc("/goals/history", goalsHandler.HandleGetHistory).Methods("GET", "OPTIONS").Name("goal-history")

	statsHandler := stats.NewHandler(entriesRepo, goalsRepo)
	r.HandleFunc("/stats", statsHandler.HandleGetStats).Methods("GET", "OPTIONS").Name("stats")
	r.HandleFunc("/stats/streak", statsHandler.HandleGetStreak).Methods("GET", "OPTIONS").Name("streak")
	r.HandleFunc("/stats/weekly", statsHandler.HandleGetWeekly).Methods("GET", "OPTIONS").Name("weekly-stats")
	r.HandleFunc("/stats/hourly", statsHandler.HandleGetHourly).Methods("GET", "OPTIONS").Name("hourly-stats")

	achievementsHandler := achievements.NewHandler(s.achievementsService)
	r.HandleFunc("/achievements", achievementsHandler.HandleList).Methods("GET", "OPTIONS").Name("achievements")
	r.HandleFunc("/achievements/evaluate", achievementsHandler.HandleEvaluate).Methods("POST", "OPTIONS").Name("evaluate-achievements")

	prestigeHandler := prestige.NewHandler(prestige.NewRepo(s.dbPool), s.evalPipeline)
	r.HandleFunc("/prestige", prestigeHandler.HandleGet).Methods("GET", "OPTIONS").Name("prestige")
	r.HandleFunc("/prestige/increment", prestigeHandler.HandleIncrement).Methods("POST", "OPTIONS").Name("prestige-increment")

	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		pkg.WriteTextResponseOK(w, "I'm Pushup Pal, and I'm OK.")
	}).Methods("GET").Name("root")
	r.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		pkg.WriteTextResponseOK(w, s.versionInfo)
	}).Methods("GET").Name("version")

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.loginChecker)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors())
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) Serve(ctx context.Context, host string, port int) {
	router := s.routerSetup()

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	s.evalPipelineCancel = pipelineCancel
	go s.evalPipeline.Run(pipelineCtx)

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
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

	if s.evalPipelineCancel != nil {
		// let the pipeline drain pending evaluations before the db pool goes away
		s.evalPipelineCancel()
		select {
		case <-s.evalPipeline.Done():
			log.Debugln("evaluation pipeline drained")
		case <-time.After(10 * time.Second):
			log.Error(" >>> evaluation pipeline failed to drain in time")
		}
	}

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown http server")
	}
	log.Warnln("server shut down")

	if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown metrics http server")
	}
	log.Warnln("metrics server shut down")
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
