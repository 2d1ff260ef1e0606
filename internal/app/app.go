package app

import (
	"context"
	"errors"
	"fmt"
	"hunt_backend/internal/config"
	"hunt_backend/internal/controller"
	"hunt_backend/internal/repository"
	"hunt_backend/internal/service"
	"hunt_backend/pkg/configwatcher"
	"hunt_backend/pkg/database"
	"hunt_backend/pkg/logger"
	"hunt_backend/pkg/monitoring"
	"hunt_backend/pkg/security"
	"hunt_backend/pkg/tracing"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// queueDrainTimeout bounds how long Close waits for queued evaluations;
// answers left over are picked up by the next sweep.
const queueDrainTimeout = 10 * time.Second

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client

	services        *services
	tracer          *sdktrace.TracerProvider
	configCallbacks []configwatcher.ReloadFunc

	ctx        context.Context
	cancel     context.CancelFunc
	background sync.WaitGroup
}

type repositories struct {
	answer    *repository.AnswerRepository
	location  *repository.LocationRepository
	export    *repository.ExportRepository
	huntState *repository.HuntStateRepository
	sweepLock *repository.SweepLock
}

type services struct {
	evaluator service.Evaluator
	scorer    *service.Scorer
	queue     *service.EvaluationQueue
	answer    *service.AnswerService
	sweep     *service.SweepService
	export    *service.ExportService
}

type controllers struct {
	answer *controller.AnswerController
	sweep  *controller.SweepController
	export *controller.ExportController
	health *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback configwatcher.ReloadFunc) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(cfg *config.Config) *repositories {
	return &repositories{
		answer:    repository.NewAnswerRepository(a.DB),
		location:  repository.NewLocationRepository(a.DB),
		export:    repository.NewExportRepository(a.DB),
		huntState: repository.NewHuntStateRepository(a.Redis, cfg.Hunt.PhaseKey, cfg.Hunt.AnswersReadyKey),
		sweepLock: repository.NewSweepLock(a.Redis, cfg.Sweep.LockTTL),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, evaluator service.Evaluator) *services {
	s := &services{evaluator: evaluator}

	s.scorer = service.NewScorer(repos.answer, evaluator)
	s.queue = service.NewEvaluationQueue(
		s.scorer,
		cfg.Evaluation.Workers,
		cfg.Evaluation.QueueSize,
		cfg.Evaluation.MaxAttempts,
		cfg.Evaluation.RetryBackoff,
	)
	s.answer = service.NewAnswerService(repos.answer, repos.location, repos.huntState, s.queue, cfg.Answer.EditWindow)

	var locker service.SweepLocker
	if cfg.Sweep.UseRedisLock {
		locker = repos.sweepLock
	}
	s.sweep = service.NewSweepService(repos.answer, s.scorer, locker, sweepSettings(cfg))
	s.export = service.NewExportService(repos.export)

	return s
}

func (a *App) initControllers(s *services) *controllers {
	return &controllers{
		answer: controller.NewAnswerController(s.answer),
		sweep:  controller.NewSweepController(s.sweep),
		export: controller.NewExportController(s.export),
		health: controller.NewHealthController(a.DB, a.Redis),
	}
}

func sweepSettings(cfg *config.Config) service.SweepSettings {
	return service.SweepSettings{
		Throttle:     cfg.Sweep.Throttle,
		AmbiguousMin: cfg.Sweep.AmbiguousMin,
		AmbiguousMax: cfg.Sweep.AmbiguousMax,
	}
}

// build wires repositories, services and routes on top of open connections.
func build(cfg *config.Config, db *gorm.DB, rdb *redis.Client, evaluator service.Evaluator) *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		ctx:    ctx,
		cancel: cancel,
	}

	repos := app.initRepositories(cfg)
	app.services = app.initServices(repos, cfg, evaluator)
	controllers := app.initControllers(app.services)

	monitoring.Init()

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	app.Router = router
	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	app.RegisterConfigCallback(func(newCfg *config.Config) {
		app.services.sweep.Configure(sweepSettings(newCfg))
		app.services.queue.SetRetryPolicy(newCfg.Evaluation.MaxAttempts, newCfg.Evaluation.RetryBackoff)
		logger.Log.Info("Applied reloaded sweep and evaluation settings",
			zap.Duration("throttle", newCfg.Sweep.Throttle),
			zap.Int("max_attempts", newCfg.Evaluation.MaxAttempts))
	})

	return app
}

// NewApp opens the database and Redis and wires the application. With
// cfg.MigrateOnly set it stops after migrating and only DB is populated.
func NewApp(cfg *config.Config) (*App, error) {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode == gin.DebugMode)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}
	if cfg.MigrateOnly {
		return &App{Config: cfg, DB: db}, nil
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		closeDB(db)
		return nil, fmt.Errorf("initialize redis: %w", err)
	}

	evaluator, err := service.NewEvaluator(context.Background(), cfg.Evaluator)
	if err != nil {
		rdb.Close()
		closeDB(db)
		return nil, fmt.Errorf("initialize evaluator: %w", err)
	}

	app := build(cfg, db, rdb, evaluator)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("initialize tracing: %w", err)
		}
		app.tracer = tp
	}

	return app, nil
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(a.ctx, cfg.RateLimit))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) startBackgroundTasks() {
	a.services.queue.Start(context.Background())

	if interval := a.Config.Sweep.Interval; interval > 0 {
		a.background.Add(1)
		go func() {
			defer a.background.Done()
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-a.ctx.Done():
					return
				case <-ticker.C:
					_, err := a.services.sweep.Run(a.ctx)
					if err != nil && !errors.Is(err, context.Canceled) {
						logger.Log.Error("Scheduled sweep failed", zap.Error(err))
					}
				}
			}
		}()
	}

	if a.Config.Path != "" {
		a.background.Add(1)
		go func() {
			defer a.background.Done()
			if err := configwatcher.Watch(a.ctx, a.Config.Path, a.configCallbacks...); err != nil {
				logger.Log.Error("Config watcher stopped", zap.Error(err))
			}
		}()
	}
}

// RunSweepOnce runs a single sweep and returns its report.
func (a *App) RunSweepOnce(ctx context.Context) (*service.SweepReport, error) {
	return a.services.sweep.Run(ctx)
}

func (a *App) Run() {
	a.startBackgroundTasks()

	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Listen failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	a.Close()
	logger.Log.Info("Server exiting")
}

// Close stops background work, drains the evaluation queue and releases
// connections.
func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	a.background.Wait()
	if a.services != nil {
		ctx, cancel := context.WithTimeout(context.Background(), queueDrainTimeout)
		if err := a.services.queue.Stop(ctx); err != nil {
			logger.Log.Warn("Evaluation queue did not drain in time", zap.Error(err))
		}
		cancel()
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.DB != nil {
		closeDB(a.DB)
	}
	logger.Log.Sync()
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
