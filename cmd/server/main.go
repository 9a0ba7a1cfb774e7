package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coastalfit/coach-app/internal/api"
	"coastalfit/coach-app/internal/config"
	"coastalfit/coach-app/internal/logging"
	"coastalfit/coach-app/internal/metrics"
	"coastalfit/coach-app/internal/notify"
	"coastalfit/coach-app/internal/repository/mongo"
	"coastalfit/coach-app/internal/resetcode"
	"coastalfit/coach-app/internal/service"
	"coastalfit/coach-app/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// @title Coaching API
// @version 1.0
// @description API for specialists and clients: workouts, goals, nutrition plans, measurements and the exercise catalog.
// @contact.name API Support
// @contact.email support@example.com
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	logging.Setup(logging.LoggerSetupParams{
		LogFileName:   cfg.Log.File,
		LogToStdout:   cfg.Log.Stdout,
		LogLevel:      cfg.Log.Level,
		LogFormatJSON: cfg.Log.JSON,
	})
	gin.SetMode(cfg.Server.Mode)
	log.Info("starting coaching server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database ---
	dbClient, err := mongo.ConnectDB(ctx, cfg.Database.URI)
	if err != nil {
		log.Fatalf("could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Info("disconnecting MongoDB")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Errorf("failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)

	indexCtx, cancelIndexes := context.WithTimeout(ctx, time.Minute)
	if err := mongo.EnsureIndexes(indexCtx, appDB); err != nil {
		cancelIndexes()
		log.Fatalf("could not create indexes: %v", err)
	}
	cancelIndexes()
	log.Debug("database indexes ensured")

	// --- Storage ---
	fileStorage, err := storage.NewS3Storage(ctx, cfg.S3)
	if err != nil {
		log.Fatalf("failed to initialize S3 storage: %v", err)
	}

	// --- Password reset codes ---
	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		log.Fatalf("invalid redis url: %v", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()
	resetCodes := resetcode.NewStore(redisClient, cfg.Reset.CodeTTL)

	// --- Notifications ---
	var (
		notifier notify.Notifier    = notify.Nop{}
		mailer   notify.EmailSender = notify.LogEmailSender{}
	)
	if cfg.AMQP.Enabled {
		broker, err := notify.Dial(cfg.AMQP.URL)
		if err != nil {
			log.Fatalf("could not connect to AMQP broker: %v", err)
		}
		defer broker.Close()
		events, err := broker.Producer(cfg.AMQP.EventsQueue)
		if err != nil {
			log.Fatalf("could not declare events queue: %v", err)
		}
		emails, err := broker.Producer(cfg.AMQP.EmailQueue)
		if err != nil {
			log.Fatalf("could not declare email queue: %v", err)
		}
		notifier = notify.NewQueueNotifier(events)
		mailer = notify.NewQueueEmailSender(emails)
	} else {
		log.Warn("AMQP disabled: events are dropped and reset codes only logged")
	}

	// --- Metrics ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metricsManager := metrics.NewManager(cfg.Metrics.Namespace, "server", registry)
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		metricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	}

	// --- Repositories and services ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	workoutRepo := mongo.NewMongoWorkoutRepository(appDB)
	goalRepo := mongo.NewMongoGoalRepository(appDB)
	measurementRepo := mongo.NewMongoMeasurementRepository(appDB)
	nutritionRepo := mongo.NewMongoNutritionRepository(appDB)
	catalogRepo := mongo.NewMongoCatalogRepository(appDB)

	base := service.Base{Users: userRepo, Notifier: notifier, Metrics: metricsManager}
	services := api.Services{
		Auth: service.NewAuthService(userRepo, resetCodes, mailer, cfg.JWT.Secret, cfg.JWT.Expiration),
		Users: service.NewUserService(base, service.ClientData{
			Workouts:     workoutRepo,
			Goals:        goalRepo,
			Measurements: measurementRepo,
			Nutrition:    nutritionRepo,
		}, fileStorage, cfg.S3.PresignExpiry),
		Workouts:     service.NewWorkoutService(base, workoutRepo),
		Goals:        service.NewGoalService(base, goalRepo),
		Nutrition:    service.NewNutritionService(base, nutritionRepo),
		Measurements: service.NewMeasurementService(base, measurementRepo),
		Catalog:      service.NewCatalogService(base, catalogRepo),
	}

	router := api.NewRouter(services, api.RouterOptions{
		DebugErrors:    cfg.Server.DebugErrors,
		Metrics:        metricsManager,
		MetricsHandler: metricsHandler,
	})

	// --- HTTP server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Infof("server listening on %s", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("listen and serve: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("server forced to shutdown: %v", err)
		os.Exit(1)
	}
	log.Info("server exited")
}
