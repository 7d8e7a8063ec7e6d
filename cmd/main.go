package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"waste-bin-monitor/internal/config"
	"waste-bin-monitor/internal/domain/device"
	"waste-bin-monitor/internal/infrastructure/cache"
	"waste-bin-monitor/internal/infrastructure/database/postgres"
	"waste-bin-monitor/internal/ingestion"
	"waste-bin-monitor/internal/logger"
	"waste-bin-monitor/internal/notify"
	"waste-bin-monitor/internal/realtime"
	"waste-bin-monitor/internal/routes"
	"waste-bin-monitor/internal/scheduler"
	pkgmqtt "waste-bin-monitor/pkg/mqtt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	env := cfg.Server.Environment
	if env == "" {
		env = "development"
	}
	if err := logger.Init(env); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting application", zap.String("environment", env))

	if cfg.Database.Host == "" || cfg.Database.DBName == "" {
		logger.Fatal("Database configuration is missing. Please set DB_HOST and DB_NAME environment variables.")
	}

	db, err := postgres.NewDB(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(); err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	deviceRepository := postgres.NewDeviceRepository(db)
	var registry device.Registry = deviceRepository
	if cfg.Redis.Enabled {
		rdb, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer rdb.Close()
		registry = cache.NewRegistryCache(deviceRepository, rdb, cfg.Redis.TTL, logger.Named("cache"))
	}

	hub := realtime.NewHub()
	var auth realtime.Authenticator
	if cfg.JWT.Secret != "" {
		auth = realtime.JWTAuthenticator{Secret: cfg.JWT.Secret}
	} else {
		logger.Warn("JWT_SECRET is not set, live sessions register without a token")
	}
	wsHandler := realtime.NewHandler(hub, auth, cfg.CORS.AllowedOrigins, logger.Named("realtime"))

	dispatcher := notify.NewDispatcher(postgres.NewNotificationRepository(db), hub, logger.Named("notify"))
	resolver := notify.NewResolver(postgres.NewUserRepository(db))

	service := ingestion.NewService(
		registry,
		deviceRepository,
		postgres.NewTelemetryRepository(db),
		resolver,
		dispatcher,
		logger.Named("ingestion"),
	)
	processor := ingestion.NewProcessor(
		service,
		cfg.Ingestion.Workers,
		cfg.Ingestion.QueueSize,
		cfg.Ingestion.MessageTimeout,
		logger.Named("processor"),
	)
	processor.Start()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var sources []interface{ Stop() }

	if cfg.MQTT.Enabled {
		source, err := ingestion.NewMQTTSource(&ingestion.MQTTSourceConfig{
			ClientConfig: &pkgmqtt.Config{
				Broker:               cfg.MQTT.Broker,
				ClientID:             cfg.MQTT.ClientID,
				Username:             cfg.MQTT.Username,
				Password:             cfg.MQTT.Password,
				CleanSession:         true,
				KeepAlive:            cfg.MQTT.KeepAlive,
				ConnectTimeout:       cfg.MQTT.ConnectTimeout,
				AutoReconnect:        true,
				MaxReconnectInterval: cfg.MQTT.MaxReconnectInterval,
			},
			TelemetryTopic: cfg.MQTT.TelemetryTopic,
			EventTopic:     cfg.MQTT.EventTopic,
			QoS:            cfg.MQTT.QoS,
		}, processor, logger.Named("mqtt"))
		if err != nil {
			logger.Fatal("Failed to configure MQTT ingestion", zap.Error(err))
		}
		if err := source.Start(); err != nil {
			logger.Fatal("Failed to start MQTT ingestion", zap.Error(err))
		}
		sources = append(sources, source)
	}

	if cfg.NATS.Enabled {
		source, err := ingestion.NewNATSSource(ingestion.NATSSourceConfig{
			URL:              cfg.NATS.URL,
			Stream:           cfg.NATS.Stream,
			Consumer:         cfg.NATS.Consumer,
			TelemetrySubject: cfg.NATS.TelemetrySubject,
			EventSubject:     cfg.NATS.EventSubject,
			AckWait:          cfg.NATS.AckWait,
		}, processor, logger.Named("nats"))
		if err != nil {
			logger.Fatal("Failed to configure NATS ingestion", zap.Error(err))
		}
		if err := source.Start(ctx); err != nil {
			logger.Fatal("Failed to start NATS ingestion", zap.Error(err))
		}
		sources = append(sources, source)
	}

	deps := routes.Deps{
		DB:        db,
		Ingestion: processor,
		Sessions:  hub,
		Realtime:  wsHandler,
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Offline.After > 0 {
		sweeper := scheduler.NewOfflineSweeper(deviceRepository, processor, dispatcher, cfg.Offline.After, logger.Named("offline"))
		deps.Sweeper = sweeper
		g.Go(func() error {
			return scheduler.Start(gctx, sweeper, cfg.Offline.Interval, logger.Named("scheduler"))
		})
	}

	router := routes.SetupRoutes(cfg, deps)

	host := cfg.Server.Host
	if host == "" {
		host = "0.0.0.0"
	}
	addr := net.JoinHostPort(host, cfg.Server.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g.Go(func() error {
		logger.Info("Server starting", zap.String("address", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown Server ...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
	}

	// stop intake before draining the queues
	for _, source := range sources {
		source.Stop()
	}
	processor.Stop()
	logger.Info("Server exited properly")
}
