package main

// @title           Hospital Polling Simulator API
// @version         1.0
// @description     Polling endpoints for hospital resources, bookings and change feeds.
// @host      localhost:3000
// @BasePath  /
// @securityDefinitions.apikey  ApiKeyAuth
// @in                          header
// @name                        Authorization
// @securityDefinitions.basic  BasicAuth

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	_ "github.com/Alwanly/hospital-polling/docs/simulator"
	"github.com/Alwanly/hospital-polling/internal/config"
	"github.com/Alwanly/hospital-polling/internal/server/hospital/handler"
	authentication "github.com/Alwanly/hospital-polling/pkg/auth"
	"github.com/Alwanly/hospital-polling/pkg/database"
	"github.com/Alwanly/hospital-polling/pkg/deps"
	"github.com/Alwanly/hospital-polling/pkg/logger"
	"github.com/Alwanly/hospital-polling/pkg/middleware"
	"github.com/Alwanly/hospital-polling/pkg/pubsub"
	swagger "github.com/gofiber/swagger"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	log, err := logger.NewLoggerFromEnv("simulator")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	log.Info("starting hospital simulator")

	cfg, err := config.LoadSimulatorConfig()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	log.Info("configuration loaded",
		logger.String("server_addr", cfg.ServerAddr),
		logger.String("database_path", cfg.DatabasePath),
		logger.Duration("default_interval", cfg.DefaultInterval),
		logger.Duration("min_interval", cfg.MinInterval),
		logger.Bool("token_auth", cfg.APIToken != ""),
		logger.Bool("staff_auth", cfg.StaffUsername != ""),
	)

	mid := middleware.NewAuthMiddleware(middleware.SetBasicAuth(&authentication.BasicAuthTConfig{
		Username: cfg.StaffUsername,
		Password: cfg.StaffPassword,
	}))

	db, err := database.NewSQLiteDB(cfg.DatabasePath)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	log.Info("database initialized", logger.String("path", cfg.DatabasePath))

	if err := database.RunMigrations(db); err != nil {
		log.WithError(err).Fatal("failed to migrate database")
	}
	if err := database.SeedInitialData(context.Background(), db, cfg.SeedHospitals...); err != nil {
		log.WithError(err).Fatal("failed to seed database")
	}
	log.Info("database ready", logger.Any("seed_hospitals", cfg.SeedHospitals))

	app := fiber.New(fiber.Config{
		AppName:               "Hospital Simulator",
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(log),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.CanonicalLoggerMiddleware(log))

	d := deps.App{
		Fiber:      app,
		Database:   db,
		Logger:     log,
		Middleware: mid,
	}

	if cfg.Redis != nil {
		redisPub, err := pubsub.NewRedisPubSub(pubsub.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, log)
		if err != nil {
			log.WithError(err).Error("failed to initialize redis, change hints disabled",
				logger.String("mode", "poll-only"))
		} else {
			d.Pub = redisPub
			log.Info("redis change hints enabled",
				logger.String("channel", pubsub.ChangesChannel),
				logger.String("mode", "hybrid_push_pull"))
			defer redisPub.Close()
		}
	}

	handler.NewHandler(d, cfg)

	app.Get("/swagger/*", swagger.HandlerDefault)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("simulator is running", logger.String("address", cfg.ServerAddr))
		if err := app.Listen(cfg.ServerAddr); err != nil {
			cancel()
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		log.Info("shutting down")

		if err := app.Shutdown(); err != nil {
			log.WithError(err).Error("failed to shutdown fiber app")
			return err
		}

		conn, err := db.DB()
		if err != nil {
			return err
		}
		return conn.Close()
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Fatal("simulator encountered an error")
	}

	log.Info("simulator stopped gracefully")
}
