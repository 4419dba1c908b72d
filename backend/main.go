package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"project/backend/config"
	"project/backend/middleware"
	"project/backend/push"
	"project/backend/risk"
	"project/backend/routes"
	"project/backend/utils"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize database
	db, err := utils.InitDB(cfg)
	if err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}
	if err := utils.AutoMigrate(db); err != nil {
		log.Fatalf("Error migrating database: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger("prod")
	if err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
	defer logger.Sync()

	// Real-time push channel; the engine works without it
	var pushChannel push.Channel
	if cfg.RedisAddr != "" {
		pushChannel, err = push.NewRedisChannel(cfg.RedisAddr, cfg.RedisChannel)
		if err != nil {
			log.Fatalf("Error connecting to redis: %v", err)
		}
		defer pushChannel.Close()
	} else {
		logger.Warn("REDIS_ADDR not set, real-time push disabled")
		pushChannel = push.NewNoopChannel()
	}

	// Risk engine + daily scheduler
	engine := risk.NewEngine(db, pushChannel, logger,
		cfg.RiskScanWorkers, time.Duration(cfg.RiskScanTimeoutMin)*time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	scheduler := risk.NewScheduler(db, engine, logger, cfg.RiskScanHour)
	go scheduler.Run(ctx)

	// Create Fiber app
	app := fiber.New()

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.LoggingMiddleware(logger))

	// Setup routes
	routes.SetupRoutes(app, db, cfg, engine)

	// Start server
	log.Fatal(app.Listen(":" + cfg.ServerPort))
}
