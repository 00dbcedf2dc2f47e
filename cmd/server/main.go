package main // Entry point package

import (
	"context" // startup deadline for schema bootstrap
	"log"     // Logging library
	"time"    // startup timeout durations

	"github.com/joho/godotenv"    // Loads .env files in local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/astrivya/backend/internal/config"     // Internal config loader
	"github.com/astrivya/backend/internal/database"   // MySQL pool constructor
	"github.com/astrivya/backend/internal/handler"    // HTTP handlers
	"github.com/astrivya/backend/internal/mailer"     // SMTP mail sender
	"github.com/astrivya/backend/internal/otp"        // one-time code generator
	"github.com/astrivya/backend/internal/queue"      // auth event consumer
	"github.com/astrivya/backend/internal/repository" // credential store
	"github.com/astrivya/backend/internal/router"     // route registration
	"github.com/astrivya/backend/internal/service"    // auth service
	queuepub "github.com/astrivya/backend/internal/service/queue_publisher"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set env directly

	cfg := config.Load() // Load and validate environment config
	rlCfg := config.LoadRateLimitConfig()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := database.EnsureSchema(ctx, db); err != nil {
		cancel()
		log.Fatalf("database schema: %v", err)
	}
	cancel()

	rdb := config.NewRedisClient() // nil disables rate limiting (fail open)
	if rdb == nil {
		log.Printf("redis unavailable: rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	gen := otp.NewGenerator(time.Duration(cfg.OTPExpiryMinutes) * time.Minute)
	mail := &mailer.SMTPSender{
		Host:          cfg.SMTPHost,
		Port:          cfg.SMTPPort,
		User:          cfg.SMTPUser,
		Password:      cfg.SMTPPassword,
		AppName:       cfg.AppName,
		ExpiryMinutes: cfg.OTPExpiryMinutes,
	}

	auth := service.NewAuthService(users, mail, gen,
		service.TokenConfig{Secret: cfg.JWTSecret, TTLMin: cfg.JWTExpiresInMin},
		time.Duration(cfg.OTPResendCooldownSec)*time.Second,
		queuepub.PublishAuthEvent,
	)

	// Background consumer writes the auth audit trail; it reconnects on its
	// own and never stops the server.
	go func() {
		if err := queue.StartAuthConsumer(); err != nil {
			log.Printf("auth-consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.Register(e, cfg, rlCfg, rdb, handler.NewAuthHandler(auth))

	addr := ":" + cfg.Port // Address string with port
	log.Printf("listening on %s (env=%s, otp expiry=%dm)", addr, cfg.Env, cfg.OTPExpiryMinutes)

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
