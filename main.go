package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"github.com/DhavalSuthar-24/arena/config"
	_ "github.com/DhavalSuthar-24/arena/docs"
	"github.com/DhavalSuthar-24/arena/internal/auth"
	"github.com/DhavalSuthar-24/arena/internal/clock"
	"github.com/DhavalSuthar-24/arena/internal/housekeeping"
	"github.com/DhavalSuthar-24/arena/internal/lifecycle"
	"github.com/DhavalSuthar-24/arena/internal/match"
	"github.com/DhavalSuthar-24/arena/internal/roster"
	"github.com/DhavalSuthar-24/arena/internal/session"
	"github.com/DhavalSuthar-24/arena/internal/user"
	"github.com/DhavalSuthar-24/arena/pkg/token"
	"github.com/DhavalSuthar-24/arena/pkg/validator"
	"github.com/DhavalSuthar-24/arena/routes"
)

// @title Arena Match API
// @version 1.0
// @description Match scheduling, seat reservation and time-gated room access.
// @host localhost:8088
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	envFile := pflag.String("env-file", ".env", "path to a .env file loaded before the environment")
	migrate := pflag.Bool("migrate", true, "run database migrations on startup (postgres driver only)")
	port := pflag.String("port", "", "HTTP port, overrides PORT")
	pflag.Parse()

	if err := config.Initialize(*envFile); err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	cfg := config.GetConfig()
	if *port != "" {
		cfg.App.Port = *port
	}
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	logLevel := slog.LevelDebug
	if cfg.App.Env == "production" {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	stores, err := openStores(cfg, *migrate)
	if err != nil {
		log.Fatalf("Failed to open stores: %v", err)
	}

	clk := clock.Real()
	stores.Revocations, err = openRevocations(cfg, clk)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}

	tokens := token.NewManager(cfg.JWT.AccessTokenSecret, cfg.JWT.Issuer, cfg.AccessTokenTTL())
	engine := lifecycle.New(stores, tokens, clk, lifecycle.Options{
		DefaultBan: cfg.Session.TempBanDefault,
		Logger:     logger,
	})
	authService := auth.NewService(stores.Users, tokens, engine.Guard(), clk, cfg.Session.BcryptCost, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		if err := authService.SeedAdmin(ctx, cfg.Admin.Username, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			log.Fatalf("Failed to seed admin account: %v", err)
		}
	}

	jobs, err := housekeeping.New(engine.Registry(), engine.Guard(), clk, cfg.Housekeeping.Interval, logger)
	if err != nil {
		log.Fatalf("Failed to create housekeeping scheduler: %v", err)
	}
	if err := jobs.Start(); err != nil {
		log.Fatalf("Failed to start housekeeping: %v", err)
	}

	if err := validator.RegisterGinBindings(); err != nil {
		log.Fatalf("Failed to register validators: %v", err)
	}
	r := routes.SetupRoutes(cfg.App.FrontendURL, authService, engine)

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("Starting server on port %s in %s mode (store: %s)\n", cfg.App.Port, cfg.App.Env, cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to run server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
	if err := jobs.Shutdown(); err != nil {
		log.Printf("Housekeeping shutdown: %v", err)
	}
}

func openStores(cfg *config.Config, migrate bool) (lifecycle.Stores, error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		log.Println("Using in-memory store; data is lost on restart")
		return lifecycle.Stores{
			Matches: match.NewMemoryMatchRepository(),
			Roster:  roster.NewMemoryRosterRepository(),
			Users:   user.NewMemoryUserRepository(),
		}, nil
	}

	if migrate {
		err := config.DB.AutoMigrate(
			&user.User{},
			&match.Match{}, &match.RankPrize{},
			&roster.Participant{},
		)
		if err != nil {
			return lifecycle.Stores{}, err
		}
		log.Println("AutoMigrate successful")
	}
	return lifecycle.Stores{
		Matches: match.NewGormMatchRepository(config.DB),
		Roster:  roster.NewGormRosterRepository(config.DB),
		Users:   user.NewGormUserRepository(config.DB),
	}, nil
}

// openRevocations uses redis when REDIS_ADDR is set so that logouts are
// shared between instances.
func openRevocations(cfg *config.Config, clk clock.Clock) (session.Revocations, error) {
	if cfg.Redis.Addr == "" {
		return session.NewMemoryRevocations(clk), nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	log.Printf("Token revocations stored in redis at %s\n", cfg.Redis.Addr)
	return session.NewRedisRevocations(client), nil
}
