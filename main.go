package main

import (
	"context"
	"os"
	"os/signal"
	"ridehailgo/internal/config"
	"ridehailgo/internal/database/db_client"
	"ridehailgo/internal/http/http_server"
	"ridehailgo/internal/redis/redis_client"
	"ridehailgo/internal/services/identity"
	"ridehailgo/internal/services/trip"
	"ridehailgo/internal/ws"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	Log, _ = zap.NewDevelopment()
)

func main() {
	defer Log.Sync()
	zap.ReplaceGlobals(Log)

	var err error
	var cfg *config.Config
	var redisClient *redis.Client

	// 1. Load configuration
	cfg, err = config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 3. Redis (auth token store)
	redisClient, err = redis_client.NewRedisClient(cfg.RedisHost, int(cfg.RedisPort))
	if err != nil {
		Log.Fatal("Failed to create Redis client", zap.Error(err))
	}
	defer redisClient.Close()
	Log.Debug("Redis client created successfully")

	// 4. Postgres db client
	pgDb, err := db_client.Open(cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDb)
	if err != nil {
		Log.Fatal("pg-open", zap.Error(err))
	}
	defer pgDb.Close()

	// 5. Services
	identityService := identity.NewIdentityService(pgDb, redisClient, cfg.TokenTTL)
	tripService := trip.NewTripService(pgDb)

	// 6. Broadcast hub + trip coordinator
	hub := ws.NewHub()
	coordinator := ws.NewCoordinator(hub, tripService, identityService)

	// 7. WS server (rider + driver endpoints)
	wsSrv := ws.NewWsServer(hub, coordinator, identityService)

	// 8. HTTP + WS server
	httpServer := http_server.NewHttpServer(ctx, cfg.HttpServerPort, wsSrv, tripService, identityService)
	if err := httpServer.Start(); err != nil {
		Log.Fatal("Failed to start HTTP server", zap.Error(err))
	}
}
