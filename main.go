package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"vehicleauctiongo/internal/auction"
	"vehicleauctiongo/internal/autobid"
	"vehicleauctiongo/internal/clock"
	"vehicleauctiongo/internal/config"
	"vehicleauctiongo/internal/database/db_client"
	"vehicleauctiongo/internal/gateways"
	"vehicleauctiongo/internal/http/http_server"
	"vehicleauctiongo/internal/notify"
	"vehicleauctiongo/internal/redis/redis_client"
	"vehicleauctiongo/internal/schedulers/autobidpoll"
	"vehicleauctiongo/internal/schedulers/lifecycle"
	"vehicleauctiongo/internal/store/pgstore"
	"vehicleauctiongo/internal/ws"
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

	// 3. Redis (event fan-out)
	redisClient, err = redis_client.NewRedisClient(cfg.RedisEventsHost, int(cfg.RedisEventsPort))
	if err != nil {
		Log.Fatal("Failed to create Redis client", zap.Error(err))
	}
	defer redisClient.Close()

	// 4. Postgres db client + schema
	pgDb, err := db_client.Open(cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDb)
	if err != nil {
		Log.Fatal("pg-open", zap.Error(err))
	}
	defer pgDb.Close()
	if err := db_client.EnsureSchema(ctx, pgDb); err != nil {
		Log.Fatal("pg-schema", zap.Error(err))
	}

	// 5. Capabilities: stores, gateways, notifier, clock, increment policy
	store := pgstore.New(pgDb)
	autoBidStore := pgstore.NewAutoBidStore(pgDb)
	vehicleGw, err := gateways.NewVehicleGateway(pgDb, cfg.VehicleCacheSize)
	if err != nil {
		Log.Fatal("vehicle-gateway", zap.Error(err))
	}
	userGw := gateways.NewUserGateway(pgDb)
	dispatcher := notify.NewDispatcher(pgDb, redisClient)
	clk := clock.System()

	var policy auction.IncrementPolicy
	if cfg.BidIncrementPolicy == "ladder" {
		policy = auction.LadderIncrement{}
	} else {
		policy = auction.FixedIncrement{Step: cfg.BidMinIncrement}
	}

	// 6. Engines
	auctionEngine := auction.NewEngine(store, vehicleGw, userGw, dispatcher, clk, policy,
		auction.AntiSnipeDefaults{
			TriggerMinutes:   cfg.AntiSnipeTriggerMinutes,
			ExtensionMinutes: cfg.AntiSnipeExtensionMinutes,
			MaxExtensions:    cfg.AntiSnipeMaxExtensions,
		})
	autoBidEngine := autobid.NewEngine(autoBidStore, auctionEngine, clk, policy)

	// 7. Background: lifecycle tick + auto-bid tick
	lifecycle.Run(ctx, auctionEngine, cfg.LifecycleTickInterval)
	autobidpoll.Run(ctx, autoBidEngine, auctionEngine, cfg.AutoBidTickInterval)

	// 8. WebSockets hub + Redis fan-out
	hub := ws.NewHub()
	wsSrv := ws.NewWsServer(hub, redisClient, auctionEngine)

	// 9. HTTP + WS server
	httpServer := http_server.NewHttpServer(ctx, cfg.HttpServerPort, wsSrv, auctionEngine, autoBidEngine)
	if err := httpServer.Start(); err != nil {
		Log.Fatal("Failed to start HTTP server", zap.Error(err))
	}
}
