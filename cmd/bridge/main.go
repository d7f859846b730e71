package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"
	"github.com/rs/cors"

	cfg "github.com/rebuslabs/tokenbridge/config"
	"github.com/rebuslabs/tokenbridge/internal/handlers"
	"github.com/rebuslabs/tokenbridge/internal/usecases"
	"github.com/rebuslabs/tokenbridge/internal/usecases/repository"
	"github.com/rebuslabs/tokenbridge/internal/workers"
	"github.com/rebuslabs/tokenbridge/pkg/database"
)

// Server timeout constants.
const (
	readTimeoutSeconds     = 15
	writeTimeoutSeconds    = 15
	idleTimeoutSeconds     = 60
	shutdownTimeoutSeconds = 5
)

func main() {
	time.Local = time.UTC

	config, err := cfg.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	opts := &slog.HandlerOptions{
		Level: config.Log.Level,
	}
	if config.App.Debug {
		opts.Level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, opts))
	logger.Warn("Starting application with configuration",
		"debug", config.App.Debug,
		"environment", config.App.Environment,
		"server_port", config.HTTP.Port,
		"evm_rpc_url", config.EVM.RPCURL,
		"solana_rpc_url", config.Solana.RPCURL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	migrationsPath := "./migrations"
	if workDir, err := os.Getwd(); err == nil {
		if _, err := os.Stat(filepath.Join(workDir, "migrations")); !os.IsNotExist(err) {
			migrationsPath = filepath.Join(workDir, "migrations")
		} else if _, err := os.Stat(filepath.Join(workDir, "..", "migrations")); !os.IsNotExist(err) {
			migrationsPath = filepath.Join(workDir, "..", "migrations")
		}
	}

	pg, err := database.New(config,
		database.MaxPoolSize(config.DB.PoolMax),
		database.ConnTimeout(config.DB.ConnectTimeout),
		database.HealthCheckPeriod(config.DB.HealthCheckPeriod),
		database.Isolation(pgx.ReadCommitted),
	)
	if err != nil {
		logger.Error("postgres connection failed", slog.String("error", err.Error()))
		return
	}
	defer pg.Close()

	logger.Info("Running database migrations", "path", migrationsPath)
	if err = database.RunMigrations(logger, config.DB.DatabaseURL, migrationsPath); err != nil {
		logger.Error("Failed to run database migrations", "error", err)
		log.Fatal(err)
	}

	// Create repositories
	whitelistRepository := repository.NewWhitelistRepository(logger, pg)
	ordersRepository := repository.NewOrdersRepository(logger, pg)
	depositsRepository := repository.NewDepositsRepository(logger, pg)

	// Create usecases and components
	websocketManager := handlers.NewWebSocketManager(logger)

	guard := usecases.NewGuard(config.Operator.Name, config.Operator.Key)
	whitelistService := usecases.NewWhitelistService(logger, guard, whitelistRepository)
	orderService := usecases.NewOrderService(logger, guard, ordersRepository, websocketManager)

	custodyService, err := usecases.NewCustodyService(logger, config.Custody.Seed)
	if err != nil {
		logger.Error("Failed to create custody service", "error", err)
		log.Fatal(err)
	}

	custodyAccounts := map[string]string{
		workers.ChainEVM:    custodyService.EVMAddress(),
		workers.ChainSolana: config.Custody.SolanaAccount,
	}
	depositService := usecases.NewDepositService(
		logger, pg.Transactor, depositsRepository, whitelistService, orderService,
		guard, websocketManager, custodyAccounts,
	)

	deliverer := usecases.NewEVMDeliverer(logger, config.EVM.RPCURL, config.EVM.TokenContract, custodyService)

	// Initialize and run workers
	initAndRunWorkers(ctx, logger, config, custodyService, depositService, orderService, deliverer, guard)

	// Create handlers
	httpHandler := handlers.NewHTTPHandler(logger, whitelistService, orderService, depositService)
	wsHandler := handlers.NewWebSocketHandler(logger, websocketManager)

	// Create router
	router := mux.NewRouter()

	// Register WebSocket routes before HTTP routes
	wsHandler.RegisterRoutes(router)
	httpHandler.RegisterRoutes(router)

	// Configure CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "X-Operator-Name", "X-Operator-Key"},
		AllowCredentials: true,
	})

	handler := c.Handler(router)

	server := &http.Server{
		Addr:         ":" + config.HTTP.Port,
		Handler:      handler,
		ReadTimeout:  readTimeoutSeconds * time.Second,
		WriteTimeout: writeTimeoutSeconds * time.Second,
		IdleTimeout:  idleTimeoutSeconds * time.Second,
	}

	go func() {
		logger.Info("Starting server", "address", server.Addr)
		if err = server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			log.Fatal(err)
		}
	}()

	// Set up graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Stop the workers first, then drain in-flight requests.
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeoutSeconds*time.Second)
	defer shutdownCancel()

	if err = server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
		return
	}

	logger.Info("Server exited properly")
}

func initAndRunWorkers(
	ctx context.Context,
	logger *slog.Logger,
	config *cfg.Config,
	custodyService *usecases.CustodyService,
	depositService *usecases.DepositService,
	orderService *usecases.OrderService,
	deliverer *usecases.EVMDeliverer,
	guard *usecases.Guard,
) {
	evmWatcher := workers.NewEVMWatcher(logger, config, depositService, custodyService.EVMAddress())

	go func() {
		logger.Info("Starting EVM deposit watcher")
		evmWatcher.SubscribeToTransfers(ctx, config.EVM.RPCURL)
	}()

	if config.Custody.SolanaAccount != "" {
		solanaWatcher, err := workers.NewSolanaWatcher(logger, config, depositService, config.Custody.SolanaAccount)
		if err != nil {
			logger.Error("Failed to create Solana watcher", "error", err)
		} else {
			go func() {
				logger.Info("Starting Solana deposit watcher")
				solanaWatcher.SubscribeToTransfers(ctx)
			}()
		}
	}

	relayer := workers.NewRelayer(
		logger,
		orderService,
		deliverer,
		guard.Self(),
		time.Duration(config.Relayer.PollIntervalSeconds)*time.Second,
	)

	go func() {
		logger.Info("Starting relayer worker")
		relayer.Start(ctx)
	}()

	logger.Info("All workers initialized and started")
}
