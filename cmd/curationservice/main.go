// cmd/curationservice/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	httpAPI "curation-service/internal/api"
	"curation-service/internal/catalog"
	"curation-service/internal/config"
	grpcServer "curation-service/internal/grpc"
	"curation-service/internal/service"
	"curation-service/internal/store"
	"curation-service/pkg/auth"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger := cfg.Logging.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Curation service stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	if cfg.UsesDevSecret() {
		logger.Warn("JWT_SECRET not set, using default insecure key for development.")
	}

	// --- Хранилище ---
	stores, err := store.Open(ctx, cfg.StoreOptions(), logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := stores.Close(context.Background()); err != nil {
			logger.Error("Failed to close store", slog.String("error", err.Error()))
		} else {
			logger.Info("Store closed.")
		}
	}()

	// --- Аутентификация ---
	tokenManager, err := auth.NewTokenManager(cfg.Security.JWTSecret, cfg.Security.TokenTTL)
	if err != nil {
		return fmt.Errorf("failed to create token manager: %w", err)
	}
	hasher := auth.NewPasswordHasher(cfg.Security.BcryptCost)
	logger.Info("Token manager initialized.", slog.Duration("tokenTTL", cfg.Security.TokenTTL))

	// --- Каталог фильмов ---
	catalogClient := catalog.NewClient(cfg.CatalogClientConfig(), logger)
	if !catalogClient.Configured() {
		logger.Warn("TMDB_API_KEY not set, movie catalog endpoints will fail.")
	}

	// --- Справочник аккаунтов ---
	var directory service.AccountDirectory = service.NewStoreDirectory(stores.Accounts)
	if cfg.Directory.GRPCAddr != "" {
		client, err := grpcServer.NewDirectoryClient(cfg.Directory.GRPCAddr, cfg.Directory.CallTimeout, logger)
		if err != nil {
			return err
		}
		defer client.Close()
		directory = client
	}

	// --- Сервисы ---
	validate := service.NewValidator()
	handler := httpAPI.NewHTTPHandler(httpAPI.Services{
		Auth:       service.NewAuthService(stores.Accounts, tokenManager, hasher, validate, logger),
		Accounts:   service.NewAccountService(stores.Accounts, hasher, catalogClient, validate, logger),
		Watchlists: service.NewWatchlistService(stores.Watchlists, catalogClient, validate, logger),
		Reviews:    service.NewReviewService(stores.Reviews, directory, validate, logger),
		Catalog:    catalogClient,
	}, logger)

	// --- gRPC сервер справочника (необязательный) ---
	var grpcSrv *grpc.Server
	if cfg.Directory.GRPCListen != "" {
		lis, err := net.Listen("tcp", cfg.Directory.GRPCListen)
		if err != nil {
			return fmt.Errorf("failed to listen for gRPC on %s: %w", cfg.Directory.GRPCListen, err)
		}
		grpcSrv = grpc.NewServer()
		grpcServer.RegisterAccountDirectoryServer(grpcSrv, grpcServer.NewServer(service.NewStoreDirectory(stores.Accounts), logger))
		reflection.Register(grpcSrv)

		go func() {
			logger.Info("Account directory gRPC service starting", slog.String("address", cfg.Directory.GRPCListen))
			if err := grpcSrv.Serve(lis); err != nil {
				logger.Error("Account directory gRPC Serve() failed", slog.String("error", err.Error()))
			}
		}()
	}

	// --- HTTP сервер ---
	httpSrv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: httpAPI.NewHTTPRouter(handler, httpAPI.RouterOptions{
			AllowedOrigins: cfg.Server.CORSOrigins,
			RateLimit:      cfg.Server.RateLimit,
			RateWindow:     cfg.Server.RateWindow,
			AuthRateLimit:  cfg.Server.AuthRateLimit,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Curation HTTP service starting", slog.Int("port", cfg.Server.Port), slog.String("environment", cfg.Server.Environment))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	// Ожидание сигнала для graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Info("Curation service shutting down...", slog.String("signal", sig.String()))
	case err := <-serveErr:
		logger.Error("Curation HTTP service ListenAndServe() failed", slog.String("error", err.Error()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", slog.String("error", err.Error()))
	} else {
		logger.Info("HTTP server gracefully stopped.")
	}

	if grpcSrv != nil {
		grpcSrv.GracefulStop()
		logger.Info("Account directory gRPC service gracefully stopped.")
	}
	return nil
}
