package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"social-relay/auth"
	"social-relay/infrastructure/ws"
	"social-relay/internal"
	"social-relay/observability"
	"social-relay/repositories"
	"social-relay/runtime"
	"social-relay/runtime/workers"
	"social-relay/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting, so every defer (database cleanup included)
// executes before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := validator.New().Struct(config); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	log := logs.GetLoggerFromLevel(config.Level())

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Runtime wiring
	stats := observability.NewRelayStats()
	users := repositories.NewUserRepository(db)
	posts := repositories.NewPostRepository(db)
	notifications := repositories.NewNotificationRepository(db)

	registry := runtime.NewRegistry()
	rooms := runtime.NewRooms(log, stats)
	resolver := runtime.NewResolver(log, users)
	presence := runtime.NewPresence(log, users, rooms)
	coordinator := runtime.NewCoordinator(log, rooms)
	router := runtime.NewRouter(log, rooms, users, posts, notifications, stats)
	tokens := auth.NewTokens(config.JWTSecret, config.AuthTokenDuration)

	relay := runtime.NewRelay(log, registry, rooms, resolver, presence, router, coordinator, tokens, stats)
	service := services.NewRelayService(relay, registry, notifications)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Supervision
	sup := workers.NewSupervisor(log)
	sup.Add(workers.NewHeartbeatWorker(log, stats, config.HeartbeatInterval))
	go sup.Run(ctx)

	// 6. HTTP / WebSocket server
	mux := http.NewServeMux()
	ws.NewServer(log, service, stats, config.Origins()).Register(mux)

	if config.DebugPort > 0 {
		internal.StartDebugServer(db, config.DebugPort, "/inspect", internal.DefaultMapper, stats.Snapshot)
		log.Info("Debug inspector started", "port", config.DebugPort)
	}

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: mux}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting relay server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("relay server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
