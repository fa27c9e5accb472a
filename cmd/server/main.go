package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	stderrors "errors"

	"chat-relay/auth"
	"chat-relay/infrastructure/rest"
	ws "chat-relay/infrastructure/websocket"
	"chat-relay/internal"
	"chat-relay/moderation"
	"chat-relay/observability"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/services"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// main stays a thin wrapper so every defer in run executes before exit.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	// 1. Configuration & logger. A missing .env is fine; the environment may
	// already be populated.
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	logger := logs.GetLoggerFromString(config.LogLevel)

	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}
	censor, err := moderation.NewCensor(internal.SplitWords(config.CensoredWords), charReplacement)
	if err != nil {
		return exitConfig, fmt.Errorf("censor build failed: %w", err)
	}

	// 2. Database (BadgerDB)
	options := badger.DefaultOptions(config.BadgerFilepath).WithLoggingLevel(badger.ERROR)
	db, err := badger.Open(options)
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Repositories & services
	messageRepository := repositories.NewMessageRepository(db, logger)
	groupMessageRepository := repositories.NewGroupMessageRepository(db, logger)
	groupRepository := repositories.NewGroupRepository(db, logger)
	userRepository := repositories.NewUserRepository(db)

	tokens := auth.NewTokenManager(config.JWTSecret, config.AuthTokenDuration)
	authService := services.NewAuthService(userRepository, tokens, logger)
	messageService := services.NewMessageService(messageRepository, groupMessageRepository, groupRepository, censor, logger)
	groupService := services.NewGroupService(groupRepository, logger)

	// 4. Presence & dispatch
	stats := &observability.Stats{}
	registry := runtime.NewRegistry(stats, logger)
	dispatcher := runtime.NewDispatcher(registry, messageService, groupService, stats, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go stats.Report(ctx, config.StatsInterval, logger)

	// 5. HTTP surface: websocket endpoint + read/auth routes
	mux := http.NewServeMux()
	mux.Handle("GET /ws/{user_id}", ws.NewHandler(authService, dispatcher, config.WriteTimeout, config.MaxMessageSize, logger))
	rest.NewHandler(authService, messageService, groupService, stats, logger).Register(mux)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler: mux,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return exitRuntime, fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return exitRuntime, fmt.Errorf("shutdown failed: %w", err)
	}
	return exitOK, nil
}
