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

	"github.com/fatali-fataliyev/banking_portal/api"
	"github.com/fatali-fataliyev/banking_portal/internal/bankapi"
	"github.com/fatali-fataliyev/banking_portal/internal/config"
	"github.com/fatali-fataliyev/banking_portal/internal/portal"
	"github.com/fatali-fataliyev/banking_portal/internal/storage"
	"github.com/fatali-fataliyev/banking_portal/logging"
	"github.com/rs/cors"
)

var corsConf = cors.New(cors.Options{
	AllowedOrigins:   []string{"*"},
	AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	AllowedHeaders:   []string{"Authorization", "Content-Type"},
	AllowCredentials: true,
})

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("failed to load configuration:", err)
		os.Exit(1)
	}

	if err := logging.Init(cfg.AppEnv, cfg.LogLevel); err != nil {
		fmt.Println("failed to initialize logger:", err)
		os.Exit(1)
	}

	logging.Logger.Info("application starting...")

	store, err := storage.Open(cfg)
	if err != nil {
		logging.Logger.Errorf("failed to initialize storage: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	bank := bankapi.NewClient(cfg.BankAPIURL, cfg.BankAPIToken)
	service := portal.NewPortal(store, func(token string) portal.BankClient {
		return bank.WithToken(token)
	}, portal.Options{
		Timezone:     cfg.Timezone,
		PollSpec:     cfg.PollSpec,
		DefaultToken: cfg.BankAPIToken,
		IdleTimeout:  cfg.SessionIdleTimeout,
		MaxSessions:  cfg.MaxSessions,
	})
	defer service.Close()

	logging.Logger.Infof("storage: %s, bank api: %s, poll: %s", service.StorageType, cfg.BankAPIURL, cfg.PollSpec)

	mux := http.NewServeMux()
	api.NewApi(service).Register(mux)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           corsConf.Handler(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logging.Logger.Infof("starting server on port: %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Logger.Errorf("failed to start server: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logging.Logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Logger.Errorf("failed to shut down server: %v", err)
	}
}
