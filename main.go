package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"cinebot/config"
	"cinebot/handlers"
	"cinebot/services/bot"
	"cinebot/services/session"
	"cinebot/services/telegram"
	"cinebot/services/tmdb"
	"cinebot/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("[main] no .env file found, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] load config: %v", err)
	}

	startedAt := time.Now()

	provider := tmdb.NewClient(cfg.TMDBAPIKey, cfg.Language, cfg.HTTPTimeout)
	sessions := session.NewStore(cfg.SessionSize)
	// The transport timeout has to outlast the long-poll window.
	transport := telegram.NewClient(cfg.TelegramToken, 65*time.Second)

	service := bot.NewService(cfg, provider, sessions, transport)
	dispatcher := bot.NewDispatcher(transport, service, transport)

	router := utils.NewRouter()
	statusHandler := handlers.NewStatusHandler(sessions, cfg.MinEpisodeScore, startedAt)
	router.HandleFunc("/api/status", statusHandler.Status).Methods(http.MethodGet)

	srv := &http.Server{
		Addr:         cfg.StatusAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[main] status API listening on %s", cfg.StatusAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] status API failed: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Printf("[main] shutting down")
		cancel()
	}()

	log.Printf("[main] polling for updates")
	dispatcher.Run(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[main] status API shutdown: %v", err)
	}
	log.Printf("[main] stopped")
}
