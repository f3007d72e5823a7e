package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/natefinch/lumberjack.v2"

	"cineseek/api"
	"cineseek/bot"
	"cineseek/config"
	"cineseek/handlers"
	"cineseek/services/ai"
	"cineseek/services/catalog"
	"cineseek/services/locale"
	"cineseek/services/nav"
	"cineseek/services/quota"
	"cineseek/services/search"
	"cineseek/services/unlock"
	"cineseek/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] config: %v", err)
	}

	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		log.Fatalf("[main] create log dir: %v", err)
	}
	log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   filepath.Join(cfg.LogDir, "cineseek.log"),
		MaxSize:    20, // MB
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	}))
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	httpClient := &http.Client{Timeout: cfg.RequestTimeout}

	var providers []catalog.Provider
	if cfg.OMDBAPIKey != "" {
		providers = append(providers, catalog.NewOMDBClient(cfg.OMDBAPIKey, cfg.StorageDir, httpClient))
	}
	if cfg.TMDBAPIKey != "" {
		providers = append(providers, catalog.NewTMDBClient(cfg.TMDBAPIKey, cfg.StorageDir, httpClient))
	}
	if len(providers) == 0 {
		log.Fatal("[main] no catalog provider configured, set OMDB_API_KEY or TMDB_API_KEY")
	}
	registry := catalog.NewRegistry(providers...)

	locales, err := locale.NewService(cfg.StorageDir)
	if err != nil {
		log.Fatalf("[main] locale store: %v", err)
	}

	quotaStore, err := quota.NewFileStore(cfg.StorageDir)
	if err != nil {
		log.Fatalf("[main] quota store: %v", err)
	}
	quotas := quota.NewService(quotaStore, cfg.QuotaCeiling)

	resolver := ai.NewGeminiClient(cfg.GeminiAPIKey, httpClient)
	if !resolver.IsConfigured() {
		log.Print("[main] GEMINI_API_KEY not set, AI lookups disabled")
	}

	searcher := search.NewService(registry, resolver, quotas, cfg.ResultLimit)
	gate := unlock.NewService(cfg.UnlockDelay)
	defer gate.Shutdown()

	navigator := nav.NewNavigator(locales, searcher, registry, gate, cfg.QuotaCeiling)

	// HTTP gateway
	router := utils.NewRouter()
	handlers.NewHandler(navigator).RegisterRoutes(router)
	limiter := api.NewClientRateLimiter(rate.Every(2*time.Second), 30)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      api.Limit(limiter, router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Printf("[main] gateway listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[main] gateway: %v", err)
		}
	}()

	// Telegram transport
	tb, err := bot.New(cfg.BotToken, navigator, cfg.RequestTimeout)
	if err != nil {
		log.Fatalf("[main] bot: %v", err)
	}
	if err := tb.Start(); err != nil {
		log.Fatalf("[main] bot: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Print("[main] shutting down")
	tb.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[main] gateway shutdown: %v", err)
	}
}
