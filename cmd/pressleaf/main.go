package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pressleaf/internal/app"
	"pressleaf/internal/compose"
	"pressleaf/internal/config"
	"pressleaf/internal/enrich"
	"pressleaf/internal/feed"
	"pressleaf/internal/images"
	"pressleaf/internal/metrics"
	"pressleaf/internal/publish"
	"pressleaf/internal/ratelimit"
	"pressleaf/internal/scheduler"
	"pressleaf/internal/store"
	"pressleaf/internal/telegram"
	"pressleaf/internal/translate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Debug)
	slog.Info("starting pressleaf",
		"sources", len(cfg.FeedSources),
		"interval", cfg.CheckInterval,
		"languages", cfg.TargetLanguages,
	)

	ctx := context.Background()

	st, err := openStore(cfg)
	if err != nil {
		slog.Error("store init failed", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	translator, closeTranslator := buildTranslator(ctx, cfg)
	defer closeTranslator()

	var resolver enrich.ImageResolver
	if cfg.EnableImageFetching {
		resolver = images.NewResolver(cfg.RequestTimeout)
	}

	m := metrics.New()
	aggregator := feed.NewAggregator(cfg.RequestTimeout, cfg.FetchConcurrency)
	enricher := enrich.New(translator, resolver, cfg.TargetLanguages)
	composer := compose.New(cfg.TargetLanguages, cfg.Keywords, cfg.ChannelLink)
	tg := telegram.New(cfg.TelegramToken, cfg.TelegramChatID)
	publisher := publish.New(tg, st, cfg.PublishRetryAttempts, cfg.PublishRetryDelay, cfg.PostDelay)

	pipeline := app.New(cfg, aggregator, enricher, composer, publisher, st, m)

	sched := scheduler.New(cfg.CheckInterval, func(ctx context.Context, stop <-chan struct{}) {
		if _, err := pipeline.RunCycle(ctx, stop); err != nil {
			slog.Error("cycle aborted", "error", err)
		}
	}, m.RecordSkip)

	startMonitoring(cfg.MonitoringPort, m, sched)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		sig := <-sigCh
		slog.Info("signal received, shutting down", "signal", sig)
		sched.Stop()
		close(done)
	}()

	if err := sched.Start(ctx); err != nil {
		slog.Error("scheduler failed to start", "error", err)
		os.Exit(1)
	}

	<-done
	slog.Info("shutdown complete")
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.StoreDriver == "postgres" {
		ps, err := store.NewPostgresStore(cfg.DatabaseURL, cfg.StoreTTLHours)
		if err != nil {
			return nil, err
		}
		if err := ps.Cleanup(); err != nil {
			slog.Warn("store cleanup failed", "error", err)
		}
		return ps, nil
	}
	return store.NewFileStore(cfg.StoreFilePath, cfg.StoreTTLHours)
}

// buildTranslator assembles the backend fallback chain in configured
// order, skipping backends whose credentials are missing. Returns a nil
// translator when translation is disabled or no backend is usable.
func buildTranslator(ctx context.Context, cfg *config.Config) (enrich.Translator, func()) {
	noop := func() {}
	if !cfg.EnableTranslation {
		return nil, noop
	}

	var backends []translate.Backend
	var closers []func()

	for _, name := range cfg.TranslationBackends {
		switch name {
		case "google":
			backends = append(backends, translate.NewGoogleBackend(cfg.RequestTimeout))
		case "openai":
			if cfg.OpenAIAPIKey == "" {
				slog.Warn("openai backend configured but OPENAI_API_KEY is empty, skipping")
				continue
			}
			backends = append(backends, translate.NewOpenAIBackend(cfg.OpenAIAPIKey))
		case "gemini":
			if cfg.GeminiAPIKey == "" {
				slog.Warn("gemini backend configured but GEMINI_API_KEY is empty, skipping")
				continue
			}
			gb, err := translate.NewGeminiBackend(ctx, cfg.GeminiAPIKey)
			if err != nil {
				slog.Warn("gemini backend init failed, skipping", "error", err)
				continue
			}
			backends = append(backends, gb)
			closers = append(closers, gb.Close)
		default:
			slog.Warn("unknown translation backend, skipping", "backend", name)
		}
	}

	if len(backends) == 0 {
		slog.Warn("translation enabled but no usable backend, posts will be original-language only")
		return nil, noop
	}

	chain := translate.NewChain(backends, ratelimit.NewBudget(cfg.TranslationBudget))
	return chain, func() {
		for _, c := range closers {
			c()
		}
	}
}

// startMonitoring exposes /health and /metrics on the configured port.
func startMonitoring(port string, m *metrics.Metrics, sched *scheduler.Scheduler) {
	if port == "" {
		return
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]string{"status": "ok", "scheduler": sched.State().String()}
		if !m.Healthy() {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(m.Snapshot())
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("monitoring server listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("monitoring server failed", "error", err)
		}
	}()
}
