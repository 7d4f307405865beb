// Package app wires the pipeline stages together and runs one cycle:
// fetch, filter, then per-article enrich, compose and publish.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pressleaf/internal/compose"
	"pressleaf/internal/config"
	"pressleaf/internal/enrich"
	"pressleaf/internal/feed"
	"pressleaf/internal/metrics"
	"pressleaf/internal/news"
	"pressleaf/internal/publish"
	"pressleaf/internal/store"
)

// App holds the assembled pipeline. Stages are constructed once at
// startup and reused by every cycle.
type App struct {
	cfg        *config.Config
	aggregator *feed.Aggregator
	enricher   *enrich.Enricher
	composer   *compose.Composer
	publisher  *publish.Publisher
	store      store.Store
	metrics    *metrics.Metrics
}

func New(cfg *config.Config, aggregator *feed.Aggregator, enricher *enrich.Enricher, composer *compose.Composer, publisher *publish.Publisher, st store.Store, m *metrics.Metrics) *App {
	return &App{
		cfg:        cfg,
		aggregator: aggregator,
		enricher:   enricher,
		composer:   composer,
		publisher:  publisher,
		store:      st,
		metrics:    m,
	}
}

// RunCycle executes one full pipeline pass. stop is checked between
// articles: when it closes, the in-flight article finishes its publish
// attempt but no further article is started. A store outage aborts the
// cycle; every article stays eligible for the next tick.
func (a *App) RunCycle(ctx context.Context, stop <-chan struct{}) (metrics.CycleStats, error) {
	started := time.Now()
	var stats metrics.CycleStats
	var cycleErr error

	defer func() {
		errMsg := ""
		if cycleErr != nil {
			errMsg = cycleErr.Error()
		}
		a.metrics.RecordCycle(stats, time.Since(started), errMsg)
	}()

	articles := a.aggregator.FetchAll(ctx, a.cfg.FeedSources)
	stats.Fetched = len(articles)
	slog.Info("fetch complete", "articles", len(articles), "sources", len(a.cfg.FeedSources))

	fresh, err := news.Filter(articles, time.Now(), a.cfg.MaxArticleAge, a.cfg.Keywords, a.store)
	if err != nil {
		cycleErr = fmt.Errorf("filter: %w", err)
		return stats, cycleErr
	}
	stats.Filtered = len(fresh)

	if len(fresh) > a.cfg.MaxPostsPerCycle {
		slog.Info("capping cycle output", "eligible", len(fresh), "cap", a.cfg.MaxPostsPerCycle)
		fresh = fresh[:a.cfg.MaxPostsPerCycle]
	}

	for _, article := range fresh {
		select {
		case <-stop:
			slog.Info("shutdown requested, stopping before next article")
			return stats, cycleErr
		default:
		}

		if err := a.processOne(ctx, article, &stats); err != nil {
			if errors.Is(err, store.ErrUnavailable) {
				cycleErr = err
				return stats, cycleErr
			}
			slog.Error("article failed", "title", article.Title, "error", err)
		}
	}

	slog.Info("cycle complete",
		"fetched", stats.Fetched,
		"filtered", stats.Filtered,
		"published", stats.Published,
		"failed", stats.Failed,
		"duration", time.Since(started).Round(time.Millisecond),
	)
	return stats, nil
}

func (a *App) processOne(ctx context.Context, article news.Article, stats *metrics.CycleStats) error {
	enriched := a.enricher.Enrich(ctx, article)
	msg := a.composer.Compose(enriched)

	rec, err := a.publisher.Publish(ctx, enriched, msg)
	if rec.Status == store.StatusSuccess {
		stats.Published++
		slog.Info("published", "title", article.Title, "message_id", rec.DestinationMessageID)
	} else {
		stats.Failed++
	}
	return err
}
