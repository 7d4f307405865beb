// Package feed fetches the configured RSS sources and normalizes their
// entries into articles. Sources are fetched concurrently but results come
// back in source-list order, and one broken source never aborts the rest.
package feed

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"pressleaf/internal/config"
	"pressleaf/internal/news"
	"pressleaf/internal/retry"
)

const maxSummaryRunes = 300

// Aggregator downloads and parses all configured feed sources.
type Aggregator struct {
	client      *http.Client
	concurrency int
	retryCfg    retry.Config
}

func NewAggregator(timeout time.Duration, concurrency int) *Aggregator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Aggregator{
		client:      &http.Client{Timeout: timeout},
		concurrency: concurrency,
		retryCfg: retry.Config{
			MaxAttempts: 3,
			Delay:       2 * time.Second,
			Backoff:     true,
		},
	}
}

// FetchAll fetches every source with bounded parallelism and returns the
// normalized articles in source-list order, feed order within each source.
// Fetch and parse failures are logged per source and skipped.
func (ag *Aggregator) FetchAll(ctx context.Context, sources []config.FeedSource) []news.Article {
	perSource := make([][]news.Article, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ag.concurrency)

	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			articles, err := ag.fetchSource(gctx, src)
			if err != nil {
				slog.Warn("failed to fetch feed, skipping source",
					"source", src.Label, "url", src.URL, "error", err)
				return nil
			}
			perSource[i] = articles
			slog.Info("fetched feed", "source", src.Label, "entries", len(articles))
			return nil
		})
	}
	_ = g.Wait() // workers never return errors, failures are isolated above

	var all []news.Article
	for _, articles := range perSource {
		all = append(all, articles...)
	}
	return all
}

func (ag *Aggregator) fetchSource(ctx context.Context, src config.FeedSource) ([]news.Article, error) {
	parser := gofeed.NewParser()
	parser.Client = ag.client

	var parsed *gofeed.Feed
	err := retry.Do(ctx, ag.retryCfg, func() error {
		f, ferr := parser.ParseURLWithContext(src.URL, ctx)
		if ferr != nil {
			return ferr
		}
		parsed = f
		return nil
	})
	if err != nil {
		return nil, err
	}

	articles := make([]news.Article, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil || item.Title == "" {
			continue
		}
		articles = append(articles, normalizeItem(src, item))
	}
	return articles, nil
}

func normalizeItem(src config.FeedSource, item *gofeed.Item) news.Article {
	a := news.Article{
		SourceLabel: src.Label,
		Title:       strings.TrimSpace(item.Title),
		Summary:     normalizeSummary(item.Description),
		Link:        strings.TrimSpace(item.Link),
		RawImageURL: itemImageURL(item),
	}
	if item.PublishedParsed != nil {
		a.PublishedAt = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		a.PublishedAt = *item.UpdatedParsed
	}
	return a
}

// normalizeSummary strips feed HTML and truncates at a word boundary.
func normalizeSummary(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	if strings.Contains(s, "<") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			s = doc.Text()
		}
	}
	s = strings.Join(strings.Fields(s), " ")

	if utf8.RuneCountInString(s) > maxSummaryRunes {
		runes := []rune(s)
		cut := string(runes[:maxSummaryRunes])
		if idx := strings.LastIndex(cut, " "); idx > 0 {
			cut = cut[:idx]
		}
		s = cut + "..."
	}
	return s
}

// itemImageURL picks an image advertised by the feed entry itself, if any.
func itemImageURL(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}

	for _, enc := range item.Enclosures {
		if enc != nil && enc.URL != "" && strings.HasPrefix(enc.Type, "image") {
			return enc.URL
		}
	}

	// media:content / media:thumbnail extensions, common in news feeds
	for _, ns := range []string{"media"} {
		exts, ok := item.Extensions[ns]
		if !ok {
			continue
		}
		for _, name := range []string{"content", "thumbnail"} {
			for _, ext := range exts[name] {
				u := ext.Attrs["url"]
				if u == "" {
					continue
				}
				medium := ext.Attrs["medium"]
				typ := ext.Attrs["type"]
				if medium == "image" || strings.HasPrefix(typ, "image") || (medium == "" && typ == "") {
					return u
				}
			}
		}
	}
	return ""
}
