package news

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"pressleaf/internal/store"
)

// Filter applies the age gate, the keyword gate and the duplicate check, in
// that order, preserving aggregation order. This is the only place that
// consults the store for duplicates; later stages trust its verdict.
//
// An article with an unknown publish date is treated as published now, so
// it always passes the age gate. An empty keyword list passes everything.
// A store read failure aborts the whole filter pass with
// store.ErrUnavailable.
func Filter(articles []Article, now time.Time, maxAge time.Duration, keywords []string, st store.Store) ([]Article, error) {
	kept := make([]Article, 0, len(articles))

	for _, a := range articles {
		if !a.PublishedAt.IsZero() && now.Sub(a.PublishedAt) > maxAge {
			slog.Debug("dropping expired article", "source", a.SourceLabel, "title", a.Title)
			continue
		}

		if len(keywords) > 0 && !MatchesAnyKeyword(a, keywords) {
			continue
		}

		fp := a.Fingerprint()
		exists, err := st.Exists(fp)
		if err != nil {
			return nil, fmt.Errorf("check fingerprint %s: %w", fp, err)
		}
		if exists {
			slog.Debug("dropping already published article", "source", a.SourceLabel, "fingerprint", fp, "title", a.Title)
			continue
		}

		kept = append(kept, a)
	}

	return kept, nil
}

// MatchesAnyKeyword reports whether the article's title or summary contains
// at least one keyword, case-insensitively.
func MatchesAnyKeyword(a Article, keywords []string) bool {
	text := strings.ToLower(a.Title + " " + a.Summary)
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// MatchedKeywords returns the configured keywords found in the article, in
// configuration order. Used by the composer for hashtag generation.
func MatchedKeywords(a Article, keywords []string) []string {
	text := strings.ToLower(a.Title + " " + a.Summary)
	var matched []string
	for _, k := range keywords {
		trimmed := strings.ToLower(strings.TrimSpace(k))
		if trimmed == "" {
			continue
		}
		if strings.Contains(text, trimmed) {
			matched = append(matched, trimmed)
		}
	}
	return matched
}
