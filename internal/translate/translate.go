// Package translate turns article text into the configured target
// languages using an ordered chain of backends. The chain degrades: when
// every backend fails for a language, that translation is simply absent
// and the article continues untranslated.
package translate

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"pressleaf/internal/cache"
	"pressleaf/internal/ratelimit"
)

// ErrTransient marks backend failures worth one immediate retry (network
// hiccups, rate limits). Anything else moves the chain to the next backend
// right away.
var ErrTransient = errors.New("transient translation error")

// Backend translates one text into a target language. Metered backends
// call a paid API and count against the daily budget; keyless backends
// are never budget-limited.
type Backend interface {
	Name() string
	Metered() bool
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// Chain tries backends in configured order; the first non-empty result
// wins. Results are cached in memory so repeated cycles do not re-pay for
// the same text.
type Chain struct {
	backends []Backend
	budget   *ratelimit.Budget
	cache    *cache.Cache
	cacheTTL time.Duration
}

func NewChain(backends []Backend, budget *ratelimit.Budget) *Chain {
	return &Chain{
		backends: backends,
		budget:   budget,
		cache:    cache.New(),
		cacheTTL: 48 * time.Hour,
	}
}

// Translate returns the translated text and true, or "" and false when no
// backend produced a usable result. It never returns an error: translation
// failure is a degraded result, not a pipeline failure.
func (c *Chain) Translate(ctx context.Context, text, targetLang string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" || len(c.backends) == 0 {
		return "", false
	}

	key := cache.Key(text, targetLang)
	if cached, ok := c.cache.Get(key); ok {
		return cached, true
	}

	for _, b := range c.backends {
		if b.Metered() && !c.budget.Allow(b.Name()) {
			continue
		}

		result, err := c.tryBackend(ctx, b, text, targetLang)
		if err != nil {
			slog.Warn("translation backend failed",
				"backend", b.Name(), "lang", targetLang, "error", err)
			continue
		}
		if result == "" || result == text {
			// A backend echoing the input has not translated anything.
			continue
		}

		slog.Debug("translation ok", "backend", b.Name(), "lang", targetLang)
		c.cache.Set(key, result, c.cacheTTL)
		return result, true
	}

	slog.Warn("all translation backends failed, keeping original", "lang", targetLang)
	return "", false
}

// tryBackend gives a backend one extra attempt on transient errors before
// the chain moves on.
func (c *Chain) tryBackend(ctx context.Context, b Backend, text, targetLang string) (string, error) {
	result, err := b.Translate(ctx, text, targetLang)
	if err == nil {
		return strings.TrimSpace(result), nil
	}
	if !errors.Is(err, ErrTransient) {
		return "", err
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(time.Second):
	}

	result, err = b.Translate(ctx, text, targetLang)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result), nil
}
