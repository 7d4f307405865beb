// Package publish delivers composed messages to the destination channel.
// It owns the retry policy, the transient/permanent split and the rule
// that a fingerprint is recorded only after a confirmed successful send.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"pressleaf/internal/compose"
	"pressleaf/internal/news"
	"pressleaf/internal/retry"
	"pressleaf/internal/store"
	"pressleaf/internal/telegram"
)

// Telegram hard limits, in runes.
const (
	maxCaptionLen = 1024
	maxTextLen    = 4096
)

// Transport is the channel binding. telegram.Client satisfies it.
type Transport interface {
	SendMessage(ctx context.Context, text string) (int, error)
	SendPhoto(ctx context.Context, photoURL, caption string) (int, error)
}

// Publisher sends one article at a time, spaced by the configured post
// delay so a burst of fresh articles does not flood the channel.
type Publisher struct {
	transport Transport
	store     store.Store
	retryCfg  retry.Config
	limiter   *rate.Limiter
}

func New(transport Transport, st store.Store, retryAttempts int, retryDelay, postDelay time.Duration) *Publisher {
	return &Publisher{
		transport: transport,
		store:     st,
		retryCfg: retry.Config{
			MaxAttempts: retryAttempts,
			Delay:       retryDelay,
			Backoff:     true,
		},
		limiter: rate.NewLimiter(rate.Every(postDelay), 1),
	}
}

// Publish sends one composed message. Transient failures are retried with
// backoff; a permanent failure or exhausted retries yields a
// FailedPermanently record with no store write, leaving the article
// eligible for a later cycle. On success the fingerprint is persisted
// before Publish returns.
func (p *Publisher) Publish(ctx context.Context, article news.EnrichedArticle, msg compose.Message) (store.PublicationRecord, error) {
	rec := store.PublicationRecord{
		Fingerprint: article.Fingerprint(),
		Title:       article.Title,
		Link:        article.Link,
		SourceLabel: article.SourceLabel,
		PublishedAt: article.PublishedAt,
	}
	// Unknown publish dates are treated as now, same as the age gate, so
	// the record's retention window starts today instead of at time zero.
	if rec.PublishedAt.IsZero() {
		rec.PublishedAt = time.Now()
	}

	if err := p.limiter.Wait(ctx); err != nil {
		rec.Status = store.StatusFailedPermanently
		return rec, err
	}

	var msgID int
	var permanent error
	err := retry.Do(ctx, p.retryCfg, func() error {
		id, sendErr := p.send(ctx, msg)
		if sendErr == nil {
			msgID = id
			return nil
		}
		if errors.Is(sendErr, telegram.ErrTransient) {
			slog.Warn("transient publish failure, will retry", "title", article.Title, "error", sendErr)
			return sendErr
		}
		// Not worth retrying; stop the loop and report below.
		permanent = sendErr
		return nil
	})
	if err == nil {
		err = permanent
	}
	if err != nil {
		rec.Status = store.StatusFailedPermanently
		return rec, fmt.Errorf("publish %q: %w", article.Title, err)
	}

	rec.Status = store.StatusSuccess
	rec.DestinationMessageID = msgID

	if err := p.store.RecordSuccess(rec); err != nil {
		// The post is live but the fingerprint write failed. A later cycle
		// may repost it; surface the error so the cycle aborts.
		return rec, fmt.Errorf("record fingerprint for %q: %w", article.Title, err)
	}

	return rec, nil
}

// send picks the delivery shape. A message with an image goes as a photo
// with caption unless the body exceeds the caption limit, in which case
// the image is dropped and the body goes as plain text.
func (p *Publisher) send(ctx context.Context, msg compose.Message) (int, error) {
	body := msg.Body
	if msg.ImageURL != "" && len([]rune(body)) <= maxCaptionLen {
		return p.transport.SendPhoto(ctx, msg.ImageURL, body)
	}

	if runes := []rune(body); len(runes) > maxTextLen {
		body = string(runes[:maxTextLen-3]) + "..."
	}
	return p.transport.SendMessage(ctx, body)
}
