// Package store persists fingerprints of published articles so restarts
// never repost. A fingerprint enters the store only after a confirmed
// successful publish.
package store

import (
	"errors"
	"time"
)

// ErrUnavailable signals that the store cannot be reached. The current
// cycle must abort; the scheduler retries at the next tick.
var ErrUnavailable = errors.New("fingerprint store unavailable")

// PublicationStatus is the terminal outcome of one publish attempt chain.
type PublicationStatus string

const (
	StatusSuccess           PublicationStatus = "success"
	StatusFailedPermanently PublicationStatus = "failed_permanently"
)

// PublicationRecord is the durable record written once per successfully
// published fingerprint. FailedPermanently records are returned to callers
// for stats but never persisted, so failed articles stay eligible for
// retry in later cycles.
type PublicationRecord struct {
	Fingerprint          string            `json:"fingerprint"`
	Title                string            `json:"title"`
	Link                 string            `json:"link"`
	SourceLabel          string            `json:"source"`
	PublishedAt          time.Time         `json:"published_at"`
	DestinationMessageID int               `json:"message_id"`
	Status               PublicationStatus `json:"status"`
}

// Store is the fingerprint store consumed by the filter engine (reads)
// and the publisher (write on success).
type Store interface {
	// Exists reports whether the fingerprint was already published.
	// A store that cannot answer returns ErrUnavailable.
	Exists(fingerprint string) (bool, error)

	// RecordSuccess durably persists a successful publication. The write
	// must survive process restart before RecordSuccess returns.
	RecordSuccess(rec PublicationRecord) error

	Close() error
}
