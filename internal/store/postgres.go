package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore keeps publication records in a PostgreSQL table. Useful
// when the bot runs on ephemeral hosts where a local file does not
// survive redeploys.
type PostgresStore struct {
	db  *sql.DB
	ttl time.Duration
}

func NewPostgresStore(connectionString string, ttlHours int) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	ps := &PostgresStore{
		db:  db,
		ttl: time.Duration(ttlHours) * time.Hour,
	}
	if err := ps.initSchema(); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return ps, nil
}

func (ps *PostgresStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS published_articles (
		id SERIAL PRIMARY KEY,
		fingerprint VARCHAR(64) UNIQUE NOT NULL,
		title TEXT NOT NULL,
		link TEXT NOT NULL,
		source VARCHAR(100),
		message_id BIGINT,
		published_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_published_fingerprint ON published_articles(fingerprint);
	CREATE INDEX IF NOT EXISTS idx_published_published_at ON published_articles(published_at);
	`
	_, err := ps.db.Exec(schema)
	return err
}

func (ps *PostgresStore) Exists(fingerprint string) (bool, error) {
	cutoff := time.Now().Add(-ps.ttl)

	var count int
	query := `SELECT COUNT(*) FROM published_articles WHERE fingerprint = $1 AND published_at > $2`
	if err := ps.db.QueryRow(query, fingerprint, cutoff).Scan(&count); err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return count > 0, nil
}

func (ps *PostgresStore) RecordSuccess(rec PublicationRecord) error {
	// ON CONFLICT keeps the fingerprint uniqueness invariant even if two
	// processes race on the same article.
	query := `
		INSERT INTO published_articles (fingerprint, title, link, source, message_id, published_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (fingerprint) DO UPDATE SET published_at = EXCLUDED.published_at
	`
	_, err := ps.db.Exec(query, rec.Fingerprint, rec.Title, rec.Link, rec.SourceLabel,
		rec.DestinationMessageID, rec.PublishedAt)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Cleanup removes records older than the retention window.
func (ps *PostgresStore) Cleanup() error {
	cutoff := time.Now().Add(-ps.ttl)
	result, err := ps.db.Exec(`DELETE FROM published_articles WHERE published_at < $1`, cutoff)
	if err != nil {
		return fmt.Errorf("cleanup: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows > 0 {
		slog.Info("cleaned up expired publication records", "count", rows)
	}
	return nil
}

func (ps *PostgresStore) Close() error {
	if ps.db != nil {
		return ps.db.Close()
	}
	return nil
}
