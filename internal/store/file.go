package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// FileStore keeps publication records in a JSON file. Every RecordSuccess
// rewrites the file before returning, so a completed publish is durable
// even if the process dies right after.
type FileStore struct {
	filePath string
	ttl      time.Duration
	mu       sync.RWMutex
	items    map[string]PublicationRecord
}

// NewFileStore loads existing records from filePath, dropping entries
// older than ttlHours. A missing file starts an empty store.
func NewFileStore(filePath string, ttlHours int) (*FileStore, error) {
	fs := &FileStore{
		filePath: filePath,
		ttl:      time.Duration(ttlHours) * time.Hour,
		items:    make(map[string]PublicationRecord),
	}
	if err := fs.load(); err != nil {
		return nil, err
	}
	return fs, nil
}

func (fs *FileStore) load() error {
	data, err := os.ReadFile(fs.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read store file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var records []PublicationRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("unmarshal store file: %w", err)
	}

	cutoff := time.Now().Add(-fs.ttl)
	for _, rec := range records {
		if rec.PublishedAt.After(cutoff) {
			fs.items[rec.Fingerprint] = rec
		}
	}
	return nil
}

func (fs *FileStore) Exists(fingerprint string) (bool, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	rec, ok := fs.items[fingerprint]
	if !ok {
		return false, nil
	}
	return rec.PublishedAt.After(time.Now().Add(-fs.ttl)), nil
}

func (fs *FileStore) RecordSuccess(rec PublicationRecord) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	rec.Status = StatusSuccess
	fs.items[rec.Fingerprint] = rec
	return fs.flush()
}

// flush rewrites the whole file; caller holds the write lock.
func (fs *FileStore) flush() error {
	records := make([]PublicationRecord, 0, len(fs.items))
	cutoff := time.Now().Add(-fs.ttl)
	for _, rec := range fs.items {
		if rec.PublishedAt.After(cutoff) {
			records = append(records, rec)
		}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}

	tmp := fs.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write store file: %w", err)
	}
	if err := os.Rename(tmp, fs.filePath); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}

func (fs *FileStore) Close() error { return nil }
