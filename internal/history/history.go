// Package history persists a small, recent window of generated lessons
// across restarts.
//
// The store owns the list exclusively: it is read once at startup (Load) and
// written only by Save and Clear. Retention is pure recency: the newest
// item is prepended and the list is truncated to the configured limit.
//
// Persistence is tolerant of the storage quota: a save that exceeds it is
// retried exactly once with a lightened copy of the new entry (inline image
// stripped, oversized inline audio stripped). If the retry fails too, the
// save is dropped with a log line; persistence failures never surface to the
// caller.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mythosai/mythos/internal/lesson"
	"github.com/mythosai/mythos/internal/storage"
)

// ErrNotFound indicates no history item exists with the requested id.
var ErrNotFound = errors.New("history item not found")

// Store is the bounded, persistent lesson history.
//
// Store is safe for concurrent use.
type Store struct {
	mu    sync.Mutex
	items []lesson.HistoryItem

	kv               storage.KV
	limit            int
	audioInlineLimit int
	logger           *slog.Logger
}

// New creates a Store persisting through kv. limit is the retention bound;
// audioInlineLimit is the encoded-audio length above which a lightened retry
// drops the audio reference.
func New(kv storage.KV, limit, audioInlineLimit int, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		kv:               kv,
		limit:            limit,
		audioInlineLimit: audioInlineLimit,
		logger:           logger,
	}
}

// Load reads the persisted list. A corrupt stored value is removed and
// replaced by an empty list rather than surfaced as an error.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.kv.Get(ctx, storage.KeyHistory)
	if errors.Is(err, storage.ErrNotFound) {
		s.items = nil
		return nil
	}
	if err != nil {
		return err
	}

	var items []lesson.HistoryItem
	if err := json.Unmarshal(data, &items); err != nil {
		s.logger.Warn("discarding corrupt history", "error", err)
		if delErr := s.kv.Delete(ctx, storage.KeyHistory); delErr != nil {
			s.logger.Warn("removing corrupt history failed", "error", delErr)
		}
		s.items = nil
		return nil
	}
	s.items = items
	return nil
}

// Save wraps artifact into a HistoryItem, prepends it, truncates to the
// retention bound and persists the result. It always returns the new item;
// persistence failure is logged, never returned.
func (s *Store) Save(ctx context.Context, artifact lesson.Artifact, req lesson.Request) lesson.HistoryItem {
	item := lesson.HistoryItem{
		Artifact: artifact,
		ID:       uuid.NewString(),
		SavedAt:  time.Now(),
		Topic:    req.Topic,
		Media:    req.Media,
		Genre:    req.Genre,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	full := prependTruncate(s.items, item, s.limit)

	err := s.persist(ctx, full)
	if err == nil {
		s.items = full
		return item
	}
	if !errors.Is(err, storage.ErrQuotaExceeded) {
		// Not a quota signal; lightening would not help. Keep the full data
		// in memory for the current session.
		s.logger.Warn("persisting history failed", "error", err)
		s.items = full
		return item
	}

	s.logger.Warn("storage quota exceeded, retrying with lightened entry")
	light := Lighten(item, s.audioInlineLimit)
	lightList := prependTruncate(s.items, light, s.limit)
	if err := s.persist(ctx, lightList); err != nil {
		s.logger.Error("persisting lightened history failed, save dropped", "error", err)
		s.items = full
		return item
	}
	s.items = lightList
	return item
}

// persist writes items under the history key. Caller holds s.mu.
func (s *Store) persist(ctx context.Context, items []lesson.HistoryItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, storage.KeyHistory, data)
}

// List returns the retained items, newest first.
func (s *Store) List() []lesson.HistoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]lesson.HistoryItem, len(s.items))
	copy(out, s.items)
	return out
}

// Get returns the item with the given id, or ErrNotFound. Get never mutates
// the store.
func (s *Store) Get(id string) (lesson.HistoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.ID == id {
			return item, nil
		}
	}
	return lesson.HistoryItem{}, ErrNotFound
}

// Clear empties both the in-memory list and the persisted value,
// unconditionally.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	return s.kv.Delete(ctx, storage.KeyHistory)
}

// Len returns the number of retained items.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Lighten returns a copy of item with heavy inline media stripped: the image
// reference if it is inline-encoded (data: URI, not an external URL) and the
// audio reference if its encoded length exceeds audioInlineLimit. All other
// fields are untouched.
func Lighten(item lesson.HistoryItem, audioInlineLimit int) lesson.HistoryItem {
	light := item
	if strings.HasPrefix(light.ImageRef, "data:") {
		light.ImageRef = ""
	}
	if len(light.AudioRef) > audioInlineLimit {
		light.AudioRef = ""
	}
	return light
}

// prependTruncate returns a new list with item first, bounded to limit.
func prependTruncate(items []lesson.HistoryItem, item lesson.HistoryItem, limit int) []lesson.HistoryItem {
	out := make([]lesson.HistoryItem, 0, len(items)+1)
	out = append(out, item)
	out = append(out, items...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
