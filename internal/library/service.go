package library

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/clipbook/clipbook/internal/analyzer"
	"github.com/clipbook/clipbook/internal/domain"
	"github.com/clipbook/clipbook/internal/index"
	"github.com/clipbook/clipbook/internal/logger"
	redisstore "github.com/clipbook/clipbook/internal/store/redis"
	"github.com/google/uuid"
)

var (
	// ErrDuplicate means a near-duplicate of the content already
	// exists. It is a defined outcome, not a failure: nothing was
	// created and nothing was written.
	ErrDuplicate = errors.New("near-duplicate bookmark exists")

	// ErrEmptyContent rejects blank captures.
	ErrEmptyContent = errors.New("bookmark content is empty")
)

// Metadater derives structured metadata for content. A failure tells
// the factory to fall back to local heuristics.
type Metadater interface {
	Analyze(ctx context.Context, content string) (*analyzer.Analysis, error)
}

// DocumentStore persists whole collection documents by name.
type DocumentStore interface {
	Load(ctx context.Context, name string) (*redisstore.Document, error)
	Save(ctx context.Context, name string, doc *redisstore.Document) error
}

// Service owns the bookmark collection lifecycle: creation through the
// dedup/enrichment pipeline, updates, deletes, and mirroring every
// mutation to the durable store. Mutations are serialized; reads come
// from index snapshots and never block on mutations in flight.
type Service struct {
	index    *index.MemoryIndex
	store    DocumentStore
	metadata Metadater
	logger   logger.Logger
	name     string

	// mu serializes mutations (create/update/delete/settings writes).
	// A create holds it across the analyzer call, so reads must never
	// need it: the index has its own lock, settings have smu.
	mu       sync.Mutex
	smu      sync.RWMutex
	settings domain.Settings

	// dirty marks a failed durable write; the flush retrier clears it.
	dirty atomic.Bool
}

// New creates the collection service. Call Load before serving.
func New(store DocumentStore, idx *index.MemoryIndex, metadata Metadater, name string, log logger.Logger) *Service {
	return &Service{
		index:    idx,
		store:    store,
		metadata: metadata,
		logger:   log,
		name:     name,
		settings: domain.DefaultSettings(),
	}
}

// Load pulls the named document from the durable store into memory.
// A missing document is a first run: empty collection, default
// settings. A corrupt document is an error; starting empty over good
// durable data would clobber it on the next flush.
func (s *Service) Load(ctx context.Context) error {
	doc, err := s.store.Load(ctx, s.name)
	if err != nil {
		return fmt.Errorf("failed to load collection %q: %w", s.name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if doc == nil {
		s.setSettings(domain.DefaultSettings())
		s.index.Replace(nil)
		s.logger.Info("no stored collection, starting empty",
			logger.String("store", s.name))
		return nil
	}

	s.setSettings(doc.Settings.Normalized())
	s.index.Replace(doc.Bookmarks)
	s.logger.Info("collection loaded",
		logger.String("store", s.name),
		logger.Int("bookmarks", s.index.Count()))
	return nil
}

// Create builds a bookmark from content and inserts it.
//
// Pipeline: dedup scan (when enabled), id and timestamp allocation,
// analyzer metadata with heuristic fallback, prepend, flush. Returns
// ErrDuplicate when a near-duplicate exists; the collection is then
// untouched.
func (s *Service) Create(ctx context.Context, content string) (*domain.Bookmark, error) {
	return s.create(ctx, content, false)
}

// CreateFromSeed is Create for seed imports: the dedup scan always
// runs so periodic re-imports never multiply entries, even when the
// user turned deduplication off.
func (s *Service) CreateFromSeed(ctx context.Context, content string) (*domain.Bookmark, error) {
	return s.create(ctx, content, true)
}

func (s *Service) create(ctx context.Context, content string, forceDedup bool) (*domain.Bookmark, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	settings := s.Settings()
	if settings.Deduplicate || forceDedup {
		threshold := settings.MinSimilarity
		for _, existing := range s.index.All() {
			if domain.IsDuplicate(content, existing.Content, threshold) {
				s.logger.Debug("duplicate content refused",
					logger.String("existing_id", existing.ID),
					logger.Float64("threshold", threshold))
				return nil, ErrDuplicate
			}
		}
	}

	b := &domain.Bookmark{
		ID:        newBookmarkID(),
		Content:   content,
		Timestamp: time.Now().UTC(),
	}

	if analysis, err := s.metadata.Analyze(ctx, content); err == nil {
		b.Title = analysis.Title
		b.Tags = analysis.Tags
		b.Summary = analysis.Summary
		b.Language = analysis.Language
		b.AIGenerated = true
		if b.Tags == nil {
			b.Tags = []string{}
		}
	} else {
		domain.DeriveMetadata(b, settings.AutoTag)
	}

	s.index.Insert(b)
	s.flushLocked(ctx)

	s.logger.Info("bookmark created",
		logger.String("id", b.ID),
		logger.String("language", b.Language),
		logger.Bool("ai_generated", b.AIGenerated))
	return b, nil
}

// Update replaces the bookmark with the same ID. Returns false when
// absent; nothing is written in that case.
func (s *Service) Update(ctx context.Context, b *domain.Bookmark) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.index.Update(b.Clone()) {
		return false
	}
	s.flushLocked(ctx)
	return true
}

// Delete removes a bookmark by ID. Returns false when absent; nothing
// is written in that case.
func (s *Service) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.index.Delete(id) {
		return false
	}
	s.flushLocked(ctx)
	return true
}

// All returns the collection newest first.
func (s *Service) All() []*domain.Bookmark {
	return s.index.All()
}

// Count returns the collection size.
func (s *Service) Count() int {
	return s.index.Count()
}

// Settings returns the current settings.
func (s *Service) Settings() domain.Settings {
	s.smu.RLock()
	defer s.smu.RUnlock()
	return s.settings
}

func (s *Service) setSettings(settings domain.Settings) {
	s.smu.Lock()
	s.settings = settings
	s.smu.Unlock()
}

// UpdateSettings merges a patch, persists, and returns the result.
func (s *Service) UpdateSettings(ctx context.Context, patch domain.SettingsPatch) domain.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := s.Settings().Apply(patch)
	s.setSettings(updated)
	s.flushLocked(ctx)
	return updated
}

// Flush writes the current collection to the durable store. Used by
// the retrier after a failed mutation-time write.
func (s *Service) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.flushLocked(ctx)
}

// Dirty reports whether a durable write is still owed.
func (s *Service) Dirty() bool {
	return s.dirty.Load()
}

// flushLocked mirrors memory state to the store: re-sort newest first,
// then one whole-document write. A failure keeps memory authoritative
// and marks the service dirty for the retrier. Caller holds mu.
func (s *Service) flushLocked(ctx context.Context) error {
	s.index.Sort()
	doc := &redisstore.Document{
		Bookmarks: s.index.All(),
		Settings:  s.Settings(),
	}

	if err := s.store.Save(ctx, s.name, doc); err != nil {
		s.dirty.Store(true)
		s.logger.Error("failed to persist collection, will retry",
			logger.String("store", s.name),
			logger.Error(err))
		return err
	}

	s.dirty.Store(false)
	return nil
}

// newBookmarkID returns a time-ordered unique ID, so lexicographic and
// chronological order mostly agree.
func newBookmarkID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
