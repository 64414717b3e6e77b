package search

import (
	"context"
	"strings"

	"github.com/clipbook/clipbook/internal/domain"
	"github.com/clipbook/clipbook/internal/logger"
	"github.com/sahilm/fuzzy"
)

// Collection provides the bookmarks to search, newest first.
type Collection interface {
	All() []*domain.Bookmark
}

// Semantic is the optional remote ranking capability. Rank must return
// an error on failure so the engine can run its local fallback.
type Semantic interface {
	Available() bool
	Rank(ctx context.Context, query string, bookmarks []*domain.Bookmark) ([]*domain.Bookmark, error)
}

// Engine answers queries against the bookmark collection.
//
// A blank query returns the whole collection newest first. A non-blank
// query is first offered to the semantic ranker; its ordering is
// trusted as-is. When the ranker is absent or fails, a local fuzzy
// match over title, content, tags and summary decides inclusion, and
// the matches keep the collection's newest-first order (relevance only
// decides membership, never the final order).
type Engine struct {
	collection Collection
	semantic   Semantic
	logger     logger.Logger
}

// New creates a search engine. semantic may be nil.
func New(collection Collection, semantic Semantic, log logger.Logger) *Engine {
	return &Engine{
		collection: collection,
		semantic:   semantic,
		logger:     log,
	}
}

// Search returns the bookmarks matching query.
func (e *Engine) Search(ctx context.Context, query string) []*domain.Bookmark {
	bookmarks := e.collection.All()

	query = strings.TrimSpace(query)
	if query == "" {
		return bookmarks
	}

	if e.semantic != nil && e.semantic.Available() {
		ranked, err := e.semantic.Rank(ctx, query, bookmarks)
		if err == nil {
			e.logger.Debug("semantic search served query",
				logger.String("query", query),
				logger.Int("results", len(ranked)))
			return ranked
		}
		e.logger.Warn("semantic search failed, using fuzzy fallback",
			logger.Error(err))
	}

	return fuzzyFilter(query, bookmarks)
}

// fuzzyFilter keeps every bookmark where the query matches any of the
// four searched fields, either as a case-insensitive substring or as a
// fuzzy subsequence. Input order (newest first) is preserved.
func fuzzyFilter(query string, bookmarks []*domain.Bookmark) []*domain.Bookmark {
	if len(bookmarks) == 0 {
		return bookmarks
	}

	matched := make(map[int]bool, len(bookmarks))

	lowerQuery := strings.ToLower(query)
	fields := []func(*domain.Bookmark) string{
		func(b *domain.Bookmark) string { return b.Title },
		func(b *domain.Bookmark) string { return b.Content },
		func(b *domain.Bookmark) string { return strings.Join(b.Tags, " ") },
		func(b *domain.Bookmark) string { return b.Summary },
	}

	for _, field := range fields {
		// Cheap exact pass first: substring hits are always matches.
		for i, b := range bookmarks {
			if !matched[i] && strings.Contains(strings.ToLower(field(b)), lowerQuery) {
				matched[i] = true
			}
		}

		for _, m := range fuzzy.FindFrom(query, fieldSource{bookmarks, field}) {
			matched[m.Index] = true
		}
	}

	results := make([]*domain.Bookmark, 0, len(matched))
	for i, b := range bookmarks {
		if matched[i] {
			results = append(results, b)
		}
	}
	return results
}

// fieldSource adapts one metadata field of a bookmark slice to
// fuzzy.Source.
type fieldSource struct {
	bookmarks []*domain.Bookmark
	value     func(*domain.Bookmark) string
}

func (s fieldSource) String(i int) string { return s.value(s.bookmarks[i]) }
func (s fieldSource) Len() int            { return len(s.bookmarks) }
