package analyzer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/clipbook/clipbook/internal/domain"
	"github.com/clipbook/clipbook/internal/logger"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

const (
	// Per-operation timeouts. Related queries are cheaper and get a
	// shorter budget.
	analyzeTimeout = 30 * time.Second
	explainTimeout = 30 * time.Second
	suggestTimeout = 30 * time.Second
	relatedTimeout = 15 * time.Second
	searchTimeout  = 30 * time.Second

	// UnavailableSentinel is the literal string the UI shows when a
	// text-generation call cannot be served. Kept verbatim for
	// compatibility with existing front-ends.
	UnavailableSentinel = "LLM service not available"

	// analyzeCacheSize bounds the analysis result cache. Entries are
	// keyed by content hash, so re-captures of the same snippet skip
	// the remote round trip.
	analyzeCacheSize = 256
)

// ErrUnavailable is returned by Analyze when the remote cannot serve:
// the caller switches to heuristic metadata.
var ErrUnavailable = errors.New("analyzer unavailable")

// Analysis is the structured metadata the remote derives from content.
type Analysis struct {
	Title    string   `json:"title"`
	Tags     []string `json:"tags"`
	Summary  string   `json:"summary"`
	Language string   `json:"language"`
}

// Valid reports whether the analysis is usable. The contract is
// minimal: a non-empty title. Empty tags are fine.
func (a *Analysis) Valid() bool {
	return a != nil && strings.TrimSpace(a.Title) != ""
}

// Options configures the analyzer connection and probe behavior.
type Options struct {
	BaseURL      string        // ex: http://127.0.0.1:5000
	StartupDelay time.Duration // wait before the first status probe
	RetryDelay   time.Duration // wait between failed probes
	MaxAttempts  int           // probes before going passive
	Clock        Clock         // nil = wall clock
}

// Analyzer talks to the local analysis service. All operations degrade
// instead of failing: a broken or absent remote never propagates an
// error past this package, except Analyze's ErrUnavailable which the
// factory treats as the switch to local heuristics.
type Analyzer struct {
	client  *httpClient
	monitor *Monitor
	logger  logger.Logger

	cache *lru.Cache[string, *Analysis]
	group singleflight.Group
}

// New creates an Analyzer. Call Start to begin availability probing.
func New(opts Options, log logger.Logger) *Analyzer {
	client := newHTTPClient(opts.BaseURL)
	// Only errors on size <= 0
	cache, _ := lru.New[string, *Analysis](analyzeCacheSize)

	return &Analyzer{
		client:  client,
		monitor: NewMonitor(client, opts, log),
		logger:  log,
		cache:   cache,
	}
}

// Start launches the availability probe loop.
func (a *Analyzer) Start(ctx context.Context) error {
	return a.monitor.Start(ctx)
}

// Stop halts the probe loop.
func (a *Analyzer) Stop() {
	a.monitor.Stop()
}

// State returns the current availability state.
func (a *Analyzer) State() State {
	return a.monitor.State()
}

// Available reports whether the remote is currently usable.
func (a *Analyzer) Available() bool {
	return a.monitor.State() == StateAvailable
}

// Model returns the model name the remote reported, if any.
func (a *Analyzer) Model() string {
	return a.monitor.Model()
}

// Analyze derives structured metadata for content. When the remote is
// not available it is rechecked once first; a still-unavailable remote
// or a malformed response yields ErrUnavailable and the caller falls
// back to heuristics. Results are cached by content hash.
func (a *Analyzer) Analyze(ctx context.Context, content string) (*Analysis, error) {
	key := contentHash(content)
	if cached, ok := a.cache.Get(key); ok {
		return cached, nil
	}

	if !a.Available() && !a.monitor.Recheck(ctx) {
		return nil, ErrUnavailable
	}

	opCtx, cancel := context.WithTimeout(ctx, analyzeTimeout)
	defer cancel()

	result, err := a.client.analyze(opCtx, content)
	if err != nil {
		a.logger.Warn("analyze call failed", logger.Error(err))
		return nil, ErrUnavailable
	}
	if !result.Valid() {
		a.logger.Warn("analyze returned malformed result")
		return nil, ErrUnavailable
	}

	result.Tags = dedupTags(result.Tags)
	a.cache.Add(key, result)
	return result, nil
}

// Explain returns a natural-language explanation of content, or the
// unavailable sentinel. Concurrent identical requests are collapsed.
func (a *Analyzer) Explain(ctx context.Context, content string) string {
	if !a.Available() {
		return UnavailableSentinel
	}

	v, err, _ := a.group.Do("explain:"+contentHash(content), func() (interface{}, error) {
		opCtx, cancel := context.WithTimeout(ctx, explainTimeout)
		defer cancel()
		return a.client.explain(opCtx, content)
	})
	if err != nil {
		a.logger.Warn("explain call failed", logger.Error(err))
		return UnavailableSentinel
	}
	return v.(string)
}

// SuggestOptimizations returns improvement suggestions for content, or
// the unavailable sentinel.
func (a *Analyzer) SuggestOptimizations(ctx context.Context, content string) string {
	if !a.Available() {
		return UnavailableSentinel
	}

	v, err, _ := a.group.Do("optimize:"+contentHash(content), func() (interface{}, error) {
		opCtx, cancel := context.WithTimeout(ctx, suggestTimeout)
		defer cancel()
		return a.client.suggestOptimizations(opCtx, content)
	})
	if err != nil {
		a.logger.Warn("optimize call failed", logger.Error(err))
		return UnavailableSentinel
	}
	return v.(string)
}

// RelatedQueries suggests follow-up search queries for content. An
// unavailable or failing remote yields an empty slice.
func (a *Analyzer) RelatedQueries(ctx context.Context, content string) []string {
	if !a.Available() {
		return []string{}
	}

	v, err, _ := a.group.Do("related:"+contentHash(content), func() (interface{}, error) {
		opCtx, cancel := context.WithTimeout(ctx, relatedTimeout)
		defer cancel()
		return a.client.relatedQueries(opCtx, content)
	})
	if err != nil {
		a.logger.Warn("related queries call failed", logger.Error(err))
		return []string{}
	}
	queries := v.([]string)
	if queries == nil {
		return []string{}
	}
	return queries
}

// Rank asks the remote to reorder bookmarks by relevance to query.
// Unlike the other operations the error propagates: the search engine
// runs its own fuzzy fallback on failure, which needs to know.
func (a *Analyzer) Rank(ctx context.Context, query string, bookmarks []*domain.Bookmark) ([]*domain.Bookmark, error) {
	if !a.Available() {
		return nil, ErrUnavailable
	}
	if query == "" || len(bookmarks) == 0 {
		return bookmarks, nil
	}

	opCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	ranked, err := a.client.semanticSearch(opCtx, query, bookmarks)
	if err != nil {
		a.logger.Warn("semantic search failed", logger.Error(err))
		return nil, err
	}
	return ranked, nil
}

// SemanticSearch is Rank with the usual absorbing contract: on any
// failure, or when there is nothing to rank, the input comes back
// unchanged.
func (a *Analyzer) SemanticSearch(ctx context.Context, query string, bookmarks []*domain.Bookmark) []*domain.Bookmark {
	ranked, err := a.Rank(ctx, query, bookmarks)
	if err != nil {
		return bookmarks
	}
	return ranked
}

// contentHash gives a stable cache and collapse key for snippet text.
func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func dedupTags(tags []string) []string {
	if len(tags) == 0 {
		return tags
	}
	seen := make(map[string]bool, len(tags))
	out := tags[:0]
	for _, tag := range tags {
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
