package deps

import (
	"context"
	"time"

	"github.com/clipbook/clipbook/internal/analyzer"
	"github.com/clipbook/clipbook/internal/domain"
	"github.com/clipbook/clipbook/internal/logger"
	"github.com/redis/go-redis/v9"
)

// Library is the bookmark collection surface the handlers consume.
type Library interface {
	All() []*domain.Bookmark
	Create(ctx context.Context, content string) (*domain.Bookmark, error)
	Update(ctx context.Context, b *domain.Bookmark) bool
	Delete(ctx context.Context, id string) bool
	Settings() domain.Settings
	UpdateSettings(ctx context.Context, patch domain.SettingsPatch) domain.Settings
}

// Searcher answers bookmark queries.
type Searcher interface {
	Search(ctx context.Context, query string) []*domain.Bookmark
}

// Analyzer is the external analysis surface exposed to UI collaborators.
type Analyzer interface {
	Explain(ctx context.Context, content string) string
	SuggestOptimizations(ctx context.Context, content string) string
	RelatedQueries(ctx context.Context, content string) []string
	State() analyzer.State
	Available() bool
	Model() string
}

type Deps struct {
	Logger            logger.Logger
	StartTime         time.Time
	Version           string
	Commit            string
	BuildDate         string
	GoVersion         string
	AllowedHosts      []string      // Host headers allowed to access the server
	AllowedCIDRS      []string      // IPs/CIDRs allowed to access the API (default loopback-only)
	TrustProxy        bool          // true if running behind a trusted reverse proxy
	RedisClient       *redis.Client // Redis client connection, used by readiness checks
	Library           Library       // Bookmark collection lifecycle
	Search            Searcher      // Search engine
	Analyzer          Analyzer      // External analysis capability
	SeedReloadTrigger chan struct{} // Channel to trigger manual seed import (nil if seeding disabled)
}
