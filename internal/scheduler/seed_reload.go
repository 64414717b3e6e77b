package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clipbook/clipbook/internal/domain"
	"github.com/clipbook/clipbook/internal/library"
	"github.com/clipbook/clipbook/internal/logger"
	"github.com/clipbook/clipbook/internal/sources/seed"
)

// Importer is the pipeline seed snippets are routed through. Seed
// imports always dedup so periodic re-imports never multiply entries.
type Importer interface {
	CreateFromSeed(ctx context.Context, content string) (*domain.Bookmark, error)
}

// SeedReloader imports the seed snippet file at startup and re-imports
// it periodically or on a manual trigger.
type SeedReloader struct {
	loader        *seed.Loader
	mapper        *seed.Mapper
	importer      Importer
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewSeedReloader creates a new seed reloader
func NewSeedReloader(
	seedFile string,
	importer Importer,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *SeedReloader {
	return &SeedReloader{
		loader:        seed.NewLoader(seedFile),
		mapper:        seed.NewMapper(),
		importer:      importer,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start imports the seed file immediately, then begins the periodic
// re-import loop.
func (sr *SeedReloader) Start(ctx context.Context) error {
	if err := sr.Import(ctx); err != nil {
		return fmt.Errorf("initial seed import failed: %w", err)
	}

	ticker := time.NewTicker(sr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := sr.Import(ctx); err != nil {
					sr.logger.Error("failed to re-import seed snippets",
						logger.Error(err))
				}
			case <-sr.manualTrigger:
				sr.logger.Info("manual seed import triggered")
				if err := sr.Import(ctx); err != nil {
					sr.logger.Error("failed to re-import seed snippets",
						logger.Error(err))
				}
			case <-sr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reloader
func (sr *SeedReloader) Stop() {
	close(sr.stopCh)
}

// Import loads the seed file and routes every snippet through the
// normal creation pipeline. Near-duplicates of already-present content
// are skipped by the dedup scan, so re-importing is harmless.
func (sr *SeedReloader) Import(ctx context.Context) error {
	sr.logger.Info("importing seed snippets")

	file, err := sr.loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load seed file: %w", err)
	}

	contents, err := sr.mapper.Map(file)
	if err != nil {
		return fmt.Errorf("failed to map seed file: %w", err)
	}

	created, skipped := 0, 0
	for _, content := range contents {
		_, err := sr.importer.CreateFromSeed(ctx, content)
		switch {
		case err == nil:
			created++
		case errors.Is(err, library.ErrDuplicate):
			skipped++
		default:
			sr.logger.Warn("failed to import seed snippet",
				logger.Error(err))
		}
	}

	sr.logger.Info("seed import completed",
		logger.Int("created", created),
		logger.Int("skipped_duplicates", skipped))

	return nil
}
