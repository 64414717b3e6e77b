package clipboard

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/clipbook/clipbook/internal/domain"
	"github.com/clipbook/clipbook/internal/library"
	"github.com/clipbook/clipbook/internal/logger"
)

// Creator is the bookmark intake pipeline the watcher feeds into.
type Creator interface {
	Create(ctx context.Context, content string) (*domain.Bookmark, error)
	Settings() domain.Settings
}

// Notifier surfaces transient user-visible messages. Display is an
// external collaborator (tray balloons, overlay toasts); the default
// implementation just logs.
type Notifier interface {
	Notify(title, message string)
}

type logNotifier struct {
	logger logger.Logger
}

func (n logNotifier) Notify(title, message string) {
	n.logger.Info("notification",
		logger.String("title", title),
		logger.String("message", message))
}

// Watcher polls a clipboard source on a fixed interval and routes new
// text through the bookmark creation pipeline. Duplicate captures are
// a defined outcome and surface as a notification, never an error.
type Watcher struct {
	source    Source
	creator   Creator
	notifier  Notifier
	logger    logger.Logger
	interval  time.Duration
	minLength int

	// lastSeen suppresses re-captures of unchanged clipboard content.
	lastSeen string
	stopCh   chan struct{}
}

// NewWatcher creates a clipboard watcher. notifier may be nil, in
// which case notifications go to the log.
func NewWatcher(
	source Source,
	creator Creator,
	notifier Notifier,
	log logger.Logger,
	interval time.Duration,
	minLength int,
) *Watcher {
	if notifier == nil {
		notifier = logNotifier{logger: log}
	}
	return &Watcher{
		source:    source,
		creator:   creator,
		notifier:  notifier,
		logger:    log,
		interval:  interval,
		minLength: minLength,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the polling loop.
func (w *Watcher) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.poll(ctx)
			case <-w.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	close(w.stopCh)
}

// poll reads the clipboard once and captures new content. The
// clipboardMonitoring setting is re-read every tick so the user can
// pause monitoring without a restart.
func (w *Watcher) poll(ctx context.Context) {
	if !w.creator.Settings().ClipboardMonitoring {
		return
	}

	text, err := w.source.Read(ctx)
	if err != nil {
		w.logger.Debug("clipboard read failed", logger.Error(err))
		return
	}

	text = strings.TrimSpace(text)
	if text == "" || text == w.lastSeen {
		return
	}
	w.lastSeen = text

	if len([]rune(text)) < w.minLength {
		w.logger.Debug("clipboard capture below minimum length",
			logger.Int("length", len(text)),
			logger.Int("min", w.minLength))
		return
	}

	b, err := w.creator.Create(ctx, text)
	switch {
	case errors.Is(err, library.ErrDuplicate):
		w.notifier.Notify("Duplicate detected", "This snippet is already in your library.")
	case err != nil:
		w.logger.Warn("clipboard capture failed", logger.Error(err))
	default:
		w.notifier.Notify("Snippet saved", b.Title)
		w.logger.Info("clipboard capture saved",
			logger.String("id", b.ID),
			logger.String("title", b.Title))
	}
}
