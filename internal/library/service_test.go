package library

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/clipbook/clipbook/internal/analyzer"
	"github.com/clipbook/clipbook/internal/domain"
	"github.com/clipbook/clipbook/internal/index"
	"github.com/clipbook/clipbook/internal/logger"
	redisstore "github.com/clipbook/clipbook/internal/store/redis"
)

// fakeStore keeps documents in memory and can be told to fail writes.
type fakeStore struct {
	mu       sync.Mutex
	doc      *redisstore.Document
	saves    int
	failSave bool
}

func (f *fakeStore) Load(context.Context, string) (*redisstore.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc, nil
}

func (f *fakeStore) Save(_ context.Context, _ string, doc *redisstore.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSave {
		return errors.New("redis gone")
	}
	f.saves++
	f.doc = doc
	return nil
}

func (f *fakeStore) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

func (f *fakeStore) setFailSave(fail bool) {
	f.mu.Lock()
	f.failSave = fail
	f.mu.Unlock()
}

// fakeMetadater either returns a scripted analysis or reports the
// analyzer unavailable.
type fakeMetadater struct {
	analysis *analyzer.Analysis
}

func (f *fakeMetadater) Analyze(context.Context, string) (*analyzer.Analysis, error) {
	if f.analysis == nil {
		return nil, analyzer.ErrUnavailable
	}
	return f.analysis, nil
}

func newTestService(store *fakeStore, meta *fakeMetadater) *Service {
	return New(store, index.NewMemoryIndex(), meta, "bookmarks", logger.New("error", false))
}

func TestCreateWithHeuristicFallback(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, &fakeMetadater{})

	b, err := svc.Create(context.Background(), "// quick sort\ndef quick_sort(xs):\n    pass")
	if err != nil {
		t.Fatalf("Create() = %v, want nil", err)
	}

	if b.ID == "" {
		t.Error("Create() allocated no ID")
	}
	if b.Title != "quick sort" {
		t.Errorf("Title = %q, want heuristic title", b.Title)
	}
	if b.Language != domain.LangPython {
		t.Errorf("Language = %q, want python", b.Language)
	}
	if b.AIGenerated {
		t.Error("AIGenerated = true, want false for heuristic metadata")
	}
	if b.Timestamp.IsZero() {
		t.Error("Timestamp not allocated")
	}
	if store.saveCount() != 1 {
		t.Errorf("store saves = %v, want 1", store.saveCount())
	}
}

func TestCreateWithAnalyzerMetadata(t *testing.T) {
	store := &fakeStore{}
	meta := &fakeMetadater{analysis: &analyzer.Analysis{
		Title:    "Quick sort implementation",
		Tags:     []string{"python", "algorithm"},
		Summary:  "partition based sorting",
		Language: "python",
	}}
	svc := newTestService(store, meta)

	b, err := svc.Create(context.Background(), "def quick_sort(xs): pass")
	if err != nil {
		t.Fatalf("Create() = %v, want nil", err)
	}
	if !b.AIGenerated {
		t.Error("AIGenerated = false, want true for analyzer metadata")
	}
	if b.Title != "Quick sort implementation" {
		t.Errorf("Title = %q, want analyzer title", b.Title)
	}
}

func TestCreateRefusesDuplicate(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, &fakeMetadater{})

	content := "def fibonacci(n): return fib(n-1) + fib(n-2)"
	if _, err := svc.Create(context.Background(), content); err != nil {
		t.Fatalf("first Create() = %v, want nil", err)
	}
	savesAfterFirst := store.saveCount()

	nearDuplicate := "def fibonacci(m): return fib(m-1) + fib(m-2)"
	_, err := svc.Create(context.Background(), nearDuplicate)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second Create() = %v, want ErrDuplicate", err)
	}

	if svc.Count() != 1 {
		t.Errorf("Count() = %v, want 1 (no entity created)", svc.Count())
	}
	if store.saveCount() != savesAfterFirst {
		t.Errorf("store saves = %v, want %v (no side effect)", store.saveCount(), savesAfterFirst)
	}
}

func TestCreateAllowsDuplicateWhenDisabled(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, &fakeMetadater{})

	off := false
	svc.UpdateSettings(context.Background(), domain.SettingsPatch{Deduplicate: &off})

	content := "def fibonacci(n): return fib(n-1) + fib(n-2)"
	if _, err := svc.Create(context.Background(), content); err != nil {
		t.Fatalf("first Create() = %v", err)
	}
	if _, err := svc.Create(context.Background(), content); err != nil {
		t.Fatalf("Create() with dedup off = %v, want nil", err)
	}
	if svc.Count() != 2 {
		t.Errorf("Count() = %v, want 2", svc.Count())
	}
}

func TestCreateRejectsBlankContent(t *testing.T) {
	svc := newTestService(&fakeStore{}, &fakeMetadater{})

	for _, content := range []string{"", "   ", "\n\t"} {
		if _, err := svc.Create(context.Background(), content); !errors.Is(err, ErrEmptyContent) {
			t.Errorf("Create(%q) = %v, want ErrEmptyContent", content, err)
		}
	}
}

func TestCreateFromSeedAlwaysDeduplicates(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, &fakeMetadater{})

	off := false
	svc.UpdateSettings(context.Background(), domain.SettingsPatch{Deduplicate: &off})

	content := "SELECT * FROM users WHERE active = true"
	if _, err := svc.CreateFromSeed(context.Background(), content); err != nil {
		t.Fatalf("first CreateFromSeed() = %v", err)
	}
	if _, err := svc.CreateFromSeed(context.Background(), content); !errors.Is(err, ErrDuplicate) {
		t.Errorf("second CreateFromSeed() = %v, want ErrDuplicate despite dedup off", err)
	}
}

func TestCreateOrdering(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, &fakeMetadater{})

	first, _ := svc.Create(context.Background(), "first snippet content here")
	second, _ := svc.Create(context.Background(), "totally different second one")

	all := svc.All()
	if len(all) != 2 {
		t.Fatalf("All() = %v bookmarks, want 2", len(all))
	}
	if all[0].ID != second.ID || all[1].ID != first.ID {
		t.Errorf("All() order = [%v %v], want newest first", all[0].ID, all[1].ID)
	}
}

func TestUpdate(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, &fakeMetadater{})

	b, _ := svc.Create(context.Background(), "original content for update")
	saves := store.saveCount()

	edited := b.Clone()
	edited.Title = "renamed"
	if !svc.Update(context.Background(), edited) {
		t.Fatal("Update() = false for existing bookmark")
	}
	if store.saveCount() != saves+1 {
		t.Errorf("store saves = %v, want %v", store.saveCount(), saves+1)
	}

	if svc.Update(context.Background(), &domain.Bookmark{ID: "missing"}) {
		t.Error("Update() = true for missing bookmark, want false")
	}
	if store.saveCount() != saves+1 {
		t.Errorf("Update() of missing bookmark wrote to store")
	}
}

func TestDelete(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, &fakeMetadater{})

	b, _ := svc.Create(context.Background(), "content that will be deleted")
	saves := store.saveCount()

	if !svc.Delete(context.Background(), b.ID) {
		t.Fatal("Delete() = false for existing bookmark")
	}
	if svc.Count() != 0 {
		t.Errorf("Count() = %v after delete, want 0", svc.Count())
	}
	if store.saveCount() != saves+1 {
		t.Errorf("store saves = %v, want %v", store.saveCount(), saves+1)
	}

	if svc.Delete(context.Background(), b.ID) {
		t.Error("Delete() = true for already-removed bookmark, want false")
	}
	if store.saveCount() != saves+1 {
		t.Error("Delete() of missing bookmark wrote to store")
	}
}

func TestFlushFailureKeepsMemoryAndRetries(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, &fakeMetadater{})

	store.setFailSave(true)
	b, err := svc.Create(context.Background(), "content created during outage")
	if err != nil {
		t.Fatalf("Create() during store outage = %v, want nil (memory still works)", err)
	}
	if b == nil || svc.Count() != 1 {
		t.Fatal("memory state corrupted by failed flush")
	}
	if !svc.Dirty() {
		t.Error("Dirty() = false after failed flush, want true")
	}

	// Store recovers; a retried flush lands the data
	store.setFailSave(false)
	if err := svc.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() after recovery = %v, want nil", err)
	}
	if svc.Dirty() {
		t.Error("Dirty() = true after successful flush, want false")
	}

	store.mu.Lock()
	persisted := len(store.doc.Bookmarks)
	store.mu.Unlock()
	if persisted != 1 {
		t.Errorf("persisted bookmarks = %v, want 1", persisted)
	}
}

func TestLoad(t *testing.T) {
	old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := old.Add(time.Hour)

	store := &fakeStore{doc: &redisstore.Document{
		Bookmarks: []*domain.Bookmark{
			{ID: "old", Content: "a", Timestamp: old},
			{ID: "new", Content: "b", Timestamp: newer},
		},
		Settings: domain.Settings{MinSimilarity: 2.5},
	}}
	svc := newTestService(store, &fakeMetadater{})

	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	all := svc.All()
	if len(all) != 2 || all[0].ID != "new" {
		t.Errorf("Load() order = %v, want newest first", ids(all))
	}
	if got := svc.Settings().MinSimilarity; got != 1 {
		t.Errorf("Settings().MinSimilarity = %v, want clamped to 1", got)
	}
	if svc.Settings().Shortcut == "" {
		t.Error("Load() should fill empty shortcut with default")
	}
}

func TestLoadFirstRun(t *testing.T) {
	svc := newTestService(&fakeStore{}, &fakeMetadater{})

	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load() = %v, want nil on missing document", err)
	}
	if svc.Count() != 0 {
		t.Errorf("Count() = %v, want 0 on first run", svc.Count())
	}
	if svc.Settings() != domain.DefaultSettings() {
		t.Errorf("Settings() = %+v, want defaults", svc.Settings())
	}
}

func TestAutoTagSettingGatesHeuristicTags(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, &fakeMetadater{})

	off := false
	svc.UpdateSettings(context.Background(), domain.SettingsPatch{AutoTag: &off})

	b, err := svc.Create(context.Background(), "def tagless(): pass")
	if err != nil {
		t.Fatalf("Create() = %v", err)
	}
	if len(b.Tags) != 0 {
		t.Errorf("Tags = %v, want none with autoTag off", b.Tags)
	}
}

func TestThresholdSettingControlsDedup(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, &fakeMetadater{})

	// With a generous threshold these two are not duplicates
	strict := 0.99
	svc.UpdateSettings(context.Background(), domain.SettingsPatch{MinSimilarity: &strict})

	if _, err := svc.Create(context.Background(), "def fibonacci(n): return n"); err != nil {
		t.Fatalf("first Create() = %v", err)
	}
	if _, err := svc.Create(context.Background(), "def fibonacci(m): return m"); err != nil {
		t.Fatalf("Create() under strict threshold = %v, want nil", err)
	}

	// Lowering the threshold catches the next near-duplicate
	loose := 0.5
	svc.UpdateSettings(context.Background(), domain.SettingsPatch{MinSimilarity: &loose})

	if _, err := svc.Create(context.Background(), "def fibonacci(k): return k"); !errors.Is(err, ErrDuplicate) {
		t.Errorf("Create() under loose threshold = %v, want ErrDuplicate", err)
	}
}

func ids(bookmarks []*domain.Bookmark) []string {
	out := make([]string, len(bookmarks))
	for i, b := range bookmarks {
		out[i] = b.ID
	}
	return out
}
