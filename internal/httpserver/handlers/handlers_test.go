package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clipbook/clipbook/internal/analyzer"
	"github.com/clipbook/clipbook/internal/domain"
	"github.com/clipbook/clipbook/internal/httpserver/deps"
	"github.com/clipbook/clipbook/internal/library"
	"github.com/clipbook/clipbook/internal/logger"
)

// fakeLibrary implements deps.Library over a fixed slice.
type fakeLibrary struct {
	bookmarks []*domain.Bookmark
	duplicate bool
	settings  domain.Settings

	updatedWith *domain.Bookmark
	deletedID   string
}

func (f *fakeLibrary) All() []*domain.Bookmark { return f.bookmarks }

func (f *fakeLibrary) Create(_ context.Context, content string) (*domain.Bookmark, error) {
	if f.duplicate {
		return nil, library.ErrDuplicate
	}
	if strings.TrimSpace(content) == "" {
		return nil, library.ErrEmptyContent
	}
	b := &domain.Bookmark{ID: "new-id", Content: content, Title: "t", Timestamp: time.Now()}
	f.bookmarks = append(f.bookmarks, b)
	return b, nil
}

func (f *fakeLibrary) Update(_ context.Context, b *domain.Bookmark) bool {
	f.updatedWith = b
	for _, cur := range f.bookmarks {
		if cur.ID == b.ID {
			return true
		}
	}
	return false
}

func (f *fakeLibrary) Delete(_ context.Context, id string) bool {
	f.deletedID = id
	for _, cur := range f.bookmarks {
		if cur.ID == id {
			return true
		}
	}
	return false
}

func (f *fakeLibrary) Settings() domain.Settings { return f.settings }

func (f *fakeLibrary) UpdateSettings(_ context.Context, patch domain.SettingsPatch) domain.Settings {
	f.settings = f.settings.Apply(patch)
	return f.settings
}

// fakeSearcher echoes the library contents for any query.
type fakeSearcher struct {
	results   []*domain.Bookmark
	lastQuery string
}

func (f *fakeSearcher) Search(_ context.Context, query string) []*domain.Bookmark {
	f.lastQuery = query
	return f.results
}

// fakeAnalyzer answers with fixed strings.
type fakeAnalyzer struct {
	available bool
}

func (f *fakeAnalyzer) Explain(context.Context, string) string {
	if !f.available {
		return analyzer.UnavailableSentinel
	}
	return "walks the tree in order"
}

func (f *fakeAnalyzer) SuggestOptimizations(context.Context, string) string {
	if !f.available {
		return analyzer.UnavailableSentinel
	}
	return "use a map"
}

func (f *fakeAnalyzer) RelatedQueries(context.Context, string) []string {
	if !f.available {
		return []string{}
	}
	return []string{"tree traversal"}
}

func (f *fakeAnalyzer) State() analyzer.State {
	if f.available {
		return analyzer.StateAvailable
	}
	return analyzer.StateUnavailable
}

func (f *fakeAnalyzer) Available() bool { return f.available }
func (f *fakeAnalyzer) Model() string   { return "deepseek_7b" }

func testDeps(lib *fakeLibrary, searcher *fakeSearcher, an *fakeAnalyzer) deps.Deps {
	if lib == nil {
		lib = &fakeLibrary{settings: domain.DefaultSettings()}
	}
	if searcher == nil {
		searcher = &fakeSearcher{}
	}
	if an == nil {
		an = &fakeAnalyzer{}
	}
	return deps.Deps{
		Logger:   logger.New("error", false),
		Library:  lib,
		Search:   searcher,
		Analyzer: an,
	}
}

func TestListBookmarks(t *testing.T) {
	lib := &fakeLibrary{bookmarks: []*domain.Bookmark{{ID: "b1"}, {ID: "b2"}}}
	rec := httptest.NewRecorder()

	ListBookmarks(testDeps(lib, nil, nil)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bookmarks", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp bookmarksResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if len(resp.Bookmarks) != 2 {
		t.Errorf("returned %d bookmarks, want 2", len(resp.Bookmarks))
	}
}

func TestCreateBookmark(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		duplicate  bool
		wantStatus int
		wantDup    bool
	}{
		{name: "created", body: `{"content":"def foo(): pass"}`, wantStatus: http.StatusCreated},
		{name: "duplicate outcome", body: `{"content":"def foo(): pass"}`, duplicate: true, wantStatus: http.StatusOK, wantDup: true},
		{name: "blank content", body: `{"content":"  "}`, wantStatus: http.StatusBadRequest},
		{name: "broken json", body: `{"content":`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib := &fakeLibrary{duplicate: tt.duplicate}
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/bookmarks", strings.NewReader(tt.body))

			CreateBookmark(testDeps(lib, nil, nil)).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus >= http.StatusBadRequest {
				return
			}
			var resp createResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid response JSON: %v", err)
			}
			if resp.Duplicate != tt.wantDup {
				t.Errorf("duplicate = %v, want %v", resp.Duplicate, tt.wantDup)
			}
			if !tt.wantDup && resp.Bookmark == nil {
				t.Error("created response carries no bookmark")
			}
		})
	}
}

func TestUpdateBookmarkUsesPathID(t *testing.T) {
	lib := &fakeLibrary{bookmarks: []*domain.Bookmark{{ID: "b1"}}}
	r := chi.NewRouter()
	r.Put("/api/bookmarks/{id}", UpdateBookmark(testDeps(lib, nil, nil)))

	body := `{"id":"spoofed","content":"x","title":"t"}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/bookmarks/b1", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp updatedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if !resp.Updated {
		t.Error("updated = false, want true")
	}
	if lib.updatedWith.ID != "b1" {
		t.Errorf("library received ID %q, want path ID b1", lib.updatedWith.ID)
	}
}

func TestDeleteBookmarkNotFound(t *testing.T) {
	lib := &fakeLibrary{}
	r := chi.NewRouter()
	r.Delete("/api/bookmarks/{id}", DeleteBookmark(testDeps(lib, nil, nil)))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/bookmarks/ghost", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (not-found is a boolean outcome)", rec.Code)
	}
	var resp deletedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp.Deleted {
		t.Error("deleted = true for unknown id, want false")
	}
}

func TestSearchPassesQuery(t *testing.T) {
	searcher := &fakeSearcher{results: []*domain.Bookmark{{ID: "b1"}}}
	rec := httptest.NewRecorder()

	Search(testDeps(nil, searcher, nil)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/search?q=binary+search", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if searcher.lastQuery != "binary search" {
		t.Errorf("engine received query %q, want %q", searcher.lastQuery, "binary search")
	}
}

func TestExplainUnavailableSentinel(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/explain", strings.NewReader(`{"content":"def foo(): pass"}`))

	Explain(testDeps(nil, nil, &fakeAnalyzer{available: false})).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (unavailable degrades, never errors)", rec.Code)
	}
	var resp explainResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp.Explanation != analyzer.UnavailableSentinel {
		t.Errorf("explanation = %q, want sentinel", resp.Explanation)
	}
}

func TestAnalyzerStatus(t *testing.T) {
	rec := httptest.NewRecorder()

	AnalyzerStatus(testDeps(nil, nil, &fakeAnalyzer{available: true})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analyzer/status", nil))

	var resp analyzerStatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if !resp.Available || resp.State != "available" || resp.Model != "deepseek_7b" {
		t.Errorf("status = %+v, want available deepseek_7b", resp)
	}
}

func TestUpdateSettingsPatch(t *testing.T) {
	lib := &fakeLibrary{settings: domain.DefaultSettings()}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/settings", strings.NewReader(`{"minSimilarity":0.6,"clipboardMonitoring":false}`))

	UpdateSettings(testDeps(lib, nil, nil)).ServeHTTP(rec, req)

	var resp settingsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp.Settings.MinSimilarity != 0.6 {
		t.Errorf("minSimilarity = %v, want 0.6", resp.Settings.MinSimilarity)
	}
	if resp.Settings.ClipboardMonitoring {
		t.Error("clipboardMonitoring = true, want false")
	}
	if !resp.Settings.AutoTag {
		t.Error("autoTag changed although the patch omitted it")
	}
}

func TestReloadTrigger(t *testing.T) {
	trigger := make(chan struct{}, 1)
	d := testDeps(nil, nil, nil)
	d.SeedReloadTrigger = trigger

	rec := httptest.NewRecorder()
	Reload(d).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reload", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}

	// Channel full: a second trigger is refused, not queued.
	rec = httptest.NewRecorder()
	Reload(d).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reload", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429 while import pending", rec.Code)
	}
}

func TestReloadWithoutSeedFile(t *testing.T) {
	rec := httptest.NewRecorder()
	Reload(testDeps(nil, nil, nil)).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reload", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 when seeding is not configured", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	d := testDeps(nil, nil, nil)
	d.StartTime = time.Now().Add(-time.Minute)
	d.Version = "v0.1.0"

	rec := httptest.NewRecorder()
	Healthz(d).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var resp healthzResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp.Status != "ok" || resp.Version != "v0.1.0" {
		t.Errorf("healthz = %+v, want ok v0.1.0", resp)
	}
	if resp.UptimeSeconds < 59 {
		t.Errorf("uptime = %v, want >= 59s", resp.UptimeSeconds)
	}
}
