package index

import (
	"sort"
	"sync"

	"github.com/clipbook/clipbook/internal/domain"
)

// MemoryIndex is the in-memory bookmark collection. It is the
// authoritative runtime state; the durable store only mirrors it.
//
// Ordering invariant: newest first (timestamp descending). Insert
// prepends, Replace and Sort re-establish the full order.
type MemoryIndex struct {
	mu      sync.RWMutex
	ordered []*domain.Bookmark          // newest first
	byID    map[string]*domain.Bookmark // ID -> Bookmark
}

// NewMemoryIndex creates a new memory index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		byID: make(map[string]*domain.Bookmark),
	}
}

// Replace swaps in a full collection, sorted newest first.
// Used at load time and after seed imports.
func (idx *MemoryIndex) Replace(bookmarks []*domain.Bookmark) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.ordered = make([]*domain.Bookmark, 0, len(bookmarks))
	idx.byID = make(map[string]*domain.Bookmark, len(bookmarks))
	for _, b := range bookmarks {
		if _, dup := idx.byID[b.ID]; dup {
			continue
		}
		idx.ordered = append(idx.ordered, b)
		idx.byID[b.ID] = b
	}
	sortNewestFirst(idx.ordered)
}

// Get retrieves a bookmark by ID
func (idx *MemoryIndex) Get(id string) (*domain.Bookmark, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	b, ok := idx.byID[id]
	return b, ok
}

// All returns the collection newest first. The slice is a fresh copy;
// the bookmarks it points to are shared and must be treated as
// read-only (mutations go through Update, which swaps pointers).
func (idx *MemoryIndex) All() []*domain.Bookmark {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]*domain.Bookmark, len(idx.ordered))
	copy(out, idx.ordered)
	return out
}

// Insert prepends a bookmark. The caller guarantees a fresh ID.
func (idx *MemoryIndex) Insert(b *domain.Bookmark) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, exists := idx.byID[b.ID]; exists {
		return
	}
	idx.ordered = append([]*domain.Bookmark{b}, idx.ordered...)
	idx.byID[b.ID] = b
}

// Update replaces the bookmark with the same ID. Returns false when no
// such bookmark exists; the collection is then untouched.
func (idx *MemoryIndex) Update(b *domain.Bookmark) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.byID[b.ID]; !ok {
		return false
	}
	for i, cur := range idx.ordered {
		if cur.ID == b.ID {
			idx.ordered[i] = b
			break
		}
	}
	idx.byID[b.ID] = b
	return true
}

// Delete removes a bookmark by ID. Returns false when absent.
func (idx *MemoryIndex) Delete(id string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.byID[id]; !ok {
		return false
	}
	delete(idx.byID, id)
	for i, cur := range idx.ordered {
		if cur.ID == id {
			idx.ordered = append(idx.ordered[:i], idx.ordered[i+1:]...)
			break
		}
	}
	return true
}

// Count returns the number of bookmarks in the index
func (idx *MemoryIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.ordered)
}

// Sort re-establishes newest-first order. Called before each flush so
// the persisted document and the served collection agree.
func (idx *MemoryIndex) Sort() {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	sortNewestFirst(idx.ordered)
}

func sortNewestFirst(bookmarks []*domain.Bookmark) {
	sort.SliceStable(bookmarks, func(i, j int) bool {
		return bookmarks[i].Timestamp.After(bookmarks[j].Timestamp)
	})
}
