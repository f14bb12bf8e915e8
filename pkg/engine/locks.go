package engine

import (
	"context"
	"sync"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// lockTable serializes work per graph id. Entries are reference counted
// so the table never grows beyond the graphs currently being synced.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*lockEntry)}
}

// acquire gets or creates a lock entry and increments its reference
// count. The caller must lock entry.mu and call release(key) after
// unlocking.
func (t *lockTable) acquire(key string) *lockEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, exists := t.locks[key]
	if !exists {
		entry = &lockEntry{}
		t.locks[key] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry when it
// reaches zero.
func (t *lockTable) release(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, exists := t.locks[key]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(t.locks, key)
	}
}

// withLock executes fn while holding the lock for key.
func (t *lockTable) withLock(ctx context.Context, key string, fn func(context.Context) error) error {
	entry := t.acquire(key)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		t.release(key)
	}()
	return fn(ctx)
}
