package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/easelab/easel/pkg/domain"
	"github.com/easelab/easel/pkg/ports"
)

// Keys used in the backup store.
const (
	backupKey      = "easel:graph_backup"
	lastGraphIDKey = "easel:last_graph_id"
)

// Fallback mirrors the last exported graph into a local store so work
// survives the remote being unreachable. Every failure is wrapped in a
// *domain.CacheError: callers treat them as non-fatal by contract.
type Fallback struct {
	store ports.BackupStore
	log   *slog.Logger
}

// NewFallback builds a Fallback over the given store. A nil logger
// discards.
func NewFallback(store ports.BackupStore, log *slog.Logger) *Fallback {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Fallback{store: store, log: log}
}

// Store writes the snapshot as the current backup and remembers its id
// as the last synced graph.
func (f *Fallback) Store(ctx context.Context, snap *domain.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return &domain.CacheError{Op: "encode", Err: err}
	}
	if err := f.store.Set(ctx, backupKey, raw); err != nil {
		return &domain.CacheError{Op: "write", Err: err}
	}
	if snap.ID != "" {
		if err := f.store.Set(ctx, lastGraphIDKey, []byte(snap.ID)); err != nil {
			return &domain.CacheError{Op: "write", Err: err}
		}
	}
	return nil
}

// StoreBestEffort writes the backup and only logs on failure. Used on
// the total-failure save path, where the original error must survive
// untouched.
func (f *Fallback) StoreBestEffort(ctx context.Context, snap *domain.Snapshot) {
	if err := f.Store(ctx, snap); err != nil {
		f.log.WarnContext(ctx, "best-effort backup write failed", "err", err)
	}
}

// Load reads the current backup snapshot.
// Returns domain.ErrBackupNotFound (wrapped) when no backup exists.
func (f *Fallback) Load(ctx context.Context) (*domain.Snapshot, error) {
	raw, err := f.store.Get(ctx, backupKey)
	if err != nil {
		return nil, &domain.CacheError{Op: "read", Err: err}
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, &domain.CacheError{Op: "decode", Err: fmt.Errorf("corrupt backup: %w", err)}
	}
	return &snap, nil
}

// LastGraphID returns the id recorded by the most recent Store.
// Returns domain.ErrBackupNotFound (wrapped) when none was recorded.
func (f *Fallback) LastGraphID(ctx context.Context) (string, error) {
	raw, err := f.store.Get(ctx, lastGraphIDKey)
	if err != nil {
		return "", &domain.CacheError{Op: "read", Err: err}
	}
	return string(raw), nil
}

// Clear drops the backup and the remembered graph id.
func (f *Fallback) Clear(ctx context.Context) error {
	if err := f.store.Delete(ctx, backupKey); err != nil {
		return &domain.CacheError{Op: "delete", Err: err}
	}
	if err := f.store.Delete(ctx, lastGraphIDKey); err != nil {
		return &domain.CacheError{Op: "delete", Err: err}
	}
	return nil
}
