package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrBackupNotFound is returned by backup stores when a key has no
// stored value.
var ErrBackupNotFound = errors.New("backup not found")

// Remote protocol error codes, mirrored from the graph service.
const (
	CodeNotFound        = "not_found"
	CodeValidationError = "validation_error"
	CodeProviderError   = "provider_error"
	CodeInternalError   = "internal_error"
)

// ValidationError reports a graph mutation that would violate a
// structural invariant. It is raised synchronously at mutation time,
// never during sync execution.
type ValidationError struct {
	Entity string // "graph", "node" or "edge"
	ID     string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("invalid %s: %s", e.Entity, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Entity, e.ID, e.Reason)
}

// RemoteError is a failure reported by the remote graph service. It is
// caught per operation during sync and accumulated, never individually
// fatal.
type RemoteError struct {
	Status  int    // HTTP status, 0 when the request never completed
	Code    string // protocol error code, e.g. "not_found"
	Message string
}

func (e *RemoteError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("remote: %s (status=%d code=%s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("remote: %s (status=%d)", e.Message, e.Status)
}

// NotFound reports whether the remote considers the entity missing.
// Deletes treat this as success: the entity is already gone.
func (e *RemoteError) NotFound() bool {
	return e.Status == http.StatusNotFound || e.Code == CodeNotFound
}

// IsRemoteNotFound reports whether err is a RemoteError for a missing
// entity.
func IsRemoteNotFound(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.NotFound()
}

// PartialSyncError aggregates the per-operation failures of a sync in
// which the graph record itself was saved.
type PartialSyncError struct {
	Errors []error
}

func (e *PartialSyncError) Error() string {
	return fmt.Sprintf("sync completed with %d error(s)", len(e.Errors))
}

// Unwrap exposes the accumulated operation errors to errors.Is/As.
func (e *PartialSyncError) Unwrap() []error {
	return e.Errors
}

// CacheError wraps a failure of the local fallback store. It is always
// non-fatal: a cache write failure must never mask the error that
// triggered the backup in the first place.
type CacheError struct {
	Op  string
	Err error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("fallback cache %s: %v", e.Op, e.Err)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}
