// Package middleware provides composable decorators for the backup
// store, layered between the fallback cache and its storage backend.
package middleware

import "github.com/easelab/easel/pkg/ports"

// Middleware allows wrapping a BackupStore to add behavior.
type Middleware func(ports.BackupStore) ports.BackupStore
