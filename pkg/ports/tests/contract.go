package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/easelab/easel/pkg/domain"
	"github.com/easelab/easel/pkg/ports"
)

// BackupStoreContractTest is a reusable suite that verifies an adapter
// complies with ports.BackupStore. Every store implementation runs it
// against a fresh, empty store.
func BackupStoreContractTest(t *testing.T, store ports.BackupStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("Get_Missing", func(t *testing.T) {
		_, err := store.Get(ctx, "easel:absent")
		if !errors.Is(err, domain.ErrBackupNotFound) {
			t.Errorf("Get on missing key returned %v, want ErrBackupNotFound", err)
		}
	})

	t.Run("Set_Get_RoundTrip", func(t *testing.T) {
		if err := store.Set(ctx, "easel:doc", []byte(`{"id":"g1"}`)); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		got, err := store.Get(ctx, "easel:doc")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(got) != `{"id":"g1"}` {
			t.Errorf("Get returned %q", got)
		}
	})

	t.Run("Set_Overwrites", func(t *testing.T) {
		if err := store.Set(ctx, "easel:doc", []byte("v2")); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		got, err := store.Get(ctx, "easel:doc")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(got) != "v2" {
			t.Errorf("Get after overwrite returned %q, want %q", got, "v2")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := store.Delete(ctx, "easel:doc"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := store.Get(ctx, "easel:doc"); !errors.Is(err, domain.ErrBackupNotFound) {
			t.Errorf("Get after delete returned %v, want ErrBackupNotFound", err)
		}
	})

	t.Run("Delete_Missing_Is_Noop", func(t *testing.T) {
		if err := store.Delete(ctx, "easel:never-existed"); err != nil {
			t.Errorf("Delete on missing key returned %v, want nil", err)
		}
	})
}
