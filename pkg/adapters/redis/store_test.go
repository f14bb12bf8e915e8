package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/easelab/easel/pkg/adapters/redis"
	"github.com/easelab/easel/pkg/domain"
	"github.com/easelab/easel/pkg/ports"
	"github.com/easelab/easel/pkg/ports/tests"
)

var _ ports.BackupStore = (*redis.Store)(nil)

func TestRedisStore_Contract(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	defer mr.Close()

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})

	store := redis.NewFromClient(client)
	tests.BackupStoreContractTest(t, store)
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, err := miniredis.Run()
	assert.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})

	// Create store with 1s TTL
	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()

	err = store.Set(ctx, "easel:graph_backup", []byte(`{"id":"g1"}`))
	assert.NoError(t, err)

	// Still readable before expiry
	val, err := store.Get(ctx, "easel:graph_backup")
	assert.NoError(t, err)
	assert.Equal(t, []byte(`{"id":"g1"}`), val)

	// Fast forward time in miniredis past the TTL
	mr.FastForward(2 * time.Second)

	_, err = store.Get(ctx, "easel:graph_backup")
	assert.ErrorIs(t, err, domain.ErrBackupNotFound)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, err := miniredis.Run()
	assert.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})

	store := redis.NewFromClient(client, redis.WithPrefix("tenant1:"))
	ctx := context.Background()

	err = store.Set(ctx, "easel:last_graph_id", []byte("g1"))
	assert.NoError(t, err)

	// Verify keys in Redis directly
	assert.True(t, mr.Exists("tenant1:easel:last_graph_id"), "Expected key with custom prefix to exist")
	assert.False(t, mr.Exists("easel:last_graph_id"), "Unprefixed key should not exist")

	val, err := store.Get(ctx, "easel:last_graph_id")
	assert.NoError(t, err)
	assert.Equal(t, "g1", string(val))
}
