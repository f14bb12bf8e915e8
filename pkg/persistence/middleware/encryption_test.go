package middleware_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"io"
	"testing"

	"github.com/easelab/easel/pkg/adapters/memory"
	"github.com/easelab/easel/pkg/domain"
	"github.com/easelab/easel/pkg/persistence/middleware"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	key := generateKey(t)
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
	secureStore := mw(underlying)

	ctx := context.Background()
	plaintext := []byte(`{"id":"g1","nodes":[{"systemMessage":"my-secret-sauce"}]}`)

	if err := secureStore.Set(ctx, "g1", plaintext); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// The underlying store must only ever see ciphertext.
	stored, err := underlying.Get(ctx, "g1")
	if err != nil {
		t.Fatalf("Underlying get failed: %v", err)
	}
	if bytes.Contains(stored, []byte("my-secret-sauce")) {
		t.Fatal("Expected secret to be hidden in the underlying store")
	}

	loaded, err := secureStore.Get(ctx, "g1")
	if err != nil {
		t.Fatalf("Get via middleware failed: %v", err)
	}
	if !bytes.Equal(loaded, plaintext) {
		t.Errorf("Expected %s, got %s", plaintext, loaded)
	}
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)

	ctx := context.Background()
	plaintext := []byte("encrypted-with-old-key")

	// Save with the OLD key.
	oldStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlying)
	if err := oldStore.Set(ctx, "g1", plaintext); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Load with the NEW key active and the OLD key as fallback.
	rotated := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlying)

	loaded, err := rotated.Get(ctx, "g1")
	if err != nil {
		t.Fatalf("Get after rotation failed: %v", err)
	}
	if !bytes.Equal(loaded, plaintext) {
		t.Errorf("Expected %s, got %s", plaintext, loaded)
	}

	// Without the fallback the old backup is unreadable.
	newOnly := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: newKey})(underlying)
	if _, err := newOnly.Get(ctx, "g1"); err == nil {
		t.Fatal("Expected decryption to fail without the old key")
	}
}

func TestEncryptionMiddleware_TamperDetection(t *testing.T) {
	underlying := memory.NewStore()
	key := generateKey(t)
	secureStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})(underlying)

	ctx := context.Background()
	if err := secureStore.Set(ctx, "g1", []byte("payload")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	stored, err := underlying.Get(ctx, "g1")
	if err != nil {
		t.Fatalf("Underlying get failed: %v", err)
	}
	tampered := append([]byte(nil), stored...)
	tampered[len(tampered)-1] ^= 0xff
	if err := underlying.Set(ctx, "g1", tampered); err != nil {
		t.Fatalf("Underlying set failed: %v", err)
	}

	if _, err := secureStore.Get(ctx, "g1"); err == nil {
		t.Fatal("Expected GCM to reject tampered ciphertext")
	}
}

func TestEncryptionMiddleware_MissingKeyPassesThrough(t *testing.T) {
	secureStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(memory.NewStore())

	_, err := secureStore.Get(context.Background(), "absent")
	if !errors.Is(err, domain.ErrBackupNotFound) {
		t.Fatalf("Expected ErrBackupNotFound, got %v", err)
	}
}

func TestEncryptionMiddleware_RejectsShortKey(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Expected panic for short key")
		}
	}()
	middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short")})
}
