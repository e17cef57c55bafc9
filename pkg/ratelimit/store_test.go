package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStore_LoadSave(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Load(ctx, "missing"); !errors.Is(err, ErrNoState) {
		t.Fatalf("Load() error = %v, want ErrNoState", err)
	}

	state := &ThrottleState{MaximumAvailable: 2000, CurrentlyAvailable: 1800, RestoreRate: 100}
	if err := store.Save(ctx, "key", state, 0); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// Mutating the original must not change the stored copy.
	state.CurrentlyAvailable = 0

	got, err := store.Load(ctx, "key")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.CurrentlyAvailable != 1800 {
		t.Errorf("CurrentlyAvailable = %v, want 1800", got.CurrentlyAvailable)
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	if err := store.Save(ctx, "key", &ThrottleState{MaximumAvailable: 1000}, time.Minute); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	now = now.Add(30 * time.Second)
	if _, err := store.Load(ctx, "key"); err != nil {
		t.Fatalf("Load() before expiry error = %v", err)
	}

	now = now.Add(time.Minute)
	if _, err := store.Load(ctx, "key"); !errors.Is(err, ErrNoState) {
		t.Errorf("Load() after expiry error = %v, want ErrNoState", err)
	}
}

func TestMemoryStore_SaveNil(t *testing.T) {
	if err := NewMemoryStore().Save(context.Background(), "key", nil, 0); err == nil {
		t.Error("Save(nil) should fail")
	}
}

func TestNewRedisStore_NilPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewRedisStore(nil) should panic")
		}
	}()
	NewRedisStore(nil)
}
