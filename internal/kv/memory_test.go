package kv

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestMemory_PutGetRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewMemory()
	ctx := context.Background()

	if err := store.Put(ctx, "request-1", []byte(`{"order_id":"o-1"}`)); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := store.Get(ctx, "request-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bytes.Equal(got, []byte(`{"order_id":"o-1"}`)) {
		t.Fatalf("unexpected value %q", got)
	}
}

func TestMemory_MissingKey(t *testing.T) {
	t.Parallel()

	store := NewMemory()
	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	t.Parallel()

	store := NewMemory()
	ctx := context.Background()

	if err := store.Put(ctx, "k", []byte("abc")); err != nil {
		t.Fatalf("put: %v", err)
	}

	first, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	first[0] = 'x'

	second, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(second) != "abc" {
		t.Fatalf("stored value mutated: %q", second)
	}
}

func TestMemory_CancelledContext(t *testing.T) {
	t.Parallel()

	store := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.Put(ctx, "k", []byte("v")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := store.Get(ctx, "k"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
