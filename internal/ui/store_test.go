package ui

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	sess := &Session{Username: "admin", Step: StepReview, Transcript: "text"}
	if err := store.Put(ctx, "tok", sess); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := store.Get(ctx, "tok")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Step != StepReview || got.Transcript != "text" {
		t.Fatalf("session mismatch: %#v", got)
	}

	// Mutating the returned session must not leak into the store.
	got.Transcript = "mutated"
	again, err := store.Get(ctx, "tok")
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if again.Transcript != "text" {
		t.Fatalf("store handed out shared state: %q", again.Transcript)
	}
}

func TestMemoryStoreMissingToken(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	sess := &Session{Username: "admin", Step: StepUpload}
	if err := store.Put(ctx, "tok", sess); err != nil {
		t.Fatalf("put: %v", err)
	}
	// Force the deadline into the past; Get must treat the session as gone.
	store.mu.Lock()
	store.sessions["tok"].ExpiresAt = time.Now().Add(-time.Minute)
	store.mu.Unlock()

	if _, err := store.Get(ctx, "tok"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected expired session to be gone, got %v", err)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	if err := store.Put(ctx, "tok", &Session{Username: "admin"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Delete(ctx, "tok"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "tok"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected session removed, got %v", err)
	}
}

func TestSessionReset(t *testing.T) {
	sess := &Session{
		Username:   "admin",
		Step:       StepResult,
		Filename:   "f.txt",
		Transcript: "t",
		SavedID:    7,
	}
	sess.Reset()
	if sess.Step != StepUpload || sess.Filename != "" || sess.Transcript != "" || sess.Result != nil || sess.SavedID != 0 {
		t.Fatalf("reset incomplete: %#v", sess)
	}
	if sess.Username != "admin" {
		t.Fatalf("reset must keep the login")
	}
}

func TestNewSessionTokenUnique(t *testing.T) {
	a, err := newSessionToken()
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	b, err := newSessionToken()
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if a == b {
		t.Fatalf("expected unique tokens")
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
}
