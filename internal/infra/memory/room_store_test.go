package memory

import (
	"errors"
	"testing"

	"quizroom-service/internal/domain"
)

func TestRoomStoreLifecycle(t *testing.T) {
	store := NewRoomStore()

	room, err := store.Create("ROOM1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if room.Name() != "ROOM1" {
		t.Fatalf("expected ROOM1, got %q", room.Name())
	}

	if _, err := store.Create("ROOM1"); !errors.Is(err, domain.ErrRoomExists) {
		t.Fatalf("expected conflict for live name, got %v", err)
	}
	if _, ok := store.Get("ROOM1"); !ok {
		t.Fatalf("expected room present")
	}

	store.Delete("ROOM1")
	if _, ok := store.Get("ROOM1"); ok {
		t.Fatalf("expected room removed")
	}
	if _, err := store.Create("ROOM1"); err != nil {
		t.Fatalf("expected name freed after delete, got %v", err)
	}
}

func TestRoomStoreAll(t *testing.T) {
	store := NewRoomStore()
	if _, err := store.Create("A"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.Create("B"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := len(store.All()); got != 2 {
		t.Fatalf("expected 2 rooms, got %d", got)
	}
}
