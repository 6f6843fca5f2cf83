package redis

import (
	"errors"
	"testing"
	"time"

	"quizroom-service/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRoomStoreSetsAndClearsLivenessKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRoomStore(client, time.Minute)

	if _, err := store.Create("ROOM1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !mr.Exists("room:live:ROOM1") {
		t.Fatalf("expected liveness key to be set")
	}

	if _, err := store.Create("ROOM1"); !errors.Is(err, domain.ErrRoomExists) {
		t.Fatalf("expected conflict, got %v", err)
	}

	store.Delete("ROOM1")
	if mr.Exists("room:live:ROOM1") {
		t.Fatalf("expected liveness key to be removed")
	}
	if _, ok := store.Get("ROOM1"); ok {
		t.Fatalf("expected room removed from local map")
	}
}

func TestRoomStoreAllSnapshots(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRoomStore(client, time.Minute)

	if _, err := store.Create("ROOM1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.Create("ROOM2"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := len(store.All()); got != 2 {
		t.Fatalf("expected 2 rooms, got %d", got)
	}
}
