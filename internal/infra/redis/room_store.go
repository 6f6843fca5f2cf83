package redis

import (
	"context"
	"sync"
	"time"

	"quizroom-service/internal/app"
	"quizroom-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RoomStore is a Redis-aware implementation of app.RoomRegistry.
// Notes:
//   - The authoritative room map stays in-process: rooms hold live connection
//     sinks, which cannot leave the process.
//   - Redis carries best-effort liveness markers per room name, so operators
//     can see which rooms are live and abandoned names expire via TTL.
type RoomStore struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.RWMutex
	rooms  map[string]*app.Room
}

func NewRoomStore(client *redis.Client, ttl time.Duration) *RoomStore {
	return &RoomStore{
		client: client,
		ttl:    ttl,
		rooms:  make(map[string]*app.Room),
	}
}

func (s *RoomStore) Create(name string) (*app.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[name]; ok {
		return nil, domain.ErrRoomExists
	}
	room := app.NewRoom(name)
	s.rooms[name] = room
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(name), "1", s.ttl).Err()
	return room, nil
}

func (s *RoomStore) Get(name string) (*app.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[name]
	return room, ok
}

func (s *RoomStore) Delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[name]; !ok {
		return
	}
	delete(s.rooms, name)
	_ = s.client.Del(context.Background(), s.key(name)).Err()
}

func (s *RoomStore) All() []*app.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*app.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		out = append(out, room)
	}
	return out
}

func (s *RoomStore) key(name string) string {
	return "room:live:" + name
}
