package app

import (
	"sync"
	"time"

	"quizroom-service/internal/domain"
)

// RoomState tracks where a room is in the quiz lifecycle. A room leaves the
// registry entirely when it ends, so there is no terminal state value.
type RoomState int

const (
	StateCreated RoomState = iota
	StateTeacherMode
	StateStudentMode
)

type member struct {
	id       string
	username string
	joinedAt time.Time
	sink     EventSink
}

// Room is the live membership set for one canonical room name. All mutation
// happens under the room mutex; broadcasts iterate a snapshot taken under the
// lock so a disconnect during fan-out cannot invalidate the iteration.
type Room struct {
	name      string
	createdAt time.Time
	now       func() time.Time

	mu      sync.RWMutex
	state   RoomState
	ended   bool
	members map[string]*member
}

func NewRoom(name string) *Room {
	return newRoomWithClock(name, time.Now)
}

// newRoomWithClock allows deterministic timestamps in tests.
func newRoomWithClock(name string, now func() time.Time) *Room {
	return &Room{
		name:      name,
		createdAt: now(),
		now:       now,
		state:     StateCreated,
		members:   make(map[string]*member),
	}
}

// Name returns the canonical room name.
func (r *Room) Name() string { return r.name }

// State reports the room's lifecycle state.
func (r *Room) State() RoomState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Size reports current membership.
func (r *Room) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// IsEmpty reports whether the room has no members.
func (r *Room) IsEmpty() bool {
	return r.Size() == 0
}

func (r *Room) setState(s RoomState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = s
}

// addMember inserts or refreshes a member without a capacity check; used for
// the creating connection, which always fits in a fresh room. It fails once
// the room has ended, so a creator racing an end-quiz cannot land in an
// unregistered room.
func (r *Room) addMember(id, username string, sink EventSink) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ended {
		return domain.ErrRoomNotFound
	}
	r.members[id] = &member{id: id, username: username, joinedAt: r.now(), sink: sink}
	return nil
}

// join adds a member if the room is below cap. The ended check, the capacity
// check, and the insert are one critical section: a join racing an end-quiz
// on a stale room handle fails instead of stranding a member, and concurrent
// joins cannot overshoot the cap.
func (r *Room) join(id, username string, sink EventSink, capacity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ended {
		return domain.ErrRoomNotFound
	}
	if len(r.members) >= capacity {
		return domain.ErrRoomFull
	}
	r.members[id] = &member{id: id, username: username, joinedAt: r.now(), sink: sink}
	return nil
}

// removeMember deletes a member and reports whether it was present.
func (r *Room) removeMember(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[id]; !ok {
		return false
	}
	delete(r.members, id)
	return true
}

// end drops all membership and marks the room terminal; later joins through
// a stale handle fail. The registry frees the name separately.
func (r *Room) end() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ended = true
	r.members = make(map[string]*member)
}

// Participants returns a snapshot of the membership as domain records.
func (r *Room) Participants() []domain.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Participant, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, domain.Participant{
			ConnID:   m.id,
			Username: m.username,
			RoomName: r.name,
			JoinedAt: m.joinedAt,
		})
	}
	return out
}

func (r *Room) snapshotExcept(senderID string) []EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sinks := make([]EventSink, 0, len(r.members))
	for id, m := range r.members {
		if id == senderID {
			continue
		}
		sinks = append(sinks, m.sink)
	}
	return sinks
}

// broadcastExcept fans an event out to every member but the sender. Sends are
// fire-and-forget: a dead or slow recipient is dropped silently.
func (r *Room) broadcastExcept(senderID, event string, payload any) {
	for _, sink := range r.snapshotExcept(senderID) {
		_ = sink.Send(event, payload)
	}
}
