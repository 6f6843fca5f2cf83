package app

import (
	"context"
	"fmt"
	"log"

	"quizroom-service/internal/domain"
)

// RoomRegistry abstracts how live rooms are tracked (in-memory, Redis-marked).
type RoomRegistry interface {
	// Create registers a room under a canonical name. It fails with
	// domain.ErrRoomExists while the name is live.
	Create(name string) (*Room, error)
	Get(name string) (*Room, bool)
	Delete(name string)
	All() []*Room
}

// QuizRepository loads quiz content (from cache/backing store) for
// launch-by-id.
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// LaunchMode selects which quiz-progression protocol a launch starts.
type LaunchMode int

const (
	// ModeTeacher is teacher-paced: questions are pushed one at a time.
	ModeTeacher LaunchMode = iota
	// ModeStudent is self-paced: the full list is delivered up front.
	ModeStudent
)

// RoomService coordinates room lifecycle and event fan-out. It owns no
// connections; transports hand it an EventSink per connection and it routes
// room-scoped events through those sinks.
type RoomService struct {
	rooms       RoomRegistry
	quizzes     QuizRepository
	maxRoomSize int
}

func NewRoomService(rooms RoomRegistry, quizzes QuizRepository, maxRoomSize int) *RoomService {
	return &RoomService{rooms: rooms, quizzes: quizzes, maxRoomSize: maxRoomSize}
}

// CreateRoom registers a room under the canonical form of rawName and joins
// the creating connection as its first member.
func (s *RoomService) CreateRoom(connID string, sink EventSink, rawName string) (string, error) {
	name := domain.CanonicalRoomName(rawName)
	if name == "" {
		return "", domain.ErrMissingField
	}
	room, err := s.rooms.Create(name)
	if err != nil {
		return "", err
	}
	if err := room.addMember(connID, "", sink); err != nil {
		return "", err
	}
	log.Printf("room %s created by %s", name, connID)
	return name, nil
}

// JoinRoom adds a connection to an existing room, announces it to the rest of
// the room, and returns the canonical name for the join-success reply.
func (s *RoomService) JoinRoom(connID string, sink EventSink, rawName, username string) (string, error) {
	if rawName == "" || username == "" {
		return "", domain.ErrMissingField
	}
	name := domain.CanonicalRoomName(rawName)
	room, ok := s.rooms.Get(name)
	if !ok {
		return "", domain.ErrRoomNotFound
	}
	if err := room.join(connID, username, sink, s.maxRoomSize); err != nil {
		return "", err
	}
	room.broadcastExcept(connID, EventUserJoined, ParticipantDescriptor{ID: connID, Username: username})
	return name, nil
}

// LaunchQuiz starts a quiz in the given mode and relays the sanitized
// question list to everyone but the launcher. Questions may be supplied
// inline; when absent, quizID is resolved through the catalog.
func (s *RoomService) LaunchQuiz(ctx context.Context, connID, rawName string, mode LaunchMode, quizID string, questions []any, title string) error {
	room, ok := s.rooms.Get(domain.CanonicalRoomName(rawName))
	if !ok {
		return domain.ErrRoomNotFound
	}

	if len(questions) == 0 && quizID != "" {
		if s.quizzes == nil {
			return domain.ErrQuizNotFound
		}
		quiz, err := s.quizzes.GetQuiz(ctx, quizID)
		if err != nil {
			return err
		}
		decoded, err := quiz.DecodedQuestions()
		if err != nil {
			return fmt.Errorf("decode quiz %s: %w", quizID, err)
		}
		questions = decoded
		if title == "" {
			title = quiz.Title
		}
	}

	event := EventLaunchTeacherMode
	state := StateTeacherMode
	if mode == ModeStudent {
		event = EventLaunchStudentMode
		state = StateStudentMode
	}
	room.setState(state)
	room.broadcastExcept(connID, event, LaunchPayload{
		Questions: domain.SanitizeQuestions(questions),
		QuizTitle: title,
	})
	return nil
}

// NextQuestion relays one sanitized question to the rest of the room. The
// teacher client is authoritative for progression order; the coordinator does
// no index bookkeeping. It is only legal once teacher mode is running.
func (s *RoomService) NextQuestion(connID, rawName string, question any) error {
	room, ok := s.rooms.Get(domain.CanonicalRoomName(rawName))
	if !ok {
		return domain.ErrRoomNotFound
	}
	if room.State() != StateTeacherMode {
		return domain.ErrQuizNotLaunched
	}
	room.broadcastExcept(connID, EventNextQuestion, domain.SanitizeQuestion(question))
	return nil
}

// SubmitAnswer relays an answer to the rest of the room, annotated with the
// sender's connection id. The coordinator never validates or scores answers.
func (s *RoomService) SubmitAnswer(connID, rawName, username string, answer, questionID any) error {
	room, ok := s.rooms.Get(domain.CanonicalRoomName(rawName))
	if !ok {
		return domain.ErrRoomNotFound
	}
	room.broadcastExcept(connID, EventSubmitAnswerRoom, AnswerRelay{
		UserID:     connID,
		Username:   username,
		Answer:     answer,
		QuestionID: questionID,
	})
	return nil
}

// EndQuiz notifies the rest of the room, clears membership, and frees the
// canonical name for reuse.
func (s *RoomService) EndQuiz(connID, rawName string) error {
	name := domain.CanonicalRoomName(rawName)
	room, ok := s.rooms.Get(name)
	if !ok {
		return domain.ErrRoomNotFound
	}
	room.broadcastExcept(connID, EventEndQuiz, nil)
	room.end()
	s.rooms.Delete(name)
	log.Printf("room %s ended by %s", name, connID)
	return nil
}

// Disconnect removes the connection from every room it belongs to and tells
// the remaining members of those rooms. Rooms survive member disconnects;
// only EndQuiz frees a name.
func (s *RoomService) Disconnect(connID string) {
	for _, room := range s.rooms.All() {
		if room.removeMember(connID) {
			room.broadcastExcept(connID, EventUserDisconnected, DisconnectNotice{ID: connID})
		}
	}
}
