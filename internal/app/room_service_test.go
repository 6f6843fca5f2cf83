package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"quizroom-service/internal/app"
	"quizroom-service/internal/domain"
	"quizroom-service/internal/infra/memory"
)

func TestCreateRoomCanonicalizesAndConflicts(t *testing.T) {
	service := newTestService(60)

	name, err := service.CreateRoom("c1", newSink(), "room1")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if name != "ROOM1" {
		t.Fatalf("expected canonical ROOM1, got %q", name)
	}

	// Any casing of a live name conflicts.
	if _, err := service.CreateRoom("c2", newSink(), "Room1"); !errors.Is(err, domain.ErrRoomExists) {
		t.Fatalf("expected room exists, got %v", err)
	}
	if _, err := service.CreateRoom("c3", newSink(), "ROOM1"); !errors.Is(err, domain.ErrRoomExists) {
		t.Fatalf("expected room exists, got %v", err)
	}
}

func TestCreateRoomRequiresName(t *testing.T) {
	service := newTestService(60)
	if _, err := service.CreateRoom("c1", newSink(), "  "); !errors.Is(err, domain.ErrMissingField) {
		t.Fatalf("expected missing field, got %v", err)
	}
}

func TestJoinRoomValidation(t *testing.T) {
	rooms := memory.NewRoomStore()
	service := app.NewRoomService(rooms, nil, 60)
	if _, err := service.CreateRoom("teacher", newSink(), "room1"); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := service.JoinRoom("c1", newSink(), "", "alice"); !errors.Is(err, domain.ErrMissingField) {
		t.Fatalf("expected missing field for empty room, got %v", err)
	}
	if _, err := service.JoinRoom("c1", newSink(), "ROOM1", ""); !errors.Is(err, domain.ErrMissingField) {
		t.Fatalf("expected missing field for empty username, got %v", err)
	}
	if _, err := service.JoinRoom("c1", newSink(), "NOPE", "alice"); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	// None of the failures may have touched membership.
	room, _ := rooms.Get("ROOM1")
	if room.Size() != 1 {
		t.Fatalf("expected only the creator, got %d members", room.Size())
	}
}

func TestJoinRoomAnnouncesAndReplies(t *testing.T) {
	service := newTestService(60)
	teacher := newSink()
	if _, err := service.CreateRoom("teacher", teacher, "room1"); err != nil {
		t.Fatalf("create: %v", err)
	}

	name, err := service.JoinRoom("student", newSink(), "room1", "student1")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if name != "ROOM1" {
		t.Fatalf("expected ROOM1, got %q", name)
	}

	ev := teacher.next(t)
	if ev.name != app.EventUserJoined {
		t.Fatalf("expected user-joined, got %s", ev.name)
	}
	desc := ev.payload.(app.ParticipantDescriptor)
	if desc.ID != "student" || desc.Username != "student1" {
		t.Fatalf("unexpected descriptor %+v", desc)
	}
}

func TestJoinRoomCapBoundary(t *testing.T) {
	const roomCap = 3
	service := newTestService(roomCap)
	if _, err := service.CreateRoom("teacher", newSink(), "room1"); err != nil {
		t.Fatalf("create: %v", err)
	}

	// The creator holds one slot; exactly roomCap members fit in total.
	for i := 0; i < roomCap-1; i++ {
		id := fmt.Sprintf("s%d", i)
		if _, err := service.JoinRoom(id, newSink(), "room1", id); err != nil {
			t.Fatalf("join %d: %v", i, err)
		}
	}
	if _, err := service.JoinRoom("overflow", newSink(), "room1", "late"); !errors.Is(err, domain.ErrRoomFull) {
		t.Fatalf("expected room full at cap, got %v", err)
	}
}

func TestLaunchTeacherModeSanitizesQuestions(t *testing.T) {
	service := newTestService(60)
	student := newSink()
	if _, err := service.CreateRoom("teacher", newSink(), "room1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := service.JoinRoom("student", student, "room1", "student1"); err != nil {
		t.Fatalf("join: %v", err)
	}

	questions := []any{decodeDoc(t, `{"id": 1, "question": "2+2?", "correctAnswer": "4", "hints": ["even"]}`)}
	if err := service.LaunchQuiz(context.Background(), "teacher", "room1", app.ModeTeacher, "", questions, "Arithmetic"); err != nil {
		t.Fatalf("launch: %v", err)
	}

	ev := student.next(t)
	if ev.name != app.EventLaunchTeacherMode {
		t.Fatalf("expected launch-teacher-mode, got %s", ev.name)
	}
	payload := ev.payload.(app.LaunchPayload)
	if payload.QuizTitle != "Arithmetic" || len(payload.Questions) != 1 {
		t.Fatalf("unexpected launch payload %+v", payload)
	}
	q := payload.Questions[0].(map[string]any)
	if _, present := q["correctAnswer"]; present {
		t.Fatalf("expected correctAnswer stripped, got %v", q)
	}
	if _, present := q["hints"]; present {
		t.Fatalf("expected hints stripped, got %v", q)
	}
	if q["question"] != "2+2?" {
		t.Fatalf("expected question text preserved, got %v", q)
	}
}

func TestLaunchByQuizID(t *testing.T) {
	rooms := memory.NewRoomStore()
	quizzes := memory.NewQuizRepository(memory.NewStaticQuizLoader(map[string]domain.Quiz{
		"quiz-1": {
			ID:    "quiz-1",
			Title: "Geography",
			Questions: []json.RawMessage{
				json.RawMessage(`{"id": 1, "question": "Capital of France?", "correctAnswer": "Paris"}`),
			},
		},
	}), time.Minute)
	service := app.NewRoomService(rooms, quizzes, 60)

	student := newSink()
	if _, err := service.CreateRoom("teacher", newSink(), "room1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := service.JoinRoom("student", student, "room1", "student1"); err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := service.LaunchQuiz(context.Background(), "teacher", "room1", app.ModeStudent, "quiz-1", nil, ""); err != nil {
		t.Fatalf("launch: %v", err)
	}

	ev := student.next(t)
	if ev.name != app.EventLaunchStudentMode {
		t.Fatalf("expected launch-student-mode, got %s", ev.name)
	}
	payload := ev.payload.(app.LaunchPayload)
	if payload.QuizTitle != "Geography" {
		t.Fatalf("expected catalog title, got %q", payload.QuizTitle)
	}
	q := payload.Questions[0].(map[string]any)
	if _, present := q["correctAnswer"]; present {
		t.Fatalf("expected correctAnswer stripped, got %v", q)
	}

	if err := service.LaunchQuiz(context.Background(), "teacher", "room1", app.ModeStudent, "quiz-missing", nil, ""); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}
}

func TestNextQuestionRequiresTeacherMode(t *testing.T) {
	service := newTestService(60)
	student := newSink()
	if _, err := service.CreateRoom("teacher", newSink(), "room1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := service.JoinRoom("student", student, "room1", "student1"); err != nil {
		t.Fatalf("join: %v", err)
	}
	student.drain()

	question := decodeDoc(t, `{"id": 3, "question": "5*5?", "correctAnswer": "25", "explanation": "squares", "hints": ["5 squared"]}`)

	if err := service.NextQuestion("teacher", "room1", question); !errors.Is(err, domain.ErrQuizNotLaunched) {
		t.Fatalf("expected not launched, got %v", err)
	}
	if err := service.LaunchQuiz(context.Background(), "teacher", "room1", app.ModeTeacher, "", []any{question}, "Math"); err != nil {
		t.Fatalf("launch: %v", err)
	}
	if err := service.NextQuestion("teacher", "room1", question); err != nil {
		t.Fatalf("next question: %v", err)
	}

	if ev := student.next(t); ev.name != app.EventLaunchTeacherMode {
		t.Fatalf("expected launch-teacher-mode first, got %s", ev.name)
	}
	ev := student.next(t)
	if ev.name != app.EventNextQuestion {
		t.Fatalf("expected next-question, got %s", ev.name)
	}
	q := ev.payload.(map[string]any)
	for _, field := range []string{"correctAnswer", "explanation", "hints"} {
		if _, present := q[field]; present {
			t.Fatalf("expected %q stripped, got %v", field, q)
		}
	}
	if q["id"] != float64(3) || q["question"] != "5*5?" {
		t.Fatalf("expected structural fields preserved, got %v", q)
	}
}

func TestSubmitAnswerRelaysToRoom(t *testing.T) {
	service := newTestService(60)
	teacher := newSink()
	if _, err := service.CreateRoom("teacher", teacher, "room1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := service.JoinRoom("student", newSink(), "room1", "student1"); err != nil {
		t.Fatalf("join: %v", err)
	}
	teacher.drain() // user-joined

	if err := service.SubmitAnswer("student", "ROOM1", "student1", "answer1", float64(1)); err != nil {
		t.Fatalf("submit: %v", err)
	}

	ev := teacher.next(t)
	if ev.name != app.EventSubmitAnswerRoom {
		t.Fatalf("expected submit-answer-room, got %s", ev.name)
	}
	relay := ev.payload.(app.AnswerRelay)
	if relay.UserID != "student" || relay.Username != "student1" || relay.Answer != "answer1" || relay.QuestionID != float64(1) {
		t.Fatalf("unexpected relay %+v", relay)
	}
}

func TestEndQuizFreesName(t *testing.T) {
	service := newTestService(60)
	student := newSink()
	if _, err := service.CreateRoom("teacher", newSink(), "room1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := service.JoinRoom("student", student, "room1", "student1"); err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := service.EndQuiz("teacher", "room1"); err != nil {
		t.Fatalf("end: %v", err)
	}
	if ev := student.next(t); ev.name != app.EventEndQuiz {
		t.Fatalf("expected end-quiz, got %s", ev.name)
	}

	// Name is freed for reuse.
	if _, err := service.CreateRoom("other", newSink(), "room1"); err != nil {
		t.Fatalf("expected name freed, got %v", err)
	}
}

func TestDisconnectNotifiesOnlyCoMembers(t *testing.T) {
	service := newTestService(60)
	teacher1 := newSink()
	teacher2 := newSink()
	if _, err := service.CreateRoom("t1", teacher1, "room1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := service.CreateRoom("t2", teacher2, "room2"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := service.JoinRoom("student", newSink(), "room1", "student1"); err != nil {
		t.Fatalf("join: %v", err)
	}
	teacher1.drain()

	service.Disconnect("student")

	ev := teacher1.next(t)
	if ev.name != app.EventUserDisconnected {
		t.Fatalf("expected user-disconnected, got %s", ev.name)
	}
	if notice := ev.payload.(app.DisconnectNotice); notice.ID != "student" {
		t.Fatalf("unexpected notice %+v", notice)
	}
	if n := len(teacher2.events()); n != 0 {
		t.Fatalf("expected no cross-room notification, got %d events", n)
	}
}

func TestJoinRacingEndQuizNeverStrandsMembers(t *testing.T) {
	for i := 0; i < 500; i++ {
		rooms := memory.NewRoomStore()
		service := app.NewRoomService(rooms, nil, 60)
		if _, err := service.CreateRoom("teacher", newSink(), "room1"); err != nil {
			t.Fatalf("create: %v", err)
		}
		room, ok := rooms.Get("ROOM1")
		if !ok {
			t.Fatalf("expected room registered")
		}

		var wg sync.WaitGroup
		var joinErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, joinErr = service.JoinRoom("student", newSink(), "room1", "student1")
		}()
		go func() {
			defer wg.Done()
			if err := service.EndQuiz("teacher", "room1"); err != nil {
				t.Errorf("end: %v", err)
			}
		}()
		wg.Wait()

		// Whichever side won, the ended room may not hold a member: a join
		// that lost the race fails with not-found instead of landing in an
		// unregistered room.
		if room.Size() != 0 {
			t.Fatalf("iteration %d: ended room still holds %d member(s), join err=%v", i, room.Size(), joinErr)
		}
		if joinErr != nil && !errors.Is(joinErr, domain.ErrRoomNotFound) {
			t.Fatalf("iteration %d: unexpected join error %v", i, joinErr)
		}
	}
}

func TestRoomSurvivesMemberDisconnect(t *testing.T) {
	rooms := memory.NewRoomStore()
	service := app.NewRoomService(rooms, nil, 60)
	if _, err := service.CreateRoom("teacher", newSink(), "room1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := service.JoinRoom("student", newSink(), "room1", "student1"); err != nil {
		t.Fatalf("join: %v", err)
	}

	service.Disconnect("student")

	room, ok := rooms.Get("ROOM1")
	if !ok {
		t.Fatalf("expected room to survive a member disconnect")
	}
	if room.Size() != 1 {
		t.Fatalf("expected 1 remaining member, got %d", room.Size())
	}
}

func newTestService(maxRoomSize int) *app.RoomService {
	return app.NewRoomService(memory.NewRoomStore(), nil, maxRoomSize)
}

type sinkEvent struct {
	name    string
	payload any
}

// recordingSink captures events for assertions.
type recordingSink struct {
	mu   sync.Mutex
	recv []sinkEvent
}

func newSink() *recordingSink {
	return &recordingSink{}
}

func (s *recordingSink) Send(event string, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recv = append(s.recv, sinkEvent{name: event, payload: payload})
	return nil
}

func (s *recordingSink) next(t *testing.T) sinkEvent {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.recv) == 0 {
		t.Fatalf("expected a recorded event")
	}
	ev := s.recv[0]
	s.recv = s.recv[1:]
	return ev
}

func (s *recordingSink) drain() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recv = nil
}

func (s *recordingSink) events() []sinkEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sinkEvent(nil), s.recv...)
}

func decodeDoc(t *testing.T, raw string) any {
	t.Helper()
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return doc
}
