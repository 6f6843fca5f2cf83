package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"sync"

	"quizroom-service/internal/app"
	"quizroom-service/internal/domain"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service  *app.RoomService
	governor *app.ConnGovernor
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.RoomService, governor *app.ConnGovernor) *WSHandler {
	return &WSHandler{
		service:  service,
		governor: governor,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type joinRoomPayload struct {
	EnteredRoomName string `json:"enteredRoomName"`
	Username        string `json:"username"`
}

type launchPayload struct {
	RoomName  string `json:"roomName"`
	QuizID    string `json:"quizId"`
	Questions []any  `json:"questions"`
	QuizTitle string `json:"quizTitle"`
}

type nextQuestionPayload struct {
	RoomName string `json:"roomName"`
	Question any    `json:"question"`
}

type submitAnswerPayload struct {
	RoomName   string `json:"roomName"`
	Username   string `json:"username"`
	Answer     any    `json:"answer"`
	QuestionID any    `json:"idQuestion"`
}

type roomOnlyPayload struct {
	RoomName string `json:"roomName"`
}

var errSinkClosed = errors.New("connection sink closed")

// connSink adapts a websocket connection's write channel to app.EventSink.
// Sends never block. A connection whose buffer fills has stopped draining its
// own replies, so the sink drops the whole connection rather than the event:
// the reader loop then unwinds and peers get the usual disconnect notice.
type connSink struct {
	conn   io.Closer
	mu     sync.Mutex
	closed bool
	send   chan outboundMessage[any]
}

func newConnSink(conn io.Closer, buffer int) *connSink {
	return &connSink{conn: conn, send: make(chan outboundMessage[any], buffer)}
}

func (s *connSink) Send(event string, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errSinkClosed
	}
	select {
	case s.send <- outboundMessage[any]{Type: event, Payload: payload}:
		return nil
	default:
	}
	s.closed = true
	close(s.send)
	_ = s.conn.Close()
	return errSinkClosed
}

func (s *connSink) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.send)
	}
}

// ServeWS upgrades HTTP requests to websockets and routes the event protocol
// into the room coordinator.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	total, ok := h.governor.Admit()
	if !ok {
		log.Printf("connection rejected at ceiling (%d live)", total)
		_ = conn.WriteJSON(outboundMessage[errorPayload]{
			Type:    app.EventJoinFailure,
			Payload: errorPayload{Message: domain.ErrServerFull.Error()},
		})
		return
	}

	connID := uuid.NewString()
	log.Printf("connection %s admitted (%d live)", connID, total)

	sink := newConnSink(conn, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range sink.send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(r.Context(), connID, sink, inbound)
	}

	h.service.Disconnect(connID)
	remaining := h.governor.Release()
	log.Printf("connection %s closed (%d live)", connID, remaining)

	sink.close()
	<-writerDone
}

// dispatch validates each event's payload at the boundary and maps it to a
// coordinator operation. Malformed payloads never reach the registry.
func (h *WSHandler) dispatch(ctx context.Context, connID string, sink app.EventSink, msg inboundMessage) {
	switch msg.Type {
	case app.EventCreateRoom:
		name, err := decodeRoomName(msg.Payload)
		if err != nil {
			_ = sink.Send(app.EventError, errorPayload{Message: "invalid create-room payload"})
			return
		}
		canonical, err := h.service.CreateRoom(connID, sink, name)
		if err != nil {
			_ = sink.Send(app.EventCreateFailure, errorPayload{Message: err.Error()})
			return
		}
		_ = sink.Send(app.EventCreateSuccess, canonical)

	case app.EventJoinRoom:
		var payload joinRoomPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			_ = sink.Send(app.EventError, errorPayload{Message: "invalid join-room payload"})
			return
		}
		canonical, err := h.service.JoinRoom(connID, sink, payload.EnteredRoomName, payload.Username)
		if err != nil {
			_ = sink.Send(app.EventJoinFailure, errorPayload{Message: err.Error()})
			return
		}
		_ = sink.Send(app.EventJoinSuccess, canonical)

	case app.EventLaunchTeacherMode, app.EventLaunchStudentMode:
		var payload launchPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			_ = sink.Send(app.EventError, errorPayload{Message: "invalid launch payload"})
			return
		}
		mode := app.ModeTeacher
		if msg.Type == app.EventLaunchStudentMode {
			mode = app.ModeStudent
		}
		if err := h.service.LaunchQuiz(ctx, connID, payload.RoomName, mode, payload.QuizID, payload.Questions, payload.QuizTitle); err != nil {
			_ = sink.Send(app.EventError, errorPayload{Message: err.Error()})
		}

	case app.EventNextQuestion:
		var payload nextQuestionPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			_ = sink.Send(app.EventError, errorPayload{Message: "invalid next-question payload"})
			return
		}
		if err := h.service.NextQuestion(connID, payload.RoomName, payload.Question); err != nil {
			_ = sink.Send(app.EventError, errorPayload{Message: err.Error()})
		}

	case app.EventSubmitAnswer:
		var payload submitAnswerPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			_ = sink.Send(app.EventError, errorPayload{Message: "invalid submit-answer payload"})
			return
		}
		if err := h.service.SubmitAnswer(connID, payload.RoomName, payload.Username, payload.Answer, payload.QuestionID); err != nil {
			_ = sink.Send(app.EventError, errorPayload{Message: err.Error()})
		}

	case app.EventEndQuiz:
		var payload roomOnlyPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			_ = sink.Send(app.EventError, errorPayload{Message: "invalid end-quiz payload"})
			return
		}
		if err := h.service.EndQuiz(connID, payload.RoomName); err != nil {
			_ = sink.Send(app.EventError, errorPayload{Message: err.Error()})
		}

	default:
		_ = sink.Send(app.EventError, errorPayload{Message: "unsupported message type"})
	}
}

// decodeRoomName accepts the bare-string form of create-room and the object
// form some clients send.
func decodeRoomName(raw json.RawMessage) (string, error) {
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return name, nil
	}
	var payload roomOnlyPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", err
	}
	return payload.RoomName, nil
}
