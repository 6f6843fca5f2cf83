package app

// Event names on the coordinator wire. Inbound names double as outbound names
// for the relayed gameplay events.
const (
	EventCreateRoom        = "create-room"
	EventJoinRoom          = "join-room"
	EventSubmitAnswer      = "submit-answer"
	EventCreateSuccess     = "create-success"
	EventCreateFailure     = "create-failure"
	EventJoinSuccess       = "join-success"
	EventJoinFailure       = "join-failure"
	EventUserJoined        = "user-joined"
	EventUserDisconnected  = "user-disconnected"
	EventNextQuestion      = "next-question"
	EventLaunchTeacherMode = "launch-teacher-mode"
	EventLaunchStudentMode = "launch-student-mode"
	EventSubmitAnswerRoom  = "submit-answer-room"
	EventEndQuiz           = "end-quiz"
	EventError             = "error"
)

// EventSink delivers one named event to a single connection. Delivery is
// best-effort: implementations must not block, and errors are advisory.
type EventSink interface {
	Send(event string, payload any) error
}

// ParticipantDescriptor announces a joiner to the rest of a room.
type ParticipantDescriptor struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// DisconnectNotice announces that a connection dropped.
type DisconnectNotice struct {
	ID string `json:"id"`
}

// LaunchPayload carries the sanitized question list relayed on launch.
type LaunchPayload struct {
	Questions []any  `json:"questions"`
	QuizTitle string `json:"quizTitle"`
}

// AnswerRelay annotates a relayed answer with the sender's identity.
type AnswerRelay struct {
	UserID     string `json:"idUser"`
	Username   string `json:"username"`
	Answer     any    `json:"answer"`
	QuestionID any    `json:"idQuestion"`
}
