package domain

import "errors"

var (
	// ErrRoomExists is returned when a create-room names a room that is already live.
	ErrRoomExists = errors.New("a room with this name already exists")
	// ErrRoomNotFound is returned when an event targets a room that is not registered.
	ErrRoomNotFound = errors.New("room not found")
	// ErrRoomFull is returned when a join would push membership past the per-room cap.
	ErrRoomFull = errors.New("room is full")
	// ErrMissingField is returned when a room name or username is empty.
	ErrMissingField = errors.New("a required field is missing")
	// ErrServerFull is returned when the process-wide connection ceiling is reached.
	ErrServerFull = errors.New("server is at capacity, try again later")
	// ErrQuizNotFound indicates the quiz content could not be loaded from the catalog.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuizNotLaunched is returned when next-question arrives before launch-teacher-mode.
	ErrQuizNotLaunched = errors.New("quiz has not been launched in teacher mode")
)
