package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Participant is the membership record the coordinator keeps for one joined
// connection. The connection itself is owned by the transport layer; the
// coordinator only references it.
type Participant struct {
	ConnID   string    `json:"id"`
	Username string    `json:"username"`
	RoomName string    `json:"roomName"`
	JoinedAt time.Time `json:"-"`
}

// Quiz is a catalog record: a title and an ordered list of question documents.
// Question documents are opaque JSON: the coordinator forwards them, it never
// interprets them beyond stripping answer-key fields.
type Quiz struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Questions []json.RawMessage `json:"questions"`
}

// DecodedQuestions unmarshals each question document into a generic JSON tree
// suitable for sanitization and relay.
func (q Quiz) DecodedQuestions() ([]any, error) {
	out := make([]any, 0, len(q.Questions))
	for _, raw := range q.Questions {
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

// CanonicalRoomName folds a raw room name to the registry key form. "Test"
// and "TEST" denote the same room.
func CanonicalRoomName(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
