package domain

// sensitiveQuestionFields lists the answer-key and scoring fields that must
// never reach a participant's client, at any nesting depth.
var sensitiveQuestionFields = map[string]struct{}{
	"correctAnswer": {},
	"explanation":   {},
	"hints":         {},
	"isCorrect":     {},
	"weight":        {},
	"metadata":      {},
	"grading":       {},
	"number":        {},
	"range":         {},
}

// SanitizeQuestion returns a deep copy of a decoded JSON question document
// with every sensitive field removed. Scalars and non-object payloads pass
// through unchanged.
func SanitizeQuestion(doc any) any {
	switch v := doc.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			if _, hidden := sensitiveQuestionFields[key]; hidden {
				continue
			}
			out[key] = SanitizeQuestion(val)
		}
		return out
	case []any:
		out := make([]any, 0, len(v))
		for _, item := range v {
			out = append(out, SanitizeQuestion(item))
		}
		return out
	default:
		return v
	}
}

// SanitizeQuestions sanitizes an ordered question list, preserving order.
func SanitizeQuestions(docs []any) []any {
	out := make([]any, 0, len(docs))
	for _, doc := range docs {
		out = append(out, SanitizeQuestion(doc))
	}
	return out
}
