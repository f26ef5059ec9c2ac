package domain

import "time"

// AIResponse is the classified output of one coaching turn.
type AIResponse struct {
	Message           string   `json:"message"`
	FollowUpQuestions []string `json:"follow_up_questions"`
	Suggestions       []string `json:"suggestions"`
	Insights          string   `json:"insights,omitempty"`
	Encouragement     string   `json:"encouragement,omitempty"`
}

// StreamChunk is one value of a coaching stream. Non-terminal chunks carry a
// text fragment; the single terminal chunk carries the full response.
type StreamChunk struct {
	Chunk        string      `json:"chunk"`
	IsComplete   bool        `json:"is_complete"`
	FullResponse *AIResponse `json:"full_response,omitempty"`
}

// FragmentChunk returns a non-terminal chunk.
func FragmentChunk(text string) StreamChunk {
	return StreamChunk{Chunk: text}
}

// CompleteChunk returns the terminal chunk for resp.
func CompleteChunk(resp AIResponse) StreamChunk {
	return StreamChunk{IsComplete: true, FullResponse: &resp}
}

// SessionRecord is a historical focus session used for insight generation.
type SessionRecord struct {
	StartTime time.Time `json:"start_time"`
	Completed bool      `json:"completed"`
}
