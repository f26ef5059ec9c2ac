package llm

import (
	"context"
	"iter"
	"strings"
	"sync/atomic"

	"github.com/xiaot623/gogo/coach/domain"
	"github.com/xiaot623/gogo/coach/response"
)

// MockClient streams canned coaching text without any network access.
type MockClient struct {
	chunkSize int
}

// NewMockClient creates a new mock streaming client.
func NewMockClient() *MockClient {
	return &MockClient{chunkSize: 12}
}

// Ensure MockClient implements Streamer interface.
var _ Streamer = (*MockClient)(nil)

var mockResponses = map[domain.SessionType]string{
	domain.SessionTypeStart:       "[MOCK] Let's set up this session for success.\n- Try writing down the single outcome you want.\n- Silence notifications for the next block.\nWhat is the first small step?",
	domain.SessionTypePause:       "[MOCK] Pausing is fine when it is intentional.\n- Try noting where you stopped so restarting is easy.\nWhat made you pause?",
	domain.SessionTypeDistraction: "[MOCK] Distractions happen to everyone.\n- Try jotting the distraction down and returning to it later.\nWhat pulled you away?",
	domain.SessionTypeCompletion:  "[MOCK] Great work finishing the session!\n- Try a short stretch before the next block.\nHow did that session feel?",
	domain.SessionTypeBreak:       "[MOCK] Breaks are part of deep work.\n- Try stepping away from the screen.\nWhat will you do to recharge?",
	domain.SessionTypeReflection:  "[MOCK] Reflection turns effort into progress.\nOne pattern worth watching is when your focus fades.\nWhat went well today?",
}

// Stream yields a canned response for the session type named in prompt.
func (m *MockClient) Stream(ctx context.Context, prompt string) iter.Seq2[domain.StreamChunk, error] {
	var used atomic.Bool
	return func(yield func(domain.StreamChunk, error) bool) {
		if !used.CompareAndSwap(false, true) {
			yield(domain.StreamChunk{}, ErrStreamConsumed)
			return
		}

		text := m.generateMockResponse(prompt)
		for _, chunk := range splitIntoChunks(text, m.chunkSize) {
			if err := ctx.Err(); err != nil {
				yield(domain.StreamChunk{}, err)
				return
			}
			if !yield(domain.FragmentChunk(chunk), nil) {
				return
			}
		}
		yield(domain.CompleteChunk(response.Classify(text)), nil)
	}
}

// generateMockResponse picks the canned text for the "Session type:" line of prompt.
func (m *MockClient) generateMockResponse(prompt string) string {
	for _, line := range strings.Split(prompt, "\n") {
		_, value, ok := strings.Cut(line, "Session type: ")
		if !ok {
			continue
		}
		if text, ok := mockResponses[domain.SessionType(strings.TrimSpace(value))]; ok {
			return text
		}
	}
	return "[MOCK] This is a mock coaching response."
}

// splitIntoChunks splits a string into chunks of approximately the given size.
func splitIntoChunks(s string, chunkSize int) []string {
	runes := []rune(s)
	var chunks []string
	for i := 0; i < len(runes); i += chunkSize {
		end := min(i+chunkSize, len(runes))
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}
