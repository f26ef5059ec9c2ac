package llm

import (
	"log/slog"
	"time"
)

// ModeMock selects the mock streamer.
const ModeMock = "MOCK"

// NewStreamer returns a MockClient when mode is ModeMock and a real Client otherwise.
func NewStreamer(mode, endpoint, apiKey string, timeout time.Duration, params Params) Streamer {
	if mode == ModeMock {
		slog.Info("COACH_MODE=MOCK detected, using mock coaching streamer")
		return NewMockClient()
	}
	return NewClient(endpoint, apiKey, timeout, params)
}
