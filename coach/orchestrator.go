// Package coach runs coaching turns: it builds the prompt, drives the model
// stream, records the outcome and falls back to static advice on failure.
package coach

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/xiaot623/gogo/coach/domain"
	"github.com/xiaot623/gogo/coach/insights"
	"github.com/xiaot623/gogo/coach/llm"
	"github.com/xiaot623/gogo/coach/profile"
	"github.com/xiaot623/gogo/coach/prompt"
	"github.com/xiaot623/gogo/coach/response"
)

// ErrTurnInProgress is returned when a turn is requested while another one
// for the same user is still open.
var ErrTurnInProgress = errors.New("coaching turn already in progress")

// Options tune an Orchestrator.
type Options struct {
	// FallbackMessages overrides the message of the static fallback per session type.
	FallbackMessages map[domain.SessionType]string
	// Now defaults to time.Now.
	Now func() time.Time
}

// Orchestrator drives the coaching turns of one user session. At most one
// turn is open at a time.
type Orchestrator struct {
	userID    string
	profiles  *profile.Store
	streamer  llm.Streamer
	insights  *insights.Generator
	fallbacks map[domain.SessionType]string
	now       func() time.Time

	inFlight atomic.Bool

	mu      sync.RWMutex
	profile *domain.UserProfile
}

// New creates an orchestrator for userID and loads the user's profile.
func New(ctx context.Context, userID string, profiles *profile.Store, streamer llm.Streamer, gen *insights.Generator, opts Options) *Orchestrator {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		userID:    userID,
		profiles:  profiles,
		streamer:  streamer,
		insights:  gen,
		fallbacks: opts.FallbackMessages,
		now:       now,
		profile:   profiles.Load(ctx, userID),
	}
}

// UserID returns the user this orchestrator serves.
func (o *Orchestrator) UserID() string { return o.userID }

// InFlight reports whether a turn is currently open.
func (o *Orchestrator) InFlight() bool { return o.inFlight.Load() }

// Profile returns a copy of the cached profile.
func (o *Orchestrator) Profile() *domain.UserProfile {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.profile.Clone()
}

// Fallback returns the static response for session type t.
func (o *Orchestrator) Fallback(t domain.SessionType) domain.AIResponse {
	return fallbackFor(t, o.fallbacks)
}

// AskCoach runs one coaching turn. The returned sequence yields text chunks as
// they arrive and always ends with exactly one terminal chunk. The sequence
// runs its turn once; ranging it again only yields the fallback. Stream
// failures end in the session type's fallback response. The log entry is
// only written once the model's terminal chunk arrives; a caller that stops
// ranging early commits nothing.
func (o *Orchestrator) AskCoach(ctx context.Context, cc domain.ConversationContext, userInput string) iter.Seq[domain.StreamChunk] {
	cc = cc.WithTimeOfDay(o.now())
	var used atomic.Bool
	return func(yield func(domain.StreamChunk) bool) {
		if !used.CompareAndSwap(false, true) {
			slog.Warn("coaching turn sequence ranged twice", "user_id", o.userID, "session_type", cc.SessionType)
			yield(domain.CompleteChunk(o.Fallback(cc.SessionType)))
			return
		}
		if !o.inFlight.CompareAndSwap(false, true) {
			slog.Warn("rejected coaching turn", "user_id", o.userID, "session_type", cc.SessionType, "error", ErrTurnInProgress)
			yield(domain.CompleteChunk(o.Fallback(cc.SessionType)))
			return
		}
		defer o.inFlight.Store(false)

		turnID := "turn_" + uuid.New().String()[:8]
		startTime := time.Now()
		log := slog.With("user_id", o.userID, "turn_id", turnID, "session_type", cc.SessionType)

		recent, err := o.profiles.RecentHistory(ctx, o.userID, prompt.HistoryLimit)
		if err != nil {
			log.Warn("failed to load recent history", "error", err)
			recent = nil
		}
		text := prompt.Build(cc, recent, o.Profile(), userInput)
		log.Debug("coaching turn started", "prompt_chars", len(text), "history_entries", len(recent))

		fragments := 0
		for chunk, err := range o.streamer.Stream(ctx, text) {
			if err != nil {
				log.Error("coaching stream failed", "fragments", fragments, "latency_ms", time.Since(startTime).Milliseconds(), "error", err)
				yield(domain.CompleteChunk(o.Fallback(cc.SessionType)))
				return
			}

			if !chunk.IsComplete {
				fragments++
				if !yield(chunk) {
					log.Info("coaching turn abandoned", "fragments", fragments)
					return
				}
				continue
			}

			resp := response.Classify("")
			if chunk.FullResponse != nil {
				resp = *chunk.FullResponse
			}
			if strings.TrimSpace(resp.Message) == "" {
				resp.Message = response.DefaultMessage
			}

			entry := domain.ConversationLogEntry{
				ID:           "log_" + uuid.New().String()[:8],
				Timestamp:    o.now(),
				Context:      cc,
				UserInput:    userInput,
				CoachMessage: resp.Message,
			}
			if err := o.profiles.AppendHistory(ctx, o.userID, entry); err != nil {
				log.Error("failed to append conversation log", "error", err)
			}
			log.Info("coaching turn done", "fragments", fragments, "latency_ms", time.Since(startTime).Milliseconds())

			yield(domain.CompleteChunk(resp))
			return
		}

		log.Error("coaching stream ended without a terminal chunk", "fragments", fragments)
		yield(domain.CompleteChunk(o.Fallback(cc.SessionType)))
	}
}

// Ask runs a full turn, passing each text fragment to onChunk, and returns
// the final response.
func (o *Orchestrator) Ask(ctx context.Context, cc domain.ConversationContext, userInput string, onChunk func(string)) domain.AIResponse {
	for chunk := range o.AskCoach(ctx, cc, userInput) {
		if chunk.IsComplete {
			return *chunk.FullResponse
		}
		if onChunk != nil {
			onChunk(chunk.Chunk)
		}
	}
	return o.Fallback(cc.SessionType)
}

// RecordOutcome folds the outcome of a finished focus session into the profile.
func (o *Orchestrator) RecordOutcome(ctx context.Context, completed bool, distractions []string, timeOfDay domain.TimeOfDay) (*domain.UserProfile, error) {
	if timeOfDay == "" {
		timeOfDay = domain.TimeOfDayAt(o.now())
	}
	p, err := o.profiles.RecordOutcome(ctx, o.userID, completed, distractions, timeOfDay)
	if err != nil {
		slog.Error("failed to record outcome", "user_id", o.userID, "error", err)
		return nil, fmt.Errorf("failed to record outcome: %w", err)
	}

	o.mu.Lock()
	o.profile = p
	o.mu.Unlock()
	return p.Clone(), nil
}

// Insights derives insights from historical sessions.
func (o *Orchestrator) Insights(ctx context.Context, sessions []domain.SessionRecord) []string {
	return o.insights.Insights(ctx, sessions)
}

// History returns at most limit of the most recent log entries; limit <= 0 returns all.
func (o *Orchestrator) History(ctx context.Context, limit int) ([]domain.ConversationLogEntry, error) {
	return o.profiles.RecentHistory(ctx, o.userID, limit)
}
