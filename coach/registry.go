package coach

import (
	"context"
	"fmt"
	"sync"

	"github.com/xiaot623/gogo/coach/insights"
	"github.com/xiaot623/gogo/coach/llm"
	"github.com/xiaot623/gogo/coach/profile"
)

// Registry hands out one Orchestrator per user.
type Registry struct {
	profiles *profile.Store
	streamer llm.Streamer
	insights *insights.Generator
	opts     Options

	mu       sync.Mutex
	sessions map[string]*Orchestrator
}

// NewRegistry creates a registry sharing the given dependencies across users.
func NewRegistry(profiles *profile.Store, streamer llm.Streamer, gen *insights.Generator, opts Options) *Registry {
	return &Registry{
		profiles: profiles,
		streamer: streamer,
		insights: gen,
		opts:     opts,
		sessions: make(map[string]*Orchestrator),
	}
}

// Get returns the orchestrator for userID, creating it on first use.
func (r *Registry) Get(ctx context.Context, userID string) *Orchestrator {
	r.mu.Lock()
	defer r.mu.Unlock()

	if o, ok := r.sessions[userID]; ok {
		return o
	}
	o := New(ctx, userID, r.profiles, r.streamer, r.insights, r.opts)
	r.sessions[userID] = o
	return o
}

// End drops the orchestrator for userID; the next Get reloads the profile.
func (r *Registry) End(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, userID)
}

// Reset erases the stored profile and history of userID and drops its cached
// session. It refuses while a turn for userID is open.
func (r *Registry) Reset(ctx context.Context, userID string) error {
	r.mu.Lock()
	o, ok := r.sessions[userID]
	r.mu.Unlock()
	if ok && o.InFlight() {
		return ErrTurnInProgress
	}

	if err := r.profiles.Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to reset user %s: %w", userID, err)
	}
	r.End(userID)
	return nil
}

// Users lists every user with stored coaching data.
func (r *Registry) Users(ctx context.Context) ([]string, error) {
	return r.profiles.Users(ctx)
}

// Insights derives insights without needing a user session.
func (r *Registry) Insights() *insights.Generator {
	return r.insights
}
