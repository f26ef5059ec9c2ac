// Package profile persists each user's coaching profile and conversation log
// on top of a key-value store.
package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/xiaot623/gogo/coach/domain"
	"github.com/xiaot623/gogo/coach/store"
)

// Store loads and saves profiles and history. Mutations are serialized.
type Store struct {
	kv store.Store
	mu sync.Mutex
}

// NewStore creates a profile store backed by kv.
func NewStore(kv store.Store) *Store {
	return &Store{kv: kv}
}

const (
	profilePrefix = "profile:"
	historyPrefix = "history:"
)

func profileKey(userID string) string { return profilePrefix + userID }
func historyKey(userID string) string { return historyPrefix + userID }

// Load returns the stored profile for userID. A missing or unreadable
// profile yields the empty default; Load never fails the caller.
func (s *Store) Load(ctx context.Context, userID string) *domain.UserProfile {
	p, err := s.load(ctx, userID)
	if err != nil {
		slog.Warn("failed to load profile, using defaults", "user_id", userID, "error", err)
		return domain.NewUserProfile(userID)
	}
	return p
}

func (s *Store) load(ctx context.Context, userID string) (*domain.UserProfile, error) {
	raw, ok, err := s.kv.Get(ctx, profileKey(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if !ok {
		return domain.NewUserProfile(userID), nil
	}
	var p domain.UserProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	p.UserID = userID
	p.Normalize()
	return &p, nil
}

// Save persists p.
func (s *Store) Save(ctx context.Context, p *domain.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, p)
}

func (s *Store) save(ctx context.Context, p *domain.UserProfile) error {
	if p.UserID == "" {
		return fmt.Errorf("profile has no user id")
	}
	p.Normalize()
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := s.kv.Set(ctx, profileKey(p.UserID), data); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// RecordOutcome unions distractions into the profile and, when completed,
// adds timeOfDay to the best performance times, then persists the result.
func (s *Store) RecordOutcome(ctx context.Context, userID string, completed bool, distractions []string, timeOfDay domain.TimeOfDay) (*domain.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	p.AddDistractions(distractions...)
	if completed {
		p.AddBestTime(timeOfDay)
	}
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// AppendHistory adds entry to the end of the user's conversation log.
func (s *Store) AppendHistory(ctx context.Context, userID string, entry domain.ConversationLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.history(ctx, userID)
	if err != nil {
		return err
	}
	entries = append(entries, entry)
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := s.kv.Set(ctx, historyKey(userID), data); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}

// History returns the full conversation log, oldest first.
func (s *Store) History(ctx context.Context, userID string) ([]domain.ConversationLogEntry, error) {
	return s.history(ctx, userID)
}

// RecentHistory returns at most the last limit entries, oldest first.
func (s *Store) RecentHistory(ctx context.Context, userID string, limit int) ([]domain.ConversationLogEntry, error) {
	entries, err := s.history(ctx, userID)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

func (s *Store) history(ctx context.Context, userID string) ([]domain.ConversationLogEntry, error) {
	raw, ok, err := s.kv.Get(ctx, historyKey(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	if !ok {
		return []domain.ConversationLogEntry{}, nil
	}
	var entries []domain.ConversationLogEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}
	return entries, nil
}

// Delete erases the profile and conversation log of userID.
func (s *Store) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete(ctx, profileKey(userID)); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	if err := s.kv.Delete(ctx, historyKey(userID)); err != nil {
		return fmt.Errorf("failed to delete history: %w", err)
	}
	return nil
}

// Users lists every user with a stored profile or conversation log, sorted.
func (s *Store) Users(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	for _, prefix := range []string{profilePrefix, historyPrefix} {
		keys, err := s.kv.Keys(ctx, prefix)
		if err != nil {
			return nil, fmt.Errorf("failed to list keys: %w", err)
		}
		for _, k := range keys {
			seen[strings.TrimPrefix(k, prefix)] = true
		}
	}

	users := make([]string, 0, len(seen))
	for u := range seen {
		users = append(users, u)
	}
	sort.Strings(users)
	return users, nil
}
