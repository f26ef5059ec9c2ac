package domain

import "time"

// SessionTiming is the elapsed/total pair of the running session, in seconds.
type SessionTiming struct {
	Elapsed int `json:"time_elapsed"`
	Total   int `json:"total_duration"`
}

// Performance summarises the user's recent sessions.
type Performance struct {
	CompletionRate      float64     `json:"completion_rate"`
	AverageDistractions float64     `json:"average_distractions"`
	PreferredTimes      []TimeOfDay `json:"preferred_times,omitempty"`
}

// ConversationContext is the live session state handed to one coaching turn.
// Nil pointers and empty strings mean the field is absent.
type ConversationContext struct {
	SessionType       SessionType    `json:"session_type"`
	CurrentTask       string         `json:"current_task,omitempty"`
	Timing            *SessionTiming `json:"timing,omitempty"`
	DistractionCount  *int           `json:"distraction_count,omitempty"`
	StreakCount       *int           `json:"streak_count,omitempty"`
	RecentPerformance *Performance   `json:"recent_performance,omitempty"`
	TimeOfDay         TimeOfDay      `json:"time_of_day,omitempty"`
}

// WithTimeOfDay returns a copy of c with TimeOfDay derived from now when unset.
func (c ConversationContext) WithTimeOfDay(now time.Time) ConversationContext {
	if c.TimeOfDay == "" {
		c.TimeOfDay = TimeOfDayAt(now)
	}
	return c
}

// ConversationLogEntry records one completed coaching turn.
type ConversationLogEntry struct {
	ID           string              `json:"id"`
	Timestamp    time.Time           `json:"timestamp"`
	Context      ConversationContext `json:"context"`
	UserInput    string              `json:"user_input,omitempty"`
	CoachMessage string              `json:"coach_message"`
}
