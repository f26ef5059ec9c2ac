// Package domain defines the core domain models for the coaching engine.
package domain

import (
	"fmt"
	"time"
)

// SessionType identifies the moment in a focus session that triggered a coaching turn.
type SessionType string

const (
	SessionTypeStart       SessionType = "start"
	SessionTypePause       SessionType = "pause"
	SessionTypeDistraction SessionType = "distraction"
	SessionTypeCompletion  SessionType = "completion"
	SessionTypeBreak       SessionType = "break"
	SessionTypeReflection  SessionType = "reflection"
)

// SessionTypes lists every valid session type.
var SessionTypes = []SessionType{
	SessionTypeStart,
	SessionTypePause,
	SessionTypeDistraction,
	SessionTypeCompletion,
	SessionTypeBreak,
	SessionTypeReflection,
}

// Valid reports whether t is a known session type.
func (t SessionType) Valid() bool {
	for _, known := range SessionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseSessionType converts s into a SessionType.
func ParseSessionType(s string) (SessionType, error) {
	t := SessionType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown session type %q", s)
	}
	return t, nil
}

// TimeOfDay is a coarse time-of-day bucket.
type TimeOfDay string

const (
	TimeOfDayMorning   TimeOfDay = "morning"
	TimeOfDayAfternoon TimeOfDay = "afternoon"
	TimeOfDayEvening   TimeOfDay = "evening"
)

// TimesOfDay lists the buckets in their tie-break order.
var TimesOfDay = []TimeOfDay{TimeOfDayMorning, TimeOfDayAfternoon, TimeOfDayEvening}

// TimeOfDayAt buckets t by hour: before 12 is morning, 12 to 16 is afternoon,
// 17 onwards is evening.
func TimeOfDayAt(t time.Time) TimeOfDay {
	switch h := t.Hour(); {
	case h < 12:
		return TimeOfDayMorning
	case h < 17:
		return TimeOfDayAfternoon
	default:
		return TimeOfDayEvening
	}
}

// Valid reports whether t is a known bucket.
func (t TimeOfDay) Valid() bool {
	for _, known := range TimesOfDay {
		if t == known {
			return true
		}
	}
	return false
}
