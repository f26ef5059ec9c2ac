package domain

// UserProfile is the learned coaching profile of one user.
// CommonDistractions and BestPerformanceTimes only ever grow.
type UserProfile struct {
	UserID                  string         `json:"user_id"`
	FocusPatterns           map[string]any `json:"focus_patterns"`
	CommonDistractions      []string       `json:"common_distractions"`
	BestPerformanceTimes    []TimeOfDay    `json:"best_performance_times"`
	MotivationalPreferences []string       `json:"motivational_preferences"`
	PersonalityInsights     []string       `json:"personality_insights"`
}

// NewUserProfile returns the all-empty default profile for userID.
func NewUserProfile(userID string) *UserProfile {
	return &UserProfile{
		UserID:                  userID,
		FocusPatterns:           map[string]any{},
		CommonDistractions:      []string{},
		BestPerformanceTimes:    []TimeOfDay{},
		MotivationalPreferences: []string{},
		PersonalityInsights:     []string{},
	}
}

// Normalize replaces nil collections with empty ones so the profile always
// serializes with every field present.
func (p *UserProfile) Normalize() {
	if p.FocusPatterns == nil {
		p.FocusPatterns = map[string]any{}
	}
	if p.CommonDistractions == nil {
		p.CommonDistractions = []string{}
	}
	if p.BestPerformanceTimes == nil {
		p.BestPerformanceTimes = []TimeOfDay{}
	}
	if p.MotivationalPreferences == nil {
		p.MotivationalPreferences = []string{}
	}
	if p.PersonalityInsights == nil {
		p.PersonalityInsights = []string{}
	}
}

// AddDistractions unions distractions into CommonDistractions, preserving
// first-seen order. It reports whether anything was added.
func (p *UserProfile) AddDistractions(distractions ...string) bool {
	added := false
	for _, d := range distractions {
		if d == "" || contains(p.CommonDistractions, d) {
			continue
		}
		p.CommonDistractions = append(p.CommonDistractions, d)
		added = true
	}
	return added
}

// AddBestTime unions t into BestPerformanceTimes. It reports whether t was new.
func (p *UserProfile) AddBestTime(t TimeOfDay) bool {
	if t == "" || contains(p.BestPerformanceTimes, t) {
		return false
	}
	p.BestPerformanceTimes = append(p.BestPerformanceTimes, t)
	return true
}

// Clone returns a deep copy of the collection fields.
func (p *UserProfile) Clone() *UserProfile {
	c := *p
	c.FocusPatterns = make(map[string]any, len(p.FocusPatterns))
	for k, v := range p.FocusPatterns {
		c.FocusPatterns[k] = v
	}
	c.CommonDistractions = append([]string{}, p.CommonDistractions...)
	c.BestPerformanceTimes = append([]TimeOfDay{}, p.BestPerformanceTimes...)
	c.MotivationalPreferences = append([]string{}, p.MotivationalPreferences...)
	c.PersonalityInsights = append([]string{}, p.PersonalityInsights...)
	return &c
}

func contains[T comparable](s []T, v T) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
