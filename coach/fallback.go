package coach

import "github.com/xiaot623/gogo/coach/domain"

var defaultFallbacks = map[domain.SessionType]domain.AIResponse{
	domain.SessionTypeStart: {
		Message:           "Let's make this session count. Pick one clear outcome and give it your full attention until the timer ends.",
		FollowUpQuestions: []string{"What is the one thing you want finished when this session ends?"},
		Suggestions:       []string{"Close the tabs and apps you won't need", "Put your phone out of reach"},
		Encouragement:     "You've got this.",
	},
	domain.SessionTypePause: {
		Message:           "Taking a pause is okay. Note where you stopped so picking it back up is easy.",
		FollowUpQuestions: []string{"What made you pause just now?"},
		Suggestions:       []string{"Write one line about your next step before you step away"},
	},
	domain.SessionTypeDistraction: {
		Message:           "Distractions happen to everyone. Park it and return to your task.",
		FollowUpQuestions: []string{"What pulled your attention away?"},
		Suggestions:       []string{"Jot the distraction down to deal with after the session", "Take one slow breath before you dive back in"},
	},
	domain.SessionTypeCompletion: {
		Message:           "Session complete. Every finished block builds the habit.",
		FollowUpQuestions: []string{"How did that session feel?"},
		Suggestions:       []string{"Take a short break before starting the next one"},
		Encouragement:     "Well done finishing the session!",
	},
	domain.SessionTypeBreak: {
		Message:           "Use this break to actually rest: step away from the screen for a few minutes.",
		FollowUpQuestions: []string{"What will you do to recharge?"},
		Suggestions:       []string{"Stretch, drink some water, or look at something far away"},
	},
	domain.SessionTypeReflection: {
		Message:           "Looking back on your sessions is how you improve them. Notice what helped and what got in the way.",
		FollowUpQuestions: []string{"What went well today, and what would you change tomorrow?"},
		Suggestions:       []string{"Write down one thing to repeat and one thing to avoid"},
	},
}

var genericFallback = domain.AIResponse{
	Message:           "I'm here to help you stay focused. What would you like to work on?",
	FollowUpQuestions: []string{},
	Suggestions:       []string{},
}

// fallbackFor returns a copy of the static response for t, with message
// overridden by overrides[t] when set.
func fallbackFor(t domain.SessionType, overrides map[domain.SessionType]string) domain.AIResponse {
	resp, ok := defaultFallbacks[t]
	if !ok {
		resp = genericFallback
	}
	resp.FollowUpQuestions = append([]string{}, resp.FollowUpQuestions...)
	resp.Suggestions = append([]string{}, resp.Suggestions...)
	if msg := overrides[t]; msg != "" {
		resp.Message = msg
	}
	return resp
}
