// Package prompt renders the coaching prompt from session state, recent
// conversation and the stored user profile.
package prompt

import (
	"fmt"
	"strings"

	"github.com/xiaot623/gogo/coach/domain"
)

// HistoryLimit is the number of most recent log entries rendered into a prompt.
const HistoryLimit = 10

const preamble = `You are an AI productivity coach inside a focus app that combines task lists, a Pomodoro-style timer, a journal and a calendar.
You help the user start, protect and finish focused work sessions. Be warm, specific and practical.`

const instructions = `Respond comprehensively in 150-300 words.
Structure the answer: open with a short assessment of where the user is, then give 3-6 actionable bullet points, then close with one follow-up question.
Put each bullet point, question and piece of encouragement on its own line.`

// Build renders the prompt for one coaching turn. Fields absent from cc are
// omitted entirely, and only the last HistoryLimit entries of recent are used.
func Build(cc domain.ConversationContext, recent []domain.ConversationLogEntry, profile *domain.UserProfile, userInput string) string {
	var b strings.Builder
	b.WriteString(preamble)
	b.WriteString("\n\n")

	writeSession(&b, cc)
	writeProfile(&b, profile)
	writeTranscript(&b, recent)

	if input := strings.TrimSpace(userInput); input != "" {
		fmt.Fprintf(&b, "User says: %q\n\n", input)
	}

	b.WriteString(instructions)
	return b.String()
}

func writeSession(b *strings.Builder, cc domain.ConversationContext) {
	b.WriteString("Current session:\n")
	fmt.Fprintf(b, "- Session type: %s\n", cc.SessionType)
	if cc.CurrentTask != "" {
		fmt.Fprintf(b, "- Current task: %s\n", cc.CurrentTask)
	}
	if cc.Timing != nil {
		fmt.Fprintf(b, "- Progress: %s of %s\n", formatSeconds(cc.Timing.Elapsed), formatSeconds(cc.Timing.Total))
	}
	if cc.DistractionCount != nil {
		fmt.Fprintf(b, "- Distractions this session: %d\n", *cc.DistractionCount)
	}
	if cc.StreakCount != nil {
		fmt.Fprintf(b, "- Current streak: %d sessions\n", *cc.StreakCount)
	}
	if p := cc.RecentPerformance; p != nil {
		fmt.Fprintf(b, "- Recent completion rate: %.0f%%\n", p.CompletionRate*100)
		fmt.Fprintf(b, "- Average distractions: %.1f\n", p.AverageDistractions)
		if len(p.PreferredTimes) > 0 {
			fmt.Fprintf(b, "- Preferred times: %s\n", joinTimes(p.PreferredTimes))
		}
	}
	if cc.TimeOfDay != "" {
		fmt.Fprintf(b, "- Time of day: %s\n", cc.TimeOfDay)
	}
	b.WriteString("\n")
}

func writeProfile(b *strings.Builder, profile *domain.UserProfile) {
	if profile == nil || (len(profile.BestPerformanceTimes) == 0 && len(profile.CommonDistractions) == 0) {
		return
	}
	b.WriteString("What you know about this user:\n")
	if len(profile.BestPerformanceTimes) > 0 {
		fmt.Fprintf(b, "- Best focus times: %s\n", joinTimes(profile.BestPerformanceTimes))
	}
	if len(profile.CommonDistractions) > 0 {
		fmt.Fprintf(b, "- Common distractions: %s\n", strings.Join(profile.CommonDistractions, ", "))
	}
	b.WriteString("\n")
}

func writeTranscript(b *strings.Builder, recent []domain.ConversationLogEntry) {
	if len(recent) > HistoryLimit {
		recent = recent[len(recent)-HistoryLimit:]
	}
	if len(recent) == 0 {
		return
	}
	b.WriteString("Recent conversation:\n")
	for _, e := range recent {
		fmt.Fprintf(b, "- %s: coach said %q\n", e.Context.SessionType, e.CoachMessage)
		if e.UserInput != "" {
			fmt.Fprintf(b, "  user said %q\n", e.UserInput)
		}
	}
	b.WriteString("\n")
}

func formatSeconds(s int) string {
	if s < 0 {
		s = 0
	}
	return fmt.Sprintf("%dm %02ds", s/60, s%60)
}

func joinTimes(times []domain.TimeOfDay) string {
	parts := make([]string, len(times))
	for i, t := range times {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}
