// Package insights derives qualitative coaching insights from historical
// focus sessions.
package insights

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xiaot623/gogo/coach/domain"
)

// Insight codes produced by the rule set.
const (
	CodeHighCompletion = "high_completion"
	CodeEarlyStopping  = "early_stopping"
	CodeBestTime       = "best_time"
)

// codeOrder fixes the order insights are returned in.
var codeOrder = []string{CodeHighCompletion, CodeEarlyStopping, CodeBestTime}

// Evaluator selects insight codes for a set of session statistics.
type Evaluator interface {
	Evaluate(ctx context.Context, input interface{}) ([]string, error)
}

// Stats summarises a list of session records.
type Stats struct {
	Total          int              `json:"total"`
	Completed      int              `json:"completed"`
	CompletionRate float64          `json:"completion_rate"`
	BestTime       domain.TimeOfDay `json:"best_time"`
}

// Compute derives Stats from sessions. BestTime is the bucket with the most
// sessions; ties go to the earlier bucket of the day.
func Compute(sessions []domain.SessionRecord) Stats {
	var st Stats
	counts := make(map[domain.TimeOfDay]int, len(domain.TimesOfDay))
	for _, s := range sessions {
		st.Total++
		if s.Completed {
			st.Completed++
		}
		counts[domain.TimeOfDayAt(s.StartTime)]++
	}
	if st.Total == 0 {
		return st
	}
	st.CompletionRate = float64(st.Completed) / float64(st.Total)

	best := 0
	for _, tod := range domain.TimesOfDay {
		if counts[tod] > best {
			best = counts[tod]
			st.BestTime = tod
		}
	}
	return st
}

// Generator turns session history into insight sentences.
type Generator struct {
	rules Evaluator
}

// NewGenerator creates a generator using rules to pick insights.
func NewGenerator(rules Evaluator) *Generator {
	return &Generator{rules: rules}
}

// Insights returns every applicable insight for sessions, in a fixed order.
// Empty input yields an empty list; rule evaluation failures are logged and
// also yield an empty list.
func (g *Generator) Insights(ctx context.Context, sessions []domain.SessionRecord) []string {
	out := []string{}
	st := Compute(sessions)
	if st.Total == 0 {
		return out
	}

	codes, err := g.rules.Evaluate(ctx, map[string]interface{}{
		"total":           st.Total,
		"completed":       st.Completed,
		"completion_rate": st.CompletionRate,
		"best_time":       string(st.BestTime),
	})
	if err != nil {
		slog.Error("failed to evaluate insight rules", "sessions", st.Total, "error", err)
		return out
	}

	triggered := make(map[string]bool, len(codes))
	for _, c := range codes {
		triggered[c] = true
	}
	for _, code := range codeOrder {
		if triggered[code] {
			out = append(out, render(code, st))
		}
	}
	return out
}

func render(code string, st Stats) string {
	switch code {
	case CodeHighCompletion:
		return fmt.Sprintf("Excellent discipline: you finished %.0f%% of your focus sessions.", st.CompletionRate*100)
	case CodeEarlyStopping:
		return fmt.Sprintf("You're stopping sessions early: only %.0f%% were completed. Shorter sessions can help you build momentum.", st.CompletionRate*100)
	case CodeBestTime:
		return fmt.Sprintf("Your best time: %s. Most of your focus sessions happen in the %s.", st.BestTime, st.BestTime)
	}
	return code
}
