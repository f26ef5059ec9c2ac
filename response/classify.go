// Package response turns the reconstructed text of a coaching turn into a
// structured AIResponse using keyword heuristics.
package response

import (
	"strings"
	"unicode"

	"github.com/xiaot623/gogo/coach/domain"
)

// DefaultMessage is used whenever a turn produced no usable text.
const DefaultMessage = "I'm here to help you stay focused. What would you like to work on?"

var (
	suggestionKeywords    = []string{"suggest", "try"}
	insightKeywords       = []string{"insight", "pattern"}
	encouragementKeywords = []string{"great", "excellent", "well done"}
)

// Classify partitions text into an AIResponse. It never fails: when no segment
// lands in the message bucket the whole input becomes the message, and blank
// input yields DefaultMessage.
func Classify(text string) domain.AIResponse {
	resp := domain.AIResponse{
		FollowUpQuestions: []string{},
		Suggestions:       []string{},
	}
	if strings.TrimSpace(text) == "" {
		resp.Message = DefaultMessage
		return resp
	}

	var message []string
	for _, seg := range Segments(text) {
		lower := strings.ToLower(seg)
		switch {
		case strings.Contains(seg, "?"):
			resp.FollowUpQuestions = append(resp.FollowUpQuestions, stripListMarker(seg))
		case containsAny(lower, suggestionKeywords):
			resp.Suggestions = append(resp.Suggestions, stripListMarker(seg))
		case containsAny(lower, insightKeywords):
			resp.Insights = seg
		case containsAny(lower, encouragementKeywords):
			resp.Encouragement = seg
		default:
			message = append(message, seg)
		}
	}

	if len(message) == 0 {
		resp.Message = text
	} else {
		resp.Message = strings.Join(message, " ")
	}
	return resp
}

// Segments splits text into non-blank lines. A line containing '?' is kept
// whole so it lands in the questions bucket; any other line is split into
// sentences, each ending at '.' or '!' followed by whitespace.
func Segments(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.Contains(line, "?") {
			out = append(out, line)
			continue
		}
		out = append(out, sentences(line)...)
	}
	return out
}

func sentences(line string) []string {
	var out []string
	runes := []rune(line)
	start := 0
	for i := 0; i < len(runes)-1; i++ {
		switch runes[i] {
		case '.', '!':
			if !unicode.IsSpace(runes[i+1]) {
				continue
			}
			s := strings.TrimSpace(string(runes[start : i+1]))
			if isOrdinal(s) {
				continue
			}
			if s != "" {
				out = append(out, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

// isOrdinal reports whether s is a bare list ordinal such as "1." or "12.".
func isOrdinal(s string) bool {
	if len(s) < 2 || s[len(s)-1] != '.' {
		return false
	}
	for _, r := range s[:len(s)-1] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// stripListMarker drops a leading bullet ("-", "*", "•") or ordinal ("1.", "2)").
func stripListMarker(s string) string {
	trimmed := strings.TrimLeft(s, "-*• \t")
	if trimmed != s {
		return strings.TrimSpace(trimmed)
	}
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > 0 && i < len(s) && (s[i] == '.' || s[i] == ')') {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
