package response

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyQuestionWinsOverSuggestion(t *testing.T) {
	resp := Classify("Would you like me to suggest a shorter session?\nKeep your phone in another room.")

	assert.Equal(t, []string{"Would you like me to suggest a shorter session?"}, resp.FollowUpQuestions)
	assert.Empty(t, resp.Suggestions)
	assert.Equal(t, "Keep your phone in another room.", resp.Message)
	assert.NotContains(t, resp.Message, "?")
}

func TestClassifyCompletionTurn(t *testing.T) {
	resp := Classify("Great job finishing that! Try a 5 minute stretch.")

	assert.Equal(t, "Great job finishing that!", resp.Encouragement)
	assert.Contains(t, resp.Suggestions, "Try a 5 minute stretch.")
	// nothing fell through to the message bucket
	assert.Equal(t, "Great job finishing that! Try a 5 minute stretch.", resp.Message)
}

func TestClassifyBuckets(t *testing.T) {
	text := "You are halfway through the block.\n" +
		"- Try closing the chat tab.\n" +
		"2. I suggest a glass of water.\n" +
		"\n" +
		"One pattern: afternoons are harder for you.\n" +
		"Another insight: you recover quickly after breaks.\n" +
		"Excellent focus today.\n" +
		"What is pulling your attention?"

	resp := Classify(text)

	assert.Equal(t, "You are halfway through the block.", resp.Message)
	assert.Equal(t, []string{"Try closing the chat tab.", "I suggest a glass of water."}, resp.Suggestions)
	assert.Equal(t, "Another insight: you recover quickly after breaks.", resp.Insights)
	assert.Equal(t, "Excellent focus today.", resp.Encouragement)
	assert.Equal(t, []string{"What is pulling your attention?"}, resp.FollowUpQuestions)
}

func TestClassifyBlankInput(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\n"} {
		resp := Classify(in)
		assert.Equal(t, DefaultMessage, resp.Message)
		assert.Empty(t, resp.FollowUpQuestions)
		assert.Empty(t, resp.Suggestions)
	}
}

func TestClassifyKeywordsAreCaseInsensitive(t *testing.T) {
	resp := Classify("WELL DONE on the streak.\nTRY the two-minute rule.")

	assert.Equal(t, "WELL DONE on the streak.", resp.Encouragement)
	assert.Equal(t, []string{"TRY the two-minute rule."}, resp.Suggestions)
}

func TestClassifyMessageJoinsWithSpaces(t *testing.T) {
	resp := Classify("Breathe in.\nBreathe out.")
	assert.Equal(t, "Breathe in. Breathe out.", resp.Message)
}

func TestSegments(t *testing.T) {
	got := Segments("  First one. Second one!\n\n3. Third item\nTakes 2.5 minutes")
	assert.Equal(t, []string{"First one.", "Second one!", "3. Third item", "Takes 2.5 minutes"}, got)

	got = Segments("Nice start. Ready? Go on.\nDone.")
	assert.Equal(t, []string{"Nice start. Ready? Go on.", "Done."}, got)
}

func TestStripListMarker(t *testing.T) {
	assert.Equal(t, "Try it", stripListMarker("- Try it"))
	assert.Equal(t, "Try it", stripListMarker("• Try it"))
	assert.Equal(t, "Try it", stripListMarker("12) Try it"))
	assert.Equal(t, "Try it", stripListMarker("Try it"))
}

func TestClassifyQuestionLineStaysWhole(t *testing.T) {
	resp := Classify("Here is your plan for today. What do you think?\nKeep going steadily")

	assert.Equal(t, []string{"Here is your plan for today. What do you think?"}, resp.FollowUpQuestions)
	assert.Equal(t, "Keep going steadily", resp.Message)
	assert.NotContains(t, resp.Message, "plan for today")
}
