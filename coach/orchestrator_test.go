package coach

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/coach/domain"
	"github.com/xiaot623/gogo/coach/insights"
	"github.com/xiaot623/gogo/coach/llm"
	"github.com/xiaot623/gogo/coach/policy"
	"github.com/xiaot623/gogo/coach/profile"
	"github.com/xiaot623/gogo/coach/response"
	"github.com/xiaot623/gogo/coach/tests/helpers"
)

type scriptedStreamer struct {
	fragments  []string
	err        error
	noTerminal bool
	prompts    []string
}

func (s *scriptedStreamer) Stream(ctx context.Context, p string) iter.Seq2[domain.StreamChunk, error] {
	s.prompts = append(s.prompts, p)
	return func(yield func(domain.StreamChunk, error) bool) {
		var full strings.Builder
		for _, f := range s.fragments {
			full.WriteString(f)
			if !yield(domain.FragmentChunk(f), nil) {
				return
			}
		}
		if s.err != nil {
			yield(domain.StreamChunk{}, s.err)
			return
		}
		if s.noTerminal {
			return
		}
		yield(domain.CompleteChunk(response.Classify(full.String())), nil)
	}
}

var fixedNow = time.Date(2026, 6, 1, 10, 0, 0, 0, time.Local)

func newTestOrchestrator(t *testing.T, streamer llm.Streamer) (*Orchestrator, *profile.Store) {
	t.Helper()
	ctx := context.Background()
	engine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	require.NoError(t, err)
	profiles := profile.NewStore(helpers.NewTestSQLiteStore(t))
	o := New(ctx, "u1", profiles, streamer, insights.NewGenerator(engine), Options{
		Now: func() time.Time { return fixedNow },
	})
	return o, profiles
}

func drain(seq iter.Seq[domain.StreamChunk]) []domain.StreamChunk {
	var out []domain.StreamChunk
	for c := range seq {
		out = append(out, c)
	}
	return out
}

func intPtr(v int) *int { return &v }

func TestAskCoachEndToEnd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, f := range []string{"Great job", " finishing that!", " Try a 5 minute stretch."} {
			fmt.Fprintf(w, "data: {\"content\":%q}\n\n", f)
			w.(http.Flusher).Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := llm.NewClient(server.URL, "", time.Second, llm.Params{Model: "m"})
	o, profiles := newTestOrchestrator(t, client)
	cc := domain.ConversationContext{SessionType: domain.SessionTypeCompletion, StreakCount: intPtr(4)}

	chunks := drain(o.AskCoach(context.Background(), cc, ""))

	require.Len(t, chunks, 4)
	for _, c := range chunks[:3] {
		assert.False(t, c.IsComplete)
	}
	last := chunks[3]
	require.True(t, last.IsComplete)
	assert.Equal(t, "Great job finishing that!", last.FullResponse.Encouragement)
	assert.Contains(t, last.FullResponse.Suggestions, "Try a 5 minute stretch.")

	history, err := profiles.History(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, last.FullResponse.Message, history[0].CoachMessage)
	assert.Equal(t, domain.SessionTypeCompletion, history[0].Context.SessionType)
	assert.Equal(t, domain.TimeOfDayMorning, history[0].Context.TimeOfDay)
	assert.True(t, strings.HasPrefix(history[0].ID, "log_"))
	assert.False(t, o.InFlight())
}

func TestAskCoachTransportFailureFallsBack(t *testing.T) {
	streamer := &scriptedStreamer{fragments: []string{"Half a"}, err: errors.New("connection reset")}
	o, profiles := newTestOrchestrator(t, streamer)

	chunks := drain(o.AskCoach(context.Background(), domain.ConversationContext{SessionType: domain.SessionTypeDistraction}, ""))

	require.Len(t, chunks, 2)
	last := chunks[1]
	require.True(t, last.IsComplete)
	assert.Equal(t, defaultFallbacks[domain.SessionTypeDistraction].Message, last.FullResponse.Message)

	history, err := profiles.History(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestAskCoachUnreachableEndpointFallsBack(t *testing.T) {
	client := llm.NewClient("http://127.0.0.1:1", "", time.Second, llm.Params{})
	o, _ := newTestOrchestrator(t, client)

	chunks := drain(o.AskCoach(context.Background(), domain.ConversationContext{SessionType: domain.SessionTypeStart}, ""))

	require.Len(t, chunks, 1)
	assert.True(t, chunks[0].IsComplete)
	assert.Equal(t, defaultFallbacks[domain.SessionTypeStart].Message, chunks[0].FullResponse.Message)
}

func TestAskCoachMissingTerminalFallsBack(t *testing.T) {
	o, profiles := newTestOrchestrator(t, &scriptedStreamer{fragments: []string{"a", "b"}, noTerminal: true})

	chunks := drain(o.AskCoach(context.Background(), domain.ConversationContext{SessionType: domain.SessionTypeBreak}, ""))

	require.Len(t, chunks, 3)
	assert.True(t, chunks[2].IsComplete)
	history, _ := profiles.History(context.Background(), "u1")
	assert.Empty(t, history)
}

func TestAskCoachAbandonedTurnCommitsNothing(t *testing.T) {
	o, profiles := newTestOrchestrator(t, &scriptedStreamer{fragments: []string{"one", "two", "three"}})

	for chunk := range o.AskCoach(context.Background(), domain.ConversationContext{SessionType: domain.SessionTypeStart}, "hi") {
		assert.Equal(t, "one", chunk.Chunk)
		break
	}

	history, err := profiles.History(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.False(t, o.InFlight())
}

func TestAskCoachRejectsOverlappingTurns(t *testing.T) {
	o, profiles := newTestOrchestrator(t, &scriptedStreamer{fragments: []string{"one", "two"}})
	cc := domain.ConversationContext{SessionType: domain.SessionTypePause}

	next, stop := iter.Pull(o.AskCoach(context.Background(), cc, ""))
	first, ok := next()
	require.True(t, ok)
	assert.Equal(t, "one", first.Chunk)
	assert.True(t, o.InFlight())

	overlapping := drain(o.AskCoach(context.Background(), cc, ""))
	require.Len(t, overlapping, 1)
	assert.True(t, overlapping[0].IsComplete)
	assert.Equal(t, defaultFallbacks[domain.SessionTypePause].Message, overlapping[0].FullResponse.Message)

	stop()
	assert.False(t, o.InFlight())
	history, _ := profiles.History(context.Background(), "u1")
	assert.Empty(t, history)
}

func TestAskCoachEmptyResponseUsesDefaultMessage(t *testing.T) {
	o, profiles := newTestOrchestrator(t, &scriptedStreamer{})

	resp := o.Ask(context.Background(), domain.ConversationContext{SessionType: domain.SessionTypeReflection}, "", nil)

	assert.Equal(t, response.DefaultMessage, resp.Message)
	history, _ := profiles.History(context.Background(), "u1")
	require.Len(t, history, 1)
	assert.Equal(t, response.DefaultMessage, history[0].CoachMessage)
}

func TestAskCoachPromptCarriesProfileAndHistory(t *testing.T) {
	streamer := &scriptedStreamer{fragments: []string{"Keep going."}}
	o, _ := newTestOrchestrator(t, streamer)
	ctx := context.Background()

	_, err := o.RecordOutcome(ctx, true, []string{"email"}, domain.TimeOfDayMorning)
	require.NoError(t, err)

	for i := 0; i < 12; i++ {
		var got []string
		o.Ask(ctx, domain.ConversationContext{SessionType: domain.SessionTypeStart}, fmt.Sprintf("input-%02d", i), func(s string) {
			got = append(got, s)
		})
		assert.Equal(t, []string{"Keep going."}, got)
	}

	last := streamer.prompts[len(streamer.prompts)-1]
	assert.Contains(t, last, "Best focus times: morning")
	assert.Contains(t, last, "Common distractions: email")
	assert.Contains(t, last, `User says: "input-11"`)
	assert.Equal(t, 10, strings.Count(last, "coach said"))
	assert.NotContains(t, last, "input-00")
	assert.Contains(t, last, "input-01")
}

func TestRecordOutcomeUpdatesCachedProfile(t *testing.T) {
	o, profiles := newTestOrchestrator(t, &scriptedStreamer{})
	ctx := context.Background()

	p, err := o.RecordOutcome(ctx, true, []string{"phone"}, "")
	require.NoError(t, err)
	assert.Equal(t, []domain.TimeOfDay{domain.TimeOfDayMorning}, p.BestPerformanceTimes)

	_, err = o.RecordOutcome(ctx, true, []string{"phone"}, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"phone"}, o.Profile().CommonDistractions)
	assert.Equal(t, []string{"phone"}, profiles.Load(ctx, "u1").CommonDistractions)
}

func TestOrchestratorInsights(t *testing.T) {
	o, _ := newTestOrchestrator(t, &scriptedStreamer{})
	got := o.Insights(context.Background(), []domain.SessionRecord{
		{Completed: true, StartTime: time.Date(2026, 1, 1, 9, 0, 0, 0, time.Local)},
	})
	assert.NotEmpty(t, got)
}

func TestFallbackOverridesAndCopies(t *testing.T) {
	resp := fallbackFor(domain.SessionTypeStart, map[domain.SessionType]string{domain.SessionTypeStart: "custom"})
	assert.Equal(t, "custom", resp.Message)

	resp.Suggestions[0] = "mutated"
	assert.NotEqual(t, "mutated", defaultFallbacks[domain.SessionTypeStart].Suggestions[0])

	assert.Equal(t, genericFallback.Message, fallbackFor("unknown", nil).Message)
	for _, st := range domain.SessionTypes {
		assert.NotEmpty(t, fallbackFor(st, nil).Message, st)
	}
}

func TestRegistryReusesOrchestrator(t *testing.T) {
	ctx := context.Background()
	engine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	require.NoError(t, err)
	reg := NewRegistry(profile.NewStore(helpers.NewTestSQLiteStore(t)), &scriptedStreamer{}, insights.NewGenerator(engine), Options{})

	a := reg.Get(ctx, "u1")
	assert.Same(t, a, reg.Get(ctx, "u1"))
	assert.NotSame(t, a, reg.Get(ctx, "u2"))

	reg.End("u1")
	assert.NotSame(t, a, reg.Get(ctx, "u1"))
}

func TestAskCoachSequenceRunsOnce(t *testing.T) {
	streamer := &scriptedStreamer{fragments: []string{"Keep going."}}
	o, profiles := newTestOrchestrator(t, streamer)
	cc := domain.ConversationContext{SessionType: domain.SessionTypeBreak}

	seq := o.AskCoach(context.Background(), cc, "")
	first := drain(seq)
	require.Len(t, first, 2)

	again := drain(seq)
	require.Len(t, again, 1)
	assert.True(t, again[0].IsComplete)
	assert.Equal(t, defaultFallbacks[domain.SessionTypeBreak].Message, again[0].FullResponse.Message)

	assert.Len(t, streamer.prompts, 1)
	history, err := profiles.History(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, history, 1)
	assert.False(t, o.InFlight())
}

func TestRegistryReset(t *testing.T) {
	ctx := context.Background()
	engine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	require.NoError(t, err)
	reg := NewRegistry(profile.NewStore(helpers.NewTestSQLiteStore(t)), &scriptedStreamer{fragments: []string{"a", "b"}}, insights.NewGenerator(engine), Options{})

	o := reg.Get(ctx, "u1")
	_, err = o.RecordOutcome(ctx, true, []string{"email"}, domain.TimeOfDayMorning)
	require.NoError(t, err)

	next, stop := iter.Pull(o.AskCoach(ctx, domain.ConversationContext{SessionType: domain.SessionTypeStart}, ""))
	_, ok := next()
	require.True(t, ok)
	assert.ErrorIs(t, reg.Reset(ctx, "u1"), ErrTurnInProgress)
	stop()

	users, err := reg.Users(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, users)

	require.NoError(t, reg.Reset(ctx, "u1"))
	fresh := reg.Get(ctx, "u1")
	assert.NotSame(t, o, fresh)
	assert.Empty(t, fresh.Profile().CommonDistractions)

	users, err = reg.Users(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}
