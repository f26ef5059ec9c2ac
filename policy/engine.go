package policy

import (
	"context"
	"fmt"
	"sort"

	"github.com/open-policy-agent/opa/rego"
)

// InsightQuery is the rego query returning the set of triggered insight codes.
const InsightQuery = "data.coach_insights.insights"

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine evaluating InsightQuery against policyContent.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query(InsightQuery),
		rego.Module("coach_insights.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate runs the policy against input and returns the triggered codes, sorted.
// Input should be a map with keys: total, completed, completion_rate, best_time.
func (e *Engine) Evaluate(ctx context.Context, input interface{}) ([]string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return nil, nil
	}

	values, ok := results[0].Expressions[0].Value.([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected policy result type %T", results[0].Expressions[0].Value)
	}

	codes := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			codes = append(codes, s)
		}
	}
	sort.Strings(codes)
	return codes, nil
}

// DefaultPolicy is the default insight rule set.
const DefaultPolicy = `
package coach_insights

# Finishing most sessions.
insights["high_completion"] {
	input.total > 0
	input.completion_rate > 0.8
}

# Stopping sessions early.
insights["early_stopping"] {
	input.total > 0
	input.completion_rate < 0.5
}

# Naming the busiest time of day.
insights["best_time"] {
	input.total > 0
	input.best_time != ""
}
`
