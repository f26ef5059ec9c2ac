package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/xiaot623/gogo/coach/domain"
	"github.com/xiaot623/gogo/coach/response"
)

// ContextLabel tags every outbound request as a coaching request.
const ContextLabel = "productivity_coaching"

// ErrStreamConsumed is returned when a sequence is ranged over a second time.
var ErrStreamConsumed = errors.New("stream already consumed")

// Params are the sampling parameters sent with every turn.
type Params struct {
	Model       string
	Temperature float64
	TopP        float64
	MaxTokens   int
	DetailLevel string
}

// Client is the streaming coaching endpoint client.
type Client struct {
	endpoint   string
	apiKey     string
	params     Params
	httpClient *http.Client
}

// NewClient creates a new streaming client. A zero timeout leaves the
// transport without a deadline.
func NewClient(endpoint, apiKey string, timeout time.Duration, params Params) *Client {
	return &Client{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		apiKey:   apiKey,
		params:   params,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// CoachRequest is the outbound request body.
type CoachRequest struct {
	Message     string  `json:"message"`
	Context     string  `json:"context"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	MaxTokens   int     `json:"max_tokens"`
	DetailLevel string  `json:"detailLevel"`
	Stream      bool    `json:"stream"`
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// APIError represents the error details.
type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}

// Stream sends prompt and yields one chunk per decoded fragment, then the
// terminal chunk holding the classified response. Stopping the range early
// closes the response body.
func (c *Client) Stream(ctx context.Context, prompt string) iter.Seq2[domain.StreamChunk, error] {
	var used atomic.Bool
	return func(yield func(domain.StreamChunk, error) bool) {
		if !used.CompareAndSwap(false, true) {
			yield(domain.StreamChunk{}, ErrStreamConsumed)
			return
		}

		body, err := c.open(ctx, prompt)
		if err != nil {
			yield(domain.StreamChunk{}, err)
			return
		}
		defer body.Close()

		var full strings.Builder
		dec := NewFrameDecoder(body)
		for {
			fragment, err := dec.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				yield(domain.StreamChunk{}, err)
				return
			}
			full.WriteString(fragment)
			if !yield(domain.FragmentChunk(fragment), nil) {
				return
			}
		}

		yield(domain.CompleteChunk(response.Classify(full.String())), nil)
	}
}

// open sends the request and returns the streaming body.
func (c *Client) open(ctx context.Context, prompt string) (io.ReadCloser, error) {
	body, err := json.Marshal(CoachRequest{
		Message:     prompt,
		Context:     ContextLabel,
		Model:       c.params.Model,
		Temperature: c.params.Temperature,
		TopP:        c.params.TopP,
		MaxTokens:   c.params.MaxTokens,
		DetailLevel: c.params.DetailLevel,
		Stream:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)
		var errResp ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != nil {
			return nil, fmt.Errorf("LLM API error [%d]: %s (type: %s)", resp.StatusCode, errResp.Error.Message, errResp.Error.Type)
		}
		return nil, fmt.Errorf("LLM API error [%d]: %s", resp.StatusCode, string(respBody))
	}

	return resp.Body, nil
}

// setHeaders sets common request headers.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}
