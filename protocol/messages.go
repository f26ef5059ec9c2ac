// Package protocol defines the WebSocket message protocol between coaching
// clients and the coaching service.
package protocol

import (
	"time"

	"github.com/xiaot623/gogo/coach/domain"
)

// Message types from client to service
const (
	TypeAsk = "ask"
)

// Message types from service to client
const (
	TypeDelta = "delta"
	TypeDone  = "done"
	TypeError = "error"
)

// BaseMessage contains common fields for all messages.
type BaseMessage struct {
	Type      string `json:"type"`
	Ts        int64  `json:"ts"`
	RequestID string `json:"request_id,omitempty"`
}

// AskMessage asks the coach for one turn.
type AskMessage struct {
	BaseMessage
	Context   domain.ConversationContext `json:"context"`
	UserInput string                     `json:"user_input,omitempty"`
}

// DeltaMessage carries one text fragment of the coach's answer.
type DeltaMessage struct {
	BaseMessage
	Text string `json:"text"`
}

// DoneMessage carries the classified answer and ends a turn.
type DoneMessage struct {
	BaseMessage
	Response domain.AIResponse `json:"response"`
}

// ErrorMessage is sent when a request cannot be served.
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrorCodeInvalidMessage = "invalid_message"
	ErrorCodeTurnInProgress = "turn_in_progress"
)

// NewBase stamps a message of type typ with the current time.
func NewBase(typ, requestID string) BaseMessage {
	return BaseMessage{Type: typ, Ts: time.Now().UnixMilli(), RequestID: requestID}
}
