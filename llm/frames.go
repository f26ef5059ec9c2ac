package llm

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// DataPrefix starts every frame that carries a payload.
	DataPrefix = "data:"
	// Sentinel is the payload that ends a stream.
	Sentinel = "[DONE]"
)

// ErrStreamTruncated is returned when the body ends before the sentinel frame.
var ErrStreamTruncated = errors.New("stream ended before [DONE]")

// FragmentKeys are the record fields checked for a text fragment, in priority order.
var FragmentKeys = []string{"content", "text", "delta", "message", "response"}

// FrameDecoder reads text fragments from a line-oriented event stream.
// Partial lines are buffered until their newline arrives, so the fragments
// returned do not depend on how the transport splits the bytes.
type FrameDecoder struct {
	r    *bufio.Reader
	done bool
}

// NewFrameDecoder returns a decoder reading from r.
func NewFrameDecoder(r io.Reader) *FrameDecoder {
	return &FrameDecoder{r: bufio.NewReader(r)}
}

// Next returns the next non-empty fragment. It returns io.EOF once the
// sentinel has been read and ErrStreamTruncated if the input ends first.
// Lines that are not frames, or whose payload carries no fragment, are skipped.
func (d *FrameDecoder) Next() (string, error) {
	for {
		if d.done {
			return "", io.EOF
		}

		line, err := d.r.ReadString('\n')
		if err != nil && err != io.EOF {
			return "", fmt.Errorf("failed to read stream: %w", err)
		}
		atEOF := err == io.EOF

		if payload, ok := framePayload(line); ok {
			if payload == Sentinel {
				d.done = true
				return "", io.EOF
			}
			if fragment, ok := ExtractFragment([]byte(payload)); ok && fragment != "" {
				return fragment, nil
			}
		}

		if atEOF {
			return "", ErrStreamTruncated
		}
	}
}

func framePayload(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, DataPrefix) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(line, DataPrefix)), true
}

type choicesRecord struct {
	Choices []struct {
		Delta *struct {
			Content string `json:"content"`
		} `json:"delta"`
		Text string `json:"text"`
	} `json:"choices"`
}

// ExtractFragment pulls the text fragment out of one JSON payload. The first
// of FragmentKeys holding a string wins; OpenAI-style choices are the last
// resort. It reports false for payloads that are not records or carry no
// recognized field.
func ExtractFragment(payload []byte) (string, bool) {
	var record map[string]json.RawMessage
	if err := json.Unmarshal(payload, &record); err != nil {
		return "", false
	}

	for _, key := range FragmentKeys {
		raw, ok := record[key]
		if !ok {
			continue
		}
		var s *string
		if err := json.Unmarshal(raw, &s); err == nil && s != nil {
			return *s, true
		}
	}

	if _, ok := record["choices"]; !ok {
		return "", false
	}
	var rec choicesRecord
	if err := json.Unmarshal(payload, &rec); err != nil || len(rec.Choices) == 0 {
		return "", false
	}
	if d := rec.Choices[0].Delta; d != nil && d.Content != "" {
		return d.Content, true
	}
	if rec.Choices[0].Text != "" {
		return rec.Choices[0].Text, true
	}
	return "", false
}
