// Package llm streams coaching responses from the hosted language model.
package llm

import (
	"context"
	"iter"

	"github.com/xiaot623/gogo/coach/domain"
)

// Streamer issues one model request per call and exposes the response as a
// lazy, finite sequence of chunks. The sequence can be ranged over once; the
// last value is either the single terminal chunk or an error.
type Streamer interface {
	Stream(ctx context.Context, prompt string) iter.Seq2[domain.StreamChunk, error]
}

// Ensure Client implements Streamer interface.
var _ Streamer = (*Client)(nil)
