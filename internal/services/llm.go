package services

import (
	"context"
	"strings"

	"github.com/jwebster45206/echo-chronicle/pkg/chat"
)

// StreamChunk is one piece of a streamed generator response. The final chunk has
// Done set; a chunk with Err set ends the stream early.
type StreamChunk struct {
	Content string
	Err     error
	Done    bool
}

// Generator is the narrative text model.
type Generator interface {
	// Stream starts a generation and returns a channel of incremental chunks. The
	// channel is closed after the Done or Err chunk, or when ctx is cancelled.
	Stream(ctx context.Context, req chat.Request) (<-chan StreamChunk, error)

	// Generate runs a non-streamed request and returns the full text.
	Generate(ctx context.Context, req chat.Request) (string, error)
}

// Collect drains a stream into a single string.
func Collect(ctx context.Context, chunks <-chan StreamChunk) (string, error) {
	var sb strings.Builder
	for {
		select {
		case <-ctx.Done():
			return sb.String(), ctx.Err()
		case c, ok := <-chunks:
			if !ok {
				return sb.String(), nil
			}
			if c.Err != nil {
				return sb.String(), c.Err
			}
			sb.WriteString(c.Content)
			if c.Done {
				return sb.String(), nil
			}
		}
	}
}

// send delivers c unless ctx is cancelled first.
func send(ctx context.Context, out chan<- StreamChunk, c StreamChunk) bool {
	select {
	case out <- c:
		return true
	case <-ctx.Done():
		return false
	}
}
