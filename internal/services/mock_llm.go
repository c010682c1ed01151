package services

import (
	"context"
	"sync"

	"github.com/jwebster45206/echo-chronicle/pkg/chat"
)

// DefaultMockScene is streamed when no response is queued.
const DefaultMockScene = `{"sceneText":"The Chronicle waits.","choices":["Listen","Walk on"]}`

// MockLLMAPI is a mock implementation of Generator for testing
type MockLLMAPI struct {
	StreamFunc   func(ctx context.Context, req chat.Request) (<-chan StreamChunk, error)
	GenerateFunc func(ctx context.Context, req chat.Request) (string, error)

	// StreamResponses are streamed in order when StreamFunc is nil.
	StreamResponses []string
	// ChunkSize splits each streamed response into pieces of this many bytes.
	ChunkSize int

	// Track calls for testing
	StreamCalls   []chat.Request
	GenerateCalls []chat.Request

	mu sync.Mutex // protects all fields above
}

// NewMockLLMAPI creates a new mock generator that streams the given responses.
func NewMockLLMAPI(responses ...string) *MockLLMAPI {
	return &MockLLMAPI{
		StreamResponses: responses,
		ChunkSize:       16,
		StreamCalls:     make([]chat.Request, 0),
		GenerateCalls:   make([]chat.Request, 0),
	}
}

func (m *MockLLMAPI) Stream(ctx context.Context, req chat.Request) (<-chan StreamChunk, error) {
	m.mu.Lock()
	m.StreamCalls = append(m.StreamCalls, req)
	fn := m.StreamFunc
	body := DefaultMockScene
	if len(m.StreamResponses) > 0 {
		body = m.StreamResponses[0]
		m.StreamResponses = m.StreamResponses[1:]
	}
	size := m.ChunkSize
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return ChunkedStream(body, size), nil
}

func (m *MockLLMAPI) Generate(ctx context.Context, req chat.Request) (string, error) {
	m.mu.Lock()
	m.GenerateCalls = append(m.GenerateCalls, req)
	fn := m.GenerateFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return "The story so far is quiet.", nil
}

// QueueResponses appends responses to be streamed by later calls.
func (m *MockLLMAPI) QueueResponses(responses ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StreamResponses = append(m.StreamResponses, responses...)
}

func (m *MockLLMAPI) StreamCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.StreamCalls)
}

func (m *MockLLMAPI) GenerateCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.GenerateCalls)
}

// LastStreamRequest returns the most recent streamed request, or a zero Request.
func (m *MockLLMAPI) LastStreamRequest() chat.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.StreamCalls) == 0 {
		return chat.Request{}
	}
	return m.StreamCalls[len(m.StreamCalls)-1]
}

// Reset clears all tracked calls
func (m *MockLLMAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StreamCalls = make([]chat.Request, 0)
	m.GenerateCalls = make([]chat.Request, 0)
}

// ChunkedStream returns a closed, pre-filled stream of body split into size-byte
// pieces followed by a Done chunk.
func ChunkedStream(body string, size int) <-chan StreamChunk {
	if size <= 0 {
		size = len(body)
	}
	out := make(chan StreamChunk, len(body)/max(size, 1)+2)
	for len(body) > 0 {
		n := min(size, len(body))
		out <- StreamChunk{Content: body[:n]}
		body = body[n:]
	}
	out <- StreamChunk{Done: true}
	close(out)
	return out
}

// ErrorStream returns a stream that yields prefix and then fails with err.
func ErrorStream(prefix string, err error) <-chan StreamChunk {
	out := make(chan StreamChunk, 2)
	if prefix != "" {
		out <- StreamChunk{Content: prefix}
	}
	out <- StreamChunk{Err: err}
	close(out)
	return out
}

// SetStreamError makes every Stream call fail with err before any chunk is produced.
func (m *MockLLMAPI) SetStreamError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StreamFunc = func(ctx context.Context, req chat.Request) (<-chan StreamChunk, error) {
		return nil, err
	}
}

// SetGenerateError makes every Generate call fail with err.
func (m *MockLLMAPI) SetGenerateError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateFunc = func(ctx context.Context, req chat.Request) (string, error) {
		return "", err
	}
}
