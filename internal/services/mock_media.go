package services

import (
	"context"
	"sync"
)

// MockMedia is a mock ImageService and VideoService for testing
type MockMedia struct {
	ImageFunc func(ctx context.Context, prompt string) (string, error)
	StartFunc func(ctx context.Context, prompt string) (string, error)
	PollFunc  func(ctx context.Context, operation string) (string, bool, error)

	ImageCalls []string
	StartCalls []string
	PollCalls  []string

	mu sync.Mutex
}

func (m *MockMedia) GenerateImage(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.ImageCalls = append(m.ImageCalls, prompt)
	fn := m.ImageFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, prompt)
	}
	return "https://img.test/" + prompt, nil
}

func (m *MockMedia) StartVideo(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.StartCalls = append(m.StartCalls, prompt)
	fn := m.StartFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, prompt)
	}
	return "op-1", nil
}

func (m *MockMedia) PollVideo(ctx context.Context, operation string) (string, bool, error) {
	m.mu.Lock()
	m.PollCalls = append(m.PollCalls, operation)
	fn := m.PollFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, operation)
	}
	return "https://video.test/" + operation, true, nil
}

func (m *MockMedia) ImageCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ImageCalls)
}

func (m *MockMedia) PollCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.PollCalls)
}

func (m *MockMedia) StartCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.StartCalls)
}
