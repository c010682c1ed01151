package services

import "context"

// ImageService renders an illustration for a prompt and returns its URL.
type ImageService interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// VideoService generates a video as a long-running remote operation.
type VideoService interface {
	// StartVideo submits a generation and returns an operation handle.
	StartVideo(ctx context.Context, prompt string) (string, error)
	// PollVideo reports whether the operation finished and, if so, the video URL.
	PollVideo(ctx context.Context, operation string) (url string, done bool, err error)
}

// NoopMedia is used when no media provider is configured. Every call fails with
// ErrMediaUnavailable, which callers treat as "no media" rather than a game error.
type NoopMedia struct{}

func (NoopMedia) GenerateImage(ctx context.Context, prompt string) (string, error) {
	return "", ErrMediaUnavailable
}

func (NoopMedia) StartVideo(ctx context.Context, prompt string) (string, error) {
	return "", ErrMediaUnavailable
}

func (NoopMedia) PollVideo(ctx context.Context, operation string) (string, bool, error) {
	return "", false, ErrMediaUnavailable
}
