package turn

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/echo-chronicle/internal/services"
	"github.com/jwebster45206/echo-chronicle/pkg/state"
)

func TestOrchestrator_SceneImageAfterTurn(t *testing.T) {
	h := newHarness(t, `{"sceneText":"A lantern flares.","choices":["Go"],"imagePrompt":"lantern in fog"}`)
	h.playing(t)

	require.NoError(t, h.orch.Continue(context.Background(), "Listen"))
	h.orch.Close()

	gs := h.store.State()
	assert.Equal(t, "lantern in fog", gs.CurrentImagePrompt)
	assert.Equal(t, "https://img.test/lantern in fog", gs.CurrentImageURL)
	assert.Equal(t, 1, h.media.ImageCallCount())
}

func TestOrchestrator_NullImagePromptSkipsImage(t *testing.T) {
	h := newHarness(t, `{"sceneText":"Still dark.","choices":["Go"],"imagePrompt":null}`)
	h.playing(t)

	require.NoError(t, h.orch.Continue(context.Background(), "Listen"))
	h.orch.Close()
	assert.Equal(t, 0, h.media.ImageCallCount())
}

func TestOrchestrator_ImageSlotGuard(t *testing.T) {
	h := newHarness(t)
	release := make(chan struct{})
	h.media.ImageFunc = func(ctx context.Context, prompt string) (string, error) {
		<-release
		return "https://img.test/" + prompt, nil
	}
	h.store.Dispatch(state.NewTurnSucceeded(&state.TurnResult{
		SceneText:   "x",
		Choices:     []string{},
		ImagePrompt: state.OptionalString{Set: true, Value: "first"},
	}))
	gen := h.store.Generation()

	assert.True(t, h.orch.requestImage(slotScene, gen, "first"))
	assert.False(t, h.orch.requestImage(slotScene, gen, "second"), "slot is busy")
	assert.True(t, h.orch.RequestHomeImage(), "home slot is independent")

	close(release)
	h.orch.mediaWG.Wait()

	gs := h.store.State()
	assert.Equal(t, "https://img.test/first", gs.CurrentImageURL)
	assert.Equal(t, "https://img.test/"+HomeImagePrompt, gs.HomeImageURL)
	assert.False(t, h.orch.RequestHomeImage(), "home image already cached")
	assert.Equal(t, 2, h.media.ImageCallCount())
}

func TestOrchestrator_ImageSlotGeneratesNewestPrompt(t *testing.T) {
	h := newHarness(t,
		`{"sceneText":"A lantern flares.","choices":["Go"],"imagePrompt":"A"}`,
		`{"sceneText":"The lantern gutters.","choices":["Go"],"imagePrompt":"B"}`,
	)
	h.playing(t)
	release := make(chan struct{})
	h.media.ImageFunc = func(ctx context.Context, prompt string) (string, error) {
		<-release
		return "url-" + prompt, nil
	}

	require.NoError(t, h.orch.Continue(context.Background(), "Listen"))
	require.NoError(t, h.orch.Continue(context.Background(), "Go"))
	close(release)
	h.orch.mediaWG.Wait()

	gs := h.store.State()
	assert.Equal(t, "B", gs.CurrentImagePrompt)
	assert.Equal(t, "url-B", gs.CurrentImageURL, "newest prompt is generated once the slot frees")
	assert.Equal(t, 2, h.media.ImageCallCount())
}

func TestOrchestrator_ImageSlotDropsOutdatedPending(t *testing.T) {
	h := newHarness(t)
	release := make(chan struct{})
	h.media.ImageFunc = func(ctx context.Context, prompt string) (string, error) {
		<-release
		return "url-" + prompt, nil
	}
	h.store.Dispatch(state.NewTurnSucceeded(&state.TurnResult{
		SceneText:   "x",
		Choices:     []string{},
		ImagePrompt: state.OptionalString{Set: true, Value: "current"},
	}))
	gen := h.store.Generation()

	assert.True(t, h.orch.requestImage(slotScene, gen, "current"))
	assert.False(t, h.orch.requestImage(slotScene, gen, "abandoned"))
	close(release)
	h.orch.mediaWG.Wait()

	assert.Equal(t, "url-current", h.store.State().CurrentImageURL)
	assert.Equal(t, 1, h.media.ImageCallCount(), "a prompt the scene no longer shows is not generated")
}

func TestOrchestrator_ImageFailureIsSilent(t *testing.T) {
	h := newHarness(t, `{"sceneText":"x","choices":["Go"],"imagePrompt":"p"}`)
	h.playing(t)
	h.media.ImageFunc = func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("safety filter")
	}

	require.NoError(t, h.orch.Continue(context.Background(), "Listen"))
	h.orch.Close()
	gs := h.store.State()
	assert.Empty(t, gs.Error)
	assert.Empty(t, gs.CurrentImageURL)
}

func TestOrchestrator_IntroVideoPolls(t *testing.T) {
	h := newHarness(t)
	h.orch.WithVideoPollInterval(time.Millisecond)
	polls := 0
	h.media.PollFunc = func(ctx context.Context, op string) (string, bool, error) {
		polls++
		if polls < 3 {
			return "", false, nil
		}
		return "https://video.test/intro.mp4", true, nil
	}
	ctx := context.Background()

	url, err := h.orch.IntroVideo(ctx, "the bell tower wakes")
	require.NoError(t, err)
	assert.Equal(t, "https://video.test/intro.mp4", url)
	assert.Equal(t, 3, h.media.PollCallCount())

	// the second request is served from the cache
	url, err = h.orch.IntroVideo(ctx, "the bell tower wakes")
	require.NoError(t, err)
	assert.Equal(t, "https://video.test/intro.mp4", url)
	assert.Equal(t, 1, h.media.StartCallCount())
}

func TestOrchestrator_IntroVideoCancelled(t *testing.T) {
	h := newHarness(t)
	h.orch.WithVideoPollInterval(time.Millisecond)
	h.media.PollFunc = func(ctx context.Context, op string) (string, bool, error) {
		return "", false, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := h.orch.IntroVideo(ctx, "p")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, cached := h.gateway.LoadIntroVideo(context.Background())
	assert.False(t, cached)
}

func TestOrchestrator_IntroVideoUnavailable(t *testing.T) {
	h := newHarness(t)
	h.orch.WithMedia(services.NoopMedia{}, services.NoopMedia{}, nil)

	_, err := h.orch.IntroVideo(context.Background(), "p")
	assert.ErrorIs(t, err, services.ErrMediaUnavailable)
}

func TestOrchestrator_PlayIntro(t *testing.T) {
	tests := []struct {
		name      string
		media     func(m *services.MockMedia) (services.ImageService, services.VideoService)
		wantURL   string
		wantPhase state.Phase
		narrated  int
	}{
		{
			name:      "video ready",
			media:     func(m *services.MockMedia) (services.ImageService, services.VideoService) { return m, m },
			wantURL:   "https://video.test/op-1",
			wantPhase: state.PhaseIntroVideo,
		},
		{
			name: "no video service",
			media: func(m *services.MockMedia) (services.ImageService, services.VideoService) {
				return m, services.NoopMedia{}
			},
			wantPhase: state.PhaseCreationArchetype,
			narrated:  1,
		},
		{
			name: "video start fails",
			media: func(m *services.MockMedia) (services.ImageService, services.VideoService) {
				m.StartFunc = func(ctx context.Context, prompt string) (string, error) {
					return "", errors.New("quota exhausted")
				}
				return m, m
			},
			wantPhase: state.PhaseCreationArchetype,
			narrated:  1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, scene("Who were you before the silence?", "Resonant"))
			images, video := tt.media(h.media)
			h.orch.WithMedia(images, video, h.gateway).WithVideoPollInterval(time.Millisecond)

			url, err := h.orch.PlayIntro(context.Background())
			require.NoError(t, err)

			gs := h.store.State()
			assert.Equal(t, tt.wantURL, url)
			assert.Equal(t, tt.wantPhase, gs.Phase())
			assert.True(t, gs.GameStarted)
			assert.Empty(t, gs.Error)
			assert.Equal(t, tt.narrated, h.llm.StreamCallCount())
		})
	}
}

func TestOrchestrator_SkipIntroDuringPoll(t *testing.T) {
	h := newHarness(t, scene("Who were you before the silence?", "Resonant"))
	h.orch.WithVideoPollInterval(time.Millisecond)
	h.media.PollFunc = func(ctx context.Context, op string) (string, bool, error) {
		return "", false, nil
	}

	type result struct {
		url string
		err error
	}
	done := make(chan result, 1)
	go func() {
		url, err := h.orch.PlayIntro(context.Background())
		done <- result{url, err}
	}()
	require.Eventually(t, func() bool { return h.media.PollCallCount() > 0 }, time.Second, time.Millisecond)
	assert.Equal(t, state.PhaseIntroVideo, h.store.State().Phase())

	require.NoError(t, h.orch.SkipIntro(context.Background()))

	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.Empty(t, r.url)
	case <-time.After(time.Second):
		t.Fatal("intro poll not abandoned after skip")
	}
	assert.Equal(t, state.PhaseCreationArchetype, h.store.State().Phase())
	assert.Equal(t, 1, h.llm.StreamCallCount(), "creation opened once")

	_, cached := h.gateway.LoadIntroVideo(context.Background())
	assert.False(t, cached)
}

func TestOrchestrator_PlayIntroResumesStartedChronicle(t *testing.T) {
	h := newHarness(t, scene("Who were you before the silence?", "Resonant"))
	h.store.Dispatch(state.StartGame{})

	url, err := h.orch.PlayIntro(context.Background())
	require.NoError(t, err)
	assert.Empty(t, url)
	assert.Zero(t, h.media.StartCallCount())
	assert.Equal(t, state.PhaseCreationArchetype, h.store.State().Phase())
	assert.Equal(t, 1, h.llm.StreamCallCount())
}
