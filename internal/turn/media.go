package turn

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jwebster45206/echo-chronicle/internal/services"
	"github.com/jwebster45206/echo-chronicle/pkg/state"
)

type imageSlot string

const (
	slotScene imageSlot = "scene"
	slotHome  imageSlot = "home"
)

// HomeImagePrompt illustrates the title screen.
const HomeImagePrompt = "A vast drowned bell tower under a violet dusk, faint glowing sound-waves rippling through fog, painterly, melancholic"

// IntroVideoPrompt is the prologue played before character creation.
const IntroVideoPrompt = "A silent drowned city of bells at dawn, a single bell shivers and light ripples outward through the fog, cinematic, slow push in"

// RequestHomeImage generates the title screen illustration unless one is cached
// or already being generated.
func (o *Orchestrator) RequestHomeImage() bool {
	if o.store.State().HomeImageURL != "" {
		return false
	}
	return o.requestImage(slotHome, o.store.Generation(), HomeImagePrompt)
}

type imageRequest struct {
	gen    uint64
	prompt string
}

// requestImage starts a background image request for slot. While one is
// outstanding, later prompts for the same slot are held back and only the newest
// is generated once the slot frees, provided the scene still wants it.
func (o *Orchestrator) requestImage(slot imageSlot, gen uint64, prompt string) bool {
	o.inflightMu.Lock()
	if o.inflight[slot] {
		o.pending[slot] = imageRequest{gen: gen, prompt: prompt}
		o.inflightMu.Unlock()
		o.logger.Debug("Image request already in flight, queued newest prompt", "slot", slot)
		return false
	}
	o.inflight[slot] = true
	o.inflightMu.Unlock()

	o.mediaWG.Add(1)
	go func() {
		defer o.mediaWG.Done()
		req := imageRequest{gen: gen, prompt: prompt}
		for {
			o.generateImage(slot, req)
			next, ok := o.nextImage(slot, req)
			if !ok {
				return
			}
			req = next
		}
	}()
	return true
}

func (o *Orchestrator) generateImage(slot imageSlot, req imageRequest) {
	url, err := o.images.GenerateImage(o.mediaCtx, req.prompt)
	switch {
	case errors.Is(err, services.ErrMediaUnavailable):
		return
	case err != nil:
		o.logger.Warn("Image generation failed", "slot", slot, "error", err)
		return
	}

	if slot == slotHome {
		o.store.Dispatch(state.HomeImageResolved{URL: url})
		return
	}
	o.store.DispatchIfCurrent(req.gen, state.ImageResolved{Prompt: req.prompt, URL: url})
}

// nextImage takes the held-back prompt for slot if it is still wanted and differs
// from the one just generated. Otherwise it frees the slot.
func (o *Orchestrator) nextImage(slot imageSlot, done imageRequest) (imageRequest, bool) {
	o.inflightMu.Lock()
	defer o.inflightMu.Unlock()

	req, ok := o.pending[slot]
	delete(o.pending, slot)
	if ok && req.prompt != done.prompt && o.mediaCtx.Err() == nil && o.wantsImage(slot, req) {
		return req, true
	}
	delete(o.inflight, slot)
	return imageRequest{}, false
}

func (o *Orchestrator) wantsImage(slot imageSlot, req imageRequest) bool {
	gs := o.store.State()
	if slot == slotHome {
		return gs.HomeImageURL == ""
	}
	return req.gen == o.store.Generation() && req.prompt == gs.CurrentImagePrompt
}

// IntroVideo returns the intro video URL, reusing the cached one while it is
// fresh. Otherwise it starts a generation and polls until it finishes or ctx ends.
func (o *Orchestrator) IntroVideo(ctx context.Context, prompt string) (string, error) {
	if o.intro != nil {
		if url, ok := o.intro.LoadIntroVideo(ctx); ok {
			return url, nil
		}
	}

	op, err := o.video.StartVideo(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to start intro video: %w", err)
	}
	o.logger.Info("Intro video generation started", "operation", op)

	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}

		url, done, err := o.video.PollVideo(ctx, op)
		if err != nil {
			return "", fmt.Errorf("failed to poll intro video: %w", err)
		}
		if !done {
			continue
		}
		if url == "" {
			return "", fmt.Errorf("intro video %s finished without a URL", op)
		}
		if o.intro != nil {
			if err := o.intro.SaveIntroVideo(ctx, url); err != nil {
				o.logger.Error("Failed to cache intro video", "error", err)
			}
		}
		return url, nil
	}
}

// PlayIntro starts a new chronicle on the prologue and returns its video URL.
// Without a usable video the prologue is skipped and creation opens at once,
// and the returned URL is empty. A chronicle already under way is just opened.
func (o *Orchestrator) PlayIntro(ctx context.Context) (string, error) {
	if o.store.State().GameStarted {
		return "", o.Open(ctx)
	}
	o.store.Dispatch(state.StartGame{ShowIntro: true})

	// skipping the prologue abandons the poll
	introCtx, cancel := context.WithCancel(ctx)
	unsubscribe := o.store.Subscribe(func(gs state.GameState) {
		if !gs.ShowIntro {
			cancel()
		}
	})
	url, err := o.IntroVideo(introCtx, IntroVideoPrompt)
	unsubscribe()
	cancel()

	switch {
	case err == nil:
		return url, nil
	case !o.store.State().ShowIntro, ctx.Err() != nil:
		return "", ctx.Err()
	case !errors.Is(err, services.ErrMediaUnavailable):
		o.logger.Warn("Intro video failed, skipping prologue", "error", err)
	}
	return "", o.SkipIntro(ctx)
}

// SkipIntro ends the prologue and narrates the first creation step.
func (o *Orchestrator) SkipIntro(ctx context.Context) error {
	if o.store.State().ShowIntro {
		o.store.Dispatch(state.IntroFinished{})
	}
	return o.Open(ctx)
}
