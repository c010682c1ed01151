package turn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jwebster45206/echo-chronicle/internal/game"
	"github.com/jwebster45206/echo-chronicle/internal/services"
	"github.com/jwebster45206/echo-chronicle/pkg/chat"
	"github.com/jwebster45206/echo-chronicle/pkg/prompts"
	"github.com/jwebster45206/echo-chronicle/pkg/scenario"
	"github.com/jwebster45206/echo-chronicle/pkg/state"
)

const (
	// DefaultSummaryEvery is the story entry modulus that triggers a summary refresh.
	DefaultSummaryEvery = 7
	// DefaultVideoPollInterval is the delay between intro video status checks.
	DefaultVideoPollInterval = 10 * time.Second
)

// ErrMalformedResponse wraps a generator reply that is not a valid turn result.
var ErrMalformedResponse = errors.New("malformed generator response")

// IntroCache stores the generated intro video URL. *storage.Gateway implements it.
type IntroCache interface {
	LoadIntroVideo(ctx context.Context) (string, bool)
	SaveIntroVideo(ctx context.Context, url string) error
}

// Orchestrator drives request/response cycles with the generator and reconciles
// them into the store. Every exported operation blocks until its turn settles.
type Orchestrator struct {
	store  *game.Store
	gen    services.Generator
	tables *scenario.Tables
	logger *slog.Logger

	images services.ImageService
	video  services.VideoService
	intro  IntroCache

	summaryEvery int
	pollInterval time.Duration

	mediaCtx    context.Context
	cancelMedia context.CancelFunc
	mediaWG     sync.WaitGroup
	inflightMu  sync.Mutex
	inflight    map[imageSlot]bool
	pending     map[imageSlot]imageRequest // newest prompt that arrived while busy
}

// NewOrchestrator wires an orchestrator. gen may be nil when no generator is
// configured; every turn then fails with a configuration error.
func NewOrchestrator(store *game.Store, gen services.Generator, tables *scenario.Tables, logger *slog.Logger) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		store:        store,
		gen:          gen,
		tables:       tables,
		logger:       logger,
		images:       services.NoopMedia{},
		video:        services.NoopMedia{},
		summaryEvery: DefaultSummaryEvery,
		pollInterval: DefaultVideoPollInterval,
		mediaCtx:     ctx,
		cancelMedia:  cancel,
		inflight:     make(map[imageSlot]bool),
		pending:      make(map[imageSlot]imageRequest),
	}
}

// WithMedia sets the image and video services and the intro video cache.
func (o *Orchestrator) WithMedia(images services.ImageService, video services.VideoService, intro IntroCache) *Orchestrator {
	if images != nil {
		o.images = images
	}
	if video != nil {
		o.video = video
	}
	o.intro = intro
	return o
}

func (o *Orchestrator) WithSummaryEvery(n int) *Orchestrator {
	if n > 0 {
		o.summaryEvery = n
	}
	return o
}

func (o *Orchestrator) WithVideoPollInterval(d time.Duration) *Orchestrator {
	if d > 0 {
		o.pollInterval = d
	}
	return o
}

// Close cancels outstanding media requests and waits for them to return.
func (o *Orchestrator) Close() {
	o.cancelMedia()
	o.mediaWG.Wait()
}

// request is one generator-backed turn.
type request struct {
	gen     uint64
	kind    prompts.TurnKind
	context *prompts.PromptContext // nil sends no state block
	args    prompts.Args
}

// begin checks configuration and publishes the start transition.
func (o *Orchestrator) begin(gen uint64) error {
	if o.configMissing() {
		o.fail(gen, fmt.Errorf("turn not started: %w", services.ErrConfigMissing), "")
		return services.ErrConfigMissing
	}
	o.store.DispatchIfCurrent(gen, state.TurnStarted{})
	return nil
}

func (o *Orchestrator) configMissing() bool {
	return o.gen == nil || o.store.State().ConfigMissing
}

// run performs begin and then streams r.
func (o *Orchestrator) run(ctx context.Context, r request) error {
	if err := o.begin(r.gen); err != nil {
		return err
	}
	return o.stream(ctx, r)
}

// stream sends r, publishes the growing buffer after every chunk and settles the turn.
func (o *Orchestrator) stream(ctx context.Context, r request) error {
	log := o.logger.With("turn", string(r.kind), "generation", r.gen)

	b := prompts.New().WithTurn(r.kind).WithArgs(r.args)
	if r.context != nil {
		b = b.WithContext(*r.context)
	} else {
		b = b.WithoutState()
	}
	prompt, err := b.Build()
	if err != nil {
		o.fail(r.gen, err, "")
		return err
	}

	chunks, err := o.gen.Stream(ctx, chat.Request{System: prompts.SystemInstruction, Prompt: prompt, JSON: true})
	if err != nil {
		log.Error("Failed to start generator stream", "error", err)
		o.fail(r.gen, err, "")
		return err
	}

	var buf strings.Builder
	done := false
	for !done {
		var c services.StreamChunk
		var ok bool
		select {
		case <-ctx.Done():
			o.fail(r.gen, ctx.Err(), buf.String())
			return ctx.Err()
		case c, ok = <-chunks:
		}
		switch {
		case !ok:
			done = true
		case c.Err != nil:
			log.Error("Generator stream failed", "error", c.Err, "received", buf.Len())
			o.fail(r.gen, c.Err, buf.String())
			return c.Err
		default:
			if c.Content != "" {
				buf.WriteString(c.Content)
				o.store.DispatchIfCurrent(r.gen, state.StreamUpdated{Buffer: buf.String()})
			}
			done = c.Done
		}
	}

	raw := buf.String()
	result, err := state.ParseTurnResult([]byte(raw))
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrMalformedResponse, err)
		o.fail(r.gen, err, raw)
		return err
	}

	gs, applied := o.store.DispatchIfCurrent(r.gen, state.NewTurnSucceeded(result))
	if !applied {
		log.Info("Discarding turn result after reset")
		return nil
	}
	log.Debug("Turn settled", "story_entries", gs.StoryEntryCount, "choices", len(gs.Choices))

	if prompt, ok := result.ImagePrompt.Replacement(); ok {
		o.requestImage(slotScene, r.gen, prompt)
	}
	return nil
}

// fail publishes a localized failure. raw is the buffer received so far; it is
// logged, never shown.
func (o *Orchestrator) fail(gen uint64, err error, raw string) {
	kind := services.Classify(err)
	if errors.Is(err, ErrMalformedResponse) {
		o.logger.Error("Generator returned an unusable turn result", "error", err, "raw", raw)
	} else {
		o.logger.Error("Turn failed", "error", err, "kind", kind)
	}
	lang := o.store.State().Settings.Language
	o.store.DispatchIfCurrent(gen, state.TurnFailed{
		Message: failureMessage(lang, kind),
		Kind:    kind,
	})
}

// idle reports whether a new operation may start. Requests are never overlapped.
func (o *Orchestrator) idle(op string) (state.GameState, uint64, bool) {
	gen := o.store.Generation()
	gs := o.store.State()
	if gs.IsLoading {
		o.logger.Debug("Ignoring operation while a request is in flight", "operation", op)
		return gs, gen, false
	}
	return gs, gen, true
}

func contextOf(gs state.GameState) *prompts.PromptContext {
	pc := prompts.BuildContext(gs)
	return &pc
}
