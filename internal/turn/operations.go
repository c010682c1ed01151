package turn

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/jwebster45206/echo-chronicle/pkg/chat"
	"github.com/jwebster45206/echo-chronicle/pkg/prompts"
	"github.com/jwebster45206/echo-chronicle/pkg/state"
)

// Continue records choice, refreshes the story summary when it is due, and asks
// for the next scene.
func (o *Orchestrator) Continue(ctx context.Context, choice string) error {
	choice = strings.TrimSpace(choice)
	_, gen, ok := o.idle("continue")
	if !ok || choice == "" {
		return nil
	}
	if o.configMissing() {
		return o.begin(gen)
	}

	o.store.DispatchIfCurrent(gen, state.AdvanceSurgeCooldown{})
	o.store.DispatchIfCurrent(gen, state.NewChoiceMade(choice))
	if err := o.begin(gen); err != nil {
		return err
	}
	o.maybeSummarize(ctx, gen)

	return o.stream(ctx, request{
		gen:     gen,
		kind:    prompts.TurnContinue,
		context: contextOf(o.store.State()),
		args:    prompts.Args{Choice: choice},
	})
}

// maybeSummarize refreshes the story summary on every SummaryEvery-th story entry.
// Failure is logged and the turn continues with the previous summary.
func (o *Orchestrator) maybeSummarize(ctx context.Context, gen uint64) {
	gs := o.store.State()
	n := gs.StoryEntryCount
	if n == 0 || n%o.summaryEvery != 0 || gs.LastSummaryAt == n {
		return
	}

	text, err := o.gen.Generate(ctx, chat.Request{Prompt: prompts.SummaryPrompt(gs.StorySummary, sinceLastSummary(gs.HistoryLog))})
	text = strings.TrimSpace(text)
	if err == nil && text == "" {
		err = fmt.Errorf("empty summary")
	}
	if err != nil {
		o.logger.Warn("Story summary failed, keeping previous summary", "error", err, "story_entries", n)
		return
	}
	o.store.DispatchIfCurrent(gen, state.NewSummaryUpdated(text))
	o.logger.Info("Story summary updated", "story_entries", n, "length", len(text))
}

// sinceLastSummary returns the log entries after the most recent summary entry.
func sinceLastSummary(log []state.HistoryEntry) []state.HistoryEntry {
	for i := len(log) - 1; i >= 0; i-- {
		if log[i].Type == state.HistorySummary {
			return log[i+1:]
		}
	}
	return log
}

// SynthesizeEchoes combines the whispering echoes with the given ids. Fewer than
// two known echoes is a no-op.
func (o *Orchestrator) SynthesizeEchoes(ctx context.Context, ids []string) error {
	gs, gen, ok := o.idle("synthesize_echoes")
	if !ok {
		return nil
	}
	var texts []string
	for _, e := range gs.WhisperingEchoes {
		if slices.Contains(ids, e.ID) {
			texts = append(texts, e.Text)
		}
	}
	if len(texts) < prompts.MinSynthesisInputs {
		return nil
	}
	return o.run(ctx, request{
		gen:     gen,
		kind:    prompts.TurnSynthesizeEchoes,
		context: contextOf(gs),
		args:    prompts.Args{Selected: texts},
	})
}

// SynthesizeFragments joins unlinked lore fragments. Fewer than two is a no-op.
func (o *Orchestrator) SynthesizeFragments(ctx context.Context, ids []string) error {
	gs, gen, ok := o.idle("synthesize_fragments")
	if !ok {
		return nil
	}
	var selected []string
	for _, f := range gs.UnlinkedFragments() {
		if slices.Contains(ids, f.ID) {
			selected = append(selected, fmt.Sprintf("%s (id %s)", f.Title, f.ID))
		}
	}
	if len(selected) < prompts.MinSynthesisInputs {
		return nil
	}
	return o.run(ctx, request{
		gen:     gen,
		kind:    prompts.TurnSynthesizeFragments,
		context: contextOf(gs),
		args:    prompts.Args{Selected: selected},
	})
}

// AttuneArtifact draws a hidden echo out of an inventory item. Items with nothing
// left to reveal are a no-op.
func (o *Orchestrator) AttuneArtifact(ctx context.Context, item string) error {
	gs, gen, ok := o.idle("attune")
	if !ok {
		return nil
	}
	it, found := gs.Inventory[item]
	if !found || !it.HasUndiscoveredEchoes() {
		return nil
	}
	return o.run(ctx, request{
		gen:     gen,
		kind:    prompts.TurnAttune,
		context: contextOf(gs),
		args:    prompts.Args{Item: item},
	})
}

func (o *Orchestrator) FocusSenses(ctx context.Context) error {
	gs, gen, ok := o.idle("focus_senses")
	if !ok || gs.Profile == nil {
		return nil
	}
	return o.run(ctx, request{gen: gen, kind: prompts.TurnFocusSenses, context: contextOf(gs)})
}

// CustomAction spends the resonance surge on a free-form action. It is a no-op
// while the surge is cooling down.
func (o *Orchestrator) CustomAction(ctx context.Context, action string) error {
	action = strings.TrimSpace(action)
	gs, gen, ok := o.idle("custom_action")
	if !ok || action == "" || !gs.IsResonanceSurgeAvailable {
		return nil
	}
	return o.run(ctx, request{
		gen:     gen,
		kind:    prompts.TurnCustomAction,
		context: contextOf(gs),
		args:    prompts.Args{Action: action},
	})
}

// NameInsight answers a pending insight-naming prompt. The prompt is cleared as
// soon as the name is submitted.
func (o *Orchestrator) NameInsight(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	gs, gen, ok := o.idle("name_insight")
	if !ok || name == "" || gs.InsightToName == nil {
		return nil
	}
	pc := prompts.BuildContext(gs).WithInsightName(name)
	o.store.DispatchIfCurrent(gen, state.ClearInsightToName{})
	return o.run(ctx, request{gen: gen, kind: prompts.TurnNameInsight, context: &pc})
}

// InterpretLore answers a pending lore interpretation offer. The offer is cleared
// as soon as the interpretation is submitted.
func (o *Orchestrator) InterpretLore(ctx context.Context, interpretation string) error {
	interpretation = strings.TrimSpace(interpretation)
	gs, gen, ok := o.idle("interpret_lore")
	if !ok || interpretation == "" || gs.LoreToInterpret == nil {
		return nil
	}
	pc := prompts.BuildContext(gs).WithInterpretation(interpretation)
	o.store.DispatchIfCurrent(gen, state.ClearLoreInterpretation{})
	return o.run(ctx, request{gen: gen, kind: prompts.TurnInterpretLore, context: &pc})
}

// RequestReflection asks for a short plain-text inner monologue. Choices are left
// in place since the scene does not advance.
func (o *Orchestrator) RequestReflection(ctx context.Context) error {
	gs, gen, ok := o.idle("reflection")
	if !ok || gs.Profile == nil {
		return nil
	}
	if o.configMissing() {
		return o.begin(gen)
	}

	js, err := prompts.BuildContext(gs).JSON()
	if err != nil {
		o.fail(gen, err, "")
		return err
	}
	o.store.DispatchIfCurrent(gen, state.ReflectionStarted{})

	text, err := o.gen.Generate(ctx, chat.Request{System: prompts.SystemInstruction, Prompt: prompts.ReflectionPrompt(js)})
	text = strings.TrimSpace(text)
	if err == nil && text == "" {
		err = fmt.Errorf("empty reflection")
	}
	if err != nil {
		o.fail(gen, err, "")
		return err
	}
	o.store.DispatchIfCurrent(gen, state.ReflectionReceived{Text: text})
	return nil
}

// ChooseByText routes a clicked choice to the creation step or to Continue,
// depending on the current phase.
func (o *Orchestrator) ChooseByText(ctx context.Context, choice string) error {
	switch o.store.State().Phase() {
	case state.PhaseCreationArchetype:
		return o.ChooseArchetype(ctx, choice)
	case state.PhaseCreationOrigin:
		return o.ChooseOrigin(ctx, choice)
	case state.PhaseCreationBackground:
		return o.ChooseBackground(ctx, choice)
	case state.PhaseCreationName:
		return o.ChooseName(ctx, choice)
	case state.PhasePlaying:
		return o.Continue(ctx, choice)
	}
	return nil
}
