package turn

import (
	"context"

	"github.com/jwebster45206/echo-chronicle/pkg/prompts"
	"github.com/jwebster45206/echo-chronicle/pkg/scenario"
	"github.com/jwebster45206/echo-chronicle/pkg/state"
	"github.com/jwebster45206/echo-chronicle/pkg/textfilter"
)

// Character creation is narrated by the generator, but which choices are legal
// next always comes from the creation tables.

// Open starts a chronicle if needed and narrates the archetype choice.
func (o *Orchestrator) Open(ctx context.Context) error {
	gs, gen, ok := o.idle("opening")
	if !ok {
		return nil
	}
	if !gs.GameStarted {
		gs = o.store.Dispatch(state.StartGame{})
	}
	if gs.Phase() != state.PhaseCreationArchetype {
		o.logger.Warn("Opening requested outside archetype step", "phase", gs.Phase())
		return nil
	}
	return o.narrateArchetypes(ctx, gen)
}

func (o *Orchestrator) ChooseArchetype(ctx context.Context, choice string) error {
	gs, gen, ok := o.idle("creation_archetype")
	if !ok || gs.Phase() != state.PhaseCreationArchetype {
		return nil
	}
	arch, found := o.tables.FindArchetype(choice)
	if !found {
		o.logger.Warn("Archetype choice not in creation tables", "choice", choice)
		return nil
	}
	o.store.DispatchIfCurrent(gen, state.ArchetypeSelected{ID: arch.ID})
	return o.narrateOrigins(ctx, gen)
}

func (o *Orchestrator) ChooseOrigin(ctx context.Context, choice string) error {
	gs, gen, ok := o.idle("creation_origin")
	if !ok || gs.Phase() != state.PhaseCreationOrigin {
		return nil
	}
	origin, found := o.tables.FindOrigin(gs.Creation.ArchetypeID, choice)
	if !found {
		o.logger.Warn("Origin choice not legal for archetype", "choice", choice, "archetype", gs.Creation.ArchetypeID)
		return nil
	}
	o.store.DispatchIfCurrent(gen, state.OriginSelected{ID: origin.ID})
	return o.narrateBackgrounds(ctx, gen)
}

func (o *Orchestrator) ChooseBackground(ctx context.Context, choice string) error {
	gs, gen, ok := o.idle("creation_background")
	if !ok || gs.Phase() != state.PhaseCreationBackground {
		return nil
	}
	bg, found := o.tables.FindBackground(gs.Creation.OriginID, choice)
	if !found {
		o.logger.Warn("Background choice not legal for origin", "choice", choice, "origin", gs.Creation.OriginID)
		return nil
	}
	o.store.DispatchIfCurrent(gen, state.BackgroundSelected{ID: bg.ID})
	return o.narrateNaming(ctx, gen)
}

// ChooseName completes the character and opens the first scene.
func (o *Orchestrator) ChooseName(ctx context.Context, name string) error {
	gs, gen, ok := o.idle("creation_name")
	if !ok || gs.Phase() != state.PhaseCreationName {
		return nil
	}
	name = textfilter.TitleName(name)
	if name == "" {
		return nil
	}

	arch, _ := o.tables.Archetype(gs.Creation.ArchetypeID)
	origin, _ := o.tables.Origin(gs.Creation.OriginID)
	bg, _ := o.tables.Background(gs.Creation.BackgroundID)
	o.store.DispatchIfCurrent(gen, state.CharacterNamed{Profile: state.CharacterProfile{
		Archetype:  arch.Name,
		Origin:     origin.Name,
		Background: bg.Name,
		Name:       name,
	}})
	return o.narrateBeginning(ctx, gen)
}

// Retry re-sends the request for the current step after a failed turn. It does
// nothing while choices are on screen. A continue turn is retried with the recorded
// choice, which is not appended to the history a second time.
func (o *Orchestrator) Retry(ctx context.Context) error {
	gs, gen, ok := o.idle("retry")
	if !ok || len(gs.Choices) > 0 {
		return nil
	}
	switch gs.Phase() {
	case state.PhaseCreationArchetype:
		return o.narrateArchetypes(ctx, gen)
	case state.PhaseCreationOrigin:
		return o.narrateOrigins(ctx, gen)
	case state.PhaseCreationBackground:
		return o.narrateBackgrounds(ctx, gen)
	case state.PhaseCreationName:
		return o.narrateNaming(ctx, gen)
	case state.PhasePlaying:
		if gs.LastChoice != "" {
			return o.run(ctx, request{
				gen:     gen,
				kind:    prompts.TurnContinue,
				context: contextOf(gs),
				args:    prompts.Args{Choice: gs.LastChoice},
			})
		}
		if gs.Profile != nil && gs.Profile.Confirmation == "" {
			return o.narrateBeginning(ctx, gen)
		}
	}
	return nil
}

func (o *Orchestrator) narrateArchetypes(ctx context.Context, gen uint64) error {
	return o.run(ctx, request{
		gen:  gen,
		kind: prompts.TurnOpening,
		args: prompts.Args{Options: names(o.tables.Archetypes, func(a scenario.Archetype) string { return a.Name })},
	})
}

func (o *Orchestrator) narrateOrigins(ctx context.Context, gen uint64) error {
	gs := o.store.State()
	arch, _ := o.tables.Archetype(gs.Creation.ArchetypeID)
	return o.run(ctx, request{
		gen:     gen,
		kind:    prompts.TurnCreationOrigin,
		context: contextOf(gs),
		args: prompts.Args{
			Choice:  arch.Name,
			Options: names(o.tables.OriginsFor(arch.ID), func(x scenario.Origin) string { return x.Name }),
		},
	})
}

func (o *Orchestrator) narrateBackgrounds(ctx context.Context, gen uint64) error {
	gs := o.store.State()
	origin, _ := o.tables.Origin(gs.Creation.OriginID)
	return o.run(ctx, request{
		gen:     gen,
		kind:    prompts.TurnCreationBackground,
		context: contextOf(gs),
		args: prompts.Args{
			Choice:  origin.Name,
			Options: names(o.tables.BackgroundsFor(origin.ID), func(x scenario.Background) string { return x.Name }),
		},
	})
}

func (o *Orchestrator) narrateNaming(ctx context.Context, gen uint64) error {
	gs := o.store.State()
	bg, _ := o.tables.Background(gs.Creation.BackgroundID)
	return o.run(ctx, request{
		gen:     gen,
		kind:    prompts.TurnCreationName,
		context: contextOf(gs),
		args:    prompts.Args{Choice: bg.Name},
	})
}

func (o *Orchestrator) narrateBeginning(ctx context.Context, gen uint64) error {
	gs := o.store.State()
	if gs.Profile == nil {
		return nil
	}
	p := gs.Profile
	return o.run(ctx, request{
		gen:     gen,
		kind:    prompts.TurnBegin,
		context: contextOf(gs),
		args: prompts.Args{
			Name:       p.Name,
			Archetype:  p.Archetype,
			Origin:     p.Origin,
			Background: p.Background,
		},
	})
}

func names[T any](items []T, name func(T) string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = name(it)
	}
	return out
}
