package turn

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/echo-chronicle/pkg/state"
)

func scene(text string, choices ...string) string {
	quoted := "["
	for i, c := range choices {
		if i > 0 {
			quoted += ","
		}
		quoted += fmt.Sprintf("%q", c)
	}
	return fmt.Sprintf(`{"sceneText":%q,"choices":%s]}`, text, quoted)
}

func TestOrchestrator_CreationFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	arch, ok := h.tables.Archetype("cartographer")
	require.True(t, ok)
	origin := h.tables.OriginsFor(arch.ID)[0]
	bg := h.tables.BackgroundsFor(origin.ID)[0]

	h.llm.QueueResponses(
		scene("Who are you?", "Resonant", "Silent Cartographer", "Dissonance Warden"),
		scene("Where do you come from?", origin.Name),
		scene("What did you do there?", bg.Name),
		scene("What is your name?"),
		`{"sceneText":"Your chronicle begins.","choices":["Step outside"],"characterConfirmation":"A cartographer of silences."}`,
	)

	require.NoError(t, h.orch.Open(ctx))
	assert.Equal(t, state.PhaseCreationArchetype, h.store.State().Phase())
	assert.Contains(t, h.llm.LastStreamRequest().Prompt, `"Silent Cartographer"`)
	assert.NotContains(t, h.llm.LastStreamRequest().Prompt, "Chronicle state:", "opening has no state block")

	require.NoError(t, h.orch.ChooseByText(ctx, "silent cartographer"))
	assert.Equal(t, state.PhaseCreationOrigin, h.store.State().Phase())
	assert.Equal(t, arch.ID, h.store.State().Creation.ArchetypeID)
	for _, o := range h.tables.OriginsFor(arch.ID) {
		assert.Contains(t, h.llm.LastStreamRequest().Prompt, fmt.Sprintf("%q", o.Name))
	}

	require.NoError(t, h.orch.ChooseByText(ctx, origin.Name))
	assert.Equal(t, state.PhaseCreationBackground, h.store.State().Phase())

	require.NoError(t, h.orch.ChooseByText(ctx, bg.Name))
	assert.Equal(t, state.PhaseCreationName, h.store.State().Phase())
	assert.Empty(t, h.store.State().Choices)

	require.NoError(t, h.orch.ChooseByText(ctx, "  ilse   marr "))
	gs := h.store.State()
	require.NotNil(t, gs.Profile)
	assert.Equal(t, "Ilse Marr", gs.Profile.Name)
	assert.Equal(t, arch.Name, gs.Profile.Archetype)
	assert.Equal(t, origin.Name, gs.Profile.Origin)
	assert.Equal(t, bg.Name, gs.Profile.Background)
	assert.Equal(t, "A cartographer of silences.", gs.Profile.Confirmation)
	assert.Equal(t, state.PhasePlaying, gs.Phase())
	assert.Equal(t, []string{"Step outside"}, gs.Choices)
	assert.Equal(t, 5, h.llm.StreamCallCount())
}

func TestOrchestrator_CreationMismatchIsNoOp(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.orch.Open(ctx))
	calls := h.llm.StreamCallCount()

	require.NoError(t, h.orch.ChooseArchetype(ctx, "Pirate Queen"))
	assert.Equal(t, calls, h.llm.StreamCallCount())
	assert.Empty(t, h.store.State().Creation.ArchetypeID)

	// an origin that exists but is not legal for the archetype
	require.NoError(t, h.orch.ChooseArchetype(ctx, "Resonant"))
	arch, _ := h.tables.Archetype("resonant")
	for _, o := range h.tables.Origins {
		legal := false
		for _, id := range arch.Origins {
			legal = legal || id == o.ID
		}
		if !legal {
			calls = h.llm.StreamCallCount()
			require.NoError(t, h.orch.ChooseOrigin(ctx, o.Name))
			assert.Equal(t, calls, h.llm.StreamCallCount())
			assert.Empty(t, h.store.State().Creation.OriginID)
		}
	}
}

func TestOrchestrator_ChooseNameBlank(t *testing.T) {
	h := newHarness(t)
	h.store.Dispatch(state.StartGame{})
	h.store.Dispatch(state.ArchetypeSelected{ID: "resonant"})
	arch, _ := h.tables.Archetype("resonant")
	h.store.Dispatch(state.OriginSelected{ID: arch.Origins[0]})
	origin, _ := h.tables.Origin(arch.Origins[0])
	h.store.Dispatch(state.BackgroundSelected{ID: origin.Backgrounds[0]})
	require.Equal(t, state.PhaseCreationName, h.store.State().Phase())

	require.NoError(t, h.orch.ChooseName(context.Background(), " \t "))
	assert.Nil(t, h.store.State().Profile)
	assert.Equal(t, 0, h.llm.StreamCallCount())
}

func TestOrchestrator_RetryCreationStep(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.store.Dispatch(state.StartGame{})
	h.store.Dispatch(state.ArchetypeSelected{ID: "resonant"})

	h.llm.SetStreamError(fmt.Errorf("overloaded"))
	require.Error(t, h.orch.Retry(ctx))
	assert.Equal(t, state.PhaseError, h.store.State().Phase())

	h.store.Dispatch(state.DismissError{})
	h.llm.StreamFunc = nil
	h.llm.QueueResponses(scene("Where do you come from?", "Bellmarsh"))
	require.NoError(t, h.orch.Retry(ctx))

	gs := h.store.State()
	assert.Equal(t, state.PhaseCreationOrigin, gs.Phase())
	assert.Equal(t, []string{"Bellmarsh"}, gs.Choices)
	assert.Contains(t, h.llm.LastStreamRequest().Prompt, `"Resonant"`)

	// choices on screen: nothing to retry
	require.NoError(t, h.orch.Retry(ctx))
	assert.Equal(t, 2, h.llm.StreamCallCount())
}
