package runner

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/echo-chronicle/internal/game"
	"github.com/jwebster45206/echo-chronicle/internal/services"
	"github.com/jwebster45206/echo-chronicle/internal/storage"
	"github.com/jwebster45206/echo-chronicle/internal/turn"
	"github.com/jwebster45206/echo-chronicle/pkg/scenario"
	"github.com/jwebster45206/echo-chronicle/pkg/state"
	kv "github.com/jwebster45206/echo-chronicle/pkg/storage"
)

func newTestRunner(t *testing.T, responses ...string) *Runner {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := game.NewStore(storage.NewGateway(kv.NewMockStorage(), log), state.NewReducer(state.DefaultHistoryCap), log)
	store.Init(context.Background(), false)

	tables, err := scenario.Default()
	require.NoError(t, err)

	orch := turn.NewOrchestrator(store, services.NewMockLLMAPI(responses...), tables, log)
	t.Cleanup(orch.Close)
	return NewRunner(orch, store)
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
func intPtr(i int) *int       { return &i }

func TestRunSuite_CreationThroughFirstTurn(t *testing.T) {
	r := newTestRunner(t,
		`{"sceneText":"Who are you?","choices":["Resonant","Dissonance Warden"]}`,
		`{"sceneText":"Where from?","choices":["Bellmarsh"]}`,
		`{"sceneText":"What did you do?","choices":["Tidecaller"]}`,
		`{"sceneText":"Your name?","choices":[]}`,
		`{"sceneText":"The tide answers you.","choices":["Wade in","Wait"]}`,
		`{"sceneText":"Cold water, warm light.","choices":["Go deeper"]}`,
	)

	suite := TestSuite{
		Name: "creation",
		Steps: []TestStep{
			{Op: OpOpen, Expectations: Expectations{Phase: strPtr(string(state.PhaseCreationArchetype)), MinChoices: intPtr(2)}},
			{Op: OpChoose, Input: "1", Expectations: Expectations{Phase: strPtr(string(state.PhaseCreationOrigin))}},
			{Op: OpChoose, Input: "1", Expectations: Expectations{Phase: strPtr(string(state.PhaseCreationBackground))}},
			{Op: OpChoose, Input: "1", Expectations: Expectations{Phase: strPtr(string(state.PhaseCreationName))}},
			{Op: OpChoose, Input: "ilse", Expectations: Expectations{HasProfile: boolPtr(true), SceneContains: []string{"tide"}}},
			{Op: OpChoose, Input: "1", Expectations: Expectations{Error: boolPtr(false), SceneRegex: `^Cold water`}},
		},
	}

	result, err := r.RunSuite(context.Background(), suite)
	require.NoError(t, err)
	require.Len(t, result.Results, 6)
	for _, res := range result.Results {
		assert.True(t, res.Success, "%s: %v", res.StepName, res.Error)
	}
	assert.Equal(t, "Ilse", r.Store.State().Profile.Name)
	assert.Equal(t, "Wade in", r.Store.State().LastChoice)
}

func TestRunSuite_ExitOnFirstFailure(t *testing.T) {
	r := newTestRunner(t)
	r.ErrorHandlingMode = ErrorHandlingExit

	suite := TestSuite{
		Name: "fails",
		Steps: []TestStep{
			{Op: OpOpen, Expectations: Expectations{Phase: strPtr(string(state.PhasePlaying))}},
			{Op: OpChoose, Input: "1"},
		},
	}

	result, err := r.RunSuite(context.Background(), suite)
	require.Error(t, err)
	assert.Len(t, result.Results, 1)
	assert.Contains(t, err.Error(), "expected phase playing")
}

func TestRunSuite_UnknownOp(t *testing.T) {
	r := newTestRunner(t)
	_, err := r.RunSuite(context.Background(), TestSuite{Name: "bad", Steps: []TestStep{{Op: "dance"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown op "dance"`)
}

func TestCheckExpectations(t *testing.T) {
	gs := state.NewGameState()
	gs.SceneText = "The Bell of Bellmarsh tolls."
	gs.Choices = []string{"Listen"}

	assert.NoError(t, CheckExpectations(gs, Expectations{
		SceneContains:    []string{"bell of bellmarsh"},
		SceneNotContains: []string{"dragon"},
		SceneMinLength:   intPtr(5),
		MinChoices:       intPtr(1),
		StoryEntryCount:  intPtr(0),
	}))

	err := CheckExpectations(gs, Expectations{SceneMaxLength: intPtr(5), MinChoices: intPtr(3), SceneRegex: "("})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scene longer than 5")
	assert.Contains(t, err.Error(), "at least 3 choices")
	assert.Contains(t, err.Error(), "invalid scene_regex")
}

func TestLoadTestSuiteWithExpansion(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	write("a.yaml", "name: a\nsteps:\n  - op: open\n    expect:\n      phase: creation_archetype\n")
	write("b.yaml", "name: b\nsteps:\n  - op: retry\n")
	write("all.yaml", "name: all\ncases: [a.yaml, b.yaml]\n")

	jobs, err := LoadTestSuiteWithExpansion(filepath.Join(dir, "all.yaml"), dir)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "a", jobs[0].Name)
	require.NotNil(t, jobs[0].Suite.Steps[0].Expectations.Phase)
	assert.Equal(t, "creation_archetype", *jobs[0].Suite.Steps[0].Expectations.Phase)

	write("broken.yaml", "name: broken\ncases: [missing.yaml]\n")
	_, err = LoadTestSuiteWithExpansion(filepath.Join(dir, "broken.yaml"), dir)
	assert.Error(t, err)
}
