package prompts

import (
	"strings"
	"testing"

	"github.com/jwebster45206/echo-chronicle/pkg/state"
)

func TestBuilder_Build(t *testing.T) {
	ctx := BuildContext(state.NewGameState())

	tests := []struct {
		name        string
		builder     *Builder
		contains    []string
		expectError bool
	}{
		{
			name:     "continue",
			builder:  New().WithContext(ctx).WithTurn(TurnContinue).WithArgs(Args{Choice: "Ring the bell"}),
			contains: []string{`The player chose: "Ring the bell"`, "Chronicle state:", "```json", PostPrompt},
		},
		{
			name:        "continue without choice",
			builder:     New().WithContext(ctx).WithTurn(TurnContinue),
			expectError: true,
		},
		{
			name:        "missing context",
			builder:     New().WithTurn(TurnFocusSenses),
			expectError: true,
		},
		{
			name:        "missing kind",
			builder:     New().WithContext(ctx),
			expectError: true,
		},
		{
			name:     "opening without state",
			builder:  New().WithoutState().WithTurn(TurnOpening).WithArgs(Args{Options: []string{"Resonant", "Warden"}}),
			contains: []string{`"Resonant", "Warden"`},
		},
		{
			name:        "synthesis needs two",
			builder:     New().WithContext(ctx).WithTurn(TurnSynthesizeEchoes).WithArgs(Args{Selected: []string{"one"}}),
			expectError: true,
		},
		{
			name:     "fragment synthesis",
			builder:  New().WithContext(ctx).WithTurn(TurnSynthesizeFragments).WithArgs(Args{Selected: []string{"a", "b"}}),
			contains: []string{"consumedFragmentIds"},
		},
		{
			name:     "surge",
			builder:  New().WithContext(ctx).WithTurn(TurnCustomAction).WithArgs(Args{Action: "shatter the glass"}),
			contains: []string{"suggestedResonanceSurgeCooldown", "shatter the glass"},
		},
		{
			name:        "name insight requires attached name",
			builder:     New().WithContext(ctx).WithTurn(TurnNameInsight),
			expectError: true,
		},
		{
			name:     "name insight",
			builder:  New().WithContext(ctx.WithInsightName("Hollow Note")).WithTurn(TurnNameInsight),
			contains: []string{`"namedInsight": "Hollow Note"`},
		},
		{
			name:     "interpret lore",
			builder:  New().WithContext(ctx.WithInterpretation("grief")).WithTurn(TurnInterpretLore),
			contains: []string{`"loreInterpretation": "grief"`},
		},
		{
			name: "begin",
			builder: New().WithContext(ctx).WithTurn(TurnBegin).WithArgs(Args{
				Name: "Ilse", Archetype: "Resonant", Origin: "Bellmarsh", Background: "Tidecaller",
			}),
			contains: []string{`"Ilse" (Resonant, Bellmarsh, Tidecaller)`, "characterConfirmation"},
		},
		{
			name:        "unknown kind",
			builder:     New().WithContext(ctx).WithTurn(TurnKind("dance")),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt, err := tt.builder.Build()
			if tt.expectError {
				if err == nil {
					t.Fatalf("Expected error, got prompt %q", prompt)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(prompt, want) {
					t.Errorf("prompt missing %q:\n%s", want, prompt)
				}
			}
		})
	}
}

func TestBuilder_Deterministic(t *testing.T) {
	gs := state.NewGameState()
	gs.Inventory = map[string]state.InventoryItem{"b": {Count: 1}, "a": {Count: 1}, "c": {Count: 1}}
	build := func() string {
		p, err := New().WithContext(BuildContext(gs)).WithTurn(TurnFocusSenses).Build()
		if err != nil {
			t.Fatalf("Build error: %v", err)
		}
		return p
	}
	first := build()
	for range 10 {
		if build() != first {
			t.Fatal("prompt output is not deterministic")
		}
	}
}

func TestSummaryPrompt(t *testing.T) {
	prev := "They arrived at the marsh."
	p := SummaryPrompt(&prev, []state.HistoryEntry{
		{Type: state.HistoryChoice, Content: "Ring the bell"},
		{Type: state.HistoryStory, Content: "The bell answers."},
		{Type: state.HistorySummary, Content: "old summary"},
	})
	for _, want := range []string{prev, "The player chose: Ring the bell", "- The bell answers."} {
		if !strings.Contains(p, want) {
			t.Errorf("summary prompt missing %q", want)
		}
	}
	if strings.Contains(p, "old summary") {
		t.Errorf("summary entries should not be repeated")
	}
	if strings.Contains(SummaryPrompt(nil, nil), "Previous summary") {
		t.Errorf("nil summary rendered")
	}
}

func TestReflectionPrompt(t *testing.T) {
	p := ReflectionPrompt(`{"renown":1}`)
	if !strings.Contains(p, `{"renown":1}`) || !strings.Contains(p, "inner monologue") {
		t.Errorf("unexpected reflection prompt: %s", p)
	}
}
