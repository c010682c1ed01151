package prompts

import (
	"fmt"
	"strings"
)

// TurnKind selects the prompt template for one turn.
type TurnKind string

const (
	TurnOpening             TurnKind = "opening"
	TurnCreationOrigin      TurnKind = "creation_origin"
	TurnCreationBackground  TurnKind = "creation_background"
	TurnCreationName        TurnKind = "creation_name"
	TurnBegin               TurnKind = "begin"
	TurnContinue            TurnKind = "continue"
	TurnSynthesizeEchoes    TurnKind = "synthesize_echoes"
	TurnSynthesizeFragments TurnKind = "synthesize_fragments"
	TurnAttune              TurnKind = "attune"
	TurnFocusSenses         TurnKind = "focus_senses"
	TurnCustomAction        TurnKind = "custom_action"
	TurnNameInsight         TurnKind = "name_insight"
	TurnInterpretLore       TurnKind = "interpret_lore"
)

// MinSynthesisInputs is the fewest echoes or fragments a synthesis accepts.
const MinSynthesisInputs = 2

// Args carries the operation-specific inputs of a turn.
type Args struct {
	// Choice is the continue choice, or the creation selection being narrated.
	Choice string

	// Options are the legal next choices during character creation.
	Options []string

	// Selected holds the echo texts or fragment titles being combined.
	Selected []string

	Item   string
	Action string

	// Name, Archetype, Origin and Background describe the finished character for TurnBegin.
	Name       string
	Archetype  string
	Origin     string
	Background string
}

// Builder assembles turn prompts using a fluent interface.
type Builder struct {
	ctx     *PromptContext
	kind    TurnKind
	args    Args
	noState bool
}

// New creates a new prompt builder.
func New() *Builder {
	return &Builder{}
}

// WithContext sets the state projection included in the prompt.
func (b *Builder) WithContext(c PromptContext) *Builder {
	b.ctx = &c
	return b
}

func (b *Builder) WithTurn(kind TurnKind) *Builder {
	b.kind = kind
	return b
}

func (b *Builder) WithArgs(args Args) *Builder {
	b.args = args
	return b
}

// WithoutState omits the state block, which the opening turn has no use for.
func (b *Builder) WithoutState() *Builder {
	b.noState = true
	return b
}

// Build renders the prompt.
func (b *Builder) Build() (string, error) {
	if b.kind == "" {
		return "", fmt.Errorf("turn kind is required")
	}
	if b.ctx == nil && !b.noState {
		return "", fmt.Errorf("prompt context is required")
	}

	task, err := b.task()
	if err != nil {
		return "", fmt.Errorf("error building %s prompt: %w", b.kind, err)
	}

	var sb strings.Builder
	sb.WriteString(task)
	if !b.noState {
		js, err := b.ctx.JSON()
		if err != nil {
			return "", err
		}
		sb.WriteString("\n\n")
		fmt.Fprintf(&sb, ContextTemplate, js)
	}
	sb.WriteString("\n\n")
	sb.WriteString(PostPrompt)
	return sb.String(), nil
}

func (b *Builder) task() (string, error) {
	a := b.args
	switch b.kind {
	case TurnOpening:
		if len(a.Options) == 0 {
			return "", fmt.Errorf("options are required")
		}
		return fmt.Sprintf(openingTemplate, quoteList(a.Options)), nil
	case TurnCreationOrigin:
		if a.Choice == "" || len(a.Options) == 0 {
			return "", fmt.Errorf("choice and options are required")
		}
		return fmt.Sprintf(originTemplate, a.Choice, quoteList(a.Options)), nil
	case TurnCreationBackground:
		if a.Choice == "" || len(a.Options) == 0 {
			return "", fmt.Errorf("choice and options are required")
		}
		return fmt.Sprintf(backgroundTemplate, a.Choice, quoteList(a.Options)), nil
	case TurnCreationName:
		if a.Choice == "" {
			return "", fmt.Errorf("choice is required")
		}
		return fmt.Sprintf(nameTemplate, a.Choice), nil
	case TurnBegin:
		if a.Name == "" {
			return "", fmt.Errorf("name is required")
		}
		return fmt.Sprintf(beginTemplate, a.Name, a.Archetype, a.Origin, a.Background), nil
	case TurnContinue:
		if a.Choice == "" {
			return "", fmt.Errorf("choice is required")
		}
		return fmt.Sprintf(continueTemplate, a.Choice), nil
	case TurnSynthesizeEchoes:
		if len(a.Selected) < MinSynthesisInputs {
			return "", fmt.Errorf("at least %d echoes are required", MinSynthesisInputs)
		}
		return fmt.Sprintf(synthesizeEchoesTemplate, quoteList(a.Selected)), nil
	case TurnSynthesizeFragments:
		if len(a.Selected) < MinSynthesisInputs {
			return "", fmt.Errorf("at least %d fragments are required", MinSynthesisInputs)
		}
		return fmt.Sprintf(synthesizeFragmentsTemplate, quoteList(a.Selected)), nil
	case TurnAttune:
		if a.Item == "" {
			return "", fmt.Errorf("item is required")
		}
		return fmt.Sprintf(attuneTemplate, a.Item), nil
	case TurnFocusSenses:
		return focusSensesTemplate, nil
	case TurnCustomAction:
		if a.Action == "" {
			return "", fmt.Errorf("action is required")
		}
		return fmt.Sprintf(customActionTemplate, a.Action), nil
	case TurnNameInsight:
		if b.ctx == nil || b.ctx.NamedInsight == "" {
			return "", fmt.Errorf("context has no named insight")
		}
		return fmt.Sprintf(nameInsightTemplate, b.ctx.NamedInsight), nil
	case TurnInterpretLore:
		if b.ctx == nil || b.ctx.LoreInterpretation == "" {
			return "", fmt.Errorf("context has no lore interpretation")
		}
		return fmt.Sprintf(interpretLoreTemplate, b.ctx.LoreInterpretation), nil
	}
	return "", fmt.Errorf("unknown turn kind %q", b.kind)
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(quoted, ", ")
}
