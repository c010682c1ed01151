package prompts

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/echo-chronicle/pkg/state"
)

// SystemInstruction is sent with every generator call that expects a turn result.
const SystemInstruction = `You are the Game Master of Echo Chronicle, a dark narrative game about a world whose memories linger as echoes in objects, places and people. You narrate in second person, present tense. You never break the fourth wall and never mention that you are an AI.

### Response format
Respond with a single JSON object and nothing else. No markdown, no commentary.
Required fields:
- "sceneText": string, 1 to 3 short paragraphs of narration.
- "choices": array of 2 to 4 short strings the player can choose next.
Optional fields, include them only when they change:
- "imagePrompt": string describing a new illustration, or null to keep the current one. Only send a new prompt when the scene changes significantly.
- "whisperingEchoes": [{"id","text"}] echoes audible in the scene right now.
- "newLoreEntries": [{"id","title","content"}]
- "loreFragments": [{"id","title","content"}]
- "consumedFragmentIds": [string] fragments used up by a synthesis.
- "itemsGranted": [{"name","count","description","echoes":{"known":[string],"total":int},"isHeirloom"}]
- "discoveredEchoes": [{"item","echoes":[string]}] echoes revealed by attunement.
- "playerConditionUpdates": [{"type","description","duration"}]
- "renownChange": integer, positive or negative.
- "echoicSignatureUpdate": string.
- "newLocationDiscovered": {"id","name","description"}
- "currentLocationId": string id of an already discovered location.
- "suggestedResonanceSurgeCooldown": integer number of turns.
- "loreInterpretationOffer": {"loreId","title","options":[string]}
- "insightToName": {"context"} when the player may name something they perceived.
- "dreamSequence": string shown once as a vision.
- "rumors": [string]
- "characterConfirmation": string, only during character creation.
- "activeDissonantAberrations", "activeDissonanceBlights", "activeEchoHotspots", "activeMemoryPhantoms": [{"id","name","description","intensity"}] everything present in the scene now.
- "devouringSilenceZone": {"id","name","description","intensity"} or omit.

### Rules
- Never repeat an echo the player already knows. Inventory entries list what each item has already revealed.
- Keep ids stable across turns when you refer to the same lore, fragment, location or presence.
- Only offer a resonance surge when "resonanceSurgeAvailable" is true.`

// ContextTemplate wraps the JSON context in every turn prompt.
const ContextTemplate = "Chronicle state:\n```json\n%s\n```"

// PostPrompt closes every turn prompt.
const PostPrompt = "Respond only with the JSON object described in your instructions."

const (
	openingTemplate = `Begin a new chronicle. Describe, in one evocative paragraph, the moment a stranger wakes to the echoes of a fading world, then ask who they are.
Offer exactly these archetypes as choices, with the text unchanged: %s.`

	originTemplate = `The player chose the archetype "%s". Narrate how that calling shaped them, then ask where they come from.
Offer exactly these origins as choices, with the text unchanged: %s.`

	backgroundTemplate = `The player's origin is "%s". Narrate a memory of that place, then ask what they did there.
Offer exactly these backgrounds as choices, with the text unchanged: %s.`

	nameTemplate = `The player's background is "%s". Narrate the last moment before their story begins, then ask for their name.
Return an empty "choices" array; the player will type a name.`

	beginTemplate = `The player named their character "%s" (%s, %s, %s). Echo the character back in "characterConfirmation" in one sentence, then open the first scene of their chronicle with choices.`

	continueTemplate = `The player chose: "%s". Continue the story from the current scene.`

	synthesizeEchoesTemplate = `The player weaves these echoes together: %s. Reveal what they mean in combination, usually as a new lore entry.`

	synthesizeFragmentsTemplate = `The player joins these lore fragments: %s. Produce the completed lore entry and list every fragment used in "consumedFragmentIds".`

	attuneTemplate = `The player attunes to the item "%s". Reveal one echo it has not yet revealed via "discoveredEchoes", and narrate the memory.`

	focusSensesTemplate = `The player stops and focuses their senses on the surroundings. Describe subtle echoes, hidden presences and details they missed.`

	customActionTemplate = `The player unleashes a resonance surge and attempts: "%s". Resolve it dramatically. You must include "suggestedResonanceSurgeCooldown".`

	nameInsightTemplate = `The player names the insight "%s" (see "namedInsight"). Weave that name into the world's memory and continue.`

	interpretLoreTemplate = `The player interprets the lore as: "%s" (see "loreInterpretation"). Show how that reading colours what happens next.`
)

// SummaryPrompt asks for an updated prose summary of the chronicle. It is sent
// without the turn system instruction and expects plain text back.
func SummaryPrompt(previous *string, recent []state.HistoryEntry) string {
	var sb strings.Builder
	sb.WriteString("You maintain the running summary of an interactive story. Write an updated summary in at most 200 words of plain prose. Keep names, places, items and unresolved threads. Do not use JSON or markdown.\n\n")
	if previous != nil && *previous != "" {
		sb.WriteString("Previous summary:\n")
		sb.WriteString(*previous)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Recent events:\n")
	for _, e := range recent {
		switch e.Type {
		case state.HistoryChoice:
			fmt.Fprintf(&sb, "- The player chose: %s\n", e.Content)
		case state.HistorySummary:
			// already folded into the previous summary
		default:
			fmt.Fprintf(&sb, "- %s\n", e.Content)
		}
	}
	return sb.String()
}

// ReflectionPrompt asks the character to reflect on their journey in plain text.
func ReflectionPrompt(contextJSON string) string {
	return "Write a short inner monologue, at most 120 words of plain text, in which the player character reflects on their journey so far and what still troubles them. No JSON.\n\n" +
		fmt.Sprintf(ContextTemplate, contextJSON)
}
