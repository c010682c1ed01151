package state

// Phase is the narrative phase derived from game state. It is never stored.
type Phase string

const (
	PhaseHome                       Phase = "home"
	PhaseIntroVideo                 Phase = "intro_video"
	PhaseCreationArchetype          Phase = "creation_archetype"
	PhaseCreationOrigin             Phase = "creation_origin"
	PhaseCreationBackground         Phase = "creation_background"
	PhaseCreationName               Phase = "creation_name"
	PhasePlaying                    Phase = "playing"
	PhaseAwaitingNameInput          Phase = "awaiting_name_input"
	PhaseAwaitingLoreInterpretation Phase = "awaiting_lore_interpretation"
	PhaseError                      Phase = "error"
)

// Phase derives the current phase. An error message overrides everything else until
// it is dismissed.
func (gs GameState) Phase() Phase {
	switch {
	case gs.Error != "":
		return PhaseError
	case !gs.GameStarted:
		return PhaseHome
	case gs.ShowIntro:
		return PhaseIntroVideo
	case gs.Profile == nil:
		return gs.creationPhase()
	case gs.InsightToName != nil:
		return PhaseAwaitingNameInput
	case gs.AwaitingLoreInterpretation && gs.LoreToInterpret != nil:
		return PhaseAwaitingLoreInterpretation
	default:
		return PhasePlaying
	}
}

func (gs GameState) creationPhase() Phase {
	switch {
	case gs.Creation.ArchetypeID == "":
		return PhaseCreationArchetype
	case gs.Creation.OriginID == "":
		return PhaseCreationOrigin
	case gs.Creation.BackgroundID == "":
		return PhaseCreationBackground
	default:
		return PhaseCreationName
	}
}

// IsCreating reports whether the player is still in character creation.
func (p Phase) IsCreating() bool {
	switch p {
	case PhaseCreationArchetype, PhaseCreationOrigin, PhaseCreationBackground, PhaseCreationName:
		return true
	}
	return false
}
