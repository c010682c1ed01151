package state

import (
	"time"

	"github.com/google/uuid"
)

// Action is a closed set of state transitions. Only types in this package implement it,
// and Reduce handles every one of them.
type Action interface {
	isAction()
}

// Flow

type StartGame struct {
	ShowIntro bool
}

type IntroFinished struct{}

type Reset struct{}

type SetTransitioning struct {
	Transitioning bool
}

type SetConfigMissing struct {
	Missing bool
}

// Turn lifecycle

// TurnStarted marks the start of a generator request. Choices are cleared so stale
// ones cannot be picked while it runs.
type TurnStarted struct{}

// StreamUpdated publishes the accumulated raw buffer of an in-flight request.
type StreamUpdated struct {
	Buffer string
}

// TurnSucceeded carries a parsed turn result into the merge.
type TurnSucceeded struct {
	Result    *TurnResult
	EntryID   string
	Timestamp time.Time
}

type TurnFailed struct {
	Message string
	Kind    ErrorKind
}

type ReflectionStarted struct{}

type ReflectionReceived struct {
	Text string
}

// ChoiceMade records the player's choice in the history before the request goes out.
type ChoiceMade struct {
	Choice    string
	EntryID   string
	Timestamp time.Time
}

type SummaryUpdated struct {
	Summary   string
	EntryID   string
	Timestamp time.Time
}

// AdvanceSurgeCooldown ticks the resonance surge cooldown by one turn.
type AdvanceSurgeCooldown struct{}

// Character creation

type ArchetypeSelected struct {
	ID string
}

type OriginSelected struct {
	ID string
}

type BackgroundSelected struct {
	ID string
}

type CharacterNamed struct {
	Profile CharacterProfile
}

// UI and settings

type OpenModal struct {
	Modal Modal
}

type CloseModal struct{}

type SetVolume struct {
	Volume int
}

type SetMuted struct {
	Muted bool
}

type SetColorblindAssist struct {
	Enabled bool
}

type SetLanguage struct {
	Language string
}

type DismissError struct{}

type ImageResolved struct {
	Prompt string
	URL    string
}

type HomeImageResolved struct {
	URL string
}

// User content

type AddPlayerNote struct {
	Note PlayerNote
}

type UpdatePlayerNote struct {
	ID        string
	Title     string
	Content   string
	Timestamp time.Time
}

type DeletePlayerNote struct {
	ID string
}

type MoveMindMapNode struct {
	ID       string
	Position Position
}

type LinkMindMapNodes struct {
	From string
	To   string
}

type UnlinkMindMapNodes struct {
	From string
	To   string
}

type AddHistoryEntry struct {
	Entry HistoryEntry
}

// One-shot prompts

type ClearDream struct{}

type ClearReflection struct{}

type ClearInsightToName struct{}

type ClearLoreInterpretation struct{}

func (StartGame) isAction()               {}
func (IntroFinished) isAction()           {}
func (Reset) isAction()                   {}
func (SetTransitioning) isAction()        {}
func (SetConfigMissing) isAction()        {}
func (TurnStarted) isAction()             {}
func (StreamUpdated) isAction()           {}
func (TurnSucceeded) isAction()           {}
func (TurnFailed) isAction()              {}
func (ReflectionStarted) isAction()       {}
func (ReflectionReceived) isAction()      {}
func (ChoiceMade) isAction()              {}
func (SummaryUpdated) isAction()          {}
func (AdvanceSurgeCooldown) isAction()    {}
func (ArchetypeSelected) isAction()       {}
func (OriginSelected) isAction()          {}
func (BackgroundSelected) isAction()      {}
func (CharacterNamed) isAction()          {}
func (OpenModal) isAction()               {}
func (CloseModal) isAction()              {}
func (SetVolume) isAction()               {}
func (SetMuted) isAction()                {}
func (SetColorblindAssist) isAction()     {}
func (SetLanguage) isAction()             {}
func (DismissError) isAction()            {}
func (ImageResolved) isAction()           {}
func (HomeImageResolved) isAction()       {}
func (AddPlayerNote) isAction()           {}
func (UpdatePlayerNote) isAction()        {}
func (DeletePlayerNote) isAction()        {}
func (MoveMindMapNode) isAction()         {}
func (LinkMindMapNodes) isAction()        {}
func (UnlinkMindMapNodes) isAction()      {}
func (AddHistoryEntry) isAction()         {}
func (ClearDream) isAction()              {}
func (ClearReflection) isAction()         {}
func (ClearInsightToName) isAction()      {}
func (ClearLoreInterpretation) isAction() {}

// NewTurnSucceeded stamps a turn result with a fresh history entry id and time.
func NewTurnSucceeded(tr *TurnResult) TurnSucceeded {
	return TurnSucceeded{Result: tr, EntryID: uuid.NewString(), Timestamp: time.Now()}
}

func NewChoiceMade(choice string) ChoiceMade {
	return ChoiceMade{Choice: choice, EntryID: uuid.NewString(), Timestamp: time.Now()}
}

func NewSummaryUpdated(summary string) SummaryUpdated {
	return SummaryUpdated{Summary: summary, EntryID: uuid.NewString(), Timestamp: time.Now()}
}

// NewPlayerNote returns an AddPlayerNote action with a generated note id.
func NewPlayerNote(title, content string) AddPlayerNote {
	return AddPlayerNote{Note: PlayerNote{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		Timestamp: time.Now(),
	}}
}

func NewManualHistoryEntry(content string) AddHistoryEntry {
	return AddHistoryEntry{Entry: HistoryEntry{
		ID:        uuid.NewString(),
		Type:      HistoryManual,
		Content:   content,
		Timestamp: time.Now(),
	}}
}
