package state

import "time"

// DefaultHistoryCap is the number of history entries kept before the oldest are dropped.
const DefaultHistoryCap = 50

// HistoryEntryType classifies entries in the rolling history log.
type HistoryEntryType string

const (
	HistoryStory   HistoryEntryType = "story"
	HistoryChoice  HistoryEntryType = "choice"
	HistorySummary HistoryEntryType = "summary"
	HistoryManual  HistoryEntryType = "manual"
)

// Modal names a UI panel that can be open over the story view.
type Modal string

const (
	ModalNone     Modal = ""
	ModalSettings Modal = "settings"
	ModalJournal  Modal = "journal"
	ModalHistory  Modal = "history"
	ModalNotes    Modal = "notes"
	ModalMap      Modal = "map"
	ModalWeaving  Modal = "weaving"
)

// ErrorKind mirrors the generator error taxonomy so views can style failures.
type ErrorKind string

const (
	ErrorKindNone      ErrorKind = ""
	ErrorKindConfig    ErrorKind = "config"
	ErrorKindNetwork   ErrorKind = "network"
	ErrorKindGenerator ErrorKind = "generator"
)

// RenderMode tells the view which narrative text to show.
type RenderMode int

const (
	RenderScene RenderMode = iota
	RenderLoading
	RenderStreaming
)

// CharacterDraft holds the character-creation selections made so far.
type CharacterDraft struct {
	ArchetypeID  string `json:"archetypeId,omitempty"`
	OriginID     string `json:"originId,omitempty"`
	BackgroundID string `json:"backgroundId,omitempty"`
}

// CharacterProfile is set once the player names their character.
type CharacterProfile struct {
	Archetype    string `json:"archetype"`
	Origin       string `json:"origin"`
	Background   string `json:"background"`
	Name         string `json:"name"`
	Confirmation string `json:"confirmation,omitempty"` // narrative echo-back from the generator
}

type LoreEntry struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// LoreFragment is a partial lore entry. Fragments are never removed; once consumed by a
// synthesis they are marked Linked.
type LoreFragment struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	Linked        bool   `json:"linked,omitempty"`
	LinkedEntryID string `json:"linkedEntryId,omitempty"`
}

type HistoryEntry struct {
	ID         string           `json:"id"`
	Type       HistoryEntryType `json:"type"`
	Content    string           `json:"content"`
	ChoiceMade string           `json:"choiceMade,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
}

// ItemEchoes tracks how many of an item's echoes the player has learned.
type ItemEchoes struct {
	Known []string `json:"known,omitempty"`
	Total int      `json:"total"`
}

type InventoryItem struct {
	Count       int        `json:"count"`
	Description string     `json:"description,omitempty"`
	Echoes      ItemEchoes `json:"echoes"`
	IsHeirloom  bool       `json:"isHeirloom,omitempty"`
}

// HasUndiscoveredEchoes reports whether attunement could reveal anything new.
func (i InventoryItem) HasUndiscoveredEchoes() bool {
	return len(i.Echoes.Known) < i.Echoes.Total
}

// PlayerCondition is a temporary named effect. At most one condition per Type is active.
type PlayerCondition struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Duration    int    `json:"duration,omitempty"`
}

type Location struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type WhisperingEcho struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// SceneEntity is a hostile or environmental presence reported for the current scene.
type SceneEntity struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Intensity   int    `json:"intensity,omitempty"`
}

// InsightOffer asks the player to name something the generator surfaced.
type InsightOffer struct {
	Context string `json:"context"`
}

// LoreInterpretation offers a set of readings for a piece of lore.
type LoreInterpretation struct {
	LoreID  string   `json:"loreId,omitempty"`
	Title   string   `json:"title"`
	Options []string `json:"options"`
}

type PlayerNote struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type MindMapLink struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// MindMapLayout is pure UI state that still has to survive restarts.
type MindMapLayout struct {
	Nodes map[string]Position `json:"nodes,omitempty"`
	Links []MindMapLink       `json:"links,omitempty"`
}

type Settings struct {
	Volume           int    `json:"volume"`
	Muted            bool   `json:"muted"`
	ColorblindAssist bool   `json:"colorblindAssist"`
	Language         string `json:"language"`
}

// DefaultSettings returns the settings used on a fresh install.
func DefaultSettings() Settings {
	return Settings{Volume: 70, Language: "en"}
}

// GameState is the single authoritative state of a chronicle. It is only ever changed
// by Reduce.
type GameState struct {
	// Narrative cursor
	SceneText          string   `json:"sceneText"`
	StreamingSceneText string   `json:"-"`
	CurrentImagePrompt string   `json:"currentImagePrompt,omitempty"`
	CurrentImageURL    string   `json:"currentImageUrl,omitempty"`
	Choices            []string `json:"choices"`

	// Request flags
	IsLoading       bool      `json:"-"`
	IsTransitioning bool      `json:"-"`
	Error           string    `json:"-"`
	ErrorKind       ErrorKind `json:"-"`

	// Flow
	GameStarted bool              `json:"gameStarted"`
	ShowIntro   bool              `json:"-"`
	Creation    CharacterDraft    `json:"creation"`
	Profile     *CharacterProfile `json:"profile,omitempty"`

	// Knowledge
	LoreJournal       []LoreEntry    `json:"loreJournal"`
	NewestLoreEntryID string         `json:"-"`
	LoreFragments     []LoreFragment `json:"loreFragments"`
	StorySummary      *string        `json:"storySummary,omitempty"`
	HistoryLog        []HistoryEntry `json:"historyLog"`
	StoryEntryCount   int            `json:"storyEntryCount"`
	LastSummaryAt     int            `json:"lastSummaryAt"`
	LastChoice        string         `json:"lastChoice,omitempty"`
	Rumors            []string       `json:"rumors,omitempty"`

	// Mechanics
	Renown                    int                      `json:"renown"`
	EchoicSignature           string                   `json:"echoicSignature,omitempty"`
	Inventory                 map[string]InventoryItem `json:"inventory"`
	PlayerConditions          []PlayerCondition        `json:"playerConditions"`
	ResonanceSurgeCooldown    int                      `json:"resonanceSurgeCooldown"`
	IsResonanceSurgeAvailable bool                     `json:"isResonanceSurgeAvailable"`
	DiscoveredLocations       []Location               `json:"discoveredLocations"`
	CurrentLocationID         *string                  `json:"currentLocationId,omitempty"`

	// Transient side-channels
	WhisperingEchoes           []WhisperingEcho    `json:"whisperingEchoes"`
	PendingDream               string              `json:"pendingDream,omitempty"`
	PendingReflection          string              `json:"pendingReflection,omitempty"`
	InsightToName              *InsightOffer       `json:"insightToName,omitempty"`
	AwaitingLoreInterpretation bool                `json:"awaitingLoreInterpretation"`
	LoreToInterpret            *LoreInterpretation `json:"loreToInterpret,omitempty"`
	ActiveAberrations          []SceneEntity       `json:"activeDissonantAberrations"`
	ActiveBlights              []SceneEntity       `json:"activeDissonanceBlights"`
	ActiveEchoHotspots         []SceneEntity       `json:"activeEchoHotspots"`
	ActiveMemoryPhantoms       []SceneEntity       `json:"activeMemoryPhantoms"`
	DevouringSilenceZone       *SceneEntity        `json:"devouringSilenceZone,omitempty"`

	// User content
	PlayerNotes []PlayerNote  `json:"playerNotes"`
	MindMap     MindMapLayout `json:"mindMapLayout"`

	// Settings and shell state
	Settings      Settings `json:"-"`
	OpenModal     Modal    `json:"-"`
	ConfigMissing bool     `json:"-"`
	HomeImageURL  string   `json:"-"`
}

// NewGameState returns the default state of a fresh chronicle.
func NewGameState() GameState {
	return GameState{
		Choices:                   make([]string, 0),
		LoreJournal:               make([]LoreEntry, 0),
		LoreFragments:             make([]LoreFragment, 0),
		HistoryLog:                make([]HistoryEntry, 0),
		Inventory:                 make(map[string]InventoryItem),
		PlayerConditions:          make([]PlayerCondition, 0),
		IsResonanceSurgeAvailable: true,
		DiscoveredLocations:       make([]Location, 0),
		WhisperingEchoes:          make([]WhisperingEcho, 0),
		PlayerNotes:               make([]PlayerNote, 0),
		MindMap:                   MindMapLayout{Nodes: make(map[string]Position)},
		Settings:                  DefaultSettings(),
	}
}

// RenderMode picks what the narrative panel shows. Partial output of an in-flight
// request always wins over the committed scene.
func (gs GameState) RenderMode() RenderMode {
	switch {
	case gs.IsLoading && gs.StreamingSceneText != "":
		return RenderStreaming
	case gs.IsLoading:
		return RenderLoading
	default:
		return RenderScene
	}
}

// CurrentLocation resolves CurrentLocationID against the discovered locations.
func (gs GameState) CurrentLocation() (Location, bool) {
	if gs.CurrentLocationID == nil {
		return Location{}, false
	}
	return gs.findLocation(*gs.CurrentLocationID)
}

func (gs GameState) findLocation(id string) (Location, bool) {
	for _, loc := range gs.DiscoveredLocations {
		if loc.ID == id {
			return loc, true
		}
	}
	return Location{}, false
}

// UnlinkedFragments returns fragments still available for synthesis.
func (gs GameState) UnlinkedFragments() []LoreFragment {
	out := make([]LoreFragment, 0, len(gs.LoreFragments))
	for _, f := range gs.LoreFragments {
		if !f.Linked {
			out = append(out, f)
		}
	}
	return out
}
