package state

import (
	"encoding/json"
	"fmt"
)

// SnapshotVersion is bumped when the persisted layout changes incompatibly.
const SnapshotVersion = 1

// Snapshot is the curated subset of GameState that is written to durable storage.
// Request flags, streaming text, errors and modal state are deliberately absent.
type Snapshot struct {
	Version int `json:"version"`

	SceneText          string   `json:"sceneText"`
	CurrentImagePrompt string   `json:"currentImagePrompt,omitempty"`
	CurrentImageURL    string   `json:"currentImageUrl,omitempty"`
	Choices            []string `json:"choices"`

	GameStarted bool              `json:"gameStarted"`
	Creation    CharacterDraft    `json:"creation"`
	Profile     *CharacterProfile `json:"profile,omitempty"`

	LoreJournal     []LoreEntry    `json:"loreJournal"`
	LoreFragments   []LoreFragment `json:"loreFragments"`
	StorySummary    *string        `json:"storySummary,omitempty"`
	HistoryLog      []HistoryEntry `json:"historyLog"`
	StoryEntryCount int            `json:"storyEntryCount"`
	LastSummaryAt   int            `json:"lastSummaryAt"`
	LastChoice      string         `json:"lastChoice,omitempty"`
	Rumors          []string       `json:"rumors,omitempty"`

	Renown                    int                      `json:"renown"`
	EchoicSignature           string                   `json:"echoicSignature,omitempty"`
	Inventory                 map[string]InventoryItem `json:"inventory"`
	PlayerConditions          []PlayerCondition        `json:"playerConditions"`
	ResonanceSurgeCooldown    int                      `json:"resonanceSurgeCooldown"`
	IsResonanceSurgeAvailable bool                     `json:"isResonanceSurgeAvailable"`
	DiscoveredLocations       []Location               `json:"discoveredLocations"`
	CurrentLocationID         *string                  `json:"currentLocationId,omitempty"`

	WhisperingEchoes           []WhisperingEcho    `json:"whisperingEchoes"`
	PendingDream               string              `json:"pendingDream,omitempty"`
	InsightToName              *InsightOffer       `json:"insightToName,omitempty"`
	AwaitingLoreInterpretation bool                `json:"awaitingLoreInterpretation"`
	LoreToInterpret            *LoreInterpretation `json:"loreToInterpret,omitempty"`
	ActiveAberrations          []SceneEntity       `json:"activeDissonantAberrations"`
	ActiveBlights              []SceneEntity       `json:"activeDissonanceBlights"`
	ActiveEchoHotspots         []SceneEntity       `json:"activeEchoHotspots"`
	ActiveMemoryPhantoms       []SceneEntity       `json:"activeMemoryPhantoms"`
	DevouringSilenceZone       *SceneEntity        `json:"devouringSilenceZone,omitempty"`

	PlayerNotes []PlayerNote  `json:"playerNotes"`
	MindMap     MindMapLayout `json:"mindMapLayout"`
}

// ToSnapshot extracts the persisted subset of gs.
func (gs GameState) ToSnapshot() Snapshot {
	return Snapshot{
		Version:                    SnapshotVersion,
		SceneText:                  gs.SceneText,
		CurrentImagePrompt:         gs.CurrentImagePrompt,
		CurrentImageURL:            gs.CurrentImageURL,
		Choices:                    gs.Choices,
		GameStarted:                gs.GameStarted,
		Creation:                   gs.Creation,
		Profile:                    gs.Profile,
		LoreJournal:                gs.LoreJournal,
		LoreFragments:              gs.LoreFragments,
		StorySummary:               gs.StorySummary,
		HistoryLog:                 gs.HistoryLog,
		StoryEntryCount:            gs.StoryEntryCount,
		LastSummaryAt:              gs.LastSummaryAt,
		LastChoice:                 gs.LastChoice,
		Rumors:                     gs.Rumors,
		Renown:                     gs.Renown,
		EchoicSignature:            gs.EchoicSignature,
		Inventory:                  gs.Inventory,
		PlayerConditions:           gs.PlayerConditions,
		ResonanceSurgeCooldown:     gs.ResonanceSurgeCooldown,
		IsResonanceSurgeAvailable:  gs.IsResonanceSurgeAvailable,
		DiscoveredLocations:        gs.DiscoveredLocations,
		CurrentLocationID:          gs.CurrentLocationID,
		WhisperingEchoes:           gs.WhisperingEchoes,
		PendingDream:               gs.PendingDream,
		InsightToName:              gs.InsightToName,
		AwaitingLoreInterpretation: gs.AwaitingLoreInterpretation,
		LoreToInterpret:            gs.LoreToInterpret,
		ActiveAberrations:          gs.ActiveAberrations,
		ActiveBlights:              gs.ActiveBlights,
		ActiveEchoHotspots:         gs.ActiveEchoHotspots,
		ActiveMemoryPhantoms:       gs.ActiveMemoryPhantoms,
		DevouringSilenceZone:       gs.DevouringSilenceZone,
		PlayerNotes:                gs.PlayerNotes,
		MindMap:                    gs.MindMap,
	}
}

// DecodeSnapshot parses a persisted snapshot document.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	if s.Version > SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", s.Version)
	}
	return &s, nil
}

// Apply restores the snapshot on top of base, which supplies everything that is not
// persisted (settings, shell flags). Nil collections are replaced with empty ones.
func (s Snapshot) Apply(base GameState) GameState {
	gs := base
	gs.SceneText = s.SceneText
	gs.CurrentImagePrompt = s.CurrentImagePrompt
	gs.CurrentImageURL = s.CurrentImageURL
	gs.Choices = orEmpty(s.Choices)
	gs.GameStarted = s.GameStarted
	gs.Creation = s.Creation
	gs.Profile = s.Profile
	gs.LoreJournal = orEmpty(s.LoreJournal)
	gs.LoreFragments = orEmpty(s.LoreFragments)
	gs.StorySummary = s.StorySummary
	gs.HistoryLog = orEmpty(s.HistoryLog)
	gs.StoryEntryCount = s.StoryEntryCount
	gs.LastSummaryAt = s.LastSummaryAt
	gs.LastChoice = s.LastChoice
	gs.Rumors = s.Rumors
	gs.Renown = s.Renown
	gs.EchoicSignature = s.EchoicSignature
	gs.Inventory = make(map[string]InventoryItem, len(s.Inventory))
	for name, it := range s.Inventory {
		if it.Count < 1 {
			continue
		}
		gs.Inventory[name] = it
	}
	gs.PlayerConditions = orEmpty(s.PlayerConditions)
	gs.ResonanceSurgeCooldown = max(s.ResonanceSurgeCooldown, 0)
	gs.IsResonanceSurgeAvailable = s.IsResonanceSurgeAvailable
	gs.DiscoveredLocations = orEmpty(s.DiscoveredLocations)
	gs.CurrentLocationID = s.CurrentLocationID
	if _, ok := gs.CurrentLocation(); !ok {
		gs.CurrentLocationID = nil
	}
	gs.WhisperingEchoes = orEmpty(s.WhisperingEchoes)
	gs.PendingDream = s.PendingDream
	gs.InsightToName = s.InsightToName
	gs.AwaitingLoreInterpretation = s.AwaitingLoreInterpretation && s.LoreToInterpret != nil
	gs.LoreToInterpret = s.LoreToInterpret
	gs.ActiveAberrations = orEmpty(s.ActiveAberrations)
	gs.ActiveBlights = orEmpty(s.ActiveBlights)
	gs.ActiveEchoHotspots = orEmpty(s.ActiveEchoHotspots)
	gs.ActiveMemoryPhantoms = orEmpty(s.ActiveMemoryPhantoms)
	gs.DevouringSilenceZone = s.DevouringSilenceZone
	gs.PlayerNotes = orEmpty(s.PlayerNotes)
	gs.MindMap = s.MindMap
	if gs.MindMap.Nodes == nil {
		gs.MindMap.Nodes = make(map[string]Position)
	}
	return gs
}
