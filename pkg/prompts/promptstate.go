package prompts

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/jwebster45206/echo-chronicle/pkg/state"
	"github.com/jwebster45206/echo-chronicle/pkg/textfilter"
)

const (
	// HistoryDigestWithSummary is how many recent entries are sent verbatim when a
	// story summary already covers the rest.
	HistoryDigestWithSummary = 3
	// HistoryDigestWithoutSummary is how many recent entries are sent when there is
	// no summary yet.
	HistoryDigestWithoutSummary = 5
	// KnownEchoSummaryLimit bounds the text describing echoes an item has already revealed.
	KnownEchoSummaryLimit = 120
)

// CharacterContext is the generator-facing view of the player character.
type CharacterContext struct {
	Name       string `json:"name,omitempty"`
	Archetype  string `json:"archetype,omitempty"`
	Origin     string `json:"origin,omitempty"`
	Background string `json:"background,omitempty"`
}

// InventoryContext hides raw echo bookkeeping. The generator learns whether an item
// still holds secrets and what it has already said, so it does not repeat itself.
type InventoryContext struct {
	Name                  string `json:"name"`
	Description           string `json:"description,omitempty"`
	IsHeirloom            bool   `json:"isHeirloom,omitempty"`
	HasUndiscoveredEchoes bool   `json:"hasUndiscoveredEchoes"`
	KnownEchoes           string `json:"knownEchoes,omitempty"`
	UntappedEchoes        int    `json:"untappedEchoes,omitempty"`
}

// EntityRef names a scene presence the generator must be able to refer back to.
type EntityRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PromptContext is the bounded projection of game state sent with every prompt.
type PromptContext struct {
	Character       *CharacterContext  `json:"character,omitempty"`
	CurrentScene    string             `json:"currentScene,omitempty"`
	LastChoice      string             `json:"lastChoice,omitempty"`
	StorySummary    string             `json:"storySummary,omitempty"`
	RecentHistory   []string           `json:"recentHistory"`
	Renown          int                `json:"renown"`
	EchoicSignature string             `json:"echoicSignature,omitempty"`
	Inventory       []InventoryContext `json:"inventory"`
	Conditions      []string           `json:"conditions"`
	LoreTitles      []string           `json:"loreTitles"`
	FragmentTitles  []string           `json:"fragmentTitles"`
	Rumors          []string           `json:"rumors"`
	ActiveEchoes    []string           `json:"activeEchoes"`
	Locations       []string           `json:"discoveredLocations"`
	CurrentLocation string             `json:"currentLocation,omitempty"`

	ResonanceSurgeAvailable bool `json:"resonanceSurgeAvailable"`
	ResonanceSurgeCooldown  int  `json:"resonanceSurgeCooldown"`

	EchoHotspots         []EntityRef `json:"echoHotspots,omitempty"`
	DissonantAberrations []EntityRef `json:"dissonantAberrations,omitempty"`
	DissonanceBlights    []string    `json:"dissonanceBlights,omitempty"`
	MemoryPhantoms       []string    `json:"memoryPhantoms,omitempty"`
	DevouringSilenceZone string      `json:"devouringSilenceZone,omitempty"`

	// Single-use fields, attached right before a prompt is assembled.
	NamedInsight       string `json:"namedInsight,omitempty"`
	LoreInterpretation string `json:"loreInterpretation,omitempty"`
}

// BuildContext projects gs into a PromptContext. It never fails; missing state yields
// empty values.
func BuildContext(gs state.GameState) PromptContext {
	pc := PromptContext{
		CurrentScene:            gs.SceneText,
		LastChoice:              gs.LastChoice,
		RecentHistory:           historyDigest(gs),
		Renown:                  gs.Renown,
		EchoicSignature:         gs.EchoicSignature,
		Inventory:               inventoryContext(gs.Inventory),
		Conditions:              make([]string, 0, len(gs.PlayerConditions)),
		LoreTitles:              make([]string, 0, len(gs.LoreJournal)),
		FragmentTitles:          make([]string, 0, len(gs.LoreFragments)),
		Rumors:                  append(make([]string, 0, len(gs.Rumors)), gs.Rumors...),
		ActiveEchoes:            make([]string, 0, len(gs.WhisperingEchoes)),
		Locations:               make([]string, 0, len(gs.DiscoveredLocations)),
		ResonanceSurgeAvailable: gs.IsResonanceSurgeAvailable,
		ResonanceSurgeCooldown:  gs.ResonanceSurgeCooldown,
	}
	if gs.StorySummary != nil {
		pc.StorySummary = *gs.StorySummary
	}
	if p := gs.Profile; p != nil {
		pc.Character = &CharacterContext{Name: p.Name, Archetype: p.Archetype, Origin: p.Origin, Background: p.Background}
	}
	for _, c := range gs.PlayerConditions {
		pc.Conditions = append(pc.Conditions, c.Description)
	}
	for _, l := range gs.LoreJournal {
		pc.LoreTitles = append(pc.LoreTitles, l.Title)
	}
	for _, f := range gs.UnlinkedFragments() {
		pc.FragmentTitles = append(pc.FragmentTitles, f.Title)
	}
	for _, e := range gs.WhisperingEchoes {
		pc.ActiveEchoes = append(pc.ActiveEchoes, e.Text)
	}
	for _, l := range gs.DiscoveredLocations {
		pc.Locations = append(pc.Locations, l.Name)
	}
	if loc, ok := gs.CurrentLocation(); ok {
		pc.CurrentLocation = loc.Name
	}
	for _, h := range gs.ActiveEchoHotspots {
		pc.EchoHotspots = append(pc.EchoHotspots, EntityRef{ID: h.ID, Name: h.Name})
	}
	for _, a := range gs.ActiveAberrations {
		pc.DissonantAberrations = append(pc.DissonantAberrations, EntityRef{ID: a.ID, Name: a.Name})
	}
	for _, b := range gs.ActiveBlights {
		pc.DissonanceBlights = append(pc.DissonanceBlights, b.Name)
	}
	for _, p := range gs.ActiveMemoryPhantoms {
		pc.MemoryPhantoms = append(pc.MemoryPhantoms, p.Name)
	}
	if z := gs.DevouringSilenceZone; z != nil {
		pc.DevouringSilenceZone = z.Name
	}
	return pc
}

// WithInsightName returns a copy carrying the name the player gave an insight.
func (pc PromptContext) WithInsightName(name string) PromptContext {
	pc.NamedInsight = name
	return pc
}

// WithInterpretation returns a copy carrying the player's reading of a lore entry.
func (pc PromptContext) WithInterpretation(interpretation string) PromptContext {
	pc.LoreInterpretation = interpretation
	return pc
}

// JSON renders the context for inclusion in a prompt.
func (pc PromptContext) JSON() (string, error) {
	b, err := json.MarshalIndent(pc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal prompt context: %w", err)
	}
	return string(b), nil
}

// historyDigest keeps only the tail of the log. A summary, when present, stands in
// for everything older.
func historyDigest(gs state.GameState) []string {
	n := HistoryDigestWithoutSummary
	if gs.StorySummary != nil {
		n = HistoryDigestWithSummary
	}
	log := gs.HistoryLog
	if len(log) > n {
		log = log[len(log)-n:]
	}
	out := make([]string, 0, len(log))
	for _, e := range log {
		out = append(out, e.Content)
	}
	return out
}

func inventoryContext(inv map[string]state.InventoryItem) []InventoryContext {
	names := make([]string, 0, len(inv))
	for name := range inv {
		names = append(names, name)
	}
	// map order is random; prompts should be stable
	sort.Strings(names)

	out := make([]InventoryContext, 0, len(names))
	for _, name := range names {
		item := inv[name]
		out = append(out, InventoryContext{
			Name:                  name,
			Description:           item.Description,
			IsHeirloom:            item.IsHeirloom,
			HasUndiscoveredEchoes: item.HasUndiscoveredEchoes(),
			KnownEchoes:           textfilter.Truncate(strings.Join(item.Echoes.Known, "; "), KnownEchoSummaryLimit),
			UntappedEchoes:        max(item.Echoes.Total-len(item.Echoes.Known), 0),
		})
	}
	return out
}
