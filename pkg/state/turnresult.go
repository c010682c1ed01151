package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMissingScene is returned when a turn result has no scene text.
var ErrMissingScene = errors.New("turn result has no sceneText")

// OptionalString distinguishes an absent JSON field, an explicit null and a value.
type OptionalString struct {
	Set   bool // the key was present
	Null  bool // the key was present with a null value
	Value string
}

// UnmarshalJSON is only called for keys that are present in the document.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		o.Value = ""
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

func (o OptionalString) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Replacement returns the new value and true only when the field carries a non-empty string.
func (o OptionalString) Replacement() (string, bool) {
	if !o.Set || o.Null || strings.TrimSpace(o.Value) == "" {
		return "", false
	}
	return o.Value, true
}

// GrantedItem is one entry of itemsGranted.
type GrantedItem struct {
	Name        string     `json:"name"`
	Count       int        `json:"count"`
	Description string     `json:"description,omitempty"`
	Echoes      ItemEchoes `json:"echoes"`
	IsHeirloom  bool       `json:"isHeirloom,omitempty"`
}

// DiscoveredEchoes carries attunement results for a single item.
type DiscoveredEchoes struct {
	Item   string   `json:"item"`
	Echoes []string `json:"echoes"`
}

// TurnResult is the structured response the generator produces for one turn. Build
// it with ParseTurnResult so the optional tail is normalized before it reaches Reduce.
type TurnResult struct {
	SceneText   string         `json:"sceneText"`
	Choices     []string       `json:"choices"`
	ImagePrompt OptionalString `json:"imagePrompt"`

	WhisperingEchoes       []WhisperingEcho    `json:"whisperingEchoes,omitempty"`
	NewLoreEntries         []LoreEntry         `json:"newLoreEntries,omitempty"`
	LoreFragments          []LoreFragment      `json:"loreFragments,omitempty"`
	ConsumedFragmentIDs    []string            `json:"consumedFragmentIds,omitempty"`
	ItemsGranted           []GrantedItem       `json:"itemsGranted,omitempty"`
	PlayerConditionUpdates []PlayerCondition   `json:"playerConditionUpdates,omitempty"`
	RenownChange           *int                `json:"renownChange,omitempty"`
	EchoicSignatureUpdate  *string             `json:"echoicSignatureUpdate,omitempty"`
	NewLocationDiscovered  *Location           `json:"newLocationDiscovered,omitempty"`
	CurrentLocationID      *string             `json:"currentLocationId,omitempty"`
	SuggestedSurgeCooldown *int                `json:"suggestedResonanceSurgeCooldown,omitempty"`
	LoreInterpretation     *LoreInterpretation `json:"loreInterpretationOffer,omitempty"`
	InsightToName          *InsightOffer       `json:"insightToName,omitempty"`
	DreamSequence          *string             `json:"dreamSequence,omitempty"`
	Rumors                 []string            `json:"rumors,omitempty"`
	DiscoveredEchoes       []DiscoveredEchoes  `json:"discoveredEchoes,omitempty"`
	CharacterConfirmation  *string             `json:"characterConfirmation,omitempty"`

	ActiveAberrations    []SceneEntity `json:"activeDissonantAberrations,omitempty"`
	ActiveBlights        []SceneEntity `json:"activeDissonanceBlights,omitempty"`
	ActiveEchoHotspots   []SceneEntity `json:"activeEchoHotspots,omitempty"`
	ActiveMemoryPhantoms []SceneEntity `json:"activeMemoryPhantoms,omitempty"`
	DevouringSilenceZone *SceneEntity  `json:"devouringSilenceZone,omitempty"`
}

// ParseTurnResult decodes a completed generator buffer. Markdown fences around the
// document are tolerated. The result is validated and coerced so that Reduce never has
// to second-guess it.
func ParseTurnResult(data []byte) (*TurnResult, error) {
	raw := StripCodeFences(string(data))
	if raw == "" {
		return nil, errors.New("empty turn result")
	}
	var tr TurnResult
	if err := json.Unmarshal([]byte(raw), &tr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal turn result: %w", err)
	}
	if err := tr.Normalize(); err != nil {
		return nil, err
	}
	return &tr, nil
}

// StripCodeFences removes a surrounding ```json ... ``` block, if any.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the language tag line
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Normalize validates required fields and coerces the optional tail into the shapes
// Reduce expects.
func (tr *TurnResult) Normalize() error {
	if strings.TrimSpace(tr.SceneText) == "" {
		return ErrMissingScene
	}
	if tr.Choices == nil {
		tr.Choices = make([]string, 0)
	}
	choices := tr.Choices[:0]
	for _, c := range tr.Choices {
		if c = strings.TrimSpace(c); c != "" {
			choices = append(choices, c)
		}
	}
	tr.Choices = choices

	if tr.WhisperingEchoes == nil {
		tr.WhisperingEchoes = make([]WhisperingEcho, 0)
	}

	tr.NewLoreEntries = lastByID(tr.NewLoreEntries, func(e LoreEntry) string { return e.ID })
	tr.LoreFragments = lastByID(tr.LoreFragments, func(f LoreFragment) string { return f.ID })

	items := make([]GrantedItem, 0, len(tr.ItemsGranted))
	for _, it := range tr.ItemsGranted {
		it.Name = strings.TrimSpace(it.Name)
		if it.Name == "" {
			continue
		}
		if it.Count <= 0 {
			it.Count = 1
		}
		if it.Echoes.Total < 0 {
			it.Echoes.Total = 0
		}
		items = append(items, it)
	}
	tr.ItemsGranted = items

	conds := make([]PlayerCondition, 0, len(tr.PlayerConditionUpdates))
	for _, c := range tr.PlayerConditionUpdates {
		if strings.TrimSpace(c.Type) == "" {
			continue
		}
		conds = append(conds, c)
	}
	tr.PlayerConditionUpdates = conds

	if tr.NewLocationDiscovered != nil && strings.TrimSpace(tr.NewLocationDiscovered.ID) == "" {
		tr.NewLocationDiscovered = nil
	}
	if tr.SuggestedSurgeCooldown != nil && *tr.SuggestedSurgeCooldown < 0 {
		zero := 0
		tr.SuggestedSurgeCooldown = &zero
	}
	if tr.LoreInterpretation != nil && len(tr.LoreInterpretation.Options) == 0 {
		tr.LoreInterpretation = nil
	}
	if tr.InsightToName != nil && strings.TrimSpace(tr.InsightToName.Context) == "" {
		tr.InsightToName = nil
	}
	return nil
}

// lastByID drops entries without an id and collapses duplicates to their last
// occurrence while keeping first-seen order.
func lastByID[T any](in []T, id func(T) string) []T {
	if len(in) == 0 {
		return in
	}
	pos := make(map[string]int, len(in))
	out := make([]T, 0, len(in))
	for _, v := range in {
		key := strings.TrimSpace(id(v))
		if key == "" {
			continue
		}
		if i, ok := pos[key]; ok {
			out[i] = v
			continue
		}
		pos[key] = len(out)
		out = append(out, v)
	}
	return out
}
