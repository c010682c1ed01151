package state

import (
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"
)

func ptr[T any](v T) *T { return &v }

func succeed(gs GameState, tr *TurnResult) GameState {
	if tr.Choices == nil {
		tr.Choices = []string{}
	}
	return Reduce(gs, NewTurnSucceeded(tr))
}

func TestReduce_HistoryCap(t *testing.T) {
	r := NewReducer(10)
	gs := NewGameState()
	for i := range 25 {
		gs = r.Reduce(gs, TurnSucceeded{
			Result:    &TurnResult{SceneText: fmt.Sprintf("scene %d", i)},
			EntryID:   fmt.Sprintf("e%d", i),
			Timestamp: time.Unix(int64(i), 0),
		})
		if len(gs.HistoryLog) > 10 {
			t.Fatalf("history grew past cap: %d", len(gs.HistoryLog))
		}
	}
	if len(gs.HistoryLog) != 10 {
		t.Fatalf("Expected 10 history entries, got %d", len(gs.HistoryLog))
	}
	for i, e := range gs.HistoryLog {
		want := fmt.Sprintf("e%d", 15+i)
		if e.ID != want {
			t.Errorf("entry %d: expected %s, got %s", i, want, e.ID)
		}
	}
	if gs.StoryEntryCount != 25 {
		t.Errorf("Expected story count 25, got %d", gs.StoryEntryCount)
	}
}

func TestReduce_DefaultHistoryCap(t *testing.T) {
	gs := NewGameState()
	for i := range DefaultHistoryCap + 7 {
		gs = Reduce(gs, ChoiceMade{Choice: fmt.Sprintf("c%d", i), EntryID: fmt.Sprintf("c%d", i)})
	}
	if len(gs.HistoryLog) != DefaultHistoryCap {
		t.Fatalf("Expected %d entries, got %d", DefaultHistoryCap, len(gs.HistoryLog))
	}
	if gs.HistoryLog[0].ID != "c7" {
		t.Errorf("Expected oldest retained entry c7, got %s", gs.HistoryLog[0].ID)
	}
	if last := gs.HistoryLog[len(gs.HistoryLog)-1].ID; last != fmt.Sprintf("c%d", DefaultHistoryCap+6) {
		t.Errorf("newest entry dropped, last is %s", last)
	}
}

func TestReduce_InventoryAccumulation(t *testing.T) {
	gs := NewGameState()
	gs = succeed(gs, &TurnResult{SceneText: "a", ItemsGranted: []GrantedItem{{
		Name: "Tuning Fork", Count: 2, Description: "humming steel",
		Echoes: ItemEchoes{Known: []string{"first"}, Total: 3},
	}}})
	gs = succeed(gs, &TurnResult{SceneText: "b", ItemsGranted: []GrantedItem{{
		Name: "Tuning Fork", Count: 3, Description: "overwritten?",
		Echoes: ItemEchoes{Total: 9},
	}}})

	if len(gs.Inventory) != 1 {
		t.Fatalf("Expected 1 inventory entry, got %d", len(gs.Inventory))
	}
	item := gs.Inventory["Tuning Fork"]
	if item.Count != 5 {
		t.Errorf("Expected count 5, got %d", item.Count)
	}
	if item.Description != "humming steel" {
		t.Errorf("description overwritten: %q", item.Description)
	}
	if item.Echoes.Total != 3 || len(item.Echoes.Known) != 1 {
		t.Errorf("echo data overwritten: %+v", item.Echoes)
	}
}

func TestReduce_InventoryIsNotShared(t *testing.T) {
	before := succeed(NewGameState(), &TurnResult{SceneText: "a", ItemsGranted: []GrantedItem{{Name: "Lens", Count: 1}}})
	after := succeed(before, &TurnResult{SceneText: "b", ItemsGranted: []GrantedItem{{Name: "Lens", Count: 1}}})
	if before.Inventory["Lens"].Count != 1 {
		t.Errorf("previous state mutated: %d", before.Inventory["Lens"].Count)
	}
	if after.Inventory["Lens"].Count != 2 {
		t.Errorf("Expected 2, got %d", after.Inventory["Lens"].Count)
	}
}

func TestReduce_FragmentUpsert(t *testing.T) {
	gs := NewGameState()
	gs = succeed(gs, &TurnResult{SceneText: "a", LoreFragments: []LoreFragment{
		{ID: "f1", Title: "One"}, {ID: "f2", Title: "Two"}, {ID: "f3", Title: "Three"},
	}})
	gs = succeed(gs, &TurnResult{SceneText: "b", LoreFragments: []LoreFragment{
		{ID: "f2", Title: "Two, revised"},
	}})

	if len(gs.LoreFragments) != 3 {
		t.Fatalf("Expected 3 fragments, got %d", len(gs.LoreFragments))
	}
	if gs.LoreFragments[1].ID != "f2" || gs.LoreFragments[1].Title != "Two, revised" {
		t.Errorf("fragment not replaced in place: %+v", gs.LoreFragments[1])
	}
}

func TestReduce_ConsumedFragmentsAreLinkedNotRemoved(t *testing.T) {
	gs := succeed(NewGameState(), &TurnResult{SceneText: "a", LoreFragments: []LoreFragment{
		{ID: "f1"}, {ID: "f2"}, {ID: "f3"},
	}})
	gs = succeed(gs, &TurnResult{
		SceneText:           "b",
		NewLoreEntries:      []LoreEntry{{ID: "lore-9", Title: "The Choir"}},
		ConsumedFragmentIDs: []string{"f1", "f3", "missing"},
	})

	if len(gs.LoreFragments) != 3 {
		t.Fatalf("fragments removed: %d", len(gs.LoreFragments))
	}
	for _, f := range gs.LoreFragments {
		wantLinked := f.ID == "f1" || f.ID == "f3"
		if f.Linked != wantLinked {
			t.Errorf("%s: linked = %v, want %v", f.ID, f.Linked, wantLinked)
		}
		if wantLinked && f.LinkedEntryID != "lore-9" {
			t.Errorf("%s: linked to %q", f.ID, f.LinkedEntryID)
		}
	}
	if got := len(gs.UnlinkedFragments()); got != 1 {
		t.Errorf("Expected 1 unlinked fragment, got %d", got)
	}
	if gs.NewestLoreEntryID != "lore-9" {
		t.Errorf("Expected newest lore lore-9, got %q", gs.NewestLoreEntryID)
	}
}

func TestReduce_LoreJournalDedupAndNewestReset(t *testing.T) {
	gs := succeed(NewGameState(), &TurnResult{SceneText: "a", NewLoreEntries: []LoreEntry{{ID: "l1"}, {ID: "l2"}}})
	gs = succeed(gs, &TurnResult{SceneText: "b", NewLoreEntries: []LoreEntry{{ID: "l2"}}})
	if len(gs.LoreJournal) != 2 {
		t.Fatalf("Expected 2 lore entries, got %d", len(gs.LoreJournal))
	}
	if gs.NewestLoreEntryID != "l2" {
		t.Errorf("Expected newest l2, got %q", gs.NewestLoreEntryID)
	}
	gs = Reduce(gs, OpenModal{Modal: ModalJournal})
	if gs.NewestLoreEntryID != "" {
		t.Errorf("newest highlight should reset when the journal opens")
	}
}

func TestReduce_ImagePromptTriState(t *testing.T) {
	base := NewGameState()
	base.CurrentImagePrompt = "P"
	base.CurrentImageURL = "https://img/p.png"

	tests := []struct {
		name string
		json string
		want string
	}{
		{"absent", `{"sceneText":"s","choices":[]}`, "P"},
		{"null", `{"sceneText":"s","choices":[],"imagePrompt":null}`, "P"},
		{"empty string", `{"sceneText":"s","choices":[],"imagePrompt":""}`, "P"},
		{"value", `{"sceneText":"s","choices":[],"imagePrompt":"Q"}`, "Q"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := ParseTurnResult([]byte(tt.json))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			gs := Reduce(base, NewTurnSucceeded(tr))
			if gs.CurrentImagePrompt != tt.want {
				t.Errorf("Expected prompt %q, got %q", tt.want, gs.CurrentImagePrompt)
			}
		})
	}
}

func TestReduce_ImageResolvedIgnoresStalePrompt(t *testing.T) {
	gs := NewGameState()
	gs.CurrentImagePrompt = "new"
	gs = Reduce(gs, ImageResolved{Prompt: "old", URL: "old.png"})
	if gs.CurrentImageURL != "" {
		t.Errorf("stale image applied: %q", gs.CurrentImageURL)
	}
	gs = Reduce(gs, ImageResolved{Prompt: "new", URL: "new.png"})
	if gs.CurrentImageURL != "new.png" {
		t.Errorf("Expected new.png, got %q", gs.CurrentImageURL)
	}
}

func TestReduce_ConditionReplaceNotStack(t *testing.T) {
	gs := NewGameState()
	gs = succeed(gs, &TurnResult{SceneText: "a", PlayerConditionUpdates: []PlayerCondition{
		{Type: "Headache", Description: "dull throb"},
		{Type: "Chill", Description: "cold"},
	}})
	gs = succeed(gs, &TurnResult{SceneText: "b", PlayerConditionUpdates: []PlayerCondition{
		{Type: "Headache", Description: "splitting"},
	}})

	var headaches []PlayerCondition
	for _, c := range gs.PlayerConditions {
		if c.Type == "Headache" {
			headaches = append(headaches, c)
		}
	}
	if len(headaches) != 1 {
		t.Fatalf("Expected exactly one Headache, got %d", len(headaches))
	}
	if headaches[0].Description != "splitting" {
		t.Errorf("Expected second description, got %q", headaches[0].Description)
	}
	if len(gs.PlayerConditions) != 2 {
		t.Errorf("Expected 2 conditions, got %d", len(gs.PlayerConditions))
	}
}

func TestReduce_RenownAndSignature(t *testing.T) {
	gs := NewGameState()
	gs = succeed(gs, &TurnResult{SceneText: "a", RenownChange: ptr(4), EchoicSignatureUpdate: ptr("low hum")})
	gs = succeed(gs, &TurnResult{SceneText: "b", RenownChange: ptr(-6)})
	gs = succeed(gs, &TurnResult{SceneText: "c"})
	if gs.Renown != -2 {
		t.Errorf("Expected renown -2, got %d", gs.Renown)
	}
	if gs.EchoicSignature != "low hum" {
		t.Errorf("signature should persist when not updated, got %q", gs.EchoicSignature)
	}
}

func TestReduce_ResetPreservesSettings(t *testing.T) {
	gs := NewGameState()
	gs = Reduce(gs, SetVolume{Volume: 30})
	gs = Reduce(gs, SetLanguage{Language: "pt"})
	gs = Reduce(gs, SetConfigMissing{Missing: true})
	gs = Reduce(gs, HomeImageResolved{URL: "home.png"})
	gs = Reduce(gs, StartGame{})
	gs = succeed(gs, &TurnResult{
		SceneText:    "long road",
		RenownChange: ptr(3),
		ItemsGranted: []GrantedItem{{Name: "Shard", Count: 1}},
	})
	gs = Reduce(gs, NewChoiceMade("walk"))

	gs = Reduce(gs, Reset{})

	if gs.Settings.Volume != 30 || gs.Settings.Language != "pt" {
		t.Errorf("settings not preserved: %+v", gs.Settings)
	}
	if !gs.ConfigMissing || gs.HomeImageURL != "home.png" {
		t.Errorf("shell state not preserved: missing=%v home=%q", gs.ConfigMissing, gs.HomeImageURL)
	}
	if gs.Renown != 0 || len(gs.Inventory) != 0 || len(gs.HistoryLog) != 0 || gs.GameStarted || gs.SceneText != "" {
		t.Errorf("gameplay not reset: %+v", gs)
	}
	if !gs.IsResonanceSurgeAvailable {
		t.Errorf("surge availability should return to default")
	}
}

func TestReduce_LocationDedup(t *testing.T) {
	gs := NewGameState()
	gs = succeed(gs, &TurnResult{SceneText: "a", NewLocationDiscovered: &Location{ID: "bell", Name: "Bell Tower", Description: "first"}})
	gs = succeed(gs, &TurnResult{SceneText: "b", NewLocationDiscovered: &Location{ID: "well", Name: "Well"}})
	gs = succeed(gs, &TurnResult{SceneText: "c", NewLocationDiscovered: &Location{ID: "bell", Name: "Bell Tower", Description: "second"}})

	count := 0
	for _, loc := range gs.DiscoveredLocations {
		if loc.ID == "bell" {
			count++
			if loc.Description != "second" {
				t.Errorf("Expected refreshed description, got %q", loc.Description)
			}
		}
	}
	if count != 1 {
		t.Errorf("Expected one bell entry, got %d", count)
	}
	if cur, ok := gs.CurrentLocation(); !ok || cur.ID != "bell" {
		t.Errorf("current location not tracked: %+v", gs.CurrentLocationID)
	}
}

func TestReduce_CurrentLocationMustBeDiscovered(t *testing.T) {
	gs := succeed(NewGameState(), &TurnResult{SceneText: "a", NewLocationDiscovered: &Location{ID: "bell"}})
	gs = succeed(gs, &TurnResult{SceneText: "b", CurrentLocationID: ptr("nowhere")})
	if gs.CurrentLocationID == nil || *gs.CurrentLocationID != "bell" {
		t.Errorf("unknown location id applied: %v", gs.CurrentLocationID)
	}
}

func TestReduce_SurgeCooldown(t *testing.T) {
	gs := NewGameState()
	if gs.ResonanceSurgeCooldown != 0 || !gs.IsResonanceSurgeAvailable {
		t.Fatalf("unexpected defaults")
	}
	gs = succeed(gs, &TurnResult{SceneText: "surge", SuggestedSurgeCooldown: ptr(5)})
	if gs.ResonanceSurgeCooldown != 5 || gs.IsResonanceSurgeAvailable {
		t.Errorf("Expected cooldown 5 and unavailable, got %d/%v", gs.ResonanceSurgeCooldown, gs.IsResonanceSurgeAvailable)
	}

	gs = succeed(gs, &TurnResult{SceneText: "no cooldown field"})
	if gs.ResonanceSurgeCooldown != 5 || gs.IsResonanceSurgeAvailable {
		t.Errorf("cooldown should be untouched without a suggestion")
	}

	for range 4 {
		gs = Reduce(gs, AdvanceSurgeCooldown{})
	}
	if gs.ResonanceSurgeCooldown != 1 || gs.IsResonanceSurgeAvailable {
		t.Errorf("Expected 1 and unavailable, got %d/%v", gs.ResonanceSurgeCooldown, gs.IsResonanceSurgeAvailable)
	}
	gs = Reduce(gs, AdvanceSurgeCooldown{})
	if gs.ResonanceSurgeCooldown != 0 || !gs.IsResonanceSurgeAvailable {
		t.Errorf("surge should be available again")
	}
}

func TestReduce_ZeroCooldownStillDisablesSurge(t *testing.T) {
	gs := succeed(NewGameState(), &TurnResult{SceneText: "s", SuggestedSurgeCooldown: ptr(0)})
	if gs.IsResonanceSurgeAvailable {
		t.Errorf("a defined cooldown of zero must still flip availability")
	}
}

func TestReduce_PlayerNoteLifecycle(t *testing.T) {
	gs := NewGameState()
	add := NewPlayerNote("T", "C")
	gs = Reduce(gs, add)
	if len(gs.PlayerNotes) != 1 || gs.PlayerNotes[0].ID == "" {
		t.Fatalf("note not added: %+v", gs.PlayerNotes)
	}
	id := gs.PlayerNotes[0].ID

	gs = Reduce(gs, MoveMindMapNode{ID: id, Position: Position{X: 1, Y: 2}})
	gs = Reduce(gs, MoveMindMapNode{ID: "lore-1", Position: Position{X: 3, Y: 4}})
	gs = Reduce(gs, LinkMindMapNodes{From: id, To: "lore-1"})
	gs = Reduce(gs, LinkMindMapNodes{From: "lore-1", To: "lore-2"})

	gs = Reduce(gs, DeletePlayerNote{ID: id})

	if len(gs.PlayerNotes) != 0 {
		t.Errorf("Expected no notes, got %d", len(gs.PlayerNotes))
	}
	for _, l := range gs.MindMap.Links {
		if l.From == id || l.To == id {
			t.Errorf("dangling link survived: %+v", l)
		}
	}
	if len(gs.MindMap.Links) != 1 {
		t.Errorf("unrelated link removed: %+v", gs.MindMap.Links)
	}
	if _, ok := gs.MindMap.Nodes[id]; ok {
		t.Errorf("node position survived delete")
	}
}

func TestReduce_UpdatePlayerNote(t *testing.T) {
	gs := Reduce(NewGameState(), AddPlayerNote{Note: PlayerNote{ID: "n1", Title: "a", Content: "b"}})
	before := gs
	gs = Reduce(gs, UpdatePlayerNote{ID: "n1", Title: "A", Content: "B"})
	if gs.PlayerNotes[0].Title != "A" || gs.PlayerNotes[0].Content != "B" {
		t.Errorf("note not updated: %+v", gs.PlayerNotes[0])
	}
	if before.PlayerNotes[0].Title != "a" {
		t.Errorf("update mutated previous state")
	}
}

func TestReduce_MindMapLinks(t *testing.T) {
	gs := NewGameState()
	gs = Reduce(gs, LinkMindMapNodes{From: "a", To: "b"})
	gs = Reduce(gs, LinkMindMapNodes{From: "b", To: "a"})
	gs = Reduce(gs, LinkMindMapNodes{From: "a", To: "a"})
	if len(gs.MindMap.Links) != 1 {
		t.Fatalf("Expected 1 link, got %d", len(gs.MindMap.Links))
	}
	gs = Reduce(gs, UnlinkMindMapNodes{From: "b", To: "a"})
	if len(gs.MindMap.Links) != 0 {
		t.Errorf("link not removed")
	}
}

func TestReduce_TurnLifecycle(t *testing.T) {
	gs := NewGameState()
	gs.Choices = []string{"old"}
	gs.Error = "previous"

	gs = Reduce(gs, TurnStarted{})
	if !gs.IsLoading || gs.Error != "" || len(gs.Choices) != 0 {
		t.Fatalf("start transition incomplete: %+v", gs)
	}
	if gs.RenderMode() != RenderLoading {
		t.Errorf("Expected loading render mode")
	}

	gs = Reduce(gs, StreamUpdated{Buffer: `{"sceneText":"The be`})
	if gs.RenderMode() != RenderStreaming {
		t.Errorf("Expected streaming render mode")
	}

	failed := Reduce(gs, TurnFailed{Message: "lost", Kind: ErrorKindNetwork})
	if failed.IsLoading || failed.StreamingSceneText != "" || failed.Error != "lost" {
		t.Errorf("failure transition incomplete: %+v", failed)
	}
	if failed.RenderMode() != RenderScene || failed.Phase() != PhaseError {
		t.Errorf("failure should render scene under error phase")
	}

	ok := succeed(gs, &TurnResult{SceneText: "The bell tolls.", Choices: []string{"Listen"}})
	if ok.IsLoading || ok.StreamingSceneText != "" || ok.SceneText != "The bell tolls." {
		t.Errorf("success transition incomplete: %+v", ok)
	}
}

func TestReduce_StreamUpdateIgnoredWhenIdle(t *testing.T) {
	gs := Reduce(NewGameState(), StreamUpdated{Buffer: "late"})
	if gs.StreamingSceneText != "" {
		t.Errorf("stream text applied while idle")
	}
}

func TestReduce_StoryEntryCarriesChoice(t *testing.T) {
	gs := Reduce(NewGameState(), NewChoiceMade("Open the door"))
	long := strings.Repeat("x", 200)
	gs = succeed(gs, &TurnResult{SceneText: long})

	last := gs.HistoryLog[len(gs.HistoryLog)-1]
	if last.Type != HistoryStory {
		t.Fatalf("Expected story entry, got %s", last.Type)
	}
	if last.ChoiceMade != "Open the door" {
		t.Errorf("choice not carried: %q", last.ChoiceMade)
	}
	if last.Content != strings.Repeat("x", 150)+"..." {
		t.Errorf("unexpected snippet length %d", len(last.Content))
	}
	if gs.LastChoice != "" {
		t.Errorf("pending choice should be consumed")
	}
}

func TestReduce_InterpretationAndInsightOffers(t *testing.T) {
	gs := succeed(NewGameState(), &TurnResult{
		SceneText:          "a",
		LoreInterpretation: &LoreInterpretation{Title: "The Hymn", Options: []string{"grief", "warning"}},
		InsightToName:      &InsightOffer{Context: "a pattern in the static"},
	})
	if !gs.AwaitingLoreInterpretation || gs.LoreToInterpret == nil || gs.InsightToName == nil {
		t.Fatalf("offers not set")
	}
	gs = succeed(gs, &TurnResult{SceneText: "b"})
	if gs.AwaitingLoreInterpretation || gs.LoreToInterpret != nil || gs.InsightToName != nil {
		t.Errorf("offers should clear when absent from the payload")
	}
}

func TestReduce_SceneEntitiesReplaced(t *testing.T) {
	gs := succeed(NewGameState(), &TurnResult{
		SceneText:            "a",
		ActiveAberrations:    []SceneEntity{{ID: "ab1"}},
		ActiveEchoHotspots:   []SceneEntity{{ID: "h1"}, {ID: "h2"}},
		DevouringSilenceZone: &SceneEntity{ID: "z"},
		WhisperingEchoes:     []WhisperingEcho{{ID: "w1", Text: "hush"}},
	})
	gs = succeed(gs, &TurnResult{SceneText: "b", ActiveEchoHotspots: []SceneEntity{{ID: "h3"}}})

	if len(gs.ActiveAberrations) != 0 || gs.DevouringSilenceZone != nil || len(gs.WhisperingEchoes) != 0 {
		t.Errorf("entities accumulated instead of replaced")
	}
	if len(gs.ActiveEchoHotspots) != 1 || gs.ActiveEchoHotspots[0].ID != "h3" {
		t.Errorf("hotspots not replaced: %+v", gs.ActiveEchoHotspots)
	}
}

func TestReduce_DiscoveredEchoesCapped(t *testing.T) {
	gs := succeed(NewGameState(), &TurnResult{SceneText: "a", ItemsGranted: []GrantedItem{{
		Name: "Bell", Count: 1, Echoes: ItemEchoes{Known: []string{"one"}, Total: 2},
	}}})
	gs = succeed(gs, &TurnResult{SceneText: "b", DiscoveredEchoes: []DiscoveredEchoes{{
		Item: "Bell", Echoes: []string{"one", "two", "three"},
	}}})
	item := gs.Inventory["Bell"]
	if len(item.Echoes.Known) != 2 || item.HasUndiscoveredEchoes() {
		t.Errorf("Expected echoes capped at total, got %+v", item.Echoes)
	}
}

func TestReduce_SummaryUpdated(t *testing.T) {
	gs := NewGameState()
	gs.StoryEntryCount = 7
	gs = Reduce(gs, NewSummaryUpdated("so far"))
	if gs.StorySummary == nil || *gs.StorySummary != "so far" {
		t.Fatalf("summary not stored")
	}
	if gs.LastSummaryAt != 7 {
		t.Errorf("Expected LastSummaryAt 7, got %d", gs.LastSummaryAt)
	}
	if gs.HistoryLog[len(gs.HistoryLog)-1].Type != HistorySummary {
		t.Errorf("summary history entry missing")
	}
}

func TestReduce_CharacterCreation(t *testing.T) {
	gs := Reduce(NewGameState(), StartGame{})
	gs = Reduce(gs, OriginSelected{ID: "o"})
	if gs.Creation.OriginID != "" {
		t.Errorf("origin accepted before archetype")
	}
	gs = Reduce(gs, ArchetypeSelected{ID: "a"})
	gs = Reduce(gs, OriginSelected{ID: "o"})
	gs = Reduce(gs, BackgroundSelected{ID: "b"})
	gs = Reduce(gs, CharacterNamed{Profile: CharacterProfile{Name: "Ilse"}})
	gs = Reduce(gs, CharacterNamed{Profile: CharacterProfile{Name: "Other"}})
	if gs.Profile == nil || gs.Profile.Name != "Ilse" {
		t.Errorf("profile should be immutable once set: %+v", gs.Profile)
	}
	gs = succeed(gs, &TurnResult{SceneText: "s", CharacterConfirmation: ptr("Ilse of the marsh")})
	if gs.Profile.Confirmation != "Ilse of the marsh" {
		t.Errorf("confirmation not applied")
	}
}

func TestReduce_Settings(t *testing.T) {
	gs := NewGameState()
	gs = Reduce(gs, SetVolume{Volume: 250})
	if gs.Settings.Volume != 100 {
		t.Errorf("volume not clamped: %d", gs.Settings.Volume)
	}
	gs = Reduce(gs, SetLanguage{Language: ""})
	if gs.Settings.Language != "en" {
		t.Errorf("empty language applied")
	}
	gs = Reduce(gs, SetMuted{Muted: true})
	gs = Reduce(gs, SetColorblindAssist{Enabled: true})
	if !gs.Settings.Muted || !gs.Settings.ColorblindAssist {
		t.Errorf("toggles not applied: %+v", gs.Settings)
	}
}

func TestReduce_ReflectionKeepsChoices(t *testing.T) {
	gs := NewGameState()
	gs.Choices = []string{"a", "b"}
	gs = Reduce(gs, ReflectionStarted{})
	if len(gs.Choices) != 2 || !gs.IsLoading {
		t.Fatalf("reflection start should keep choices")
	}
	gs = Reduce(gs, ReflectionReceived{Text: "You remember."})
	if gs.IsLoading || gs.PendingReflection != "You remember." {
		t.Errorf("reflection not received: %+v", gs)
	}
	gs = Reduce(gs, ClearReflection{})
	if gs.PendingReflection != "" {
		t.Errorf("reflection not cleared")
	}
}

func TestReducer_RestoreTrimsHistory(t *testing.T) {
	tests := []struct {
		name    string
		cap     int
		entries int
		wantIDs []string
	}{
		{"over cap keeps newest", 3, 5, []string{"h2", "h3", "h4"}},
		{"at cap unchanged", 3, 3, []string{"h0", "h1", "h2"}},
		{"under cap unchanged", 10, 2, []string{"h0", "h1"}},
		{"empty", 3, 0, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := NewGameState()
			for i := range tt.entries {
				gs.HistoryLog = append(gs.HistoryLog, HistoryEntry{ID: fmt.Sprintf("h%d", i), Type: HistoryStory})
			}
			original := slices.Clone(gs.HistoryLog)

			out := NewReducer(tt.cap).Restore(gs)

			ids := make([]string, 0, len(out.HistoryLog))
			for _, e := range out.HistoryLog {
				ids = append(ids, e.ID)
			}
			if !slices.Equal(ids, tt.wantIDs) {
				t.Errorf("Expected %v, got %v", tt.wantIDs, ids)
			}
			if !slices.Equal(gs.HistoryLog, original) {
				t.Errorf("input history was modified")
			}
		})
	}
}
