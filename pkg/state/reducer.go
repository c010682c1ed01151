package state

import (
	"maps"
	"slices"
	"strings"

	"github.com/jwebster45206/echo-chronicle/pkg/textfilter"
)

// HistorySnippetLength is how much of a scene is kept in its story history entry.
const HistorySnippetLength = 150

// Reducer folds actions into game state. The zero value uses DefaultHistoryCap.
type Reducer struct {
	HistoryCap int
}

// NewReducer returns a reducer that caps the history log at historyCap entries.
func NewReducer(historyCap int) Reducer {
	return Reducer{HistoryCap: historyCap}
}

// Reduce applies a with the default history cap.
func Reduce(gs GameState, a Action) GameState {
	return Reducer{}.Reduce(gs, a)
}

func (r Reducer) historyCap() int {
	if r.HistoryCap <= 0 {
		return DefaultHistoryCap
	}
	return r.HistoryCap
}

// Restore holds a state loaded from storage to the same bounds Reduce keeps: the
// history log is trimmed to the newest entries within the cap.
func (r Reducer) Restore(gs GameState) GameState {
	if limit := r.historyCap(); len(gs.HistoryLog) > limit {
		gs.HistoryLog = slices.Clone(gs.HistoryLog[len(gs.HistoryLog)-limit:])
	}
	return gs
}

// Reduce returns the state that results from applying a to gs. gs itself is never
// modified: any slice or map that changes is copied first.
func (r Reducer) Reduce(gs GameState, a Action) GameState {
	switch a := a.(type) {
	case StartGame:
		gs.GameStarted = true
		gs.ShowIntro = a.ShowIntro
	case IntroFinished:
		gs.ShowIntro = false
	case Reset:
		next := NewGameState()
		next.Settings = gs.Settings
		next.ConfigMissing = gs.ConfigMissing
		next.HomeImageURL = gs.HomeImageURL
		return next
	case SetTransitioning:
		gs.IsTransitioning = a.Transitioning
	case SetConfigMissing:
		gs.ConfigMissing = a.Missing

	case TurnStarted:
		gs.IsLoading = true
		gs.Error = ""
		gs.ErrorKind = ErrorKindNone
		gs.StreamingSceneText = ""
		gs.Choices = make([]string, 0)
	case StreamUpdated:
		if !gs.IsLoading {
			return gs
		}
		gs.StreamingSceneText = a.Buffer
	case TurnSucceeded:
		if a.Result == nil {
			return gs
		}
		return r.mergeTurn(gs, a)
	case TurnFailed:
		gs.IsLoading = false
		gs.StreamingSceneText = ""
		gs.Error = a.Message
		gs.ErrorKind = a.Kind
		if gs.ErrorKind == ErrorKindNone {
			gs.ErrorKind = ErrorKindGenerator
		}
	case ReflectionStarted:
		gs.IsLoading = true
		gs.Error = ""
		gs.ErrorKind = ErrorKindNone
		gs.StreamingSceneText = ""
	case ReflectionReceived:
		gs.IsLoading = false
		gs.StreamingSceneText = ""
		gs.PendingReflection = a.Text
	case ChoiceMade:
		gs.LastChoice = a.Choice
		gs.HistoryLog = r.appendHistory(gs.HistoryLog, HistoryEntry{
			ID:         a.EntryID,
			Type:       HistoryChoice,
			Content:    a.Choice,
			ChoiceMade: a.Choice,
			Timestamp:  a.Timestamp,
		})
	case SummaryUpdated:
		summary := a.Summary
		gs.StorySummary = &summary
		gs.LastSummaryAt = gs.StoryEntryCount
		gs.HistoryLog = r.appendHistory(gs.HistoryLog, HistoryEntry{
			ID:        a.EntryID,
			Type:      HistorySummary,
			Content:   a.Summary,
			Timestamp: a.Timestamp,
		})
	case AdvanceSurgeCooldown:
		if gs.ResonanceSurgeCooldown > 0 {
			gs.ResonanceSurgeCooldown--
		}
		if gs.ResonanceSurgeCooldown == 0 {
			gs.IsResonanceSurgeAvailable = true
		}

	case ArchetypeSelected:
		gs.Creation = CharacterDraft{ArchetypeID: a.ID}
	case OriginSelected:
		if gs.Creation.ArchetypeID == "" {
			return gs
		}
		gs.Creation.OriginID = a.ID
		gs.Creation.BackgroundID = ""
	case BackgroundSelected:
		if gs.Creation.OriginID == "" {
			return gs
		}
		gs.Creation.BackgroundID = a.ID
	case CharacterNamed:
		if gs.Profile != nil {
			return gs
		}
		p := a.Profile
		gs.Profile = &p

	case OpenModal:
		gs.OpenModal = a.Modal
		if a.Modal == ModalJournal {
			gs.NewestLoreEntryID = ""
		}
	case CloseModal:
		gs.OpenModal = ModalNone
	case SetVolume:
		gs.Settings.Volume = min(max(a.Volume, 0), 100)
	case SetMuted:
		gs.Settings.Muted = a.Muted
	case SetColorblindAssist:
		gs.Settings.ColorblindAssist = a.Enabled
	case SetLanguage:
		if strings.TrimSpace(a.Language) == "" {
			return gs
		}
		gs.Settings.Language = a.Language
	case DismissError:
		gs.Error = ""
		gs.ErrorKind = ErrorKindNone
	case ImageResolved:
		// a late image for an older prompt is dropped
		if a.Prompt != gs.CurrentImagePrompt {
			return gs
		}
		gs.CurrentImageURL = a.URL
	case HomeImageResolved:
		gs.HomeImageURL = a.URL

	case AddPlayerNote:
		if slices.ContainsFunc(gs.PlayerNotes, func(n PlayerNote) bool { return n.ID == a.Note.ID }) {
			return gs
		}
		gs.PlayerNotes = append(slices.Clip(gs.PlayerNotes), a.Note)
	case UpdatePlayerNote:
		i := slices.IndexFunc(gs.PlayerNotes, func(n PlayerNote) bool { return n.ID == a.ID })
		if i < 0 {
			return gs
		}
		notes := slices.Clone(gs.PlayerNotes)
		notes[i].Title = a.Title
		notes[i].Content = a.Content
		notes[i].Timestamp = a.Timestamp
		gs.PlayerNotes = notes
	case DeletePlayerNote:
		gs.PlayerNotes = slices.DeleteFunc(slices.Clone(gs.PlayerNotes), func(n PlayerNote) bool { return n.ID == a.ID })
		gs.MindMap = removeMindMapNode(gs.MindMap, a.ID)
	case MoveMindMapNode:
		nodes := maps.Clone(gs.MindMap.Nodes)
		if nodes == nil {
			nodes = make(map[string]Position)
		}
		nodes[a.ID] = a.Position
		gs.MindMap.Nodes = nodes
	case LinkMindMapNodes:
		if a.From == "" || a.To == "" || a.From == a.To || hasLink(gs.MindMap.Links, a.From, a.To) {
			return gs
		}
		gs.MindMap.Links = append(slices.Clip(gs.MindMap.Links), MindMapLink{From: a.From, To: a.To})
	case UnlinkMindMapNodes:
		gs.MindMap.Links = slices.DeleteFunc(slices.Clone(gs.MindMap.Links), func(l MindMapLink) bool {
			return (l.From == a.From && l.To == a.To) || (l.From == a.To && l.To == a.From)
		})
	case AddHistoryEntry:
		gs.HistoryLog = r.appendHistory(gs.HistoryLog, a.Entry)

	case ClearDream:
		gs.PendingDream = ""
	case ClearReflection:
		gs.PendingReflection = ""
	case ClearInsightToName:
		gs.InsightToName = nil
	case ClearLoreInterpretation:
		gs.AwaitingLoreInterpretation = false
		gs.LoreToInterpret = nil
	}
	return gs
}

// mergeTurn folds a successful turn result into the state.
func (r Reducer) mergeTurn(gs GameState, a TurnSucceeded) GameState {
	tr := a.Result

	gs.IsLoading = false
	gs.StreamingSceneText = ""
	gs.Error = ""
	gs.ErrorKind = ErrorKindNone

	gs.SceneText = tr.SceneText
	gs.Choices = slices.Clone(tr.Choices)
	if gs.Choices == nil {
		gs.Choices = make([]string, 0)
	}
	if prompt, ok := tr.ImagePrompt.Replacement(); ok {
		gs.CurrentImagePrompt = prompt
	}
	gs.WhisperingEchoes = orEmpty(slices.Clone(tr.WhisperingEchoes))

	gs = mergeLore(gs, tr)
	gs.Inventory = mergeInventory(gs.Inventory, tr.ItemsGranted, tr.DiscoveredEchoes)
	gs.PlayerConditions = mergeConditions(gs.PlayerConditions, tr.PlayerConditionUpdates)

	if tr.RenownChange != nil {
		gs.Renown += *tr.RenownChange
	}
	if tr.EchoicSignatureUpdate != nil {
		gs.EchoicSignature = *tr.EchoicSignatureUpdate
	}

	gs.HistoryLog = r.appendHistory(gs.HistoryLog, HistoryEntry{
		ID:         a.EntryID,
		Type:       HistoryStory,
		Content:    textfilter.Truncate(tr.SceneText, HistorySnippetLength),
		ChoiceMade: gs.LastChoice,
		Timestamp:  a.Timestamp,
	})
	gs.StoryEntryCount++
	gs.LastChoice = ""

	if loc := tr.NewLocationDiscovered; loc != nil {
		locs := slices.DeleteFunc(slices.Clone(gs.DiscoveredLocations), func(l Location) bool { return l.ID == loc.ID })
		gs.DiscoveredLocations = append(locs, *loc)
		id := loc.ID
		gs.CurrentLocationID = &id
	}
	if tr.CurrentLocationID != nil {
		if _, ok := gs.findLocation(*tr.CurrentLocationID); ok {
			id := *tr.CurrentLocationID
			gs.CurrentLocationID = &id
		}
	}

	if tr.SuggestedSurgeCooldown != nil {
		gs.ResonanceSurgeCooldown = *tr.SuggestedSurgeCooldown
		gs.IsResonanceSurgeAvailable = false
	}

	if tr.LoreInterpretation != nil {
		offer := *tr.LoreInterpretation
		offer.Options = slices.Clone(offer.Options)
		gs.AwaitingLoreInterpretation = true
		gs.LoreToInterpret = &offer
	} else {
		gs.AwaitingLoreInterpretation = false
		gs.LoreToInterpret = nil
	}
	if tr.InsightToName != nil {
		offer := *tr.InsightToName
		gs.InsightToName = &offer
	} else {
		gs.InsightToName = nil
	}

	if tr.DreamSequence != nil && *tr.DreamSequence != "" {
		gs.PendingDream = *tr.DreamSequence
	}
	if len(tr.Rumors) > 0 {
		rumors := slices.Clone(gs.Rumors)
		for _, rumor := range tr.Rumors {
			if rumor != "" && !slices.Contains(rumors, rumor) {
				rumors = append(rumors, rumor)
			}
		}
		gs.Rumors = rumors
	}
	if tr.CharacterConfirmation != nil && gs.Profile != nil {
		p := *gs.Profile
		p.Confirmation = *tr.CharacterConfirmation
		gs.Profile = &p
	}

	gs.ActiveAberrations = orEmpty(slices.Clone(tr.ActiveAberrations))
	gs.ActiveBlights = orEmpty(slices.Clone(tr.ActiveBlights))
	gs.ActiveEchoHotspots = orEmpty(slices.Clone(tr.ActiveEchoHotspots))
	gs.ActiveMemoryPhantoms = orEmpty(slices.Clone(tr.ActiveMemoryPhantoms))
	if tr.DevouringSilenceZone != nil {
		zone := *tr.DevouringSilenceZone
		gs.DevouringSilenceZone = &zone
	} else {
		gs.DevouringSilenceZone = nil
	}
	return gs
}

func mergeLore(gs GameState, tr *TurnResult) GameState {
	if len(tr.NewLoreEntries) > 0 {
		journal := slices.Clone(gs.LoreJournal)
		for _, entry := range tr.NewLoreEntries {
			if slices.ContainsFunc(journal, func(e LoreEntry) bool { return e.ID == entry.ID }) {
				continue
			}
			journal = append(journal, entry)
			gs.NewestLoreEntryID = entry.ID
		}
		gs.LoreJournal = journal
	}

	if len(tr.LoreFragments) == 0 && len(tr.ConsumedFragmentIDs) == 0 {
		return gs
	}
	fragments := slices.Clone(gs.LoreFragments)
	for _, f := range tr.LoreFragments {
		if i := slices.IndexFunc(fragments, func(e LoreFragment) bool { return e.ID == f.ID }); i >= 0 {
			fragments[i] = f
			continue
		}
		fragments = append(fragments, f)
	}
	var linkedTo string
	if n := len(tr.NewLoreEntries); n > 0 {
		linkedTo = tr.NewLoreEntries[n-1].ID
	}
	for _, id := range tr.ConsumedFragmentIDs {
		if i := slices.IndexFunc(fragments, func(e LoreFragment) bool { return e.ID == id }); i >= 0 {
			fragments[i].Linked = true
			if linkedTo != "" {
				fragments[i].LinkedEntryID = linkedTo
			}
		}
	}
	gs.LoreFragments = fragments
	return gs
}

func mergeInventory(inv map[string]InventoryItem, granted []GrantedItem, discovered []DiscoveredEchoes) map[string]InventoryItem {
	if len(granted) == 0 && len(discovered) == 0 {
		return inv
	}
	out := maps.Clone(inv)
	if out == nil {
		out = make(map[string]InventoryItem)
	}
	for _, g := range granted {
		count := max(g.Count, 1)
		if item, ok := out[g.Name]; ok {
			item.Count += count
			out[g.Name] = item
			continue
		}
		out[g.Name] = InventoryItem{
			Count:       count,
			Description: g.Description,
			Echoes:      ItemEchoes{Known: slices.Clone(g.Echoes.Known), Total: g.Echoes.Total},
			IsHeirloom:  g.IsHeirloom,
		}
	}
	for _, d := range discovered {
		item, ok := out[d.Item]
		if !ok {
			continue
		}
		known := slices.Clone(item.Echoes.Known)
		for _, echo := range d.Echoes {
			if len(known) >= item.Echoes.Total {
				break
			}
			if echo != "" && !slices.Contains(known, echo) {
				known = append(known, echo)
			}
		}
		item.Echoes.Known = known
		out[d.Item] = item
	}
	return out
}

func mergeConditions(current, updates []PlayerCondition) []PlayerCondition {
	if len(updates) == 0 {
		return current
	}
	out := slices.Clone(current)
	for _, u := range updates {
		out = slices.DeleteFunc(out, func(c PlayerCondition) bool { return c.Type == u.Type })
		out = append(out, u)
	}
	return out
}

// appendHistory appends e and drops the oldest entries beyond the cap. The returned
// slice never aliases log.
func (r Reducer) appendHistory(log []HistoryEntry, e HistoryEntry) []HistoryEntry {
	limit := r.historyCap()
	start := 0
	if len(log)+1 > limit {
		start = len(log) + 1 - limit
	}
	out := make([]HistoryEntry, 0, len(log)-start+1)
	out = append(out, log[start:]...)
	return append(out, e)
}

func removeMindMapNode(m MindMapLayout, id string) MindMapLayout {
	if _, ok := m.Nodes[id]; ok {
		m.Nodes = maps.Clone(m.Nodes)
		delete(m.Nodes, id)
	}
	m.Links = slices.DeleteFunc(slices.Clone(m.Links), func(l MindMapLink) bool {
		return l.From == id || l.To == id
	})
	return m
}

func hasLink(links []MindMapLink, from, to string) bool {
	return slices.ContainsFunc(links, func(l MindMapLink) bool {
		return (l.From == from && l.To == to) || (l.From == to && l.To == from)
	})
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return make([]T, 0)
	}
	return s
}
