package game

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/jwebster45206/echo-chronicle/pkg/state"
)

// DefaultPersistTimeout bounds each storage write made after a dispatch.
const DefaultPersistTimeout = 5 * time.Second

// Persistence is the storage side of the store. *storage.Gateway implements it.
type Persistence interface {
	LoadSnapshot(ctx context.Context, base state.GameState) (state.GameState, bool)
	SaveSnapshot(ctx context.Context, gs state.GameState) error
	ClearSnapshot(ctx context.Context) error
	LoadSettings(ctx context.Context) state.Settings
	SaveSettings(ctx context.Context, s state.Settings) error
}

// Listener receives the state produced by each dispatch.
type Listener func(state.GameState)

type subscription struct {
	id int
	l  Listener
}

// Store owns the single GameState. Dispatch is the only way to change it: actions are
// reduced one at a time under a lock, then mirrored to storage and fanned out to
// listeners in subscription order.
//
// Listeners run synchronously and must not call Dispatch themselves.
type Store struct {
	mu         sync.Mutex
	state      state.GameState
	generation uint64

	// held from reduce until listeners return, so notifications never reorder
	notifyMu sync.Mutex

	listenerMu sync.RWMutex
	listeners  []subscription
	nextID     int

	reducer        state.Reducer
	persist        Persistence
	persistTimeout time.Duration
	logger         *slog.Logger
}

func NewStore(persist Persistence, reducer state.Reducer, logger *slog.Logger) *Store {
	return &Store{
		state:          state.NewGameState(),
		reducer:        reducer,
		persist:        persist,
		persistTimeout: DefaultPersistTimeout,
		logger:         logger,
	}
}

// Init restores settings and any saved chronicle. It reports whether a snapshot
// was restored.
func (s *Store) Init(ctx context.Context, configMissing bool) bool {
	base := state.NewGameState()
	base.ConfigMissing = configMissing
	restored := false
	if s.persist != nil {
		base.Settings = s.persist.LoadSettings(ctx)
		base, restored = s.persist.LoadSnapshot(ctx, base)
	}
	base = s.reducer.Restore(base)

	s.mu.Lock()
	s.state = base
	s.mu.Unlock()

	s.logger.Info("Game state initialized",
		"restored", restored,
		"config_missing", configMissing,
		"story_entries", base.StoryEntryCount)
	return restored
}

// State returns the current state. The value shares slices with the store, and
// callers must treat it as read-only.
func (s *Store) State() state.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Generation changes on every reset. Work started under one generation must not
// land in another.
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Dispatch reduces a and returns the new state.
func (s *Store) Dispatch(a state.Action) state.GameState {
	gs, _ := s.dispatch(a, nil)
	return gs
}

// DispatchIfCurrent applies a only if no reset happened since gen was read. It
// reports whether the action was applied.
func (s *Store) DispatchIfCurrent(gen uint64, a state.Action) (state.GameState, bool) {
	return s.dispatch(a, &gen)
}

func (s *Store) dispatch(a state.Action, gen *uint64) (state.GameState, bool) {
	s.mu.Lock()
	if gen != nil && *gen != s.generation {
		gs := s.state
		s.mu.Unlock()
		s.logger.Debug("Dropping stale action", "action", actionName(a), "generation", *gen)
		return gs, false
	}
	prev := s.state
	s.state = s.reducer.Reduce(s.state, a)
	if _, ok := a.(state.Reset); ok {
		s.generation++
	}
	gs := s.state

	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	s.mirror(a, prev, gs)
	s.notify(gs)
	return gs, true
}

// Restart discards the saved chronicle and resets gameplay state.
func (s *Store) Restart(ctx context.Context) state.GameState {
	if s.persist != nil {
		if err := s.persist.ClearSnapshot(ctx); err != nil {
			s.logger.Error("Failed to clear snapshot", "error", err)
		}
	}
	return s.Dispatch(state.Reset{})
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) func() {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, subscription{id: id, l: l})
	return func() {
		s.listenerMu.Lock()
		defer s.listenerMu.Unlock()
		s.listeners = slices.DeleteFunc(s.listeners, func(sub subscription) bool { return sub.id == id })
	}
}

func (s *Store) notify(gs state.GameState) {
	s.listenerMu.RLock()
	ls := slices.Clone(s.listeners)
	s.listenerMu.RUnlock()

	for _, sub := range ls {
		sub.l(gs)
	}
}

// mirror writes the parts of gs that a changes. Storage failures are logged; play
// continues on the in-memory state.
func (s *Store) mirror(a state.Action, prev, gs state.GameState) {
	if s.persist == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
	defer cancel()

	switch {
	case persistsSettings(a):
		if prev.Settings == gs.Settings {
			return
		}
		if err := s.persist.SaveSettings(ctx, gs.Settings); err != nil {
			s.logger.Error("Failed to save settings", "error", err)
		}
	case persistsSnapshot(a):
		if err := s.persist.SaveSnapshot(ctx, gs); err != nil {
			s.logger.Error("Failed to save snapshot", "action", actionName(a), "error", err)
		}
	}
}

func persistsSettings(a state.Action) bool {
	switch a.(type) {
	case state.SetVolume, state.SetMuted, state.SetColorblindAssist, state.SetLanguage:
		return true
	}
	return false
}

func persistsSnapshot(a state.Action) bool {
	switch a.(type) {
	case state.StartGame, state.TurnSucceeded, state.SummaryUpdated, state.ChoiceMade,
		state.ReflectionReceived, state.AdvanceSurgeCooldown,
		state.ArchetypeSelected, state.OriginSelected, state.BackgroundSelected, state.CharacterNamed,
		state.AddPlayerNote, state.UpdatePlayerNote, state.DeletePlayerNote,
		state.MoveMindMapNode, state.LinkMindMapNodes, state.UnlinkMindMapNodes,
		state.AddHistoryEntry, state.ImageResolved,
		state.ClearDream, state.ClearInsightToName, state.ClearLoreInterpretation:
		return true
	}
	return false
}
