package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jwebster45206/echo-chronicle/pkg/state"
	"github.com/jwebster45206/echo-chronicle/pkg/storage"
)

const (
	KeyPrefix     = "echo-chronicle:"
	SnapshotKey   = KeyPrefix + "snapshot"
	LanguageKey   = KeyPrefix + "language"
	SettingsKey   = KeyPrefix + "settings"
	IntroVideoKey = KeyPrefix + "intro-video"
)

// DefaultIntroVideoTTL is how long a generated intro video URL may be reused.
const DefaultIntroVideoTTL = 24 * time.Hour

// IntroVideo is the cached intro video entry.
type IntroVideo struct {
	URL       string `json:"url"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
}

type languageDoc struct {
	Language string `json:"language"`
}

// Gateway mirrors the persisted parts of game state into a key/value store. Language,
// settings and the intro video live under their own keys so a chronicle restart
// leaves them alone.
type Gateway struct {
	store    storage.Storage
	logger   *slog.Logger
	introTTL time.Duration
	now      func() time.Time
}

func NewGateway(store storage.Storage, logger *slog.Logger) *Gateway {
	return &Gateway{
		store:    store,
		logger:   logger,
		introTTL: DefaultIntroVideoTTL,
		now:      time.Now,
	}
}

// WithIntroVideoTTL overrides the intro video cache window.
func (g *Gateway) WithIntroVideoTTL(ttl time.Duration) *Gateway {
	if ttl > 0 {
		g.introTTL = ttl
	}
	return g
}

// WithClock replaces the clock used for cache expiry.
func (g *Gateway) WithClock(now func() time.Time) *Gateway {
	g.now = now
	return g
}

// SaveSnapshot writes the curated subset of gs under SnapshotKey.
func (g *Gateway) SaveSnapshot(ctx context.Context, gs state.GameState) error {
	data, err := json.Marshal(gs.ToSnapshot())
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := g.store.Set(ctx, SnapshotKey, string(data), 0); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot restores a saved chronicle on top of base. It reports whether a
// snapshot was applied. Read and decode failures are logged, never returned; a
// corrupt snapshot is deleted so the next start is clean.
func (g *Gateway) LoadSnapshot(ctx context.Context, base state.GameState) (state.GameState, bool) {
	raw, err := g.store.Get(ctx, SnapshotKey)
	if err != nil {
		g.logger.Error("Failed to read snapshot, starting fresh", "error", err)
		return base, false
	}
	if raw == "" {
		return base, false
	}
	snap, err := state.DecodeSnapshot([]byte(raw))
	if err != nil {
		g.logger.Warn("Discarding corrupt snapshot", "error", err, "length", len(raw))
		if err := g.store.Del(ctx, SnapshotKey); err != nil {
			g.logger.Error("Failed to delete corrupt snapshot", "error", err)
		}
		return base, false
	}
	return snap.Apply(base), true
}

// ClearSnapshot removes the saved chronicle.
func (g *Gateway) ClearSnapshot(ctx context.Context) error {
	if err := g.store.Del(ctx, SnapshotKey); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}
	return nil
}

func (g *Gateway) SaveLanguage(ctx context.Context, lang string) error {
	data, err := json.Marshal(languageDoc{Language: lang})
	if err != nil {
		return fmt.Errorf("failed to marshal language: %w", err)
	}
	if err := g.store.Set(ctx, LanguageKey, string(data), 0); err != nil {
		return fmt.Errorf("failed to save language: %w", err)
	}
	return nil
}

// LoadLanguage returns the saved language, or "" if none is stored or it is unreadable.
func (g *Gateway) LoadLanguage(ctx context.Context) string {
	raw, err := g.store.Get(ctx, LanguageKey)
	if err != nil || raw == "" {
		if err != nil {
			g.logger.Error("Failed to read language", "error", err)
		}
		return ""
	}
	var doc languageDoc
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		g.logger.Warn("Discarding corrupt language entry", "error", err)
		_ = g.store.Del(ctx, LanguageKey)
		return ""
	}
	return doc.Language
}

// SaveSettings persists settings. The language is also written to its own key.
func (g *Gateway) SaveSettings(ctx context.Context, s state.Settings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := g.store.Set(ctx, SettingsKey, string(data), 0); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return g.SaveLanguage(ctx, s.Language)
}

// LoadSettings returns saved settings merged over defaults. The language key wins
// over the language recorded inside the settings document.
func (g *Gateway) LoadSettings(ctx context.Context) state.Settings {
	settings := state.DefaultSettings()
	raw, err := g.store.Get(ctx, SettingsKey)
	switch {
	case err != nil:
		g.logger.Error("Failed to read settings", "error", err)
	case raw != "":
		if err := json.Unmarshal([]byte(raw), &settings); err != nil {
			g.logger.Warn("Discarding corrupt settings", "error", err)
			settings = state.DefaultSettings()
			_ = g.store.Del(ctx, SettingsKey)
		}
	}
	if lang := g.LoadLanguage(ctx); lang != "" {
		settings.Language = lang
	}
	return settings
}

// SaveIntroVideo caches a generated intro video URL with the current time.
func (g *Gateway) SaveIntroVideo(ctx context.Context, url string) error {
	data, err := json.Marshal(IntroVideo{URL: url, Timestamp: g.now().UnixMilli()})
	if err != nil {
		return fmt.Errorf("failed to marshal intro video: %w", err)
	}
	if err := g.store.Set(ctx, IntroVideoKey, string(data), g.introTTL); err != nil {
		return fmt.Errorf("failed to save intro video: %w", err)
	}
	return nil
}

// LoadIntroVideo returns the cached URL if it is younger than the cache window.
// Stale and corrupt entries are removed.
func (g *Gateway) LoadIntroVideo(ctx context.Context) (string, bool) {
	raw, err := g.store.Get(ctx, IntroVideoKey)
	if err != nil {
		g.logger.Error("Failed to read intro video cache", "error", err)
		return "", false
	}
	if raw == "" {
		return "", false
	}
	var iv IntroVideo
	if err := json.Unmarshal([]byte(raw), &iv); err != nil || iv.URL == "" {
		g.logger.Warn("Discarding corrupt intro video cache", "error", err)
		_ = g.store.Del(ctx, IntroVideoKey)
		return "", false
	}
	age := g.now().Sub(time.UnixMilli(iv.Timestamp))
	if age < 0 || age >= g.introTTL {
		g.logger.Debug("Intro video cache expired", "age", age)
		_ = g.store.Del(ctx, IntroVideoKey)
		return "", false
	}
	return iv.URL, true
}
