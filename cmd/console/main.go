package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwebster45206/echo-chronicle/internal/config"
	"github.com/jwebster45206/echo-chronicle/internal/game"
	"github.com/jwebster45206/echo-chronicle/internal/logger"
	"github.com/jwebster45206/echo-chronicle/internal/services"
	"github.com/jwebster45206/echo-chronicle/internal/storage"
	"github.com/jwebster45206/echo-chronicle/internal/turn"
	"github.com/jwebster45206/echo-chronicle/pkg/scenario"
	"github.com/jwebster45206/echo-chronicle/pkg/state"
	pkgstorage "github.com/jwebster45206/echo-chronicle/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, closer, err := logger.Setup(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = closer.Close() // Ignore error in defer
	}()

	log.Info("Starting Echo Chronicle",
		"environment", cfg.Environment,
		"llm_provider", cfg.LLMProvider,
		"storage_backend", cfg.StorageBackend,
		"model_name", cfg.ModelName)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	kv, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to open storage", "error", err)
		fmt.Fprintf(os.Stderr, "Failed to open storage: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := kv.Close(); err != nil {
			log.Error("Error closing storage", "error", err)
		}
	}()

	tables, err := scenario.Default()
	if err != nil {
		log.Error("Failed to load creation tables", "error", err)
		os.Exit(1)
	}

	gen, err := newGenerator(ctx, cfg, log)
	if err != nil {
		log.Warn("Generator unavailable, starting without one", "error", err)
	}
	if c, ok := gen.(interface{ Close() error }); ok {
		defer func() {
			_ = c.Close() // Ignore error in defer
		}()
	}

	gateway := storage.NewGateway(kv, log).WithIntroVideoTTL(cfg.IntroVideoTTL)
	store := game.NewStore(gateway, state.NewReducer(cfg.HistoryCap), log)
	store.Init(ctx, gen == nil)
	if gateway.LoadLanguage(ctx) == "" && cfg.Language != store.State().Settings.Language {
		store.Dispatch(state.SetLanguage{Language: cfg.Language})
	}

	media := services.NoopMedia{}
	orch := turn.NewOrchestrator(store, gen, tables, log).
		WithMedia(media, media, gateway).
		WithSummaryEvery(cfg.SummaryEvery).
		WithVideoPollInterval(cfg.VideoPollInterval)
	defer orch.Close()

	p := tea.NewProgram(NewConsoleUI(ctx, orch, store, cfg.DataDir),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx))
	unsubscribe := store.Subscribe(func(gs state.GameState) {
		p.Send(stateMsg{gs})
	})
	defer unsubscribe()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		log.Error("Console exited with error", "error", err)
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
	log.Info("Echo Chronicle closed")
}

// openStorage connects the configured key-value backend.
func openStorage(ctx context.Context, cfg *config.Config, log *slog.Logger) (pkgstorage.Storage, error) {
	switch cfg.StorageBackend {
	case config.BackendRedis:
		rs, err := storage.NewRedisStorage(cfg.RedisURL, log)
		if err != nil {
			return nil, err
		}
		waitCtx, waitCancel := context.WithTimeout(ctx, 30*time.Second)
		defer waitCancel()
		if err := rs.WaitForConnection(waitCtx, 5, 2*time.Second); err != nil {
			_ = rs.Close()
			return nil, err
		}
		log.Info("Storage connection established successfully", "backend", "redis")
		return rs, nil
	default:
		ss, err := storage.OpenSQLite(cfg.SQLitePath(), log)
		if err != nil {
			return nil, err
		}
		log.Info("Storage opened", "backend", "sqlite", "path", cfg.SQLitePath())
		return ss, nil
	}
}

// newGenerator builds the configured provider. A nil Generator (with no error) means
// no key is configured; the game then reports a configuration error on each turn.
func newGenerator(ctx context.Context, cfg *config.Config, log *slog.Logger) (services.Generator, error) {
	if cfg.ConfigMissing() {
		log.Warn("No API key configured for provider", "provider", cfg.LLMProvider)
		return nil, nil
	}
	switch cfg.LLMProvider {
	case config.ProviderAnthropic:
		log.Info("Using Anthropic LLM provider")
		return services.NewAnthropicService(cfg.AnthropicAPIKey, cfg.ModelName, log), nil
	default:
		g, err := services.NewGeminiService(ctx, cfg.GeminiAPIKey, cfg.ModelName, log)
		if err != nil {
			return nil, err
		}
		log.Info("Using Gemini LLM provider")
		return g, nil
	}
}
