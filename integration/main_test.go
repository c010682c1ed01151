//go:build integration

package integration

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jwebster45206/echo-chronicle/integration/runner"
	"github.com/jwebster45206/echo-chronicle/internal/config"
	"github.com/jwebster45206/echo-chronicle/internal/game"
	"github.com/jwebster45206/echo-chronicle/internal/logger"
	"github.com/jwebster45206/echo-chronicle/internal/services"
	"github.com/jwebster45206/echo-chronicle/internal/storage"
	"github.com/jwebster45206/echo-chronicle/internal/turn"
	"github.com/jwebster45206/echo-chronicle/pkg/scenario"
	"github.com/jwebster45206/echo-chronicle/pkg/state"
)

var caseFlag = flag.String("case", "", "Name of test case to run (from integration/cases/)")
var errFlag = flag.String("err", "continue", "Error handling mode: 'continue' (run all steps) or 'exit' (stop on first failure)")

func TestMain(m *testing.M) {
	flag.Parse()
	fmt.Printf("Running Echo Chronicle Integration Tests\n")
	fmt.Printf("   Provider: %s\n", os.Getenv("LLM_PROVIDER"))
	os.Exit(m.Run())
}

// newRunner wires a real generator over a throwaway SQLite store.
func newRunner(t *testing.T) *runner.Runner {
	t.Helper()
	t.Setenv("DATA_DIR", t.TempDir())
	cfg, err := config.Parse()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.ConfigMissing() {
		t.Skipf("No API key for provider %s", cfg.LLMProvider)
	}

	log := logger.New(os.Stdout, cfg)
	kv, err := storage.OpenSQLite(cfg.SQLitePath(), log)
	if err != nil {
		t.Fatalf("Failed to open storage: %v", err)
	}
	t.Cleanup(func() { _ = kv.Close() })

	var gen services.Generator
	switch cfg.LLMProvider {
	case config.ProviderAnthropic:
		gen = services.NewAnthropicService(cfg.AnthropicAPIKey, cfg.ModelName, log)
	default:
		g, err := services.NewGeminiService(context.Background(), cfg.GeminiAPIKey, cfg.ModelName, log)
		if err != nil {
			t.Fatalf("Failed to create Gemini client: %v", err)
		}
		t.Cleanup(func() { _ = g.Close() })
		gen = g
	}

	tables, err := scenario.Default()
	if err != nil {
		t.Fatalf("Failed to load creation tables: %v", err)
	}

	store := game.NewStore(storage.NewGateway(kv, log), state.NewReducer(cfg.HistoryCap), log)
	store.Init(context.Background(), false)
	orch := turn.NewOrchestrator(store, gen, tables, log).WithSummaryEvery(cfg.SummaryEvery)
	t.Cleanup(orch.Close)

	r := runner.NewRunner(orch, store)
	r.Timeout = time.Duration(getIntEnv("TEST_TIMEOUT_SECONDS", 90)) * time.Second
	r.ErrorHandlingMode = runner.ErrorHandlingMode(*errFlag)
	r.Logger = t.Logf
	return r
}

func TestIntegrationSuites(t *testing.T) {
	if *errFlag != "exit" && *errFlag != "continue" {
		t.Fatalf("Invalid -err flag value: %s (must be 'exit' or 'continue')", *errFlag)
	}

	files, err := discoverTestFiles("cases")
	if err != nil {
		t.Fatalf("Failed to discover test files: %v", err)
	}
	if *caseFlag != "" {
		files = selectCases(files, *caseFlag)
	}
	if len(files) == 0 {
		t.Fatal("No test files found in cases directory")
	}

	var jobs []runner.TestJob
	for _, file := range files {
		expanded, err := runner.LoadTestSuiteWithExpansion(file, "cases")
		if err != nil {
			t.Errorf("Failed to load test suite %s: %v", file, err)
			continue
		}
		jobs = append(jobs, expanded...)
	}

	r := newRunner(t)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	var failed []string
	for i, job := range jobs {
		t.Logf("[%d/%d] Starting test suite: %s (%d steps)", i+1, len(jobs), job.Name, len(job.Suite.Steps))
		result, err := r.RunSuite(ctx, job.Suite)
		if err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", job.Name, err))
			t.Errorf("[%d/%d] FAILED: %s", i+1, len(jobs), job.Name)
			continue
		}
		t.Logf("[%d/%d] PASSED: %s in %v", i+1, len(jobs), job.Name, result.Duration)
	}

	t.Logf("Integration Test Summary: %d passed, %d failed", len(jobs)-len(failed), len(failed))
	for _, f := range failed {
		t.Logf("   - %s", f)
	}
}

// Helper functions

func discoverTestFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(path, ".yaml") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// selectCases keeps the files named in a comma-separated -case value.
func selectCases(files []string, names string) []string {
	want := make(map[string]bool)
	for _, n := range strings.Split(names, ",") {
		want[strings.TrimSuffix(strings.TrimSpace(n), ".yaml")] = true
	}
	var out []string
	for _, f := range files {
		if want[strings.TrimSuffix(filepath.Base(f), ".yaml")] {
			out = append(out, f)
		}
	}
	return out
}

func getIntEnv(name string, defaultValue int) int {
	str := os.Getenv(name)
	if str == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return defaultValue
	}
	return val
}
