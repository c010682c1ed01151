package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/jwebster45206/echo-chronicle/internal/game"
	"github.com/jwebster45206/echo-chronicle/internal/turn"
	"github.com/jwebster45206/echo-chronicle/pkg/state"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner plays test suites through an in-process orchestrator.
type Runner struct {
	Orchestrator      *turn.Orchestrator
	Store             *game.Store
	Timeout           time.Duration
	Logger            func(format string, args ...any)
	ErrorHandlingMode ErrorHandlingMode
}

// NewRunner creates a new test runner
func NewRunner(orch *turn.Orchestrator, store *game.Store) *Runner {
	return &Runner{
		Orchestrator:      orch,
		Store:             store,
		Timeout:           60 * time.Second,
		Logger:            func(string, ...any) {},
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a YAML file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := yaml.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse YAML in %s: %w", filename, err)
	}
	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}
	if !suite.IsSequence() {
		return []TestJob{{Name: suite.Name, Suite: suite, CaseFile: filename}}, nil
	}

	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		subJobs, err := LoadTestSuiteWithExpansion(filepath.Join(casesDir, caseFile), casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}
		jobs = append(jobs, subJobs...)
	}
	return jobs, nil
}

// RunSuite restarts the chronicle and plays every step of suite.
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job:     TestJob{Name: suite.Name, Suite: suite},
		Results: make([]TestResult, 0, len(suite.Steps)),
		RunID:   uuid.New(),
	}

	r.Store.Restart(ctx)
	r.Logger("Suite %s started (run %s)", suite.Name, result.RunID)

	for i, step := range suite.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step %d: %s %s", i+1, step.Op, step.Input)
		}

		stepStart := time.Now()
		err := r.runStep(ctx, step)
		gs := r.Store.State()
		if err == nil {
			err = CheckExpectations(gs, step.Expectations)
		}

		tr := TestResult{
			StepName:  name,
			Success:   err == nil,
			Error:     err,
			Duration:  time.Since(stepStart),
			SceneText: gs.SceneText,
		}
		result.Results = append(result.Results, tr)

		if err != nil {
			r.Logger("  ✗ %s: %v", name, err)
			if result.Error == nil {
				result.Error = fmt.Errorf("%s: %w", name, err)
			}
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
			continue
		}
		r.Logger("  ✓ %s (%v)", name, tr.Duration)
	}

	result.Duration = time.Since(start)
	return result, result.Error
}

// runStep performs one operation. Failed turns surface through state, so the
// operation's own error is only returned when state would not show it.
func (r *Runner) runStep(ctx context.Context, step TestStep) error {
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	o := r.Orchestrator
	var err error
	switch step.Op {
	case OpOpen:
		err = o.Open(ctx)
	case OpChoose:
		err = o.ChooseByText(ctx, r.resolveChoice(step.Input))
	case OpNameInsight:
		err = o.NameInsight(ctx, step.Input)
	case OpInterpret:
		input := step.Input
		if gs := r.Store.State(); gs.LoreToInterpret != nil {
			input = pick(input, gs.LoreToInterpret.Options)
		}
		err = o.InterpretLore(ctx, input)
	case OpSurge:
		err = o.CustomAction(ctx, step.Input)
	case OpFocus:
		err = o.FocusSenses(ctx)
	case OpReflect:
		err = o.RequestReflection(ctx)
	case OpRetry:
		err = o.Retry(ctx)
	case OpRestart:
		r.Store.Restart(ctx)
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}

	if err != nil && r.Store.State().Error == "" {
		return err
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("step timed out after %v", r.Timeout)
	}
	return nil
}

func (r *Runner) resolveChoice(input string) string {
	return pick(input, r.Store.State().Choices)
}

// pick resolves a 1-based index into options, or returns input unchanged.
func pick(input string, options []string) string {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n < 1 || n > len(options) {
		return input
	}
	return options[n-1]
}

// CheckExpectations compares gs against exp and reports every mismatch.
func CheckExpectations(gs state.GameState, exp Expectations) error {
	var problems []string
	fail := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if exp.Phase != nil && string(gs.Phase()) != *exp.Phase {
		fail("expected phase %s, got %s", *exp.Phase, gs.Phase())
	}
	if exp.HasProfile != nil && (gs.Profile != nil) != *exp.HasProfile {
		fail("expected has_profile %t", *exp.HasProfile)
	}
	if exp.StoryEntryCount != nil && gs.StoryEntryCount != *exp.StoryEntryCount {
		fail("expected story_entry_count %d, got %d", *exp.StoryEntryCount, gs.StoryEntryCount)
	}
	if exp.MinChoices != nil && len(gs.Choices) < *exp.MinChoices {
		fail("expected at least %d choices, got %d", *exp.MinChoices, len(gs.Choices))
	}
	if exp.Error != nil && (gs.Error != "") != *exp.Error {
		fail("expected error %t, got %q", *exp.Error, gs.Error)
	}
	if exp.Reflection != nil && (gs.PendingReflection != "") != *exp.Reflection {
		fail("expected reflection %t", *exp.Reflection)
	}

	scene := strings.ToLower(gs.SceneText)
	for _, s := range exp.SceneContains {
		if !strings.Contains(scene, strings.ToLower(s)) {
			fail("scene does not contain %q", s)
		}
	}
	for _, s := range exp.SceneNotContains {
		if strings.Contains(scene, strings.ToLower(s)) {
			fail("scene contains %q", s)
		}
	}
	if exp.SceneRegex != "" {
		re, err := regexp.Compile(exp.SceneRegex)
		if err != nil {
			fail("invalid scene_regex: %v", err)
		} else if !re.MatchString(gs.SceneText) {
			fail("scene does not match %s", exp.SceneRegex)
		}
	}
	if exp.SceneMinLength != nil && len(gs.SceneText) < *exp.SceneMinLength {
		fail("scene shorter than %d", *exp.SceneMinLength)
	}
	if exp.SceneMaxLength != nil && len(gs.SceneText) > *exp.SceneMaxLength {
		fail("scene longer than %d", *exp.SceneMaxLength)
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
