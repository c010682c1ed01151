package runner

import (
	"time"

	"github.com/google/uuid"
)

// Step operations. Each maps onto one orchestrator operation.
const (
	OpOpen        = "open"
	OpChoose      = "choose"
	OpNameInsight = "name_insight"
	OpInterpret   = "interpret"
	OpSurge       = "surge"
	OpFocus       = "focus"
	OpReflect     = "reflect"
	OpRetry       = "retry"
	OpRestart     = "restart"
)

// TestSuite defines a complete chronicle played from a fresh state.
// A suite can instead list other case files to run in order.
type TestSuite struct {
	Name  string     `yaml:"name"`
	Steps []TestStep `yaml:"steps,omitempty"`
	Cases []string   `yaml:"cases,omitempty"`
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep is one player action and the state expected once it settles.
// For choose, an input of "1", "2"... picks from the choices on screen.
type TestStep struct {
	Name         string       `yaml:"name,omitempty"`
	Op           string       `yaml:"op"`
	Input        string       `yaml:"input,omitempty"`
	Expectations Expectations `yaml:"expect"`
}

// Expectations defines what to check after a step settles.
type Expectations struct {
	Phase           *string `yaml:"phase,omitempty"`
	HasProfile      *bool   `yaml:"has_profile,omitempty"`
	StoryEntryCount *int    `yaml:"story_entry_count,omitempty"`
	MinChoices      *int    `yaml:"min_choices,omitempty"`
	Error           *bool   `yaml:"error,omitempty"`
	Reflection      *bool   `yaml:"reflection,omitempty"`

	SceneContains    []string `yaml:"scene_contains,omitempty"`
	SceneNotContains []string `yaml:"scene_not_contains,omitempty"`
	SceneRegex       string   `yaml:"scene_regex,omitempty"`
	SceneMinLength   *int     `yaml:"scene_min_length,omitempty"`
	SceneMaxLength   *int     `yaml:"scene_max_length,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	StepName  string
	Success   bool
	Error     error
	Duration  time.Duration
	SceneText string
}

// TestJob represents a test suite loaded from a case file
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job      TestJob
	Results  []TestResult
	Error    error
	Duration time.Duration
	RunID    uuid.UUID
}
