package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jwebster45206/echo-chronicle/pkg/scenario"
	"github.com/jwebster45206/echo-chronicle/pkg/state"
)

const usage = `Usage: %s <kind> <file>

Kinds:
  tables    creation tables (.yaml)
  turn      a generator turn result (.json)
  snapshot  a saved chronicle snapshot (.json)
`

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		os.Exit(1)
	}

	kind, filename := os.Args[1], os.Args[2]
	validator := &Validator{}

	if err := validator.validateFile(kind, filename); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s file is valid!\n", kind)
}

// Validator collects every problem in a file rather than stopping at the first.
type Validator struct {
	errors []string
}

func (v *Validator) validateFile(kind, filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	v.errors = nil

	switch kind {
	case "tables":
		if ext := filepath.Ext(filename); ext != ".yaml" && ext != ".yml" {
			return fmt.Errorf("creation tables must have a .yaml extension: %s", filepath.Base(filename))
		}
		t, err := scenario.Parse(data)
		if err != nil {
			return fmt.Errorf("file %s: %w", filename, err)
		}
		v.validateTables(t)
	case "turn":
		tr, err := state.ParseTurnResult(data)
		if err != nil {
			return fmt.Errorf("file %s: %w", filename, err)
		}
		v.validateTurn(tr)
	case "snapshot":
		if !json.Valid(data) {
			return fmt.Errorf("file %s contains invalid JSON", filename)
		}
		snap, err := state.DecodeSnapshot(data)
		if err != nil {
			return fmt.Errorf("file %s: %w", filename, err)
		}
		v.validateSnapshot(snap)
	default:
		return fmt.Errorf("unknown kind %q (expected tables, turn or snapshot)", kind)
	}

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}
	return nil
}

// validateTables checks the things Parse tolerates but a good table set avoids.
func (v *Validator) validateTables(t *scenario.Tables) {
	ids := make(map[string]bool)
	check := func(kind, id, name string) {
		if id == "" || name == "" {
			v.addError("%s %q needs both an id and a name", kind, id+name)
		}
		if ids[kind+"/"+id] {
			v.addError("duplicate %s id %q", kind, id)
		}
		ids[kind+"/"+id] = true
	}

	reachable := make(map[string]bool)
	for _, a := range t.Archetypes {
		check("archetype", a.ID, a.Name)
	}
	for _, o := range t.Origins {
		check("origin", o.ID, o.Name)
		if len(t.BackgroundsFor(o.ID)) == 0 {
			v.addError("origin %q has no backgrounds", o.ID)
		}
		for _, b := range o.Backgrounds {
			reachable[b] = true
		}
	}
	for _, b := range t.Backgrounds {
		check("background", b.ID, b.Name)
		if !reachable[b.ID] {
			v.addError("background %q is not offered by any origin", b.ID)
		}
	}
}

func (v *Validator) validateTurn(tr *state.TurnResult) {
	if len(tr.Choices) == 0 {
		v.addError("turn offers no choices")
	}
	for i, c := range tr.Choices {
		if strings.TrimSpace(c) == "" {
			v.addError("choice %d is blank", i+1)
		}
	}
	if p, ok := tr.ImagePrompt.Replacement(); ok && strings.TrimSpace(p) == "" {
		v.addError("imagePrompt is blank; use null to keep the current image")
	}
}

func (v *Validator) validateSnapshot(s *state.Snapshot) {
	if s.Version == 0 {
		v.addError("snapshot has no version")
	}
	if s.Profile != nil && !s.GameStarted {
		v.addError("snapshot has a character but gameStarted is false")
	}
	if s.LastSummaryAt > s.StoryEntryCount {
		v.addError("lastSummaryAt %d is past storyEntryCount %d", s.LastSummaryAt, s.StoryEntryCount)
	}
	seen := make(map[string]bool)
	for _, n := range s.PlayerNotes {
		if seen[n.ID] {
			v.addError("duplicate note id %q", n.ID)
		}
		seen[n.ID] = true
	}
}

func (v *Validator) addError(format string, args ...any) {
	v.errors = append(v.errors, "  - "+fmt.Sprintf(format, args...))
}
