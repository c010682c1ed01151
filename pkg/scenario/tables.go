package scenario

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/creation.yaml
var defaultTables []byte

// Archetype is the first character-creation choice. Origins lists the origin ids it
// may be combined with.
type Archetype struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Origins     []string `yaml:"origins" json:"origins"`
}

type Origin struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Backgrounds []string `yaml:"backgrounds" json:"backgrounds"`
}

type Background struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
}

// Tables holds the static reference data that decides which creation choices are
// legal next. The generator only narrates; it never decides legality.
type Tables struct {
	Archetypes  []Archetype  `yaml:"archetypes"`
	Origins     []Origin     `yaml:"origins"`
	Backgrounds []Background `yaml:"backgrounds"`
}

// Default returns the tables compiled into the binary.
func Default() (*Tables, error) {
	return Parse(defaultTables)
}

// LoadFile reads replacement tables from a YAML file.
func LoadFile(path string) (*Tables, error) {
	b, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read creation tables: %w", err)
	}
	return Parse(b)
}

func Parse(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal creation tables: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate checks that every cross-reference resolves.
func (t *Tables) Validate() error {
	if len(t.Archetypes) == 0 {
		return fmt.Errorf("creation tables have no archetypes")
	}
	for _, a := range t.Archetypes {
		if len(a.Origins) == 0 {
			return fmt.Errorf("archetype %q has no origins", a.ID)
		}
		for _, id := range a.Origins {
			if _, ok := t.Origin(id); !ok {
				return fmt.Errorf("archetype %q references unknown origin %q", a.ID, id)
			}
		}
	}
	for _, o := range t.Origins {
		for _, id := range o.Backgrounds {
			if _, ok := t.Background(id); !ok {
				return fmt.Errorf("origin %q references unknown background %q", o.ID, id)
			}
		}
	}
	return nil
}

func (t *Tables) Archetype(id string) (Archetype, bool) {
	i := slices.IndexFunc(t.Archetypes, func(a Archetype) bool { return a.ID == id })
	if i < 0 {
		return Archetype{}, false
	}
	return t.Archetypes[i], true
}

func (t *Tables) Origin(id string) (Origin, bool) {
	i := slices.IndexFunc(t.Origins, func(o Origin) bool { return o.ID == id })
	if i < 0 {
		return Origin{}, false
	}
	return t.Origins[i], true
}

func (t *Tables) Background(id string) (Background, bool) {
	i := slices.IndexFunc(t.Backgrounds, func(b Background) bool { return b.ID == id })
	if i < 0 {
		return Background{}, false
	}
	return t.Backgrounds[i], true
}

// OriginsFor lists the origins legal for an archetype, in table order.
func (t *Tables) OriginsFor(archetypeID string) []Origin {
	a, ok := t.Archetype(archetypeID)
	if !ok {
		return nil
	}
	out := make([]Origin, 0, len(a.Origins))
	for _, id := range a.Origins {
		if o, ok := t.Origin(id); ok {
			out = append(out, o)
		}
	}
	return out
}

// BackgroundsFor lists the backgrounds legal for an origin, in table order.
func (t *Tables) BackgroundsFor(originID string) []Background {
	o, ok := t.Origin(originID)
	if !ok {
		return nil
	}
	out := make([]Background, 0, len(o.Backgrounds))
	for _, id := range o.Backgrounds {
		if b, ok := t.Background(id); ok {
			out = append(out, b)
		}
	}
	return out
}

// FindArchetype resolves choice text (an id or a display name) to an archetype.
func (t *Tables) FindArchetype(text string) (Archetype, bool) {
	i := slices.IndexFunc(t.Archetypes, func(a Archetype) bool { return matches(text, a.ID, a.Name) })
	if i < 0 {
		return Archetype{}, false
	}
	return t.Archetypes[i], true
}

// FindOrigin resolves choice text among the origins legal for archetypeID.
func (t *Tables) FindOrigin(archetypeID, text string) (Origin, bool) {
	for _, o := range t.OriginsFor(archetypeID) {
		if matches(text, o.ID, o.Name) {
			return o, true
		}
	}
	return Origin{}, false
}

// FindBackground resolves choice text among the backgrounds legal for originID.
func (t *Tables) FindBackground(originID, text string) (Background, bool) {
	for _, b := range t.BackgroundsFor(originID) {
		if matches(text, b.ID, b.Name) {
			return b, true
		}
	}
	return Background{}, false
}

// matches compares loosely: case, surrounding space and a trailing period are ignored.
func matches(text string, candidates ...string) bool {
	norm := func(s string) string {
		return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), ".")
	}
	want := norm(text)
	if want == "" {
		return false
	}
	for _, c := range candidates {
		if norm(c) == want {
			return true
		}
	}
	return false
}
