package scenario

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	tables, err := Default()
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}
	if len(tables.Archetypes) == 0 || len(tables.Origins) == 0 || len(tables.Backgrounds) == 0 {
		t.Fatalf("embedded tables are empty: %+v", tables)
	}
	for _, a := range tables.Archetypes {
		if len(tables.OriginsFor(a.ID)) == 0 {
			t.Errorf("archetype %s has no legal origins", a.ID)
		}
	}
}

func TestTables_Find(t *testing.T) {
	tables, err := Default()
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}

	tests := []struct {
		name string
		find func() bool
		want bool
	}{
		{"archetype by name", func() bool { _, ok := tables.FindArchetype("silent cartographer"); return ok }, true},
		{"archetype by id", func() bool { _, ok := tables.FindArchetype(" warden "); return ok }, true},
		{"archetype with period", func() bool { _, ok := tables.FindArchetype("Resonant."); return ok }, true},
		{"unknown archetype", func() bool { _, ok := tables.FindArchetype("Bard"); return ok }, false},
		{"empty text", func() bool { _, ok := tables.FindArchetype(""); return ok }, false},
		{"legal origin", func() bool { _, ok := tables.FindOrigin("warden", "The Ashen Road"); return ok }, true},
		{"origin not legal for archetype", func() bool { _, ok := tables.FindOrigin("warden", "The Hollow Spire"); return ok }, false},
		{"legal background", func() bool { _, ok := tables.FindBackground("hollow_spire", "Spire Archivist"); return ok }, true},
		{"background not legal for origin", func() bool { _, ok := tables.FindBackground("hollow_spire", "Salvager"); return ok }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.find(); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad yaml":            "archetypes: [",
		"no archetypes":       "origins: []",
		"dangling origin":     "archetypes:\n  - id: a\n    origins: [nope]\n",
		"no origins":          "archetypes:\n  - id: a\n",
		"dangling background": "archetypes:\n  - id: a\n    origins: [o]\norigins:\n  - id: o\n    backgrounds: [nope]\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(doc)); err == nil {
				t.Errorf("Expected error")
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	doc := "archetypes:\n  - id: a\n    name: A\n    origins: [o]\norigins:\n  - id: o\n    name: O\n    backgrounds: [b]\nbackgrounds:\n  - id: b\n    name: B\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	tables, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if bgs := tables.BackgroundsFor("o"); len(bgs) != 1 || bgs[0].Name != "B" {
		t.Errorf("unexpected backgrounds: %+v", bgs)
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("Expected error for missing file")
	}
}
