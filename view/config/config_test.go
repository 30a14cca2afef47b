package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/lguimbarda/min-view/view"
	"github.com/lguimbarda/min-view/view/config"
	"github.com/lguimbarda/min-view/view/core"
)

type player struct {
	Name  string
	Score int
}

const topScorers = `
name: top-scorers
stages:
  - kind: filter
    pattern: "a"
  - kind: sort
    field: Score
    desc: true
  - kind: take
    value: 2
`

func players() *core.Collection[player] {
	return core.NewCollection(
		player{"anna", 3},
		player{"bob", 9},
		player{"carl", 7},
		player{"dana", 5},
	)
}

func names(items []player) []string {
	out := make([]string, len(items))
	for i, p := range items {
		out[i] = p.Name
	}
	return out
}

func TestParseAndBuild(t *testing.T) {
	def, err := config.Parse(strings.NewReader(topScorers), "yaml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if def.Name != "top-scorers" || len(def.Stages) != 3 {
		t.Fatalf("unexpected definition: %+v", def)
	}

	v, err := config.Build[player](players(), def, config.Bindings{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if v.Name() != "top-scorers" {
		t.Errorf("Name = %q", v.Name())
	}
	if got, want := names(v.Items()), []string{"carl", "dana"}; !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseJSON(t *testing.T) {
	doc := `{"stages": [{"kind": "skip", "value": 1}, {"kind": "step", "value": 2}]}`
	def, err := config.Parse(strings.NewReader(doc), "json")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	v, err := config.Build[player](players(), def, config.Bindings{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got, want := names(v.Items()), []string{"bob", "dana"}; !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestBoundParameters(t *testing.T) {
	doc := `
stages:
  - kind: filter
    param: query
  - kind: take
    param: limit
`
	def, err := config.Parse(strings.NewReader(doc), "yaml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	query := core.NewObservable("")
	limit := core.NewObservable(1)
	v, err := config.Build[player](players(), def, config.Bindings{
		Ints:    map[string]core.Readable[int]{"limit": limit},
		Strings: map[string]core.Readable[string]{"query": query},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := names(v.Items()); !slices.Equal(got, []string{"anna"}) {
		t.Fatalf("got %v", got)
	}

	_ = limit.Set(3)
	if got := names(v.Items()); !slices.Equal(got, []string{"anna", "bob", "carl"}) {
		t.Errorf("after limit change: %v", got)
	}

	_ = query.Set("d")
	if got := names(v.Items()); !slices.Equal(got, []string{"dana"}) {
		t.Errorf("after query change: %v", got)
	}
}

func TestInvalidDefinitions(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown kind", "stages:\n  - kind: map\n"},
		{"missing kind", "stages:\n  - pattern: x\n"},
		{"sort without field", "stages:\n  - kind: sort\n"},
		{"take without value", "stages:\n  - kind: take\n"},
		{"take with value and param", "stages:\n  - kind: take\n    value: 1\n    param: n\n"},
		{"pattern on sort", "stages:\n  - kind: sort\n    field: a\n    pattern: x\n"},
		{"value on filter", "stages:\n  - kind: filter\n    value: 2\n"},
		{"unknown key", "stages:\n  - kind: take\n    value: 1\n    limit: 2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := config.Parse(strings.NewReader(tt.doc), "yaml"); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestApplyRejectsNonIntegerValues(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"quoted number", "stages:\n  - kind: skip\n    value: \"2\"\n"},
		{"fraction", "stages:\n  - kind: take\n    value: 2.5\n"},
		{"bool", "stages:\n  - kind: step\n    value: true\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := config.Parse(strings.NewReader(tt.doc), "yaml")
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			v := view.Of[player](players())
			err = config.Apply(v, def, config.Bindings{})
			if !errors.Is(err, view.ErrInvalidOptions) {
				t.Fatalf("expected ErrInvalidOptions, got %v", err)
			}
			if len(v.Stages()) != 0 {
				t.Errorf("no stage should be appended on failure")
			}
		})
	}
}

func TestApplyUnboundParameter(t *testing.T) {
	def := &config.Definition{Stages: []config.Stage{{Kind: "take", Param: "limit"}}}
	err := config.Apply(view.Of[player](players()), def, config.Bindings{})
	if !errors.Is(err, config.ErrUnbound) {
		t.Fatalf("expected ErrUnbound, got %v", err)
	}
}

func TestLoadWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "view.yaml")
	if err := os.WriteFile(path, []byte(topScorers), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MINVIEW_NAME", "from-env")

	def, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if def.Name != "from-env" {
		t.Errorf("Name = %q, want env override", def.Name)
	}
	if len(def.Stages) != 3 {
		t.Errorf("stages = %d", len(def.Stages))
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestDecode(t *testing.T) {
	def, err := config.Decode(map[string]any{
		"name": "raw",
		"stages": []any{
			map[string]any{"kind": "sort", "field": "Name"},
		},
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	v, err := config.Build[player](players(), def, config.Bindings{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := names(v.Items()); !slices.Equal(got, []string{"anna", "bob", "carl", "dana"}) {
		t.Errorf("got %v", got)
	}
}
