package edition

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testDefinitions = `
params:
  bg:
    hue: 0
  shape:
    sides: 3
    radius: 0.1
sets:
  - name: one
    count: 3
    rules:
      - {path: shape.radius, kind: linear, range: [0, 1], step: 0.5, overflow: wrap, inclusive_end: false}
      - {path: bg.hue, kind: rnd, range: [0, 1]}
  - name: two
    count: 2
    rules:
      - {path: shape.sides, kind: rnd_set, choices: [5, 7]}
animation:
  - {dest: shape.radius, fn: sin, params: [30, 0.1]}
render:
  fps: 24
  anim_frames: 12
`

func TestLoadDefinitions(t *testing.T) {
	defs, err := LoadDefinitions(strings.NewReader(testDefinitions))
	if err != nil {
		t.Fatalf("LoadDefinitions: %v", err)
	}
	if len(defs.Sets) != 2 || defs.Sets[0].Name != "one" || defs.Sets[1].Count != 2 {
		t.Fatalf("sets = %+v", defs.Sets)
	}
	rule := defs.Sets[0].Rules[0]
	if rule.Kind != KindLinear || rule.Linear.Step != 0.5 || rule.Linear.Overflow != OverflowWrap || rule.Linear.InclusiveEnd {
		t.Errorf("linear rule = %+v", rule)
	}
	if defs.Sets[0].Rules[1].Kind != KindUniform {
		t.Errorf("rnd alias = %q, want uniform", defs.Sets[0].Rules[1].Kind)
	}
	if defs.Render.FPS != 24 || defs.Render.AnimFrames != 12 {
		t.Errorf("render = %+v", defs.Render)
	}
	if defs.Render.ChunkMB != 500 || defs.Render.Folders != DefaultFolders() {
		t.Errorf("unset render fields = %+v, want defaults", defs.Render)
	}
	if len(defs.Animation) != 1 || defs.Animation[0].Fn != "sin" {
		t.Errorf("animation = %+v", defs.Animation)
	}
	if err := defs.Check(); err != nil {
		t.Errorf("Check: %v", err)
	}
}

func TestDefinitionsNewManager(t *testing.T) {
	defs, err := LoadDefinitions(strings.NewReader(testDefinitions))
	if err != nil {
		t.Fatal(err)
	}
	m, err := defs.NewManager()
	if err != nil {
		t.Fatal(err)
	}
	if m.Total() != 5 {
		t.Errorf("Total = %d, want 5", m.Total())
	}
	if err := m.SelectSequenceNumber(3); err != nil {
		t.Fatal(err)
	}
	if v, _ := m.Store().Float("shape.radius"); v != 0 {
		t.Errorf("seq 3 radius = %v, want 0 (wrapped)", v)
	}
	if v := defs.Params["shape"].(map[string]any)["radius"]; v != 0.1 {
		t.Errorf("params radius = %v, want untouched 0.1", v)
	}
}

func TestLoadDefinitionsErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{"no sets", "params: {}\n", ErrInvalidRule},
		{"bad kind", "sets:\n  - {name: a, count: 1, rules: [{path: x, kind: perlin}]}\n", ErrInvalidRule},
		{"no path", "sets:\n  - {name: a, count: 1, rules: [{kind: constant, value: 1}]}\n", ErrInvalidRule},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadDefinitions(strings.NewReader(tt.yaml))
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := LoadDefinitions(strings.NewReader("sets: []\nbogus: 1\n")); err == nil {
		t.Error("unknown field should be rejected")
	}
}

func TestDefinitionsCheck(t *testing.T) {
	defs, err := LoadDefinitions(strings.NewReader("params: {a: {x: 1}}\nsets:\n  - {name: s, count: 1, rules: [{path: b.x, kind: constant, value: 2}]}\n"))
	if err != nil {
		t.Fatal(err)
	}
	if err := defs.Check(); !errors.Is(err, ErrUnknownPath) {
		t.Errorf("Check = %v, want ErrUnknownPath", err)
	}

	defs.Sets[0].Rules[0].Path = "a.x"
	defs.Animation = []Channel{{Dest: "c.y", Fn: "sin"}}
	if err := defs.Check(); !errors.Is(err, ErrUnknownPath) {
		t.Errorf("Check with bad animation = %v, want ErrUnknownPath", err)
	}
}

func TestLoadDefinitionsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defs.yaml")
	if err := os.WriteFile(path, []byte(testDefinitions), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDefinitionsFile(path); err != nil {
		t.Errorf("LoadDefinitionsFile: %v", err)
	}
	if _, err := LoadDefinitionsFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file should fail")
	}
}
