package edition

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Definitions is the content of an edition definitions file: the declared
// parameter tree, the ordered property sets, animation channels and render
// settings.
type Definitions struct {
	Params    map[string]any
	Sets      []PropertySet
	Animation []Channel
	Render    RenderSettings
}

// RenderSettings are the recording defaults stored alongside the sets.
type RenderSettings struct {
	FPS          float64 `yaml:"fps"`
	ChunkMB      float64 `yaml:"chunk_mb"`
	AnimFrames   int     `yaml:"anim_frames"`
	Width        int     `yaml:"width"`
	Height       int     `yaml:"height"`
	Seed         uint64  `yaml:"seed"`
	HijackTiming bool    `yaml:"hijack_timing"`
	Folders      Folders `yaml:"folders"`
}

type rawDefinitions struct {
	Params    map[string]any `yaml:"params"`
	Sets      []rawSet       `yaml:"sets"`
	Animation []Channel      `yaml:"animation"`
	Render    RenderSettings `yaml:"render"`
}

type rawSet struct {
	Name  string    `yaml:"name"`
	Count int       `yaml:"count"`
	Rules []rawRule `yaml:"rules"`
}

type rawRule struct {
	Path         string    `yaml:"path"`
	Kind         string    `yaml:"kind"`
	Range        []float64 `yaml:"range"`
	Value        any       `yaml:"value"`
	Choices      []any     `yaml:"choices"`
	Step         *float64  `yaml:"step"`
	Overflow     string    `yaml:"overflow"`
	Offset       int       `yaml:"offset"`
	InclusiveEnd *bool     `yaml:"inclusive_end"`
	Repeat       int       `yaml:"repeat"`
	Seed         uint64    `yaml:"seed"`
}

// DefaultRenderSettings returns 30 fps, 500 MB chunks, stills only, 1024x1024
// and the default folder layout.
func DefaultRenderSettings() RenderSettings {
	return RenderSettings{
		FPS:     30,
		ChunkMB: 500,
		Width:   1024,
		Height:  1024,
		Seed:    DefaultSeed,
		Folders: DefaultFolders(),
	}
}

// LoadDefinitionsFile reads a YAML definitions file from disk.
func LoadDefinitionsFile(path string) (*Definitions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definitions: %w", err)
	}
	return LoadDefinitions(bytes.NewReader(data))
}

// LoadDefinitions decodes YAML definitions. Unknown fields are rejected.
// Unset render settings fall back to DefaultRenderSettings.
func LoadDefinitions(r io.Reader) (*Definitions, error) {
	raw := rawDefinitions{Render: DefaultRenderSettings()}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse definitions: %w", err)
	}
	if len(raw.Sets) == 0 {
		return nil, fmt.Errorf("parse definitions: no sets: %w", ErrInvalidRule)
	}

	defs := &Definitions{
		Params:    raw.Params,
		Animation: raw.Animation,
		Render:    raw.Render,
	}
	if defs.Params == nil {
		defs.Params = map[string]any{}
	}
	for _, rs := range raw.Sets {
		set := PropertySet{Name: rs.Name, Count: rs.Count}
		for _, rr := range rs.Rules {
			rule, err := rr.toRule()
			if err != nil {
				return nil, fmt.Errorf("parse definitions: set %q: %w", rs.Name, err)
			}
			set.Rules = append(set.Rules, rule)
		}
		defs.Sets = append(defs.Sets, set)
	}
	return defs, nil
}

func (rr rawRule) toRule() (ParamRule, error) {
	if rr.Path == "" {
		return ParamRule{}, fmt.Errorf("rule without path: %w", ErrInvalidRule)
	}
	kind, err := ParseRuleKind(rr.Kind)
	if err != nil {
		return ParamRule{}, fmt.Errorf("rule %q: %w", rr.Path, err)
	}
	opts := DefaultLinearOptions()
	if rr.Step != nil {
		opts.Step = *rr.Step
	}
	if rr.Overflow != "" {
		opts.Overflow = Overflow(rr.Overflow)
	}
	if rr.InclusiveEnd != nil {
		opts.InclusiveEnd = *rr.InclusiveEnd
	}
	if rr.Repeat > 0 {
		opts.Repeat = rr.Repeat
	}
	opts.Offset = rr.Offset
	return ParamRule{
		Path:    rr.Path,
		Kind:    kind,
		Range:   rr.Range,
		Value:   rr.Value,
		Choices: rr.Choices,
		Linear:  opts,
		Seed:    rr.Seed,
	}, nil
}

// Check verifies that every rule and animation channel writes into a branch
// that exists in Params, and that every rule materializes.
func (d *Definitions) Check() error {
	store := NewStore(cloneTree(d.Params))
	stream := NewStream(d.Render.Seed)
	for _, set := range d.Sets {
		for _, rule := range set.Rules {
			if err := store.Check(rule.Path); err != nil {
				return fmt.Errorf("set %q: %w", set.Name, err)
			}
		}
		if _, err := set.Materialize(stream); err != nil {
			return err
		}
	}
	for _, ch := range d.Animation {
		if err := store.Check(ch.Dest); err != nil {
			return fmt.Errorf("animation: %w", err)
		}
	}
	return nil
}

// NewManager builds a Store from Params and a Manager over the sets.
func (d *Definitions) NewManager(opts ...ManagerOption) (*Manager, error) {
	seed := d.Render.Seed
	if seed == 0 {
		seed = DefaultSeed
	}
	opts = append([]ManagerOption{WithSeed(seed)}, opts...)
	return NewManager(d.Sets, NewStore(cloneTree(d.Params)), opts...)
}
