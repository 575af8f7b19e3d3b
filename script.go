package edition

import (
	"context"
	"encoding/json"
	"fmt"
)

// scriptStep is a single action in a render script.
type scriptStep struct {
	Action       string `json:"action"`
	Set          string `json:"set,omitempty"`
	From         int    `json:"from,omitempty"`
	To           int    `json:"to,omitempty"`
	Seq          []int  `json:"seq,omitempty"`
	Count        int    `json:"count,omitempty"`
	Step         int    `json:"step,omitempty"`
	Offset       int    `json:"offset,omitempty"`
	IncludeFirst bool   `json:"includeFirst,omitempty"`
	IncludeLast  bool   `json:"includeLast,omitempty"`
	Round        bool   `json:"round,omitempty"`
	Limit        int    `json:"limit,omitempty"`
	AnimFrames   int    `json:"animFrames,omitempty"`
	Archive      string `json:"archive,omitempty"`
	Frames       int    `json:"frames,omitempty"`
}

// renderScript is the top-level JSON structure for a render script.
type renderScript struct {
	Steps []scriptStep `json:"steps"`
}

// ScriptRunner runs a sequence of render jobs, one after another. Actions:
//
//	render_set    {"set", "limit", "animFrames"}
//	render_range  {"from", "to", "limit", "animFrames"}
//	render_all    {"limit", "animFrames"}   limit applies per set
//	render_list   {"seq", "limit", "animFrames"}
//	pick          {"count", "offset"} or      offset defaults to 1 {"from", "to", "count"} or
//	              {"step", "offset", "includeFirst", "includeLast", "round"}
//	wait          {"frames"}                host-driven only
//
// Every render action accepts "archive" to name its chunks.
type ScriptRunner struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	done      bool
}

// LoadRenderScript parses a JSON render script.
func LoadRenderScript(jsonData []byte) (*ScriptRunner, error) {
	var script renderScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("parse render script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse render script: no steps")
	}
	for i, st := range script.Steps {
		switch st.Action {
		case "render_set", "render_range", "render_all", "render_list", "pick", "wait":
		default:
			return nil, fmt.Errorf("parse render script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &ScriptRunner{steps: script.Steps}, nil
}

// Done reports whether all steps have been executed.
func (s *ScriptRunner) Done() bool { return s.done }

// Len returns the number of steps.
func (s *ScriptRunner) Len() int { return len(s.steps) }

// list expands a step into the sequence numbers it renders.
func (st scriptStep) list(r *Renderer) ([]int, error) {
	total := r.Manager().Total()
	offset := st.Offset
	if offset == 0 {
		offset = 1
	}
	switch st.Action {
	case "render_set":
		return r.SetList(st.Set)
	case "render_range":
		return SeqRange(st.From, st.To), nil
	case "render_all":
		return r.AllSetsList(st.Limit), nil
	case "render_list":
		return st.Seq, nil
	case "pick":
		switch {
		case st.Step > 0 && st.Round:
			return PickStepRound(st.Step, total, offset, st.IncludeFirst, st.IncludeLast), nil
		case st.Step > 0:
			return PickStep(st.Step, total, offset, st.IncludeLast), nil
		case st.From > 0 || st.To > 0:
			return PickFromTo(st.Count, st.From, st.To), nil
		default:
			return PickCount(st.Count, total, offset), nil
		}
	}
	return nil, nil
}

func (st scriptStep) options() RenderOptions {
	opts := RenderOptions{Limit: st.Limit, AnimFrames: st.AnimFrames, Archive: st.Archive}
	if st.Action == "render_all" {
		opts.Limit = 0
	}
	return opts
}

// Run executes every remaining step with r's DrawFunc. Wait steps are
// skipped.
func (s *ScriptRunner) Run(ctx context.Context, r *Renderer) error {
	for s.cursor < len(s.steps) {
		st := s.steps[s.cursor]
		s.cursor++
		if st.Action == "wait" {
			continue
		}
		list, err := st.list(r)
		if err != nil {
			return fmt.Errorf("script step %d: %w", s.cursor-1, err)
		}
		if err := r.RenderList(ctx, list, st.options()); err != nil {
			return fmt.Errorf("script step %d: %w", s.cursor-1, err)
		}
	}
	s.done = true
	return nil
}

// Step advances the script by one host frame: while r is running it does
// nothing, otherwise it begins the next step. Call it once per frame before
// drawing.
func (s *ScriptRunner) Step(ctx context.Context, r *Renderer) error {
	if s.done || r.Running() {
		return nil
	}
	if s.waitCount > 0 {
		s.waitCount--
		return nil
	}
	if s.cursor >= len(s.steps) {
		s.done = true
		return nil
	}

	st := s.steps[s.cursor]
	s.cursor++
	if st.Action == "wait" {
		if st.Frames > 0 {
			s.waitCount = st.Frames - 1 // this frame counts as one
		}
	} else {
		list, err := st.list(r)
		if err != nil {
			return fmt.Errorf("script step %d: %w", s.cursor-1, err)
		}
		if _, err := r.Begin(ctx, list, st.options()); err != nil {
			return fmt.Errorf("script step %d: %w", s.cursor-1, err)
		}
	}

	if s.cursor >= len(s.steps) && s.waitCount == 0 && !r.Running() {
		s.done = true
	}
	return nil
}
