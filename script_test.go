package edition

import (
	"context"
	"slices"
	"testing"
)

func TestLoadRenderScript(t *testing.T) {
	s, err := LoadRenderScript([]byte(`{"steps": [{"action": "render_set", "set": "a"}, {"action": "wait", "frames": 2}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 2 || s.Done() {
		t.Errorf("Len=%d Done=%v", s.Len(), s.Done())
	}

	bad := []string{
		`not json`,
		`{"steps": []}`,
		`{"steps": [{"action": "explode"}]}`,
	}
	for _, b := range bad {
		if _, err := LoadRenderScript([]byte(b)); err == nil {
			t.Errorf("LoadRenderScript(%s) should fail", b)
		}
	}
}

func TestScriptRun(t *testing.T) {
	f := newRenderFixture(t)
	s, err := LoadRenderScript([]byte(`{"steps": [
		{"action": "render_set", "set": "b"},
		{"action": "wait", "frames": 10},
		{"action": "render_list", "seq": [3, 1]},
		{"action": "pick", "count": 2},
		{"action": "render_all", "limit": 1}
	]}`))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Run(context.Background(), f.r); err != nil {
		t.Fatal(err)
	}
	if !s.Done() {
		t.Error("script not done")
	}
	want := []int{4, 5, 3, 1, 1, 5, 1, 4}
	if got := f.itemSeqs(); !slices.Equal(got, want) {
		t.Errorf("items = %v, want %v", got, want)
	}
}

func TestScriptRunUnknownSet(t *testing.T) {
	f := newRenderFixture(t)
	s, _ := LoadRenderScript([]byte(`{"steps": [{"action": "render_set", "set": "zzz"}]}`))
	if err := s.Run(context.Background(), f.r); err == nil {
		t.Error("unknown set should fail the script")
	}
}

func TestScriptStepHostDriven(t *testing.T) {
	f := newRenderFixture(t)
	s, err := LoadRenderScript([]byte(`{"steps": [
		{"action": "render_range", "from": 1, "to": 2},
		{"action": "wait", "frames": 3},
		{"action": "pick", "step": 2, "includeLast": true, "animFrames": 2}
	]}`))
	if err != nil {
		t.Fatal(err)
	}
	surface := testSurface()
	frames := 0
	for !s.Done() && frames < 100 {
		if err := s.Step(context.Background(), f.r); err != nil {
			t.Fatal(err)
		}
		if f.r.Running() {
			if _, err := f.r.Capture(surface); err != nil {
				t.Fatal(err)
			}
		}
		frames++
	}
	if !s.Done() {
		t.Fatal("script did not finish")
	}
	want := []int{1, 2, 1, 3, 5}
	if got := f.itemSeqs(); !slices.Equal(got, want) {
		t.Errorf("items = %v, want %v", got, want)
	}
	// 2 stills, 3 wait frames, 3 items x 2 frames, 1 frame to finish.
	if frames != 2+3+6+1 {
		t.Errorf("frames = %d, want 12", frames)
	}
}
