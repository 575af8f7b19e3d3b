package ebitenhost

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/phanxgames/edition"
)

func newRenderer(t *testing.T) *edition.Renderer {
	t.Helper()
	return newRendererTo(t, &edition.MemorySink{})
}

func newRendererTo(t *testing.T, sink edition.ChunkSink) *edition.Renderer {
	t.Helper()
	store := edition.NewStore(map[string]any{"x": 0.0})
	m, err := edition.NewManager([]edition.PropertySet{{
		Name:  "a",
		Count: 3,
		Rules: []edition.ParamRule{edition.LinearRule("x", 0, 1, edition.DefaultLinearOptions())},
	}}, store)
	if err != nil {
		t.Fatal(err)
	}
	return edition.NewRenderer(m, edition.NewRecorder(sink, nil))
}

func TestNewCanvasDimensions(t *testing.T) {
	c := NewCanvas(128, 64)
	defer c.Dispose()

	if c.Width() != 128 {
		t.Errorf("Width = %d, want 128", c.Width())
	}
	if c.Height() != 64 {
		t.Errorf("Height = %d, want 64", c.Height())
	}
	if c.Image() == nil {
		t.Fatal("Image() should not be nil")
	}
	if got := c.Image().Bounds(); got != image.Rect(0, 0, 128, 64) {
		t.Errorf("Bounds = %v, want 128x64", got)
	}
}

func TestCanvasIsSurface(t *testing.T) {
	c := NewCanvas(4, 4)
	defer c.Dispose()
	var _ edition.Surface = c.Image()
}

func TestDisposeTwice(t *testing.T) {
	c := NewCanvas(4, 4)
	c.Dispose()
	c.Dispose()
	if c.Image() != nil {
		t.Error("Image() should be nil after Dispose")
	}
}

func TestNewWindowSizeFitsScreen(t *testing.T) {
	tests := []struct {
		w, h         int
		wantW, wantH int
	}{
		{800, 600, 800, 600},
		{2048, 2048, 1024, 1024},
		{4096, 1024, 1024, 256},
	}
	for _, tt := range tests {
		c := NewCanvas(tt.w, tt.h)
		h := New(context.Background(), newRenderer(t), c, nil, Config{})
		if h.cfg.WindowWidth != tt.wantW || h.cfg.WindowHeight != tt.wantH {
			t.Errorf("window for %dx%d = %dx%d, want %dx%d", tt.w, tt.h,
				h.cfg.WindowWidth, h.cfg.WindowHeight, tt.wantW, tt.wantH)
		}
		c.Dispose()
	}
}

func TestUpdateTerminatesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewCanvas(8, 8)
	defer c.Dispose()
	h := New(ctx, newRenderer(t), c, nil, Config{})

	if err := h.Update(); !errors.Is(err, ebiten.Termination) {
		t.Errorf("Update() = %v, want ebiten.Termination", err)
	}
}

func TestUpdateReturnsStoredError(t *testing.T) {
	c := NewCanvas(8, 8)
	defer c.Dispose()
	h := New(context.Background(), newRenderer(t), c, nil, Config{})
	want := errors.New("boom")
	h.err = want

	if err := h.Update(); !errors.Is(err, want) {
		t.Errorf("Update() = %v, want %v", err, want)
	}
	if !errors.Is(h.Err(), want) {
		t.Errorf("Err() = %v, want %v", h.Err(), want)
	}
}

func TestLayoutPassesThrough(t *testing.T) {
	c := NewCanvas(8, 8)
	defer c.Dispose()
	h := New(context.Background(), newRenderer(t), c, nil, Config{})
	w, hh := h.Layout(640, 480)
	if w != 640 || hh != 480 {
		t.Errorf("Layout = %dx%d, want 640x480", w, hh)
	}
}

func TestTransitionEasesToSelection(t *testing.T) {
	c := NewCanvas(8, 8)
	defer c.Dispose()
	r := newRenderer(t)
	m := r.Manager()
	if err := m.SelectSequenceNumber(1); err != nil {
		t.Fatal(err)
	}
	h := New(context.Background(), r, c, nil, Config{
		Transition:        []string{"x"},
		TransitionSeconds: 1,
	})

	before := h.transitionValues()
	if err := m.SelectSequenceNumber(2); err != nil {
		t.Fatal(err)
	}
	if err := h.startTransition(before); err != nil {
		t.Fatal(err)
	}
	if v, _ := m.Store().Float("x"); v != 0 {
		t.Errorf("x = %v right after stepping, want the old value 0", v)
	}
	h.tween.Update(0.5)
	if v, _ := m.Store().Float("x"); v != 0.5 {
		t.Errorf("x = %v halfway, want 0.5", v)
	}
	h.tween.Update(1)
	if v, _ := m.Store().Float("x"); v != 1 {
		t.Errorf("x = %v after the transition, want 1", v)
	}
}

func TestTransitionDisabled(t *testing.T) {
	c := NewCanvas(8, 8)
	defer c.Dispose()
	h := New(context.Background(), newRenderer(t), c, nil, Config{Transition: []string{"x"}})
	if vals := h.transitionValues(); vals != nil {
		t.Errorf("transitionValues = %v, want nil without a duration", vals)
	}
	if err := h.startTransition(nil); err != nil || h.tween != nil {
		t.Errorf("startTransition(nil) = %v, tween %v", err, h.tween)
	}
}

// beginRun starts a run over three items and captures the first, leaving
// its entries in the recorder's open chunk.
func beginRun(t *testing.T, ctx context.Context) (*edition.Renderer, *edition.MemorySink) {
	t.Helper()
	sink := &edition.MemorySink{}
	r := newRendererTo(t, sink)
	if ok, err := r.Begin(ctx, []int{1, 2, 3}, edition.RenderOptions{Archive: "h"}); !ok || err != nil {
		t.Fatalf("Begin = %v, %v", ok, err)
	}
	surface := edition.ImageSurface{Image: image.NewRGBA(image.Rect(0, 0, 2, 2))}
	if done, err := r.Capture(surface); done || err != nil {
		t.Fatalf("Capture = %v, %v", done, err)
	}
	if len(sink.Chunks) != 0 {
		t.Fatalf("chunks = %d before the loop exits, want 0", len(sink.Chunks))
	}
	return r, sink
}

func TestUpdateCancelFlushesRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r, sink := beginRun(t, ctx)
	c := NewCanvas(8, 8)
	defer c.Dispose()
	h := New(ctx, r, c, nil, Config{})

	cancel()
	if err := h.Update(); !errors.Is(err, ebiten.Termination) {
		t.Fatalf("Update() = %v, want ebiten.Termination", err)
	}
	if r.Running() || r.Recorder().Active() {
		t.Error("run still active after the loop ended")
	}
	if len(sink.Chunks) != 1 {
		t.Fatalf("chunks = %d, want the open chunk flushed", len(sink.Chunks))
	}
	if sink.Chunks[0].Name != "h_0000.tar" {
		t.Errorf("chunk = %q, want h_0000.tar", sink.Chunks[0].Name)
	}
	if h.Err() != nil {
		t.Errorf("Err() = %v, want nil for a cancelled run", h.Err())
	}
}

func TestDrawFailureFlushesRun(t *testing.T) {
	r, sink := beginRun(t, context.Background())
	c := NewCanvas(8, 8)
	defer c.Dispose()
	boom := errors.New("shader failed")
	h := New(context.Background(), r, c, func(*Canvas) error { return boom }, Config{})

	h.Draw(nil)
	if r.Running() || r.Recorder().Active() {
		t.Error("run still active after a draw failure")
	}
	if len(sink.Chunks) != 1 {
		t.Errorf("chunks = %d, want the open chunk flushed", len(sink.Chunks))
	}
	if err := h.Update(); !errors.Is(err, boom) {
		t.Errorf("Update() = %v, want the draw failure", err)
	}
}
