// Package ebitenhost drives an edition Renderer from an ebiten game loop:
// Update runs frame callbacks and render scripts, Draw draws the sketch into
// an offscreen canvas and hands it to the renderer for capture.
package ebitenhost

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/phanxgames/edition"
)

// DrawCanvas renders the current store values into the canvas.
type DrawCanvas func(c *Canvas) error

// Config configures a Host.
type Config struct {
	Title        string
	WindowWidth  int // default: canvas size, halved until it fits 1024
	WindowHeight int
	// Animator receives keyboard transport control in previews. Optional.
	Animator edition.Animator
	// Script, when set, is stepped every frame to start render jobs.
	Script *edition.ScriptRunner
	// QuitWhenDone ends the game loop once Script is done and no run is
	// active.
	QuitWhenDone bool
	// ShowStatus overlays the recorder status line in the window.
	ShowStatus bool
	// Transition lists up to 4 numeric store paths eased from the old to the
	// new values when the preview steps to another sequence number.
	Transition []string
	// TransitionSeconds is the easing duration; 0 switches instantly.
	TransitionSeconds float32
	// TransitionEase names the easing function; empty is linear.
	TransitionEase string
	Logger         *slog.Logger
}

// Host implements ebiten.Game.
type Host struct {
	ctx      context.Context
	renderer *edition.Renderer
	canvas   *Canvas
	draw     DrawCanvas
	cfg      Config
	logger   *slog.Logger
	overlay  *overlay
	tween    *edition.TweenGroup
	err      error
}

// New returns a host drawing with draw into canvas.
func New(ctx context.Context, r *edition.Renderer, canvas *Canvas, draw DrawCanvas, cfg Config) *Host {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.WindowWidth <= 0 || cfg.WindowHeight <= 0 {
		cfg.WindowWidth, cfg.WindowHeight = canvas.Width(), canvas.Height()
		for cfg.WindowWidth > 1024 || cfg.WindowHeight > 1024 {
			cfg.WindowWidth /= 2
			cfg.WindowHeight /= 2
		}
	}
	h := &Host{
		ctx:      ctx,
		renderer: r,
		canvas:   canvas,
		draw:     draw,
		cfg:      cfg,
		logger:   cfg.Logger.With("component", "host"),
	}
	if cfg.ShowStatus {
		h.overlay = newOverlay()
	}
	return h
}

// Err returns the error that ended the last run, if any.
func (h *Host) Err() error { return h.err }

// Update runs frame callbacks, script steps and preview keys.
func (h *Host) Update() error {
	if h.err != nil {
		return h.err
	}
	if err := h.ctx.Err(); err != nil {
		h.abort(nil)
		return ebiten.Termination
	}
	h.renderer.Recorder().Clock().Flush()
	if h.cfg.Script != nil {
		if err := h.cfg.Script.Step(h.ctx, h.renderer); err != nil {
			h.err = err
			return err
		}
	}
	if err := h.handleKeys(); err != nil {
		return err
	}
	if h.tween != nil && !h.renderer.Running() {
		h.tween.Update(1 / float32(ebiten.TPS()))
		if h.tween.Done {
			h.tween = nil
		}
	}
	if h.overlay != nil {
		h.overlay.update(1/float64(ebiten.TPS()), h.renderer.Recorder().Status().String())
	}
	if h.cfg.QuitWhenDone && !h.renderer.Running() && (h.cfg.Script == nil || h.cfg.Script.Done()) {
		return ebiten.Termination
	}
	return nil
}

func (h *Host) handleKeys() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		h.abort(nil)
		return ebiten.Termination
	}
	if h.renderer.Running() {
		if inpututil.IsKeyJustPressed(ebiten.KeyS) {
			h.renderer.Stop()
		}
		return nil
	}
	m := h.renderer.Manager()
	step := func(delta int) error {
		before := h.transitionValues()
		var err error
		if m.State().SetIndex < 0 {
			err = m.SelectSequenceNumber(1)
		} else {
			err = m.StepSequenceNumber(delta)
		}
		if err != nil {
			return err
		}
		return h.startTransition(before)
	}
	var err error
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowRight):
		err = step(1)
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft):
		err = step(-1)
	case inpututil.IsKeyJustPressed(ebiten.KeySpace) && h.cfg.Animator != nil:
		h.cfg.Animator.Toggle()
	case inpututil.IsKeyJustPressed(ebiten.KeyR) && h.cfg.Animator != nil:
		h.cfg.Animator.Reset(0, true)
	}
	if err != nil {
		h.logger.Warn("selection failed", "error", err)
	}
	return nil
}

// transitionValues reads the current values of the transition paths.
func (h *Host) transitionValues() map[string]float64 {
	if h.cfg.TransitionSeconds <= 0 || len(h.cfg.Transition) == 0 {
		return nil
	}
	store := h.renderer.Manager().Store()
	vals := make(map[string]float64, len(h.cfg.Transition))
	for _, p := range h.cfg.Transition {
		if v, ok := store.Float(p); ok {
			vals[p] = v
		}
	}
	return vals
}

// startTransition puts the transition paths back to before and eases them to
// the values the new selection wrote.
func (h *Host) startTransition(before map[string]float64) error {
	if len(before) == 0 {
		return nil
	}
	store := h.renderer.Manager().Store()
	targets := h.transitionValues()
	for p, v := range before {
		if err := store.Set(p, v); err != nil {
			return err
		}
	}
	fn, err := edition.Easing(h.cfg.TransitionEase)
	if err != nil {
		return err
	}
	h.tween, err = edition.TweenPaths(store, targets, h.cfg.TransitionSeconds, fn)
	return err
}

// abort ends an active run so its open chunk is flushed before the loop
// exits. A failed run's error replaces h.err.
func (h *Host) abort(cause error) {
	if !h.renderer.Running() {
		return
	}
	h.logger.Info("ending render run", "cause", cause)
	if err := h.renderer.Abort(cause); err != nil {
		h.err = err
	}
}

// Draw draws one frame and, during a run, captures it.
func (h *Host) Draw(screen *ebiten.Image) {
	if h.err != nil {
		return
	}
	if err := h.draw(h.canvas); err != nil {
		h.err = err
		h.abort(err)
		return
	}
	if h.renderer.Running() {
		if _, err := h.renderer.Capture(h.canvas.Image()); err != nil {
			h.err = err
		}
	}
	h.canvas.DrawScaled(screen)
	if h.overlay != nil {
		h.overlay.draw(screen)
	}
}

// Layout implements ebiten.Game.
func (h *Host) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// Run opens the window and runs the game loop until the user quits, the
// script finishes (QuitWhenDone) or a run fails.
func Run(h *Host) error {
	ebiten.SetWindowSize(h.cfg.WindowWidth, h.cfg.WindowHeight)
	title := h.cfg.Title
	if title == "" {
		title = "edition"
	}
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	err := ebiten.RunGame(h)
	// Closing the window leaves the loop without a termination branch.
	h.abort(nil)
	if errors.Is(err, ebiten.Termination) {
		err = nil
	}
	if err == nil {
		err = h.err
	}
	return err
}
