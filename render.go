package edition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sync/atomic"
)

// Folders are the archive directories entries are written under. An empty
// folder puts entries at the archive root.
type Folders struct {
	Images   string `yaml:"images"`
	Frames   string `yaml:"frames"`
	Metadata string `yaml:"metadata"`
}

// DefaultFolders returns images/, frames/ and metadata/.
func DefaultFolders() Folders {
	return Folders{Images: "images", Frames: "frames", Metadata: "metadata"}
}

func (f Folders) image(seq int, ext string) string {
	return path.Join(f.Images, fmt.Sprintf("%04d%s", seq, ext))
}

// frame nests each item's frames in its own directory, e.g.
// frames/0005/0005_0001.png.
func (f Folders) frame(seq, frame int, ext string) string {
	dir := fmt.Sprintf("%04d", seq)
	return path.Join(f.Frames, dir, fmt.Sprintf("%s_%04d%s", dir, frame, ext))
}

func (f Folders) metadata(seq int) string {
	return path.Join(f.Metadata, fmt.Sprintf("%04d.json", seq))
}

// DrawFunc renders the current store values and returns the drawn surface.
type DrawFunc func() (Surface, error)

// RenderOptions configure one render run.
type RenderOptions struct {
	// Limit stops the run after this many completed sequence numbers; 0 means
	// no limit.
	Limit int
	// AnimFrames renders this many animation frames per sequence number
	// instead of one still image.
	AnimFrames int
	// Archive names the chunks; empty uses the recorder's default.
	Archive string
}

// WorkItem is the unit being drawn.
type WorkItem struct {
	SequenceNumber int
	AnimationFrame int
	Animating      bool
}

// Progress reports a render run.
type Progress struct {
	WorkItem
	Running   bool
	Completed int // sequence numbers finished
	Total     int // sequence numbers queued
}

// Item describes a completed sequence number.
type Item struct {
	SequenceNumber int
	SetName        string
	LocalIndex     int
	Images         []string // entry names, in capture order
	Metadata       string   // entry name of the parameter snapshot
	Chunk          string   // chunk holding the metadata entry
}

type renderRun struct {
	seqNos []int
	opts   RenderOptions
	idx    int
	count  int
	cur    WorkItem
	images []string
	meta   string
	// metaChunk is the chunk that was open when meta was written.
	metaChunk string
	err       error
}

// Renderer walks a list of sequence numbers, selecting each one, and records
// a still image or a run of animation frames plus a metadata snapshot per
// sequence number.
//
// A run is either host driven (Begin, then Capture once per drawn frame) or
// self driven (RenderList with a DrawFunc). Only one run is active at a time;
// starting another while running does nothing. Renderer is not safe for
// concurrent use except for Stop and Running.
type Renderer struct {
	manager  *Manager
	rec      *Recorder
	anim     Animator
	draw     DrawFunc
	settings RenderSettings
	metrics  *Metrics
	logger   *slog.Logger
	onItem   []func(Item)

	running atomic.Bool
	stopReq atomic.Bool
	run     *renderRun
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithAnimator sets the animator reset to each animation frame.
func WithAnimator(a Animator) RendererOption {
	return func(r *Renderer) { r.anim = a }
}

// WithDrawFunc sets the draw routine used by self-driven runs.
func WithDrawFunc(fn DrawFunc) RendererOption {
	return func(r *Renderer) { r.draw = fn }
}

// WithRenderSettings sets frame rate, chunk size, timing and folders.
func WithRenderSettings(s RenderSettings) RendererOption {
	return func(r *Renderer) { r.settings = s }
}

// WithRenderMetrics counts rendered items and failed runs in m.
func WithRenderMetrics(m *Metrics) RendererOption {
	return func(r *Renderer) { r.metrics = m }
}

// WithRendererLogger sets the renderer's logger.
func WithRendererLogger(l *slog.Logger) RendererOption {
	return func(r *Renderer) { r.logger = l }
}

// OnItem registers fn to be called for every completed sequence number.
func OnItem(fn func(Item)) RendererOption {
	return func(r *Renderer) { r.onItem = append(r.onItem, fn) }
}

// NewRenderer returns a renderer selecting through m and capturing with rec.
func NewRenderer(m *Manager, rec *Recorder, opts ...RendererOption) *Renderer {
	r := &Renderer{
		manager:  m,
		rec:      rec,
		anim:     NewTransport(nil, nil),
		settings: DefaultRenderSettings(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "renderer")
	return r
}

// Recorder returns the recorder frames are captured with.
func (r *Renderer) Recorder() *Recorder { return r.rec }

// Manager returns the sequence manager.
func (r *Renderer) Manager() *Manager { return r.manager }

// Running reports whether a run is active.
func (r *Renderer) Running() bool { return r.running.Load() }

// Stop asks the active run to end after the frame being captured. The item in
// progress is abandoned if it has animation frames left.
func (r *Renderer) Stop() { r.stopReq.Store(true) }

// State reports the active run's progress.
func (r *Renderer) State() Progress {
	run := r.run
	if run == nil {
		return Progress{}
	}
	return Progress{
		WorkItem:  run.cur,
		Running:   r.running.Load(),
		Completed: run.count,
		Total:     len(run.seqNos),
	}
}

// Begin starts a host-driven run over seqNos. It reports false without error
// if a run is already active or seqNos is empty, and fails with
// ErrSequenceRange when a number lies outside 1..Total.
func (r *Renderer) Begin(ctx context.Context, seqNos []int, opts RenderOptions) (bool, error) {
	if r.running.Load() || len(seqNos) == 0 {
		return false, nil
	}
	total := r.manager.Total()
	for _, n := range seqNos {
		if n < 1 || n > total {
			return false, fmt.Errorf("render %d of 1..%d: %w", n, total, ErrSequenceRange)
		}
	}
	r.running.Store(true)
	r.stopReq.Store(false)
	r.run = &renderRun{seqNos: seqNos, opts: opts}

	r.anim.Stop()
	r.anim.Reset(0, true)
	if err := r.prepare(); err != nil {
		r.running.Store(false)
		return false, err
	}
	err := r.rec.Start(ctx, CaptureConfig{
		FrameRate:    r.settings.FPS,
		ChunkMB:      r.settings.ChunkMB,
		HijackTiming: r.settings.HijackTiming,
		Archive:      opts.Archive,
		OnUpdate:     r.captured,
	})
	if err != nil {
		r.running.Store(false)
		return false, fmt.Errorf("render: %w", err)
	}
	r.logger.Info("render started", "items", len(seqNos), "limit", opts.Limit, "anim_frames", opts.AnimFrames)
	return true, nil
}

// Abort ends the active run at once. The in-flight item is dropped and the
// recorder's open chunk is flushed. cause, when non-nil, becomes the run's
// error. Abort returns the run's error and does nothing without a run.
func (r *Renderer) Abort(cause error) error {
	if !r.running.Load() || r.run == nil {
		return nil
	}
	r.end(cause)
	return r.run.err
}

// Capture records surface as the current work item. It returns done once the
// run has ended, together with the run's error if it failed.
func (r *Renderer) Capture(surface Surface) (done bool, err error) {
	run := r.run
	if !r.running.Load() || run == nil {
		return true, nil
	}
	if err := r.rec.Update(surface); err != nil && r.running.Load() {
		r.end(err)
	}
	if r.running.Load() {
		return false, nil
	}
	return true, run.err
}

// RenderList renders seqNos, drawing with the DrawFunc, and returns when the
// run ends. Cancelling ctx ends the run at once and returns ctx.Err().
func (r *Renderer) RenderList(ctx context.Context, seqNos []int, opts RenderOptions) error {
	if r.draw == nil {
		return ErrNoDrawFunc
	}
	ok, err := r.Begin(ctx, seqNos, opts)
	if !ok || err != nil {
		return err
	}
	for {
		if err := ctx.Err(); err != nil {
			return errors.Join(err, r.Abort(nil))
		}
		surface, err := r.draw()
		if err != nil {
			r.end(fmt.Errorf("draw: %w", err))
			return r.run.err
		}
		done, err := r.Capture(surface)
		if done {
			return err
		}
	}
}

// RenderSet renders every sequence number of the named set.
func (r *Renderer) RenderSet(ctx context.Context, name string, opts RenderOptions) error {
	list, err := r.SetList(name)
	if err != nil {
		return err
	}
	return r.RenderList(ctx, list, opts)
}

// RenderRange renders from..to inclusive; a reversed range is swapped.
func (r *Renderer) RenderRange(ctx context.Context, from, to int, opts RenderOptions) error {
	return r.RenderList(ctx, SeqRange(from, to), opts)
}

// RenderAllSets renders every set. Limit applies to each set separately.
func (r *Renderer) RenderAllSets(ctx context.Context, opts RenderOptions) error {
	list := r.AllSetsList(opts.Limit)
	opts.Limit = 0
	return r.RenderList(ctx, list, opts)
}

// SetList returns the sequence numbers of the named set.
func (r *Renderer) SetList(name string) ([]int, error) {
	rng, ok := r.manager.Range(name)
	if !ok {
		return nil, fmt.Errorf("render set %q: %w", name, ErrUnknownSet)
	}
	return SeqRange(rng.First, rng.Last), nil
}

// AllSetsList concatenates every set's range, truncating each to limit
// sequence numbers when limit > 0.
func (r *Renderer) AllSetsList(limit int) []int {
	var list []int
	for _, rng := range r.manager.Ranges() {
		n := rng.Count
		if limit > 0 {
			n = min(n, limit)
		}
		list = append(list, SeqRange(rng.First, rng.First+n-1)...)
	}
	return list
}

// prepare sets up the store, animator and entry name for run.cur.
func (r *Renderer) prepare() error {
	run := r.run
	ext := r.rec.enc.Ext()
	if run.cur.Animating {
		r.anim.Reset(run.cur.AnimationFrame, false)
		r.rec.SetNextFilename(r.settings.Folders.frame(run.cur.SequenceNumber, run.cur.AnimationFrame, ext))
		r.info()
		return nil
	}
	seq := run.seqNos[run.idx]
	if err := r.manager.SelectSequenceNumber(seq); err != nil {
		return fmt.Errorf("render %d: %w", seq, err)
	}
	run.cur = WorkItem{SequenceNumber: seq}
	run.images = nil
	run.meta, run.metaChunk = "", ""
	if run.opts.AnimFrames > 0 {
		run.cur.Animating = true
		r.anim.Reset(0, false)
		r.rec.SetNextFilename(r.settings.Folders.frame(seq, 0, ext))
	} else {
		r.rec.SetNextFilename(r.settings.Folders.image(seq, ext))
	}
	r.info()
	return nil
}

func (r *Renderer) info() {
	run := r.run
	text := fmt.Sprintf("Seq (%d/%d)", run.count+1, len(run.seqNos))
	if run.cur.Animating {
		text += fmt.Sprintf(" Anim (%d/%d)", run.cur.AnimationFrame+1, run.opts.AnimFrames)
	}
	r.rec.SetInfo(text)
}

// captured runs after each recorded frame and moves the run forward.
func (r *Renderer) captured() {
	run := r.run
	cur := run.cur
	ext := r.rec.enc.Ext()
	if cur.Animating {
		run.images = append(run.images, r.settings.Folders.frame(cur.SequenceNumber, cur.AnimationFrame, ext))
	} else {
		run.images = append(run.images, r.settings.Folders.image(cur.SequenceNumber, ext))
	}
	if !cur.Animating || cur.AnimationFrame == 0 {
		run.meta = r.settings.Folders.metadata(cur.SequenceNumber)
		if err := r.rec.AddJSON(run.meta, r.manager.Store().Snapshot()); err != nil {
			r.end(err)
			return
		}
		run.metaChunk = r.rec.ChunkName()
	}

	if cur.Animating && cur.AnimationFrame < run.opts.AnimFrames-1 {
		if r.stopReq.Load() {
			r.end(nil)
			return
		}
		run.cur.AnimationFrame++
		if err := r.prepare(); err != nil {
			r.end(err)
		}
		return
	}
	r.completed()

	if r.stopReq.Load() || run.idx >= len(run.seqNos)-1 || (run.opts.Limit > 0 && run.count >= run.opts.Limit) {
		r.end(nil)
		return
	}
	run.idx++
	run.cur = WorkItem{}
	if err := r.prepare(); err != nil {
		r.end(err)
	}
}

func (r *Renderer) completed() {
	run := r.run
	run.count++
	st := r.manager.State()
	item := Item{
		SequenceNumber: run.cur.SequenceNumber,
		SetName:        st.SetName,
		LocalIndex:     st.LocalIndex,
		Images:         run.images,
		Metadata:       run.meta,
		Chunk:          run.metaChunk,
	}
	if run.cur.Animating {
		// Leave the animation at its resting position before the next item.
		r.anim.Reset(0, true)
	}
	r.metrics.itemRendered(item.SetName)
	r.logger.Debug("item rendered", "seq", item.SequenceNumber, "set", item.SetName, "images", len(item.Images))
	for _, fn := range r.onItem {
		fn(item)
	}
}

// end resets the animator, stops the recorder and marks the run finished.
func (r *Renderer) end(err error) {
	run := r.run
	run.err = errors.Join(run.err, err)
	r.anim.Reset(0, true)
	if stopErr := r.rec.Stop(); stopErr != nil {
		run.err = errors.Join(run.err, stopErr)
	}
	r.running.Store(false)
	if run.err != nil {
		r.metrics.runFailed()
		r.logger.Error("render failed", "completed", run.count, "error", run.err)
		return
	}
	r.logger.Info("render finished", "completed", run.count, "stopped", r.stopReq.Load())
}
