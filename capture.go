package edition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// RecorderState is the lifecycle position of a Recorder.
type RecorderState uint8

const (
	StateIdle      RecorderState = iota // no session
	StateArmed                          // started with hijacked timing; waiting for the first update
	StateRecording                      // capturing every update
)

func (s RecorderState) String() string {
	switch s {
	case StateArmed:
		return "armed"
	case StateRecording:
		return "recording"
	default:
		return "idle"
	}
}

// CaptureConfig configures one recording session.
type CaptureConfig struct {
	FrameRate   float64 // frames per second of recorded time; default 30
	Duration    float64 // seconds to record; 0 records until Stop
	StartOffset float64 // virtual time of the first frame, in seconds
	StartAtNow  bool    // start virtual time at the real clock's current time instead of StartOffset
	ChunkMB     float64 // chunk rollover threshold in megabytes (1e6 bytes); default 500

	// HijackTiming switches the shared clock to virtual time for the session.
	// The first Update after Start then only runs pending frame callbacks so
	// that a draw already in flight finishes under real timing.
	HijackTiming bool

	// Archive prefixes chunk names; defaults to the start time in UTC.
	Archive string

	OnStart        func()
	OnBeforeUpdate func()
	OnUpdate       func() // runs after a frame is captured and time advanced
	OnStop         func()
}

// ChunkInfo describes a chunk handed to the sink.
type ChunkInfo struct {
	Archive string
	Name    string
	Index   int
	Entries int
	Bytes   int
	Final   bool
}

type session struct {
	ctx          context.Context
	cfg          CaptureConfig
	frameDur     float64
	startTime    float64
	totalFrames  int
	frame        int
	chunk        *Chunk
	chunkIndex   int
	chunkLimit   int64
	bytesFlushed int64
	fps          *fpsCounter
	wallStart    time.Time
}

// Recorder captures surfaces into archive chunks. Update is called once per
// drawn frame; every captured frame advances virtual time by exactly one frame
// duration, so recordings are reproducible regardless of render speed.
//
// A Recorder holds at most one session and is not safe for concurrent use.
type Recorder struct {
	clock   *SwitchClock
	sink    ChunkSink
	enc     Encoder
	metrics *Metrics
	logger  *slog.Logger
	onChunk []func(ChunkInfo)
	now     func() time.Time

	state    RecorderState
	sess     *session
	nextName string
	hasNext  bool
	updating bool
	info     string
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithEncoder replaces the default PNG encoder.
func WithEncoder(enc Encoder) RecorderOption {
	return func(r *Recorder) { r.enc = enc }
}

// WithMetrics records capture metrics into m.
func WithMetrics(m *Metrics) RecorderOption {
	return func(r *Recorder) { r.metrics = m }
}

// WithRecorderLogger sets the recorder's logger.
func WithRecorderLogger(l *slog.Logger) RecorderOption {
	return func(r *Recorder) { r.logger = l }
}

// WithChunkHook calls fn after every chunk is written to the sink.
func WithChunkHook(fn func(ChunkInfo)) RecorderOption {
	return func(r *Recorder) { r.onChunk = append(r.onChunk, fn) }
}

// WithWallClock replaces time.Now for archive names, entry times and the FPS
// counter.
func WithWallClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) { r.now = now }
}

// NewRecorder returns an idle recorder writing chunks to sink. A nil clock
// gets a fresh SwitchClock.
func NewRecorder(sink ChunkSink, clock *SwitchClock, opts ...RecorderOption) *Recorder {
	if clock == nil {
		clock = NewSwitchClock()
	}
	r := &Recorder{
		clock:  clock,
		sink:   sink,
		enc:    &PNGEncoder{},
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "recorder")
	return r
}

// Clock returns the clock the recorder hijacks.
func (r *Recorder) Clock() *SwitchClock { return r.clock }

// State returns the lifecycle state.
func (r *Recorder) State() RecorderState { return r.state }

// Active reports whether a session exists (armed or recording).
func (r *Recorder) Active() bool { return r.sess != nil }

// Frame returns the number of frames captured in the current session.
func (r *Recorder) Frame() int {
	if r.sess == nil {
		return 0
	}
	return r.sess.frame
}

// Now returns virtual time during a session and the clock's time otherwise.
func (r *Recorder) Now() float64 {
	if r.sess != nil {
		return r.clock.Virtual.Now()
	}
	return r.clock.Now()
}

// Archive returns the current session's archive name.
func (r *Recorder) Archive() string {
	if r.sess == nil {
		return ""
	}
	return r.sess.cfg.Archive
}

// ChunkName returns the name the current chunk will be written under.
func (r *Recorder) ChunkName() string {
	if r.sess == nil {
		return ""
	}
	return ChunkName(r.sess.cfg.Archive, r.sess.chunkIndex)
}

// SetInfo sets extra text shown in Status.
func (r *Recorder) SetInfo(text string) { r.info = text }

// Start begins a session. It fails with ErrSessionActive if one is running.
func (r *Recorder) Start(ctx context.Context, cfg CaptureConfig) error {
	if r.sess != nil {
		return ErrSessionActive
	}
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = 30
	}
	if cfg.ChunkMB <= 0 {
		cfg.ChunkMB = 500
	}
	wall := r.now()
	if cfg.Archive == "" {
		cfg.Archive = wall.UTC().Format("20060102T150405Z")
	}
	start := cfg.StartOffset * 1000
	if cfg.StartAtNow {
		start = r.clock.Real.Now()
	}
	s := &session{
		ctx:        ctx,
		cfg:        cfg,
		frameDur:   1000 / cfg.FrameRate,
		startTime:  start,
		chunk:      NewChunk(wall),
		chunkLimit: int64(cfg.ChunkMB * 1e6),
		fps:        newFPSCounter(15 * time.Second),
		wallStart:  wall,
	}
	if cfg.Duration > 0 {
		s.totalFrames = int(math.Ceil(cfg.Duration * cfg.FrameRate))
	}
	r.sess = s
	r.clock.Virtual.Set(start)
	if cfg.HijackTiming {
		r.clock.Hijack(start)
		r.state = StateArmed
	} else {
		r.state = StateRecording
	}
	r.metrics.setRecording(true)
	r.logger.Info("recording started",
		"archive", cfg.Archive, "fps", cfg.FrameRate, "frames", s.totalFrames,
		"chunk_mb", cfg.ChunkMB, "hijack", cfg.HijackTiming)
	if cfg.OnStart != nil {
		cfg.OnStart()
	}
	return nil
}

// SetNextFilename names the entry of the next captured frame. Later frames go
// back to the zero-padded frame index.
func (r *Recorder) SetNextFilename(name string) {
	r.nextName = name
	r.hasNext = true
}

// Update captures surface. It does nothing while idle. Encoding or storage
// failures stop the session and are returned.
func (r *Recorder) Update(surface Surface) error {
	s := r.sess
	if s == nil {
		return nil
	}
	if r.updating {
		return errors.New("recorder: update called from a recorder hook")
	}
	r.updating = true
	defer func() { r.updating = false }()

	if r.state == StateArmed {
		// This frame was drawn under real timing; only release the callbacks
		// that were waiting for virtual time.
		r.state = StateRecording
		r.clock.Virtual.Flush()
		return nil
	}

	if s.cfg.OnBeforeUpdate != nil {
		s.cfg.OnBeforeUpdate()
	}

	name := fmt.Sprintf("%07d%s", s.frame, r.enc.Ext())
	if r.hasNext {
		name, r.nextName, r.hasNext = r.nextName, "", false
	}
	t0 := r.now()
	data, err := EncodeSurface(r.enc, surface)
	if err == nil {
		err = s.chunk.Append(sanitizeEntryName(name), data)
	}
	if err != nil {
		r.logger.Error("frame capture failed", "frame", s.frame, "entry", name, "error", err)
		return errors.Join(fmt.Errorf("capture frame %d: %w", s.frame, err), r.stop())
	}
	now := r.now()
	r.metrics.frameCaptured(now.Sub(t0))
	s.fps.step(now)

	s.frame++
	r.clock.Virtual.Advance(s.frameDur)
	r.logger.Debug("frame captured", "entry", name, "status", r.Status().String())

	if s.cfg.OnUpdate != nil {
		s.cfg.OnUpdate()
	}
	if r.sess != s {
		return nil // stopped by the hook
	}
	if s.totalFrames > 0 && s.frame >= s.totalFrames {
		return r.stop()
	}
	if s.chunk.Size() >= s.chunkLimit {
		if err := r.rollover(s, false); err != nil {
			return errors.Join(err, r.stop())
		}
	}
	return nil
}

// AddFile appends a side-channel entry to the current chunk. Without a
// session it does nothing.
func (r *Recorder) AddFile(name string, data []byte) error {
	if r.sess == nil {
		return nil
	}
	return r.sess.chunk.Append(sanitizeEntryName(name), data)
}

// AddJSON appends v as indented JSON.
func (r *Recorder) AddJSON(name string, v any) error {
	if r.sess == nil {
		return nil
	}
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("recorder: encode %s: %w", name, err)
	}
	return r.AddFile(name, data)
}

// Stop ends the session: timing is restored, the remaining chunk is flushed
// and OnStop runs. Stop is idempotent; without a session it only restores the
// clock.
func (r *Recorder) Stop() error {
	return r.stop()
}

func (r *Recorder) stop() error {
	r.clock.Restore()
	s := r.sess
	if s == nil {
		return nil
	}
	r.state = StateIdle
	var err error
	if s.chunk.Len() > 0 {
		err = r.rollover(s, true)
	}
	r.sess = nil
	r.hasNext = false
	r.metrics.setRecording(false)
	r.logger.Info("recording stopped",
		"archive", s.cfg.Archive,
		"frames", humanCount(s.frame),
		"chunks", s.chunkIndex,
		"bytes", formatBytes(s.bytesFlushed))
	if s.cfg.OnStop != nil {
		s.cfg.OnStop()
	}
	return err
}

// rollover writes the current chunk to the sink and, unless final, starts a
// fresh one.
func (r *Recorder) rollover(s *session, final bool) error {
	data, err := s.chunk.Bytes()
	if err != nil {
		return err
	}
	info := ChunkInfo{
		Archive: s.cfg.Archive,
		Name:    ChunkName(s.cfg.Archive, s.chunkIndex),
		Index:   s.chunkIndex,
		Entries: s.chunk.Len(),
		Bytes:   len(data),
		Final:   final,
	}
	ctx := s.ctx
	if final {
		// The last chunk is written even when the session was cancelled.
		ctx = context.WithoutCancel(ctx)
	}
	if err := r.sink.WriteChunk(ctx, info.Name, data); err != nil {
		return fmt.Errorf("write chunk %s: %w", info.Name, err)
	}
	s.bytesFlushed += int64(len(data))
	s.chunkIndex++
	if !final {
		s.chunk = NewChunk(s.wallStart)
	}
	r.metrics.chunkFlushed(len(data))
	r.logger.Info("chunk written", "chunk", info.Name, "entries", info.Entries, "size", formatBytes(int64(info.Bytes)))
	for _, fn := range r.onChunk {
		fn(info)
	}
	return nil
}

// Status reports progress for display.
func (r *Recorder) Status() Status {
	s := r.sess
	if s == nil {
		return Status{Info: r.info}
	}
	return Status{
		Recording:   r.state == StateRecording,
		Frame:       s.frame,
		TotalFrames: s.totalFrames,
		FrameRate:   s.cfg.FrameRate,
		Elapsed:     r.clock.Virtual.Now() - s.startTime,
		Bytes:       s.bytesFlushed + s.chunk.Size(),
		Chunks:      s.chunkIndex,
		FPS:         s.fps.fps,
		Wall:        r.now().Sub(s.wallStart),
		Info:        r.info,
	}
}
