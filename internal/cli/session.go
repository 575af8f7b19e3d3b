package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/phanxgames/edition"
	"github.com/phanxgames/edition/ebitenhost"
	"github.com/phanxgames/edition/gcssink"
	"github.com/phanxgames/edition/internal/sketch"
	"github.com/phanxgames/edition/manifest"
	"github.com/phanxgames/edition/s3sink"
)

// captureFlags are shared by commands that record.
type captureFlags struct {
	Out         string
	FPS         float64
	ChunkMB     float64
	Width       int
	Height      int
	Hijack      bool
	S3          bool
	GCS         bool
	Retries     int
	Backoff     time.Duration
	Manifest    string
	MetricsAddr string
	Window      bool
}

func addCaptureFlags(cmd *cobra.Command, f *captureFlags) {
	fs := cmd.Flags()
	fs.StringVarP(&f.Out, "out", "o", "out", "directory chunks are written to")
	fs.Float64Var(&f.FPS, "fps", 0, "recording frame rate (default from definitions)")
	fs.Float64Var(&f.ChunkMB, "chunk-mb", 0, "chunk size limit in MB (default from definitions)")
	fs.IntVar(&f.Width, "width", 0, "canvas width (default from definitions)")
	fs.IntVar(&f.Height, "height", 0, "canvas height (default from definitions)")
	fs.BoolVar(&f.Hijack, "hijack", false, "run frame callbacks on virtual time")
	fs.BoolVar(&f.S3, "s3", false, "also upload chunks to S3 (EDITION_S3_* environment)")
	fs.BoolVar(&f.GCS, "gcs", false, "also upload chunks to GCS (EDITION_GCS_* environment)")
	fs.IntVar(&f.Retries, "retries", 3, "upload attempts per chunk")
	fs.DurationVar(&f.Backoff, "backoff", 2*time.Second, "wait before the first upload retry")
	fs.StringVar(&f.Manifest, "manifest", "", "SQLite manifest recording runs and items")
	fs.StringVar(&f.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	fs.BoolVar(&f.Window, "window", false, "render in a window instead of headless")
}

// session wires definitions, sinks, recorder and renderer for one command.
type session struct {
	defs     *edition.Definitions
	mgr      *edition.Manager
	anim     *edition.ParamAnimator
	rec      *edition.Recorder
	renderer *edition.Renderer
	sketch   *sketch.Sketch
	manifest *manifest.Manifest
	runID    string
	logger   *slog.Logger
	window   bool
	closers  []func() error
}

func newSession(ctx context.Context, opts *RootOptions, f *captureFlags, command string) (s *session, err error) {
	defs, err := loadDefinitions(opts)
	if err != nil {
		return nil, err
	}
	settings := defs.Render
	if f.FPS > 0 {
		settings.FPS = f.FPS
	}
	if f.ChunkMB > 0 {
		settings.ChunkMB = f.ChunkMB
	}
	if f.Width > 0 {
		settings.Width = f.Width
	}
	if f.Height > 0 {
		settings.Height = f.Height
	}
	settings.HijackTiming = settings.HijackTiming || f.Hijack
	defs.Render = settings

	s = &session{defs: defs, window: f.Window}
	defer func() {
		if err != nil {
			_ = s.close()
		}
	}()

	s.runID = uuid.NewString()
	if f.Manifest != "" {
		if s.manifest, err = manifest.Open(f.Manifest); err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open manifest", err)
		}
		s.closers = append(s.closers, s.manifest.Close)
		if s.runID, err = s.manifest.BeginRun(ctx, command); err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to record run", err)
		}
	}
	s.logger = slog.Default().With("run_id", s.runID)

	sink, err := s.buildSink(ctx, f)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	metrics := edition.NewMetrics(reg)
	if f.MetricsAddr != "" {
		s.serveMetrics(f.MetricsAddr, reg)
	}

	if s.mgr, err = defs.NewManager(edition.WithManagerLogger(s.logger)); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid property sets", err)
	}
	s.mgr.Store().SetLogger(s.logger)
	if s.anim, err = edition.NewParamAnimator(s.mgr.Store(), defs.Animation, nil, s.logger); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid animation", err)
	}

	recOpts := []edition.RecorderOption{
		edition.WithMetrics(metrics),
		edition.WithRecorderLogger(s.logger),
	}
	renderOpts := []edition.RendererOption{
		edition.WithAnimator(s.anim),
		edition.WithRenderSettings(settings),
		edition.WithRenderMetrics(metrics),
		edition.WithRendererLogger(s.logger),
	}
	if s.manifest != nil {
		recOpts = append(recOpts, edition.WithChunkHook(func(c edition.ChunkInfo) {
			if err := s.manifest.RecordChunk(ctx, s.runID, c); err != nil {
				s.logger.Error("manifest chunk failed", "chunk", c.Name, "error", err)
			}
		}))
		renderOpts = append(renderOpts, edition.OnItem(func(it edition.Item) {
			if err := s.manifest.RecordItem(ctx, s.runID, it); err != nil {
				s.logger.Error("manifest item failed", "seq", it.SequenceNumber, "error", err)
			}
		}))
	}
	s.rec = edition.NewRecorder(sink, nil, recOpts...)
	s.sketch = sketch.New(settings.Width, settings.Height)
	renderOpts = append(renderOpts, edition.WithDrawFunc(s.sketch.DrawFunc(s.mgr.Store())))
	s.renderer = edition.NewRenderer(s.mgr, s.rec, renderOpts...)
	return s, nil
}

func (s *session) buildSink(ctx context.Context, f *captureFlags) (edition.ChunkSink, error) {
	dir, err := edition.NewDirSink(f.Out)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to create output directory", err)
	}
	tee := edition.TeeSink{dir}
	retry := func(sink edition.ChunkSink) edition.ChunkSink {
		return &edition.RetrySink{Sink: sink, Attempts: f.Retries, Backoff: f.Backoff, Logger: s.logger}
	}
	if f.S3 {
		remote, err := s3sink.OpenFromEnv(ctx)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to configure s3 sink", err)
		}
		tee = append(tee, retry(remote))
	}
	if f.GCS {
		remote, err := gcssink.OpenFromEnv(ctx)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to configure gcs sink", err)
		}
		s.closers = append(s.closers, remote.Close)
		tee = append(tee, retry(remote))
	}
	return tee, nil
}

func (s *session) serveMetrics(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	s.logger.Info("serving metrics", "addr", addr)
	s.closers = append(s.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	})
}

// drive runs the renderer either headless with start, or in a window where
// begin starts the run and script (optional) is stepped per frame.
func (s *session) drive(ctx context.Context, start func(ctx context.Context) error, begin func(ctx context.Context) error, script *edition.ScriptRunner) error {
	if !s.window {
		return start(ctx)
	}
	settings := s.defs.Render
	canvas := ebitenhost.NewCanvas(settings.Width, settings.Height)
	defer canvas.Dispose()
	host := ebitenhost.New(ctx, s.renderer, canvas, func(c *ebitenhost.Canvas) error {
		c.WriteRGBA(s.sketch.Draw(s.mgr.Store()))
		return nil
	}, ebitenhost.Config{
		Title:        "edition",
		Script:       script,
		QuitWhenDone: true,
		ShowStatus:   true,
		Logger:       s.logger,
	})
	if begin != nil {
		if err := begin(ctx); err != nil {
			return err
		}
	}
	return ebitenhost.Run(host)
}

// finish records the outcome and releases resources.
func (s *session) finish(ctx context.Context, runErr error) error {
	if s.manifest != nil {
		if err := s.manifest.FinishRun(ctx, s.runID, runErr); err != nil {
			s.logger.Error("manifest finish failed", "error", err)
		}
	}
	return errors.Join(runErr, s.close())
}

func (s *session) close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	s.closers = nil
	return errors.Join(errs...)
}
