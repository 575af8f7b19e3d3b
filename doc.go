// Package edition renders numbered generative editions: every sequence
// number maps to one fixed set of parameter values, and each is recorded as
// a still image or an animation together with a JSON snapshot of its
// parameters.
//
// # Quick start
//
// Load a definitions file, build the sequence manager and render a set with
// your own draw routine:
//
//	defs, err := edition.LoadDefinitionsFile("properties.yaml")
//	// ...
//	mgr, err := defs.NewManager()
//	sink, err := edition.NewDirSink("out")
//	rec := edition.NewRecorder(sink, nil)
//	r := edition.NewRenderer(mgr, rec,
//		edition.WithRenderSettings(defs.Render),
//		edition.WithDrawFunc(func() (edition.Surface, error) {
//			return draw(mgr.Store()), nil
//		}))
//	err = r.RenderSet(ctx, "kat.1", edition.RenderOptions{})
//
// For windowed rendering, package ebitenhost drives a [Renderer] from an
// [ebiten.Game].
//
// # Parameters
//
// A [PropertySet] declares how many items it holds and one [ParamRule] per
// parameter path: [Linear] ramps, constants, and seeded [Uniform],
// [UniformInt] and [UniformSet] draws. The [Manager] concatenates the sets
// into one sequence-number space (see [Manager.Ranges]) and writes the
// selected item's values into a [Store]. Sets are always materialized from
// the same seed, so sequence number n yields identical values on every run.
//
// # Capture
//
// A [Recorder] encodes every drawn frame to PNG and appends it to an
// in-memory TAR [Chunk]. Chunks roll over at a size threshold and are
// handed to a [ChunkSink]: [DirSink] on disk, or the s3sink and gcssink
// packages. With HijackTiming the shared [SwitchClock] runs on virtual time
// that advances by exactly one frame per capture, so animations driven by
// the clock render identically at any speed.
//
// # Animation
//
// [ParamAnimator] writes Dest = Source + Fn(frame, Params...) into the store
// for each [Channel], using the sin, cos, saw, tri and square oscillators or
// an eased tween (via [gween]).
//
// # Concurrency
//
// Everything runs on the caller's goroutine. Only [Renderer.Stop] and
// [Renderer.Running] may be called from elsewhere.
//
// [ebiten.Game]: https://pkg.go.dev/github.com/hajimehoshi/ebiten/v2#Game
// [gween]: https://github.com/tanema/gween
package edition
