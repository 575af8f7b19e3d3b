package edition

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Animator drives animation frames. The Renderer resets it to each frame of
// an animated item and back to frame 0 when a run ends.
type Animator interface {
	Reset(pos int, notify bool)
	Step()
	Start()
	Stop()
	Toggle()
	Update()
}

// Transport is a frame position with play state. Position changes call
// onPosition; Reset with notify also calls onReset.
type Transport struct {
	position   int
	started    bool
	onPosition func(pos int)
	onReset    func(pos int)
}

// NewTransport returns a stopped transport at position 0. Either callback may
// be nil.
func NewTransport(onPosition, onReset func(pos int)) *Transport {
	return &Transport{onPosition: onPosition, onReset: onReset}
}

// Position returns the current frame position.
func (t *Transport) Position() int { return t.position }

// Started reports whether Step advances the position.
func (t *Transport) Started() bool { return t.started }

// Step advances one frame if started.
func (t *Transport) Step() {
	if !t.started {
		return
	}
	t.position++
	t.positionChanged()
}

// Reset jumps to pos.
func (t *Transport) Reset(pos int, notify bool) {
	t.position = pos
	t.positionChanged()
	if notify && t.onReset != nil {
		t.onReset(t.position)
	}
}

// Update re-applies the current position.
func (t *Transport) Update() { t.positionChanged() }

// Start enables stepping and applies the current position.
func (t *Transport) Start() {
	t.started = true
	t.positionChanged()
}

// Stop disables stepping.
func (t *Transport) Stop() { t.started = false }

// Toggle flips between Start and Stop.
func (t *Transport) Toggle() {
	if t.started {
		t.Stop()
	} else {
		t.Start()
	}
}

func (t *Transport) positionChanged() {
	if t.onPosition != nil {
		t.onPosition(t.position)
	}
}

// Oscillator maps a frame position to an offset. Missing parameters take the
// oscillator's defaults.
type Oscillator func(step float64, params ...float64) float64

// Default oscillator parameters: period 30 frames, amplitude 1, phase 0
// degrees.
const (
	defaultPeriod = 30
	defaultAmp    = 1
)

func oscParams(params []float64) (period, amp, phase float64) {
	period, amp = defaultPeriod, defaultAmp
	if len(params) > 0 {
		period = params[0]
	}
	if len(params) > 1 {
		amp = params[1]
	}
	if len(params) > 2 {
		phase = params[2]
	}
	return period, amp, phase
}

// SinOsc oscillates in [-amp, amp] with phase in degrees.
func SinOsc(step, period, amp, phase float64) float64 {
	return amp * math.Sin(phase/360*2*math.Pi+step*2*math.Pi/period)
}

// CosOsc is SinOsc shifted by 90 degrees.
func CosOsc(step, period, amp, phase float64) float64 {
	return SinOsc(step, period, amp, phase+90)
}

// SawOsc ramps from 0 towards amp once per period.
func SawOsc(step, period, amp, phase float64) float64 {
	return amp * math.Mod(step+phase/360*period, period) / period
}

// TriOsc rises from 0 to amp and falls back once per period.
func TriOsc(step, period, amp, phase float64) float64 {
	if math.Mod(step, period) < period/2 {
		return SawOsc(step, period/2, amp, phase)
	}
	return amp - SawOsc(step, period/2, amp, phase)
}

// SquareOsc is amp for the first half of each period and 0 for the second.
func SquareOsc(step, period, amp, phase float64) float64 {
	if math.Mod(step+phase/360*period, period) < period/2 {
		return amp
	}
	return 0
}

func wave(fn func(step, period, amp, phase float64) float64) Oscillator {
	return func(step float64, params ...float64) float64 {
		period, amp, phase := oscParams(params)
		return fn(step, period, amp, phase)
	}
}

var oscillators = map[string]Oscillator{
	"sin":    wave(SinOsc),
	"cos":    wave(CosOsc),
	"saw":    wave(SawOsc),
	"tri":    wave(TriOsc),
	"square": wave(SquareOsc),
}

// Oscillators returns the names accepted by Channel.Fn, sorted.
func Oscillators() []string {
	names := make([]string, 0, len(oscillators)+1)
	for name := range oscillators {
		names = append(names, name)
	}
	names = append(names, "tween")
	slices.Sort(names)
	return names
}

var easings = map[string]ease.TweenFunc{
	"linear":       ease.Linear,
	"in-quad":      ease.InQuad,
	"out-quad":     ease.OutQuad,
	"in-out-quad":  ease.InOutQuad,
	"in-cubic":     ease.InCubic,
	"out-cubic":    ease.OutCubic,
	"in-out-cubic": ease.InOutCubic,
	"in-sine":      ease.InSine,
	"out-sine":     ease.OutSine,
	"in-out-sine":  ease.InOutSine,
	"in-expo":      ease.InExpo,
	"out-expo":     ease.OutExpo,
	"in-out-expo":  ease.InOutExpo,
	"in-back":      ease.InBack,
	"out-back":     ease.OutBack,
	"in-bounce":    ease.InBounce,
	"out-bounce":   ease.OutBounce,
}

// Easing returns the easing function registered under name. The empty name
// is linear.
func Easing(name string) (ease.TweenFunc, error) {
	if name == "" {
		return ease.Linear, nil
	}
	fn, ok := easings[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: unknown easing %q", ErrInvalidRule, name)
	}
	return fn, nil
}

// tweenOsc eases from params[1] to params[2] over params[0] frames, then
// repeats.
func tweenOsc(fn ease.TweenFunc) Oscillator {
	return func(step float64, params ...float64) float64 {
		period, from, to := float64(defaultPeriod), 0.0, 1.0
		if len(params) > 0 {
			period = params[0]
		}
		if len(params) > 1 {
			from = params[1]
		}
		if len(params) > 2 {
			to = params[2]
		}
		t := math.Mod(step, period)
		if t < 0 {
			t += period
		}
		v, _ := gween.New(float32(from), float32(to), float32(period), fn).Set(float32(t))
		return float64(v)
	}
}

// Channel animates one store value: Dest = Source + Fn(position, Params...).
// Params are store paths (strings) or numeric constants. An empty Source
// counts as 0.
type Channel struct {
	Dest   string `yaml:"dest"`
	Source string `yaml:"source"`
	Fn     string `yaml:"fn"`
	Params []any  `yaml:"params"`
	Ease   string `yaml:"ease"`
}

type boundChannel struct {
	Channel
	osc Oscillator
}

// ParamAnimator applies animation channels to a Store whenever its transport
// position changes.
type ParamAnimator struct {
	*Transport
	store    *Store
	channels []boundChannel
	logger   *slog.Logger
	err      error
}

// NewParamAnimator validates channels against store and writes each Source
// value to its Dest. onReset may be nil.
func NewParamAnimator(store *Store, channels []Channel, onReset func(pos int), logger *slog.Logger) (*ParamAnimator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &ParamAnimator{store: store, logger: logger.With("component", "animator")}
	for _, ch := range channels {
		bc := boundChannel{Channel: ch}
		if ch.Fn == "tween" {
			fn, err := Easing(ch.Ease)
			if err != nil {
				return nil, fmt.Errorf("channel %s: %w", ch.Dest, err)
			}
			bc.osc = tweenOsc(fn)
		} else {
			osc, ok := oscillators[ch.Fn]
			if !ok {
				return nil, fmt.Errorf("%w: channel %s: unknown function %q (want one of %s)",
					ErrInvalidRule, ch.Dest, ch.Fn, strings.Join(Oscillators(), ", "))
			}
			bc.osc = osc
		}
		if err := store.Check(ch.Dest); err != nil {
			return nil, fmt.Errorf("channel %s: %w", ch.Dest, err)
		}
		src, err := a.source(ch)
		if err != nil {
			return nil, err
		}
		if err := store.Set(ch.Dest, src); err != nil {
			return nil, err
		}
		a.channels = append(a.channels, bc)
	}
	a.Transport = NewTransport(a.apply, onReset)
	return a, nil
}

// Err returns the last error raised while applying a position, if any.
func (a *ParamAnimator) Err() error { return a.err }

func (a *ParamAnimator) source(ch Channel) (float64, error) {
	if ch.Source == "" {
		return 0, nil
	}
	v, ok := a.store.Float(ch.Source)
	if !ok {
		return 0, fmt.Errorf("channel %s: source: %w", ch.Dest, &PathError{Path: ch.Source})
	}
	return v, nil
}

func (a *ParamAnimator) params(ch Channel) ([]float64, error) {
	out := make([]float64, len(ch.Params))
	for i, p := range ch.Params {
		if path, ok := p.(string); ok {
			v, ok := a.store.Float(path)
			if !ok {
				return nil, fmt.Errorf("channel %s: param %d: %w", ch.Dest, i, &PathError{Path: path})
			}
			out[i] = v
			continue
		}
		v, ok := toFloat(p)
		if !ok {
			return nil, fmt.Errorf("%w: channel %s: param %d is %T", ErrInvalidRule, ch.Dest, i, p)
		}
		out[i] = v
	}
	return out, nil
}

func (a *ParamAnimator) apply(pos int) {
	for _, ch := range a.channels {
		if err := a.applyChannel(ch, pos); err != nil {
			a.err = err
			a.logger.Error("animation channel failed", "dest", ch.Dest, "position", pos, "error", err)
		}
	}
}

func (a *ParamAnimator) applyChannel(ch boundChannel, pos int) error {
	src, err := a.source(ch.Channel)
	if err != nil {
		return err
	}
	params, err := a.params(ch.Channel)
	if err != nil {
		return err
	}
	return a.store.Set(ch.Dest, src+ch.osc(float64(pos), params...))
}

// Loop steps an Animator once per frame callback of a Clock. Under a hijacked
// clock this is exactly once per captured frame.
type Loop struct {
	clock   Clock
	anim    Animator
	running bool
}

// NewLoop returns a stopped loop.
func NewLoop(clock Clock, anim Animator) *Loop {
	return &Loop{clock: clock, anim: anim}
}

// Start starts the animator and schedules the first step.
func (l *Loop) Start() {
	if l.running {
		return
	}
	l.running = true
	l.anim.Start()
	l.clock.RequestFrame(l.tick)
}

// Stop stops stepping after the pending callback.
func (l *Loop) Stop() {
	l.running = false
	l.anim.Stop()
}

// Running reports whether the loop is scheduled.
func (l *Loop) Running() bool { return l.running }

func (l *Loop) tick(float64) {
	if !l.running {
		return
	}
	l.anim.Step()
	l.clock.RequestFrame(l.tick)
}

// TweenGroup eases up to 4 store values towards targets. Call Update(dt)
// each frame; values are written to the store on every update.
type TweenGroup struct {
	tweens [4]*gween.Tween
	paths  [4]string
	count  int
	store  *Store
	Done   bool
}

// TweenPaths creates a TweenGroup moving each path from its current value to
// the given target over duration seconds.
func TweenPaths(store *Store, targets map[string]float64, duration float32, fn ease.TweenFunc) (*TweenGroup, error) {
	if len(targets) > len(TweenGroup{}.tweens) {
		return nil, fmt.Errorf("%w: at most 4 tween targets", ErrInvalidRule)
	}
	g := &TweenGroup{store: store}
	paths := make([]string, 0, len(targets))
	for p := range targets {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	for _, p := range paths {
		from, ok := store.Float(p)
		if !ok {
			return nil, &PathError{Path: p}
		}
		g.tweens[g.count] = gween.New(float32(from), float32(targets[p]), duration, fn)
		g.paths[g.count] = p
		g.count++
	}
	return g, nil
}

// Update advances all tweens by dt seconds and writes their values.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}
	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		// Paths were resolved in TweenPaths, so Set cannot fail here.
		_ = g.store.Set(g.paths[i], float64(val))
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone
}
