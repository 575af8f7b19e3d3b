// Package sketch is the demo draw routine used by the CLI: a rotating,
// colored polygon over a tinted background, drawn entirely from store values.
package sketch

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/phanxgames/edition"
	"golang.org/x/image/vector"
)

// Store paths read by Draw. Missing values fall back to defaults.
const (
	PathBackgroundHue   = "bg.hue"
	PathBackgroundLight = "bg.light"
	PathSides           = "shape.sides"
	PathRadius          = "shape.radius"
	PathRotation        = "shape.rotation"
	PathHue             = "shape.hue"
	PathAnimRotation    = "anim.rotation"
	PathAnimRadius      = "anim.radius"
)

// Sketch renders into a reused RGBA canvas.
type Sketch struct {
	canvas *image.RGBA
	raster *vector.Rasterizer
}

// New returns a sketch drawing at w x h pixels.
func New(w, h int) *Sketch {
	return &Sketch{
		canvas: image.NewRGBA(image.Rect(0, 0, w, h)),
		raster: vector.NewRasterizer(w, h),
	}
}

// Canvas returns the image Draw renders into.
func (s *Sketch) Canvas() *image.RGBA { return s.canvas }

// DrawFunc adapts the sketch to a Renderer, reading from store.
func (s *Sketch) DrawFunc(store *edition.Store) edition.DrawFunc {
	return func() (edition.Surface, error) {
		return edition.ImageSurface{Image: s.Draw(store)}, nil
	}
}

// Draw renders the current values of store.
func (s *Sketch) Draw(store *edition.Store) *image.RGBA {
	get := func(path string, def float64) float64 {
		if v, ok := store.Float(path); ok {
			return v
		}
		return def
	}
	b := s.canvas.Bounds()
	bg := hsl(get(PathBackgroundHue, 0.6), 0.35, get(PathBackgroundLight, 0.12))
	draw.Draw(s.canvas, b, image.NewUniform(bg), image.Point{}, draw.Src)

	sides := max(int(get(PathSides, 6)), 3)
	size := float64(min(b.Dx(), b.Dy()))
	radius := (get(PathRadius, 0.3) + get(PathAnimRadius, 0)) * size
	rot := (get(PathRotation, 0) + get(PathAnimRotation, 0)) * math.Pi / 180
	cx, cy := float64(b.Dx())/2, float64(b.Dy())/2

	s.raster.Reset(b.Dx(), b.Dy())
	for i := 0; i < sides; i++ {
		a := rot + float64(i)*2*math.Pi/float64(sides)
		x := float32(cx + radius*math.Cos(a))
		y := float32(cy + radius*math.Sin(a))
		if i == 0 {
			s.raster.MoveTo(x, y)
		} else {
			s.raster.LineTo(x, y)
		}
	}
	s.raster.ClosePath()
	fill := hsl(get(PathHue, 0.1), 0.7, 0.55)
	s.raster.Draw(s.canvas, b, image.NewUniform(fill), image.Point{})
	return s.canvas
}

// hsl converts hue, saturation and lightness in [0, 1] to an opaque color.
func hsl(h, sat, l float64) color.RGBA {
	h = h - math.Floor(h)
	sat = clamp01(sat)
	l = clamp01(l)
	c := (1 - math.Abs(2*l-1)) * sat
	x := c * (1 - math.Abs(math.Mod(h*6, 2)-1))
	m := l - c/2
	var r, g, bl float64
	switch int(h * 6) {
	case 0:
		r, g = c, x
	case 1:
		r, g = x, c
	case 2:
		g, bl = c, x
	case 3:
		g, bl = x, c
	case 4:
		r, bl = x, c
	default:
		r, bl = c, x
	}
	return color.RGBA{
		R: uint8(math.Round((r + m) * 255)),
		G: uint8(math.Round((g + m) * 255)),
		B: uint8(math.Round((bl + m) * 255)),
		A: 255,
	}
}

func clamp01(v float64) float64 { return math.Min(math.Max(v, 0), 1) }
