package ebitenhost

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// Canvas is the persistent full-resolution offscreen image frames are drawn
// into and captured from. The window only shows a scaled copy, so the
// capture size does not depend on the window size.
type Canvas struct {
	image *ebiten.Image
	w, h  int
}

// NewCanvas creates a canvas of the given size.
func NewCanvas(w, h int) *Canvas {
	return &Canvas{
		image: ebiten.NewImage(w, h),
		w:     w,
		h:     h,
	}
}

// Image returns the underlying *ebiten.Image. It satisfies edition.Surface.
func (c *Canvas) Image() *ebiten.Image {
	return c.image
}

// Width returns the canvas width in pixels.
func (c *Canvas) Width() int {
	return c.w
}

// Height returns the canvas height in pixels.
func (c *Canvas) Height() int {
	return c.h
}

// WriteRGBA replaces the canvas contents with img, which must have the
// canvas size.
func (c *Canvas) WriteRGBA(img *image.RGBA) {
	c.image.WritePixels(img.Pix)
}

// DrawScaled draws the canvas onto dst, scaled to fit and centered.
func (c *Canvas) DrawScaled(dst *ebiten.Image) {
	b := dst.Bounds()
	scale := min(float64(b.Dx())/float64(c.w), float64(b.Dy())/float64(c.h))
	var op ebiten.DrawImageOptions
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate((float64(b.Dx())-float64(c.w)*scale)/2, (float64(b.Dy())-float64(c.h)*scale)/2)
	op.Filter = ebiten.FilterLinear
	dst.DrawImage(c.image, &op)
}

// Dispose deallocates the canvas image. The canvas must not be used after.
func (c *Canvas) Dispose() {
	if c.image != nil {
		c.image.Deallocate()
		c.image = nil
	}
}
