package edition

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"strings"
)

// Surface is a rendered frame that can be read back as premultiplied RGBA
// pixels. *ebiten.Image satisfies it; ImageSurface adapts any image.Image.
type Surface interface {
	Bounds() image.Rectangle
	ReadPixels(pixels []byte)
}

// ImageSurface adapts an image.Image drawn on the CPU.
type ImageSurface struct {
	Image image.Image
}

// Bounds returns the image bounds.
func (s ImageSurface) Bounds() image.Rectangle { return s.Image.Bounds() }

// ReadPixels copies the image into pixels as premultiplied RGBA.
func (s ImageSurface) ReadPixels(pixels []byte) {
	b := s.Image.Bounds()
	dst := &image.RGBA{Pix: pixels, Stride: 4 * b.Dx(), Rect: image.Rect(0, 0, b.Dx(), b.Dy())}
	draw.Draw(dst, dst.Rect, s.Image, b.Min, draw.Src)
}

// Encoder turns a captured frame into file bytes.
type Encoder interface {
	Encode(w io.Writer, img image.Image) error
	Ext() string
}

// PNGEncoder encodes lossless PNG frames.
type PNGEncoder struct {
	Level png.CompressionLevel
	pool  pngPool
}

type pngPool struct{ b *png.EncoderBuffer }

func (p *pngPool) Get() *png.EncoderBuffer  { return p.b }
func (p *pngPool) Put(b *png.EncoderBuffer) { p.b = b }

// Encode writes img as PNG.
func (e *PNGEncoder) Encode(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: e.Level, BufferPool: &e.pool}
	return enc.Encode(w, img)
}

// Ext returns ".png".
func (e *PNGEncoder) Ext() string { return ".png" }

// EncodeSurface reads s back and encodes it with enc. Every failure, including
// a panic while reading pixels, is reported as ErrEncode.
func EncodeSurface(enc Encoder, s Surface) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: read pixels: %v", ErrEncode, r)
		}
	}()
	img, err := readSurface(s)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return buf.Bytes(), nil
}

// readSurface captures s and converts premultiplied RGBA to straight-alpha
// NRGBA.
func readSurface(s Surface) (*image.NRGBA, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil surface", ErrEncode)
	}
	bounds := s.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: empty surface %dx%d", ErrEncode, w, h)
	}
	pixels := make([]byte, 4*w*h)
	s.ReadPixels(pixels)

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(pixels); i += 4 {
		r, g, b, a := pixels[i], pixels[i+1], pixels[i+2], pixels[i+3]
		if a > 0 && a < 255 {
			r = uint8(min(int(r)*255/int(a), 255))
			g = uint8(min(int(g)*255/int(a), 255))
			b = uint8(min(int(b)*255/int(a), 255))
		}
		img.Pix[i] = r
		img.Pix[i+1] = g
		img.Pix[i+2] = b
		img.Pix[i+3] = a
	}
	return img, nil
}

// sanitizeEntryName replaces characters that are unsafe in archive entry names
// with underscores. Slashes are kept as folder separators; empty segments and
// dot segments are dropped.
func sanitizeEntryName(name string) string {
	var parts []string
	for _, seg := range strings.Split(strings.TrimSpace(name), "/") {
		if seg == "" || seg == "." || seg == ".." {
			continue
		}
		var b strings.Builder
		b.Grow(len(seg))
		for _, r := range seg {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
				r >= '0' && r <= '9', r == '-', r == '.', r == '_':
				b.WriteRune(r)
			default:
				b.WriteByte('_')
			}
		}
		parts = append(parts, b.String())
	}
	if len(parts) == 0 {
		return "unnamed"
	}
	return strings.Join(parts, "/")
}
