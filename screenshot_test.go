package edition

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"
)

func TestEncodeSurfaceUnpremultiplies(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	src.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
	src.SetRGBA(1, 0, color.RGBA{R: 64, G: 32, A: 128}) // premultiplied

	data, err := EncodeSurface(&PNGEncoder{}, ImageSurface{Image: src})
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 2 || b.Dy() != 1 {
		t.Fatalf("bounds = %v, want 2x1", b)
	}
	got := color.NRGBAModel.Convert(img.At(1, 0)).(color.NRGBA)
	if got.A != 128 || got.R != 127 || got.G != 63 {
		t.Errorf("translucent pixel = %+v, want straight alpha {127 63 0 128}", got)
	}
	if got := color.NRGBAModel.Convert(img.At(0, 0)).(color.NRGBA); got != (color.NRGBA{R: 255, A: 255}) {
		t.Errorf("opaque pixel = %+v", got)
	}
}

func TestEncodeSurfaceOffsetBounds(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 10, 13, 12))
	data, err := EncodeSurface(&PNGEncoder{}, ImageSurface{Image: src})
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 3 || cfg.Height != 2 {
		t.Errorf("size = %dx%d, want 3x2", cfg.Width, cfg.Height)
	}
}

type panicSurface struct{}

func (panicSurface) Bounds() image.Rectangle { return image.Rect(0, 0, 1, 1) }
func (panicSurface) ReadPixels([]byte)       { panic("disposed") }

type failingEncoder struct{}

func (failingEncoder) Encode(io.Writer, image.Image) error { return errors.New("no space") }
func (failingEncoder) Ext() string                         { return ".bin" }

func TestEncodeSurfaceErrors(t *testing.T) {
	tests := []struct {
		name string
		enc  Encoder
		s    Surface
	}{
		{"nil surface", &PNGEncoder{}, nil},
		{"empty surface", &PNGEncoder{}, ImageSurface{Image: image.NewRGBA(image.Rect(0, 0, 0, 0))}},
		{"panic", &PNGEncoder{}, panicSurface{}},
		{"encoder", failingEncoder{}, ImageSurface{Image: image.NewRGBA(image.Rect(0, 0, 1, 1))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := EncodeSurface(tt.enc, tt.s); !errors.Is(err, ErrEncode) {
				t.Errorf("err = %v, want ErrEncode", err)
			}
		})
	}
}

func TestSanitizeEntryName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"frames/0001/0001_0000.png", "frames/0001/0001_0000.png"},
		{"my file?.png", "my_file_.png"},
		{"../../etc/passwd", "etc/passwd"},
		{"/abs//x.png", "abs/x.png"},
		{"", "unnamed"},
		{"  ./  ", "unnamed"},
	}
	for _, tt := range tests {
		if got := sanitizeEntryName(tt.in); got != tt.want {
			t.Errorf("sanitizeEntryName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
