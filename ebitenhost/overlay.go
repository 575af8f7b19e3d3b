package ebitenhost

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// overlay shows the recorder status line with the loop's FPS and TPS. The
// text is redrawn every ~0.5 seconds.
type overlay struct {
	img        *ebiten.Image
	lastUpdate float64
	text       string
}

func newOverlay() *overlay {
	// Wide enough for the status line plus run info.
	return &overlay{img: ebiten.NewImage(480, 32)}
}

// update advances the refresh timer by dt seconds and rebuilds the text from
// status when due.
func (o *overlay) update(dt float64, status string) {
	o.lastUpdate += dt
	if o.lastUpdate < 0.5 && o.text != "" {
		return
	}
	o.lastUpdate = 0
	o.text = fmt.Sprintf("%s\nFPS: %.1f TPS: %.1f", status, ebiten.ActualFPS(), ebiten.ActualTPS())

	o.img.Clear()
	// Semi-transparent background for readability
	o.img.Fill(color.RGBA{0, 0, 0, 128})
	ebitenutil.DebugPrint(o.img, o.text)
}

func (o *overlay) draw(dst *ebiten.Image) {
	dst.DrawImage(o.img, nil)
}
