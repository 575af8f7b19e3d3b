package edition

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// fpsCounter measures the real capture rate over a sliding window.
type fpsCounter struct {
	window time.Duration
	stamps []time.Time
	fps    float64
}

func newFPSCounter(window time.Duration) *fpsCounter {
	return &fpsCounter{window: window}
}

// step records one frame at now.
func (f *fpsCounter) step(now time.Time) {
	f.stamps = append(f.stamps, now)
	drop := 0
	for drop < len(f.stamps) && now.Sub(f.stamps[drop]) > f.window {
		drop++
	}
	f.stamps = f.stamps[drop:]
	if dt := now.Sub(f.stamps[0]); dt > 0 {
		f.fps = float64(len(f.stamps)) / dt.Seconds()
	}
}

// Status describes the recorder for display.
type Status struct {
	Recording   bool
	Frame       int     // frames captured so far
	TotalFrames int     // 0 when unbounded
	FrameRate   float64 // recording frame rate
	Elapsed     float64 // virtual milliseconds since the session started
	Bytes       int64   // bytes flushed plus bytes in the current chunk
	Chunks      int     // chunks flushed
	FPS         float64 // real capture rate
	Wall        time.Duration
	Info        string
}

// String renders a one-line summary, e.g.
//
//	● REC 00:01.05 #0000035/300 12 MB 29.87 fps 00:00:03
func (s Status) String() string {
	mark := "○ IDLE"
	if s.Recording {
		mark = "● REC"
	}
	elapsed := time.Duration(s.Elapsed * float64(time.Millisecond))
	mm := int(elapsed / time.Minute)
	ss := int(elapsed/time.Second) % 60
	intra := 0
	if s.FrameRate >= 1 {
		intra = s.Frame % int(s.FrameRate)
	}
	frames := fmt.Sprintf("%07d", s.Frame)
	if s.TotalFrames > 0 {
		frames += fmt.Sprintf("/%d", s.TotalFrames)
	}
	wall := s.Wall.Round(time.Second)
	line := fmt.Sprintf("%s %02d:%02d.%02d #%s %s %.2f fps %02d:%02d:%02d",
		mark, mm, ss, intra, frames, formatBytes(s.Bytes), s.FPS,
		int(wall.Hours()), int(wall.Minutes())%60, int(wall.Seconds())%60)
	if s.Info != "" {
		line += " " + s.Info
	}
	return line
}

// formatBytes prints n in decimal units, e.g. "12 MB".
func formatBytes(n int64) string {
	return humanize.Bytes(uint64(max(n, 0)))
}

var countPrinter = message.NewPrinter(language.English)

// humanCount formats n with thousands separators.
func humanCount(n int) string {
	return countPrinter.Sprintf("%d", n)
}
