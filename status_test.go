package edition

import (
	"testing"
	"time"
)

func TestStatusString(t *testing.T) {
	s := Status{
		Recording:   true,
		Frame:       35,
		TotalFrames: 300,
		FrameRate:   30,
		Elapsed:     1166.67,
		Bytes:       12_300_000,
		FPS:         29.87,
		Wall:        3 * time.Second,
		Info:        "Seq (1/4)",
	}
	want := "● REC 00:01.05 #0000035/300 12 MB 29.87 fps 00:00:03 Seq (1/4)"
	if got := s.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	idle := Status{}
	if got := idle.String(); got != "○ IDLE 00:00.00 #0000000 0 B 0.00 fps 00:00:00" {
		t.Errorf("idle String() = %q", got)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{-1, "0 B"},
		{0, "0 B"},
		{1_500_000, "1.5 MB"},
		{999_000_000, "999 MB"},
		{2_250_000_000, "2.3 GB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHumanCount(t *testing.T) {
	if got := humanCount(1234567); got != "1,234,567" {
		t.Errorf("humanCount(1234567) = %q, want 1,234,567", got)
	}
}

func TestFPSCounter(t *testing.T) {
	f := newFPSCounter(time.Second)
	start := time.Unix(0, 0)
	for i := range 11 {
		f.step(start.Add(time.Duration(i) * 100 * time.Millisecond))
	}
	if f.fps != 11 {
		t.Errorf("fps = %v, want 11 over a full window", f.fps)
	}
	f.step(start.Add(5 * time.Second))
	if len(f.stamps) != 1 {
		t.Errorf("stale stamps kept: %d", len(f.stamps))
	}
}
