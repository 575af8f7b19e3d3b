package edition

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.frameCaptured(time.Millisecond)
	m.chunkFlushed(10)
	m.setRecording(true)
	m.itemRendered("a")
	m.runFailed()
}

func TestMetricsRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.frameCaptured(10 * time.Millisecond)
	m.frameCaptured(20 * time.Millisecond)
	m.chunkFlushed(2048)
	m.setRecording(true)
	m.itemRendered("kat.1")
	m.itemRendered("kat.1")
	m.runFailed()

	if got := testutil.ToFloat64(m.FramesCaptured); got != 2 {
		t.Errorf("frames = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ChunkBytes); got != 2048 {
		t.Errorf("chunk bytes = %v, want 2048", got)
	}
	if got := testutil.ToFloat64(m.Recording); got != 1 {
		t.Errorf("recording = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ItemsRendered.WithLabelValues("kat.1")); got != 2 {
		t.Errorf("items = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.RunErrors); got != 1 {
		t.Errorf("run errors = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(reg); n != 7 {
		t.Errorf("collected %d metrics, want 7", n)
	}
	m.setRecording(false)
	if got := testutil.ToFloat64(m.Recording); got != 0 {
		t.Errorf("recording = %v, want 0", got)
	}
}
