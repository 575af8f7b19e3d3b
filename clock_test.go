package edition

import "testing"

func TestVirtualClockAdvance(t *testing.T) {
	var c VirtualClock
	var got []float64
	c.RequestFrame(func(now float64) { got = append(got, now) })
	if c.Pending() != 1 {
		t.Fatalf("Pending = %d, want 1", c.Pending())
	}
	c.Advance(1000.0 / 30)
	c.Advance(1000.0 / 30)
	if len(got) != 1 {
		t.Fatalf("callback ran %d times, want once", len(got))
	}
	if want := 1000.0 / 30; got[0] != want {
		t.Errorf("callback time = %v, want %v", got[0], want)
	}
	if c.Now() != 2000.0/30 {
		t.Errorf("Now = %v, want %v", c.Now(), 2000.0/30)
	}
}

func TestFlushReschedulesToNextFlush(t *testing.T) {
	var c VirtualClock
	runs := 0
	var tick FrameCallback
	tick = func(float64) {
		runs++
		c.RequestFrame(tick)
	}
	c.RequestFrame(tick)
	c.Flush()
	c.Flush()
	c.Flush()
	if runs != 3 {
		t.Errorf("runs = %d, want 3 (one per flush)", runs)
	}
	if c.Pending() != 1 {
		t.Errorf("Pending = %d, want 1", c.Pending())
	}
}

func TestSwitchClockHijack(t *testing.T) {
	c := NewSwitchClock()
	var realRuns, virtualAt []float64
	c.RequestFrame(func(now float64) { realRuns = append(realRuns, now) })

	c.Hijack(5000)
	if !c.Hijacked() || c.Now() != 5000 {
		t.Fatalf("after Hijack: hijacked=%v now=%v", c.Hijacked(), c.Now())
	}
	// Flush is driven by the recorder under virtual time.
	c.Flush()
	if len(realRuns) != 0 {
		t.Fatal("SwitchClock.Flush ran callbacks while hijacked")
	}
	c.Virtual.Advance(100)
	if len(realRuns) != 1 || realRuns[0] != 5100 {
		t.Errorf("moved callback ran at %v, want [5100]", realRuns)
	}

	c.RequestFrame(func(now float64) { virtualAt = append(virtualAt, now) })
	c.Restore()
	if c.Hijacked() {
		t.Fatal("still hijacked after Restore")
	}
	c.Flush()
	if len(virtualAt) != 1 {
		t.Errorf("pending virtual callback ran %d times after Restore+Flush, want 1", len(virtualAt))
	}
	c.Restore() // no effect
}

func TestRealClockNow(t *testing.T) {
	c := NewRealClock()
	a := c.Now()
	b := c.Now()
	if a < 0 || b < a {
		t.Errorf("Now not monotonic: %v then %v", a, b)
	}
}
