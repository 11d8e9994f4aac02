package timer

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestCounterCountsOnlyWhileStarted(t *testing.T) {
	src := NewManual()
	c := NewCounter(src)

	if src.Fire() {
		t.Error("overflow should be masked before Start")
	}
	if c.Count() != 0 {
		t.Errorf("expected count 0, got %d", c.Count())
	}

	c.Start()
	if src.Resets != 1 {
		t.Errorf("expected Start to reset the counting register once, got %d", src.Resets)
	}
	src.FireN(3)
	if c.Count() != 3 {
		t.Errorf("expected count 3, got %d", c.Count())
	}

	c.Stop()
	if c.Count() != 0 {
		t.Errorf("expected Stop to clear count, got %d", c.Count())
	}
	if src.Fire() {
		t.Error("overflow should be masked after Stop")
	}
}

func TestCounterSaturates(t *testing.T) {
	src := NewManual()
	c := NewCounter(src)
	c.Start()

	src.FireN(300)
	if c.Count() != 255 {
		t.Errorf("expected saturated count 255, got %d", c.Count())
	}
}

func TestOverflowPeriod(t *testing.T) {
	tests := []struct {
		tick time.Duration
		want time.Duration
	}{
		{500 * time.Nanosecond, 32768 * time.Microsecond},
		{64 * time.Microsecond, 4194304 * time.Microsecond},
	}
	for _, tt := range tests {
		if got := OverflowPeriod(tt.tick); got != tt.want {
			t.Errorf("OverflowPeriod(%v): got %v, want %v", tt.tick, got, tt.want)
		}
	}
}

func TestTickerDeliversOnlyWhenEnabled(t *testing.T) {
	tk := NewTicker(2 * time.Millisecond)
	var fired atomic.Int32
	tk.Attach(func() { fired.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tk.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	if n := fired.Load(); n != 0 {
		t.Errorf("expected no overflows while masked, got %d", n)
	}

	tk.EnableOverflow()
	tk.ResetCounter()
	deadline := time.Now().Add(time.Second)
	for fired.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if fired.Load() == 0 {
		t.Error("expected at least one overflow once enabled")
	}

	cancel()
	<-done
}

func TestCounterOnTickerNeverCountsEarly(t *testing.T) {
	const period = 2 * time.Millisecond
	src := NewTicker(period)
	c := NewCounter(src)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		src.Run(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	c.Start()
	time.Sleep(5 * period)

	for round := 0; round < 300; round++ {
		c.Stop()
		begin := time.Now()
		c.Start()
		time.Sleep(period / 4)
		n := c.Count()
		if n > 0 && time.Since(begin) < period {
			t.Fatalf("round %d: %d overflow(s) counted %v after Start, before a full period", round, n, time.Since(begin))
		}
	}
}

func TestTickerResetRestartsPeriod(t *testing.T) {
	const period = 5 * time.Millisecond
	tk := NewTicker(period)
	var fired atomic.Int32
	tk.Attach(func() { fired.Add(1) })
	tk.EnableOverflow()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tk.Run(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	// Keep resetting faster than the period: no overflow may be delivered.
	deadline := time.Now().Add(20 * period)
	for time.Now().Before(deadline) {
		begin := time.Now()
		tk.ResetCounter()
		before := fired.Load()
		time.Sleep(period / 5)
		if fired.Load() != before && time.Since(begin) < period {
			t.Fatalf("overflow delivered %v after reset", time.Since(begin))
		}
	}
}
