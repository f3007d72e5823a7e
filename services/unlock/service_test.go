package unlock

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRequestDeliversExactlyOnce(t *testing.T) {
	svc := NewService(30 * time.Millisecond)
	defer svc.Shutdown()

	var delivered atomic.Int32
	deliver := func() { delivered.Add(1) }

	if got := svc.Request("key1", deliver); got != OutcomeScheduled {
		t.Fatalf("first tap outcome = %v, want OutcomeScheduled", got)
	}

	// Replay taps during the countdown.
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := svc.Request("key1", deliver); got != OutcomePending {
				t.Errorf("replay tap outcome = %v, want OutcomePending", got)
			}
		}()
	}
	wg.Wait()

	if n := delivered.Load(); n != 0 {
		t.Fatalf("delivered %d times before the delay elapsed", n)
	}

	deadline := time.After(2 * time.Second)
	for delivered.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("delivery never happened")
		case <-time.After(5 * time.Millisecond):
		}
	}

	time.Sleep(50 * time.Millisecond)
	if n := delivered.Load(); n != 1 {
		t.Errorf("delivered %d times, want exactly 1", n)
	}
}

func TestRequestRedeliversAfterResolution(t *testing.T) {
	svc := NewService(10 * time.Millisecond)
	defer svc.Shutdown()

	var delivered atomic.Int32
	deliver := func() { delivered.Add(1) }

	svc.Request("key1", deliver)

	deadline := time.After(2 * time.Second)
	for delivered.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("delivery never happened")
		case <-time.After(5 * time.Millisecond):
		}
	}

	// A tap on a resolved cycle hands the content back immediately.
	start := time.Now()
	if got := svc.Request("key1", deliver); got != OutcomeRedelivered {
		t.Fatalf("post-resolution tap outcome = %v, want OutcomeRedelivered", got)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Millisecond {
		t.Errorf("redelivery took %v, expected no new wait", elapsed)
	}
	if n := delivered.Load(); n != 2 {
		t.Errorf("delivered %d times, want 2", n)
	}
}

func TestIndependentKeysGetIndependentCycles(t *testing.T) {
	svc := NewService(10 * time.Millisecond)
	defer svc.Shutdown()

	var a, b atomic.Int32

	if got := svc.Request("keyA", func() { a.Add(1) }); got != OutcomeScheduled {
		t.Fatalf("keyA outcome = %v", got)
	}
	if got := svc.Request("keyB", func() { b.Add(1) }); got != OutcomeScheduled {
		t.Fatalf("keyB outcome = %v, want its own cycle", got)
	}

	deadline := time.After(2 * time.Second)
	for a.Load() == 0 || b.Load() == 0 {
		select {
		case <-deadline:
			t.Fatalf("deliveries incomplete: a=%d b=%d", a.Load(), b.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestShutdownCancelsPendingCycles(t *testing.T) {
	svc := NewService(20 * time.Millisecond)

	var delivered atomic.Int32
	svc.Request("key1", func() { delivered.Add(1) })
	svc.Shutdown()

	time.Sleep(60 * time.Millisecond)
	if n := delivered.Load(); n != 0 {
		t.Errorf("delivered %d times after shutdown, want 0", n)
	}
}

func TestRetireExpiredDropsOnlyOldResolvedCycles(t *testing.T) {
	svc := NewService(5 * time.Millisecond)
	defer svc.Shutdown()

	var delivered atomic.Int32
	svc.Request("old", func() { delivered.Add(1) })

	deadline := time.After(2 * time.Second)
	for delivered.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("delivery never happened")
		case <-time.After(2 * time.Millisecond):
		}
	}

	// Push the clock past retention and sweep.
	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	svc.retireExpired()

	// The retired key starts a fresh countdown on the next tap.
	if got := svc.Request("old", func() { delivered.Add(1) }); got != OutcomeScheduled {
		t.Errorf("tap on retired key outcome = %v, want OutcomeScheduled", got)
	}
}
