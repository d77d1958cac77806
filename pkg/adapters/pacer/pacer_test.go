package pacer

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWait_Disabled(t *testing.T) {
	p := New(0)
	if p.Interval() != 0 {
		t.Fatalf("expected no interval, got %v", p.Interval())
	}

	start := time.Now()
	for i := 0; i < 1000; i++ {
		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
	if time.Since(start) > time.Second {
		t.Error("expected unpaced waits to return immediately")
	}
}

func TestWait_Interval(t *testing.T) {
	p := New(50)
	if p.Interval() != 20*time.Millisecond {
		t.Fatalf("expected 20ms, got %v", p.Interval())
	}

	start := time.Now()
	for i := 0; i < 4; i++ {
		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
	// the first slot is immediate, the other three wait one interval each
	if elapsed := time.Since(start); elapsed < 55*time.Millisecond {
		t.Errorf("expected at least 60ms of pacing, got %v", elapsed)
	}
}

func TestWait_Resynchronizes(t *testing.T) {
	now := time.Unix(1000, 0)
	p := New(10)
	p.now = func() time.Time { return now }

	p.Wait(context.Background())

	// fall far behind; the next slot starts from now instead of bursting
	now = now.Add(5 * time.Second)
	p.Wait(context.Background())
	if want := now.Add(100 * time.Millisecond); !p.next.Equal(want) {
		t.Errorf("expected next slot %v, got %v", want, p.next)
	}
}

func TestWait_Cancelled(t *testing.T) {
	p := New(1)
	ctx, cancel := context.WithCancel(context.Background())
	p.Wait(ctx)

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	if err := p.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("expected cancellation to interrupt the wait")
	}
}
