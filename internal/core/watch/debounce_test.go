package watch

import (
	"testing"
	"time"
)

func TestDebounce_Coalesces(t *testing.T) {
	d := NewDebouncer(100 * time.Millisecond)
	fired := make(chan []string, 4)
	d.OnFire(func(paths []string) { fired <- paths })

	d.Push("b.go")
	d.Push("a.go")
	d.Push("b.go")
	if n := d.Pending(); n != 2 {
		t.Fatalf("pending=%d", n)
	}

	select {
	case paths := <-fired:
		if len(paths) != 2 || paths[0] != "a.go" || paths[1] != "b.go" {
			t.Fatalf("paths=%v", paths)
		}
	case <-time.After(time.Second):
		t.Fatal("debouncer did not fire")
	}
}

func TestDebounce_StopDropsPending(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	fired := make(chan []string, 1)
	d.OnFire(func(paths []string) { fired <- paths })

	d.Push("a.go")
	d.Stop()
	d.Push("b.go")

	select {
	case paths := <-fired:
		t.Fatalf("unexpected fire: %v", paths)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestDebounce_AdaptiveDelay(t *testing.T) {
	d := NewDebouncer(0)
	if d.DelayFor(1) != 200*time.Millisecond {
		t.Fatalf("default delay=%v", d.DelayFor(1))
	}
	d.SetDelayFunc(func(count int) time.Duration { return time.Duration(count) * time.Millisecond })
	if d.DelayFor(7) != 7*time.Millisecond {
		t.Fatalf("delay=%v", d.DelayFor(7))
	}
}

func TestAdaptiveDelay_ScalesWithBatch(t *testing.T) {
	fn := adaptiveDelay(50*time.Millisecond, 150*time.Millisecond)
	cases := map[int]time.Duration{
		1:    50 * time.Millisecond,
		50:   100 * time.Millisecond,
		200:  150 * time.Millisecond,
		1000: 150 * time.Millisecond,
	}
	for n, want := range cases {
		if got := fn(n); got != want {
			t.Fatalf("delay(%d)=%v want %v", n, got, want)
		}
	}
}
