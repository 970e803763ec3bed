package assessment

import (
	"sync"
	"time"
)

// Ticker delivers ticks on C until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock abstracts wall time so the countdown can be driven deterministically
// in tests.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// SystemClock is the real clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) NewTicker(d time.Duration) Ticker {
	return &systemTicker{t: time.NewTicker(d)}
}

type systemTicker struct {
	t *time.Ticker
}

func (s *systemTicker) C() <-chan time.Time { return s.t.C }
func (s *systemTicker) Stop()               { s.t.Stop() }

// FakeClock is a manually advanced Clock. Advance fires one tick per
// elapsed ticker period on every live ticker, blocking until each tick is
// received.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
}

// NewFakeClock returns a FakeClock starting at now.
func NewFakeClock(now time.Time) *FakeClock {
	return &FakeClock{now: now}
}

func (f *FakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *FakeClock) NewTicker(d time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTicker{
		period: d,
		next:   f.now.Add(d),
		ch:     make(chan time.Time),
		stop:   make(chan struct{}),
	}
	f.tickers = append(f.tickers, t)
	return t
}

// Advance moves the clock forward by d, delivering due ticks.
func (f *FakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	tickers := append([]*fakeTicker(nil), f.tickers...)
	f.mu.Unlock()

	for _, t := range tickers {
		for !t.next.After(target) {
			at := t.next
			t.next = t.next.Add(t.period)
			f.mu.Lock()
			f.now = at
			f.mu.Unlock()
			select {
			case t.ch <- at:
			case <-t.stop:
			}
		}
	}

	f.mu.Lock()
	f.now = target
	f.mu.Unlock()
}

// Tickers returns how many tickers have been created and not stopped.
func (f *FakeClock) Tickers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.tickers {
		if !t.stopped() {
			n++
		}
	}
	return n
}

type fakeTicker struct {
	period time.Duration
	next   time.Time
	ch     chan time.Time
	stop   chan struct{}
	once   sync.Once
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }

func (t *fakeTicker) Stop() {
	t.once.Do(func() { close(t.stop) })
}

func (t *fakeTicker) stopped() bool {
	select {
	case <-t.stop:
		return true
	default:
		return false
	}
}
