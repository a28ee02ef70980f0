package session

import (
	"sync"
	"time"
)

// Ticker is the countdown source a Session owns. Arm starts delivering
// ticks to fn and replaces any previous arming; Disarm stops delivery.
// Neither call may block on a tick that is in flight, because the session
// disarms from inside its own tick handler.
type Ticker interface {
	Arm(fn func())
	Disarm()
}

// WallTicker fires on a time.Ticker, one goroutine per arming.
type WallTicker struct {
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
}

// NewWallTicker creates a WallTicker firing every interval (one second if <= 0).
func NewWallTicker(interval time.Duration) *WallTicker {
	if interval <= 0 {
		interval = time.Second
	}
	return &WallTicker{interval: interval}
}

func (t *WallTicker) Arm(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stop != nil {
		close(t.stop)
	}
	stop := make(chan struct{})
	t.stop = stop

	go func() {
		tk := time.NewTicker(t.interval)
		defer tk.Stop()
		for {
			select {
			case <-stop:
				return
			case <-tk.C:
				// A disarm may race the ticker channel; stop wins.
				select {
				case <-stop:
					return
				default:
				}
				fn()
			}
		}
	}()
}

func (t *WallTicker) Disarm() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}

// ManualTicker delivers ticks only when Fire is called. Tests use it to
// drive a session without wall-clock delays.
type ManualTicker struct {
	mu sync.Mutex
	fn func()
}

// NewManualTicker returns a disarmed ManualTicker.
func NewManualTicker() *ManualTicker {
	return &ManualTicker{}
}

func (t *ManualTicker) Arm(fn func()) {
	t.mu.Lock()
	t.fn = fn
	t.mu.Unlock()
}

func (t *ManualTicker) Disarm() {
	t.mu.Lock()
	t.fn = nil
	t.mu.Unlock()
}

// Armed reports whether a callback is currently registered.
func (t *ManualTicker) Armed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fn != nil
}

// Fire delivers n ticks, stopping early if the ticker gets disarmed.
// It returns the number of ticks delivered.
func (t *ManualTicker) Fire(n int) int {
	fired := 0
	for i := 0; i < n; i++ {
		t.mu.Lock()
		fn := t.fn
		t.mu.Unlock()
		if fn == nil {
			break
		}
		fn()
		fired++
	}
	return fired
}
